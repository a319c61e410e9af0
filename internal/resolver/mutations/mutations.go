// Package mutations provides the element mutation fields.
package mutations

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/hanpama/contentql/internal/content"
	"github.com/hanpama/contentql/internal/element"
	"github.com/hanpama/contentql/internal/eventbus"
	"github.com/hanpama/contentql/internal/events"
	"github.com/hanpama/contentql/internal/executor"
	"github.com/hanpama/contentql/internal/logging"
	"github.com/hanpama/contentql/internal/resolver"
)

// Mutations resolves saveEntry, deleteEntry, saveCategory and deleteCategory.
type Mutations struct {
	Store content.Store
	Model *content.Model
	// Hooks receives the populate events of every save.
	Hooks *eventbus.Bus
}

func New(store content.Store, model *content.Model, hooks *eventbus.Bus) *Mutations {
	return &Mutations{Store: store, Model: model, Hooks: hooks}
}

// Fields maps mutation field names to their resolvers.
func (m *Mutations) Fields() map[string]resolver.FieldResolveFunc {
	return map[string]resolver.FieldResolveFunc{
		"saveEntry":      m.Save(element.KindEntry),
		"deleteEntry":    m.Delete(element.KindEntry),
		"saveCategory":   m.Save(element.KindCategory),
		"deleteCategory": m.Delete(element.KindCategory),
	}
}

// Save loads the element named by id or uid, or starts a new one, populates
// it from the arguments, saves it, applies a structure operation and returns
// the stored element.
func (m *Mutations) Save(kind element.Kind) resolver.FieldResolveFunc {
	return func(ctx context.Context, _ any, args map[string]any, info *executor.ResolveInfo) (any, error) {
		saved, err := m.observe(ctx, info, func() (*element.Element, error) {
			el, err := m.load(ctx, kind, args)
			if err != nil {
				return nil, err
			}
			if el == nil {
				if el, err = m.create(ctx, kind, args); err != nil {
					return nil, err
				}
			}

			r := resolver.NewElementMutationResolver(map[string]any{
				resolver.ContentFieldsKey: m.contentFields(el),
			}, m.Store, m.Hooks)
			if el, err = r.PopulateElementWithData(ctx, el, args, info); err != nil {
				return nil, err
			}
			if err := r.SaveElement(ctx, el); err != nil {
				return el, err
			}
			if err := r.PerformStructureOperations(ctx, el, args); err != nil {
				return el, err
			}

			saved, err := m.Store.ElementByID(ctx, el.ID, el.SiteID)
			if err != nil {
				return el, errors.Wrap(err, "reload element")
			}
			return saved, nil
		})
		if err != nil || saved == nil {
			return nil, err
		}
		return saved, nil
	}
}

// Delete removes the element named by id and reports whether it existed.
func (m *Mutations) Delete(kind element.Kind) resolver.FieldResolveFunc {
	return func(ctx context.Context, _ any, args map[string]any, info *executor.ResolveInfo) (any, error) {
		deleted := false
		_, err := m.observe(ctx, info, func() (*element.Element, error) {
			id, err := element.ToInt64(args["id"])
			if err != nil {
				return nil, errors.Wrap(err, "id")
			}
			el, err := m.Store.ElementByID(ctx, id, 0)
			if err != nil {
				return nil, err
			}
			if el == nil || el.Kind != kind {
				return nil, nil
			}
			if err := m.Store.Delete(ctx, el); err != nil {
				return el, err
			}
			deleted = true
			return el, nil
		})
		if err != nil {
			return nil, err
		}
		return deleted, nil
	}
}

func (m *Mutations) observe(ctx context.Context, info *executor.ResolveInfo, fn func() (*element.Element, error)) (*element.Element, error) {
	field := ""
	if info != nil {
		field = info.FieldName
	}
	start := time.Now()
	eventbus.Publish(ctx, events.MutationStart{Field: field})
	el, err := fn()
	finish := events.MutationFinish{Field: field, Err: err, Duration: time.Since(start)}
	if el != nil {
		finish.ElementID = el.ID
	}
	eventbus.Publish(ctx, finish)
	if err != nil {
		logging.FromContext(ctx).Debug("mutation failed", zap.String("field", field), zap.Error(err))
		return nil, err
	}
	return el, nil
}

// load returns the existing element named by id or uid, or nil when neither
// is given.
func (m *Mutations) load(ctx context.Context, kind element.Kind, args map[string]any) (*element.Element, error) {
	siteID, err := m.siteID(ctx, args)
	if err != nil {
		return nil, err
	}
	var el *element.Element
	switch {
	case args["id"] != nil:
		id, err := element.ToInt64(args["id"])
		if err != nil {
			return nil, errors.Wrap(err, "id")
		}
		if el, err = m.Store.ElementByID(ctx, id, siteID); err != nil {
			return nil, err
		}
		if el == nil || el.Kind != kind {
			return nil, errors.Errorf("no %s with id %d", kind, id)
		}
	case args["uid"] != nil:
		uid, err := element.ToString(args["uid"])
		if err != nil {
			return nil, errors.Wrap(err, "uid")
		}
		if el, err = m.Store.ElementByUID(ctx, uid, siteID); err != nil {
			return nil, err
		}
		if el == nil || el.Kind != kind {
			return nil, errors.Errorf("no %s with uid %q", kind, uid)
		}
	}
	return el, nil
}

// create starts a new element in the section or category group named by the
// arguments.
func (m *Mutations) create(ctx context.Context, kind element.Kind, args map[string]any) (*element.Element, error) {
	el := element.New(kind)
	siteID, err := m.siteID(ctx, args)
	if err != nil {
		return nil, err
	}
	el.SiteID = siteID

	switch kind {
	case element.KindEntry:
		sec, err := m.lookup(args, "section", func(h string) int64 {
			if s := m.Model.Section(h); s != nil {
				return s.ID
			}
			return 0
		})
		if err != nil {
			return nil, err
		}
		if sec == 0 {
			return nil, errors.New("a new entry needs a section or sectionId")
		}
		el.SectionID = sec
	case element.KindCategory:
		group, err := m.lookup(args, "group", func(h string) int64 {
			if g := m.Model.CategoryGroup(h); g != nil {
				return g.ID
			}
			return 0
		})
		if err != nil {
			return nil, err
		}
		if group == 0 {
			return nil, errors.New("a new category needs a group or groupId")
		}
		el.GroupID = group
	}
	m.Model.PrepareElement(el)
	return el, nil
}

// lookup reads name+"Id" as an ID, or name as a handle.
func (m *Mutations) lookup(args map[string]any, name string, byHandle func(string) int64) (int64, error) {
	if v := args[name+"Id"]; v != nil {
		id, err := element.ToInt64(v)
		return id, errors.Wrap(err, name+"Id")
	}
	if v := args[name]; v != nil {
		h, err := element.ToString(v)
		if err != nil {
			return 0, errors.Wrap(err, name)
		}
		id := byHandle(h)
		if id == 0 {
			return 0, errors.Errorf("invalid %s %q", name, h)
		}
		return id, nil
	}
	return 0, nil
}

func (m *Mutations) siteID(ctx context.Context, args map[string]any) (int64, error) {
	if v := args["siteId"]; v != nil {
		id, err := element.ToInt64(v)
		return id, errors.Wrap(err, "siteId")
	}
	if v := args["site"]; v != nil {
		h, err := element.ToString(v)
		if err != nil {
			return 0, errors.Wrap(err, "site")
		}
		site, err := m.Model.SiteByHandle(ctx, h)
		if err != nil {
			return 0, err
		}
		if site == nil {
			return 0, errors.Errorf("invalid site handle %q", h)
		}
		return site.ID, nil
	}
	return 0, nil
}

func (m *Mutations) contentFields(el *element.Element) map[string]*content.Field {
	fields := map[string]*content.Field{}
	for _, f := range m.Model.FieldsFor(el) {
		fields[f.Handle] = f
	}
	return fields
}
