package resolver

import (
	"context"
	"fmt"
	"sort"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/hanpama/contentql/internal/content"
	"github.com/hanpama/contentql/internal/element"
	"github.com/hanpama/contentql/internal/eventbus"
	"github.com/hanpama/contentql/internal/events"
	"github.com/hanpama/contentql/internal/executor"
	"github.com/hanpama/contentql/internal/logging"
	"github.com/hanpama/contentql/internal/metrics"
)

// ContentFieldsKey is the data key holding the content fields
// (map[string]*content.Field) a mutation may populate.
const ContentFieldsKey = "contentFields"

// ElementMutationResolver populates, saves and positions elements.
type ElementMutationResolver struct {
	*MutationResolver
	Persister  content.Persister
	Finder     content.Finder
	Structures content.Structures
	// Hooks receives *events.BeforePopulate and *events.AfterPopulate.
	Hooks *eventbus.Bus
}

// NewElementMutationResolver wires a resolver for one mutation invocation.
func NewElementMutationResolver(data map[string]any, store content.Store, hooks *eventbus.Bus) *ElementMutationResolver {
	return &ElementMutationResolver{
		MutationResolver: NewMutationResolver(data),
		Persister:        store,
		Finder:           store,
		Structures:       store,
		Hooks:            hooks,
	}
}

func (r *ElementMutationResolver) contentFields() map[string]*content.Field {
	fields, ok := r.Data(ContentFieldsKey).(map[string]*content.Field)
	if !ok {
		panic(&WiringError{Msg: fmt.Sprintf("%s must be map[string]*content.Field", ContentFieldsKey)})
	}
	return fields
}

// PopulateElementWithData assigns mutation arguments to el and returns the
// element to continue with, which populate hooks may have replaced.
// Arguments are normalized first; id and uid are never assigned. Arguments
// naming a content field set its value, settable attributes are assigned,
// and anything else is dropped.
func (r *ElementMutationResolver) PopulateElementWithData(ctx context.Context, el *element.Element, args map[string]any, info *executor.ResolveInfo) (*element.Element, error) {
	normalized, err := r.NormalizeArguments(info, args)
	if err != nil {
		return nil, err
	}
	normalized = copyArgs(normalized)
	delete(normalized, "id")
	delete(normalized, "uid")

	fieldName := ""
	if info != nil {
		fieldName = info.FieldName
	}
	before := &events.BeforePopulate{Element: el, Arguments: normalized, Field: fieldName}
	eventbus.Emit(ctx, r.Hooks, before)
	el, normalized = before.Element, before.Arguments
	if el == nil {
		return nil, errors.New("a before-populate hook removed the element")
	}

	fields := r.contentFields()
	log := logging.FromContext(ctx)
	names := make([]string, 0, len(normalized))
	for name := range normalized {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		value := normalized[name]
		if f, ok := fields[name]; ok {
			nv, err := f.Normalize(value)
			if err != nil {
				return nil, err
			}
			el.SetFieldValue(name, nv)
			continue
		}
		if el.CanSetAttribute(name) {
			if err := el.SetAttribute(name, value); err != nil {
				return nil, err
			}
			continue
		}
		log.Debug("dropping unknown mutation argument", zap.String("argument", name), zap.String("kind", string(el.Kind)))
	}

	after := &events.AfterPopulate{Element: el, Arguments: normalized, Field: fieldName}
	eventbus.Emit(ctx, r.Hooks, after)
	if after.Element == nil {
		return nil, errors.New("an after-populate hook removed the element")
	}
	return after.Element, nil
}

// SaveElement persists el. An enabled element in the default scenario is
// saved under the live scenario.
func (r *ElementMutationResolver) SaveElement(ctx context.Context, el *element.Element) error {
	if el.Enabled && el.Scenario() == element.ScenarioDefault {
		el.SetScenario(element.ScenarioLive)
	}
	ok, err := r.Persister.Save(ctx, el)
	if err != nil {
		return errors.Wrap(err, "save element")
	}
	if !ok {
		metrics.ValidationFailures.WithLabelValues(string(el.Kind)).Inc()
		verr := &ValidationError{Messages: el.FirstErrors()}
		logging.FromContext(ctx).Info("element failed validation",
			zap.String("kind", string(el.Kind)),
			zap.Strings("errors", verr.Messages),
		)
		return verr
	}
	return nil
}
