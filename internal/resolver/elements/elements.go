// Package elements provides the element query fields: the root entries,
// assets, categories and users fields and the relation fields of elements.
package elements

import (
	"context"

	"github.com/pkg/errors"

	"github.com/hanpama/contentql/internal/content"
	"github.com/hanpama/contentql/internal/element"
	"github.com/hanpama/contentql/internal/executor"
	"github.com/hanpama/contentql/internal/resolver"
	"github.com/hanpama/contentql/internal/schema"
)

// Arrayable lists the criteria arguments that accept comma-separated values.
var Arrayable = []string{
	"id", "uid", "site", "siteId", "section", "sectionId", "typeId", "group", "groupId",
	"status", "title", "slug", "relatedTo",
	resolver.RelatedToEntries, resolver.RelatedToAssets, resolver.RelatedToCategories, resolver.RelatedToUsers,
}

// Resolvers builds element resolvers against one store.
type Resolvers struct {
	Queries content.QueryFactory
	Sites   content.Sites
	Model   *content.Model
}

func New(queries content.QueryFactory, sites content.Sites, model *content.Model) *Resolvers {
	return &Resolvers{Queries: queries, Sites: sites, Model: model}
}

// Root returns the resolver of a root element field selecting kind.
func (r *Resolvers) Root(kind element.Kind, card resolver.Cardinality) *resolver.ElementResolver {
	return r.newResolver(card, resolver.QueryPreparerFunc(func(_ context.Context, _ any, args map[string]any, _ *executor.ResolveInfo) (resolver.Prepared, error) {
		q := r.Queries.NewQuery(kind)
		if err := q.Configure(args); err != nil {
			return resolver.Prepared{}, err
		}
		return resolver.Prepared{Query: q}, nil
	}))
}

// Fields maps root field names to their resolvers.
func (r *Resolvers) Fields() map[string]*resolver.ElementResolver {
	return map[string]*resolver.ElementResolver{
		"entries":       r.Root(element.KindEntry, resolver.Many),
		"entry":         r.Root(element.KindEntry, resolver.One),
		"entryCount":    r.Root(element.KindEntry, resolver.Count),
		"assets":        r.Root(element.KindAsset, resolver.Many),
		"asset":         r.Root(element.KindAsset, resolver.One),
		"assetCount":    r.Root(element.KindAsset, resolver.Count),
		"categories":    r.Root(element.KindCategory, resolver.Many),
		"category":      r.Root(element.KindCategory, resolver.One),
		"categoryCount": r.Root(element.KindCategory, resolver.Count),
		"users":         r.Root(element.KindUser, resolver.Many),
		"user":          r.Root(element.KindUser, resolver.One),
		"userCount":     r.Root(element.KindUser, resolver.Count),
	}
}

// Relation returns the resolver of relation fields on elements. Elements
// eager-loaded by the parent query are used as they are; otherwise the
// stored IDs are queried in field order.
func (r *Resolvers) Relation() *resolver.ElementResolver {
	return r.newResolver(resolver.Many, resolver.QueryPreparerFunc(r.prepareRelation))
}

func (r *Resolvers) prepareRelation(_ context.Context, source any, args map[string]any, info *executor.ResolveInfo) (resolver.Prepared, error) {
	el, ok := source.(*element.Element)
	if !ok {
		return resolver.Prepared{}, errors.Errorf("relation field %s needs an element source, got %T", info.Key(), source)
	}
	f := r.Model.Field(info.FieldName)
	if f == nil {
		return resolver.Prepared{}, errors.Errorf("unknown relation field %q", info.FieldName)
	}
	kind, ok := f.RelationKind()
	if !ok {
		return resolver.Prepared{}, errors.Errorf("field %q is not a relation field", info.FieldName)
	}

	if loaded, ok := el.EagerLoaded(info.ResponseName()); ok {
		return resolver.Prepared{Elements: loaded}, nil
	}
	ids := el.RelationIDs(f.Handle)
	if len(ids) == 0 {
		return resolver.Prepared{Elements: []*element.Element{}}, nil
	}

	q := r.Queries.NewQuery(kind)
	criteria := make(map[string]any, len(args)+3)
	for k, v := range args {
		criteria[k] = v
	}
	_, site := criteria["site"]
	_, siteID := criteria["siteId"]
	if !site && !siteID {
		criteria["siteId"] = el.SiteID
	}
	if _, sorted := criteria["orderBy"]; !sorted {
		criteria["fixedOrder"] = true
	}
	criteria["id"] = ids
	if err := q.Configure(criteria); err != nil {
		return resolver.Prepared{}, err
	}
	return resolver.Prepared{Query: q}, nil
}

func (r *Resolvers) newResolver(card resolver.Cardinality, preparer resolver.QueryPreparer) *resolver.ElementResolver {
	return &resolver.ElementResolver{
		Preparer:    preparer,
		Cardinality: card,
		Arrayable:   Arrayable,
		NewArgumentManager: func() *resolver.ArgumentManager {
			return resolver.NewDefaultArgumentManager(r.Queries, r.Sites)
		},
		EagerLoadable: r.EagerLoadable,
	}
}

// EagerLoadable reports the fields of typeName backed by relation fields.
func (r *Resolvers) EagerLoadable(s *schema.Schema, typeName string) map[string]bool {
	out := map[string]bool{}
	t := s.Types[typeName]
	if t == nil {
		return out
	}
	for _, f := range t.Fields {
		if mf := r.Model.Field(f.Name); mf != nil && mf.IsRelation() {
			out[f.Name] = true
		}
	}
	return out
}
