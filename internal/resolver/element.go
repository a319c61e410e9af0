package resolver

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/hanpama/contentql/internal/content"
	"github.com/hanpama/contentql/internal/element"
	"github.com/hanpama/contentql/internal/executor"
	"github.com/hanpama/contentql/internal/language"
	"github.com/hanpama/contentql/internal/metrics"
	"github.com/hanpama/contentql/internal/schema"
)

// Prepared is the outcome of QueryPreparer.PrepareQuery: either elements that
// are already materialized, or a query still to be executed.
type Prepared struct {
	Elements []*element.Element
	Query    content.Query
}

// QueryPreparer builds the element query for one field resolution.
type QueryPreparer interface {
	PrepareQuery(ctx context.Context, source any, args map[string]any, info *executor.ResolveInfo) (Prepared, error)
}

// QueryPreparerFunc adapts a function to QueryPreparer.
type QueryPreparerFunc func(ctx context.Context, source any, args map[string]any, info *executor.ResolveInfo) (Prepared, error)

func (f QueryPreparerFunc) PrepareQuery(ctx context.Context, source any, args map[string]any, info *executor.ResolveInfo) (Prepared, error) {
	return f(ctx, source, args, info)
}

// Cardinality selects how an ElementResolver executes its query.
type Cardinality int

const (
	Many Cardinality = iota
	One
	Count
)

// EagerLoadableFunc reports the fields of a GraphQL type that can be
// eager-loaded as relations.
type EagerLoadableFunc func(s *schema.Schema, typeName string) map[string]bool

// ElementResolver resolves element-returning fields.
type ElementResolver struct {
	Preparer    QueryPreparer
	Cardinality Cardinality
	// Arrayable names the arguments that accept comma-separated lists.
	Arrayable []string
	// NewArgumentManager builds the manager for one resolution.
	NewArgumentManager func() *ArgumentManager
	EagerLoadable      EagerLoadableFunc
}

func (r *ElementResolver) Resolve(ctx context.Context, source any, args map[string]any, info *executor.ResolveInfo) (any, error) {
	manager := r.NewArgumentManager()
	args, err := manager.PrepareArguments(ctx, PrepareArguments(args, r.Arrayable))
	if err != nil {
		return nil, err
	}

	prepared, err := r.Preparer.PrepareQuery(ctx, source, args, info)
	if err != nil {
		return nil, err
	}
	if prepared.Query == nil {
		switch r.Cardinality {
		case One:
			if len(prepared.Elements) == 0 {
				return nil, nil
			}
			return prepared.Elements[0], nil
		case Count:
			return len(prepared.Elements), nil
		}
		return prepared.Elements, nil
	}

	q := prepared.Query
	if r.Cardinality == Count {
		return q.Count(ctx)
	}

	plans, err := r.EagerLoadPlans(ctx, info, manager)
	if err != nil {
		return nil, err
	}
	if len(plans) > 0 {
		metrics.EagerLoadPlans.Add(float64(len(plans)))
		q.With(plans)
	}
	if r.Cardinality == One {
		el, err := q.One(ctx)
		if err != nil || el == nil {
			return nil, err
		}
		return el, nil
	}
	return q.All(ctx)
}

// EagerLoadPlans walks the selections under the current field and returns a
// plan for every nested relation field that can be eager-loaded.
func (r *ElementResolver) EagerLoadPlans(ctx context.Context, info *executor.ResolveInfo, manager *ArgumentManager) ([]content.EagerLoadPlan, error) {
	if r.EagerLoadable == nil || info == nil || info.Field == nil {
		return nil, nil
	}
	w := &planWalker{
		ctx:       ctx,
		info:      info,
		manager:   manager,
		arrayable: r.Arrayable,
		cache:     RequestCacheFromContext(ctx),
		eager:     r.EagerLoadable,
		visited:   map[string]bool{},
	}
	var selections language.SelectionSet
	for _, f := range info.Fields {
		selections = append(selections, f.SelectionSet...)
	}
	return w.walk(selections, info.Field.Type.GetNamedType())
}

type planWalker struct {
	ctx       context.Context
	info      *executor.ResolveInfo
	manager   *ArgumentManager
	arrayable []string
	cache     *RequestCache
	eager     EagerLoadableFunc
	visited   map[string]bool
}

func (w *planWalker) walk(selections language.SelectionSet, typeName string) ([]content.EagerLoadPlan, error) {
	var plans []content.EagerLoadPlan
	loadable := w.cache.EagerLoadable(w.info.Schema, typeName, w.eager)
	for _, sel := range selections {
		switch s := sel.(type) {
		case *language.Field:
			if !loadable[s.Name] || !executor.ShouldInclude(s.Directives, w.info.Variables) {
				continue
			}
			plan := content.EagerLoadPlan{Field: s.Name}
			if s.Alias != "" && s.Alias != s.Name {
				plan.Alias = s.Alias
			}
			if len(s.Arguments) > 0 {
				args := PrepareArguments(language.ArgumentValues(s.Arguments, w.info.Variables), w.arrayable)
				criteria, err := w.manager.PrepareArguments(w.ctx, args)
				if err != nil {
					return nil, errors.Wrapf(err, "eager-load %s", s.Name)
				}
				plan.Criteria = criteria
			}
			nestedType := ""
			if t := w.info.Schema.Types[typeName]; t != nil {
				if f := t.Field(s.Name); f != nil {
					nestedType = f.Type.GetNamedType()
				}
			}
			nested, err := w.walk(s.SelectionSet, nestedType)
			if err != nil {
				return nil, err
			}
			plan.Nested = nested
			plans = append(plans, plan)
		case *language.InlineFragment:
			if !executor.ShouldInclude(s.Directives, w.info.Variables) {
				continue
			}
			nested, err := w.walk(s.SelectionSet, fragmentType(s.TypeCondition, typeName))
			if err != nil {
				return nil, err
			}
			plans = append(plans, nested...)
		case *language.FragmentSpread:
			if w.visited[s.Name] || !executor.ShouldInclude(s.Directives, w.info.Variables) {
				continue
			}
			def := w.info.Document.Fragments.ForName(s.Name)
			if def == nil {
				continue
			}
			w.visited[s.Name] = true
			nested, err := w.walk(def.SelectionSet, fragmentType(def.TypeCondition, typeName))
			delete(w.visited, s.Name)
			if err != nil {
				return nil, err
			}
			plans = append(plans, nested...)
		}
	}
	return plans, nil
}

func fragmentType(condition, current string) string {
	if condition != "" {
		return condition
	}
	return current
}

// RequestCache memoizes per-schema lookups for the lifetime of one request.
type RequestCache struct {
	mu    sync.Mutex
	eager map[*schema.Schema]map[string]map[string]bool
}

func NewRequestCache() *RequestCache {
	return &RequestCache{eager: map[*schema.Schema]map[string]map[string]bool{}}
}

type requestCacheKey struct{}

// WithRequestCache returns a context carrying c.
func WithRequestCache(ctx context.Context, c *RequestCache) context.Context {
	return context.WithValue(ctx, requestCacheKey{}, c)
}

// RequestCacheFromContext returns the cache in ctx or nil. A nil cache is
// usable and computes every lookup.
func RequestCacheFromContext(ctx context.Context) *RequestCache {
	c, _ := ctx.Value(requestCacheKey{}).(*RequestCache)
	return c
}

// EagerLoadable returns the eager-loadable fields of typeName in s.
func (c *RequestCache) EagerLoadable(s *schema.Schema, typeName string, compute EagerLoadableFunc) map[string]bool {
	if c == nil {
		return compute(s, typeName)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	byType := c.eager[s]
	if byType == nil {
		byType = map[string]map[string]bool{}
		c.eager[s] = byType
	}
	fields, ok := byType[typeName]
	if !ok {
		fields = compute(s, typeName)
		byType[typeName] = fields
	}
	return fields
}
