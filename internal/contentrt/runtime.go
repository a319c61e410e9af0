// Package contentrt connects the GraphQL executor to the content resolvers:
// root element queries, element mutations, relation fields and field
// directives.
package contentrt

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/hanpama/contentql/internal/content"
	"github.com/hanpama/contentql/internal/directive"
	"github.com/hanpama/contentql/internal/element"
	"github.com/hanpama/contentql/internal/eventbus"
	"github.com/hanpama/contentql/internal/executor"
	"github.com/hanpama/contentql/internal/resolver"
	"github.com/hanpama/contentql/internal/resolver/elements"
	"github.com/hanpama/contentql/internal/resolver/mutations"
	"github.com/hanpama/contentql/internal/schema"
)

// Backend is a store that also knows its sites and content model.
type Backend interface {
	content.Store
	content.Sites
	Model() *content.Model
}

// Runtime implements executor.Runtime for the content schema.
type Runtime struct {
	model      *content.Model
	queries    map[string]*resolver.ElementResolver
	mutations  map[string]resolver.FieldResolveFunc
	relation   *resolver.ElementResolver
	directives *resolver.DirectiveRegistry
}

var _ executor.Runtime = (*Runtime)(nil)

type Options struct {
	// Hooks receives the populate events of mutations. A new bus with the
	// built-in hooks is used when nil.
	Hooks *eventbus.Bus
	// Directives defaults to directive.Defaults.
	Directives *resolver.DirectiveRegistry
}

func New(backend Backend, opts Options) *Runtime {
	model := backend.Model()
	if opts.Hooks == nil {
		opts.Hooks = eventbus.New()
		RegisterHooks(opts.Hooks)
	}
	if opts.Directives == nil {
		opts.Directives = directive.Defaults(backend)
	}
	els := elements.New(backend, backend, model)
	return &Runtime{
		model:      model,
		queries:    els.Fields(),
		mutations:  mutations.New(backend, model, opts.Hooks).Fields(),
		relation:   els.Relation(),
		directives: opts.Directives,
	}
}

func (r *Runtime) Resolve(ctx context.Context, info *executor.ResolveInfo, source any, args map[string]any) (any, error) {
	switch info.ObjectType.Name {
	case info.Schema.QueryType:
		res, ok := r.queries[info.FieldName]
		if !ok {
			return nil, errors.Errorf("no resolver for %s", info.Key())
		}
		return res.Resolve(ctx, source, args, info)
	case info.Schema.MutationType:
		fn, ok := r.mutations[info.FieldName]
		if !ok {
			return nil, errors.Errorf("no resolver for %s", info.Key())
		}
		return fn(ctx, source, args, info)
	}
	var resolve resolver.FieldResolveFunc
	if _, ok := source.(*element.Element); ok && r.isRelation(info) {
		resolve = r.relation.Resolve
	}
	return resolver.ResolveWithDirectives(ctx, source, args, info, resolve, r.directives)
}

// isRelation reports whether the field is a relation field of the model
// returning elements.
func (r *Runtime) isRelation(info *executor.ResolveInfo) bool {
	f := r.model.Field(info.FieldName)
	if f == nil || !f.IsRelation() {
		return false
	}
	t := info.Schema.NamedType(info.Field.Type)
	return t != nil && (t.Kind == schema.TypeKindObject || t.Kind == schema.TypeKindInterface)
}

func (r *Runtime) ResolveType(_ context.Context, abstractType string, value any) (string, error) {
	el, ok := value.(*element.Element)
	if !ok {
		return "", errors.Errorf("cannot resolve %s from %T", abstractType, value)
	}
	name, ok := TypeNames[el.Kind]
	if !ok {
		return "", errors.Errorf("no type for element kind %q", el.Kind)
	}
	return name, nil
}

func (r *Runtime) SerializeLeafValue(_ context.Context, typeName string, value any) (any, error) {
	switch typeName {
	case "ID":
		switch v := value.(type) {
		case string:
			return v, nil
		case int64:
			return strconv.FormatInt(v, 10), nil
		case int:
			return strconv.Itoa(v), nil
		}
	case "Int":
		switch v := value.(type) {
		case int:
			return v, nil
		case int64:
			return v, nil
		case float64:
			if v == float64(int64(v)) {
				return int64(v), nil
			}
		}
	case "Float":
		switch v := value.(type) {
		case float64:
			return v, nil
		case int:
			return float64(v), nil
		case int64:
			return float64(v), nil
		}
	case "String":
		switch v := value.(type) {
		case string:
			return v, nil
		case fmt.Stringer:
			return v.String(), nil
		}
	case "Boolean":
		if v, ok := value.(bool); ok {
			return v, nil
		}
	case "DateTime":
		switch v := value.(type) {
		case time.Time:
			return v.UTC().Format(time.RFC3339), nil
		case *time.Time:
			return v.UTC().Format(time.RFC3339), nil
		case string:
			// already formatted by a directive
			return v, nil
		}
	case "JSON", "QueryArgument":
		return value, nil
	default:
		// enums
		if s, ok := value.(string); ok {
			return s, nil
		}
	}
	return nil, errors.Errorf("cannot serialize %T as %s", value, typeName)
}
