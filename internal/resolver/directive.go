package resolver

import (
	"context"

	"github.com/pkg/errors"

	"github.com/hanpama/contentql/internal/executor"
	"github.com/hanpama/contentql/internal/language"
	"github.com/hanpama/contentql/internal/metrics"
)

// Directive transforms a resolved field value.
type Directive interface {
	Name() string
	// Apply receives the value produced by the resolver or the previous
	// directive and the directive's literal arguments.
	Apply(ctx context.Context, source any, value any, args map[string]any, info *executor.ResolveInfo) (any, error)
}

// DirectiveRegistry maps directive names to implementations.
type DirectiveRegistry struct {
	directives map[string]Directive
}

func NewDirectiveRegistry(directives ...Directive) *DirectiveRegistry {
	r := &DirectiveRegistry{directives: make(map[string]Directive, len(directives))}
	for _, d := range directives {
		r.Register(d)
	}
	return r
}

func (r *DirectiveRegistry) Register(d Directive) { r.directives[d.Name()] = d }

// Lookup returns the directive registered under name.
func (r *DirectiveRegistry) Lookup(name string) (Directive, bool) {
	if r == nil {
		return nil, false
	}
	d, ok := r.directives[name]
	return d, ok
}

// FieldResolveFunc produces the raw value of a field.
type FieldResolveFunc func(ctx context.Context, source any, args map[string]any, info *executor.ResolveInfo) (any, error)

// PropertyReader is implemented by sources that expose named properties.
type PropertyReader interface {
	Property(name string) (any, bool)
}

// DefaultResolve reads the field's property from the source value.
func DefaultResolve(_ context.Context, source any, _ map[string]any, info *executor.ResolveInfo) (any, error) {
	switch s := source.(type) {
	case nil:
		return nil, nil
	case PropertyReader:
		v, _ := s.Property(info.FieldName)
		return v, nil
	case map[string]any:
		return s[info.FieldName], nil
	}
	return nil, errors.Errorf("cannot read %q from %T", info.FieldName, source)
}

// ResolveWithDirectives resolves the field with resolve (DefaultResolve when
// nil) and then applies every registered directive on the field node in
// document order. Directives the registry does not know are ignored. Any
// failure is returned as a *ResolutionError.
func ResolveWithDirectives(ctx context.Context, source any, args map[string]any, info *executor.ResolveInfo, resolve FieldResolveFunc, registry *DirectiveRegistry) (any, error) {
	if resolve == nil {
		resolve = DefaultResolve
	}
	value, err := resolve(ctx, source, args, info)
	if err != nil {
		metrics.DirectiveFailures.WithLabelValues("").Inc()
		return nil, &ResolutionError{Field: info.Key(), Err: err}
	}
	node := info.Node()
	if node == nil {
		return value, nil
	}
	for _, dir := range node.Directives {
		d, ok := registry.Lookup(dir.Name)
		if !ok {
			continue
		}
		value, err = d.Apply(ctx, source, value, language.LiteralArguments(dir.Arguments), info)
		if err != nil {
			metrics.DirectiveFailures.WithLabelValues(dir.Name).Inc()
			return nil, &ResolutionError{Field: info.Key(), Directive: dir.Name, Err: err}
		}
	}
	return value, nil
}
