package resolver

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/hanpama/contentql/internal/executor"
	"github.com/hanpama/contentql/internal/schema"
)

// MutationResolver holds the data a mutation field was wired with and
// normalizes its arguments against the schema. One instance serves one field
// invocation.
type MutationResolver struct {
	data map[string]any
	// argument types by owning definition set: the field key for root
	// arguments, the input type name for input fields
	argumentTypes map[string]map[string]*schema.Type
}

// NewMutationResolver copies data into a new resolver.
func NewMutationResolver(data map[string]any) *MutationResolver {
	d := make(map[string]any, len(data))
	for k, v := range data {
		d[k] = v
	}
	return &MutationResolver{data: d, argumentTypes: map[string]map[string]*schema.Type{}}
}

// Data returns the value wired under key. A missing key is a wiring mistake
// and panics with *WiringError.
func (r *MutationResolver) Data(key string) any {
	v, ok := r.data[key]
	if !ok {
		panic(&WiringError{Msg: fmt.Sprintf("mutation resolver has no data for %q", key)})
	}
	return v
}

// NormalizeArguments rewrites every argument whose declared type is an input
// object: the object's fields are normalized recursively, then the input
// type's Normalizer is applied. Other values are returned untouched.
func (r *MutationResolver) NormalizeArguments(info *executor.ResolveInfo, args map[string]any) (map[string]any, error) {
	if info == nil || info.Field == nil {
		return args, nil
	}
	return r.normalizeSet(info.Schema, info.Key(), info.Field.Arguments, args)
}

func (r *MutationResolver) normalizeSet(sch *schema.Schema, owner string, defs []*schema.InputValue, values map[string]any) (map[string]any, error) {
	types := r.typesFor(sch, owner, defs)
	out := make(map[string]any, len(values))
	for name, v := range values {
		t := types[name]
		if t == nil || t.Kind != schema.TypeKindInputObject || v == nil {
			out[name] = v
			continue
		}
		nv, err := r.normalizeInput(sch, t, v)
		if err != nil {
			return nil, errors.Wrapf(err, "normalize %s", name)
		}
		if t.Normalizer != nil {
			if nv, err = t.Normalizer(nv); err != nil {
				return nil, errors.Wrapf(err, "normalize %s", name)
			}
		}
		out[name] = nv
	}
	return out, nil
}

// normalizeInput normalizes the fields of an input object value, or of each
// item when the value is a list.
func (r *MutationResolver) normalizeInput(sch *schema.Schema, t *schema.Type, v any) (any, error) {
	switch x := v.(type) {
	case []any:
		items := make([]any, len(x))
		for i, item := range x {
			ni, err := r.normalizeInput(sch, t, item)
			if err != nil {
				return nil, err
			}
			items[i] = ni
		}
		return items, nil
	case map[string]any:
		return r.normalizeSet(sch, t.Name, t.InputFields, x)
	}
	return v, nil
}

func (r *MutationResolver) typesFor(sch *schema.Schema, owner string, defs []*schema.InputValue) map[string]*schema.Type {
	if types, ok := r.argumentTypes[owner]; ok {
		return types
	}
	types := make(map[string]*schema.Type, len(defs))
	for _, d := range defs {
		types[d.Name] = sch.NamedType(d.Type)
	}
	r.argumentTypes[owner] = types
	return types
}
