// Package introspection serves the __schema and __type meta fields on top of
// another executor.Runtime.
package introspection

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/hanpama/contentql/internal/executor"
	"github.com/hanpama/contentql/internal/schema"
)

// Runtime answers introspection fields and delegates every other field to
// the wrapped runtime.
type Runtime struct {
	base     executor.Runtime
	original *schema.Schema
	extended *schema.Schema
}

var _ executor.Runtime = (*Runtime)(nil)

// Wrap returns an introspecting runtime for sch. Execute against Schema(),
// which carries the introspection types.
func Wrap(base executor.Runtime, sch *schema.Schema) *Runtime {
	return &Runtime{base: base, original: sch, extended: extend(sch)}
}

// Schema returns the schema extended with the introspection types.
func (r *Runtime) Schema() *schema.Schema { return r.extended }

func (r *Runtime) Resolve(ctx context.Context, info *executor.ResolveInfo, source any, args map[string]any) (any, error) {
	if info.ObjectType != nil && isMeta(info.ObjectType.Name) {
		return r.resolveMeta(info.FieldName, source, args), nil
	}
	if info.ObjectType != nil && info.ObjectType.Name == r.original.QueryType {
		switch info.FieldName {
		case "__schema":
			return r.original, nil
		case "__type":
			name, _ := args["name"].(string)
			if t := r.original.Types[name]; t != nil {
				return t, nil
			}
			return nil, nil
		}
	}
	return r.base.Resolve(ctx, info, source, args)
}

func (r *Runtime) ResolveType(ctx context.Context, abstractType string, value any) (string, error) {
	return r.base.ResolveType(ctx, abstractType, value)
}

func (r *Runtime) SerializeLeafValue(ctx context.Context, typeName string, value any) (any, error) {
	if isMeta(typeName) {
		return fmt.Sprint(value), nil
	}
	return r.base.SerializeLeafValue(ctx, typeName, value)
}

func isMeta(typeName string) bool { return strings.HasPrefix(typeName, "__") }

func (r *Runtime) resolveMeta(field string, source any, args map[string]any) any {
	switch src := source.(type) {
	case *schema.Schema:
		return schemaField(src, field)
	case *schema.Type:
		return typeField(r.original, src, field, args)
	case *schema.TypeRef:
		return typeRefField(r.original, src, field, args)
	case *schema.Field:
		return fieldField(src, field, args)
	case *schema.InputValue:
		return inputValueField(src, field)
	case *schema.EnumValue:
		return enumValueField(src, field)
	case *schema.Directive:
		return directiveField(src, field, args)
	}
	return nil
}

func schemaField(sch *schema.Schema, field string) any {
	switch field {
	case "types":
		out := make([]*schema.Type, 0, len(sch.Types))
		for _, t := range sch.Types {
			out = append(out, t)
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
		return out
	case "queryType":
		return nilType(sch.GetQueryType())
	case "mutationType":
		return nilType(sch.GetMutationType())
	case "subscriptionType":
		return nilType(sch.GetSubscriptionType())
	case "directives":
		out := make([]*schema.Directive, 0, len(sch.Directives))
		for _, d := range sch.Directives {
			out = append(out, d)
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
		return out
	case "description":
		return optional(sch.Description)
	}
	return nil
}

// nilType keeps a missing root type from becoming a typed nil.
func nilType(t *schema.Type) any {
	if t == nil {
		return nil
	}
	return t
}

func optional(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func typeField(sch *schema.Schema, t *schema.Type, field string, args map[string]any) any {
	switch field {
	case "kind":
		return string(t.Kind)
	case "name":
		return t.Name
	case "description":
		return optional(t.Description)
	case "specifiedByURL":
		if t.SpecifiedByURL == nil {
			return nil
		}
		return *t.SpecifiedByURL
	case "isOneOf":
		return t.OneOf
	case "fields":
		if t.Kind != schema.TypeKindObject && t.Kind != schema.TypeKindInterface {
			return nil
		}
		out := []*schema.Field{}
		for _, f := range t.Fields {
			if (includeDeprecated(args) || !f.IsDeprecated) && !isMeta(f.Name) {
				out = append(out, f)
			}
		}
		return out
	case "interfaces":
		if t.Kind != schema.TypeKindObject && t.Kind != schema.TypeKindInterface {
			return nil
		}
		return namedTypes(sch, t.Interfaces)
	case "possibleTypes":
		if t.Kind != schema.TypeKindInterface && t.Kind != schema.TypeKindUnion {
			return nil
		}
		return namedTypes(sch, t.PossibleTypes)
	case "enumValues":
		if t.Kind != schema.TypeKindEnum {
			return nil
		}
		out := []*schema.EnumValue{}
		for _, ev := range t.EnumValues {
			if includeDeprecated(args) || !ev.IsDeprecated {
				out = append(out, ev)
			}
		}
		return out
	case "inputFields":
		if t.Kind != schema.TypeKindInputObject {
			return nil
		}
		return inputValues(t.InputFields, args)
	case "ofType":
		// named types never wrap another type
		return nil
	}
	return nil
}

func namedTypes(sch *schema.Schema, names []string) []*schema.Type {
	out := make([]*schema.Type, 0, len(names))
	for _, name := range names {
		if t := sch.Types[name]; t != nil {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func inputValues(values []*schema.InputValue, args map[string]any) []*schema.InputValue {
	out := []*schema.InputValue{}
	for _, v := range values {
		if includeDeprecated(args) || !v.IsDeprecated {
			out = append(out, v)
		}
	}
	return out
}

// typeRefField answers wrapper types itself and named references through
// the type they name.
func typeRefField(sch *schema.Schema, tr *schema.TypeRef, field string, args map[string]any) any {
	if tr.Kind == schema.TypeRefKindNonNull || tr.Kind == schema.TypeRefKindList {
		switch field {
		case "kind":
			return string(tr.Kind)
		case "ofType":
			return tr.OfType
		}
		return nil
	}
	t := sch.Types[tr.Named]
	if t == nil {
		return nil
	}
	return typeField(sch, t, field, args)
}

func fieldField(f *schema.Field, field string, args map[string]any) any {
	switch field {
	case "name":
		return f.Name
	case "description":
		return optional(f.Description)
	case "args":
		return inputValues(f.Arguments, args)
	case "type":
		return f.Type
	case "isDeprecated":
		return f.IsDeprecated
	case "deprecationReason":
		return deprecationReason(f.IsDeprecated, f.DeprecationReason)
	}
	return nil
}

func inputValueField(a *schema.InputValue, field string) any {
	switch field {
	case "name":
		return a.Name
	case "description":
		return optional(a.Description)
	case "type":
		return a.Type
	case "defaultValue":
		if a.DefaultValue == nil {
			return nil
		}
		return formatDefault(a.DefaultValue)
	case "isDeprecated":
		return a.IsDeprecated
	case "deprecationReason":
		return deprecationReason(a.IsDeprecated, a.DeprecationReason)
	}
	return nil
}

func enumValueField(ev *schema.EnumValue, field string) any {
	switch field {
	case "name":
		return ev.Name
	case "description":
		return optional(ev.Description)
	case "isDeprecated":
		return ev.IsDeprecated
	case "deprecationReason":
		return deprecationReason(ev.IsDeprecated, ev.DeprecationReason)
	}
	return nil
}

func directiveField(d *schema.Directive, field string, args map[string]any) any {
	switch field {
	case "name":
		return d.Name
	case "description":
		return optional(d.Description)
	case "isRepeatable":
		return d.IsRepeatable
	case "locations":
		locs := append([]string{}, d.Locations...)
		sort.Strings(locs)
		return locs
	case "args":
		return inputValues(d.Arguments, args)
	}
	return nil
}

func deprecationReason(deprecated bool, reason string) any {
	if !deprecated {
		return nil
	}
	return reason
}

// formatDefault renders a default value in GraphQL literal syntax.
func formatDefault(v any) string {
	switch x := v.(type) {
	case string:
		return fmt.Sprintf("%q", x)
	case []any:
		parts := make([]string, len(x))
		for i, item := range x {
			parts[i] = formatDefault(item)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ": " + formatDefault(x[k])
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case nil:
		return "null"
	}
	return fmt.Sprint(v)
}

func includeDeprecated(args map[string]any) bool {
	b, _ := args["includeDeprecated"].(bool)
	return b
}
