package schema

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/hanpama/contentql/internal/language"
)

var builtinScalars = map[string]bool{
	"String":  true,
	"Int":     true,
	"Float":   true,
	"Boolean": true,
	"ID":      true,
}

var builtinDirectives = map[string]bool{
	"include":     true,
	"skip":        true,
	"deprecated":  true,
	"specifiedBy": true,
	"oneOf":       true,
	"defer":       true,
}

func isBuiltinType(name string) bool {
	return builtinScalars[name] || strings.HasPrefix(name, "__")
}

// NewSchema returns an empty schema rooted at the conventional operation types.
func NewSchema() *Schema {
	return &Schema{
		QueryType:    "Query",
		MutationType: "Mutation",
		Types:        map[string]*Type{},
		Directives:   map[string]*Directive{},
	}
}

// AddType registers t, replacing any type with the same name.
func (s *Schema) AddType(t *Type) *Schema {
	s.Types[t.Name] = t
	return s
}

// SetNormalizer attaches fn to the named input object type.
func (s *Schema) SetNormalizer(typeName string, fn NormalizerFunc) error {
	t := s.Types[typeName]
	if t == nil {
		return errors.Errorf("schema: unknown type %q", typeName)
	}
	if t.Kind != TypeKindInputObject {
		return errors.Errorf("schema: %s is %s, not an input object", typeName, t.Kind)
	}
	t.Normalizer = fn
	return nil
}

// BuildFromSDL parses and validates SDL sources and converts them into a Schema.
// Built-in scalars are kept so the executor can coerce them; introspection
// types are dropped.
func BuildFromSDL(sources ...*ast.Source) (*Schema, error) {
	doc, err := gqlparser.LoadSchema(sources...)
	if err != nil {
		return nil, errors.Wrap(err, "load schema")
	}
	return FromAST(doc), nil
}

// FromAST converts a validated gqlparser schema.
func FromAST(doc *ast.Schema) *Schema {
	s := &Schema{
		Types:      make(map[string]*Type, len(doc.Types)),
		Directives: make(map[string]*Directive, len(doc.Directives)),
	}
	if doc.Query != nil {
		s.QueryType = doc.Query.Name
	}
	if doc.Mutation != nil {
		s.MutationType = doc.Mutation.Name
	}
	if doc.Subscription != nil {
		s.SubscriptionType = doc.Subscription.Name
	}

	for name, def := range doc.Types {
		if strings.HasPrefix(name, "__") {
			continue
		}
		t := convertDefinition(def)
		if t.Kind == TypeKindInterface || t.Kind == TypeKindUnion {
			for _, pt := range doc.PossibleTypes[name] {
				t.PossibleTypes = append(t.PossibleTypes, pt.Name)
			}
		}
		s.Types[name] = t
	}

	for name, def := range doc.Directives {
		d := &Directive{
			Name:         def.Name,
			Description:  def.Description,
			IsRepeatable: def.IsRepeatable,
		}
		for _, loc := range def.Locations {
			d.Locations = append(d.Locations, string(loc))
		}
		for _, arg := range def.Arguments {
			d.Arguments = append(d.Arguments, convertArgument(arg))
		}
		s.Directives[name] = d
	}
	return s
}

func convertDefinition(def *ast.Definition) *Type {
	t := &Type{
		Name:        def.Name,
		Description: def.Description,
		Interfaces:  append([]string(nil), def.Interfaces...),
	}
	switch def.Kind {
	case ast.Scalar:
		t.Kind = TypeKindScalar
		if d := def.Directives.ForName("specifiedBy"); d != nil {
			if url := d.Arguments.ForName("url"); url != nil && url.Value != nil {
				raw := url.Value.Raw
				t.SpecifiedByURL = &raw
			}
		}
	case ast.Object:
		t.Kind = TypeKindObject
	case ast.Interface:
		t.Kind = TypeKindInterface
	case ast.Union:
		t.Kind = TypeKindUnion
		t.PossibleTypes = append(t.PossibleTypes, def.Types...)
	case ast.Enum:
		t.Kind = TypeKindEnum
		for _, v := range def.EnumValues {
			reason, deprecated := deprecation(v.Directives)
			t.EnumValues = append(t.EnumValues, &EnumValue{
				Name:              v.Name,
				Description:       v.Description,
				IsDeprecated:      deprecated,
				DeprecationReason: reason,
			})
		}
	case ast.InputObject:
		t.Kind = TypeKindInputObject
		t.OneOf = def.Directives.ForName("oneOf") != nil
		for _, f := range def.Fields {
			reason, deprecated := deprecation(f.Directives)
			t.InputFields = append(t.InputFields, &InputValue{
				Name:              f.Name,
				Description:       f.Description,
				Type:              convertType(f.Type),
				DefaultValue:      defaultValue(f.DefaultValue),
				IsDeprecated:      deprecated,
				DeprecationReason: reason,
			})
		}
	}

	if t.Kind == TypeKindObject || t.Kind == TypeKindInterface {
		for _, f := range def.Fields {
			if strings.HasPrefix(f.Name, "__") {
				continue
			}
			reason, deprecated := deprecation(f.Directives)
			field := &Field{
				Name:              f.Name,
				Description:       f.Description,
				Type:              convertType(f.Type),
				IsDeprecated:      deprecated,
				DeprecationReason: reason,
			}
			for _, arg := range f.Arguments {
				field.Arguments = append(field.Arguments, convertArgument(arg))
			}
			t.Fields = append(t.Fields, field)
		}
	}
	return t
}

func convertArgument(arg *ast.ArgumentDefinition) *InputValue {
	reason, deprecated := deprecation(arg.Directives)
	return &InputValue{
		Name:              arg.Name,
		Description:       arg.Description,
		Type:              convertType(arg.Type),
		DefaultValue:      defaultValue(arg.DefaultValue),
		IsDeprecated:      deprecated,
		DeprecationReason: reason,
	}
}

func convertType(t *ast.Type) *TypeRef {
	if t == nil {
		return nil
	}
	var ref *TypeRef
	if t.Elem != nil {
		ref = ListType(convertType(t.Elem))
	} else {
		ref = NamedType(t.NamedType)
	}
	if t.NonNull {
		ref = NonNullType(ref)
	}
	return ref
}

func defaultValue(v *ast.Value) any {
	if v == nil {
		return nil
	}
	return language.ValueToGo(v, nil)
}

func deprecation(dirs ast.DirectiveList) (string, bool) {
	d := dirs.ForName("deprecated")
	if d == nil {
		return "", false
	}
	if reason := d.Arguments.ForName("reason"); reason != nil && reason.Value != nil {
		return reason.Value.Raw, true
	}
	return "", true
}
