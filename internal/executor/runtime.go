package executor

import (
	"context"

	language "github.com/hanpama/contentql/internal/language"
	schema "github.com/hanpama/contentql/internal/schema"
)

// Runtime defines the host integration surface for field resolution,
// abstract type resolution, and leaf-value serialization used by the Executor.
//
// General contract
//   - Resolve is called once per field instance, serially, in document order,
//     depth-first. A parent's value is completed before its children resolve.
//   - Errors returned from any method are converted into located GraphQL errors.
//     If the error exposes Extensions() map[string]any, those become the
//     error's extensions. If the field's return type is Non-Null the Executor
//     propagates the null to the nearest nullable ancestor.
//   - Implementations must not mutate args.
type Runtime interface {
	// Resolve returns the raw value of a field. source is the parent value
	// (nil for root fields); args are already coerced. Return (nil, nil) to
	// produce a GraphQL null.
	Resolve(ctx context.Context, info *ResolveInfo, source any, args map[string]any) (any, error)

	// ResolveType determines the concrete object type name for a value of an
	// abstract GraphQL type (interface or union).
	ResolveType(ctx context.Context, abstractType string, value any) (string, error)

	// SerializeLeafValue serializes a scalar or enum value to a JSON-safe Go
	// value. For enums, return the symbolic name as string.
	SerializeLeafValue(ctx context.Context, scalarOrEnumTypeName string, value any) (any, error)
}

// ResolveInfo describes the field instance being resolved.
type ResolveInfo struct {
	// ObjectType is the parent object type. For root fields it is the root type.
	ObjectType *schema.Type
	Field      *schema.Field
	FieldName  string
	// Fields are the AST nodes merged into this response key.
	Fields    []*language.Field
	Path      Path
	Schema    *schema.Schema
	Document  *language.QueryDocument
	Operation *language.OperationDefinition
	Variables map[string]any
}

// Node returns the first AST field node.
func (i *ResolveInfo) Node() *language.Field {
	if len(i.Fields) == 0 {
		return nil
	}
	return i.Fields[0]
}

// ResponseName returns the alias, or the field name when unaliased.
func (i *ResolveInfo) ResponseName() string {
	if n := i.Node(); n != nil && n.Alias != "" {
		return n.Alias
	}
	return i.FieldName
}

// Key returns "ObjectType.field".
func (i *ResolveInfo) Key() string {
	if i.ObjectType == nil {
		return i.FieldName
	}
	return i.ObjectType.Name + "." + i.FieldName
}
