// Package executor implements a serial, depth-first GraphQL executor with
// explicit runtime hooks for field resolution, abstract-type resolution, and
// leaf serialization.
//
// # Preparation
//
// Before execution, the executor:
//  1. Chooses the operation (by name or by uniqueness when unnamed).
//  2. Coerces variables from the provided input against operation variable
//     definitions. Errors here stop execution.
//  3. Determines the root object type from the operation and collects the
//     root selection set.
//
// # Execution Model
//
// Fields are resolved one at a time in document order. Each field's value is
// completed, including its nested selection set, before the next sibling is
// resolved. Root fields of queries and mutations therefore both execute
// serially, which keeps mutation side effects ordered.
//
// Every call to Runtime.Resolve receives a ResolveInfo carrying the parent
// type, the field definition, the merged AST field nodes, the response path,
// and the document and variables. Resolvers use the AST nodes to inspect
// nested selections and field directives.
//
// # Field Collection
//
// Selection sets are flattened into ordered response keys. @skip and @include
// are honored on fields, inline fragments and fragment spreads. Fragment type
// conditions match the object type itself or any interface or union it
// belongs to.
//
// # Value Completion
//
//   - Non-Null: unwrap and complete the inner type. If the inner completion
//     produced null, record a Non-Null violation and propagate null upwards.
//   - List: complete each element with index-aware paths. A null element for
//     a Non-Null inner type nullifies the entire list value.
//   - Leaf (Scalar/Enum): defer to Runtime.SerializeLeafValue.
//   - Abstract (Interface/Union): defer to Runtime.ResolveType, check the
//     result is a possible type, then complete as an object.
//   - Object: execute the merged sub-selection.
//
// # Errors and Partial Success
//
// Errors are accumulated as located GraphQL errors (message, path, and
// extensions when the error provides them). Execution continues with the
// next field.
package executor
