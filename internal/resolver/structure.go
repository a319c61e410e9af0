package resolver

import (
	"context"

	"github.com/pkg/errors"

	"github.com/hanpama/contentql/internal/element"
)

// Structure operation argument names in precedence order.
const (
	PrependTo     = "prependTo"
	AppendTo      = "appendTo"
	PrependToRoot = "prependToRoot"
	AppendToRoot  = "appendToRoot"
	InsertBefore  = "insertBefore"
	InsertAfter   = "insertAfter"
)

var structureOperations = []string{PrependTo, AppendTo, PrependToRoot, AppendToRoot, InsertBefore, InsertAfter}

// PerformStructureOperations applies at most one repositioning of el within
// its structure: the first operation in precedence order whose argument is
// truthy. Elements outside a structure are left alone.
func (r *ElementMutationResolver) PerformStructureOperations(ctx context.Context, el *element.Element, args map[string]any) error {
	if el.StructureID == 0 {
		return nil
	}
	for _, op := range structureOperations {
		value, ok := args[op]
		if !ok || !truthy(value) {
			continue
		}
		return r.performStructureOperation(ctx, op, el, value)
	}
	return nil
}

func (r *ElementMutationResolver) performStructureOperation(ctx context.Context, op string, el *element.Element, value any) error {
	s := r.Structures
	switch op {
	case PrependToRoot:
		return errors.Wrap(s.PrependToRoot(ctx, el.StructureID, el), op)
	case AppendToRoot:
		return errors.Wrap(s.AppendToRoot(ctx, el.StructureID, el), op)
	}

	target, err := r.structureTarget(ctx, op, el, value)
	if err != nil {
		return err
	}
	switch op {
	case PrependTo:
		err = s.Prepend(ctx, el.StructureID, el, target)
	case AppendTo:
		err = s.Append(ctx, el.StructureID, el, target)
	case InsertBefore:
		err = s.MoveBefore(ctx, el.StructureID, el, target)
	case InsertAfter:
		err = s.MoveAfter(ctx, el.StructureID, el, target)
	}
	return errors.Wrap(err, op)
}

func (r *ElementMutationResolver) structureTarget(ctx context.Context, op string, el *element.Element, value any) (*element.Element, error) {
	id, err := element.ToInt64(value)
	if err != nil {
		return nil, errors.Wrapf(err, "%s target", op)
	}
	target, err := r.Finder.ElementByID(ctx, id, el.SiteID)
	if err != nil {
		return nil, errors.Wrapf(err, "%s target", op)
	}
	if target == nil {
		return nil, &StructureReferenceError{Operation: op, TargetID: id}
	}
	return target, nil
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != "" && x != "0"
	case int:
		return x != 0
	case int64:
		return x != 0
	case float64:
		return x != 0
	}
	return true
}
