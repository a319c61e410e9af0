package resolver

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/hanpama/contentql/internal/content"
	"github.com/hanpama/contentql/internal/element"
	"github.com/hanpama/contentql/internal/metrics"
)

// Relation shorthand argument names.
const (
	RelatedToEntries    = "relatedToEntries"
	RelatedToAssets     = "relatedToAssets"
	RelatedToCategories = "relatedToCategories"
	RelatedToUsers      = "relatedToUsers"
)

// RelatedTo is the canonical relation criteria argument.
const RelatedTo = "relatedTo"

// RelationArgumentHandler folds a relation shorthand argument such as
// relatedToEntries into the relatedTo criteria tree. Each value is resolved
// to element IDs once; repeated values reuse the memoized IDs.
type RelationArgumentHandler struct {
	argumentHandler
	kind    element.Kind
	queries content.QueryFactory
	memo    map[uint64][]int64
}

func NewRelationArgumentHandler(name string, kind element.Kind, queries content.QueryFactory) *RelationArgumentHandler {
	return &RelationArgumentHandler{
		argumentHandler: argumentHandler{name: name},
		kind:            kind,
		queries:         queries,
		memo:            make(map[uint64][]int64),
	}
}

func (h *RelationArgumentHandler) HandleArgumentCollection(ctx context.Context, args map[string]any) (map[string]any, error) {
	if h.manager == nil {
		return nil, ErrUnboundHandler
	}
	raw, ok := args[h.name]
	if !ok {
		return args, nil
	}

	var sets [][]int64
	if items, isList := raw.([]any); isList && allCriteria(items) {
		for _, item := range items {
			ids, err := h.resolveIDs(ctx, item)
			if err != nil {
				return nil, err
			}
			sets = append(sets, ids)
		}
	} else if raw != nil {
		ids, err := h.resolveIDs(ctx, raw)
		if err != nil {
			return nil, err
		}
		sets = append(sets, ids)
	}

	out := copyArgs(args)
	delete(out, h.name)
	if len(sets) == 0 {
		return out, nil
	}
	tree := PrepareRelatedTo(out[RelatedTo])
	for _, ids := range sets {
		tree = append(tree, map[string]any{"element": ids})
	}
	out[RelatedTo] = tree
	return out, nil
}

// allCriteria reports whether items is a non-empty list of criteria mappings.
func allCriteria(items []any) bool {
	if len(items) == 0 {
		return false
	}
	for _, item := range items {
		if _, ok := item.(map[string]any); !ok {
			return false
		}
	}
	return true
}

func (h *RelationArgumentHandler) resolveIDs(ctx context.Context, value any) ([]int64, error) {
	key := hashValue(value)
	if ids, ok := h.memo[key]; ok {
		metrics.RelationLookups.WithLabelValues(string(h.kind), "hit").Inc()
		return ids, nil
	}
	metrics.RelationLookups.WithLabelValues(string(h.kind), "miss").Inc()

	var criteria map[string]any
	if m, ok := value.(map[string]any); ok {
		prepared, err := h.manager.PrepareArguments(ctx, m)
		if err != nil {
			return nil, err
		}
		criteria = prepared
	} else {
		ids, err := content.ToIDs(value)
		if err != nil {
			return nil, errors.Wrap(err, h.name)
		}
		criteria = map[string]any{"id": ids}
	}

	q := h.queries.NewQuery(h.kind)
	if err := q.Configure(criteria); err != nil {
		return nil, errors.Wrapf(err, "%s criteria", h.name)
	}
	ids, err := q.IDs(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "%s lookup", h.name)
	}
	if len(ids) == 0 {
		ids = []int64{content.NoElementID}
	}
	h.memo[key] = ids
	return ids, nil
}

// hashValue returns a content hash of an argument value that does not depend
// on map iteration order.
func hashValue(v any) uint64 {
	if pv, err := structpb.NewValue(exactInts(v)); err == nil {
		if b, err := (proto.MarshalOptions{Deterministic: true}).Marshal(pv); err == nil {
			return xxhash.Sum64(b)
		}
	}
	return xxhash.Sum64String(fmt.Sprintf("%T:%#v", v, v))
}

// exactInts replaces integers with tagged decimal strings, since structpb
// stores numbers as float64.
func exactInts(v any) any {
	switch x := v.(type) {
	case int:
		return intTag + strconv.FormatInt(int64(x), 10)
	case int32:
		return intTag + strconv.FormatInt(int64(x), 10)
	case int64:
		return intTag + strconv.FormatInt(x, 10)
	case uint:
		return intTag + strconv.FormatUint(uint64(x), 10)
	case uint32:
		return intTag + strconv.FormatUint(uint64(x), 10)
	case uint64:
		return intTag + strconv.FormatUint(x, 10)
	case []int64:
		out := make([]any, len(x))
		for i, n := range x {
			out[i] = exactInts(n)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = exactInts(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			out[k] = exactInts(item)
		}
		return out
	}
	return v
}

const intTag = "\x00int:"

// PrepareRelatedTo normalizes an existing relatedTo value into a criteria
// tree headed by "and". A leading "and"/"or" operand is consumed. Bare IDs
// under "and" become one criterion per ID; under "or" (or with no operand)
// they become a single criterion matching any of them. Criteria without an
// operand are grouped as alternatives.
func PrepareRelatedTo(v any) []any {
	tree := []any{"and"}
	switch x := v.(type) {
	case nil:
		return tree
	case map[string]any:
		return append(tree, x)
	case []any:
		op := ""
		items := x
		if len(items) > 0 {
			if s, ok := items[0].(string); ok && (strings.EqualFold(s, "and") || strings.EqualFold(s, "or")) {
				op = strings.ToLower(s)
				items = items[1:]
			}
		}
		if len(items) == 0 {
			return tree
		}
		if content.IsIDList(items) {
			ids, _ := content.ToIDs(items)
			if op == "and" {
				for _, id := range ids {
					tree = append(tree, map[string]any{"element": id})
				}
				return tree
			}
			return append(tree, map[string]any{"element": ids})
		}
		if op == "and" {
			return append(tree, items...)
		}
		return append(tree, append([]any{"or"}, items...))
	default:
		ids, err := content.ToIDs(x)
		if err != nil || len(ids) == 0 {
			return tree
		}
		return append(tree, map[string]any{"element": ids})
	}
}
