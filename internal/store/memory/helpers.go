package memory

import (
	"fmt"
	"strings"

	"github.com/hanpama/contentql/internal/content"
	"github.com/hanpama/contentql/internal/element"
)

func idSet(v any) (map[int64]bool, error) {
	if content.IsWildcard(v) {
		return nil, nil
	}
	ids, err := content.ToIDs(v)
	if err != nil {
		return nil, err
	}
	set := make(map[int64]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

// handleSet accepts IDs, handles or a list of either.
func handleSet(v any, lookup func(handle string) int64) (map[int64]bool, error) {
	if content.IsWildcard(v) {
		return nil, nil
	}
	items, ok := v.([]any)
	if !ok {
		items = []any{v}
	}
	set := make(map[int64]bool, len(items))
	for _, item := range items {
		if h, ok := item.(string); ok {
			if h == "*" {
				return nil, nil
			}
			if ids, err := content.ToIDs(h); err == nil {
				for _, id := range ids {
					set[id] = true
				}
				continue
			}
			set[lookup(h)] = true
			continue
		}
		id, err := element.ToInt64(item)
		if err != nil {
			return nil, err
		}
		set[id] = true
	}
	return set, nil
}

// stringSet lower-cases every value.
func stringSet(v any) (map[string]bool, error) {
	if content.IsWildcard(v) {
		return nil, nil
	}
	items, ok := v.([]any)
	if !ok {
		items = []any{v}
	}
	set := make(map[string]bool, len(items))
	for _, item := range items {
		s, err := element.ToString(item)
		if err != nil {
			return nil, err
		}
		if s == "*" {
			return nil, nil
		}
		set[strings.ToLower(s)] = true
	}
	return set, nil
}

func window(els []*element.Element, offset, limit int) []*element.Element {
	if offset >= len(els) {
		return els[:0]
	}
	els = els[offset:]
	if limit >= 0 && limit < len(els) {
		els = els[:limit]
	}
	return els
}

func containsID(ids []int64, id int64) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

func fmtValue(v any) string { return fmt.Sprintf("%v", v) }
