package content

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/hanpama/contentql/internal/element"
)

// ToIDs converts an ID-ish value (number, numeric string, or list of those)
// into element IDs, preserving order and dropping duplicates.
func ToIDs(v any) ([]int64, error) {
	var out []int64
	seen := map[int64]bool{}
	add := func(id int64) {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	var walk func(v any) error
	walk = func(v any) error {
		switch x := v.(type) {
		case nil:
		case int:
			add(int64(x))
		case int32:
			add(int64(x))
		case int64:
			add(x)
		case float64:
			if x != float64(int64(x)) {
				return errors.Errorf("invalid element id %v", x)
			}
			add(int64(x))
		case string:
			for _, tok := range strings.Split(x, ",") {
				tok = strings.TrimSpace(tok)
				if tok == "" {
					continue
				}
				id, err := strconv.ParseInt(tok, 10, 64)
				if err != nil {
					return errors.Errorf("invalid element id %q", tok)
				}
				add(id)
			}
		case []int64:
			for _, id := range x {
				add(id)
			}
		case []int:
			for _, id := range x {
				add(int64(id))
			}
		case []any:
			for _, item := range x {
				if err := walk(item); err != nil {
					return err
				}
			}
		default:
			return errors.Errorf("invalid element id %T", v)
		}
		return nil
	}
	if err := walk(v); err != nil {
		return nil, err
	}
	return out, nil
}

// IsIDList reports whether v consists only of IDs (and so is not a criteria
// mapping or a list of mappings).
func IsIDList(v any) bool {
	switch x := v.(type) {
	case int, int32, int64, float64, []int64, []int:
		return true
	case string:
		_, err := ToIDs(x)
		return err == nil
	case []any:
		for _, item := range x {
			switch item.(type) {
			case int, int32, int64, float64, string:
			default:
				return false
			}
		}
		_, err := ToIDs(x)
		return err == nil
	}
	return false
}

// RelationTree is a parsed relatedTo criteria tree.
type RelationTree struct {
	Operator string // "and" or "or"
	Criteria []RelationCriterion
}

// RelationCriterion matches elements related to the given IDs. When Tree is
// set the criterion is a nested tree and the ID sets are empty.
type RelationCriterion struct {
	Element       []int64
	SourceElement []int64
	TargetElement []int64
	Field         string
	Tree          *RelationTree
}

// ParseRelatedTo parses the canonical relatedTo forms: a criteria tree
// (["and"|"or", criterion...]), a single criterion mapping, or bare IDs.
func ParseRelatedTo(v any) (*RelationTree, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		c, err := parseCriterion(x)
		if err != nil {
			return nil, err
		}
		return &RelationTree{Operator: "and", Criteria: []RelationCriterion{c}}, nil
	case []any:
		tree := &RelationTree{Operator: "or"}
		items := x
		if len(items) > 0 {
			if op, ok := items[0].(string); ok && isOperator(op) {
				tree.Operator = strings.ToLower(op)
				items = items[1:]
			}
		}
		if IsIDList(items) {
			ids, err := ToIDs(items)
			if err != nil {
				return nil, err
			}
			if len(ids) > 0 {
				tree.Criteria = append(tree.Criteria, RelationCriterion{Element: ids})
			}
			return tree, nil
		}
		for _, item := range items {
			switch it := item.(type) {
			case map[string]any:
				c, err := parseCriterion(it)
				if err != nil {
					return nil, err
				}
				tree.Criteria = append(tree.Criteria, c)
			case []any:
				sub, err := ParseRelatedTo(it)
				if err != nil {
					return nil, err
				}
				tree.Criteria = append(tree.Criteria, RelationCriterion{Tree: sub})
			default:
				ids, err := ToIDs(it)
				if err != nil {
					return nil, err
				}
				tree.Criteria = append(tree.Criteria, RelationCriterion{Element: ids})
			}
		}
		return tree, nil
	default:
		ids, err := ToIDs(x)
		if err != nil {
			return nil, errors.Wrap(err, "relatedTo")
		}
		return &RelationTree{Operator: "or", Criteria: []RelationCriterion{{Element: ids}}}, nil
	}
}

func isOperator(s string) bool {
	s = strings.ToLower(s)
	return s == "and" || s == "or"
}

func parseCriterion(m map[string]any) (RelationCriterion, error) {
	var c RelationCriterion
	for k, v := range m {
		var err error
		switch k {
		case "element":
			c.Element, err = ToIDs(v)
		case "sourceElement":
			c.SourceElement, err = ToIDs(v)
		case "targetElement":
			c.TargetElement, err = ToIDs(v)
		case "field":
			c.Field = fmt.Sprint(v)
		default:
			err = errors.Errorf("unknown relatedTo key %q", k)
		}
		if err != nil {
			return c, err
		}
	}
	return c, nil
}

// IsWildcard reports whether a criteria value matches everything.
func IsWildcard(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == "*"
}

// ToLimit converts limit and offset values; nil means no limit (-1).
func ToLimit(v any) (int, error) {
	if v == nil {
		return -1, nil
	}
	n, err := element.ToInt64(v)
	return int(n), err
}

// OrderTerm is one "attribute [asc|desc]" part of an orderBy value.
type OrderTerm struct {
	Attr string
	Desc bool
}

// sortable maps orderBy attribute names to their canonical form.
var sortable = map[string]string{
	"id":          "id",
	"title":       "title",
	"slug":        "slug",
	"postDate":    "postDate",
	"expiryDate":  "expiryDate",
	"dateCreated": "dateCreated",
	"dateUpdated": "dateUpdated",
	"level":       "level",
	"structure":   "structure",
	"lft":         "structure",
}

// ParseOrderBy parses "attr [asc|desc], ...".
func ParseOrderBy(v any) ([]OrderTerm, error) {
	if v == nil {
		return nil, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, errors.Errorf("orderBy must be a string, got %T", v)
	}
	var terms []OrderTerm
	for _, part := range strings.Split(s, ",") {
		fields := strings.Fields(part)
		if len(fields) == 0 {
			continue
		}
		attr, ok := sortable[fields[0]]
		if !ok {
			return nil, errors.Errorf("cannot order by %q", fields[0])
		}
		t := OrderTerm{Attr: attr}
		if len(fields) > 1 {
			switch strings.ToLower(fields[1]) {
			case "asc":
			case "desc":
				t.Desc = true
			default:
				return nil, errors.Errorf("invalid sort direction %q", fields[1])
			}
		}
		terms = append(terms, t)
	}
	return terms, nil
}
