package sqlstore

import (
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/hanpama/contentql/internal/content"
	"github.com/hanpama/contentql/internal/element"
)

// condition is a WHERE fragment with its bind values. "IN ?" placeholders
// take slices, which gorm expands.
type condition struct {
	sql  string
	args []any
}

var (
	matchAll  = condition{sql: "1 = 1"}
	matchNone = condition{sql: "1 = 0"}
)

func join(op string, parts []condition) condition {
	sqls := make([]string, len(parts))
	var args []any
	for i, p := range parts {
		sqls[i] = p.sql
		args = append(args, p.args...)
	}
	return condition{sql: "(" + strings.Join(sqls, " "+op+" ") + ")", args: args}
}

// relatedToCondition translates a relatedTo tree. An empty tree matches all.
func relatedToCondition(t *content.RelationTree) condition {
	if t == nil || len(t.Criteria) == 0 {
		return matchAll
	}
	parts := make([]condition, len(t.Criteria))
	for i, c := range t.Criteria {
		parts[i] = criterionCondition(c)
	}
	if t.Operator == "or" {
		return join("OR", parts)
	}
	return join("AND", parts)
}

func criterionCondition(c content.RelationCriterion) condition {
	if c.Tree != nil {
		return relatedToCondition(c.Tree)
	}
	switch {
	case len(c.Element) > 0:
		return join("OR", []condition{
			relationSubquery("source_id", "target_id", c.Element, c.Field),
			relationSubquery("target_id", "source_id", c.Element, c.Field),
		})
	case len(c.SourceElement) > 0:
		return relationSubquery("target_id", "source_id", c.SourceElement, c.Field)
	case len(c.TargetElement) > 0:
		return relationSubquery("source_id", "target_id", c.TargetElement, c.Field)
	}
	return matchNone
}

// relationSubquery matches elements found in column side of relations whose
// other column is one of ids.
func relationSubquery(side, other string, ids []int64, field string) condition {
	sql := "id IN (SELECT " + side + " FROM relations WHERE " + other + " IN ?"
	args := []any{ids}
	if field != "" {
		sql += " AND field = ?"
		args = append(args, field)
	}
	return condition{sql: sql + ")", args: args}
}

// statusCondition matches any of the given statuses at now. "enabled" matches
// every enabled element.
func statusCondition(statuses []string, now time.Time) (condition, error) {
	if len(statuses) == 0 {
		return matchNone, nil
	}
	parts := make([]condition, 0, len(statuses))
	for _, st := range statuses {
		switch st {
		case element.StatusLive:
			parts = append(parts, condition{
				sql:  "(enabled AND (post_date IS NULL OR post_date <= ?) AND (expiry_date IS NULL OR expiry_date > ?))",
				args: []any{now, now},
			})
		case element.StatusPending:
			parts = append(parts, condition{sql: "(enabled AND post_date > ?)", args: []any{now}})
		case element.StatusExpired:
			parts = append(parts, condition{
				sql:  "(enabled AND (post_date IS NULL OR post_date <= ?) AND expiry_date <= ?)",
				args: []any{now, now},
			})
		case element.StatusDisabled:
			parts = append(parts, condition{sql: "NOT enabled"})
		case "enabled":
			parts = append(parts, condition{sql: "enabled"})
		default:
			return condition{}, errors.Errorf("unknown status %q", st)
		}
	}
	return join("OR", parts), nil
}

// fieldCondition filters on a custom field. Relation fields match elements
// relating to any of the given IDs; other fields compare the stored JSON text.
func fieldCondition(f *content.Field, v any) (condition, error) {
	if f.IsRelation() {
		if v == nil {
			return condition{sql: "id NOT IN (SELECT source_id FROM relations WHERE field = ?)", args: []any{f.Handle}}, nil
		}
		ids, err := content.ToIDs(v)
		if err != nil {
			return condition{}, err
		}
		if len(ids) == 0 {
			return matchNone, nil
		}
		return relationSubquery("source_id", "target_id", ids, f.Handle), nil
	}
	if v == nil {
		return condition{sql: "content->>? IS NULL", args: []any{f.Handle}}, nil
	}
	nv, err := f.Normalize(v)
	if err != nil {
		return condition{}, err
	}
	var text string
	switch x := nv.(type) {
	case time.Time:
		text = x.UTC().Format(time.RFC3339Nano)
	case float64:
		text = strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		text = "false"
		if x {
			text = "true"
		}
	default:
		text, err = element.ToString(nv)
		if err != nil {
			return condition{}, err
		}
	}
	return condition{sql: "content->>? = ?", args: []any{f.Handle, text}}, nil
}

var orderColumns = map[string]string{
	"id":          "id",
	"title":       "LOWER(title)",
	"slug":        "slug",
	"postDate":    "post_date",
	"expiryDate":  "expiry_date",
	"dateCreated": "created_at",
	"dateUpdated": "updated_at",
	"level":       "level",
}

var nullable = map[string]bool{"postDate": true, "expiryDate": true}

// orderClause renders orderBy terms. Structure order sorts by structure and
// the depth-first position stored on the structure node.
func orderClause(terms []content.OrderTerm) string {
	if len(terms) == 0 {
		terms = []content.OrderTerm{{Attr: "structure"}}
	}
	parts := make([]string, 0, len(terms)+1)
	for _, t := range terms {
		var col string
		if t.Attr == "structure" {
			col = "structure_id"
			if t.Desc {
				col += " DESC"
			}
			col += ", (SELECT n.position FROM structure_nodes n" +
				" WHERE n.structure_id = elements.structure_id AND n.element_id = elements.id)"
		} else {
			col = orderColumns[t.Attr]
		}
		if t.Desc {
			col += " DESC"
		}
		switch {
		case nullable[t.Attr] && t.Desc:
			col += " NULLS LAST"
		case nullable[t.Attr]:
			col += " NULLS FIRST"
		}
		parts = append(parts, col)
	}
	return strings.Join(append(parts, "id"), ", ")
}
