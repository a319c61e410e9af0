package sqlstore

import (
	"context"
	"database/sql/driver"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hanpama/contentql/internal/content"
	"github.com/hanpama/contentql/internal/element"
)

type query struct {
	store *Store
	kind  element.Kind
	// conds holds one WHERE fragment per criterion, replaced when the
	// criterion is configured again.
	conds map[string]condition

	ids        []int64
	fixedOrder bool
	orderBy    []content.OrderTerm
	limit      int
	offset     int
	plans      []content.EagerLoadPlan
}

// newQuery starts from the default criteria: live elements of the primary
// site, no limit.
func (s *Store) newQuery(kind element.Kind) *query {
	q := &query{store: s, kind: kind, conds: map[string]condition{}, limit: -1}
	q.conds["status"], _ = statusCondition([]string{element.StatusLive}, s.now().UTC())
	if site := s.model.PrimarySite(); site != nil {
		q.conds["site"] = condition{sql: "site_id IN ?", args: []any{[]int64{site.ID}}}
	}
	return q
}

func (q *query) Configure(criteria map[string]any) error {
	keys := make([]string, 0, len(criteria))
	for k := range criteria {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := q.set(k, criteria[k]); err != nil {
			return errors.Wrapf(err, "criteria %s", k)
		}
	}
	return nil
}

func (q *query) set(name string, v any) error {
	model := q.store.model
	switch name {
	case "id":
		q.ids = nil
		if content.IsWildcard(v) {
			delete(q.conds, "id")
			return nil
		}
		ids, err := content.ToIDs(v)
		if err != nil {
			return err
		}
		q.ids = ids
		q.conds["id"] = inIDs("id", ids)
	case "uid":
		return q.setStrings("uid", "uid", v, false)
	case "kind":
		s, _ := v.(string)
		if !element.Kind(s).Valid() {
			return errors.Errorf("unknown element kind %v", v)
		}
		q.kind = element.Kind(s)
	case "site", "siteId":
		return q.setHandles("site", "site_id", v, func(h string) int64 {
			if site, _ := model.SiteByHandle(context.Background(), h); site != nil {
				return site.ID
			}
			return content.NoElementID
		})
	case "section", "sectionId":
		return q.setHandles("section", "section_id", v, func(h string) int64 {
			if sec := model.Section(h); sec != nil {
				return sec.ID
			}
			return content.NoElementID
		})
	case "typeId":
		return q.setHandles(name, "type_id", v, nil)
	case "group", "groupId":
		return q.setHandles("group", "group_id", v, func(h string) int64 {
			if g := model.CategoryGroup(h); g != nil {
				return g.ID
			}
			return content.NoElementID
		})
	case "status":
		if content.IsWildcard(v) {
			delete(q.conds, name)
			return nil
		}
		statuses, err := toStrings(v)
		if err != nil {
			return err
		}
		c, err := statusCondition(statuses, q.store.now().UTC())
		if err != nil {
			return err
		}
		q.conds[name] = c
	case "enabled":
		if v == nil {
			delete(q.conds, name)
			return nil
		}
		b, err := element.ToBool(v)
		if err != nil {
			return err
		}
		q.conds[name] = condition{sql: "enabled = ?", args: []any{b}}
	case "title":
		return q.setStrings(name, "LOWER(title)", v, true)
	case "slug":
		return q.setStrings(name, "LOWER(slug)", v, true)
	case "search":
		s, err := element.ToString(v)
		if err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			delete(q.conds, name)
			return nil
		}
		like := "%" + strings.ToLower(s) + "%"
		q.conds[name] = condition{
			sql:  "(LOWER(title) LIKE ? OR slug LIKE ? OR LOWER(content::text) LIKE ?)",
			args: []any{like, like, like},
		}
	case "relatedTo":
		t, err := content.ParseRelatedTo(v)
		if err != nil {
			return err
		}
		if t == nil {
			delete(q.conds, name)
			return nil
		}
		q.conds[name] = relatedToCondition(t)
	case "level":
		if v == nil {
			delete(q.conds, name)
			return nil
		}
		n, err := element.ToInt64(v)
		if err != nil {
			return err
		}
		q.conds[name] = condition{sql: "level = ?", args: []any{n}}
	case "descendantOf":
		id, err := element.ToInt64(v)
		if err != nil {
			return err
		}
		if id == 0 {
			delete(q.conds, name)
			return nil
		}
		q.conds[name] = condition{
			sql: "id IN (WITH RECURSIVE d AS (" +
				"SELECT element_id FROM structure_nodes WHERE parent_id = ?" +
				" UNION ALL SELECT n.element_id FROM structure_nodes n JOIN d ON n.parent_id = d.element_id" +
				") SELECT element_id FROM d)",
			args: []any{id},
		}
	case "fixedOrder":
		b, err := element.ToBool(v)
		if err != nil {
			return err
		}
		q.fixedOrder = b
	case "orderBy":
		terms, err := content.ParseOrderBy(v)
		if err != nil {
			return err
		}
		q.orderBy = terms
	case "limit":
		n, err := content.ToLimit(v)
		if err != nil {
			return err
		}
		q.limit = n
	case "offset":
		n, err := content.ToLimit(v)
		if err != nil {
			return err
		}
		q.offset = max(n, 0)
	default:
		f := model.Field(name)
		if f == nil {
			return errors.Errorf("unknown criteria %q", name)
		}
		c, err := fieldCondition(f, v)
		if err != nil {
			return err
		}
		q.conds["field:"+name] = c
	}
	return nil
}

func (q *query) setHandles(name, column string, v any, lookup func(handle string) int64) error {
	if content.IsWildcard(v) {
		delete(q.conds, name)
		return nil
	}
	items, ok := v.([]any)
	if !ok {
		items = []any{v}
	}
	var ids []int64
	for _, item := range items {
		if h, ok := item.(string); ok {
			if h == "*" {
				delete(q.conds, name)
				return nil
			}
			if parsed, err := content.ToIDs(h); err == nil {
				ids = append(ids, parsed...)
				continue
			}
			if lookup == nil {
				return errors.Errorf("invalid id %q", h)
			}
			ids = append(ids, lookup(h))
			continue
		}
		id, err := element.ToInt64(item)
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}
	q.conds[name] = inIDs(column, ids)
	return nil
}

func (q *query) setStrings(name, column string, v any, fold bool) error {
	if content.IsWildcard(v) {
		delete(q.conds, name)
		return nil
	}
	values, err := toStrings(v)
	if err != nil {
		return err
	}
	for i, s := range values {
		if s == "*" {
			delete(q.conds, name)
			return nil
		}
		if fold {
			values[i] = strings.ToLower(s)
		}
	}
	if len(values) == 0 {
		q.conds[name] = matchNone
		return nil
	}
	q.conds[name] = condition{sql: column + " IN ?", args: []any{values}}
	return nil
}

func inIDs(column string, ids []int64) condition {
	if len(ids) == 0 {
		return matchNone
	}
	return condition{sql: column + " IN ?", args: []any{ids}}
}

// idArray binds as a single Postgres array literal instead of being expanded
// into a value list.
type idArray []int64

func (a idArray) Value() (driver.Value, error) {
	parts := make([]string, len(a))
	for i, id := range a {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return "{" + strings.Join(parts, ",") + "}", nil
}

func toStrings(v any) ([]string, error) {
	items, ok := v.([]any)
	if !ok {
		items = []any{v}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, err := element.ToString(item)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (q *query) With(plans []content.EagerLoadPlan) { q.plans = plans }

// build applies the criteria to a fresh statement. Without window the
// limit and offset are left off.
func (q *query) build(ctx context.Context, window bool) *gorm.DB {
	db := q.store.db.WithContext(ctx).Model(&elementRow{}).Where("kind = ?", string(q.kind))
	names := make([]string, 0, len(q.conds))
	for name := range q.conds {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c := q.conds[name]
		db = db.Where(c.sql, c.args...)
	}

	if q.fixedOrder && len(q.ids) > 0 {
		db = db.Clauses(clause.OrderBy{Expression: clause.Expr{
			SQL:                "array_position(?::bigint[], id)",
			Vars:               []any{idArray(q.ids)},
			WithoutParentheses: true,
		}})
	} else {
		db = db.Order(orderClause(q.orderBy))
	}
	if window {
		if q.limit >= 0 {
			db = db.Limit(q.limit)
		}
		if q.offset > 0 {
			db = db.Offset(q.offset)
		}
	}
	return db
}

func (q *query) IDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	if err := q.build(ctx, true).Pluck("id", &ids).Error; err != nil {
		return nil, errors.Wrap(err, "query element ids")
	}
	return ids, nil
}

func (q *query) All(ctx context.Context) ([]*element.Element, error) {
	return q.run(ctx)
}

func (q *query) One(ctx context.Context) (*element.Element, error) {
	one := *q
	one.limit = 1
	els, err := one.run(ctx)
	if err != nil || len(els) == 0 {
		return nil, err
	}
	return els[0], nil
}

// Count counts the matches inside the limit and offset window.
func (q *query) Count(ctx context.Context) (int, error) {
	ids, err := q.IDs(ctx)
	return len(ids), err
}

func (q *query) run(ctx context.Context) ([]*element.Element, error) {
	var rows []elementRow
	if err := q.build(ctx, true).Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "query elements")
	}
	els, err := q.store.hydrate(ctx, q.store.db, rows)
	if err != nil {
		return nil, err
	}
	if len(q.plans) > 0 {
		if err := q.store.eagerLoad(ctx, els, q.plans); err != nil {
			return nil, err
		}
	}
	return els, nil
}

// eagerLoad attaches the related elements of every plan to els. Each plan
// runs one query over the union of the related IDs; limit and offset apply
// per source element.
func (s *Store) eagerLoad(ctx context.Context, els []*element.Element, plans []content.EagerLoadPlan) error {
	for _, plan := range plans {
		f := s.model.Field(plan.Field)
		if f == nil {
			continue
		}
		kind, ok := f.RelationKind()
		if !ok {
			continue
		}
		var union []int64
		seen := map[int64]bool{}
		for _, el := range els {
			for _, id := range el.RelationIDs(plan.Field) {
				if !seen[id] {
					seen[id] = true
					union = append(union, id)
				}
			}
		}

		crit := make(map[string]any, len(plan.Criteria))
		for k, v := range plan.Criteria {
			crit[k] = v
		}
		limit, err := content.ToLimit(crit["limit"])
		if err != nil {
			return errors.Wrapf(err, "eager-load %s", plan.Field)
		}
		offset, err := content.ToLimit(crit["offset"])
		if err != nil {
			return errors.Wrapf(err, "eager-load %s", plan.Field)
		}
		delete(crit, "limit")
		delete(crit, "offset")
		// related elements share the site of their source unless asked otherwise
		_, site := crit["site"]
		_, siteID := crit["siteId"]
		sameSite := !site && !siteID
		if sameSite && len(els) > 0 {
			crit["siteId"] = content.SiteIDs(els)
		}

		sub := s.newQuery(kind)
		if err := sub.Configure(crit); err != nil {
			return errors.Wrapf(err, "eager-load %s", plan.Field)
		}
		sub.conds["restrict"] = inIDs("id", union)
		sub.plans = plan.Nested
		related, err := sub.run(ctx)
		if err != nil {
			return err
		}

		byID := make(map[[2]int64]*element.Element, len(related))
		for _, r := range related {
			byID[[2]int64{r.ID, r.SiteID}] = r
		}
		for _, el := range els {
			out := []*element.Element{}
			ids := el.RelationIDs(plan.Field)
			if len(sub.orderBy) > 0 {
				want := map[int64]bool{}
				for _, id := range ids {
					want[id] = true
				}
				for _, r := range related {
					if sameSite && r.SiteID != el.SiteID {
						continue
					}
					if want[r.ID] {
						out = append(out, r)
					}
				}
			} else {
				for _, id := range ids {
					if sameSite {
						if r, ok := byID[[2]int64{id, el.SiteID}]; ok {
							out = append(out, r)
						}
						continue
					}
					for _, r := range related {
						if r.ID == id {
							out = append(out, r)
							break
						}
					}
				}
			}
			el.SetEagerLoaded(plan.Key(), window(out, max(offset, 0), limit))
		}
	}
	return nil
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
