package memory

import (
	"cmp"
	"context"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/hanpama/contentql/internal/content"
	"github.com/hanpama/contentql/internal/element"
)

// criteria holds parsed query criteria. A nil set matches everything; an
// empty non-nil set matches nothing.
type criteria struct {
	ids          []int64
	hasIDs       bool
	uids         map[string]bool
	sites        map[int64]bool
	sections     map[int64]bool
	typeIDs      map[int64]bool
	groups       map[int64]bool
	statuses     map[string]bool
	enabled      *bool
	titles       map[string]bool
	slugs        map[string]bool
	search       string
	relatedTo    *content.RelationTree
	level        *int
	descendantOf int64
	fixedOrder   bool
	orderBy      []content.OrderTerm
	limit        int
	offset       int
	fields       map[string]any

	// restrict limits results to these IDs; set by eager loading.
	restrict map[int64]bool
}

type query struct {
	store *Store
	kind  element.Kind
	c     criteria
	plans []content.EagerLoadPlan
}

// newQuery starts from the default criteria: live elements of the primary
// site, no limit.
func (s *Store) newQuery(kind element.Kind) *query {
	q := &query{store: s, kind: kind}
	q.c.limit = -1
	q.c.statuses = map[string]bool{element.StatusLive: true}
	if site := s.model.PrimarySite(); site != nil {
		q.c.sites = map[int64]bool{site.ID: true}
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
	c := &q.c
	model := q.store.model
	var err error
	switch name {
	case "id":
		c.ids, c.hasIDs = nil, false
		if !content.IsWildcard(v) {
			c.ids, err = content.ToIDs(v)
			c.hasIDs = err == nil
		}
	case "uid":
		c.uids, err = stringSet(v)
	case "kind":
		s, _ := v.(string)
		if !element.Kind(s).Valid() {
			return errors.Errorf("unknown element kind %v", v)
		}
		q.kind = element.Kind(s)
	case "site", "siteId":
		c.sites, err = handleSet(v, func(h string) int64 {
			if site, _ := model.SiteByHandle(context.Background(), h); site != nil {
				return site.ID
			}
			return content.NoElementID
		})
	case "section":
		c.sections, err = handleSet(v, func(h string) int64 {
			if sec := model.Section(h); sec != nil {
				return sec.ID
			}
			return content.NoElementID
		})
	case "sectionId":
		c.sections, err = idSet(v)
	case "typeId":
		c.typeIDs, err = idSet(v)
	case "group":
		c.groups, err = handleSet(v, func(h string) int64 {
			if g := model.CategoryGroup(h); g != nil {
				return g.ID
			}
			return content.NoElementID
		})
	case "groupId":
		c.groups, err = idSet(v)
	case "status":
		c.statuses, err = stringSet(v)
	case "enabled":
		c.enabled = nil
		if v != nil {
			var b bool
			b, err = element.ToBool(v)
			c.enabled = &b
		}
	case "title":
		c.titles, err = stringSet(v)
	case "slug":
		c.slugs, err = stringSet(v)
	case "search":
		var s string
		s, err = element.ToString(v)
		c.search = strings.ToLower(strings.TrimSpace(s))
	case "relatedTo":
		c.relatedTo, err = content.ParseRelatedTo(v)
	case "level":
		c.level = nil
		if v != nil {
			var n int64
			n, err = element.ToInt64(v)
			l := int(n)
			c.level = &l
		}
	case "descendantOf":
		c.descendantOf, err = element.ToInt64(v)
	case "fixedOrder":
		c.fixedOrder, err = element.ToBool(v)
	case "orderBy":
		c.orderBy, err = content.ParseOrderBy(v)
	case "limit":
		c.limit, err = content.ToLimit(v)
	case "offset":
		c.offset, err = content.ToLimit(v)
		if c.offset < 0 {
			c.offset = 0
		}
	default:
		if model.Field(name) == nil {
			return errors.Errorf("unknown criteria %q", name)
		}
		if c.fields == nil {
			c.fields = map[string]any{}
		}
		c.fields[name] = v
	}
	return err
}

func (q *query) With(plans []content.EagerLoadPlan) { q.plans = plans }

func (q *query) IDs(context.Context) ([]int64, error) {
	q.store.mu.RLock()
	defer q.store.mu.RUnlock()
	els := q.store.match(q)
	ids := make([]int64, len(els))
	for i, el := range els {
		ids[i] = el.ID
	}
	return ids, nil
}

func (q *query) All(context.Context) ([]*element.Element, error) {
	q.store.mu.RLock()
	defer q.store.mu.RUnlock()
	return q.store.run(q)
}

func (q *query) One(context.Context) (*element.Element, error) {
	q.store.mu.RLock()
	defer q.store.mu.RUnlock()
	one := *q
	one.c.limit = 1
	els, err := q.store.run(&one)
	if err != nil || len(els) == 0 {
		return nil, err
	}
	return els[0], nil
}

func (q *query) Count(context.Context) (int, error) {
	q.store.mu.RLock()
	defer q.store.mu.RUnlock()
	return len(q.store.match(q)), nil
}

// run returns copies of the matching elements with eager-loaded relations
// attached. The caller holds the read lock.
func (s *Store) run(q *query) ([]*element.Element, error) {
	matched := s.match(q)
	out := make([]*element.Element, len(matched))
	for i, el := range matched {
		out[i] = el.Clone()
	}
	if len(q.plans) > 0 {
		if err := s.eagerLoad(out, q.plans); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// match returns the stored elements matching q, ordered and windowed.
func (s *Store) match(q *query) []*element.Element {
	now := s.now()
	var els []*element.Element
	s.elements.Scan(func(el *element.Element) bool {
		if s.matches(q, el, now) {
			els = append(els, el)
		}
		return true
	})
	s.sortElements(q, els)
	return window(els, q.c.offset, q.c.limit)
}

func (s *Store) matches(q *query, el *element.Element, now time.Time) bool {
	c := &q.c
	switch {
	case el.Kind != q.kind:
		return false
	case c.restrict != nil && !c.restrict[el.ID]:
		return false
	case c.hasIDs && !containsID(c.ids, el.ID):
		return false
	case c.uids != nil && !c.uids[strings.ToLower(el.UID)]:
		return false
	case c.sites != nil && !c.sites[el.SiteID]:
		return false
	case c.sections != nil && !c.sections[el.SectionID]:
		return false
	case c.typeIDs != nil && !c.typeIDs[el.TypeID]:
		return false
	case c.groups != nil && !c.groups[el.GroupID]:
		return false
	case c.statuses != nil && !c.statuses[el.Status(now)] && !(c.statuses["enabled"] && el.Enabled):
		return false
	case c.enabled != nil && *c.enabled != el.Enabled:
		return false
	case c.titles != nil && !c.titles[strings.ToLower(el.Title)]:
		return false
	case c.slugs != nil && !c.slugs[strings.ToLower(el.Slug)]:
		return false
	case c.level != nil && *c.level != el.Level:
		return false
	case c.search != "" && !s.searchMatches(el, c.search):
		return false
	}
	if c.descendantOf != 0 {
		st := s.structures[el.StructureID]
		if st == nil || !st.IsDescendant(el.ID, c.descendantOf) {
			return false
		}
	}
	for handle, want := range c.fields {
		if !s.fieldMatches(el, handle, want) {
			return false
		}
	}
	if c.relatedTo != nil && !s.matchTree(el, c.relatedTo) {
		return false
	}
	return true
}

func (s *Store) searchMatches(el *element.Element, term string) bool {
	if strings.Contains(strings.ToLower(el.Title), term) || strings.Contains(el.Slug, term) {
		return true
	}
	for _, v := range el.FieldValues() {
		if str, ok := v.(string); ok && strings.Contains(strings.ToLower(str), term) {
			return true
		}
	}
	return false
}

func (s *Store) fieldMatches(el *element.Element, handle string, want any) bool {
	f := s.model.Field(handle)
	if f.IsRelation() {
		ids, err := content.ToIDs(want)
		if err != nil {
			return false
		}
		if want == nil {
			return len(el.RelationIDs(handle)) == 0
		}
		for _, id := range el.RelationIDs(handle) {
			if containsID(ids, id) {
				return true
			}
		}
		return false
	}
	got, ok := el.FieldValue(handle)
	if want == nil {
		return !ok || got == nil
	}
	if !ok {
		return false
	}
	nw, err := f.Normalize(want)
	if err != nil {
		return false
	}
	return fmtValue(got) == fmtValue(nw)
}

func (s *Store) sortElements(q *query, els []*element.Element) {
	c := &q.c
	if c.fixedOrder && c.hasIDs {
		pos := make(map[int64]int, len(c.ids))
		for i, id := range c.ids {
			pos[id] = i
		}
		sort.SliceStable(els, func(i, j int) bool { return pos[els[i].ID] < pos[els[j].ID] })
		return
	}
	terms := c.orderBy
	if len(terms) == 0 {
		terms = []content.OrderTerm{{Attr: "structure"}}
	}
	positions := map[int64]map[int64]int{}
	position := func(el *element.Element) int {
		st := s.structures[el.StructureID]
		if st == nil {
			return 0
		}
		pos, ok := positions[el.StructureID]
		if !ok {
			pos = st.Positions()
			positions[el.StructureID] = pos
		}
		return pos[el.ID]
	}
	sort.SliceStable(els, func(i, j int) bool {
		a, b := els[i], els[j]
		for _, t := range terms {
			var d int
			switch t.Attr {
			case "id":
				d = cmp.Compare(a.ID, b.ID)
			case "title":
				d = strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
			case "slug":
				d = strings.Compare(a.Slug, b.Slug)
			case "postDate":
				d = compareTime(a.PostDate, b.PostDate)
			case "expiryDate":
				d = compareTime(a.ExpiryDate, b.ExpiryDate)
			case "dateCreated":
				d = a.DateCreated.Compare(b.DateCreated)
			case "dateUpdated":
				d = a.DateUpdated.Compare(b.DateUpdated)
			case "level":
				d = cmp.Compare(a.Level, b.Level)
			case "structure":
				d = cmp.Compare(a.StructureID, b.StructureID)
				if d == 0 {
					d = cmp.Compare(position(a), position(b))
				}
			}
			if d != 0 {
				if t.Desc {
					return d > 0
				}
				return d < 0
			}
		}
		return a.ID < b.ID
	})
}

func compareTime(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return a.Compare(*b)
}

// eagerLoad attaches the related elements of every plan to els. Each plan
// runs one query over the union of the related IDs; limit and offset apply
// per source element.
func (s *Store) eagerLoad(els []*element.Element, plans []content.EagerLoadPlan) error {
	for _, plan := range plans {
		f := s.model.Field(plan.Field)
		if f == nil {
			continue
		}
		kind, ok := f.RelationKind()
		if !ok {
			continue
		}
		union := map[int64]bool{}
		for _, el := range els {
			for _, id := range el.RelationIDs(plan.Field) {
				union[id] = true
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
		sub.c.restrict = union
		sub.plans = plan.Nested
		related, err := s.run(sub)
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
			if len(sub.c.orderBy) > 0 {
				for _, r := range related {
					if sameSite && r.SiteID != el.SiteID {
						continue
					}
					if containsID(ids, r.ID) {
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
