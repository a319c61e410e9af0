package resolver

import (
	"context"

	"github.com/hanpama/contentql/internal/content"
	"github.com/hanpama/contentql/internal/element"
)

// fakeQueries records every query it hands out.
type fakeQueries struct {
	ids      func(kind element.Kind, criteria map[string]any) []int64
	elements []*element.Element
	queries  []*fakeQuery
	idsCalls int
}

func (f *fakeQueries) NewQuery(kind element.Kind) content.Query {
	q := &fakeQuery{parent: f, kind: kind, criteria: map[string]any{}}
	f.queries = append(f.queries, q)
	return q
}

type fakeQuery struct {
	parent   *fakeQueries
	kind     element.Kind
	criteria map[string]any
	plans    []content.EagerLoadPlan
	withCall int
}

func (q *fakeQuery) Configure(criteria map[string]any) error {
	for k, v := range criteria {
		q.criteria[k] = v
	}
	return nil
}

func (q *fakeQuery) With(plans []content.EagerLoadPlan) {
	q.withCall++
	q.plans = plans
}

func (q *fakeQuery) IDs(context.Context) ([]int64, error) {
	q.parent.idsCalls++
	if q.parent.ids == nil {
		return nil, nil
	}
	return q.parent.ids(q.kind, q.criteria), nil
}

func (q *fakeQuery) All(context.Context) ([]*element.Element, error) { return q.parent.elements, nil }

func (q *fakeQuery) One(context.Context) (*element.Element, error) {
	if len(q.parent.elements) == 0 {
		return nil, nil
	}
	return q.parent.elements[0], nil
}

func (q *fakeQuery) Count(context.Context) (int, error) { return len(q.parent.elements), nil }

type fakeSites map[string]int64

func (s fakeSites) SiteByHandle(_ context.Context, handle string) (*content.Site, error) {
	id, ok := s[handle]
	if !ok {
		return nil, nil
	}
	return &content.Site{ID: id, Handle: handle}, nil
}

type structureCall struct {
	Op        string
	Element   int64
	Target    int64
	Structure int64
}

// fakeStore is a content.Store keeping elements in a map.
type fakeStore struct {
	fakeQueries
	byID       map[int64]*element.Element
	nextID     int64
	validate   func(el *element.Element)
	saved      []*element.Element
	saveScenes []element.Scenario
	structure  []structureCall
}

func newFakeStore(els ...*element.Element) *fakeStore {
	s := &fakeStore{byID: map[int64]*element.Element{}, nextID: 100}
	for _, el := range els {
		s.byID[el.ID] = el
	}
	return s
}

func (s *fakeStore) Save(_ context.Context, el *element.Element) (bool, error) {
	s.saveScenes = append(s.saveScenes, el.Scenario())
	el.ClearErrors()
	if s.validate != nil {
		s.validate(el)
	}
	if el.HasErrors() {
		return false, nil
	}
	if el.ID == 0 {
		s.nextID++
		el.ID = s.nextID
	}
	s.byID[el.ID] = el
	s.saved = append(s.saved, el)
	return true, nil
}

func (s *fakeStore) Delete(_ context.Context, el *element.Element) error {
	delete(s.byID, el.ID)
	return nil
}

func (s *fakeStore) ElementByID(_ context.Context, id int64, _ int64) (*element.Element, error) {
	return s.byID[id], nil
}

func (s *fakeStore) ElementByUID(context.Context, string, int64) (*element.Element, error) {
	return nil, nil
}

func (s *fakeStore) record(op string, structureID int64, el, target *element.Element) error {
	c := structureCall{Op: op, Element: el.ID, Structure: structureID}
	if target != nil {
		c.Target = target.ID
	}
	s.structure = append(s.structure, c)
	return nil
}

func (s *fakeStore) Prepend(_ context.Context, sid int64, el, parent *element.Element) error {
	return s.record("prepend", sid, el, parent)
}

func (s *fakeStore) Append(_ context.Context, sid int64, el, parent *element.Element) error {
	return s.record("append", sid, el, parent)
}

func (s *fakeStore) PrependToRoot(_ context.Context, sid int64, el *element.Element) error {
	return s.record("prependToRoot", sid, el, nil)
}

func (s *fakeStore) AppendToRoot(_ context.Context, sid int64, el *element.Element) error {
	return s.record("appendToRoot", sid, el, nil)
}

func (s *fakeStore) MoveBefore(_ context.Context, sid int64, el, target *element.Element) error {
	return s.record("moveBefore", sid, el, target)
}

func (s *fakeStore) MoveAfter(_ context.Context, sid int64, el, target *element.Element) error {
	return s.record("moveAfter", sid, el, target)
}
