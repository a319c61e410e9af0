package memory

import (
	"context"

	"github.com/pkg/errors"

	"github.com/hanpama/contentql/internal/content"
	"github.com/hanpama/contentql/internal/element"
)

func (s *Store) structure(id int64) *content.Tree {
	st, ok := s.structures[id]
	if !ok {
		st = content.NewTree()
		s.structures[id] = st
	}
	return st
}

// syncStructure copies parent and level of el's subtree onto the stored
// elements and onto el.
func (s *Store) syncStructure(st *content.Tree, el *element.Element) {
	ids := append([]int64{el.ID}, st.Descendants(el.ID)...)
	for _, id := range ids {
		if stored := s.get(id); stored != nil {
			stored.ParentID = st.Parent(id)
			stored.Level = st.Level(id)
		}
	}
	el.ParentID = st.Parent(el.ID)
	el.Level = st.Level(el.ID)
}

func (s *Store) place(structureID int64, el *element.Element, where content.PlaceFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.placeLocked(structureID, el, where)
}

func (s *Store) placeLocked(structureID int64, el *element.Element, where content.PlaceFunc) error {
	stored := s.get(el.ID)
	if stored == nil {
		return errors.Errorf("element %d not found", el.ID)
	}
	st := s.structure(structureID)
	if err := st.Place(el.ID, where); err != nil {
		return errors.Wrapf(err, "structure %d", structureID)
	}
	stored.StructureID = structureID
	el.StructureID = structureID
	s.syncStructure(st, el)
	return nil
}

func (s *Store) Prepend(_ context.Context, structureID int64, el, parent *element.Element) error {
	return s.place(structureID, el, content.Under(parent.ID, true))
}

func (s *Store) Append(_ context.Context, structureID int64, el, parent *element.Element) error {
	return s.place(structureID, el, content.Under(parent.ID, false))
}

func (s *Store) PrependToRoot(_ context.Context, structureID int64, el *element.Element) error {
	return s.place(structureID, el, content.Under(0, true))
}

func (s *Store) AppendToRoot(_ context.Context, structureID int64, el *element.Element) error {
	return s.place(structureID, el, content.Under(0, false))
}

func (s *Store) MoveBefore(_ context.Context, structureID int64, el, target *element.Element) error {
	return s.place(structureID, el, content.Beside(target.ID, false))
}

func (s *Store) MoveAfter(_ context.Context, structureID int64, el, target *element.Element) error {
	return s.place(structureID, el, content.Beside(target.ID, true))
}
