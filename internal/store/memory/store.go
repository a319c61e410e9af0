// Package memory is an in-process implementation of the content services.
// Elements are indexed by ID in a B-tree; relations are the ID lists stored
// in relation field values.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/tidwall/btree"

	"github.com/hanpama/contentql/internal/content"
	"github.com/hanpama/contentql/internal/element"
)

// Store implements content.Store and content.Sites.
type Store struct {
	mu         sync.RWMutex
	model      *content.Model
	elements   *btree.BTreeG[*element.Element]
	structures map[int64]*content.Tree
	nextID     int64

	now func() time.Time
}

var _ content.Store = (*Store)(nil)

func New(model *content.Model) *Store {
	return &Store{
		model:      model,
		elements:   btree.NewBTreeG(byID),
		structures: map[int64]*content.Tree{},
		now:        time.Now,
	}
}

func byID(a, b *element.Element) bool { return a.ID < b.ID }

// Model returns the content model the store validates against.
func (s *Store) Model() *content.Model { return s.model }

// Len returns the number of stored elements.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.elements.Len()
}

func (s *Store) get(id int64) *element.Element {
	el, ok := s.elements.Get(&element.Element{ID: id})
	if !ok {
		return nil
	}
	return el
}

func (s *Store) SiteByHandle(ctx context.Context, handle string) (*content.Site, error) {
	return s.model.SiteByHandle(ctx, handle)
}

func (s *Store) NewQuery(kind element.Kind) content.Query {
	return s.newQuery(kind)
}

// ElementByID implements content.Finder.
func (s *Store) ElementByID(_ context.Context, id int64, siteID int64) (*element.Element, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	el := s.get(id)
	if el == nil || (siteID != 0 && el.SiteID != siteID) {
		return nil, nil
	}
	return el.Clone(), nil
}

// ElementByUID implements content.Finder.
func (s *Store) ElementByUID(_ context.Context, uid string, siteID int64) (*element.Element, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var found *element.Element
	s.elements.Scan(func(el *element.Element) bool {
		if el.UID == uid && (siteID == 0 || el.SiteID == siteID) {
			found = el
			return false
		}
		return true
	})
	if found == nil {
		return nil, nil
	}
	return found.Clone(), nil
}

// Save validates el under its scenario and stores a copy. New elements get
// an ID, a UID and, inside a structure, a place at the end of the root.
func (s *Store) Save(_ context.Context, el *element.Element) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if el.ID != 0 && s.get(el.ID) == nil {
		return false, errors.Errorf("element %d not found", el.ID)
	}
	return s.saveLocked(el)
}

func (s *Store) saveLocked(el *element.Element) (bool, error) {
	if !el.Kind.Valid() {
		return false, errors.Errorf("unknown element kind %q", el.Kind)
	}
	s.model.PrepareElement(el)
	el.ClearErrors()
	s.model.ValidateElement(el, s.slugTaken)
	if el.HasErrors() {
		return false, nil
	}

	now := s.now().UTC()
	existing := s.get(el.ID)
	if existing == nil {
		if el.ID == 0 {
			s.nextID++
			el.ID = s.nextID
		} else if el.ID > s.nextID {
			s.nextID = el.ID
		}
		el.DateCreated = now
	} else {
		el.DateCreated = existing.DateCreated
		el.ParentID, el.Level = existing.ParentID, existing.Level
		if existing.StructureID != 0 && existing.StructureID != el.StructureID {
			if st := s.structures[existing.StructureID]; st != nil {
				moved := st.Children(el.ID)
				st.Lift(el.ID)
				for _, id := range moved {
					if child := s.get(id); child != nil {
						s.syncStructure(st, child.Clone())
					}
				}
			}
			el.ParentID, el.Level = 0, 0
		}
	}
	if el.UID == "" {
		el.UID = uuid.NewString()
	}
	el.DateUpdated = now
	el.URL = s.model.ElementURL(el)
	s.elements.Set(el.Clone())

	if el.StructureID != 0 {
		st := s.structure(el.StructureID)
		if !st.Contains(el.ID) {
			st.Insert(el.ID, 0, -1)
			s.syncStructure(st, el)
		}
	}
	return true, nil
}

// Delete removes el. Inside a structure its descendants are removed too.
func (s *Store) Delete(_ context.Context, el *element.Element) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := s.get(el.ID)
	if stored == nil {
		return errors.Errorf("element %d not found", el.ID)
	}
	ids := []int64{stored.ID}
	if st := s.structures[stored.StructureID]; st != nil && st.Contains(stored.ID) {
		ids = append(ids, st.Descendants(stored.ID)...)
		for i := len(ids) - 1; i >= 0; i-- {
			st.Remove(ids[i])
		}
	}
	for _, id := range ids {
		s.elements.Delete(&element.Element{ID: id})
	}
	return nil
}
