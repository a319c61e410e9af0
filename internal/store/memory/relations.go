package memory

import (
	"sort"

	"github.com/hanpama/contentql/internal/content"
	"github.com/hanpama/contentql/internal/element"
)

// matchTree evaluates a relatedTo tree. An empty tree matches everything.
func (s *Store) matchTree(el *element.Element, t *content.RelationTree) bool {
	if len(t.Criteria) == 0 {
		return true
	}
	or := t.Operator == "or"
	for _, c := range t.Criteria {
		ok := s.matchCriterion(el, c)
		if or && ok {
			return true
		}
		if !or && !ok {
			return false
		}
	}
	return !or
}

func (s *Store) matchCriterion(el *element.Element, c content.RelationCriterion) bool {
	if c.Tree != nil {
		return s.matchTree(el, c.Tree)
	}
	switch {
	case len(c.Element) > 0:
		return s.relatesTo(el, c.Element, c.Field) || s.relatedFrom(el, c.Element, c.Field)
	case len(c.SourceElement) > 0:
		return s.relatedFrom(el, c.SourceElement, c.Field)
	case len(c.TargetElement) > 0:
		return s.relatesTo(el, c.TargetElement, c.Field)
	}
	return false
}

// relatesTo reports whether el is the source of a relation to one of targets.
func (s *Store) relatesTo(el *element.Element, targets []int64, field string) bool {
	for _, handle := range s.relationHandles(field) {
		for _, id := range el.RelationIDs(handle) {
			if containsID(targets, id) {
				return true
			}
		}
	}
	return false
}

// relatedFrom reports whether one of sources relates to el.
func (s *Store) relatedFrom(el *element.Element, sources []int64, field string) bool {
	handles := s.relationHandles(field)
	for _, id := range sources {
		src := s.get(id)
		if src == nil {
			continue
		}
		for _, handle := range handles {
			if containsID(src.RelationIDs(handle), el.ID) {
				return true
			}
		}
	}
	return false
}

func (s *Store) relationHandles(field string) []string {
	if field != "" {
		return []string{field}
	}
	fields := s.model.RelationFields()
	handles := make([]string, 0, len(fields))
	for h := range fields {
		handles = append(handles, h)
	}
	sort.Strings(handles)
	return handles
}
