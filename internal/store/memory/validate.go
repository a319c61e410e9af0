package memory

import (
	"github.com/hanpama/contentql/internal/element"
)

// slugTaken reports whether another element of the same section or group
// and site uses el's slug.
func (s *Store) slugTaken(el *element.Element) bool {
	taken := false
	s.elements.Scan(func(other *element.Element) bool {
		if other.ID != el.ID && other.Kind == el.Kind && other.SiteID == el.SiteID &&
			other.SectionID == el.SectionID && other.GroupID == el.GroupID && other.Slug == el.Slug {
			taken = true
			return false
		}
		return true
	})
	return taken
}
