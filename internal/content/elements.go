package content

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hanpama/contentql/internal/element"
)

// PrepareElement fills in the attributes the model derives: the primary
// site, the structure and entry type of the section or group, and a slug
// from the title.
func (m *Model) PrepareElement(el *element.Element) {
	if el.SiteID == 0 {
		if site := m.PrimarySite(); site != nil {
			el.SiteID = site.ID
		}
	}
	switch el.Kind {
	case element.KindEntry:
		if sec := m.SectionByID(el.SectionID); sec != nil {
			el.StructureID = sec.StructureID
			if el.TypeID == 0 {
				el.TypeID = sec.TypeID
			}
		}
	case element.KindCategory:
		if g := m.CategoryGroupByID(el.GroupID); g != nil {
			el.StructureID = g.StructureID
		}
	}
	if el.Slug == "" && el.Title != "" && (el.Kind == element.KindEntry || el.Kind == element.KindCategory) {
		el.Slug = Slugify(el.Title)
	}
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

func Slugify(title string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(title), "-"), "-")
}

// ElementURL returns the public URL of el, or "" when it has none.
func (m *Model) ElementURL(el *element.Element) string {
	switch el.Kind {
	case element.KindEntry:
		if sec := m.SectionByID(el.SectionID); sec != nil && el.Slug != "" {
			return "/" + sec.Handle + "/" + el.Slug
		}
	case element.KindCategory:
		if g := m.CategoryGroupByID(el.GroupID); g != nil && el.Slug != "" {
			return "/" + g.Handle + "/" + el.Slug
		}
	case element.KindAsset:
		if el.Filename != "" {
			return "/assets/" + el.Filename
		}
	}
	return ""
}

// ValidateElement records validation errors on el. The live scenario adds
// the publishing rules: title, unique slug, filename and required custom
// fields. slugTaken reports whether another element already uses el's slug.
func (m *Model) ValidateElement(el *element.Element, slugTaken func(el *element.Element) bool) {
	switch el.Kind {
	case element.KindEntry:
		if m.SectionByID(el.SectionID) == nil {
			el.AddError("sectionId", "Section is invalid.")
		}
		if el.PostDate != nil && el.ExpiryDate != nil && !el.ExpiryDate.After(*el.PostDate) {
			el.AddError("expiryDate", "Expiry Date must be after Post Date.")
		}
	case element.KindCategory:
		if m.CategoryGroupByID(el.GroupID) == nil {
			el.AddError("groupId", "Group is invalid.")
		}
	case element.KindUser:
		if el.Username == "" && el.Email == "" {
			el.AddError("username", "Username cannot be blank.")
		}
	}
	if el.Scenario() != element.ScenarioLive {
		return
	}

	switch el.Kind {
	case element.KindEntry, element.KindCategory:
		if el.Title == "" {
			el.AddError("title", "Title cannot be blank.")
		}
		if el.Slug == "" {
			el.AddError("slug", "Slug cannot be blank.")
		} else if slugTaken != nil && slugTaken(el) {
			el.AddError("slug", fmt.Sprintf("Slug %q has already been taken.", el.Slug))
		}
	case element.KindAsset:
		if el.Title == "" {
			el.AddError("title", "Title cannot be blank.")
		}
		if el.Filename == "" {
			el.AddError("filename", "Filename cannot be blank.")
		}
	}
	for _, f := range m.FieldsFor(el) {
		if !f.Required {
			continue
		}
		if v, ok := el.FieldValue(f.Handle); !ok || isBlank(v) {
			el.AddError(f.Handle, fmt.Sprintf("%s cannot be blank.", f.Name))
		}
	}
}

func isBlank(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case []int64:
		return len(x) == 0
	case []any:
		return len(x) == 0
	}
	return false
}

// SiteIDs returns the distinct site IDs of els in first-seen order, as a
// siteId criteria value.
func SiteIDs(els []*element.Element) []any {
	seen := map[int64]bool{}
	out := []any{}
	for _, el := range els {
		if !seen[el.SiteID] {
			seen[el.SiteID] = true
			out = append(out, el.SiteID)
		}
	}
	return out
}
