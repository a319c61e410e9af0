package memory

import (
	"context"
	_ "embed"
	"os"
	"sort"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/hanpama/contentql/internal/content"
	"github.com/hanpama/contentql/internal/element"
)

//go:embed default_seed.yaml
var defaultSeed []byte

// DefaultSeed returns the sample content matching content.DefaultModel.
func DefaultSeed() []byte { return defaultSeed }

type seedDocument struct {
	Elements []seedElement `yaml:"elements"`
}

type seedElement struct {
	ID         int64          `yaml:"id"`
	UID        string         `yaml:"uid"`
	Kind       element.Kind   `yaml:"kind"`
	Site       string         `yaml:"site"`
	Section    string         `yaml:"section"`
	Group      string         `yaml:"group"`
	Parent     int64          `yaml:"parent"`
	Title      string         `yaml:"title"`
	Slug       string         `yaml:"slug"`
	Enabled    *bool          `yaml:"enabled"`
	PostDate   string         `yaml:"postDate"`
	ExpiryDate string         `yaml:"expiryDate"`
	AuthorID   int64          `yaml:"authorId"`
	Filename   string         `yaml:"filename"`
	Email      string         `yaml:"email"`
	Username   string         `yaml:"username"`
	Fields     map[string]any `yaml:"fields"`
}

// LoadSeedFile seeds the store from a YAML file.
func (s *Store) LoadSeedFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "read seed")
	}
	return s.LoadSeed(b)
}

// LoadSeed stores the elements of a YAML seed document in order. Enabled
// elements are validated under the live scenario. A parent places the
// element at the end of the parent's children.
func (s *Store) LoadSeed(doc []byte) error {
	var d seedDocument
	if err := yaml.Unmarshal(doc, &d); err != nil {
		return errors.Wrap(err, "decode seed")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, se := range d.Elements {
		el, err := s.seedElement(se)
		if err != nil {
			return errors.Wrapf(err, "seed element %d", i)
		}
		if el.ID != 0 && s.get(el.ID) != nil {
			return errors.Errorf("seed element %d: duplicate id %d", i, el.ID)
		}
		ok, err := s.saveLocked(el)
		if err != nil {
			return errors.Wrapf(err, "seed element %d", i)
		}
		if !ok {
			return errors.Errorf("seed element %d (%s %q) is invalid: %v", i, el.Kind, el.Title, el.FirstErrors())
		}
		if se.Parent != 0 {
			if err := s.placeLocked(el.StructureID, el, content.Under(se.Parent, false)); err != nil {
				return errors.Wrapf(err, "seed element %d", i)
			}
		}
	}
	return nil
}

func (s *Store) seedElement(se seedElement) (*element.Element, error) {
	el := element.New(se.Kind)
	el.ID, el.UID = se.ID, se.UID
	el.Title, el.Slug = se.Title, se.Slug
	el.AuthorID = se.AuthorID
	el.Filename, el.Email, el.Username = se.Filename, se.Email, se.Username
	if se.Enabled != nil {
		el.Enabled = *se.Enabled
	}
	var err error
	if el.PostDate, err = element.ToTime(se.PostDate); err != nil {
		return nil, err
	}
	if el.ExpiryDate, err = element.ToTime(se.ExpiryDate); err != nil {
		return nil, err
	}
	if se.Site != "" {
		site, _ := s.model.SiteByHandle(context.Background(), se.Site)
		if site == nil {
			return nil, errors.Errorf("unknown site %q", se.Site)
		}
		el.SiteID = site.ID
	}
	if se.Section != "" {
		sec := s.model.Section(se.Section)
		if sec == nil {
			return nil, errors.Errorf("unknown section %q", se.Section)
		}
		el.SectionID = sec.ID
	}
	if se.Group != "" {
		g := s.model.CategoryGroup(se.Group)
		if g == nil {
			return nil, errors.Errorf("unknown category group %q", se.Group)
		}
		el.GroupID = g.ID
	}

	handles := make([]string, 0, len(se.Fields))
	for h := range se.Fields {
		handles = append(handles, h)
	}
	sort.Strings(handles)
	for _, h := range handles {
		f := s.model.Field(h)
		if f == nil {
			return nil, errors.Errorf("unknown field %q", h)
		}
		v, err := f.Normalize(se.Fields[h])
		if err != nil {
			return nil, err
		}
		el.SetFieldValue(h, v)
	}
	if el.Enabled {
		el.SetScenario(element.ScenarioLive)
	}
	return el, nil
}
