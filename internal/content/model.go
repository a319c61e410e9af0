package content

import (
	"context"
	_ "embed"
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/hanpama/contentql/internal/element"
)

// FieldType is the kind of a custom field.
type FieldType string

const (
	FieldPlainText   FieldType = "plainText"
	FieldNumber      FieldType = "number"
	FieldLightswitch FieldType = "lightswitch"
	FieldDate        FieldType = "date"
	FieldEntries     FieldType = "entries"
	FieldAssets      FieldType = "assets"
	FieldCategories  FieldType = "categories"
	FieldUsers       FieldType = "users"
	FieldLinks       FieldType = "links"
)

// Field is a custom field definition.
type Field struct {
	Handle   string    `yaml:"handle"`
	Name     string    `yaml:"name"`
	Type     FieldType `yaml:"type"`
	Required bool      `yaml:"required"`
}

// RelationKind returns the element kind a relation field targets.
func (f *Field) RelationKind() (element.Kind, bool) {
	switch f.Type {
	case FieldEntries:
		return element.KindEntry, true
	case FieldAssets:
		return element.KindAsset, true
	case FieldCategories:
		return element.KindCategory, true
	case FieldUsers:
		return element.KindUser, true
	}
	return "", false
}

// IsRelation reports whether the field stores related element IDs.
func (f *Field) IsRelation() bool {
	_, ok := f.RelationKind()
	return ok
}

// Normalize converts an input value into the field's stored form.
func (f *Field) Normalize(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if f.IsRelation() {
		ids, err := ToIDs(v)
		if err != nil {
			return nil, errors.Wrapf(err, "field %s", f.Handle)
		}
		if ids == nil {
			ids = []int64{}
		}
		return ids, nil
	}
	switch f.Type {
	case FieldPlainText:
		s, err := element.ToString(v)
		return s, errors.Wrapf(err, "field %s", f.Handle)
	case FieldNumber:
		switch x := v.(type) {
		case int:
			return float64(x), nil
		case int64:
			return float64(x), nil
		case float64:
			return x, nil
		}
		return nil, errors.Errorf("field %s: cannot use %T as number", f.Handle, v)
	case FieldLightswitch:
		b, err := element.ToBool(v)
		return b, errors.Wrapf(err, "field %s", f.Handle)
	case FieldDate:
		t, err := element.ToTime(v)
		if err != nil {
			return nil, errors.Wrapf(err, "field %s", f.Handle)
		}
		if t == nil {
			return nil, nil
		}
		return *t, nil
	case FieldLinks:
		items, ok := v.([]any)
		if !ok {
			items = []any{v}
		}
		out := make([]any, 0, len(items))
		for _, item := range items {
			if _, ok := item.(map[string]any); !ok {
				return nil, errors.Errorf("field %s: link must be an object, got %T", f.Handle, item)
			}
			out = append(out, item)
		}
		return out, nil
	}
	return v, nil
}

// Section groups entries. A non-zero StructureID makes it hierarchical.
type Section struct {
	ID          int64    `yaml:"id"`
	Handle      string   `yaml:"handle"`
	Name        string   `yaml:"name"`
	StructureID int64    `yaml:"structureId"`
	TypeID      int64    `yaml:"typeId"`
	Fields      []string `yaml:"fields"`
}

// CategoryGroup groups categories, which always live in a structure.
type CategoryGroup struct {
	ID          int64    `yaml:"id"`
	Handle      string   `yaml:"handle"`
	Name        string   `yaml:"name"`
	StructureID int64    `yaml:"structureId"`
	Fields      []string `yaml:"fields"`
}

type Site struct {
	ID      int64  `yaml:"id"`
	Handle  string `yaml:"handle"`
	Name    string `yaml:"name"`
	Primary bool   `yaml:"primary"`
}

// Model is the content model: sites, sections, category groups and the
// custom fields attached to each element kind.
type Model struct {
	Sites          []*Site          `yaml:"sites"`
	Sections       []*Section       `yaml:"sections"`
	CategoryGroups []*CategoryGroup `yaml:"categoryGroups"`
	Fields         []*Field         `yaml:"fields"`
	AssetFields    []string         `yaml:"assetFields"`
	UserFields     []string         `yaml:"userFields"`
}

//go:embed default_model.yaml
var defaultModel []byte

// DefaultModel returns the built-in content model.
func DefaultModel() *Model {
	m, err := ParseModel(defaultModel)
	if err != nil {
		panic(err)
	}
	return m
}

// LoadModelFile reads a YAML content model from path.
func LoadModelFile(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open content model")
	}
	defer f.Close()
	b, err := io.ReadAll(f)
	if err != nil {
		return nil, errors.Wrap(err, "read content model")
	}
	return ParseModel(b)
}

// ParseModel decodes and validates a YAML content model.
func ParseModel(b []byte) (*Model, error) {
	var m Model
	if err := yaml.Unmarshal(b, &m); err != nil {
		return nil, errors.Wrap(err, "decode content model")
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks handle uniqueness and field references.
func (m *Model) Validate() error {
	fields := map[string]bool{}
	for _, f := range m.Fields {
		if f.Handle == "" {
			return errors.New("content model: field without handle")
		}
		if fields[f.Handle] {
			return errors.Errorf("content model: duplicate field %q", f.Handle)
		}
		fields[f.Handle] = true
	}
	check := func(owner string, handles []string) error {
		for _, h := range handles {
			if !fields[h] {
				return errors.Errorf("content model: %s references unknown field %q", owner, h)
			}
		}
		return nil
	}
	sites := map[int64]bool{}
	for _, s := range m.Sites {
		if sites[s.ID] {
			return errors.Errorf("content model: duplicate site id %d", s.ID)
		}
		sites[s.ID] = true
	}
	sections := map[string]bool{}
	for _, s := range m.Sections {
		if sections[s.Handle] {
			return errors.Errorf("content model: duplicate section %q", s.Handle)
		}
		sections[s.Handle] = true
		if err := check("section "+s.Handle, s.Fields); err != nil {
			return err
		}
	}
	for _, g := range m.CategoryGroups {
		if g.StructureID == 0 {
			return errors.Errorf("content model: category group %q needs a structureId", g.Handle)
		}
		if err := check("category group "+g.Handle, g.Fields); err != nil {
			return err
		}
	}
	if err := check("assets", m.AssetFields); err != nil {
		return err
	}
	return check("users", m.UserFields)
}

// Field returns the custom field with handle.
func (m *Model) Field(handle string) *Field {
	for _, f := range m.Fields {
		if f.Handle == handle {
			return f
		}
	}
	return nil
}

func (m *Model) Section(handle string) *Section {
	for _, s := range m.Sections {
		if s.Handle == handle {
			return s
		}
	}
	return nil
}

func (m *Model) SectionByID(id int64) *Section {
	for _, s := range m.Sections {
		if s.ID == id {
			return s
		}
	}
	return nil
}

func (m *Model) CategoryGroup(handle string) *CategoryGroup {
	for _, g := range m.CategoryGroups {
		if g.Handle == handle {
			return g
		}
	}
	return nil
}

func (m *Model) CategoryGroupByID(id int64) *CategoryGroup {
	for _, g := range m.CategoryGroups {
		if g.ID == id {
			return g
		}
	}
	return nil
}

// PrimarySite returns the primary site, or the first one.
func (m *Model) PrimarySite() *Site {
	for _, s := range m.Sites {
		if s.Primary {
			return s
		}
	}
	if len(m.Sites) > 0 {
		return m.Sites[0]
	}
	return nil
}

// SiteByHandle implements Sites. Unknown handles yield (nil, nil).
func (m *Model) SiteByHandle(_ context.Context, handle string) (*Site, error) {
	for _, s := range m.Sites {
		if s.Handle == handle {
			return s, nil
		}
	}
	return nil, nil
}

// FieldsFor returns the custom fields in the layout of el.
func (m *Model) FieldsFor(el *element.Element) []*Field {
	var handles []string
	switch el.Kind {
	case element.KindEntry:
		if s := m.SectionByID(el.SectionID); s != nil {
			handles = s.Fields
		}
	case element.KindCategory:
		if g := m.CategoryGroupByID(el.GroupID); g != nil {
			handles = g.Fields
		}
	case element.KindAsset:
		handles = m.AssetFields
	case element.KindUser:
		handles = m.UserFields
	}
	out := make([]*Field, 0, len(handles))
	for _, h := range handles {
		if f := m.Field(h); f != nil {
			out = append(out, f)
		}
	}
	return out
}

// RelationFields returns all relation fields keyed by handle.
func (m *Model) RelationFields() map[string]*Field {
	out := map[string]*Field{}
	for _, f := range m.Fields {
		if f.IsRelation() {
			out[f.Handle] = f
		}
	}
	return out
}

