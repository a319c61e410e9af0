// Package element defines the content element model shared by the resolvers
// and the storage collaborators.
package element

import (
	"sort"
	"time"
)

// Kind identifies the element type.
type Kind string

const (
	KindEntry    Kind = "entry"
	KindAsset    Kind = "asset"
	KindCategory Kind = "category"
	KindUser     Kind = "user"
)

func (k Kind) String() string { return string(k) }

// Valid reports whether k is a known element kind.
func (k Kind) Valid() bool {
	switch k {
	case KindEntry, KindAsset, KindCategory, KindUser:
		return true
	}
	return false
}

// Scenario selects the validation rules applied on save.
type Scenario string

const (
	ScenarioDefault Scenario = "default"
	ScenarioLive    Scenario = "live"
)

// Status values reported by the "status" property.
const (
	StatusLive     = "live"
	StatusPending  = "pending"
	StatusExpired  = "expired"
	StatusDisabled = "disabled"
)

// Element is a content element. Identity attributes are exported fields;
// custom field values and eager-loaded relations are kept internally.
type Element struct {
	ID          int64
	UID         string
	Kind        Kind
	SiteID      int64
	SectionID   int64
	TypeID      int64
	GroupID     int64
	StructureID int64
	ParentID    int64
	Level       int
	Enabled     bool
	Title       string
	Slug        string
	PostDate    *time.Time
	ExpiryDate  *time.Time
	AuthorID    int64
	Filename    string
	URL         string
	Email       string
	Username    string
	DateCreated time.Time
	DateUpdated time.Time

	fields   map[string]any
	eager    map[string][]*Element
	scenario Scenario
	errors   []AttributeError
}

// AttributeError lists validation messages for one attribute.
type AttributeError struct {
	Attribute string
	Messages  []string
}

// New returns an enabled, unsaved element of kind k.
func New(kind Kind) *Element {
	return &Element{Kind: kind, Enabled: true, scenario: ScenarioDefault}
}

// Scenario returns the current validation scenario.
func (e *Element) Scenario() Scenario {
	if e.scenario == "" {
		return ScenarioDefault
	}
	return e.scenario
}

func (e *Element) SetScenario(s Scenario) { e.scenario = s }

// FieldValue returns the value of a custom field.
func (e *Element) FieldValue(handle string) (any, bool) {
	v, ok := e.fields[handle]
	return v, ok
}

func (e *Element) SetFieldValue(handle string, value any) {
	if e.fields == nil {
		e.fields = make(map[string]any)
	}
	e.fields[handle] = value
}

// FieldValues returns a copy of all custom field values.
func (e *Element) FieldValues() map[string]any {
	out := make(map[string]any, len(e.fields))
	for k, v := range e.fields {
		out[k] = v
	}
	return out
}

// FieldHandles returns the handles of set custom fields in sorted order.
func (e *Element) FieldHandles() []string {
	out := make([]string, 0, len(e.fields))
	for k := range e.fields {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// RelationIDs returns the ordered target IDs stored in a relation field.
func (e *Element) RelationIDs(handle string) []int64 {
	ids, _ := e.fields[handle].([]int64)
	return ids
}

// SetEagerLoaded attaches pre-fetched related elements under key, which is
// the field alias when one was used in the query.
func (e *Element) SetEagerLoaded(key string, els []*Element) {
	if e.eager == nil {
		e.eager = make(map[string][]*Element)
	}
	e.eager[key] = els
}

// EagerLoaded returns pre-fetched related elements for key.
func (e *Element) EagerLoaded(key string) ([]*Element, bool) {
	els, ok := e.eager[key]
	return els, ok
}

// AddError records a validation message for attribute.
func (e *Element) AddError(attribute, message string) {
	for i := range e.errors {
		if e.errors[i].Attribute == attribute {
			e.errors[i].Messages = append(e.errors[i].Messages, message)
			return
		}
	}
	e.errors = append(e.errors, AttributeError{Attribute: attribute, Messages: []string{message}})
}

// Errors returns validation errors in the order attributes first failed.
func (e *Element) Errors() []AttributeError { return e.errors }

func (e *Element) HasErrors() bool { return len(e.errors) > 0 }

func (e *Element) ClearErrors() { e.errors = nil }

// FirstErrors returns the first message of each failing attribute.
func (e *Element) FirstErrors() []string {
	out := make([]string, 0, len(e.errors))
	for _, ae := range e.errors {
		if len(ae.Messages) > 0 {
			out = append(out, ae.Messages[0])
		}
	}
	return out
}

// Status derives the publication status at now.
func (e *Element) Status(now time.Time) string {
	if !e.Enabled {
		return StatusDisabled
	}
	if e.Kind == KindEntry {
		if e.PostDate != nil && e.PostDate.After(now) {
			return StatusPending
		}
		if e.ExpiryDate != nil && !e.ExpiryDate.After(now) {
			return StatusExpired
		}
	}
	return StatusLive
}

// Clone returns a copy that shares no mutable state with e. Eager-loaded
// relations and validation errors are not copied.
func (e *Element) Clone() *Element {
	c := *e
	c.fields = e.FieldValues()
	c.eager = nil
	c.errors = nil
	if e.PostDate != nil {
		t := *e.PostDate
		c.PostDate = &t
	}
	if e.ExpiryDate != nil {
		t := *e.ExpiryDate
		c.ExpiryDate = &t
	}
	return &c
}
