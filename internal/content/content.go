// Package content declares the services the resolvers consume: element
// queries, persistence, lookup, structures and sites.
package content

import (
	"context"

	"github.com/hanpama/contentql/internal/element"
)

// NoElementID is used as the relation target when a relation argument
// resolves to no elements. Element IDs are positive, so it never matches.
const NoElementID int64 = 0

// Query is a configurable, lazily executed element query.
type Query interface {
	// Configure merges criteria into the query. Unknown criteria are an error.
	Configure(criteria map[string]any) error
	// With sets the eager-load plans applied when elements are fetched.
	With(plans []EagerLoadPlan)
	IDs(ctx context.Context) ([]int64, error)
	All(ctx context.Context) ([]*element.Element, error)
	// One returns the first match or nil.
	One(ctx context.Context) (*element.Element, error)
	Count(ctx context.Context) (int, error)
}

// QueryFactory creates queries for an element kind.
type QueryFactory interface {
	NewQuery(kind element.Kind) Query
}

// EagerLoadPlan asks a query to pre-fetch the relation field Field for every
// result, storing the related elements under Alias (or Field when empty).
// Criteria nil means the relation is loaded without extra filtering.
type EagerLoadPlan struct {
	Field    string
	Alias    string
	Criteria map[string]any
	Nested   []EagerLoadPlan
}

// Key returns the name the eager-loaded elements are stored under.
func (p EagerLoadPlan) Key() string {
	if p.Alias != "" {
		return p.Alias
	}
	return p.Field
}

// Persister stores elements. Save reports false when validation failed; the
// reasons are recorded on the element.
type Persister interface {
	Save(ctx context.Context, el *element.Element) (bool, error)
	Delete(ctx context.Context, el *element.Element) error
}

// Finder loads single elements. A zero siteID means any site. Missing
// elements are reported as (nil, nil).
type Finder interface {
	ElementByID(ctx context.Context, id int64, siteID int64) (*element.Element, error)
	ElementByUID(ctx context.Context, uid string, siteID int64) (*element.Element, error)
}

// Structures repositions elements within a hierarchical structure.
type Structures interface {
	Prepend(ctx context.Context, structureID int64, el, parent *element.Element) error
	Append(ctx context.Context, structureID int64, el, parent *element.Element) error
	PrependToRoot(ctx context.Context, structureID int64, el *element.Element) error
	AppendToRoot(ctx context.Context, structureID int64, el *element.Element) error
	MoveBefore(ctx context.Context, structureID int64, el, target *element.Element) error
	MoveAfter(ctx context.Context, structureID int64, el, target *element.Element) error
}

// Sites resolves site handles.
type Sites interface {
	SiteByHandle(ctx context.Context, handle string) (*Site, error)
}

// Store bundles every collaborator a backing store provides.
type Store interface {
	QueryFactory
	Persister
	Finder
	Structures
}
