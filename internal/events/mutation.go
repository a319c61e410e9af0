package events

import (
	"time"

	"github.com/hanpama/contentql/internal/element"
)

// MutationStart is emitted before a mutation field resolves.
type MutationStart struct {
	Field string
}

// MutationFinish is emitted after a mutation field resolves.
type MutationFinish struct {
	Field     string
	ElementID int64
	Err       error
	Duration  time.Duration
}

// BeforePopulate is emitted before argument values are assigned to an
// element. Subscribers may replace Arguments and Element.
type BeforePopulate struct {
	Element   *element.Element
	Arguments map[string]any
	Field     string
}

// AfterPopulate is emitted after argument values are assigned. Subscribers
// may replace Element.
type AfterPopulate struct {
	Element   *element.Element
	Arguments map[string]any
	Field     string
}
