package resolver

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Error codes reported in GraphQL error extensions.
const (
	CodeValidation         = "VALIDATION"
	CodeStructureReference = "STRUCTURE_REFERENCE"
	CodeResolution         = "RESOLUTION"
)

// ErrUnboundHandler is returned when an argument handler is used before it
// was attached to an ArgumentManager.
var ErrUnboundHandler = errors.New("argument handler is not bound to an argument manager")

// WiringError reports a programming error in how a resolver was assembled.
// It is raised with panic.
type WiringError struct {
	Msg string
}

func (e *WiringError) Error() string { return "resolver wiring: " + e.Msg }

// ValidationError is returned when an element fails validation on save.
// Messages holds the first message of each failing attribute.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string { return strings.Join(e.Messages, "\n") }

func (e *ValidationError) Extensions() map[string]any {
	return map[string]any{"code": CodeValidation}
}

// StructureReferenceError is returned when a structure operation names a
// target element that does not exist.
type StructureReferenceError struct {
	Operation string
	TargetID  int64
}

func (e *StructureReferenceError) Error() string {
	return fmt.Sprintf("unable to move element in a structure: %s target %d not found", e.Operation, e.TargetID)
}

func (e *StructureReferenceError) Extensions() map[string]any {
	return map[string]any{"code": CodeStructureReference}
}

// ResolutionError wraps any failure while resolving a field value or applying
// one of its directives.
type ResolutionError struct {
	Field     string
	Directive string
	Err       error
}

func (e *ResolutionError) Error() string {
	if e.Directive != "" {
		return fmt.Sprintf("resolve %s: directive @%s: %v", e.Field, e.Directive, e.Err)
	}
	return fmt.Sprintf("resolve %s: %v", e.Field, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

func (e *ResolutionError) Extensions() map[string]any {
	return map[string]any{"code": CodeResolution}
}
