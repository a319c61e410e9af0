// Package events declares the payloads published on the event bus. Every
// payload is published with the context of the request it belongs to.
package events

import (
	"net/http"
	"time"
)

// HTTPStart is published when the server accepts a request.
type HTTPStart struct {
	Request *http.Request
}

// HTTPFinish is published after the response is written.
type HTTPFinish struct {
	Request  *http.Request
	Status   int
	Duration time.Duration
}

// GraphQLStart is published before an operation executes. One request may
// publish several in a batch.
type GraphQLStart struct {
	Query         string
	OperationName string
	OperationType string
}

// GraphQLFinish carries the field errors of the executed operation.
type GraphQLFinish struct {
	Query         string
	OperationName string
	OperationType string
	Errors        []error
	Duration      time.Duration
}
