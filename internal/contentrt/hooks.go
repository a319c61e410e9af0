package contentrt

import (
	"context"

	"github.com/hanpama/contentql/internal/eventbus"
	"github.com/hanpama/contentql/internal/events"
)

// RegisterHooks subscribes the populate hooks of the built-in schema to bus.
func RegisterHooks(bus *eventbus.Bus) (unsubscribe func()) {
	return eventbus.On(bus, expandSchedule)
}

// expandSchedule turns a normalized schedule argument into postDate and
// expiryDate. Explicit postDate and expiryDate arguments win.
func expandSchedule(_ context.Context, e *events.BeforePopulate) {
	schedule, ok := e.Arguments["schedule"].(map[string]any)
	if !ok {
		return
	}
	args := make(map[string]any, len(e.Arguments)+1)
	for k, v := range e.Arguments {
		args[k] = v
	}
	delete(args, "schedule")
	if _, set := args["postDate"]; !set && schedule["start"] != nil {
		args["postDate"] = schedule["start"]
	}
	if _, set := args["expiryDate"]; !set && schedule["end"] != nil {
		args["expiryDate"] = schedule["end"]
	}
	e.Arguments = args
}
