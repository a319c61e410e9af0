package resolver

import (
	"context"
)

// ArgumentHandler rewrites the argument it is bound to by name. Handlers must
// be attached to an ArgumentManager before use.
type ArgumentHandler interface {
	ArgumentName() string
	SetArgumentManager(m *ArgumentManager)
	// HandleArgumentCollection returns the argument list with the bound
	// argument rewritten. The input map is never modified. A list without
	// the bound argument is returned unchanged.
	HandleArgumentCollection(ctx context.Context, args map[string]any) (map[string]any, error)
}

// argumentHandler carries the state shared by every handler.
type argumentHandler struct {
	name    string
	manager *ArgumentManager
}

func (h *argumentHandler) ArgumentName() string { return h.name }

func (h *argumentHandler) SetArgumentManager(m *ArgumentManager) { h.manager = m }

// ValueFunc rewrites the value of one argument.
type ValueFunc func(ctx context.Context, value any) (any, error)

// ValueHandler rewrites the bound argument's value in place.
type ValueHandler struct {
	argumentHandler
	handle ValueFunc
}

// NewValueHandler returns a handler that replaces args[name] with fn(args[name]).
func NewValueHandler(name string, fn ValueFunc) *ValueHandler {
	return &ValueHandler{argumentHandler: argumentHandler{name: name}, handle: fn}
}

func (h *ValueHandler) HandleArgumentCollection(ctx context.Context, args map[string]any) (map[string]any, error) {
	if h.manager == nil {
		return nil, ErrUnboundHandler
	}
	v, ok := args[h.name]
	if !ok {
		return args, nil
	}
	nv, err := h.handle(ctx, v)
	if err != nil {
		return nil, err
	}
	out := copyArgs(args)
	out[h.name] = nv
	return out, nil
}

// ArgumentManager runs the registered handlers over an argument list in
// registration order. A manager and its handlers serve one field resolution.
type ArgumentManager struct {
	handlers []ArgumentHandler
}

func NewArgumentManager(handlers ...ArgumentHandler) *ArgumentManager {
	m := &ArgumentManager{}
	for _, h := range handlers {
		m.SetHandler(h)
	}
	return m
}

// SetHandler binds h to m, replacing a handler for the same argument.
func (m *ArgumentManager) SetHandler(h ArgumentHandler) {
	h.SetArgumentManager(m)
	for i, existing := range m.handlers {
		if existing.ArgumentName() == h.ArgumentName() {
			m.handlers[i] = h
			return
		}
	}
	m.handlers = append(m.handlers, h)
}

// Handler returns the handler bound to name, or nil.
func (m *ArgumentManager) Handler(name string) ArgumentHandler {
	for _, h := range m.handlers {
		if h.ArgumentName() == name {
			return h
		}
	}
	return nil
}

// PrepareArguments passes args through every handler.
func (m *ArgumentManager) PrepareArguments(ctx context.Context, args map[string]any) (map[string]any, error) {
	var err error
	for _, h := range m.handlers {
		args, err = h.HandleArgumentCollection(ctx, args)
		if err != nil {
			return nil, err
		}
	}
	return args, nil
}

func copyArgs(args map[string]any) map[string]any {
	out := make(map[string]any, len(args)+1)
	for k, v := range args {
		out[k] = v
	}
	return out
}
