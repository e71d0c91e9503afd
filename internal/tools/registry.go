package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
)

// Handler executes one tool call. Params is the raw JSON parameter
// object; the returned value is marshaled as the tool result.
type Handler func(ctx context.Context, params json.RawMessage) (any, error)

// errorResult is the uniform failure shape. Every failure - unknown
// tool, bad parameters, handler error - becomes this object, so the
// transport always receives well-formed JSON.
type errorResult struct {
	Error string `json:"error"`
}

// Registry maps tool names to handlers.
type Registry struct {
	handlers map[string]Handler
	logger   *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		handlers: make(map[string]Handler),
		logger:   logger,
	}
}

// Register adds a handler under a tool name. Registering the same name
// twice replaces the handler; registration happens once at startup so
// no locking is needed.
func (r *Registry) Register(name string, handler Handler) {
	r.handlers[name] = handler
}

// Names returns the registered tool names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Call dispatches one tool call and always returns marshaled JSON:
// the handler's result on success, an {"error": ...} object otherwise.
func (r *Registry) Call(ctx context.Context, name string, params json.RawMessage) json.RawMessage {
	handler, ok := r.handlers[name]
	if !ok {
		return marshalError(fmt.Sprintf("unknown tool: %s", name))
	}

	result, err := handler(ctx, params)
	if err != nil {
		r.logger.Warn("tool call failed", "tool", name, "error", err)
		return marshalError(err.Error())
	}

	data, err := json.Marshal(result)
	if err != nil {
		r.logger.Error("tool result not serializable", "tool", name, "error", err)
		return marshalError(fmt.Sprintf("result serialization failed: %v", err))
	}
	return data
}

// marshalError builds the uniform error object.
func marshalError(message string) json.RawMessage {
	data, err := json.Marshal(errorResult{Error: message})
	if err != nil {
		// Marshaling a flat struct of one string cannot fail.
		return json.RawMessage(`{"error":"internal error"}`)
	}
	return data
}
