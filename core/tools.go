package session

import (
	"context"
	"fmt"

	"github.com/parley-ai/parley-core/core/transport"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// callTool executes the registered handler for one remote tool request.
func (e *Engine) callTool(ctx context.Context, call transport.ToolCall) (any, error) {
	_, span := tracer.Start(ctx, "execute tool")
	defer span.End()
	span.SetAttributes(attribute.String("tool.name", call.Name))

	e.mu.Lock()
	tools := e.config.Tools
	e.mu.Unlock()

	for _, tool := range tools {
		if tool.Name != call.Name || tool.Handler == nil {
			continue
		}

		result, err := tool.Handler(call.Arguments)
		if err != nil {
			err = fmt.Errorf("failed to execute tool %q: %w", call.Name, err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		return result, nil
	}

	err := fmt.Errorf("tool not found: %s", call.Name)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return nil, err
}

// hasToolHandler reports whether a handler is registered for the tool.
func (e *Engine) hasToolHandler(name string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, tool := range e.config.Tools {
		if tool.Name == name && tool.Handler != nil {
			return true
		}
	}
	return false
}
