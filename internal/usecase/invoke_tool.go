package usecase

import (
	"context"
	"fmt"
	"log/slog"
)

// InvokeToolUseCase handles one tool invocation: schema lookup, parameter
// validation and dispatch to the tool handler.
type InvokeToolUseCase struct {
	registry   SchemaRegistry
	dispatcher *Dispatcher
	logger     *slog.Logger
}

// NewInvokeToolUseCase creates a new InvokeToolUseCase.
func NewInvokeToolUseCase(registry SchemaRegistry, dispatcher *Dispatcher, logger *slog.Logger) *InvokeToolUseCase {
	return &InvokeToolUseCase{
		registry:   registry,
		dispatcher: dispatcher,
		logger:     logger.With("usecase", "InvokeTool"),
	}
}

// Execute validates params against the tool's schema and runs the tool.
// Errors are ErrToolNotFound, *ValidationError, *ExecutionError or an
// internal error, each wrapped with the tool name.
func (uc *InvokeToolUseCase) Execute(ctx context.Context, toolName string, params map[string]any) (any, error) {
	log := uc.logger.With(slog.String("tool_name", toolName))
	log.Info("Executing tool invocation")

	// 1. Find Tool Definition
	schema, err := uc.registry.Lookup(toolName)
	if err != nil {
		log.Warn("Tool definition not found", slog.Any("error", err))
		return nil, fmt.Errorf("tool '%s' definition not found: %w", toolName, err)
	}

	// 2. Validate Parameters against the schema
	resolved, err := ValidateParams(schema, params)
	if err != nil {
		log.Warn("Invalid input parameters", slog.Any("error", err))
		return nil, fmt.Errorf("invalid input parameters for tool %s: %w", toolName, err)
	}

	// 3. Dispatch to the handler
	result, err := uc.dispatcher.Dispatch(ctx, toolName, resolved)
	if err != nil {
		log.Error("Tool invocation failed", slog.Any("error", err))
		return nil, fmt.Errorf("failed to invoke tool %s: %w", toolName, err)
	}

	log.Info("Tool invocation successful")
	log.Debug("Invocation result", slog.Any("result", result))
	return result, nil
}
