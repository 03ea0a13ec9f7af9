package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/hashicorp/go-multierror"

	"github.com/i2y/talos-mcp/internal/domain"
)

// Dispatcher maps tool names to their handlers.
type Dispatcher struct {
	handlers map[string]ToolHandler
	logger   *slog.Logger
}

// NewDispatcher builds the method table. The handler set must match the
// registry exactly: a schema without a handler, or a handler without a
// schema, is reported as ErrConfiguration.
func NewDispatcher(registry SchemaRegistry, handlers map[string]ToolHandler, logger *slog.Logger) (*Dispatcher, error) {
	var result *multierror.Error

	declared := make(map[string]struct{})
	for _, schema := range registry.All() {
		declared[schema.Name] = struct{}{}
		if h, ok := handlers[schema.Name]; !ok || h == nil {
			result = multierror.Append(result, fmt.Errorf("no handler for tool %q", schema.Name))
		}
	}

	var orphans []string
	for name := range handlers {
		if _, ok := declared[name]; !ok {
			orphans = append(orphans, name)
		}
	}
	sort.Strings(orphans)
	for _, name := range orphans {
		result = multierror.Append(result, fmt.Errorf("handler %q has no registered schema", name))
	}

	if err := result.ErrorOrNil(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	table := make(map[string]ToolHandler, len(handlers))
	for name, h := range handlers {
		table[name] = h
	}
	return &Dispatcher{
		handlers: table,
		logger:   logger.With("component", "dispatcher"),
	}, nil
}

// Dispatch invokes the handler registered for name.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, params domain.ResolvedParams) (any, error) {
	h, ok := d.handlers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	d.logger.Debug("Dispatching tool", slog.String("tool_name", name), slog.Any("params", params))
	return h(ctx, params)
}
