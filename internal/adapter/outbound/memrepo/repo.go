package memrepo

import (
	"fmt"
	"log/slog"

	"github.com/hashicorp/go-multierror"

	"github.com/i2y/talos-mcp/internal/domain"
	"github.com/i2y/talos-mcp/internal/usecase"
)

// SchemaRegistry is an in-memory, immutable usecase.SchemaRegistry.
// It is populated once by NewSchemaRegistry and only read afterwards, so
// concurrent readers need no locking.
type SchemaRegistry struct {
	schemas []domain.ToolSchema
	byName  map[string]int // tool name -> index into schemas
	logger  *slog.Logger
}

// NewSchemaRegistry validates the given schemas and stores them in order.
// Every problem found is reported together, wrapped in usecase.ErrConfiguration.
func NewSchemaRegistry(schemas []domain.ToolSchema, logger *slog.Logger) (*SchemaRegistry, error) {
	r := &SchemaRegistry{
		schemas: make([]domain.ToolSchema, 0, len(schemas)),
		byName:  make(map[string]int, len(schemas)),
		logger:  logger.With("component", "schema_registry"),
	}

	var result *multierror.Error
	for i, schema := range schemas {
		if schema.Name == "" {
			result = multierror.Append(result, fmt.Errorf("schema at index %d has an empty name", i))
			continue
		}
		if _, dup := r.byName[schema.Name]; dup {
			result = multierror.Append(result, fmt.Errorf("duplicate tool schema %q", schema.Name))
			continue
		}
		if err := checkParameters(schema); err != nil {
			result = multierror.Append(result, err)
			continue
		}
		r.byName[schema.Name] = len(r.schemas)
		r.schemas = append(r.schemas, schema)
	}

	if err := result.ErrorOrNil(); err != nil {
		r.logger.Error("Schema registry rejected tool table", slog.Any("error", err))
		return nil, fmt.Errorf("%w: %w", usecase.ErrConfiguration, err)
	}
	r.logger.Info("Registered tool schemas", slog.Int("count", len(r.schemas)))
	return r, nil
}

func checkParameters(schema domain.ToolSchema) error {
	seen := make(map[string]struct{}, len(schema.Parameters))
	for _, p := range schema.Parameters {
		if _, dup := seen[p.Name]; dup {
			return fmt.Errorf("tool %q declares parameter %q twice", schema.Name, p.Name)
		}
		seen[p.Name] = struct{}{}

		if p.Required && p.HasDefault() {
			return fmt.Errorf("tool %q: required parameter %q must not declare a default", schema.Name, p.Name)
		}
		if p.Type == domain.ParamTypeEnum && len(p.AllowedValues) == 0 {
			return fmt.Errorf("tool %q: enum parameter %q has no allowed values", schema.Name, p.Name)
		}
		if p.HasDefault() {
			if _, err := usecase.ResolveValue(p, p.Default); err != nil {
				return fmt.Errorf("tool %q: default for %q is invalid: %w", schema.Name, p.Name, err)
			}
		}
	}
	return nil
}

// Lookup retrieves a tool schema by its name.
func (r *SchemaRegistry) Lookup(name string) (domain.ToolSchema, error) {
	i, ok := r.byName[name]
	if !ok {
		r.logger.Warn("Tool definition not found", slog.String("tool_name", name))
		return domain.ToolSchema{}, usecase.ErrToolNotFound
	}
	return r.schemas[i], nil
}

// All returns the registered schemas in registration order.
func (r *SchemaRegistry) All() []domain.ToolSchema {
	out := make([]domain.ToolSchema, len(r.schemas))
	copy(out, r.schemas)
	return out
}
