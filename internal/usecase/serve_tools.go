package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/i2y/talos-mcp/internal/domain"
	"github.com/i2y/talos-mcp/pkg/shared/mcpjsonrpc"
)

// ServeToolsUseCase produces the capability advertisement: the MCP view of
// every registered tool schema.
type ServeToolsUseCase struct {
	registry SchemaRegistry
	logger   *slog.Logger
}

// NewServeToolsUseCase creates a new ServeToolsUseCase.
func NewServeToolsUseCase(registry SchemaRegistry, logger *slog.Logger) *ServeToolsUseCase {
	return &ServeToolsUseCase{
		registry: registry,
		logger:   logger.With("usecase", "ServeTools"),
	}
}

// Execute returns one mcp.Tool per registered schema, in registration order.
// The result is built fresh on every call.
func (uc *ServeToolsUseCase) Execute(ctx context.Context) ([]mcp.Tool, error) {
	schemas := uc.registry.All()
	tools := make([]mcp.Tool, 0, len(schemas))
	for _, schema := range schemas {
		tool, err := ToMCPTool(schema)
		if err != nil {
			uc.logger.Error("Failed to convert tool schema", slog.String("tool", schema.Name), slog.Any("error", err))
			return nil, err
		}
		tools = append(tools, tool)
	}
	uc.logger.Debug("Listed tools", slog.Int("count", len(tools)))
	return tools, nil
}

// inputSchema mirrors mcp.ToolInputSchema without omitempty, so that
// "properties" and "required" are always present.
type inputSchema struct {
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
	Required   []string       `json:"required"`
}

// ToMCPTool converts a schema to its MCP tool definition.
func ToMCPTool(schema domain.ToolSchema) (mcp.Tool, error) {
	properties := make(map[string]any, len(schema.Parameters))
	for _, p := range schema.Parameters {
		properties[p.Name] = propertySchema(p)
	}
	required := schema.RequiredNames()
	if required == nil {
		required = []string{}
	}

	raw, err := mcpjsonrpc.Marshal(inputSchema{Type: "object", Properties: properties, Required: required})
	if err != nil {
		return mcp.Tool{}, fmt.Errorf("failed to encode input schema for tool %s: %w", schema.Name, err)
	}

	tool := mcp.Tool{
		Name:           schema.Name,
		Description:    schema.Description,
		RawInputSchema: raw,
	}

	tool.Annotations.Title = schema.Annotations.Title
	if schema.Annotations.ReadOnly {
		tool.Annotations.ReadOnlyHint = boolPtr(true)
	}
	if schema.Annotations.Destructive {
		tool.Annotations.DestructiveHint = boolPtr(true)
	}
	return tool, nil
}

func propertySchema(p domain.ParameterSpec) map[string]any {
	prop := map[string]any{
		"type":        p.Type.JSONType(),
		"description": p.Description,
	}

	if p.Type == domain.ParamTypeStringArray {
		items := map[string]any{"type": "string"}
		if len(p.AllowedValues) > 0 {
			items["enum"] = p.AllowedValues
		}
		prop["items"] = items
		if p.MinItems > 0 {
			prop["minItems"] = p.MinItems
		}
	} else if len(p.AllowedValues) > 0 {
		prop["enum"] = p.AllowedValues
	}

	if p.Minimum != nil {
		prop["minimum"] = *p.Minimum
	}
	if p.HasDefault() {
		prop["default"] = p.Default
	}
	return prop
}

func boolPtr(b bool) *bool {
	return &b
}
