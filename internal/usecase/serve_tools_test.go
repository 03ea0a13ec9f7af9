package usecase_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/i2y/talos-mcp/internal/domain"
	"github.com/i2y/talos-mcp/internal/usecase"
)

// MockSchemaRegistry is a mock implementation of the SchemaRegistry interface.
type MockSchemaRegistry struct {
	mock.Mock
}

func (m *MockSchemaRegistry) Lookup(name string) (domain.ToolSchema, error) {
	args := m.Called(name)
	return args.Get(0).(domain.ToolSchema), args.Error(1)
}

func (m *MockSchemaRegistry) All() []domain.ToolSchema {
	args := m.Called()
	// Need to handle potential nil slice for schemas
	result := args.Get(0)
	if result == nil {
		return nil
	}
	return result.([]domain.ToolSchema)
}

func TestServeToolsUseCase_Execute(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	schemas := []domain.ToolSchema{
		{
			Name:        "get_version",
			Description: "Get Talos client version information",
			Parameters:  []domain.ParameterSpec{{Name: "short", Type: domain.ParamTypeBoolean, Default: false}},
			Annotations: domain.ToolAnnotations{ReadOnly: true},
		},
		{
			Name:        "reboot_node",
			Description: "Reboot a Talos node",
			Parameters:  []domain.ParameterSpec{{Name: "node", Type: domain.ParamTypeString, Required: true}},
			Annotations: domain.ToolAnnotations{Destructive: true},
		},
	}

	tests := []struct {
		name      string
		schemas   []domain.ToolSchema
		wantNames []string
	}{
		{name: "Success - tools listed in order", schemas: schemas, wantNames: []string{"get_version", "reboot_node"}},
		{name: "Success - empty registry", schemas: []domain.ToolSchema{}, wantNames: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockSchemaRegistry)
			repo.On("All").Return(tt.schemas).Once()

			uc := usecase.NewServeToolsUseCase(repo, discardLogger())
			tools, err := uc.Execute(ctx)
			require.NoError(t, err)

			names := make([]string, 0, len(tools))
			for _, tool := range tools {
				names = append(names, tool.Name)
			}
			assert.Equal(tt.wantNames, names)
			repo.AssertExpectations(t)
		})
	}
}

func TestToMCPTool(t *testing.T) {
	schema := domain.ToolSchema{
		Name:        "list",
		Description: "List files",
		Parameters: []domain.ParameterSpec{
			{Name: "node", Type: domain.ParamTypeString, Description: "Node", Required: true},
			{Name: "depth", Type: domain.ParamTypeInteger, Description: "Depth", Default: int64(1), Minimum: int64Ptr(1)},
			{Name: "type", Type: domain.ParamTypeStringArray, Description: "Types", AllowedValues: []string{"f", "d"}},
			{Name: "output", Type: domain.ParamTypeEnum, Description: "Output", Default: "table", AllowedValues: []string{"json", "table"}},
			{Name: "planes", Type: domain.ParamTypeStringArray, Description: "Planes", MinItems: 1},
		},
		Annotations: domain.ToolAnnotations{ReadOnly: true},
	}

	tool, err := usecase.ToMCPTool(schema)
	require.NoError(t, err)
	data, err := json.Marshal(tool)
	require.NoError(t, err)

	var got struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		InputSchema struct {
			Type       string                    `json:"type"`
			Properties map[string]map[string]any `json:"properties"`
			Required   []string                  `json:"required"`
		} `json:"inputSchema"`
		Annotations struct {
			ReadOnlyHint    *bool `json:"readOnlyHint"`
			DestructiveHint *bool `json:"destructiveHint"`
		} `json:"annotations"`
	}
	require.NoError(t, json.Unmarshal(data, &got))

	assert.Equal(t, "list", got.Name)
	assert.Equal(t, "List files", got.Description)
	assert.Equal(t, "object", got.InputSchema.Type)
	assert.Equal(t, []string{"node"}, got.InputSchema.Required)

	props := got.InputSchema.Properties
	require.Len(t, props, 5)
	assert.Equal(t, map[string]any{"type": "string", "description": "Node"}, props["node"])
	assert.Equal(t, map[string]any{"type": "integer", "description": "Depth", "default": float64(1), "minimum": float64(1)}, props["depth"])
	assert.Equal(t, map[string]any{
		"type":        "array",
		"description": "Types",
		"items":       map[string]any{"type": "string", "enum": []any{"f", "d"}},
	}, props["type"])
	assert.Equal(t, map[string]any{
		"type":        "string",
		"description": "Output",
		"enum":        []any{"json", "table"},
		"default":     "table",
	}, props["output"])
	assert.Equal(t, float64(1), props["planes"]["minItems"])

	require.NotNil(t, got.Annotations.ReadOnlyHint)
	assert.True(t, *got.Annotations.ReadOnlyHint)
	assert.Nil(t, got.Annotations.DestructiveHint)
}

func TestToMCPTool_AlwaysListsRequired(t *testing.T) {
	tests := []struct {
		name   string
		schema domain.ToolSchema
		want   string
	}{
		{
			name: "no required parameters",
			schema: domain.ToolSchema{
				Name:       "get_version",
				Parameters: []domain.ParameterSpec{{Name: "short", Type: domain.ParamTypeBoolean, Default: false}},
			},
			want: `"required":[]`,
		},
		{
			name:   "no parameters at all",
			schema: domain.ToolSchema{Name: "upgrade_k8s"},
			want:   `{"type":"object","properties":{},"required":[]}`,
		},
		{
			name: "required in declared order",
			schema: domain.ToolSchema{
				Name: "copy",
				Parameters: []domain.ParameterSpec{
					{Name: "node", Type: domain.ParamTypeString, Required: true},
					{Name: "source", Type: domain.ParamTypeString, Required: true},
					{Name: "destination", Type: domain.ParamTypeString, Required: true},
				},
			},
			want: `"required":["node","source","destination"]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tool, err := usecase.ToMCPTool(tt.schema)
			require.NoError(t, err)

			data, err := json.Marshal(tool)
			require.NoError(t, err)

			var got struct {
				InputSchema json.RawMessage `json:"inputSchema"`
			}
			require.NoError(t, json.Unmarshal(data, &got))
			assert.Contains(t, string(got.InputSchema), tt.want)
		})
	}
}
