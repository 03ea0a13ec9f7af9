package domain

// ParamType is the declared type of a tool parameter.
type ParamType string

const (
	ParamTypeString      ParamType = "string"
	ParamTypeInteger     ParamType = "integer"
	ParamTypeBoolean     ParamType = "boolean"
	ParamTypeStringArray ParamType = "array<string>"
	ParamTypeEnum        ParamType = "enum<string>"
)

// JSONType returns the JSON Schema "type" keyword for the parameter type.
func (t ParamType) JSONType() string {
	switch t {
	case ParamTypeStringArray:
		return "array"
	case ParamTypeEnum:
		return "string"
	default:
		return string(t)
	}
}

// ToolSchema describes a callable tool exposed over MCP.
// Instances are built once at startup and never modified afterwards.
type ToolSchema struct {
	// Name is the registry key and the JSON-RPC method name. It MUST be unique.
	Name string

	// Description is shown to the client in the capability advertisement.
	Description string

	// Parameters are validated in this order; the first failure is reported.
	Parameters []ParameterSpec

	Annotations ToolAnnotations
}

// ToolAnnotations are behavioural hints advertised alongside the schema.
type ToolAnnotations struct {
	Title       string
	ReadOnly    bool
	Destructive bool
}

// ParameterSpec declares one named parameter of a tool.
type ParameterSpec struct {
	Name        string
	Type        ParamType
	Description string

	// Required parameters never carry a Default.
	Required bool
	Default  any

	// AllowedValues restricts string values. For string arrays it applies
	// to every element.
	AllowedValues []string

	// Minimum applies to integers, MinItems to arrays. Nil/zero means unset.
	Minimum  *int64
	MinItems int
}

// HasDefault reports whether the parameter declares a default value.
func (p ParameterSpec) HasDefault() bool {
	return p.Default != nil
}

// Allows reports whether v is permitted by AllowedValues.
func (p ParameterSpec) Allows(v string) bool {
	if len(p.AllowedValues) == 0 {
		return true
	}
	for _, allowed := range p.AllowedValues {
		if allowed == v {
			return true
		}
	}
	return false
}

// RequiredNames returns the names of required parameters in declared order.
func (s ToolSchema) RequiredNames() []string {
	var names []string
	for _, p := range s.Parameters {
		if p.Required {
			names = append(names, p.Name)
		}
	}
	return names
}
