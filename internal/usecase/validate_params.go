package usecase

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/i2y/talos-mcp/internal/domain"
)

// ValidateParams checks raw against the schema's parameters in declared order
// and returns the resolved set. Keys not declared by the schema are ignored.
// A key holding JSON null is treated as absent.
func ValidateParams(schema domain.ToolSchema, raw map[string]any) (domain.ResolvedParams, error) {
	resolved := make(domain.ResolvedParams, len(schema.Parameters))
	for _, spec := range schema.Parameters {
		value, present := raw[spec.Name]
		if !present || value == nil {
			if spec.HasDefault() {
				v, err := ResolveValue(spec, spec.Default)
				if err != nil {
					return nil, err
				}
				resolved[spec.Name] = v
				continue
			}
			if spec.Required {
				return nil, &ValidationError{Param: spec.Name, Reason: ReasonMissing}
			}
			continue
		}

		v, err := ResolveValue(spec, value)
		if err != nil {
			return nil, err
		}
		resolved[spec.Name] = v
	}
	return resolved, nil
}

// ResolveValue converts a single value to the Go type declared by spec
// (string, int64, bool or []string) and applies its constraints.
func ResolveValue(spec domain.ParameterSpec, value any) (any, error) {
	switch spec.Type {
	case domain.ParamTypeString, domain.ParamTypeEnum:
		s, ok := value.(string)
		if !ok {
			return nil, typeError(spec, "string", value)
		}
		if !spec.Allows(s) {
			return nil, enumError(spec, s)
		}
		return s, nil

	case domain.ParamTypeBoolean:
		b, ok := value.(bool)
		if !ok {
			return nil, typeError(spec, "boolean", value)
		}
		return b, nil

	case domain.ParamTypeInteger:
		n, ok := toInt64(value)
		if !ok {
			return nil, typeError(spec, "integer", value)
		}
		if spec.Minimum != nil && n < *spec.Minimum {
			return nil, &ValidationError{
				Param:  spec.Name,
				Reason: ReasonRange,
				Value:  n,
				Detail: fmt.Sprintf("must be at least %d, got %d", *spec.Minimum, n),
			}
		}
		return n, nil

	case domain.ParamTypeStringArray:
		items, ok := toStringSlice(value)
		if !ok {
			return nil, typeError(spec, "array of strings", value)
		}
		for _, item := range items {
			if !spec.Allows(item) {
				return nil, enumError(spec, item)
			}
		}
		if len(items) < spec.MinItems {
			return nil, &ValidationError{
				Param:  spec.Name,
				Reason: ReasonRange,
				Value:  items,
				Detail: fmt.Sprintf("must contain at least %d item(s)", spec.MinItems),
			}
		}
		return items, nil

	default:
		return nil, fmt.Errorf("parameter '%s' has unsupported type %q", spec.Name, spec.Type)
	}
}

func typeError(spec domain.ParameterSpec, want string, value any) *ValidationError {
	return &ValidationError{
		Param:  spec.Name,
		Reason: ReasonType,
		Value:  value,
		Detail: fmt.Sprintf("expected %s, got %s", want, jsonKind(value)),
	}
}

func enumError(spec domain.ParameterSpec, value string) *ValidationError {
	return &ValidationError{
		Param:  spec.Name,
		Reason: ReasonEnum,
		Value:  value,
		Detail: "allowed values are " + strings.Join(spec.AllowedValues, ", "),
	}
}

func toInt64(value any) (int64, bool) {
	switch v := value.(type) {
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		if v != math.Trunc(v) || v < math.MinInt64 || v > math.MaxInt64 {
			return 0, false
		}
		return int64(v), true
	default:
		return 0, false
	}
}

// toStringSlice returns a fresh copy so resolved values never alias schema
// defaults or the decoded request.
func toStringSlice(value any) ([]string, bool) {
	switch v := value.(type) {
	case []string:
		return append([]string{}, v...), true
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}

func jsonKind(value any) string {
	switch value.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number, int, int32, int64, float64:
		return "number"
	case []any, []string:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", value)
	}
}
