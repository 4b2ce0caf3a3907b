package tool

import (
	"fmt"
	"sort"
)

// ParamSpec declares a single named argument: its type, whether it is
// required, an optional default applied when absent, and a description
// rendered into the reasoner's prompt.
type ParamSpec struct {
	Type        string // "string", "integer", "number", "boolean", "array", "object"
	Required    bool
	Description string
	Default     any
}

// Schema maps argument names to their specifications.
type Schema map[string]ParamSpec

// Names returns the argument names in stable sorted order.
func (s Schema) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidationError represents parameter validation errors with detailed information.
type ValidationError struct {
	Field   string `json:"field"`   // Field that failed validation
	Value   any    `json:"value"`   // Value that was provided
	Message string `json:"message"` // Human-readable error message
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// ValidateArgs checks args against the schema and returns a normalized copy:
// defaults applied for absent optional arguments, required arguments present,
// declared types matched. Unknown extra arguments pass through untouched so
// directives like mask_fields survive.
func ValidateArgs(args map[string]any, schema Schema) (map[string]any, error) {
	out := make(map[string]any, len(args)+len(schema))
	for k, v := range args {
		out[k] = v
	}

	for _, name := range schema.Names() {
		spec := schema[name]
		value, present := out[name]
		if !present {
			if spec.Required {
				return nil, &ValidationError{Field: name, Message: "required field is missing"}
			}
			if spec.Default != nil {
				out[name] = spec.Default
			}
			continue
		}
		if !typeMatches(value, spec.Type) {
			return nil, &ValidationError{
				Field:   name,
				Value:   value,
				Message: fmt.Sprintf("expected type %s, got %T", spec.Type, value),
			}
		}
	}

	return out, nil
}

// typeMatches checks a decoded JSON value against a declared type. nil is
// accepted for any type.
func typeMatches(value any, expected string) bool {
	if value == nil {
		return true
	}

	switch expected {
	case "string":
		_, ok := value.(string)
		return ok
	case "integer":
		switch v := value.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			return true
		case float64: // JSON unmarshaling produces float64 for numbers
			return v == float64(int64(v))
		}
		return false
	case "number":
		switch value.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64,
			float32, float64:
			return true
		}
		return false
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "array":
		switch value.(type) {
		case []any, []string, []float64:
			return true
		}
		return false
	case "object":
		_, ok := value.(map[string]any)
		return ok
	default:
		return true // Unknown declared types are assumed valid
	}
}
