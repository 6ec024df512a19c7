package tools

import (
	"fmt"
	"math"
)

// validateSchema is a minimal JSON Schema check covering required fields,
// primitive types, and enum membership — enough to reject malformed tool
// calls before they reach an executor.
func validateSchema(args map[string]any, schema map[string]any) error {
	if schema == nil {
		return nil
	}
	if args == nil {
		args = map[string]any{}
	}

	if required, ok := schema["required"].([]string); ok {
		for _, field := range required {
			if _, exists := args[field]; !exists {
				return fmt.Errorf("missing required field: %s", field)
			}
		}
	}

	properties, _ := schema["properties"].(map[string]any)
	if len(properties) == 0 {
		return nil
	}

	for key, value := range args {
		propDef, ok := properties[key].(map[string]any)
		if !ok {
			continue
		}

		if expected, ok := propDef["type"].(string); ok {
			if err := validateType(value, expected); err != nil {
				return fmt.Errorf("field %s: %w", key, err)
			}
		}

		if enum, ok := propDef["enum"].([]string); ok {
			if err := validateEnum(value, enum); err != nil {
				return fmt.Errorf("field %s: %w", key, err)
			}
		}
	}

	return nil
}

func validateType(value any, expected string) error {
	switch expected {
	case "string":
		if _, ok := value.(string); ok {
			return nil
		}
	case "number":
		if isNumber(value) {
			return nil
		}
	case "integer":
		if isInteger(value) {
			return nil
		}
	case "boolean":
		if _, ok := value.(bool); ok {
			return nil
		}
	case "object":
		if _, ok := value.(map[string]any); ok {
			return nil
		}
	case "array":
		if _, ok := value.([]any); ok {
			return nil
		}
	default:
		return fmt.Errorf("unsupported schema type %q", expected)
	}
	return fmt.Errorf("expected %s but got %T", expected, value)
}

func validateEnum(value any, allowed []string) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected string enum value but got %T", value)
	}
	for _, a := range allowed {
		if s == a {
			return nil
		}
	}
	return fmt.Errorf("value %q not in %v", s, allowed)
}

func isNumber(value any) bool {
	switch value.(type) {
	case float32, float64:
		return true
	case int, int8, int16, int32, int64:
		return true
	case uint, uint8, uint16, uint32, uint64:
		return true
	}
	return false
}

func isInteger(value any) bool {
	switch v := value.(type) {
	case int, int8, int16, int32, int64:
		return true
	case uint, uint8, uint16, uint32, uint64:
		return true
	case float32:
		return math.Trunc(float64(v)) == float64(v)
	case float64:
		return math.Trunc(v) == v
	}
	return false
}
