package tools

import (
	"errors"
	"fmt"
	"testing"

	"github.com/kisanmitra/kisan/internal/llm"
)

func TestRegistryRegisterAndList(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(llm.ToolDef{Name: "a", Description: "first"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register(llm.ToolDef{Name: "b", Description: "second"}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	defs := r.Definitions()
	if len(defs) != 2 {
		t.Fatalf("Definitions() = %d, want 2", len(defs))
	}
	if defs[0].Name != "a" || defs[1].Name != "b" {
		t.Errorf("registration order not preserved: %v", defs)
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(llm.ToolDef{Name: "a"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register(llm.ToolDef{Name: "a"}); err == nil {
		t.Fatal("duplicate registration should fail")
	}
}

func TestRegistryRejectsMissingName(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(llm.ToolDef{}); err == nil {
		t.Fatal("registration without a name should fail")
	}
}

func TestValidateUsesSchemaOfEarlyRegistrations(t *testing.T) {
	r := NewRegistry()
	first := llm.ToolDef{
		Name: "first",
		Parameters: map[string]any{
			"type":     "object",
			"required": []string{"field"},
			"properties": map[string]any{
				"field": map[string]any{"type": "string"},
			},
		},
	}
	if err := r.Register(first); err != nil {
		t.Fatalf("Register: %v", err)
	}
	// Grow the definitions slice well past its initial capacity.
	for i := 0; i < 16; i++ {
		if err := r.Register(llm.ToolDef{Name: fmt.Sprintf("tool_%d", i)}); err != nil {
			t.Fatalf("Register: %v", err)
		}
	}

	if err := r.Validate("first", map[string]any{"field": "ok"}); err != nil {
		t.Errorf("Validate(first) = %v, want nil", err)
	}
	var ve *ValidationError
	if err := r.Validate("first", nil); !errors.As(err, &ve) {
		t.Errorf("Validate(first, nil) = %v, want ValidationError for missing field", err)
	}
}

func TestValidateUnknownTool(t *testing.T) {
	r := DefaultRegistry()

	err := r.Validate("no_such_tool", nil)
	var unknown *UnknownToolError
	if !errors.As(err, &unknown) {
		t.Fatalf("Validate(no_such_tool) = %v, want UnknownToolError", err)
	}
	if unknown.Name != "no_such_tool" {
		t.Errorf("unknown.Name = %q", unknown.Name)
	}
}

func TestValidateArguments(t *testing.T) {
	r := DefaultRegistry()

	tests := []struct {
		name    string
		tool    string
		args    map[string]any
		wantErr bool
	}{
		{"weather ok", ToolGetWeather, map[string]any{"location": "Indore"}, false},
		{"weather with coords", ToolGetWeather, map[string]any{"location": "Indore", "lat": 22.7, "lon": 75.8}, false},
		{"weather missing location", ToolGetWeather, map[string]any{"lat": 22.7}, true},
		{"weather wrong type", ToolGetWeather, map[string]any{"location": 42}, true},
		{"market ok", ToolGetMarketPrices, map[string]any{"commodity": "Wheat"}, false},
		{"market missing commodity", ToolGetMarketPrices, map[string]any{"state": "Punjab"}, true},
		{"schemes ok", ToolSearchSchemes, map[string]any{"query": "insurance"}, false},
		{"advice ok", ToolAnalyzeCropAdvice, map[string]any{"crop": "wheat", "stage": "sowing"}, false},
		{"advice bad stage enum", ToolAnalyzeCropAdvice, map[string]any{"crop": "wheat", "stage": "germination"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.Validate(tt.tool, tt.args)
			if tt.wantErr {
				var ve *ValidationError
				if !errors.As(err, &ve) {
					t.Fatalf("Validate() = %v, want ValidationError", err)
				}
			} else if err != nil {
				t.Fatalf("Validate() = %v, want nil", err)
			}
		})
	}
}
