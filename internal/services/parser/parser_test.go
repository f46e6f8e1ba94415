package parser

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestParser_FullDefinition(t *testing.T) {
	input := `// fleet catalog
unit kg, m, "m/s"
unit kg

attribute color: string
attribute weight: float
attribute tags: string[]
attribute "serial no": "uuid v4"

asset Car {
  color
  weight, tags
}

asset "Road Bike" {}
`

	def, err := NewParser(NewLexer(input)).Parse()
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	if want := []string{"kg", "m", "m/s", "kg"}; !reflect.DeepEqual(def.Units, want) {
		t.Errorf("units = %v, want %v", def.Units, want)
	}

	wantAttrs := []struct {
		name, dataType string
		line           int
	}{
		{"color", "string", 5},
		{"weight", "float", 6},
		{"tags", "string[]", 7},
		{"serial no", "uuid v4", 8},
	}
	if len(def.Attributes) != len(wantAttrs) {
		t.Fatalf("expected %d attributes, got %d", len(wantAttrs), len(def.Attributes))
	}
	for i, want := range wantAttrs {
		got := def.Attributes[i]
		if got.Name != want.name || got.Type != want.dataType || got.Line != want.line {
			t.Errorf("attribute[%d] = %+v, want %+v", i, *got, want)
		}
	}

	if len(def.Assets) != 2 {
		t.Fatalf("expected 2 assets, got %d", len(def.Assets))
	}
	if def.Assets[0].Name != "Car" {
		t.Errorf("expected asset name 'Car', got %s", def.Assets[0].Name)
	}
	if want := []string{"color", "weight", "tags"}; !reflect.DeepEqual(def.Assets[0].Attributes, want) {
		t.Errorf("Car attributes = %v, want %v", def.Assets[0].Attributes, want)
	}
	if def.Assets[1].Name != "Road Bike" || len(def.Assets[1].Attributes) != 0 {
		t.Errorf("unexpected second asset: %+v", *def.Assets[1])
	}
}

func TestParser_Empty(t *testing.T) {
	def, err := NewParser(NewLexer("  // nothing here\n")).Parse()
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(def.Units) != 0 || len(def.Attributes) != 0 || len(def.Assets) != 0 {
		t.Errorf("expected an empty definition, got %+v", def)
	}
}

func TestParser_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantMsg string
	}{
		{
			name:    "unknown top-level keyword",
			input:   `entity user {}`,
			wantMsg: "expected 'unit', 'attribute' or 'asset'",
		},
		{
			name:    "attribute without colon",
			input:   `attribute color string`,
			wantMsg: "expected next token to be :",
		},
		{
			name:    "attribute without type",
			input:   `attribute color:`,
			wantMsg: "expected next token to be data type",
		},
		{
			name:    "unclosed array type",
			input:   `attribute tags: string[`,
			wantMsg: "expected next token to be ]",
		},
		{
			name:    "unit list ending in comma",
			input:   `unit kg,`,
			wantMsg: "expected next token to be unit label",
		},
		{
			name:    "unclosed asset",
			input:   "attribute color: string\nasset Car {\n  color\n",
			wantMsg: "expected '}' at end of asset Car",
		},
		{
			name:    "keyword inside asset",
			input:   "asset Car {\n  unit\n}",
			wantMsg: "unexpected token unit in asset Car at 2:3",
		},
		{
			name:    "lexer error",
			input:   `attribute color = string`,
			wantMsg: "illegal character '='",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewParser(NewLexer(tt.input)).Parse()
			if err == nil {
				t.Fatal("expected parse error, got nil")
			}
			if !errors.Is(err, ErrInvalidDefinition) {
				t.Errorf("expected ErrInvalidDefinition, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("expected error containing %q, got %v", tt.wantMsg, err)
			}
		})
	}
}

func TestParse_Validates(t *testing.T) {
	_, err := Parse("asset Car { color }")
	if !errors.Is(err, ErrInvalidDefinition) {
		t.Fatalf("expected ErrInvalidDefinition, got %v", err)
	}
	if !strings.Contains(err.Error(), "undefined attribute: color") {
		t.Errorf("expected undefined attribute error, got %v", err)
	}

	def, err := Parse("attribute color: string\nasset Car { color }")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(def.Assets) != 1 {
		t.Errorf("expected 1 asset, got %d", len(def.Assets))
	}
}
