package parser

import (
	"fmt"
	"strings"
)

// Validator validates a parsed catalog definition
type Validator struct {
	def        *DefinitionAST
	errors     []string
	attributes map[string]*AttributeAST
}

// NewValidator creates a new Validator
func NewValidator(def *DefinitionAST) *Validator {
	attributes := make(map[string]*AttributeAST)
	for _, attr := range def.Attributes {
		key := strings.ToLower(attr.Name)
		if _, exists := attributes[key]; !exists {
			attributes[key] = attr
		}
	}
	return &Validator{
		def:        def,
		errors:     []string{},
		attributes: attributes,
	}
}

// Validate validates the definition and returns error if invalid
func (v *Validator) Validate() error {
	v.validateUnits()
	v.validateAttributes()
	v.validateAssets()

	if len(v.errors) > 0 {
		return fmt.Errorf("%w: validation errors:\n%s", ErrInvalidDefinition, strings.Join(v.errors, "\n"))
	}
	return nil
}

// validateUnits rejects empty unit labels
func (v *Validator) validateUnits() {
	for _, unit := range v.def.Units {
		if unit == "" {
			v.errors = append(v.errors, "empty unit label")
		}
	}
}

// validateAttributes checks names, data types and duplicates.
// Names compare case-insensitively like the catalog does.
func (v *Validator) validateAttributes() {
	seen := make(map[string]int)
	for _, attr := range v.def.Attributes {
		if attr.Name == "" {
			v.errors = append(v.errors, fmt.Sprintf("line %d: empty attribute name", attr.Line))
			continue
		}
		if attr.Type == "" || attr.Type == "[]" {
			v.errors = append(v.errors, fmt.Sprintf("line %d: attribute %s: empty data type", attr.Line, attr.Name))
		}
		key := strings.ToLower(attr.Name)
		if line, dup := seen[key]; dup {
			v.errors = append(v.errors, fmt.Sprintf("line %d: duplicate attribute name: %s (first declared on line %d)", attr.Line, attr.Name, line))
			continue
		}
		seen[key] = attr.Line
	}
}

// validateAssets checks duplicates and that every member is declared in the definition
func (v *Validator) validateAssets() {
	seen := make(map[string]int)
	for _, asset := range v.def.Assets {
		if asset.Name == "" {
			v.errors = append(v.errors, fmt.Sprintf("line %d: empty asset name", asset.Line))
			continue
		}
		key := strings.ToLower(asset.Name)
		if line, dup := seen[key]; dup {
			v.errors = append(v.errors, fmt.Sprintf("line %d: duplicate asset name: %s (first declared on line %d)", asset.Line, asset.Name, line))
		}
		seen[key] = asset.Line

		members := make(map[string]bool)
		for _, name := range asset.Attributes {
			member := strings.ToLower(name)
			if members[member] {
				v.errors = append(v.errors, fmt.Sprintf("asset %s: duplicate attribute: %s", asset.Name, name))
				continue
			}
			members[member] = true

			if _, ok := v.attributes[member]; !ok {
				v.errors = append(v.errors, fmt.Sprintf("asset %s: undefined attribute: %s", asset.Name, name))
			}
		}
	}
}
