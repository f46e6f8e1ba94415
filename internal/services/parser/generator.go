package parser

import (
	"fmt"
	"strings"
)

// Generator generates definition source from a DefinitionAST
type Generator struct {
	indent string
}

// NewGenerator creates a new Generator
func NewGenerator() *Generator {
	return &Generator{
		indent: "  ",
	}
}

// Generate generates definition source. Names that are not plain identifiers are
// quoted; a name that cannot be quoted is an error.
func (g *Generator) Generate(def *DefinitionAST) (string, error) {
	var sb strings.Builder

	if len(def.Units) > 0 {
		labels := make([]string, 0, len(def.Units))
		for _, unit := range def.Units {
			label, err := quote(unit)
			if err != nil {
				return "", fmt.Errorf("unit %q: %w", unit, err)
			}
			labels = append(labels, label)
		}
		sb.WriteString(fmt.Sprintf("unit %s\n", strings.Join(labels, ", ")))
	}

	if len(def.Attributes) > 0 {
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		for _, attr := range def.Attributes {
			line, err := g.generateAttribute(attr)
			if err != nil {
				return "", err
			}
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}

	for _, asset := range def.Assets {
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		block, err := g.generateAsset(asset)
		if err != nil {
			return "", err
		}
		sb.WriteString(block)
	}

	return sb.String(), nil
}

// generateAttribute generates source for an attribute type
func (g *Generator) generateAttribute(attr *AttributeAST) (string, error) {
	name, err := quote(attr.Name)
	if err != nil {
		return "", fmt.Errorf("attribute %q: %w", attr.Name, err)
	}

	dataType := attr.Type
	suffix := ""
	if base, ok := strings.CutSuffix(dataType, "[]"); ok && base != "" && isIdentifier(base) {
		dataType, suffix = base, "[]"
	}
	quoted, err := quote(dataType)
	if err != nil {
		return "", fmt.Errorf("attribute %q data type: %w", attr.Name, err)
	}
	return fmt.Sprintf("attribute %s: %s%s", name, quoted, suffix), nil
}

// generateAsset generates source for an asset schema
func (g *Generator) generateAsset(asset *AssetAST) (string, error) {
	var sb strings.Builder

	name, err := quote(asset.Name)
	if err != nil {
		return "", fmt.Errorf("asset %q: %w", asset.Name, err)
	}
	sb.WriteString(fmt.Sprintf("asset %s {\n", name))

	for _, member := range asset.Attributes {
		quoted, err := quote(member)
		if err != nil {
			return "", fmt.Errorf("asset %q member %q: %w", asset.Name, member, err)
		}
		sb.WriteString(g.indent)
		sb.WriteString(quoted)
		sb.WriteString("\n")
	}

	sb.WriteString("}\n")
	return sb.String(), nil
}

// quote returns s as an identifier when possible, otherwise as a string literal
func quote(s string) (string, error) {
	if isIdentifier(s) {
		if _, keyword := keywords[s]; !keyword {
			return s, nil
		}
	}
	if strings.ContainsAny(s, "\"\n") {
		return "", fmt.Errorf("cannot be written as a name: %w", ErrInvalidDefinition)
	}
	return `"` + s + `"`, nil
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isNameByte(s[i]) {
			return false
		}
	}
	return true
}
