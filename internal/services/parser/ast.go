package parser

// DefinitionAST represents a parsed catalog definition
type DefinitionAST struct {
	Units      []string
	Attributes []*AttributeAST
	Assets     []*AssetAST
}

// AttributeAST represents an attribute type declaration
// Example: "attribute weight: float"
type AttributeAST struct {
	Name string
	Type string // "string", "int", "string[]", etc.
	Line int
}

// AssetAST represents an asset schema declaration
// Example: "asset Car { color weight }"
type AssetAST struct {
	Name       string
	Attributes []string // Member attribute names, declaration order
	Line       int
}
