package parser

import (
	"fmt"
	"strings"

	"github.com/HCTatse/MF-Chaincode/internal/entities"
)

// ApplyResult describes what applying a definition changed
type ApplyResult struct {
	Changes []string // Human-readable change lines, in application order
}

// Changed reports whether anything was modified
func (r *ApplyResult) Changed() bool {
	return len(r.Changes) > 0
}

func (r *ApplyResult) record(format string, args ...interface{}) {
	r.Changes = append(r.Changes, fmt.Sprintf(format, args...))
}

// CatalogToAST converts the current state of a catalog to a DefinitionAST.
// Units keep their declaration order with duplicates collapsed; history is not represented.
func CatalogToAST(c *entities.SchemaCatalog) *DefinitionAST {
	def := &DefinitionAST{
		Units:      []string{},
		Attributes: []*AttributeAST{},
		Assets:     []*AssetAST{},
	}

	seen := make(map[string]bool)
	for _, unit := range c.ListUnits() {
		if !seen[unit] {
			seen[unit] = true
			def.Units = append(def.Units, unit)
		}
	}

	for _, attr := range c.ListAttributeTypes() {
		def.Attributes = append(def.Attributes, &AttributeAST{
			Name: attr.Name,
			Type: attr.DataType,
		})
	}

	for _, asset := range c.ListAssetSchemas() {
		assetAST := &AssetAST{
			Name:       asset.Name,
			Attributes: []string{},
		}
		members := make(map[string]bool)
		for _, ref := range asset.CurrentAttributes() {
			key := strings.ToLower(ref.Name)
			if !members[key] {
				members[key] = true
				assetAST.Attributes = append(assetAST.Attributes, ref.Name)
			}
		}
		def.Assets = append(def.Assets, assetAST)
	}

	return def
}

// Apply brings a catalog in line with a validated definition.
//
//   - units missing from the catalog are declared
//   - attribute types are created, or get a new data type version when it differs
//   - assets are registered; a declared asset ends up with exactly the current
//     versions of its declared attributes
//
// Attribute types and assets absent from the definition are left alone. Every
// change goes through the catalog's own operations, so asset change logs stay intact.
func Apply(def *DefinitionAST, c *entities.SchemaCatalog) (*ApplyResult, error) {
	result := &ApplyResult{Changes: []string{}}

	declared := make(map[string]bool)
	for _, unit := range c.ListUnits() {
		declared[unit] = true
	}
	for _, unit := range def.Units {
		if declared[unit] {
			continue
		}
		declared[unit] = true
		c.AddUnit(unit)
		result.record("unit %s declared", unit)
	}

	for _, attrAST := range def.Attributes {
		if err := applyAttribute(attrAST, c, result); err != nil {
			return nil, err
		}
	}

	for _, assetAST := range def.Assets {
		if err := applyAsset(assetAST, c, result); err != nil {
			return nil, fmt.Errorf("failed to apply asset %s: %w", assetAST.Name, err)
		}
	}

	return result, nil
}

func applyAttribute(attrAST *AttributeAST, c *entities.SchemaCatalog, result *ApplyResult) error {
	current, err := c.DataTypeOf(attrAST.Name)
	if err == nil && current == attrAST.Type {
		return nil
	}

	attr, upsertErr := c.UpsertAttributeType(attrAST.Name, attrAST.Type)
	if upsertErr != nil {
		return fmt.Errorf("failed to apply attribute %s: %w", attrAST.Name, upsertErr)
	}
	if err != nil {
		result.record("attribute %s: %s created", attr.Name, attr.DataType)
	} else {
		result.record("attribute %s: %s -> %s (version %d)", attr.Name, current, attr.DataType, attr.Version)
	}
	return nil
}

func applyAsset(assetAST *AssetAST, c *entities.SchemaCatalog, result *ApplyResult) error {
	if !c.AssetSchemaExists(assetAST.Name) {
		if _, err := c.RegisterAssetSchema(assetAST.Name, assetAST.Attributes); err != nil {
			return err
		}
		result.record("asset %s registered with %d attributes", assetAST.Name, len(assetAST.Attributes))
		return nil
	}

	wanted := make(map[string]entities.AttributeRef)
	for _, name := range assetAST.Attributes {
		attr, err := c.AttributeTypes.Get(name)
		if err != nil {
			return err
		}
		wanted[strings.ToLower(attr.Name)] = attr.Ref()
	}

	schema, err := c.AssetSchemas.Get(assetAST.Name)
	if err != nil {
		return err
	}

	// Drop members that are not declared or not at their attribute's current version
	for _, member := range schema.CurrentAttributes() {
		if ref, ok := wanted[strings.ToLower(member.Name)]; ok && ref.Same(member) {
			continue
		}
		if err := c.RemoveAttributeFromAsset(assetAST.Name, member.Name, member.Version); err != nil {
			return err
		}
		result.record("asset %s: -%s", schema.Name, member)
	}

	for _, name := range assetAST.Attributes {
		ref := wanted[strings.ToLower(name)]
		if containsRef(schema.CurrentAttributes(), ref) {
			continue
		}
		if err := c.AddAttributeToAsset(assetAST.Name, name); err != nil {
			return err
		}
		result.record("asset %s: +%s", schema.Name, ref)
	}

	return nil
}

func containsRef(refs []entities.AttributeRef, ref entities.AttributeRef) bool {
	for _, r := range refs {
		if r.Same(ref) {
			return true
		}
	}
	return false
}
