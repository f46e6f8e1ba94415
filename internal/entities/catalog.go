package entities

import "fmt"

// SchemaCatalog is the complete attribute and asset definition of one domain.
// It is a plain in-memory structure: callers serialize mutations themselves.
type SchemaCatalog struct {
	AttributeTypes *AttributeTypeRegistry
	AssetSchemas   *AssetSchemaRegistry
	Units          []string // Declared unit labels, duplicates allowed
}

// NewSchemaCatalog creates an empty catalog
func NewSchemaCatalog() *SchemaCatalog {
	return &SchemaCatalog{
		AttributeTypes: NewAttributeTypeRegistry(),
		AssetSchemas:   NewAssetSchemaRegistry(),
		Units:          []string{},
	}
}

// ListUnits returns the declared unit labels in declaration order
func (c *SchemaCatalog) ListUnits() []string {
	out := make([]string, len(c.Units))
	copy(out, c.Units)
	return out
}

// AddUnit appends a unit label
func (c *SchemaCatalog) AddUnit(unit string) {
	c.Units = append(c.Units, unit)
}

// ListAttributeTypes returns all attribute types in registration order
func (c *SchemaCatalog) ListAttributeTypes() []*AttributeType {
	return c.AttributeTypes.List()
}

// DataTypeOf returns the current data type of an attribute
func (c *SchemaCatalog) DataTypeOf(attribute string) (string, error) {
	return c.AttributeTypes.DataTypeOf(attribute)
}

// DataTypeOfAtVersion returns the data type an attribute had at version
func (c *SchemaCatalog) DataTypeOfAtVersion(attribute string, version int) (string, error) {
	t, err := c.AttributeTypes.Get(attribute)
	if err != nil {
		return "", err
	}
	return t.DataTypeAt(version)
}

// AttributeTypeExists checks if an attribute type is registered
func (c *SchemaCatalog) AttributeTypeExists(attribute string) bool {
	return c.AttributeTypes.Exists(attribute)
}

// UpsertAttributeType registers an attribute type or changes its data type
func (c *SchemaCatalog) UpsertAttributeType(attribute, dataType string) (*AttributeType, error) {
	return c.AttributeTypes.Upsert(attribute, dataType)
}

// ListAssetSchemas returns all asset schemas in registration order
func (c *SchemaCatalog) ListAssetSchemas() []*AssetSchema {
	return c.AssetSchemas.List()
}

// AssetSchemaExists checks if an asset schema is registered
func (c *SchemaCatalog) AssetSchemaExists(asset string) bool {
	return c.AssetSchemas.Exists(asset)
}

// RegisterAssetSchema registers an asset composed of the current versions of
// the named attribute types. Every attribute must already be registered; an
// existing asset name leaves the catalog unchanged and reports false.
func (c *SchemaCatalog) RegisterAssetSchema(asset string, attributes []string) (bool, error) {
	if asset == "" {
		return false, fmt.Errorf("asset name is required: %w", ErrInvalidArgument)
	}

	refs := make([]AttributeRef, 0, len(attributes))
	for _, name := range attributes {
		t, err := c.AttributeTypes.Get(name)
		if err != nil {
			return false, fmt.Errorf("failed to register asset %q: %w", asset, err)
		}
		refs = append(refs, t.Ref())
	}

	return c.AssetSchemas.Register(asset, refs), nil
}

// DeleteAssetSchema removes an asset schema and its history
func (c *SchemaCatalog) DeleteAssetSchema(asset string) bool {
	return c.AssetSchemas.Delete(asset)
}

// AttributesOfAsset returns the current attributes of an asset
func (c *SchemaCatalog) AttributesOfAsset(asset string) ([]AttributeRef, error) {
	return c.AssetSchemas.AttributesOf(asset)
}

// AttributesOfAssetAtVersion returns the attributes an asset had at version
func (c *SchemaCatalog) AttributesOfAssetAtVersion(asset string, version int) ([]AttributeRef, error) {
	return c.AssetSchemas.AttributesOfAtVersion(asset, version)
}

// AssetHasAttribute checks if an asset currently contains any version of attribute
func (c *SchemaCatalog) AssetHasAttribute(asset, attribute string) (bool, error) {
	s, err := c.AssetSchemas.Get(asset)
	if err != nil {
		return false, err
	}
	return s.HasAttribute(attribute), nil
}

// AddAttributeToAsset adds the current version of an attribute type to an asset
func (c *SchemaCatalog) AddAttributeToAsset(asset, attribute string) error {
	s, err := c.AssetSchemas.Get(asset)
	if err != nil {
		return err
	}
	t, err := c.AttributeTypes.Get(attribute)
	if err != nil {
		return err
	}
	ref := t.Ref()
	return s.AddAttribute(&ref)
}

// RemoveAttributeFromAsset removes one version of an attribute from an asset.
// A version of 0 means the attribute type's current version.
func (c *SchemaCatalog) RemoveAttributeFromAsset(asset, attribute string, version int) error {
	s, err := c.AssetSchemas.Get(asset)
	if err != nil {
		return err
	}
	t, err := c.AttributeTypes.Get(attribute)
	if err != nil {
		return err
	}

	ref := t.Ref()
	if version != 0 {
		dataType, err := t.DataTypeAt(version)
		if err != nil {
			return err
		}
		ref = AttributeRef{Name: t.Name, DataType: dataType, Version: version}
	}
	return s.RemoveAttribute(&ref)
}
