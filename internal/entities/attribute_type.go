package entities

import (
	"fmt"
	"strings"
)

// AttributeType is a named, versioned data-type declaration
// Example: "color" : "string"
type AttributeType struct {
	Name            string   // Attribute name, immutable once created
	DataType        string   // Current data type (e.g., "string", "int")
	DataTypeHistory []string // Previously active data types, oldest first
	Version         int      // Starts at 1, incremented on every data type change
}

// newAttributeType creates an attribute type at version 1 with an empty history
func newAttributeType(name, dataType string) *AttributeType {
	return &AttributeType{
		Name:            name,
		DataType:        dataType,
		DataTypeHistory: []string{},
		Version:         1,
	}
}

// setDataType records the current data type in the history and bumps the version.
// Setting the same data type again still counts as a change.
func (a *AttributeType) setDataType(dataType string) {
	a.DataTypeHistory = append(a.DataTypeHistory, a.DataType)
	a.DataType = dataType
	a.Version++
}

// DataTypeAt returns the data type that was active at the given version
func (a *AttributeType) DataTypeAt(version int) (string, error) {
	if version < 1 || version > a.Version {
		return "", fmt.Errorf("attribute %q has no version %d (current %d): %w", a.Name, version, a.Version, ErrInvalidVersion)
	}
	if version == a.Version {
		return a.DataType, nil
	}
	return a.DataTypeHistory[version-1], nil
}

// Ref returns a snapshot of the attribute type at its current version
func (a *AttributeType) Ref() AttributeRef {
	return AttributeRef{
		Name:     a.Name,
		DataType: a.DataType,
		Version:  a.Version,
	}
}

// AttributeRef is an immutable snapshot of an attribute type at one version.
// Asset schemas hold refs instead of the registry's AttributeType so that
// later data type changes never rewrite an asset's history.
type AttributeRef struct {
	Name     string
	DataType string
	Version  int
}

// Same reports whether two refs identify the same attribute version.
// Names compare case-insensitively.
func (r AttributeRef) Same(other AttributeRef) bool {
	return r.Version == other.Version && strings.EqualFold(r.Name, other.Name)
}

// String returns a string representation of the ref
// Format: name@version:data_type
func (r AttributeRef) String() string {
	return fmt.Sprintf("%s@%d:%s", r.Name, r.Version, r.DataType)
}

// AttributeTypeRegistry owns every attribute type of a catalog
type AttributeTypeRegistry struct {
	types []*AttributeType // insertion order
}

// NewAttributeTypeRegistry creates an empty registry
func NewAttributeTypeRegistry() *AttributeTypeRegistry {
	return &AttributeTypeRegistry{types: []*AttributeType{}}
}

// List returns all registered attribute types in insertion order
func (r *AttributeTypeRegistry) List() []*AttributeType {
	out := make([]*AttributeType, len(r.types))
	copy(out, r.types)
	return out
}

// Get returns the attribute type registered under name
func (r *AttributeTypeRegistry) Get(name string) (*AttributeType, error) {
	for _, t := range r.types {
		if strings.EqualFold(t.Name, name) {
			return t, nil
		}
	}
	return nil, fmt.Errorf("attribute type %q: %w", name, ErrNotFound)
}

// DataTypeOf returns the current data type of the named attribute
func (r *AttributeTypeRegistry) DataTypeOf(name string) (string, error) {
	t, err := r.Get(name)
	if err != nil {
		return "", err
	}
	return t.DataType, nil
}

// Exists checks if an attribute type is registered under name
func (r *AttributeTypeRegistry) Exists(name string) bool {
	_, err := r.Get(name)
	return err == nil
}

// Upsert updates the data type of an existing attribute type or registers a new one
func (r *AttributeTypeRegistry) Upsert(name, dataType string) (*AttributeType, error) {
	if name == "" {
		return nil, fmt.Errorf("attribute name is required: %w", ErrInvalidArgument)
	}
	if dataType == "" {
		return nil, fmt.Errorf("data type is required: %w", ErrInvalidArgument)
	}

	if t, err := r.Get(name); err == nil {
		t.setDataType(dataType)
		return t, nil
	}

	t := newAttributeType(name, dataType)
	r.types = append(r.types, t)
	return t, nil
}

// restore appends a fully built attribute type (used by the document decoder)
func (r *AttributeTypeRegistry) restore(t *AttributeType) {
	r.types = append(r.types, t)
}
