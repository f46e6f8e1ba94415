package entities

import (
	"fmt"
	"strings"
)

// ChangeKind is the kind of a membership change recorded in an asset schema's log
type ChangeKind string

const (
	ChangeAdd    ChangeKind = "ADD"
	ChangeDelete ChangeKind = "DELETE"
)

// Valid reports whether k is a known change kind
func (k ChangeKind) Valid() bool {
	return k == ChangeAdd || k == ChangeDelete
}

// ChangeEntry is one append-only record of a membership mutation
type ChangeEntry struct {
	Kind      ChangeKind
	Attribute AttributeRef
}

// AssetSchema is a named composite record built from attribute types.
// Version N is reached after N-1 membership changes; version 1 is the
// registration state.
type AssetSchema struct {
	Name          string         // Asset name, immutable once created
	Attributes    []AttributeRef // Current membership, identity is name+version
	Version       int            // Starts at 1, incremented on every membership change
	ChangeHistory []ChangeEntry  // Membership changes, oldest first
}

// newAssetSchema creates an asset schema at version 1.
// Duplicate refs in initial collapse to one member.
func newAssetSchema(name string, initial []AttributeRef) *AssetSchema {
	attrs := make([]AttributeRef, 0, len(initial))
	for _, ref := range initial {
		if indexOfRef(attrs, ref) < 0 {
			attrs = append(attrs, ref)
		}
	}
	return &AssetSchema{
		Name:          name,
		Attributes:    attrs,
		Version:       1,
		ChangeHistory: []ChangeEntry{},
	}
}

// AddAttribute adds attr to the membership and logs an ADD entry.
// Adding a ref whose name and version are already present is a no-op.
func (s *AssetSchema) AddAttribute(attr *AttributeRef) error {
	if attr == nil {
		return fmt.Errorf("attempt to add a nil attribute to asset %q: %w", s.Name, ErrInvalidArgument)
	}
	if indexOfRef(s.Attributes, *attr) >= 0 {
		return nil
	}

	s.Attributes = append(s.Attributes, *attr)
	s.ChangeHistory = append(s.ChangeHistory, ChangeEntry{Kind: ChangeAdd, Attribute: *attr})
	s.Version++
	return nil
}

// RemoveAttribute removes the member matching attr's name and version and logs a DELETE entry
func (s *AssetSchema) RemoveAttribute(attr *AttributeRef) error {
	if attr == nil {
		return fmt.Errorf("attempt to remove a nil attribute from asset %q: %w", s.Name, ErrInvalidArgument)
	}
	i := indexOfRef(s.Attributes, *attr)
	if i < 0 {
		return fmt.Errorf("attribute %s is not part of asset %q: %w", attr, s.Name, ErrNotFound)
	}

	s.Attributes = removeAt(s.Attributes, i)
	s.ChangeHistory = append(s.ChangeHistory, ChangeEntry{Kind: ChangeDelete, Attribute: *attr})
	s.Version++
	return nil
}

// HasAttribute checks if any version of the named attribute is a current member
func (s *AssetSchema) HasAttribute(name string) bool {
	for _, a := range s.Attributes {
		if strings.EqualFold(a.Name, name) {
			return true
		}
	}
	return false
}

// CurrentAttributes returns a copy of the current membership
func (s *AssetSchema) CurrentAttributes() []AttributeRef {
	out := make([]AttributeRef, len(s.Attributes))
	copy(out, s.Attributes)
	return out
}

// Changes returns a copy of the change log
func (s *AssetSchema) Changes() []ChangeEntry {
	out := make([]ChangeEntry, len(s.ChangeHistory))
	copy(out, s.ChangeHistory)
	return out
}

// AttributesAtVersion reconstructs the membership as it was at version.
// It starts from a copy of the current membership and undoes the newest
// Version-version log entries; the schema itself is not modified.
func (s *AssetSchema) AttributesAtVersion(version int) ([]AttributeRef, error) {
	if version < 1 || version > s.Version {
		return nil, fmt.Errorf("asset %q has no version %d (current %d): %w", s.Name, version, s.Version, ErrInvalidVersion)
	}

	attrs := s.CurrentAttributes()
	if version == s.Version {
		return attrs, nil
	}

	undo := s.Version - version
	for i := len(s.ChangeHistory) - 1; i >= len(s.ChangeHistory)-undo; i-- {
		change := s.ChangeHistory[i]
		switch change.Kind {
		case ChangeAdd:
			if j := indexOfRef(attrs, change.Attribute); j >= 0 {
				attrs = removeAt(attrs, j)
			}
		case ChangeDelete:
			attrs = append(attrs, change.Attribute)
		}
	}

	return attrs, nil
}

// indexOfRef returns the position of the member identical to ref, or -1
func indexOfRef(attrs []AttributeRef, ref AttributeRef) int {
	for i, a := range attrs {
		if a.Same(ref) {
			return i
		}
	}
	return -1
}

// removeAt removes the element at i, keeping the order of the rest
func removeAt(attrs []AttributeRef, i int) []AttributeRef {
	return append(attrs[:i:i], attrs[i+1:]...)
}

// AssetSchemaRegistry owns the asset schemas of a catalog
type AssetSchemaRegistry struct {
	schemas []*AssetSchema // insertion order
}

// NewAssetSchemaRegistry creates an empty registry
func NewAssetSchemaRegistry() *AssetSchemaRegistry {
	return &AssetSchemaRegistry{schemas: []*AssetSchema{}}
}

// List returns all asset schemas in registration order
func (r *AssetSchemaRegistry) List() []*AssetSchema {
	out := make([]*AssetSchema, len(r.schemas))
	copy(out, r.schemas)
	return out
}

// Get returns the asset schema registered under name
func (r *AssetSchemaRegistry) Get(name string) (*AssetSchema, error) {
	if i := r.indexOf(name); i >= 0 {
		return r.schemas[i], nil
	}
	return nil, fmt.Errorf("asset schema %q: %w", name, ErrNotFound)
}

// AttributesOf returns the current membership of the named asset
func (r *AssetSchemaRegistry) AttributesOf(name string) ([]AttributeRef, error) {
	s, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	return s.CurrentAttributes(), nil
}

// AttributesOfAtVersion returns the membership of the named asset at version
func (r *AssetSchemaRegistry) AttributesOfAtVersion(name string, version int) ([]AttributeRef, error) {
	s, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	return s.AttributesAtVersion(version)
}

// Register creates a new asset schema at version 1 with the given attributes.
// Registering a name that already exists is a no-op; the return value reports
// whether a schema was created.
func (r *AssetSchemaRegistry) Register(name string, initial []AttributeRef) bool {
	if r.indexOf(name) >= 0 {
		return false
	}
	r.schemas = append(r.schemas, newAssetSchema(name, initial))
	return true
}

// Delete removes the named asset schema entirely
func (r *AssetSchemaRegistry) Delete(name string) bool {
	i := r.indexOf(name)
	if i < 0 {
		return false
	}
	r.schemas = append(r.schemas[:i], r.schemas[i+1:]...)
	return true
}

// Exists checks if an asset schema is registered under name
func (r *AssetSchemaRegistry) Exists(name string) bool {
	return r.indexOf(name) >= 0
}

func (r *AssetSchemaRegistry) indexOf(name string) int {
	for i, s := range r.schemas {
		if strings.EqualFold(s.Name, name) {
			return i
		}
	}
	return -1
}

// restore appends a fully built asset schema (used by the document decoder)
func (r *AssetSchemaRegistry) restore(s *AssetSchema) {
	r.schemas = append(r.schemas, s)
}
