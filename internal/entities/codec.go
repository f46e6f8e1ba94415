package entities

import (
	"encoding/json"
	"fmt"
)

// CatalogFormatVersion is the version of the catalog document layout written by MarshalCatalog
const CatalogFormatVersion = 1

// The document types below are the stored shape of a catalog. Field names are
// part of the storage contract: rename a field only together with a new
// CatalogFormatVersion and a decoder for the old one.

type catalogDocument struct {
	FormatVersion  int                     `json:"format_version"`
	AttributeTypes []attributeTypeDocument `json:"attribute_types"`
	AssetSchemas   []assetSchemaDocument   `json:"asset_schemas"`
	Units          []string                `json:"units"`
}

type attributeTypeDocument struct {
	Name            string   `json:"name"`
	DataType        string   `json:"data_type"`
	DataTypeHistory []string `json:"data_type_history"`
	Version         int      `json:"version"`
}

type attributeRefDocument struct {
	Name     string `json:"name"`
	DataType string `json:"data_type"`
	Version  int    `json:"version"`
}

type changeEntryDocument struct {
	Kind      string               `json:"kind"`
	Attribute attributeRefDocument `json:"attribute"`
}

type assetSchemaDocument struct {
	Name          string                 `json:"name"`
	Attributes    []attributeRefDocument `json:"attributes"`
	Version       int                    `json:"version"`
	ChangeHistory []changeEntryDocument  `json:"change_history"`
}

// MarshalCatalog encodes a catalog as a versioned JSON document
func MarshalCatalog(c *SchemaCatalog) ([]byte, error) {
	if c == nil {
		return nil, fmt.Errorf("catalog is required: %w", ErrInvalidArgument)
	}

	doc := catalogDocument{
		FormatVersion:  CatalogFormatVersion,
		AttributeTypes: make([]attributeTypeDocument, 0, len(c.AttributeTypes.types)),
		AssetSchemas:   make([]assetSchemaDocument, 0, len(c.AssetSchemas.schemas)),
		Units:          append([]string{}, c.Units...),
	}

	for _, t := range c.AttributeTypes.types {
		doc.AttributeTypes = append(doc.AttributeTypes, attributeTypeDocument{
			Name:            t.Name,
			DataType:        t.DataType,
			DataTypeHistory: append([]string{}, t.DataTypeHistory...),
			Version:         t.Version,
		})
	}

	for _, s := range c.AssetSchemas.schemas {
		sd := assetSchemaDocument{
			Name:          s.Name,
			Attributes:    make([]attributeRefDocument, 0, len(s.Attributes)),
			Version:       s.Version,
			ChangeHistory: make([]changeEntryDocument, 0, len(s.ChangeHistory)),
		}
		for _, a := range s.Attributes {
			sd.Attributes = append(sd.Attributes, encodeRef(a))
		}
		for _, ch := range s.ChangeHistory {
			sd.ChangeHistory = append(sd.ChangeHistory, changeEntryDocument{
				Kind:      string(ch.Kind),
				Attribute: encodeRef(ch.Attribute),
			})
		}
		doc.AssetSchemas = append(doc.AssetSchemas, sd)
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal catalog: %w", err)
	}
	return data, nil
}

// UnmarshalCatalog decodes a document produced by MarshalCatalog and checks
// every catalog invariant before returning the catalog.
func UnmarshalCatalog(data []byte) (*SchemaCatalog, error) {
	var doc catalogDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal catalog: %v: %w", err, ErrInvalidDocument)
	}
	if doc.FormatVersion != CatalogFormatVersion {
		return nil, fmt.Errorf("catalog format version %d: %w", doc.FormatVersion, ErrUnsupportedFormat)
	}

	c := NewSchemaCatalog()

	for _, td := range doc.AttributeTypes {
		if td.Name == "" || td.DataType == "" {
			return nil, fmt.Errorf("attribute type with empty name or data type: %w", ErrInvalidDocument)
		}
		if td.Version != len(td.DataTypeHistory)+1 {
			return nil, fmt.Errorf("attribute type %q: version %d does not match %d history entries: %w",
				td.Name, td.Version, len(td.DataTypeHistory), ErrInvalidDocument)
		}
		if c.AttributeTypes.Exists(td.Name) {
			return nil, fmt.Errorf("duplicate attribute type %q: %w", td.Name, ErrInvalidDocument)
		}
		c.AttributeTypes.restore(&AttributeType{
			Name:            td.Name,
			DataType:        td.DataType,
			DataTypeHistory: append([]string{}, td.DataTypeHistory...),
			Version:         td.Version,
		})
	}

	for _, sd := range doc.AssetSchemas {
		s, err := decodeAssetSchema(sd)
		if err != nil {
			return nil, err
		}
		if err := checkRefs(c.AttributeTypes, s); err != nil {
			return nil, err
		}
		if c.AssetSchemas.Exists(s.Name) {
			return nil, fmt.Errorf("duplicate asset schema %q: %w", s.Name, ErrInvalidDocument)
		}
		c.AssetSchemas.restore(s)
	}

	c.Units = append(c.Units, doc.Units...)
	return c, nil
}

func decodeAssetSchema(sd assetSchemaDocument) (*AssetSchema, error) {
	if sd.Name == "" {
		return nil, fmt.Errorf("asset schema with empty name: %w", ErrInvalidDocument)
	}
	if sd.Version != len(sd.ChangeHistory)+1 {
		return nil, fmt.Errorf("asset schema %q: version %d does not match %d change entries: %w",
			sd.Name, sd.Version, len(sd.ChangeHistory), ErrInvalidDocument)
	}

	s := &AssetSchema{
		Name:          sd.Name,
		Attributes:    make([]AttributeRef, 0, len(sd.Attributes)),
		Version:       sd.Version,
		ChangeHistory: make([]ChangeEntry, 0, len(sd.ChangeHistory)),
	}
	for _, ad := range sd.Attributes {
		ref := decodeRef(ad)
		if indexOfRef(s.Attributes, ref) >= 0 {
			return nil, fmt.Errorf("asset schema %q lists %s twice: %w", sd.Name, ref, ErrInvalidDocument)
		}
		s.Attributes = append(s.Attributes, ref)
	}
	for _, cd := range sd.ChangeHistory {
		kind := ChangeKind(cd.Kind)
		if !kind.Valid() {
			return nil, fmt.Errorf("asset schema %q: unknown change kind %q: %w", sd.Name, cd.Kind, ErrInvalidDocument)
		}
		s.ChangeHistory = append(s.ChangeHistory, ChangeEntry{Kind: kind, Attribute: decodeRef(cd.Attribute)})
	}
	if err := checkReplay(s); err != nil {
		return nil, err
	}
	return s, nil
}

// checkReplay undoes the change log from the live set, as AttributesAtVersion
// does, and fails when an entry does not match the membership it would undo.
func checkReplay(s *AssetSchema) error {
	attrs := s.CurrentAttributes()
	for i := len(s.ChangeHistory) - 1; i >= 0; i-- {
		change := s.ChangeHistory[i]
		j := indexOfRef(attrs, change.Attribute)
		switch change.Kind {
		case ChangeAdd:
			if j < 0 {
				return fmt.Errorf("asset schema %q: change %d adds %s, which is not a member at version %d: %w",
					s.Name, i+1, change.Attribute, i+2, ErrInvalidDocument)
			}
			attrs = removeAt(attrs, j)
		case ChangeDelete:
			if j >= 0 {
				return fmt.Errorf("asset schema %q: change %d deletes %s, which is still a member at version %d: %w",
					s.Name, i+1, change.Attribute, i+2, ErrInvalidDocument)
			}
			attrs = append(attrs, change.Attribute)
		}
	}
	return nil
}

// checkRefs requires every member and logged ref of s to name a registered
// attribute type at a version whose data type matches.
func checkRefs(types *AttributeTypeRegistry, s *AssetSchema) error {
	refs := s.CurrentAttributes()
	for _, change := range s.ChangeHistory {
		refs = append(refs, change.Attribute)
	}
	for _, ref := range refs {
		t, err := types.Get(ref.Name)
		if err != nil {
			return fmt.Errorf("asset schema %q refers to unknown attribute %q: %w", s.Name, ref.Name, ErrInvalidDocument)
		}
		dataType, err := t.DataTypeAt(ref.Version)
		if err != nil {
			return fmt.Errorf("asset schema %q refers to %s: %v: %w", s.Name, ref, err, ErrInvalidDocument)
		}
		if dataType != ref.DataType {
			return fmt.Errorf("asset schema %q refers to %s, but %s@%d is %s: %w",
				s.Name, ref, t.Name, ref.Version, dataType, ErrInvalidDocument)
		}
	}
	return nil
}

func encodeRef(r AttributeRef) attributeRefDocument {
	return attributeRefDocument{Name: r.Name, DataType: r.DataType, Version: r.Version}
}

func decodeRef(d attributeRefDocument) AttributeRef {
	return AttributeRef{Name: d.Name, DataType: d.DataType, Version: d.Version}
}
