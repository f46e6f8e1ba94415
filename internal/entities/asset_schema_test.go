package entities

import (
	"errors"
	"sort"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

var (
	colorV1  = AttributeRef{Name: "color", DataType: "string", Version: 1}
	weightV1 = AttributeRef{Name: "weight", DataType: "int", Version: 1}
	weightV2 = AttributeRef{Name: "weight", DataType: "float", Version: 2}
)

// refKeys returns the identities of attrs sorted, so membership can be compared as a set
func refKeys(attrs []AttributeRef) []string {
	keys := make([]string, 0, len(attrs))
	for _, a := range attrs {
		keys = append(keys, strings.ToLower(a.Name)+"@"+strconv.Itoa(a.Version))
	}
	sort.Strings(keys)
	return keys
}

func ref(a AttributeRef) *AttributeRef { return &a }

func TestAssetSchema_ScenarioCar(t *testing.T) {
	r := NewAssetSchemaRegistry()
	if !r.Register("Car", []AttributeRef{colorV1}) {
		t.Fatal("Register(Car) = false, want true")
	}
	car, err := r.Get("car")
	if err != nil {
		t.Fatalf("Get(car) unexpected error: %v", err)
	}

	if err := car.AddAttribute(ref(weightV1)); err != nil {
		t.Fatalf("AddAttribute(weight) unexpected error: %v", err)
	}
	if car.Version != 2 {
		t.Errorf("Version after add = %d, want 2", car.Version)
	}
	if diff := cmp.Diff([]string{"color@1", "weight@1"}, refKeys(car.Attributes)); diff != "" {
		t.Errorf("attributes after add mismatch (-want +got):\n%s", diff)
	}

	if err := car.RemoveAttribute(ref(colorV1)); err != nil {
		t.Fatalf("RemoveAttribute(color) unexpected error: %v", err)
	}
	if car.Version != 3 {
		t.Errorf("Version after remove = %d, want 3", car.Version)
	}

	tests := []struct {
		version int
		want    []string
	}{
		{version: 1, want: []string{"color@1"}},
		{version: 2, want: []string{"color@1", "weight@1"}},
		{version: 3, want: []string{"weight@1"}},
	}
	for _, tt := range tests {
		got, err := r.AttributesOfAtVersion("CAR", tt.version)
		if err != nil {
			t.Errorf("AttributesOfAtVersion(%d) unexpected error: %v", tt.version, err)
			continue
		}
		if diff := cmp.Diff(tt.want, refKeys(got)); diff != "" {
			t.Errorf("AttributesOfAtVersion(%d) mismatch (-want +got):\n%s", tt.version, diff)
		}
	}

	wantLog := []ChangeEntry{
		{Kind: ChangeAdd, Attribute: weightV1},
		{Kind: ChangeDelete, Attribute: colorV1},
	}
	if diff := cmp.Diff(wantLog, car.Changes()); diff != "" {
		t.Errorf("Changes() mismatch (-want +got):\n%s", diff)
	}
}

func TestAssetSchema_AttributesAtVersion_Errors(t *testing.T) {
	r := NewAssetSchemaRegistry()
	r.Register("Car", []AttributeRef{colorV1})

	tests := []struct {
		name    string
		asset   string
		version int
		wantErr error
	}{
		{name: "version zero", asset: "Car", version: 0, wantErr: ErrInvalidVersion},
		{name: "negative version", asset: "Car", version: -3, wantErr: ErrInvalidVersion},
		{name: "future version", asset: "Car", version: 2, wantErr: ErrInvalidVersion},
		{name: "unknown asset", asset: "Boat", version: 1, wantErr: ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.AttributesOfAtVersion(tt.asset, tt.version)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("AttributesOfAtVersion() error = %v, want %v", err, tt.wantErr)
			}
			if got != nil {
				t.Errorf("AttributesOfAtVersion() = %v, want nil", got)
			}
		})
	}

	if _, err := r.AttributesOf("Boat"); !errors.Is(err, ErrNotFound) {
		t.Errorf("AttributesOf(Boat) error = %v, want ErrNotFound", err)
	}
}

func TestAssetSchema_AddAttribute_DuplicateIsNoop(t *testing.T) {
	s := newAssetSchema("Car", nil)
	if err := s.AddAttribute(ref(weightV1)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	upper := AttributeRef{Name: "WEIGHT", DataType: "int", Version: 1}
	if err := s.AddAttribute(&upper); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if s.Version != 2 {
		t.Errorf("Version = %d, want 2", s.Version)
	}
	if len(s.Attributes) != 1 || len(s.ChangeHistory) != 1 {
		t.Errorf("got %d attributes and %d changes, want 1 and 1", len(s.Attributes), len(s.ChangeHistory))
	}

	// another version of the same attribute is a distinct member
	if err := s.AddAttribute(ref(weightV2)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]string{"weight@1", "weight@2"}, refKeys(s.Attributes)); diff != "" {
		t.Errorf("attributes mismatch (-want +got):\n%s", diff)
	}
}

func TestAssetSchema_NilAndMissingAttributes(t *testing.T) {
	s := newAssetSchema("Car", []AttributeRef{colorV1})

	tests := []struct {
		name    string
		call    func() error
		wantErr error
	}{
		{name: "add nil", call: func() error { return s.AddAttribute(nil) }, wantErr: ErrInvalidArgument},
		{name: "remove nil", call: func() error { return s.RemoveAttribute(nil) }, wantErr: ErrInvalidArgument},
		{name: "remove never added", call: func() error { return s.RemoveAttribute(ref(weightV1)) }, wantErr: ErrNotFound},
		{
			name:    "remove other version",
			call:    func() error { return s.RemoveAttribute(&AttributeRef{Name: "color", Version: 2}) },
			wantErr: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
			if s.Version != 1 || len(s.ChangeHistory) != 0 || len(s.Attributes) != 1 {
				t.Errorf("failed call changed state: version=%d changes=%d attributes=%d",
					s.Version, len(s.ChangeHistory), len(s.Attributes))
			}
		})
	}
}

func TestAssetSchema_HasAttribute(t *testing.T) {
	s := newAssetSchema("Car", []AttributeRef{colorV1, weightV2})

	tests := []struct {
		attribute string
		want      bool
	}{
		{attribute: "color", want: true},
		{attribute: "COLOR", want: true},
		{attribute: "weight", want: true},
		{attribute: "size", want: false},
		{attribute: "", want: false},
	}
	for _, tt := range tests {
		if got := s.HasAttribute(tt.attribute); got != tt.want {
			t.Errorf("HasAttribute(%q) = %v, want %v", tt.attribute, got, tt.want)
		}
	}
}

func TestAssetSchema_ReAddAfterRemove(t *testing.T) {
	s := newAssetSchema("Car", []AttributeRef{colorV1})
	steps := []struct {
		kind ChangeKind
		attr AttributeRef
	}{
		{ChangeDelete, colorV1},
		{ChangeAdd, weightV1},
		{ChangeAdd, colorV1},
		{ChangeDelete, weightV1},
		{ChangeAdd, weightV2},
	}
	for _, st := range steps {
		var err error
		if st.kind == ChangeAdd {
			err = s.AddAttribute(ref(st.attr))
		} else {
			err = s.RemoveAttribute(ref(st.attr))
		}
		if err != nil {
			t.Fatalf("%s %s unexpected error: %v", st.kind, st.attr, err)
		}
	}

	want := map[int][]string{
		1: {"color@1"},
		2: {},
		3: {"weight@1"},
		4: {"color@1", "weight@1"},
		5: {"color@1"},
		6: {"color@1", "weight@2"},
	}
	for v := 1; v <= s.Version; v++ {
		got, err := s.AttributesAtVersion(v)
		if err != nil {
			t.Fatalf("AttributesAtVersion(%d) unexpected error: %v", v, err)
		}
		if diff := cmp.Diff(want[v], refKeys(got)); diff != "" {
			t.Errorf("AttributesAtVersion(%d) mismatch (-want +got):\n%s", v, diff)
		}
	}
}

func TestAssetSchema_AttributesAtVersionDoesNotMutate(t *testing.T) {
	s := newAssetSchema("Car", []AttributeRef{colorV1})
	if err := s.AddAttribute(ref(weightV1)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	past, err := s.AttributesAtVersion(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	past[0] = weightV2

	current, err := s.AttributesAtVersion(2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	current[0] = weightV2

	if diff := cmp.Diff([]string{"color@1", "weight@1"}, refKeys(s.Attributes)); diff != "" {
		t.Errorf("live attributes changed (-want +got):\n%s", diff)
	}
	if s.Version != 2 || len(s.ChangeHistory) != 1 {
		t.Errorf("got version %d with %d changes, want 2 and 1", s.Version, len(s.ChangeHistory))
	}
}

func TestAssetSchemaRegistry_RegisterAndDelete(t *testing.T) {
	r := NewAssetSchemaRegistry()

	if !r.Register("Car", []AttributeRef{colorV1, colorV1}) {
		t.Fatal("first Register(Car) = false, want true")
	}
	if r.Register("CAR", []AttributeRef{weightV1}) {
		t.Error("second Register(CAR) = true, want false")
	}

	attrs, err := r.AttributesOf("car")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]string{"color@1"}, refKeys(attrs)); diff != "" {
		t.Errorf("re-registration changed attributes (-want +got):\n%s", diff)
	}

	if !r.Exists("Car") {
		t.Error("Exists(Car) = false, want true")
	}
	if !r.Delete("cAr") {
		t.Error("Delete(cAr) = false, want true")
	}
	if r.Delete("Car") {
		t.Error("second Delete(Car) = true, want false")
	}
	if r.Exists("Car") {
		t.Error("Exists(Car) after delete = true, want false")
	}
	if len(r.List()) != 0 {
		t.Errorf("List() returned %d schemas, want 0", len(r.List()))
	}

	// a deleted name starts over at version 1
	r.Register("Car", nil)
	car, err := r.Get("Car")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if car.Version != 1 || len(car.Attributes) != 0 {
		t.Errorf("re-registered Car has version %d and %d attributes, want 1 and 0", car.Version, len(car.Attributes))
	}
}
