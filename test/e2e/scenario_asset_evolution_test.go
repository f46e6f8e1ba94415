package e2e

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/HCTatse/MF-Chaincode/internal/entities"
)

// refNames returns the sorted refs; membership is a set
func refNames(refs []entities.AttributeRef) []string {
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = r.String()
	}
	sort.Strings(out)
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// TestScenario_AssetEvolution walks an asset through attribute changes and
// reads every historical version back, including after a restart.
func TestScenario_AssetEvolution(t *testing.T) {
	dir := t.TempDir()
	env := SetupLocalE2ETest(t, dir)
	defer func() { env.Teardown(t) }()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	svc := env.Service
	const domain = "fleet"

	// Test 1: attribute types and registration (version 1)
	t.Log("Test 1: Registering attribute types and the Car asset")
	for _, a := range [][2]string{{"color", "string"}, {"weight", "int"}} {
		if _, err := svc.UpsertAttributeType(ctx, domain, a[0], a[1]); err != nil {
			t.Fatalf("UpsertAttributeType(%s) failed: %v", a[0], err)
		}
	}
	created, err := svc.RegisterAssetSchema(ctx, domain, "Car", []string{"color"})
	if err != nil || !created {
		t.Fatalf("RegisterAssetSchema failed: created=%v err=%v", created, err)
	}

	// Test 2: add weight@1 (version 2)
	t.Log("Test 2: Adding weight")
	if err := svc.AddAttributeToAsset(ctx, domain, "Car", "weight"); err != nil {
		t.Fatalf("AddAttributeToAsset failed: %v", err)
	}

	// Test 3: weight changes type, the new version joins alongside the old one (version 3)
	t.Log("Test 3: Changing weight to float and adding weight@2")
	attr, err := svc.UpsertAttributeType(ctx, domain, "weight", "float")
	if err != nil {
		t.Fatalf("UpsertAttributeType failed: %v", err)
	}
	if attr.Version != 2 {
		t.Fatalf("expected weight at version 2, got %d", attr.Version)
	}
	if err := svc.AddAttributeToAsset(ctx, domain, "Car", "weight"); err != nil {
		t.Fatalf("AddAttributeToAsset failed: %v", err)
	}

	// Test 4: drop weight@1 (version 4)
	t.Log("Test 4: Removing weight@1")
	if err := svc.RemoveAttributeFromAsset(ctx, domain, "Car", "weight", 1); err != nil {
		t.Fatalf("RemoveAttributeFromAsset failed: %v", err)
	}

	want := map[int][]string{
		1: {"color@1:string"},
		2: {"color@1:string", "weight@1:int"},
		3: {"color@1:string", "weight@1:int", "weight@2:float"},
		4: {"color@1:string", "weight@2:float"},
	}

	check := func(t *testing.T, label string) {
		t.Helper()
		for version, expected := range want {
			attrs, err := env.Service.AttributesOfAssetAtVersion(ctx, domain, "car", version)
			if err != nil {
				t.Fatalf("%s: AttributesOfAssetAtVersion(%d) failed: %v", label, version, err)
			}
			if got := refNames(attrs); !equalStrings(got, expected) {
				t.Errorf("%s: version %d = %v, want %v", label, version, got, expected)
			}
		}
		if _, err := env.Service.AttributesOfAssetAtVersion(ctx, domain, "Car", 5); !errors.Is(err, entities.ErrInvalidVersion) {
			t.Errorf("%s: expected ErrInvalidVersion for version 5, got %v", label, err)
		}
		dataType, err := env.Service.DataTypeOfAtVersion(ctx, domain, "weight", 1)
		if err != nil || dataType != "int" {
			t.Errorf("%s: weight@1 = %q (err %v), want int", label, dataType, err)
		}
	}

	t.Log("Test 5: Reading every version")
	check(t, "live")

	// Test 6: a fresh service on the same directory sees the same history
	t.Log("Test 6: Reopening the store")
	env.Teardown(t)
	env = SetupLocalE2ETest(t, dir)
	check(t, "reopened")

	// Test 7: export and import into another domain
	t.Log("Test 7: Exporting and importing the catalog")
	doc, err := env.Service.ExportCatalog(ctx, domain)
	if err != nil {
		t.Fatalf("ExportCatalog failed: %v", err)
	}
	if _, err := env.Service.ImportCatalog(ctx, "fleet-copy", doc); err != nil {
		t.Fatalf("ImportCatalog failed: %v", err)
	}
	copied, err := env.Service.AttributesOfAssetAtVersion(ctx, "fleet-copy", "Car", 3)
	if err != nil {
		t.Fatalf("AttributesOfAssetAtVersion on copy failed: %v", err)
	}
	if got := refNames(copied); !equalStrings(got, want[3]) {
		t.Errorf("copy version 3 = %v, want %v", got, want[3])
	}

	domains, err := env.Service.ListDomains(ctx)
	if err != nil {
		t.Fatalf("ListDomains failed: %v", err)
	}
	if !equalStrings(domains, []string{"fleet", "fleet-copy"}) {
		t.Errorf("domains = %v, want [fleet fleet-copy]", domains)
	}
}
