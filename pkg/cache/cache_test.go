package cache

import "testing"

func TestStats_HitRate(t *testing.T) {
	tests := []struct {
		name  string
		stats Stats
		want  float64
	}{
		{name: "no lookups", stats: Stats{Stores: 3}, want: 0},
		{name: "all hits", stats: Stats{Hits: 4}, want: 1},
		{name: "mixed", stats: Stats{Hits: 3, Misses: 1}, want: 0.75},
		{name: "all misses", stats: Stats{Misses: 2}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.stats.HitRate(); got != tt.want {
				t.Errorf("HitRate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCatalogKey(t *testing.T) {
	if got := CatalogKey("fleet"); got != "catalog:fleet" {
		t.Errorf("CatalogKey() = %q", got)
	}
	if CatalogKey("a") == CatalogKey("A") {
		t.Error("domain IDs are case-sensitive")
	}
}
