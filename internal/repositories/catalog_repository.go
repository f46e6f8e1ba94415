package repositories

import (
	"context"

	"github.com/HCTatse/MF-Chaincode/internal/entities"
)

// MutateFunc changes a checked-out catalog. Returning an error discards the change.
type MutateFunc func(catalog *entities.SchemaCatalog) error

// CatalogRepository defines the interface for catalog data access.
// A catalog is stored as one opaque blob per domain.
type CatalogRepository interface {
	// Load retrieves the catalog of a domain together with its revision
	Load(ctx context.Context, domainID string) (*entities.SchemaCatalog, string, error)

	// Update checks out the catalog of a domain (an empty one if the domain is new),
	// applies fn and stores the result under a new revision. Only one Update per
	// domain runs at a time. When fn fails nothing is stored and its error is returned.
	Update(ctx context.Context, domainID string, fn MutateFunc) (string, error)

	// Delete removes the catalog of a domain
	Delete(ctx context.Context, domainID string) error

	// ListDomains returns the IDs of all stored catalogs in ascending order
	ListDomains(ctx context.Context) ([]string, error)
}
