// Package objectstore stores catalogs as packed blobs in an object storage backend.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/HCTatse/MF-Chaincode/internal/entities"
	"github.com/HCTatse/MF-Chaincode/internal/infrastructure/blob"
	"github.com/HCTatse/MF-Chaincode/internal/infrastructure/storage"
	"github.com/HCTatse/MF-Chaincode/internal/repositories"
	"github.com/google/uuid"
)

const (
	keyPrefix = "catalogs/"
	keySuffix = ".catalog"
)

// CatalogRepository implements repositories.CatalogRepository on top of ObjectStorage.
// Updates are serialized per domain within the process; object stores offer no
// cross-process locking, so one writer process per bucket is assumed.
type CatalogRepository struct {
	store storage.ObjectStorage
	locks sync.Map // domainID -> *sync.Mutex
}

// NewCatalogRepository creates a new object storage catalog repository
func NewCatalogRepository(store storage.ObjectStorage) *CatalogRepository {
	return &CatalogRepository{store: store}
}

// ObjectKey returns the object path of a domain's catalog
func ObjectKey(domainID string) string {
	return keyPrefix + domainID + keySuffix
}

// Load retrieves the catalog stored for a domain
func (r *CatalogRepository) Load(ctx context.Context, domainID string) (*entities.SchemaCatalog, string, error) {
	if err := validateDomain(domainID); err != nil {
		return nil, "", err
	}
	catalog, revision, err := r.read(ctx, domainID)
	if err != nil {
		return nil, "", err
	}
	if catalog == nil {
		return nil, "", fmt.Errorf("domain %s: %w", domainID, repositories.ErrNotFound)
	}
	return catalog, revision, nil
}

// Update checks out the catalog of a domain, applies fn and writes it back
func (r *CatalogRepository) Update(ctx context.Context, domainID string, fn repositories.MutateFunc) (string, error) {
	if err := validateDomain(domainID); err != nil {
		return "", err
	}

	mu := r.lock(domainID)
	mu.Lock()
	defer mu.Unlock()

	catalog, _, err := r.read(ctx, domainID)
	if err != nil {
		return "", err
	}
	if catalog == nil {
		catalog = entities.NewSchemaCatalog()
	}

	if err := fn(catalog); err != nil {
		return "", err
	}

	doc, err := entities.MarshalCatalog(catalog)
	if err != nil {
		return "", err
	}
	revision := uuid.NewString()

	if err := r.store.Put(ctx, ObjectKey(domainID), blob.Pack(revision, doc)); err != nil {
		return "", fmt.Errorf("failed to store catalog: %w", err)
	}
	return revision, nil
}

// Delete removes the catalog of a domain
func (r *CatalogRepository) Delete(ctx context.Context, domainID string) error {
	if err := validateDomain(domainID); err != nil {
		return err
	}
	mu := r.lock(domainID)
	mu.Lock()
	defer mu.Unlock()

	key := ObjectKey(domainID)
	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to check catalog: %w", err)
	}
	if !exists {
		return fmt.Errorf("domain %s: %w", domainID, repositories.ErrNotFound)
	}

	if err := r.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("failed to delete catalog: %w", err)
	}
	return nil
}

// ListDomains returns the IDs of all stored catalogs
func (r *CatalogRepository) ListDomains(ctx context.Context) ([]string, error) {
	objects, err := r.store.ListObjects(ctx, keyPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list domains: %w", err)
	}

	domains := []string{}
	for _, obj := range objects {
		name := strings.TrimPrefix(obj, keyPrefix)
		if name == obj || !strings.HasSuffix(name, keySuffix) || strings.Contains(name, "/") {
			continue
		}
		domains = append(domains, strings.TrimSuffix(name, keySuffix))
	}
	sort.Strings(domains)
	return domains, nil
}

// read returns a nil catalog when the domain has no object
func (r *CatalogRepository) read(ctx context.Context, domainID string) (*entities.SchemaCatalog, string, error) {
	data, err := r.store.Get(ctx, ObjectKey(domainID))
	if errors.Is(err, storage.ErrObjectNotFound) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to load catalog: %w", err)
	}

	revision, doc, err := blob.Unpack(data)
	if err != nil {
		return nil, "", fmt.Errorf("domain %s: %w", domainID, errors.Join(repositories.ErrCorrupted, err))
	}
	catalog, err := entities.UnmarshalCatalog(doc)
	if err != nil {
		return nil, "", fmt.Errorf("domain %s: %w", domainID, errors.Join(repositories.ErrCorrupted, err))
	}
	return catalog, revision, nil
}

func (r *CatalogRepository) lock(domainID string) *sync.Mutex {
	mu, _ := r.locks.LoadOrStore(domainID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// validateDomain rejects IDs that would escape the catalogs/ prefix
func validateDomain(domainID string) error {
	if domainID == "" || domainID == "." || domainID == ".." || strings.ContainsAny(domainID, `/\`) {
		return fmt.Errorf("invalid domain %q: %w", domainID, entities.ErrInvalidArgument)
	}
	return nil
}
