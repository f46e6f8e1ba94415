package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/HCTatse/MF-Chaincode/internal/entities"
	"github.com/HCTatse/MF-Chaincode/internal/infrastructure/metrics"
	"github.com/HCTatse/MF-Chaincode/internal/repositories"
	"github.com/HCTatse/MF-Chaincode/internal/services/parser"
	"github.com/HCTatse/MF-Chaincode/pkg/cache"
	"go.uber.org/zap"
)

// CatalogServiceInterface defines the interface for schema catalog operations
type CatalogServiceInterface interface {
	ListUnits(ctx context.Context, domainID string) ([]string, error)
	AddUnit(ctx context.Context, domainID, unit string) error

	ListAttributeTypes(ctx context.Context, domainID string) ([]*entities.AttributeType, error)
	GetAttributeType(ctx context.Context, domainID, attribute string) (*entities.AttributeType, error)
	DataTypeOf(ctx context.Context, domainID, attribute string) (string, error)
	DataTypeOfAtVersion(ctx context.Context, domainID, attribute string, version int) (string, error)
	AttributeTypeExists(ctx context.Context, domainID, attribute string) (bool, error)
	UpsertAttributeType(ctx context.Context, domainID, attribute, dataType string) (*entities.AttributeType, error)

	ListAssetSchemas(ctx context.Context, domainID string) ([]*entities.AssetSchema, error)
	AssetSchemaExists(ctx context.Context, domainID, asset string) (bool, error)
	RegisterAssetSchema(ctx context.Context, domainID, asset string, attributes []string) (bool, error)
	DeleteAssetSchema(ctx context.Context, domainID, asset string) (bool, error)
	AttributesOfAsset(ctx context.Context, domainID, asset string) ([]entities.AttributeRef, error)
	AttributesOfAssetAtVersion(ctx context.Context, domainID, asset string, version int) ([]entities.AttributeRef, error)
	AssetHasAttribute(ctx context.Context, domainID, asset, attribute string) (bool, error)
	AddAttributeToAsset(ctx context.Context, domainID, asset, attribute string) error
	RemoveAttributeFromAsset(ctx context.Context, domainID, asset, attribute string, version int) error

	ExportCatalog(ctx context.Context, domainID string) ([]byte, error)
	ImportCatalog(ctx context.Context, domainID string, doc []byte) (string, error)
	DeleteCatalog(ctx context.Context, domainID string) error
	ApplyDefinition(ctx context.Context, domainID, source string) (*parser.ApplyResult, error)
	ExportDefinition(ctx context.Context, domainID string) (string, error)
	ListDomains(ctx context.Context) ([]string, error)
}

// cachedCatalog is the cache entry of one domain
type cachedCatalog struct {
	doc      []byte
	revision string
}

// CatalogService runs catalog queries and mutations against a CatalogRepository.
// Every mutation is one check-out/mutate/check-in transaction, so a failing
// operation leaves the stored catalog unchanged.
type CatalogService struct {
	repo      repositories.CatalogRepository
	cache     cache.Cache
	cacheTTL  time.Duration

	// fillMu orders cache fills against invalidations. A fill is dropped when
	// the domain was invalidated after its repository load started.
	fillMu      sync.Mutex
	generations map[string]uint64
	collector *metrics.Collector
	exporter  *metrics.PrometheusExporter
	logger    *zap.Logger
}

// Option configures a CatalogService
type Option func(*CatalogService)

// WithCache caches encoded catalogs per domain. A zero ttl uses the cache default.
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(s *CatalogService) {
		s.cache = c
		s.cacheTTL = ttl
	}
}

// WithMetrics records every operation on the collector and exporter
func WithMetrics(collector *metrics.Collector, exporter *metrics.PrometheusExporter) Option {
	return func(s *CatalogService) {
		s.collector = collector
		s.exporter = exporter
	}
}

// WithLogger sets the structured logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *CatalogService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewCatalogService creates a new CatalogService
func NewCatalogService(repo repositories.CatalogRepository, opts ...Option) *CatalogService {
	s := &CatalogService{
		repo:        repo,
		logger:      zap.NewNop(),
		generations: make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListUnits returns the declared unit labels of a domain
func (s *CatalogService) ListUnits(ctx context.Context, domainID string) ([]string, error) {
	var units []string
	err := s.read(ctx, "ListUnits", domainID, func(c *entities.SchemaCatalog) error {
		units = c.ListUnits()
		return nil
	})
	return units, err
}

// AddUnit appends a unit label
func (s *CatalogService) AddUnit(ctx context.Context, domainID, unit string) error {
	return s.mutate(ctx, "AddUnit", domainID, func(c *entities.SchemaCatalog) error {
		c.AddUnit(unit)
		return nil
	})
}

// ListAttributeTypes returns all attribute types in registration order
func (s *CatalogService) ListAttributeTypes(ctx context.Context, domainID string) ([]*entities.AttributeType, error) {
	var types []*entities.AttributeType
	err := s.read(ctx, "ListAttributeTypes", domainID, func(c *entities.SchemaCatalog) error {
		types = c.ListAttributeTypes()
		return nil
	})
	return types, err
}

// GetAttributeType returns one attribute type with its data type history
func (s *CatalogService) GetAttributeType(ctx context.Context, domainID, attribute string) (*entities.AttributeType, error) {
	var attr *entities.AttributeType
	err := s.read(ctx, "GetAttributeType", domainID, func(c *entities.SchemaCatalog) error {
		var err error
		attr, err = c.AttributeTypes.Get(attribute)
		return err
	})
	return attr, err
}

// DataTypeOf returns the current data type of an attribute
func (s *CatalogService) DataTypeOf(ctx context.Context, domainID, attribute string) (string, error) {
	var dataType string
	err := s.read(ctx, "DataTypeOf", domainID, func(c *entities.SchemaCatalog) error {
		var err error
		dataType, err = c.DataTypeOf(attribute)
		return err
	})
	return dataType, err
}

// DataTypeOfAtVersion returns the data type an attribute had at a past version
func (s *CatalogService) DataTypeOfAtVersion(ctx context.Context, domainID, attribute string, version int) (string, error) {
	var dataType string
	err := s.read(ctx, "DataTypeOfAtVersion", domainID, func(c *entities.SchemaCatalog) error {
		var err error
		dataType, err = c.DataTypeOfAtVersion(attribute, version)
		return err
	})
	return dataType, err
}

// AttributeTypeExists reports whether an attribute type is registered
func (s *CatalogService) AttributeTypeExists(ctx context.Context, domainID, attribute string) (bool, error) {
	var exists bool
	err := s.read(ctx, "AttributeTypeExists", domainID, func(c *entities.SchemaCatalog) error {
		exists = c.AttributeTypeExists(attribute)
		return nil
	})
	return exists, err
}

// UpsertAttributeType creates an attribute type or changes its data type
func (s *CatalogService) UpsertAttributeType(ctx context.Context, domainID, attribute, dataType string) (*entities.AttributeType, error) {
	var result *entities.AttributeType
	err := s.mutate(ctx, "UpsertAttributeType", domainID, func(c *entities.SchemaCatalog) error {
		attr, err := c.UpsertAttributeType(attribute, dataType)
		if err != nil {
			return err
		}
		result = attr
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ListAssetSchemas returns all asset schemas in registration order
func (s *CatalogService) ListAssetSchemas(ctx context.Context, domainID string) ([]*entities.AssetSchema, error) {
	var schemas []*entities.AssetSchema
	err := s.read(ctx, "ListAssetSchemas", domainID, func(c *entities.SchemaCatalog) error {
		schemas = c.ListAssetSchemas()
		return nil
	})
	return schemas, err
}

// AssetSchemaExists reports whether an asset schema is registered
func (s *CatalogService) AssetSchemaExists(ctx context.Context, domainID, asset string) (bool, error) {
	var exists bool
	err := s.read(ctx, "AssetSchemaExists", domainID, func(c *entities.SchemaCatalog) error {
		exists = c.AssetSchemaExists(asset)
		return nil
	})
	return exists, err
}

// RegisterAssetSchema registers an asset with its initial attributes.
// It returns false without storing anything when the asset already exists.
func (s *CatalogService) RegisterAssetSchema(ctx context.Context, domainID, asset string, attributes []string) (bool, error) {
	return s.mutateIfChanged(ctx, "RegisterAssetSchema", domainID, func(c *entities.SchemaCatalog) error {
		created, err := c.RegisterAssetSchema(asset, attributes)
		if err != nil {
			return err
		}
		if !created {
			return errUnchanged
		}
		return nil
	})
}

// DeleteAssetSchema removes an asset schema together with its history
func (s *CatalogService) DeleteAssetSchema(ctx context.Context, domainID, asset string) (bool, error) {
	return s.mutateIfChanged(ctx, "DeleteAssetSchema", domainID, func(c *entities.SchemaCatalog) error {
		if !c.DeleteAssetSchema(asset) {
			return errUnchanged
		}
		return nil
	})
}

// AttributesOfAsset returns the current attributes of an asset
func (s *CatalogService) AttributesOfAsset(ctx context.Context, domainID, asset string) ([]entities.AttributeRef, error) {
	var attrs []entities.AttributeRef
	err := s.read(ctx, "AttributesOfAsset", domainID, func(c *entities.SchemaCatalog) error {
		var err error
		attrs, err = c.AttributesOfAsset(asset)
		return err
	})
	return attrs, err
}

// AttributesOfAssetAtVersion returns the attributes an asset had at a past version
func (s *CatalogService) AttributesOfAssetAtVersion(ctx context.Context, domainID, asset string, version int) ([]entities.AttributeRef, error) {
	var attrs []entities.AttributeRef
	err := s.read(ctx, "AttributesOfAssetAtVersion", domainID, func(c *entities.SchemaCatalog) error {
		var err error
		attrs, err = c.AttributesOfAssetAtVersion(asset, version)
		return err
	})
	return attrs, err
}

// AssetHasAttribute reports whether any version of an attribute is a current member of an asset
func (s *CatalogService) AssetHasAttribute(ctx context.Context, domainID, asset, attribute string) (bool, error) {
	var has bool
	err := s.read(ctx, "AssetHasAttribute", domainID, func(c *entities.SchemaCatalog) error {
		var err error
		has, err = c.AssetHasAttribute(asset, attribute)
		return err
	})
	return has, err
}

// AddAttributeToAsset adds the current version of an attribute to an asset
func (s *CatalogService) AddAttributeToAsset(ctx context.Context, domainID, asset, attribute string) error {
	return s.mutate(ctx, "AddAttributeToAsset", domainID, func(c *entities.SchemaCatalog) error {
		return c.AddAttributeToAsset(asset, attribute)
	})
}

// RemoveAttributeFromAsset removes one version of an attribute from an asset.
// Version 0 means the attribute type's current version.
func (s *CatalogService) RemoveAttributeFromAsset(ctx context.Context, domainID, asset, attribute string, version int) error {
	return s.mutate(ctx, "RemoveAttributeFromAsset", domainID, func(c *entities.SchemaCatalog) error {
		return c.RemoveAttributeFromAsset(asset, attribute, version)
	})
}

// ExportCatalog returns the catalog document of a domain
func (s *CatalogService) ExportCatalog(ctx context.Context, domainID string) ([]byte, error) {
	var doc []byte
	err := metrics.Observe(s.collector, s.exporter, "ExportCatalog", func() error {
		if err := validateDomain(domainID); err != nil {
			return err
		}
		entry, err := s.load(ctx, domainID)
		if err != nil {
			return err
		}
		doc = entry.doc
		return nil
	})
	return doc, err
}

// ImportCatalog replaces the catalog of a domain with a decoded document
func (s *CatalogService) ImportCatalog(ctx context.Context, domainID string, doc []byte) (string, error) {
	imported, err := entities.UnmarshalCatalog(doc)
	if err != nil {
		s.logger.Warn("catalog import rejected", zap.String("domain", domainID), zap.Error(err))
		return "", err
	}

	var revision string
	err = metrics.Observe(s.collector, s.exporter, "ImportCatalog", func() error {
		var err error
		revision, err = s.update(ctx, "ImportCatalog", domainID, func(c *entities.SchemaCatalog) error {
			*c = *imported
			return nil
		})
		return err
	})
	return revision, err
}

// DeleteCatalog removes the catalog of a domain
func (s *CatalogService) DeleteCatalog(ctx context.Context, domainID string) error {
	return metrics.Observe(s.collector, s.exporter, "DeleteCatalog", func() error {
		if err := validateDomain(domainID); err != nil {
			return err
		}
		if err := s.repo.Delete(ctx, domainID); err != nil {
			return fmt.Errorf("failed to delete catalog: %w", err)
		}
		s.invalidate(ctx, domainID)
		s.logger.Info("catalog deleted", zap.String("domain", domainID))
		return nil
	})
}

// ApplyDefinition brings the catalog of a domain in line with definition source.
// The source is parsed and validated before the catalog is touched; a definition
// that changes nothing writes nothing.
func (s *CatalogService) ApplyDefinition(ctx context.Context, domainID, source string) (*parser.ApplyResult, error) {
	def, err := parser.Parse(source)
	if err != nil {
		s.logger.Warn("definition rejected", zap.String("domain", domainID), zap.Error(err))
		return nil, err
	}

	var result *parser.ApplyResult
	_, err = s.mutateIfChanged(ctx, "ApplyDefinition", domainID, func(c *entities.SchemaCatalog) error {
		applied, err := parser.Apply(def, c)
		if err != nil {
			return err
		}
		result = applied
		if !applied.Changed() {
			return errUnchanged
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ExportDefinition renders the current state of a domain's catalog as definition source
func (s *CatalogService) ExportDefinition(ctx context.Context, domainID string) (string, error) {
	var source string
	err := s.read(ctx, "ExportDefinition", domainID, func(c *entities.SchemaCatalog) error {
		var err error
		source, err = parser.NewGenerator().Generate(parser.CatalogToAST(c))
		return err
	})
	return source, err
}

// ListDomains returns the IDs of all stored catalogs
func (s *CatalogService) ListDomains(ctx context.Context) ([]string, error) {
	var domains []string
	err := metrics.Observe(s.collector, s.exporter, "ListDomains", func() error {
		var err error
		domains, err = s.repo.ListDomains(ctx)
		return err
	})
	return domains, err
}

// errUnchanged aborts a mutation that turned out to be a no-op, so nothing is written
var errUnchanged = errors.New("catalog unchanged")

// read runs fn on the catalog of a domain. A domain without a stored catalog reads as empty.
func (s *CatalogService) read(ctx context.Context, method, domainID string, fn func(*entities.SchemaCatalog) error) error {
	return metrics.Observe(s.collector, s.exporter, method, func() error {
		if err := validateDomain(domainID); err != nil {
			return err
		}

		entry, err := s.load(ctx, domainID)
		if errors.Is(err, repositories.ErrNotFound) {
			return fn(entities.NewSchemaCatalog())
		}
		if err != nil {
			return err
		}

		catalog, err := entities.UnmarshalCatalog(entry.doc)
		if err != nil {
			return fmt.Errorf("failed to decode cached catalog: %w", err)
		}
		return fn(catalog)
	})
}

// mutate applies fn as one catalog transaction
func (s *CatalogService) mutate(ctx context.Context, method, domainID string, fn repositories.MutateFunc) error {
	_, err := s.mutateIfChanged(ctx, method, domainID, fn)
	return err
}

// mutateIfChanged is mutate for operations that may turn out to be no-ops.
// fn returns errUnchanged to abort without writing; the result is then false.
func (s *CatalogService) mutateIfChanged(ctx context.Context, method, domainID string, fn repositories.MutateFunc) (bool, error) {
	written := false
	err := metrics.Observe(s.collector, s.exporter, method, func() error {
		_, err := s.update(ctx, method, domainID, fn)
		if errors.Is(err, errUnchanged) {
			return nil
		}
		if err != nil {
			return err
		}
		written = true
		return nil
	})
	return written, err
}

func (s *CatalogService) update(ctx context.Context, method, domainID string, fn repositories.MutateFunc) (string, error) {
	if err := validateDomain(domainID); err != nil {
		return "", err
	}

	revision, err := s.repo.Update(ctx, domainID, fn)
	if errors.Is(err, errUnchanged) {
		return "", err
	}
	if err != nil {
		s.logger.Warn("catalog mutation failed",
			zap.String("method", method),
			zap.String("domain", domainID),
			zap.Error(err))
		return "", err
	}

	s.invalidate(ctx, domainID)
	s.logger.Info("catalog updated",
		zap.String("method", method),
		zap.String("domain", domainID),
		zap.String("revision", revision))
	return revision, nil
}

// load returns the encoded catalog of a domain, from the cache when possible
func (s *CatalogService) load(ctx context.Context, domainID string) (*cachedCatalog, error) {
	key := cache.CatalogKey(domainID)
	if s.cache != nil {
		if value, found := s.cache.Get(ctx, key); found {
			if entry, ok := value.(*cachedCatalog); ok {
				if s.exporter != nil {
					s.exporter.RecordCacheHit()
				}
				return entry, nil
			}
		}
		if s.exporter != nil {
			s.exporter.RecordCacheMiss()
		}
	}

	generation := s.generation(domainID)
	catalog, revision, err := s.repo.Load(ctx, domainID)
	if err != nil {
		return nil, err
	}
	doc, err := entities.MarshalCatalog(catalog)
	if err != nil {
		return nil, err
	}
	entry := &cachedCatalog{doc: doc, revision: revision}

	if s.cache != nil {
		s.fill(ctx, domainID, generation, entry)
	}
	return entry, nil
}

func (s *CatalogService) generation(domainID string) uint64 {
	s.fillMu.Lock()
	defer s.fillMu.Unlock()
	return s.generations[domainID]
}

// fill caches entry unless domainID was invalidated since generation was read
func (s *CatalogService) fill(ctx context.Context, domainID string, generation uint64, entry *cachedCatalog) {
	s.fillMu.Lock()
	defer s.fillMu.Unlock()
	if s.generations[domainID] != generation {
		s.logger.Debug("dropped stale catalog load",
			zap.String("domain", domainID),
			zap.String("revision", entry.revision))
		return
	}
	if err := s.cache.Set(ctx, cache.CatalogKey(domainID), entry, s.cacheTTL); err != nil {
		s.logger.Warn("failed to cache catalog", zap.String("domain", domainID), zap.Error(err))
	}
}

// invalidate evicts the cached catalog of a domain and voids loads still in flight
func (s *CatalogService) invalidate(ctx context.Context, domainID string) {
	if s.cache == nil {
		return
	}
	s.fillMu.Lock()
	defer s.fillMu.Unlock()
	s.generations[domainID]++
	if err := s.cache.Delete(ctx, cache.CatalogKey(domainID)); err != nil {
		s.logger.Warn("failed to invalidate catalog", zap.String("domain", domainID), zap.Error(err))
	}
}

func validateDomain(domainID string) error {
	if domainID == "" {
		return fmt.Errorf("domain ID is required: %w", entities.ErrInvalidArgument)
	}
	return nil
}
