package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/HCTatse/MF-Chaincode/internal/entities"
	"github.com/HCTatse/MF-Chaincode/internal/infrastructure/blob"
	"github.com/HCTatse/MF-Chaincode/internal/repositories"
	"github.com/google/uuid"
)

// CatalogChangedChannel is the NOTIFY channel written on every catalog change.
// The payload is the domain ID.
const CatalogChangedChannel = "catalog_changed"

// PostgresCatalogRepository implements CatalogRepository using PostgreSQL
type PostgresCatalogRepository struct {
	db *sql.DB
}

// NewPostgresCatalogRepository creates a new PostgreSQL catalog repository
func NewPostgresCatalogRepository(db *sql.DB) repositories.CatalogRepository {
	return &PostgresCatalogRepository{db: db}
}

// Load retrieves the catalog stored for a domain
func (r *PostgresCatalogRepository) Load(ctx context.Context, domainID string) (*entities.SchemaCatalog, string, error) {
	query := `
		SELECT payload, checksum, revision
		FROM schema_catalogs
		WHERE domain_id = $1
	`
	var payload []byte
	var checksum int64
	var revision string

	err := r.db.QueryRowContext(ctx, query, domainID).Scan(&payload, &checksum, &revision)
	if err == sql.ErrNoRows {
		return nil, "", fmt.Errorf("domain %s: %w", domainID, repositories.ErrNotFound)
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to load catalog: %w", err)
	}

	catalog, err := decodeCatalog(payload, checksum)
	if err != nil {
		return nil, "", fmt.Errorf("domain %s: %w", domainID, err)
	}
	return catalog, revision, nil
}

// Update checks out the catalog of a domain inside a transaction, applies fn and
// writes it back. A transaction-scoped advisory lock on the domain serializes
// concurrent updates, including the ones that create the catalog.
func (r *PostgresCatalogRepository) Update(ctx context.Context, domainID string, fn repositories.MutateFunc) (string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, domainID); err != nil {
		return "", fmt.Errorf("failed to lock catalog: %w", err)
	}

	catalog, exists, err := r.checkout(ctx, tx, domainID)
	if err != nil {
		return "", err
	}

	if err := fn(catalog); err != nil {
		return "", err
	}

	doc, err := entities.MarshalCatalog(catalog)
	if err != nil {
		return "", err
	}
	payload, checksum := blob.Encode(doc)
	revision := uuid.NewString()
	now := time.Now()

	if exists {
		_, err = tx.ExecContext(ctx, `
			UPDATE schema_catalogs
			SET format_version = $1, payload = $2, checksum = $3, revision = $4, updated_at = $5
			WHERE domain_id = $6
		`, entities.CatalogFormatVersion, payload, int64(checksum), revision, now, domainID)
	} else {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO schema_catalogs (domain_id, format_version, payload, checksum, revision, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, domainID, entities.CatalogFormatVersion, payload, int64(checksum), revision, now, now)
	}
	if err != nil {
		return "", fmt.Errorf("failed to store catalog: %w", err)
	}

	if err := notifyChanged(ctx, tx, domainID); err != nil {
		return "", err
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}
	return revision, nil
}

// Delete removes the catalog of a domain
func (r *PostgresCatalogRepository) Delete(ctx context.Context, domainID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `DELETE FROM schema_catalogs WHERE domain_id = $1`, domainID)
	if err != nil {
		return fmt.Errorf("failed to delete catalog: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("domain %s: %w", domainID, repositories.ErrNotFound)
	}

	if err := notifyChanged(ctx, tx, domainID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListDomains returns the IDs of all stored catalogs
func (r *PostgresCatalogRepository) ListDomains(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT domain_id FROM schema_catalogs ORDER BY domain_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list domains: %w", err)
	}
	defer rows.Close()

	domains := []string{}
	for rows.Next() {
		var domainID string
		if err := rows.Scan(&domainID); err != nil {
			return nil, fmt.Errorf("failed to scan domain: %w", err)
		}
		domains = append(domains, domainID)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating domains: %w", err)
	}

	return domains, nil
}

// checkout reads the catalog row for update, returning an empty catalog when the domain is new
func (r *PostgresCatalogRepository) checkout(ctx context.Context, tx *sql.Tx, domainID string) (*entities.SchemaCatalog, bool, error) {
	var payload []byte
	var checksum int64

	err := tx.QueryRowContext(ctx, `
		SELECT payload, checksum
		FROM schema_catalogs
		WHERE domain_id = $1
		FOR UPDATE
	`, domainID).Scan(&payload, &checksum)
	if err == sql.ErrNoRows {
		return entities.NewSchemaCatalog(), false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to check out catalog: %w", err)
	}

	catalog, err := decodeCatalog(payload, checksum)
	if err != nil {
		return nil, false, fmt.Errorf("domain %s: %w", domainID, err)
	}
	return catalog, true, nil
}

func decodeCatalog(payload []byte, checksum int64) (*entities.SchemaCatalog, error) {
	doc, err := blob.Decode(payload, uint64(checksum))
	if err != nil {
		return nil, errors.Join(repositories.ErrCorrupted, err)
	}
	catalog, err := entities.UnmarshalCatalog(doc)
	if err != nil {
		return nil, errors.Join(repositories.ErrCorrupted, err)
	}
	return catalog, nil
}

func notifyChanged(ctx context.Context, tx *sql.Tx, domainID string) error {
	if _, err := tx.ExecContext(ctx, `SELECT pg_notify($1, $2)`, CatalogChangedChannel, domainID); err != nil {
		return fmt.Errorf("failed to notify catalog change: %w", err)
	}
	return nil
}
