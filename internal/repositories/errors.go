package repositories

import (
	"errors"
	"fmt"

	"github.com/HCTatse/MF-Chaincode/internal/entities"
)

var (
	// ErrNotFound is returned when no catalog is stored for a domain.
	// It also matches entities.ErrNotFound.
	ErrNotFound = fmt.Errorf("catalog %w", entities.ErrNotFound)

	// ErrCorrupted is returned when a stored catalog cannot be decoded or fails its checksum
	ErrCorrupted = errors.New("catalog corrupted")
)
