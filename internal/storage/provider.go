// Package storage owns the authoritative asset record collection.
package storage

import (
	"time"

	"github.com/starford/othala/internal/models"
)

// CreateFields carries the already-validated field values for a new record.
type CreateFields struct {
	Name          string
	Brand         string
	Category      string
	Value         float64
	PurchaseAt    *time.Time
	WarrantyUntil *time.Time
	ManualMD      string
	MaintenanceMD string
}

// Provider is the interface for record store operations. Each successful
// mutation persists the full collection before returning (write-through).
type Provider interface {
	// List returns all live records in insertion order.
	List() []models.Asset
	// Get returns the record with the given id, or apperr.ErrNotFound.
	Get(id string) (models.Asset, error)
	// Create assigns a fresh id, persists, and returns the new record.
	Create(fields CreateFields) (models.Asset, error)
	// Update merges the non-nil patch fields over the existing record.
	Update(id string, patch models.AssetPatch) (models.Asset, error)
	// Delete removes the record with the given id.
	Delete(id string) error
	// Checksum returns the digest of the last persisted document.
	Checksum() string
	// Reload re-reads the document from disk, replacing in-memory state.
	Reload() error
}
