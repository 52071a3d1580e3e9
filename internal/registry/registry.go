package registry

import "github.com/starford/othala/internal/models"

// EntityRegistry defines the operations the projector and command layer need
// from the derived-entity registry. Consumers should depend on this interface
// rather than the concrete *DB type to facilitate testing with mocks.
type EntityRegistry interface {
	UpsertEntities(entities []models.Entity) error
	DeleteEntities(assetID string) error
	GetEntity(entityID string) (*models.Entity, error)
	ListEntities(assetID string) ([]models.Entity, error)
	AllAssetIDs() (map[string]struct{}, error)
	Search(query string, limit int) ([]SearchHit, error)
	Close() error
}

// SearchHit is one match from a registry text search.
type SearchHit struct {
	AssetID string `json:"asset_id"`
	Field   string `json:"field"`
	Snippet string `json:"snippet"`
}

// Verify *DB satisfies EntityRegistry at compile time.
var _ EntityRegistry = (*DB)(nil)
