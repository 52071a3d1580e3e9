package api

import (
	"encoding/json"

	"github.com/starford/othala/internal/models"
)

// CreateAssetRequest is the request body for creating an asset. Value
// accepts either a JSON number or a numeric string; invalid values coerce
// to 0.
type CreateAssetRequest = models.AssetInput

// UpdateAssetRequest is the request body for updating an asset. Every field
// is optional; raw messages distinguish "absent" from an explicit null so
// that dates can be cleared.
type UpdateAssetRequest struct {
	Name          json.RawMessage `json:"name"`
	Brand         json.RawMessage `json:"brand"`
	Category      json.RawMessage `json:"category"`
	Value         json.RawMessage `json:"value"`
	PurchaseAt    json.RawMessage `json:"purchase_at"`
	WarrantyUntil json.RawMessage `json:"warranty_until"`
	ManualMD      json.RawMessage `json:"manual_md"`
	MaintenanceMD json.RawMessage `json:"maintenance_md"`
}

// AssetListResponse wraps the full asset listing.
type AssetListResponse struct {
	Assets []models.Asset `json:"assets"`
}

// EntityListResponse wraps an asset's derived entities.
type EntityListResponse struct {
	Entities []models.Entity `json:"entities"`
}

// SearchResponse wraps text-search results for the panel table.
type SearchResponse struct {
	Assets []models.Asset `json:"assets"`
}

// DeleteResponse acknowledges a delete command.
type DeleteResponse struct {
	Deleted bool `json:"deleted"`
}
