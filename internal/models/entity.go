package models

import "time"

// Kind classifies a derived entity.
type Kind string

// Entity kinds. The field-to-kind mapping is fixed and not configurable.
const (
	KindDate   Kind = "date"
	KindText   Kind = "text"
	KindNumber Kind = "number"
)

// Entity is one derived, per-field representation of an asset, exposed to
// the host automation layer through the registry.
type Entity struct {
	EntityID string     `json:"entity_id"`
	AssetID  string     `json:"asset_id"`
	Field    string     `json:"field"`
	Kind     Kind       `json:"kind"`
	// State is the value as shown to consumers: RFC 3339 for dates, the
	// decimal form for numbers, and text truncated to TextMaxLength runes.
	State string `json:"state"`
	// Raw carries the full untruncated value for text entities.
	Raw string `json:"raw,omitempty"`
	// Expired is set on date entities whose value lies in the past.
	Expired   bool      `json:"expired,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}
