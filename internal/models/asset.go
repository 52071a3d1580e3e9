// Package models defines the domain types for Othala.
package models

import (
	"encoding/json"
	"math"
	"strconv"
	"time"
)

// Asset represents one tracked household asset.
type Asset struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Brand         string     `json:"brand"`
	Category      string     `json:"category"`
	Value         float64    `json:"value"`
	PurchaseAt    *time.Time `json:"purchase_at"`
	WarrantyUntil *time.Time `json:"warranty_until"`
	ManualMD      string     `json:"manual_md"`
	MaintenanceMD string     `json:"maintenance_md"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// AssetInput carries the fields accepted when creating an asset.
// Value is a json.RawMessage so that both numbers and numeric strings are
// accepted on the wire; CoerceValue applies the documented coercion rule.
type AssetInput struct {
	Name          string          `json:"name"`
	Brand         string          `json:"brand"`
	Category      string          `json:"category"`
	Value         json.RawMessage `json:"value"`
	PurchaseAt    *string         `json:"purchase_at"`
	WarrantyUntil *string         `json:"warranty_until"`
	ManualMD      string          `json:"manual_md"`
	MaintenanceMD string          `json:"maintenance_md"`
}

// AssetPatch is a partial update: only non-nil fields are applied.
// Date fields distinguish "not provided" (nil pointer) from "clear the
// date" (pointer to nil time) via the DateField wrapper.
type AssetPatch struct {
	Name          *string
	Brand         *string
	Category      *string
	Value         *float64
	PurchaseAt    *DateField
	WarrantyUntil *DateField
	ManualMD      *string
	MaintenanceMD *string
}

// DateField wraps an optional date value inside a patch. A non-nil
// DateField with a nil Time clears the stored date.
type DateField struct {
	Time *time.Time
}

// CoerceValue parses a raw JSON value into a float64 following the
// record-keeper's coercion rule: numbers pass through, numeric strings are
// parsed, anything else (including NaN/Inf and malformed input) becomes 0.
func CoerceValue(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return finiteOrZero(f)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return finiteOrZero(f)
		}
	}
	return 0
}

func finiteOrZero(f float64) float64 {
	// NaN and Inf are not representable in the wire shape.
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
