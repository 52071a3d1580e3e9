// Package projector derives per-field entities from asset records and keeps
// the registry synchronized with the record store.
package projector

import (
	"strconv"
	"time"

	"github.com/starford/othala/internal/models"
)

// Namespace prefixes every derived entity id. Consumers treat the resulting
// ids as stable keys, so the construction must never change for a live asset.
const Namespace = "othala"

// Asset field names, also used as the entity id suffix.
const (
	FieldName          = "name"
	FieldPurchaseAt    = "purchase_at"
	FieldWarrantyUntil = "warranty_until"
	FieldBrand         = "brand"
	FieldCategory      = "category"
	FieldManualMD      = "manual_md"
	FieldMaintenanceMD = "maintenance_md"
	FieldValue         = "value"
)

// TextMaxLength caps the state of a text entity; the full content stays in
// the entity's raw field.
const TextMaxLength = 255

// Fields lists the seven projected fields in their fixed order.
var Fields = []string{
	FieldPurchaseAt,
	FieldWarrantyUntil,
	FieldBrand,
	FieldCategory,
	FieldManualMD,
	FieldMaintenanceMD,
	FieldValue,
}

// KindOf returns the fixed kind for a projected field.
func KindOf(field string) models.Kind {
	switch field {
	case FieldPurchaseAt, FieldWarrantyUntil:
		return models.KindDate
	case FieldValue:
		return models.KindNumber
	default:
		return models.KindText
	}
}

// EntityID deterministically computes a derived entity id from the record id
// and field name.
func EntityID(assetID, field string) string {
	return Namespace + "_" + assetID + "_" + field
}

// Project maps an asset onto its seven derived entities. It is a pure
// function of the record (and now, which only feeds the expired flag).
func Project(a models.Asset, now time.Time) []models.Entity {
	out := make([]models.Entity, 0, len(Fields))
	for _, field := range Fields {
		e := models.Entity{
			EntityID:  EntityID(a.ID, field),
			AssetID:   a.ID,
			Field:     field,
			Kind:      KindOf(field),
			UpdatedAt: a.UpdatedAt,
		}
		switch field {
		case FieldPurchaseAt:
			e.State = dateState(a.PurchaseAt)
		case FieldWarrantyUntil:
			e.State = dateState(a.WarrantyUntil)
			// The expired flag is only meaningful for the warranty date;
			// the panel renders it as the warranty status.
			e.Expired = a.WarrantyUntil != nil && a.WarrantyUntil.Before(now)
		case FieldBrand:
			e.State, e.Raw = textState(a.Brand)
		case FieldCategory:
			e.State, e.Raw = textState(a.Category)
		case FieldManualMD:
			e.State, e.Raw = textState(a.ManualMD)
		case FieldMaintenanceMD:
			e.State, e.Raw = textState(a.MaintenanceMD)
		case FieldValue:
			e.State = strconv.FormatFloat(a.Value, 'f', -1, 64)
		}
		out = append(out, e)
	}
	return out
}

// dateState renders a date as RFC 3339 UTC, or "" when the date is absent.
// The registry stores "" for a date kind as NULL.
func dateState(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// textState truncates to TextMaxLength runes for the state while keeping the
// full content as raw.
func textState(s string) (state, raw string) {
	runes := []rune(s)
	if len(runes) > TextMaxLength {
		return string(runes[:TextMaxLength]), s
	}
	return s, s
}
