package assetservice

import (
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/othala/internal/apperr"
	"github.com/starford/othala/internal/models"
	"github.com/starford/othala/internal/storage"
)

// Field length limits, matching what the panel's inputs allow.
const (
	maxShortText = 255
	maxMarkdown  = 65535
)

// validateCreate checks the create input and converts it into store fields.
func validateCreate(in models.AssetInput) (storage.CreateFields, error) {
	name := strings.TrimSpace(in.Name)
	if err := validation.Validate(name,
		validation.Required.Error("name is required"),
		validation.RuneLength(1, maxShortText)); err != nil {
		return storage.CreateFields{}, fmt.Errorf("%w: name: %v", apperr.ErrValidation, err)
	}
	if err := validateShortText("brand", in.Brand); err != nil {
		return storage.CreateFields{}, err
	}
	if err := validateShortText("category", in.Category); err != nil {
		return storage.CreateFields{}, err
	}
	if err := validateMarkdown("manual_md", in.ManualMD); err != nil {
		return storage.CreateFields{}, err
	}
	if err := validateMarkdown("maintenance_md", in.MaintenanceMD); err != nil {
		return storage.CreateFields{}, err
	}

	purchaseAt, _, err := parseOptionalDate(dateInputFromString(in.PurchaseAt))
	if err != nil {
		return storage.CreateFields{}, fmt.Errorf("%w: purchase_at: %v", apperr.ErrValidation, err)
	}
	warrantyUntil, _, err := parseOptionalDate(dateInputFromString(in.WarrantyUntil))
	if err != nil {
		return storage.CreateFields{}, fmt.Errorf("%w: warranty_until: %v", apperr.ErrValidation, err)
	}

	return storage.CreateFields{
		Name:          name,
		Brand:         in.Brand,
		Category:      in.Category,
		Value:         models.CoerceValue(in.Value),
		PurchaseAt:    purchaseAt,
		WarrantyUntil: warrantyUntil,
		ManualMD:      in.ManualMD,
		MaintenanceMD: in.MaintenanceMD,
	}, nil
}

// validateUpdate checks the provided fields and converts them into a patch.
func validateUpdate(in UpdateInput) (models.AssetPatch, error) {
	var patch models.AssetPatch

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if err := validation.Validate(name,
			validation.Required.Error("name cannot be empty"),
			validation.RuneLength(1, maxShortText)); err != nil {
			return models.AssetPatch{}, fmt.Errorf("%w: name: %v", apperr.ErrValidation, err)
		}
		patch.Name = &name
	}
	if in.Brand != nil {
		if err := validateShortText("brand", *in.Brand); err != nil {
			return models.AssetPatch{}, err
		}
		patch.Brand = in.Brand
	}
	if in.Category != nil {
		if err := validateShortText("category", *in.Category); err != nil {
			return models.AssetPatch{}, err
		}
		patch.Category = in.Category
	}
	if in.Value != nil {
		v := models.CoerceValue(*in.Value)
		patch.Value = &v
	}
	if in.PurchaseAt != nil {
		t, _, err := parseOptionalDate(in.PurchaseAt)
		if err != nil {
			return models.AssetPatch{}, fmt.Errorf("%w: purchase_at: %v", apperr.ErrValidation, err)
		}
		patch.PurchaseAt = &models.DateField{Time: t}
	}
	if in.WarrantyUntil != nil {
		t, _, err := parseOptionalDate(in.WarrantyUntil)
		if err != nil {
			return models.AssetPatch{}, fmt.Errorf("%w: warranty_until: %v", apperr.ErrValidation, err)
		}
		patch.WarrantyUntil = &models.DateField{Time: t}
	}
	if in.ManualMD != nil {
		if err := validateMarkdown("manual_md", *in.ManualMD); err != nil {
			return models.AssetPatch{}, err
		}
		patch.ManualMD = in.ManualMD
	}
	if in.MaintenanceMD != nil {
		if err := validateMarkdown("maintenance_md", *in.MaintenanceMD); err != nil {
			return models.AssetPatch{}, err
		}
		patch.MaintenanceMD = in.MaintenanceMD
	}

	return patch, nil
}

func validateShortText(field, value string) error {
	if err := validation.Validate(value, validation.RuneLength(0, maxShortText)); err != nil {
		return fmt.Errorf("%w: %s: %v", apperr.ErrValidation, field, err)
	}
	return nil
}

func validateMarkdown(field, value string) error {
	if err := validation.Validate(value, validation.RuneLength(0, maxMarkdown)); err != nil {
		return fmt.Errorf("%w: %s: %v", apperr.ErrValidation, field, err)
	}
	return nil
}

func dateInputFromString(s *string) *DateInput {
	if s == nil {
		return nil
	}
	return &DateInput{Value: s}
}
