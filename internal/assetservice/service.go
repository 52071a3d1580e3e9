// Package assetservice implements the command layer: it validates input,
// mutates the record store, and triggers the entity projection.
package assetservice

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/starford/othala/internal/models"
	"github.com/starford/othala/internal/projector"
	"github.com/starford/othala/internal/registry"
	"github.com/starford/othala/internal/storage"
)

// Service coordinates the record store and the entity registry.
type Service struct {
	store  storage.Provider
	reg    registry.EntityRegistry
	logger *slog.Logger
	notify func(kind, assetID string)
}

// NewService creates a new asset service.
func NewService(store storage.Provider, reg registry.EntityRegistry, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, reg: reg, logger: logger}
}

// OnChange registers a callback invoked after every successful mutation.
// kind is one of "created", "updated", "deleted".
func (s *Service) OnChange(fn func(kind, assetID string)) {
	s.notify = fn
}

// List returns all live records in insertion order.
func (s *Service) List(_ context.Context) []models.Asset {
	return s.store.List()
}

// Get returns one record by id.
func (s *Service) Get(_ context.Context, id string) (models.Asset, error) {
	return s.store.Get(id)
}

// Create validates the input, persists a new record, and projects its
// entities. A projection failure is returned to the caller but the committed
// record is kept; the registry heals on the next resync.
func (s *Service) Create(_ context.Context, in models.AssetInput) (models.Asset, error) {
	fields, err := validateCreate(in)
	if err != nil {
		return models.Asset{}, err
	}

	asset, err := s.store.Create(fields)
	if err != nil {
		return models.Asset{}, err
	}
	s.logger.Info("created asset",
		slog.String("asset_id", asset.ID),
		slog.String("name", asset.Name))

	if err := projector.SyncUpsert(s.reg, asset); err != nil {
		s.logger.Warn("projection failed after create",
			slog.String("asset_id", asset.ID),
			slog.String("error", err.Error()))
		return models.Asset{}, err
	}
	s.emit("created", asset.ID)
	return asset, nil
}

// UpdateInput carries the optional per-field changes for an update command.
// A nil field is "not provided"; a DateInput with a nil Value clears the date.
type UpdateInput struct {
	Name          *string
	Brand         *string
	Category      *string
	Value         *json.RawMessage
	PurchaseAt    *DateInput
	WarrantyUntil *DateInput
	ManualMD      *string
	MaintenanceMD *string
}

// DateInput is a provided date field: either a date string or an explicit
// null (clear).
type DateInput struct {
	Value *string
}

// Update merges the provided fields over the existing record and re-projects.
func (s *Service) Update(_ context.Context, id string, in UpdateInput) (models.Asset, error) {
	patch, err := validateUpdate(in)
	if err != nil {
		return models.Asset{}, err
	}

	asset, err := s.store.Update(id, patch)
	if err != nil {
		return models.Asset{}, err
	}
	s.logger.Debug("updated asset", slog.String("asset_id", asset.ID))

	if err := projector.SyncUpsert(s.reg, asset); err != nil {
		s.logger.Warn("projection failed after update",
			slog.String("asset_id", asset.ID),
			slog.String("error", err.Error()))
		return models.Asset{}, err
	}
	s.emit("updated", asset.ID)
	return asset, nil
}

// Delete removes the record and its seven derived entities.
func (s *Service) Delete(_ context.Context, id string) error {
	if err := s.store.Delete(id); err != nil {
		return err
	}
	s.logger.Info("deleted asset", slog.String("asset_id", id))

	if err := projector.SyncDelete(s.reg, id); err != nil {
		s.logger.Warn("projection cleanup failed after delete",
			slog.String("asset_id", id),
			slog.String("error", err.Error()))
		return err
	}
	s.emit("deleted", id)
	return nil
}

// Entities returns the derived entities for one asset.
func (s *Service) Entities(_ context.Context, id string) ([]models.Entity, error) {
	if _, err := s.store.Get(id); err != nil {
		return nil, err
	}
	return s.reg.ListEntities(id)
}

// Search delegates a text search to the registry and resolves the hits back
// to their records.
func (s *Service) Search(_ context.Context, query string, limit int) ([]models.Asset, error) {
	hits, err := s.reg.Search(query, limit)
	if err != nil {
		return nil, err
	}
	seen := map[string]struct{}{}
	var out []models.Asset
	for _, h := range hits {
		if _, ok := seen[h.AssetID]; ok {
			continue
		}
		seen[h.AssetID] = struct{}{}
		if a, err := s.store.Get(h.AssetID); err == nil {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *Service) emit(kind, assetID string) {
	if s.notify != nil {
		s.notify(kind, assetID)
	}
}

// parseOptionalDate validates and parses a provided date field.
func parseOptionalDate(in *DateInput) (*time.Time, bool, error) {
	if in == nil {
		return nil, false, nil
	}
	if in.Value == nil || *in.Value == "" {
		return nil, true, nil
	}
	t, err := storage.ParseDate(*in.Value)
	if err != nil {
		return nil, false, err
	}
	return &t, true, nil
}
