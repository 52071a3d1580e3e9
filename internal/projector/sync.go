package projector

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/starford/othala/internal/apperr"
	"github.com/starford/othala/internal/models"
	"github.com/starford/othala/internal/registry"
	"github.com/starford/othala/internal/storage"
)

// SyncUpsert pushes the record's current field values into its seven derived
// entities, creating them when they do not exist yet. Used for both the
// create and update paths since entity ids are deterministic.
func SyncUpsert(reg registry.EntityRegistry, a models.Asset) error {
	if err := reg.UpsertEntities(Project(a, time.Now().UTC())); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrProjection, err)
	}
	return nil
}

// SyncDelete removes every derived entity associated with the asset id.
func SyncDelete(reg registry.EntityRegistry, assetID string) error {
	if err := reg.DeleteEntities(assetID); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrProjection, err)
	}
	return nil
}

// Resync replays the projection for the whole store:
//   - every live record's entities are upserted
//   - entities whose asset no longer exists are removed
//
// The registry is strictly derived, so a resync after any projection failure
// or external store edit restores consistency.
func Resync(reg registry.EntityRegistry, store storage.Provider, logger *slog.Logger) error {
	assets := store.List()

	projected, err := reg.AllAssetIDs()
	if err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrProjection, err)
	}

	live := make(map[string]struct{}, len(assets))
	for _, a := range assets {
		live[a.ID] = struct{}{}
		if err := SyncUpsert(reg, a); err != nil {
			logger.Warn("resync: upsert failed",
				slog.String("asset_id", a.ID),
				slog.String("error", err.Error()))
		} else {
			logger.Debug("resync: projected", slog.String("asset_id", a.ID))
		}
	}

	// Remove stale projections.
	for id := range projected {
		if _, ok := live[id]; !ok {
			if err := reg.DeleteEntities(id); err != nil {
				logger.Warn("resync: delete failed",
					slog.String("asset_id", id),
					slog.String("error", err.Error()))
			} else {
				logger.Debug("resync: removed stale", slog.String("asset_id", id))
			}
		}
	}

	return nil
}
