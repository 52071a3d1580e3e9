package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/othala/internal/apperr"
	"github.com/starford/othala/internal/assetservice"
	"github.com/starford/othala/internal/models"
)

// Handler holds API route handlers.
type Handler struct {
	svc *assetservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *assetservice.Service) *Handler {
	return &Handler{svc: svc}
}

// writeError maps the service error taxonomy onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	default:
		slog.Error("command failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

// ListAssets handles GET /assets.
func (h *Handler) ListAssets(w http.ResponseWriter, r *http.Request) {
	assets := h.svc.List(r.Context())
	writeJSON(w, http.StatusOK, AssetListResponse{Assets: nonNilAssets(assets)})
}

// GetAsset handles GET /assets/{id}.
func (h *Handler) GetAsset(w http.ResponseWriter, r *http.Request) {
	asset, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, asset)
}

// CreateAsset handles POST /assets.
func (h *Handler) CreateAsset(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req CreateAssetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid request body"))
		return
	}

	asset, err := h.svc.Create(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, asset)
}

// UpdateAsset handles PUT /assets/{id}.
func (h *Handler) UpdateAsset(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req UpdateAssetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid request body"))
		return
	}

	in, err := updateInput(req)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	asset, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, asset)
}

// DeleteAsset handles DELETE /assets/{id}.
func (h *Handler) DeleteAsset(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, DeleteResponse{Deleted: true})
}

// GetEntities handles GET /assets/{id}/entities.
func (h *Handler) GetEntities(w http.ResponseWriter, r *http.Request) {
	entities, err := h.svc.Entities(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if entities == nil {
		entities = []models.Entity{}
	}
	writeJSON(w, http.StatusOK, EntityListResponse{Entities: entities})
}

// Search handles GET /search?q=&limit=.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("q is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	assets, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Assets: nonNilAssets(assets)})
}

// updateInput converts the raw wire patch into the typed service input,
// with explicit per-field presence checks.
func updateInput(req UpdateAssetRequest) (assetservice.UpdateInput, error) {
	var in assetservice.UpdateInput
	var err error

	if in.Name, err = stringField("name", req.Name); err != nil {
		return in, err
	}
	if in.Brand, err = stringField("brand", req.Brand); err != nil {
		return in, err
	}
	if in.Category, err = stringField("category", req.Category); err != nil {
		return in, err
	}
	if len(req.Value) > 0 {
		raw := req.Value
		in.Value = &raw
	}
	if in.PurchaseAt, err = dateField("purchase_at", req.PurchaseAt); err != nil {
		return in, err
	}
	if in.WarrantyUntil, err = dateField("warranty_until", req.WarrantyUntil); err != nil {
		return in, err
	}
	if in.ManualMD, err = stringField("manual_md", req.ManualMD); err != nil {
		return in, err
	}
	if in.MaintenanceMD, err = stringField("maintenance_md", req.MaintenanceMD); err != nil {
		return in, err
	}
	return in, nil
}

// stringField decodes a provided string field; absent fields return nil.
func stringField(name string, raw json.RawMessage) (*string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, errors.New(name + " must be a string")
	}
	return &s, nil
}

// dateField decodes a provided date field; an explicit null clears the date.
func dateField(name string, raw json.RawMessage) (*assetservice.DateInput, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var s *string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, errors.New(name + " must be a string or null")
	}
	return &assetservice.DateInput{Value: s}, nil
}

func nonNilAssets(assets []models.Asset) []models.Asset {
	if assets == nil {
		return []models.Asset{}
	}
	return assets
}
