package storage

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/starford/othala/internal/apperr"
	"github.com/starford/othala/internal/checksum"
	"github.com/starford/othala/internal/models"
)

const documentVersion = 1

// document is the on-disk shape: the whole collection, rewritten on every
// mutation. There is no incremental log.
type document struct {
	Version int           `json:"version"`
	Assets  []storedAsset `json:"assets"`
}

// storedAsset is a permissive view of a persisted record: hand-edited or
// corrupt field values degrade to their defaults instead of failing the load.
type storedAsset struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Brand         string          `json:"brand"`
	Category      string          `json:"category"`
	Value         json.RawMessage `json:"value"`
	PurchaseAt    *string         `json:"purchase_at"`
	WarrantyUntil *string         `json:"warranty_until"`
	ManualMD      string          `json:"manual_md"`
	MaintenanceMD string          `json:"maintenance_md"`
	CreatedAt     *string         `json:"created_at"`
	UpdatedAt     *string         `json:"updated_at"`
}

// File implements Provider backed by a single JSON document on disk.
//
// A mutex serializes mutations: the original host dispatched commands from a
// cooperative event loop, but Go's HTTP server does not, so merge + persist
// happen under the lock to keep partial state unobservable.
type File struct {
	path string

	mu     sync.Mutex
	assets []models.Asset
	byID   map[string]int
	sum    string
}

// Verify *File satisfies Provider at compile time.
var _ Provider = (*File)(nil)

// NewFile opens the store document at path, creating an empty store when the
// file does not exist yet. A document that fails to parse is an error; a
// single corrupt record inside a valid document is skipped.
func NewFile(path string) (*File, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve path: %w", err)
	}
	f := &File{path: abs, byID: map[string]int{}}
	if err := f.load(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *File) load() error {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		f.assets = nil
		f.byID = map[string]int{}
		f.sum = ""
		return nil
	}
	if err != nil {
		return fmt.Errorf("storage: read document: %w", err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("storage: parse document: %w", err)
	}

	assets := make([]models.Asset, 0, len(doc.Assets))
	byID := make(map[string]int, len(doc.Assets))
	for _, sa := range doc.Assets {
		if sa.ID == "" {
			continue
		}
		if _, dup := byID[sa.ID]; dup {
			continue
		}
		a := sa.toAsset()
		byID[a.ID] = len(assets)
		assets = append(assets, a)
	}
	f.assets = assets
	f.byID = byID
	f.sum = checksum.Sum(data)
	return nil
}

func (sa storedAsset) toAsset() models.Asset {
	return models.Asset{
		ID:            sa.ID,
		Name:          sa.Name,
		Brand:         sa.Brand,
		Category:      sa.Category,
		Value:         models.CoerceValue(sa.Value),
		PurchaseAt:    parseTimeSafe(sa.PurchaseAt),
		WarrantyUntil: parseTimeSafe(sa.WarrantyUntil),
		ManualMD:      sa.ManualMD,
		MaintenanceMD: sa.MaintenanceMD,
		CreatedAt:     timeOrNow(sa.CreatedAt),
		UpdatedAt:     timeOrNow(sa.UpdatedAt),
	}
}

// parseTimeSafe parses an RFC 3339 date or date-time, returning nil when the
// value is absent or unparseable so one bad field never loses the record.
func parseTimeSafe(raw *string) *time.Time {
	if raw == nil || *raw == "" {
		return nil
	}
	t, err := parseDate(*raw)
	if err != nil {
		return nil
	}
	return &t
}

func timeOrNow(raw *string) time.Time {
	if t := parseTimeSafe(raw); t != nil {
		return *t
	}
	return time.Now().UTC()
}

// parseDate accepts an RFC 3339 date-time or a bare ISO date; results are
// normalized to UTC.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

// ParseDate is the exported form used by the command layer to validate
// incoming date strings.
func ParseDate(s string) (time.Time, error) { return parseDate(s) }

// NewAssetID generates a fresh record identifier.
func NewAssetID() string {
	u := uuid.New()
	return "asset_" + hex.EncodeToString(u[:])
}

// List returns all live records in insertion order.
func (f *File) List() []models.Asset {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Asset, len(f.assets))
	copy(out, f.assets)
	return out
}

// Get returns one record by id.
func (f *File) Get(id string) (models.Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i, ok := f.byID[id]
	if !ok {
		return models.Asset{}, apperr.ErrNotFound
	}
	return f.assets[i], nil
}

// Create assigns a new unique id, validates the name invariant, and persists.
func (f *File) Create(fields CreateFields) (models.Asset, error) {
	name := strings.TrimSpace(fields.Name)
	if name == "" {
		return models.Asset{}, fmt.Errorf("%w: name is required", apperr.ErrValidation)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	now := time.Now().UTC()
	a := models.Asset{
		ID:            NewAssetID(),
		Name:          name,
		Brand:         fields.Brand,
		Category:      fields.Category,
		Value:         fields.Value,
		PurchaseAt:    utcPtr(fields.PurchaseAt),
		WarrantyUntil: utcPtr(fields.WarrantyUntil),
		ManualMD:      fields.ManualMD,
		MaintenanceMD: fields.MaintenanceMD,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	f.byID[a.ID] = len(f.assets)
	f.assets = append(f.assets, a)
	if err := f.persistLocked(); err != nil {
		f.assets = f.assets[:len(f.assets)-1]
		delete(f.byID, a.ID)
		return models.Asset{}, err
	}
	return a, nil
}

// Update merges non-nil patch fields over the existing record.
func (f *File) Update(id string, patch models.AssetPatch) (models.Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	i, ok := f.byID[id]
	if !ok {
		return models.Asset{}, apperr.ErrNotFound
	}
	prev := f.assets[i]
	next := prev

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return models.Asset{}, fmt.Errorf("%w: name cannot be empty", apperr.ErrValidation)
		}
		next.Name = name
	}
	if patch.Brand != nil {
		next.Brand = *patch.Brand
	}
	if patch.Category != nil {
		next.Category = *patch.Category
	}
	if patch.Value != nil {
		next.Value = *patch.Value
	}
	if patch.PurchaseAt != nil {
		next.PurchaseAt = utcPtr(patch.PurchaseAt.Time)
	}
	if patch.WarrantyUntil != nil {
		next.WarrantyUntil = utcPtr(patch.WarrantyUntil.Time)
	}
	if patch.ManualMD != nil {
		next.ManualMD = *patch.ManualMD
	}
	if patch.MaintenanceMD != nil {
		next.MaintenanceMD = *patch.MaintenanceMD
	}
	next.UpdatedAt = time.Now().UTC()

	f.assets[i] = next
	if err := f.persistLocked(); err != nil {
		f.assets[i] = prev
		return models.Asset{}, err
	}
	return next, nil
}

// Delete removes the record; a second delete of the same id is ErrNotFound.
func (f *File) Delete(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	i, ok := f.byID[id]
	if !ok {
		return apperr.ErrNotFound
	}
	prev := f.assets[i]
	f.assets = append(f.assets[:i], f.assets[i+1:]...)
	delete(f.byID, id)
	for j := i; j < len(f.assets); j++ {
		f.byID[f.assets[j].ID] = j
	}
	if err := f.persistLocked(); err != nil {
		f.assets = append(f.assets[:i], append([]models.Asset{prev}, f.assets[i:]...)...)
		f.byID[id] = i
		for j := i + 1; j < len(f.assets); j++ {
			f.byID[f.assets[j].ID] = j
		}
		return err
	}
	return nil
}

// Checksum returns the digest of the last persisted or loaded document.
func (f *File) Checksum() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sum
}

// Reload re-reads the document from disk, replacing in-memory state.
func (f *File) Reload() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.load()
}

// Path returns the absolute path of the store document.
func (f *File) Path() string { return f.path }

// persistLocked marshals the collection and writes it atomically via a
// temp file, fsync, then rename. Caller must hold f.mu.
func (f *File) persistLocked() error {
	doc := document{Version: documentVersion, Assets: make([]storedAsset, 0, len(f.assets))}
	for _, a := range f.assets {
		doc.Assets = append(doc.Assets, toStored(a))
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal: %v", apperr.ErrPersistence, err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: mkdir: %v", apperr.ErrPersistence, err)
	}
	tmp, err := os.CreateTemp(dir, ".othala-tmp-*")
	if err != nil {
		return fmt.Errorf("%w: create temp: %v", apperr.ErrPersistence, err)
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("%w: write temp: %v", apperr.ErrPersistence, err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("%w: fsync: %v", apperr.ErrPersistence, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close temp: %v", apperr.ErrPersistence, err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("%w: rename: %v", apperr.ErrPersistence, err)
	}
	success = true
	f.sum = checksum.Sum(data)
	return nil
}

func toStored(a models.Asset) storedAsset {
	value, _ := json.Marshal(a.Value)
	return storedAsset{
		ID:            a.ID,
		Name:          a.Name,
		Brand:         a.Brand,
		Category:      a.Category,
		Value:         value,
		PurchaseAt:    formatTime(a.PurchaseAt),
		WarrantyUntil: formatTime(a.WarrantyUntil),
		ManualMD:      a.ManualMD,
		MaintenanceMD: a.MaintenanceMD,
		CreatedAt:     formatTime(&a.CreatedAt),
		UpdatedAt:     formatTime(&a.UpdatedAt),
	}
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
