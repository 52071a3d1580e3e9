// Package registry provides the SQLite-backed derived-entity registry.
// Entities have no independent lifecycle: they are a projection of the
// record store and can always be rebuilt by replaying the projector.
package registry

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/othala/internal/models"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS entities (
	entity_id  TEXT PRIMARY KEY,
	asset_id   TEXT NOT NULL,
	field      TEXT NOT NULL,
	kind       TEXT NOT NULL,
	state      TEXT,
	raw        TEXT NOT NULL DEFAULT '',
	expired    INTEGER NOT NULL DEFAULT 0,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_entities_asset ON entities(asset_id);
`

// DB wraps a sql.DB with registry-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("registry: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("registry: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("registry: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// UpsertEntities writes a batch of entities in one transaction. A nil State
// (absent date) is stored as SQL NULL.
func (db *DB) UpsertEntities(entities []models.Entity) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("registry: begin: %w", err)
	}
	defer tx.Rollback()

	for _, e := range entities {
		var state any
		if !(e.Kind == models.KindDate && e.State == "") {
			state = e.State
		}
		_, err := tx.Exec(`
			INSERT INTO entities (entity_id, asset_id, field, kind, state, raw, expired, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(entity_id) DO UPDATE SET
				asset_id = excluded.asset_id,
				field = excluded.field,
				kind = excluded.kind,
				state = excluded.state,
				raw = excluded.raw,
				expired = excluded.expired,
				updated_at = excluded.updated_at
		`, e.EntityID, e.AssetID, e.Field, string(e.Kind), state, e.Raw, boolToInt(e.Expired), e.UpdatedAt.UTC())
		if err != nil {
			return fmt.Errorf("registry: upsert %s: %w", e.EntityID, err)
		}
	}
	return tx.Commit()
}

// DeleteEntities removes every entity derived from the given asset.
func (db *DB) DeleteEntities(assetID string) error {
	if _, err := db.conn.Exec(`DELETE FROM entities WHERE asset_id = ?`, assetID); err != nil {
		return fmt.Errorf("registry: delete entities for %s: %w", assetID, err)
	}
	return nil
}

// GetEntity returns a single entity by id, or nil when it does not exist.
func (db *DB) GetEntity(entityID string) (*models.Entity, error) {
	row := db.conn.QueryRow(`
		SELECT entity_id, asset_id, field, kind, state, raw, expired, updated_at
		FROM entities WHERE entity_id = ?
	`, entityID)
	e, err := scanEntity(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("registry: get entity: %w", err)
	}
	return e, nil
}

// ListEntities returns all entities derived from the given asset, ordered by
// field name for a stable response.
func (db *DB) ListEntities(assetID string) ([]models.Entity, error) {
	rows, err := db.conn.Query(`
		SELECT entity_id, asset_id, field, kind, state, raw, expired, updated_at
		FROM entities WHERE asset_id = ? ORDER BY field
	`, assetID)
	if err != nil {
		return nil, fmt.Errorf("registry: list entities: %w", err)
	}
	defer rows.Close()

	var out []models.Entity
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// AllAssetIDs returns the set of asset ids that currently have entities,
// used by the resync pass to find stale projections.
func (db *DB) AllAssetIDs() (map[string]struct{}, error) {
	rows, err := db.conn.Query(`SELECT DISTINCT asset_id FROM entities`)
	if err != nil {
		return nil, fmt.Errorf("registry: all asset ids: %w", err)
	}
	defer rows.Close()

	out := map[string]struct{}{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = struct{}{}
	}
	return out, rows.Err()
}

// Search performs a LIKE-based search over the text entities, powering the
// panel's searchable table.
func (db *DB) Search(query string, limit int) ([]SearchHit, error) {
	if limit <= 0 {
		limit = 20
	}
	like := "%" + query + "%"
	rows, err := db.conn.Query(`
		SELECT asset_id, field, substr(raw, 1, 200)
		FROM entities
		WHERE kind = 'text' AND (state LIKE ? OR raw LIKE ?)
		LIMIT ?
	`, like, like, limit)
	if err != nil {
		return nil, fmt.Errorf("registry: search: %w", err)
	}
	defer rows.Close()

	var out []SearchHit
	for rows.Next() {
		var h SearchHit
		if err := rows.Scan(&h.AssetID, &h.Field, &h.Snippet); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntity(s scanner) (*models.Entity, error) {
	var e models.Entity
	var state sql.NullString
	var kind string
	var expired int
	var updated time.Time
	if err := s.Scan(&e.EntityID, &e.AssetID, &e.Field, &kind, &state, &e.Raw, &expired, &updated); err != nil {
		return nil, err
	}
	e.Kind = models.Kind(kind)
	if state.Valid {
		e.State = state.String
	}
	e.Expired = expired != 0
	e.UpdatedAt = updated.UTC()
	return &e, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
