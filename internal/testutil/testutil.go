// Package testutil provides shared test helpers for setting up stores and registries.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/othala/internal/registry"
	"github.com/starford/othala/internal/storage"
)

// TestRegistry creates a temporary SQLite registry that is automatically cleaned up.
func TestRegistry(t *testing.T) *registry.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "othala-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	reg, err := registry.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { reg.Close() })
	return reg
}

// TestStore creates a record store backed by a document in a temp directory.
func TestStore(t *testing.T) (string, *storage.File) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "assets.json")
	store, err := storage.NewFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return path, store
}
