package projector_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/starford/othala/internal/projector"
	"github.com/starford/othala/internal/storage"
	"github.com/starford/othala/internal/testutil"
)

func TestWatchResyncsOnExternalEdit(t *testing.T) {
	reg := testutil.TestRegistry(t)
	path, store := testutil.TestStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	synced := make(chan struct{}, 1)
	go func() {
		defer close(done)
		_ = projector.Watch(ctx, reg, store, discardLogger(), func() {
			select {
			case synced <- struct{}{}:
			default:
			}
		})
	}()

	// Give the watcher a moment to register before writing.
	time.Sleep(100 * time.Millisecond)

	doc := `{"version":1,"assets":[{"id":"asset_ext","name":"Heater","value":10}]}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-synced:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for watcher resync")
	}

	all := store.List()
	if len(all) != 1 || all[0].ID != "asset_ext" {
		t.Fatalf("store not reloaded: %+v", all)
	}
	entities, err := reg.ListEntities("asset_ext")
	if err != nil {
		t.Fatal(err)
	}
	if len(entities) != 7 {
		t.Errorf("entity count = %d, want 7", len(entities))
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop on context cancel")
	}
}

func TestWatchIgnoresSelfWrites(t *testing.T) {
	reg := testutil.TestRegistry(t)
	_, store := testutil.TestStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	synced := make(chan struct{}, 1)
	go func() {
		_ = projector.Watch(ctx, reg, store, discardLogger(), func() {
			select {
			case synced <- struct{}{}:
			default:
			}
		})
	}()

	time.Sleep(100 * time.Millisecond)

	// A mutation through the store writes the document itself; the watcher
	// must recognize the checksum and skip the resync callback.
	if _, err := store.Create(storage.CreateFields{Name: "TV"}); err != nil {
		t.Fatal(err)
	}

	select {
	case <-synced:
		t.Fatal("watcher resynced on a self-write")
	case <-time.After(700 * time.Millisecond):
	}
}
