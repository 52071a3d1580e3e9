package projector_test

import (
	"io"
	"log/slog"
	"testing"

	"github.com/starford/othala/internal/projector"
	"github.com/starford/othala/internal/storage"
	"github.com/starford/othala/internal/testutil"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSyncUpsertAndDelete(t *testing.T) {
	reg := testutil.TestRegistry(t)
	_, store := testutil.TestStore(t)

	a, err := store.Create(storage.CreateFields{Name: "Fridge", Brand: "Cold&Co"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := projector.SyncUpsert(reg, a); err != nil {
		t.Fatalf("SyncUpsert: %v", err)
	}
	entities, err := reg.ListEntities(a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(entities) != 7 {
		t.Fatalf("entity count = %d, want 7", len(entities))
	}

	if err := projector.SyncDelete(reg, a.ID); err != nil {
		t.Fatalf("SyncDelete: %v", err)
	}
	entities, err = reg.ListEntities(a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(entities) != 0 {
		t.Errorf("entity count = %d after delete, want 0", len(entities))
	}
}

func TestResyncProjectsLiveRecords(t *testing.T) {
	reg := testutil.TestRegistry(t)
	_, store := testutil.TestStore(t)

	a1, _ := store.Create(storage.CreateFields{Name: "TV"})
	a2, _ := store.Create(storage.CreateFields{Name: "Washer"})

	if err := projector.Resync(reg, store, discardLogger()); err != nil {
		t.Fatalf("Resync: %v", err)
	}

	for _, id := range []string{a1.ID, a2.ID} {
		entities, err := reg.ListEntities(id)
		if err != nil {
			t.Fatal(err)
		}
		if len(entities) != 7 {
			t.Errorf("%s: entity count = %d, want 7", id, len(entities))
		}
	}
}

func TestResyncRemovesStaleProjections(t *testing.T) {
	reg := testutil.TestRegistry(t)
	_, store := testutil.TestStore(t)

	a, _ := store.Create(storage.CreateFields{Name: "TV"})
	if err := projector.SyncUpsert(reg, a); err != nil {
		t.Fatal(err)
	}

	// Remove the record behind the projection's back, then resync.
	if err := store.Delete(a.ID); err != nil {
		t.Fatal(err)
	}
	if err := projector.Resync(reg, store, discardLogger()); err != nil {
		t.Fatalf("Resync: %v", err)
	}

	entities, err := reg.ListEntities(a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(entities) != 0 {
		t.Errorf("stale entities survived resync: %+v", entities)
	}
}
