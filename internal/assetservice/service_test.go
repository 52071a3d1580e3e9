package assetservice_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/starford/othala/internal/apperr"
	"github.com/starford/othala/internal/assetservice"
	"github.com/starford/othala/internal/models"
	"github.com/starford/othala/internal/testutil"
)

func testService(t *testing.T) *assetservice.Service {
	t.Helper()
	reg := testutil.TestRegistry(t)
	_, store := testutil.TestStore(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return assetservice.NewService(store, reg, logger)
}

func strPtr(s string) *string { return &s }

func rawPtr(s string) *json.RawMessage {
	raw := json.RawMessage(s)
	return &raw
}

func TestCreateProjectsEntities(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, models.AssetInput{
		Name:  "Fridge",
		Brand: "Cold&Co",
		Value: json.RawMessage(`1299.99`),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if a.Value != 1299.99 {
		t.Errorf("value = %v, want 1299.99", a.Value)
	}

	entities, err := svc.Entities(ctx, a.ID)
	if err != nil {
		t.Fatalf("Entities: %v", err)
	}
	if len(entities) != 7 {
		t.Fatalf("entity count = %d, want 7", len(entities))
	}
}

func TestCreateCoercesStringValue(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	cases := []struct {
		raw  string
		want float64
	}{
		{`"499.5"`, 499.5},
		{`"abc"`, 0},
		{`null`, 0},
		{`true`, 0},
	}
	for _, tc := range cases {
		a, err := svc.Create(ctx, models.AssetInput{Name: "X", Value: json.RawMessage(tc.raw)})
		if err != nil {
			t.Fatalf("Create(value=%s): %v", tc.raw, err)
		}
		if a.Value != tc.want {
			t.Errorf("value %s coerced to %v, want %v", tc.raw, a.Value, tc.want)
		}
	}
}

func TestCreateRejectsMissingName(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, models.AssetInput{Name: "  "})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	if got := svc.List(ctx); len(got) != 0 {
		t.Errorf("list length = %d after rejected create, want 0", len(got))
	}
}

func TestCreateRejectsBadDate(t *testing.T) {
	svc := testService(t)

	_, err := svc.Create(context.Background(), models.AssetInput{
		Name:       "TV",
		PurchaseAt: strPtr("not-a-date"),
	})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestUpdateRoundTrip(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, models.AssetInput{Name: "TV"})
	if err != nil {
		t.Fatal(err)
	}

	updated, err := svc.Update(ctx, a.ID, assetservice.UpdateInput{Brand: strPtr("Acme")})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Brand != "Acme" || updated.Name != "TV" {
		t.Errorf("unexpected record after update: %+v", updated)
	}

	all := svc.List(ctx)
	if len(all) != 1 || all[0].Brand != "Acme" {
		t.Errorf("list does not reflect update: %+v", all)
	}

	// The brand entity follows the record.
	entities, err := svc.Entities(ctx, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	var brandState string
	for _, e := range entities {
		if e.Field == "brand" {
			brandState = e.State
		}
	}
	if brandState != "Acme" {
		t.Errorf("brand entity state = %q, want Acme", brandState)
	}
}

func TestUpdateClearsDateWithNull(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, models.AssetInput{
		Name:          "TV",
		WarrantyUntil: strPtr("2030-06-01"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if a.WarrantyUntil == nil {
		t.Fatal("warranty not set on create")
	}

	updated, err := svc.Update(ctx, a.ID, assetservice.UpdateInput{
		WarrantyUntil: &assetservice.DateInput{},
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.WarrantyUntil != nil {
		t.Errorf("warranty = %v after clear, want nil", updated.WarrantyUntil)
	}
}

func TestUpdateUnknownID(t *testing.T) {
	svc := testService(t)
	_, err := svc.Update(context.Background(), "asset_missing", assetservice.UpdateInput{Name: strPtr("X")})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestDeleteRemovesEntities(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, models.AssetInput{Name: "Lamp"})
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.Delete(ctx, a.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, err := svc.Get(ctx, a.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Get after delete err = %v, want ErrNotFound", err)
	}
	if _, err := svc.Entities(ctx, a.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Entities after delete err = %v, want ErrNotFound", err)
	}
	if err := svc.Delete(ctx, a.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestExpiredWarrantyEntity(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	past := time.Now().UTC().AddDate(-1, 0, 0).Format("2006-01-02")
	a, err := svc.Create(ctx, models.AssetInput{Name: "TV", WarrantyUntil: strPtr(past)})
	if err != nil {
		t.Fatal(err)
	}
	entities, err := svc.Entities(ctx, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entities {
		if e.Field == "warranty_until" && !e.Expired {
			t.Error("past warranty not flagged expired")
		}
	}
}

func TestSearchFindsRecordOnce(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, models.AssetInput{
		Name:     "Washer",
		Brand:    "Miele",
		ManualMD: "Miele service manual",
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Create(ctx, models.AssetInput{Name: "Dryer"}); err != nil {
		t.Fatal(err)
	}

	got, err := svc.Search(ctx, "Miele", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	// Two entities match but the record is resolved once.
	if len(got) != 1 || got[0].ID != a.ID {
		t.Errorf("unexpected search result: %+v", got)
	}
}

func TestOnChangeNotifications(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	type event struct{ kind, id string }
	var events []event
	svc.OnChange(func(kind, assetID string) {
		events = append(events, event{kind, assetID})
	})

	a, err := svc.Create(ctx, models.AssetInput{Name: "TV"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Update(ctx, a.ID, assetservice.UpdateInput{Brand: strPtr("Acme")}); err != nil {
		t.Fatal(err)
	}
	if err := svc.Delete(ctx, a.ID); err != nil {
		t.Fatal(err)
	}

	want := []event{{"created", a.ID}, {"updated", a.ID}, {"deleted", a.ID}}
	if len(events) != len(want) {
		t.Fatalf("event count = %d, want %d", len(events), len(want))
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("event[%d] = %+v, want %+v", i, events[i], want[i])
		}
	}
}

func TestValueUpdateViaRawMessage(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, models.AssetInput{Name: "TV", Value: json.RawMessage(`100`)})
	if err != nil {
		t.Fatal(err)
	}
	updated, err := svc.Update(ctx, a.ID, assetservice.UpdateInput{Value: rawPtr(`"250.5"`)})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Value != 250.5 {
		t.Errorf("value = %v, want 250.5", updated.Value)
	}
}
