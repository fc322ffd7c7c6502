package storage

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kamikazebr/ou-toggle/pkg/models"
)

// setupFirestoreStore opens a store on a fresh collection of the Firestore
// emulator. The test is skipped when no emulator is configured.
func setupFirestoreStore(t *testing.T) *FirestoreStore {
	t.Helper()

	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("Skipping test: FIRESTORE_EMULATOR_HOST is not set")
	}

	store, err := NewFirestoreStore(context.Background(), "ou-toggle-test", "access_records_"+uuid.NewString())
	if err != nil {
		t.Fatalf("NewFirestoreStore failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestFirestoreStore_CreateAndConflicts(t *testing.T) {
	ctx := context.Background()
	store := setupFirestoreStore(t)

	if _, err := store.Get(ctx, "kid@example.com"); !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}

	rec := newRecord()
	if err := store.Put(ctx, "kid@example.com", rec); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if rec.Version == 0 {
		t.Fatal("expected a version after create")
	}

	// A second create of the same email conflicts.
	if err := store.Put(ctx, "kid@example.com", newRecord()); !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict on duplicate create, got %v", err)
	}

	stale, err := store.Get(ctx, "kid@example.com")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if stale.Version != rec.Version {
		t.Errorf("Get Version = %d, want %d", stale.Version, rec.Version)
	}

	fresh := stale.Clone()
	fresh.UnrestrictedSwitches = 1
	if err := store.Put(ctx, "kid@example.com", fresh); err != nil {
		t.Fatalf("Put with current version failed: %v", err)
	}

	stale.UnrestrictedSwitches = 2
	if err := store.Put(ctx, "kid@example.com", stale); !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict on stale update, got %v", err)
	}
}

func TestFirestoreStore_RoundTripAndNoVersionField(t *testing.T) {
	ctx := context.Background()
	store := setupFirestoreStore(t)

	exp := time.Date(2025, 3, 1, 14, 31, 0, 0, time.UTC)
	rec, err := Update(ctx, store, "kid@example.com", newRecord, func(r *models.AccessRecord) error {
		r.UnrestrictedSwitches = 1
		r.OUState = models.OUStateUnrestricted
		r.ExpirationTimeUTC = &exp
		return nil
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, err := store.Get(ctx, "kid@example.com")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !got.SameState(rec) {
		t.Errorf("Get = %+v, want %+v", got, rec)
	}

	// Clearing the expiration is persisted as null.
	if _, err := Update(ctx, store, "kid@example.com", newRecord, func(r *models.AccessRecord) error {
		r.OUState = models.OUStateRestricted
		r.ExpirationTimeUTC = nil
		return nil
	}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	doc, err := store.client.Collection(store.collection).Doc("kid@example.com").Get(ctx)
	if err != nil {
		t.Fatalf("raw Get failed: %v", err)
	}
	data := doc.Data()
	for _, key := range []string{"version", "Version"} {
		if _, ok := data[key]; ok {
			t.Errorf("version token stored as field %q", key)
		}
	}
	if v, ok := data["expiration_time_utc"]; !ok || v != nil {
		t.Errorf("expiration_time_utc = %v (present %v), want null", v, ok)
	}
}
