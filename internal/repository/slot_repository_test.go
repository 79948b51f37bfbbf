package repository_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/appointment-slot-reservation/internal/model"
	"github.com/iliyamo/appointment-slot-reservation/internal/repository"
	"github.com/iliyamo/appointment-slot-reservation/internal/testfixtures"
)

func newSlotRepo(t *testing.T) (*repository.SlotRepo, *sql.DB) {
	t.Helper()
	db := testfixtures.NewDB(t)
	return repository.NewSlotRepo(db), db
}

func makeSlot(providerID string, start time.Time) *model.Slot {
	return &model.Slot{
		ID:         uuid.NewString(),
		ProviderID: providerID,
		ServiceID:  uuid.NewString(),
		StartAt:    start,
		EndAt:      start.Add(30 * time.Minute),
	}
}

func inTx(t *testing.T, db *sql.DB, fn func(tx *sql.Tx) error) error {
	t.Helper()
	tx, err := db.BeginTx(context.Background(), nil)
	if err != nil {
		t.Fatalf("BeginTx failed: %v", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	return nil
}

func TestSlotRepo_CreateAndGet(t *testing.T) {
	repo, _ := newSlotRepo(t)
	ctx := context.Background()
	now := testfixtures.ReferenceTime()

	slot := makeSlot(uuid.NewString(), now.Add(2*time.Hour))
	if err := repo.Create(ctx, slot, now); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := repo.GetByID(ctx, slot.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != model.SlotStatusOpen {
		t.Errorf("expected status OPEN, got %s", got.Status)
	}
	if got.BookingID != nil {
		t.Errorf("expected nil booking reference, got %v", *got.BookingID)
	}
	if !got.StartAt.Equal(slot.StartAt) {
		t.Errorf("expected start %v, got %v", slot.StartAt, got.StartAt)
	}
}

func TestSlotRepo_TimestampRoundTrip(t *testing.T) {
	repo, _ := newSlotRepo(t)
	ctx := context.Background()
	now := testfixtures.ReferenceTime()

	// Write in a non-UTC zone; the row must come back as the same
	// instant in UTC, scanned as time.Time straight from the driver.
	zone := time.FixedZone("UTC+3", 3*60*60)
	slot := makeSlot(uuid.NewString(), now.Add(time.Hour).In(zone))
	if err := repo.Create(ctx, slot, now); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := repo.GetByID(ctx, slot.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if !got.StartAt.Equal(slot.StartAt) {
		t.Errorf("expected start %v, got %v", slot.StartAt, got.StartAt)
	}
	if got.StartAt.Location() != time.UTC {
		t.Errorf("expected UTC start, got zone %v", got.StartAt.Location())
	}
	if !got.EndAt.Equal(slot.EndAt) {
		t.Errorf("expected end %v, got %v", slot.EndAt, got.EndAt)
	}
	if !got.CreatedAt.Equal(now) || !got.UpdatedAt.Equal(now) {
		t.Errorf("expected timestamps %v, got created=%v updated=%v", now, got.CreatedAt, got.UpdatedAt)
	}
}

func TestSlotRepo_GetByID_NotFound(t *testing.T) {
	repo, _ := newSlotRepo(t)
	_, err := repo.GetByID(context.Background(), uuid.NewString())
	if !errors.Is(err, repository.ErrSlotNotFound) {
		t.Fatalf("expected ErrSlotNotFound, got %v", err)
	}
}

func TestSlotRepo_Create_DuplicateStart(t *testing.T) {
	repo, _ := newSlotRepo(t)
	ctx := context.Background()
	now := testfixtures.ReferenceTime()
	providerID := uuid.NewString()
	start := now.Add(time.Hour)

	if err := repo.Create(ctx, makeSlot(providerID, start), now); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}
	err := repo.Create(ctx, makeSlot(providerID, start), now)
	if !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate start, got %v", err)
	}

	// A different provider may publish the same start time.
	if err := repo.Create(ctx, makeSlot(uuid.NewString(), start), now); err != nil {
		t.Fatalf("Create for different provider failed: %v", err)
	}
}

func TestSlotRepo_ClaimTx_OnlyWhileOpen(t *testing.T) {
	repo, db := newSlotRepo(t)
	ctx := context.Background()
	now := testfixtures.ReferenceTime()

	slot := makeSlot(uuid.NewString(), now.Add(time.Hour))
	if err := repo.Create(ctx, slot, now); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	bookingID := uuid.NewString()
	if err := inTx(t, db, func(tx *sql.Tx) error {
		return repo.ClaimTx(ctx, tx, slot.ID, bookingID, now)
	}); err != nil {
		t.Fatalf("first claim failed: %v", err)
	}

	got, err := repo.GetByID(ctx, slot.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != model.SlotStatusBooked {
		t.Errorf("expected status BOOKED, got %s", got.Status)
	}
	if got.BookingID == nil || *got.BookingID != bookingID {
		t.Errorf("expected booking reference %s, got %v", bookingID, got.BookingID)
	}

	// The slot is no longer OPEN, so a second claim matches zero rows.
	err = inTx(t, db, func(tx *sql.Tx) error {
		return repo.ClaimTx(ctx, tx, slot.ID, uuid.NewString(), now)
	})
	if !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("expected ErrConflict on second claim, got %v", err)
	}
	after, err := repo.GetByID(ctx, slot.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if after.BookingID == nil || *after.BookingID != bookingID {
		t.Errorf("losing claim must not overwrite the booking reference")
	}
}

func TestSlotRepo_ReleaseTx_RestoresOpen(t *testing.T) {
	repo, db := newSlotRepo(t)
	ctx := context.Background()
	now := testfixtures.ReferenceTime()

	slot := makeSlot(uuid.NewString(), now.Add(time.Hour))
	if err := repo.Create(ctx, slot, now); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := inTx(t, db, func(tx *sql.Tx) error {
		return repo.ClaimTx(ctx, tx, slot.ID, uuid.NewString(), now)
	}); err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if err := inTx(t, db, func(tx *sql.Tx) error {
		return repo.ReleaseTx(ctx, tx, slot.ID, now)
	}); err != nil {
		t.Fatalf("release failed: %v", err)
	}

	got, err := repo.GetByID(ctx, slot.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != model.SlotStatusOpen {
		t.Errorf("expected status OPEN after release, got %s", got.Status)
	}
	if got.BookingID != nil {
		t.Errorf("expected cleared booking reference, got %v", *got.BookingID)
	}

	// The slot can be claimed again after release.
	if err := inTx(t, db, func(tx *sql.Tx) error {
		return repo.ClaimTx(ctx, tx, slot.ID, uuid.NewString(), now)
	}); err != nil {
		t.Fatalf("re-claim after release failed: %v", err)
	}
}

func TestSlotRepo_DeleteOpen(t *testing.T) {
	repo, db := newSlotRepo(t)
	ctx := context.Background()
	now := testfixtures.ReferenceTime()
	providerID := uuid.NewString()

	t.Run("deletes open slot", func(t *testing.T) {
		slot := makeSlot(providerID, now.Add(time.Hour))
		if err := repo.Create(ctx, slot, now); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if err := repo.DeleteOpen(ctx, slot.ID, providerID); err != nil {
			t.Fatalf("DeleteOpen failed: %v", err)
		}
		if _, err := repo.GetByID(ctx, slot.ID); !errors.Is(err, repository.ErrSlotNotFound) {
			t.Errorf("expected slot to be gone, got %v", err)
		}
	})

	t.Run("refuses booked slot", func(t *testing.T) {
		slot := makeSlot(providerID, now.Add(2*time.Hour))
		if err := repo.Create(ctx, slot, now); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if err := inTx(t, db, func(tx *sql.Tx) error {
			return repo.ClaimTx(ctx, tx, slot.ID, uuid.NewString(), now)
		}); err != nil {
			t.Fatalf("claim failed: %v", err)
		}
		if err := repo.DeleteOpen(ctx, slot.ID, providerID); !errors.Is(err, repository.ErrConflict) {
			t.Errorf("expected ErrConflict for booked slot, got %v", err)
		}
	})

	t.Run("refuses foreign slot", func(t *testing.T) {
		slot := makeSlot(providerID, now.Add(3*time.Hour))
		if err := repo.Create(ctx, slot, now); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if err := repo.DeleteOpen(ctx, slot.ID, uuid.NewString()); !errors.Is(err, repository.ErrForbidden) {
			t.Errorf("expected ErrForbidden, got %v", err)
		}
	})

	t.Run("missing slot", func(t *testing.T) {
		if err := repo.DeleteOpen(ctx, uuid.NewString(), providerID); !errors.Is(err, repository.ErrSlotNotFound) {
			t.Errorf("expected ErrSlotNotFound, got %v", err)
		}
	})

	t.Run("repeated delete", func(t *testing.T) {
		slot := makeSlot(providerID, now.Add(4*time.Hour))
		if err := repo.Create(ctx, slot, now); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if err := repo.DeleteOpen(ctx, slot.ID, providerID); err != nil {
			t.Fatalf("DeleteOpen failed: %v", err)
		}
		// The row is gone, so the second delete matches nothing and
		// the follow-up read reports the slot as missing.
		if err := repo.DeleteOpen(ctx, slot.ID, providerID); !errors.Is(err, repository.ErrSlotNotFound) {
			t.Errorf("expected ErrSlotNotFound on repeated delete, got %v", err)
		}
	})
}

func TestSlotRepo_ListOpenByProvider(t *testing.T) {
	repo, db := newSlotRepo(t)
	ctx := context.Background()
	now := testfixtures.ReferenceTime()
	providerID := uuid.NewString()

	first := makeSlot(providerID, now.Add(time.Hour))
	second := makeSlot(providerID, now.Add(2*time.Hour))
	for _, s := range []*model.Slot{second, first} { // insert out of order
		if err := repo.Create(ctx, s, now); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}
	if err := inTx(t, db, func(tx *sql.Tx) error {
		return repo.ClaimTx(ctx, tx, second.ID, uuid.NewString(), now)
	}); err != nil {
		t.Fatalf("claim failed: %v", err)
	}

	open, err := repo.ListOpenByProvider(ctx, providerID)
	if err != nil {
		t.Fatalf("ListOpenByProvider failed: %v", err)
	}
	if len(open) != 1 || open[0].ID != first.ID {
		t.Errorf("expected only the unclaimed slot, got %+v", open)
	}

	all, err := repo.ListByProvider(ctx, providerID)
	if err != nil {
		t.Fatalf("ListByProvider failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(all))
	}
	if all[0].ID != first.ID || all[1].ID != second.ID {
		t.Errorf("expected slots ordered by start time")
	}
}
