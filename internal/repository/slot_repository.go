package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/appointment-slot-reservation/internal/model"
)

// SlotRepo encapsulates database operations for slots.  A slot row is
// the single shared mutable resource of the reservation core: its
// status and booking_id columns may only be changed through ClaimTx
// and ReleaseTx, and both are conditional single statements so that
// concurrent requests interleave safely without in-process locks.
type SlotRepo struct {
	db *sql.DB
}

// NewSlotRepo returns a new SlotRepo bound to the given database.
func NewSlotRepo(db *sql.DB) *SlotRepo { return &SlotRepo{db: db} }

const slotColumns = `id, provider_id, service_id, staff_id, start_at, end_at, status, booking_id, created_at, updated_at`

// scanner abstracts *sql.Row and *sql.Rows for the shared scan helper.
type scanner interface {
	Scan(dest ...any) error
}

// scanSlot reads one slot row.  Both drivers return DATETIME columns
// as time.Time; values are normalised to UTC.
func scanSlot(sc scanner) (*model.Slot, error) {
	var (
		s                  model.Slot
		staffID, bookingID sql.NullString
	)
	if err := sc.Scan(&s.ID, &s.ProviderID, &s.ServiceID, &staffID,
		&s.StartAt, &s.EndAt, &s.Status, &bookingID, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	if staffID.Valid {
		v := staffID.String
		s.StaffID = &v
	}
	if bookingID.Valid {
		v := bookingID.String
		s.BookingID = &v
	}
	s.StartAt = s.StartAt.UTC()
	s.EndAt = s.EndAt.UTC()
	s.CreatedAt = s.CreatedAt.UTC()
	s.UpdatedAt = s.UpdatedAt.UTC()
	return &s, nil
}

// Create inserts a new OPEN slot.  The caller supplies ID, ProviderID,
// ServiceID, optional StaffID and the window boundaries; Status is
// forced to OPEN and the timestamps are stamped with now.  A UNIQUE
// violation on (provider_id, start_at) is surfaced as ErrConflict so
// that handlers can report a duplicate window as 409.
func (r *SlotRepo) Create(ctx context.Context, s *model.Slot, now time.Time) error {
	s.Status = model.SlotStatusOpen
	s.BookingID = nil
	s.CreatedAt = now.UTC()
	s.UpdatedAt = now.UTC()
	var staff any
	if s.StaffID != nil {
		staff = *s.StaffID
	}
	const q = `INSERT INTO slots (id, provider_id, service_id, staff_id, start_at, end_at, status, booking_id, created_at, updated_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, NULL, ?, ?)`
	_, err := r.db.ExecContext(ctx, q,
		s.ID, s.ProviderID, s.ServiceID, staff,
		formatTime(s.StartAt), formatTime(s.EndAt), s.Status,
		formatTime(s.CreatedAt), formatTime(s.UpdatedAt))
	if err != nil {
		if isDuplicate(err) {
			return ErrConflict
		}
		return err
	}
	return nil
}

// GetByID returns a slot by its identifier or ErrSlotNotFound.
func (r *SlotRepo) GetByID(ctx context.Context, id string) (*model.Slot, error) {
	const q = `SELECT ` + slotColumns + ` FROM slots WHERE id = ?`
	s, err := scanSlot(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSlotNotFound
	}
	return s, err
}

// GetByIDTx is GetByID executed inside an existing transaction so that
// the engine's pre-checks observe the same snapshot as its writes.
func (r *SlotRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id string) (*model.Slot, error) {
	const q = `SELECT ` + slotColumns + ` FROM slots WHERE id = ?`
	s, err := scanSlot(tx.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSlotNotFound
	}
	return s, err
}

// ClaimTx transitions a slot from OPEN to BOOKED and binds it to the
// given booking, but only if the row is still OPEN at the moment the
// statement executes.  The WHERE clause is the sole defense against
// the double-booking race: two concurrent claims both pass any prior
// read of the status, but the database applies the two conditional
// updates serially and exactly one matches a row.  Zero affected rows
// means another request won and is reported as ErrConflict.
//
// Never replace this with a read of the status followed by a blind
// UPDATE; the two statements interleave unsafely under load.
func (r *SlotRepo) ClaimTx(ctx context.Context, tx *sql.Tx, slotID, bookingID string, now time.Time) error {
	const q = `UPDATE slots SET status = ?, booking_id = ?, updated_at = ? WHERE id = ? AND status = ?`
	res, err := tx.ExecContext(ctx, q,
		model.SlotStatusBooked, bookingID, formatTime(now), slotID, model.SlotStatusOpen)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConflict
	}
	return nil
}

// ReleaseTx transitions a slot from BOOKED back to OPEN and clears its
// booking reference.  The transition has already been authorized by
// the engine, so it is unconditional apart from requiring the row to
// exist; releasing an already-OPEN slot affects the row without
// changing its meaning.
func (r *SlotRepo) ReleaseTx(ctx context.Context, tx *sql.Tx, slotID string, now time.Time) error {
	const q = `UPDATE slots SET status = ?, booking_id = NULL, updated_at = ? WHERE id = ?`
	res, err := tx.ExecContext(ctx, q, model.SlotStatusOpen, formatTime(now), slotID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrSlotNotFound
	}
	return nil
}

// DeleteOpen removes a slot while it is still OPEN and owned by the
// given provider.  Ownership and status are part of the DELETE itself,
// the same conditional shape as the claim, so the outcome reflects the
// row's state at the moment of the statement.  When zero rows match, a
// follow-up read distinguishes a missing slot from a foreign one from
// a slot that has been booked.
func (r *SlotRepo) DeleteOpen(ctx context.Context, slotID, providerID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM slots WHERE id = ? AND provider_id = ? AND status = ?`,
		slotID, providerID, model.SlotStatusOpen)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	var owner string
	if err := r.db.QueryRowContext(ctx, `SELECT provider_id FROM slots WHERE id = ?`, slotID).Scan(&owner); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrSlotNotFound
		}
		return err
	}
	if owner != providerID {
		return ErrForbidden
	}
	return ErrConflict
}

// ListOpenByProvider returns a provider's OPEN slots ordered by start
// time.  This is the browse surface clients use to pick a window.
func (r *SlotRepo) ListOpenByProvider(ctx context.Context, providerID string) ([]model.Slot, error) {
	const q = `SELECT ` + slotColumns + ` FROM slots WHERE provider_id = ? AND status = ? ORDER BY start_at`
	return r.listSlots(ctx, q, providerID, model.SlotStatusOpen)
}

// ListByProvider returns all of a provider's slots, booked and open,
// ordered by start time.  Used by the owning provider's dashboard.
func (r *SlotRepo) ListByProvider(ctx context.Context, providerID string) ([]model.Slot, error) {
	const q = `SELECT ` + slotColumns + ` FROM slots WHERE provider_id = ? ORDER BY start_at`
	return r.listSlots(ctx, q, providerID)
}

func (r *SlotRepo) listSlots(ctx context.Context, q string, args ...any) ([]model.Slot, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	slots := make([]model.Slot, 0)
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		slots = append(slots, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return slots, nil
}

// isDuplicate recognises unique-constraint violations.  MySQL reports
// error 1062; SQLite reports "UNIQUE constraint failed".
func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "1062") || strings.Contains(msg, "unique constraint")
}
