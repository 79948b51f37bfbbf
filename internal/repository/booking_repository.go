package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/appointment-slot-reservation/internal/model"
)

// BookingRepo provides persistence for bookings.  Booking rows are
// created and mutated exclusively by the reservation engine inside its
// transactions; no other component writes to this table.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingColumns = `id, client_id, slot_id, status, cancel_token, token_expires_at, created_at, updated_at`

func scanBooking(sc scanner) (*model.Booking, error) {
	var b model.Booking
	if err := sc.Scan(&b.ID, &b.ClientID, &b.SlotID, &b.Status,
		&b.CancelToken, &b.TokenExpiresAt, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	b.TokenExpiresAt = b.TokenExpiresAt.UTC()
	b.CreatedAt = b.CreatedAt.UTC()
	b.UpdatedAt = b.UpdatedAt.UTC()
	return &b, nil
}

// CreateTx inserts a new booking within the scope of an existing
// transaction.  The caller must commit or roll back the transaction;
// the engine rolls back when the subsequent slot claim reports a
// conflict, which removes this row again.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	const q = `INSERT INTO bookings (id, client_id, slot_id, status, cancel_token, token_expires_at, created_at, updated_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := tx.ExecContext(ctx, q,
		b.ID, b.ClientID, b.SlotID, b.Status, b.CancelToken,
		formatTime(b.TokenExpiresAt), formatTime(b.CreatedAt), formatTime(b.UpdatedAt))
	return err
}

// GetByID returns a booking by its identifier or ErrBookingNotFound.
func (r *BookingRepo) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	b, err := scanBooking(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	return b, err
}

// GetByIDTx is GetByID inside an existing transaction.
func (r *BookingRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id string) (*model.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	b, err := scanBooking(tx.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	return b, err
}

// GetByTokenTx looks a booking up by its cancellation token inside an
// existing transaction.  The token column carries a UNIQUE constraint,
// so at most one row can match.  Absence is reported as
// ErrBookingNotFound; the engine translates that into its opaque
// invalid-token error so the endpoint does not leak whether a token
// ever existed.
func (r *BookingRepo) GetByTokenTx(ctx context.Context, tx *sql.Tx, token string) (*model.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE cancel_token = ?`
	b, err := scanBooking(tx.QueryRowContext(ctx, q, token))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	return b, err
}

// CancelTx marks a booking CANCELLED, but only while it is still
// CONFIRMED.  The conditional WHERE mirrors the slot claim: if a
// concurrent request cancelled the booking first, zero rows match and
// ErrConflict is returned so the caller can report "already
// cancelled" instead of mutating twice.
func (r *BookingRepo) CancelTx(ctx context.Context, tx *sql.Tx, id string, now time.Time) error {
	const q = `UPDATE bookings SET status = ?, updated_at = ? WHERE id = ? AND status = ?`
	res, err := tx.ExecContext(ctx, q,
		model.BookingStatusCancelled, formatTime(now), id, model.BookingStatusConfirmed)
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

// UpdateSlotTx repoints a booking at a new slot during a reschedule.
// It runs inside the same transaction as the release of the old slot
// and the claim of the new one, so the reference is never observed
// pointing at a slot the booking does not occupy.
func (r *BookingRepo) UpdateSlotTx(ctx context.Context, tx *sql.Tx, id, slotID string, now time.Time) error {
	const q = `UPDATE bookings SET slot_id = ?, updated_at = ? WHERE id = ?`
	res, err := tx.ExecContext(ctx, q, slotID, formatTime(now), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrBookingNotFound
	}
	return nil
}

// BookingDetail joins a booking with its slot for display to clients.
// Times are rendered as RFC3339 strings in UTC.
type BookingDetail struct {
	ID         string `json:"id"`
	SlotID     string `json:"slot_id"`
	Status     string `json:"status"`
	ProviderID string `json:"provider_id"`
	ServiceID  string `json:"service_id"`
	StartAt    string `json:"start_at"`
	EndAt      string `json:"end_at"`
}

// ListByClient returns all bookings made for the given client along
// with the slot window each one occupies (or occupied, for cancelled
// bookings).  Results are ordered newest first.  When no bookings
// exist, an empty slice is returned.
func (r *BookingRepo) ListByClient(ctx context.Context, clientID string) ([]BookingDetail, error) {
	const q = `SELECT b.id, b.slot_id, b.status, s.provider_id, s.service_id, s.start_at, s.end_at
	           FROM bookings b
	           JOIN slots s ON s.id = b.slot_id
	           WHERE b.client_id = ?
	           ORDER BY b.created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	details := make([]BookingDetail, 0)
	for rows.Next() {
		var d BookingDetail
		var startAt, endAt time.Time
		if err := rows.Scan(&d.ID, &d.SlotID, &d.Status, &d.ProviderID, &d.ServiceID, &startAt, &endAt); err != nil {
			return nil, err
		}
		d.StartAt = startAt.UTC().Format(time.RFC3339)
		d.EndAt = endAt.UTC().Format(time.RFC3339)
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return details, nil
}
