// Package reservation implements the state machine that moves slots
// between OPEN and BOOKED and bookings between CONFIRMED and
// CANCELLED.  Every operation runs as a single database transaction;
// correctness under concurrent requests is delegated entirely to the
// store's isolation plus the conditional claim statement in the slot
// repository, never to in-process locks.
package reservation

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/appointment-slot-reservation/internal/model"
	"github.com/iliyamo/appointment-slot-reservation/internal/queue"
	"github.com/iliyamo/appointment-slot-reservation/internal/repository"
)

// Notifier receives reservation outcome events after a transaction has
// committed.  Publishing is fire-and-forget: a failure is logged and
// never converts a committed reservation into an error response.
type Notifier interface {
	Publish(ctx context.Context, ev queue.ReservationEvent) error
}

// nopNotifier drops events; used when no broker is configured.
type nopNotifier struct{}

func (nopNotifier) Publish(context.Context, queue.ReservationEvent) error { return nil }

// Engine is the reservation core.  It owns all mutations of slot
// occupancy and booking status; handlers call it and translate its
// sentinel errors into HTTP codes.
type Engine struct {
	db       *sql.DB
	slots    *repository.SlotRepo
	bookings *repository.BookingRepo
	clock    Clock
	notifier Notifier
	baseURL  string
}

// NewEngine constructs the engine.  A nil clock falls back to UTC
// wall-clock time and a nil notifier to a no-op sink, so tests and
// broker-less deployments need no extra wiring.
func NewEngine(db *sql.DB, slots *repository.SlotRepo, bookings *repository.BookingRepo, notifier Notifier, clock Clock, baseURL string) *Engine {
	if db == nil || slots == nil || bookings == nil {
		panic("nil dependency passed to NewEngine")
	}
	if clock == nil {
		clock = utcClock{}
	}
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &Engine{
		db:       db,
		slots:    slots,
		bookings: bookings,
		clock:    clock,
		notifier: notifier,
		baseURL:  baseURL,
	}
}

// Create books the given slot for targetClientID on behalf of the
// requester.  The booking row is inserted first and the slot is then
// claimed with the conditional update; when the claim reports a
// conflict the transaction rolls back, removing the booking again.
// The status pre-check exists only to produce a precise error for
// callers that lost the race long before the claim, the conditional
// update remains the authoritative guard for the residual window
// between the read and the write.
func (e *Engine) Create(ctx context.Context, req Requester, targetClientID, slotID string) (*model.Booking, error) {
	if !canBookFor(req, targetClientID) {
		return nil, repository.ErrForbidden
	}
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	slot, err := e.slots.GetByIDTx(ctx, tx, slotID)
	if err != nil {
		return nil, err
	}
	if !slot.Open() {
		return nil, repository.ErrConflict
	}
	now := e.clock.Now().UTC()
	if slot.StartAt.Before(now) {
		return nil, ErrSlotInPast
	}

	token, err := NewCancelToken()
	if err != nil {
		return nil, err
	}
	b := &model.Booking{
		ID:             uuid.NewString(),
		ClientID:       targetClientID,
		SlotID:         slot.ID,
		Status:         model.BookingStatusConfirmed,
		CancelToken:    token,
		TokenExpiresAt: now.Add(TokenTTL),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := e.bookings.CreateTx(ctx, tx, b); err != nil {
		return nil, err
	}
	if err := e.slots.ClaimTx(ctx, tx, slot.ID, b.ID, now); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	e.notify(queue.KindReservationConfirmed, b, slot)
	return b, nil
}

// Cancel marks a booking CANCELLED and releases its slot back to OPEN
// in one transaction.  Cancelling an already-CANCELLED booking is a
// no-op reported through the first return value, not an error, so
// retried confirmation emails and double-clicked links stay harmless.
func (e *Engine) Cancel(ctx context.Context, req Requester, bookingID string) (alreadyCancelled bool, err error) {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	b, err := e.bookings.GetByIDTx(ctx, tx, bookingID)
	if err != nil {
		return false, err
	}
	slot, err := e.slots.GetByIDTx(ctx, tx, b.SlotID)
	if err != nil {
		return false, err
	}
	if !canAct(req, b.ClientID, slot.ProviderID) {
		return false, repository.ErrForbidden
	}
	if !b.Confirmed() {
		return true, nil
	}
	already, err := e.cancelTx(ctx, tx, b)
	if err != nil || already {
		return already, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	committed = true

	b.Status = model.BookingStatusCancelled
	e.notify(queue.KindReservationCancelled, b, slot)
	return false, nil
}

// CancelByToken redeems a cancellation token from an email link.  An
// unknown token and an expired token produce the same ErrTokenInvalid
// so the unauthenticated endpoint does not reveal which it was.  A
// token whose booking is already cancelled is spent: redemption
// reports already-cancelled without touching any state.
func (e *Engine) CancelByToken(ctx context.Context, token string) (alreadyCancelled bool, err error) {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	b, err := e.bookings.GetByTokenTx(ctx, tx, token)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return false, ErrTokenInvalid
		}
		return false, err
	}
	if e.clock.Now().UTC().After(b.TokenExpiresAt) {
		return false, ErrTokenInvalid
	}
	if !b.Confirmed() {
		return true, nil
	}
	slot, err := e.slots.GetByIDTx(ctx, tx, b.SlotID)
	if err != nil {
		return false, err
	}
	already, err := e.cancelTx(ctx, tx, b)
	if err != nil || already {
		return already, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	committed = true

	b.Status = model.BookingStatusCancelled
	e.notify(queue.KindReservationCancelled, b, slot)
	return false, nil
}

// cancelTx performs the two writes of a cancellation inside the
// caller's transaction: flip the booking to CANCELLED (conditionally,
// in case a concurrent request got there first) and release the slot.
func (e *Engine) cancelTx(ctx context.Context, tx *sql.Tx, b *model.Booking) (alreadyCancelled bool, err error) {
	now := e.clock.Now().UTC()
	if err := e.bookings.CancelTx(ctx, tx, b.ID, now); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			// Lost a cancel/cancel race; the winner released the slot.
			return true, nil
		}
		return false, err
	}
	if err := e.slots.ReleaseTx(ctx, tx, b.SlotID, now); err != nil {
		return false, err
	}
	return false, nil
}

// Reschedule moves a confirmed booking onto a different OPEN slot of
// the same service.  Release of the old slot, claim of the new one and
// the booking's slot reference update share one transaction; if the
// claim reports a conflict the whole transaction rolls back, release
// included, leaving the original booking intact on its original slot.
// A reschedule never strands the client without a reservation.
func (e *Engine) Reschedule(ctx context.Context, req Requester, bookingID, newSlotID string) (*model.Booking, error) {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	b, err := e.bookings.GetByIDTx(ctx, tx, bookingID)
	if err != nil {
		return nil, err
	}
	oldSlot, err := e.slots.GetByIDTx(ctx, tx, b.SlotID)
	if err != nil {
		return nil, err
	}
	if !canAct(req, b.ClientID, oldSlot.ProviderID) {
		return nil, repository.ErrForbidden
	}
	if !b.Confirmed() {
		return nil, repository.ErrConflict
	}
	newSlot, err := e.slots.GetByIDTx(ctx, tx, newSlotID)
	if err != nil {
		return nil, err
	}
	if newSlot.ServiceID != oldSlot.ServiceID {
		return nil, ErrServiceMismatch
	}
	if !newSlot.Open() {
		return nil, repository.ErrConflict
	}

	now := e.clock.Now().UTC()
	if err := e.slots.ReleaseTx(ctx, tx, oldSlot.ID, now); err != nil {
		return nil, err
	}
	if err := e.slots.ClaimTx(ctx, tx, newSlot.ID, b.ID, now); err != nil {
		return nil, err
	}
	if err := e.bookings.UpdateSlotTx(ctx, tx, b.ID, newSlot.ID, now); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	b.SlotID = newSlot.ID
	b.UpdatedAt = now
	e.notify(queue.KindReservationRescheduled, b, newSlot)
	return b, nil
}

// notify publishes an outcome event after commit.  It deliberately
// uses a fresh context: cancellation of the HTTP request must not
// suppress a notification for a reservation that already committed.
func (e *Engine) notify(kind string, b *model.Booking, s *model.Slot) {
	ev := queue.ReservationEvent{
		Kind:          kind,
		BookingID:     b.ID,
		BookingStatus: b.Status,
		ClientID:      b.ClientID,
		SlotID:        s.ID,
		ProviderID:    s.ProviderID,
		ServiceID:     s.ServiceID,
		StartAt:       s.StartAt.Format(time.RFC3339),
		EndAt:         s.EndAt.Format(time.RFC3339),
		OccurredAt:    e.clock.Now().UTC().Format(time.RFC3339),
	}
	if kind != queue.KindReservationCancelled {
		ev.CancelLink = e.baseURL + "/v1/reservations/cancel?token=" + b.CancelToken
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.notifier.Publish(ctx, ev); err != nil {
		log.Printf("reservation: publish %s event failed: %v", kind, err)
	}
}
