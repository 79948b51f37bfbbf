package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/appointment-slot-reservation/internal/model"
	"github.com/iliyamo/appointment-slot-reservation/internal/repository"
	"github.com/iliyamo/appointment-slot-reservation/internal/reservation"
)

// ReservationHandler exposes the reservation engine over HTTP.  All
// methods except CancelByToken assume that JWT authentication and role
// validation have already been performed by middleware; CancelByToken
// is deliberately unauthenticated because its caller is whoever holds
// the emailed link.
type ReservationHandler struct {
	Engine   *reservation.Engine
	Bookings *repository.BookingRepo
}

// NewReservationHandler constructs a ReservationHandler.  Both
// dependencies must be non-nil.
func NewReservationHandler(engine *reservation.Engine, bookings *repository.BookingRepo) *ReservationHandler {
	if engine == nil || bookings == nil {
		panic("nil dependency passed to NewReservationHandler")
	}
	return &ReservationHandler{Engine: engine, Bookings: bookings}
}

// bookingResponse is the JSON shape returned for a booking.  The
// cancellation token is included so the booking owner can build the
// same link the confirmation email carries.
type bookingResponse struct {
	ID             string `json:"id"`
	ClientID       string `json:"client_id"`
	SlotID         string `json:"slot_id"`
	Status         string `json:"status"`
	CancelToken    string `json:"cancel_token"`
	TokenExpiresAt string `json:"token_expires_at"`
	CreatedAt      string `json:"created_at"`
}

func toBookingResponse(b *model.Booking) bookingResponse {
	return bookingResponse{
		ID:             b.ID,
		ClientID:       b.ClientID,
		SlotID:         b.SlotID,
		Status:         b.Status,
		CancelToken:    b.CancelToken,
		TokenExpiresAt: b.TokenExpiresAt.Format(time.RFC3339),
		CreatedAt:      b.CreatedAt.Format(time.RFC3339),
	}
}

// Create handles POST /v1/reservations.  The body must contain the
// slot to claim; client_id is optional and defaults to the requester,
// which is the only value a CLIENT role may use.  Returns 201 with the
// new booking, 404 when the slot does not exist, 409 when it is no
// longer OPEN, 403 on authorization failure and 400 for invalid input.
func (h *ReservationHandler) Create(c echo.Context) error {
	req, err := requesterFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		SlotID   string `json:"slot_id"`
		ClientID string `json:"client_id"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.SlotID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "slot_id is required"})
	}
	clientID := body.ClientID
	if clientID == "" {
		clientID = req.ID
	}
	b, err := h.Engine.Create(c.Request().Context(), req, clientID, body.SlotID)
	if err != nil {
		return writeEngineError(c, err)
	}
	return c.JSON(http.StatusCreated, toBookingResponse(b))
}

// Cancel handles DELETE /v1/reservations/:id.  Cancellation is
// permitted to the booking's client, the provider owning the slot and
// administrators.  Cancelling twice is not an error: the second call
// responds 200 with already_cancelled set.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	req, err := requesterFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookingID := c.Param("id")
	if bookingID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	already, err := h.Engine.Cancel(c.Request().Context(), req, bookingID)
	if err != nil {
		return writeEngineError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status":            "cancelled",
		"already_cancelled": already,
	})
}

// CancelByToken handles POST /v1/reservations/cancel.  The token may
// arrive as a query parameter (the emailed link) or in a JSON body.
// A missing token and an invalid or expired one are both 400; the
// endpoint never reveals whether a given token ever existed.
func (h *ReservationHandler) CancelByToken(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		var body struct {
			Token string `json:"token"`
		}
		if err := c.Bind(&body); err == nil {
			token = body.Token
		}
	}
	if token == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token is required"})
	}
	already, err := h.Engine.CancelByToken(c.Request().Context(), token)
	if err != nil {
		return writeEngineError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status":            "cancelled",
		"already_cancelled": already,
	})
}

// Reschedule handles POST /v1/reservations/:id/reschedule.  The body
// names the new slot; authorization matches Cancel.  On conflict the
// original booking is untouched and 409 is returned, so the caller can
// offer the user a different slot without risking their reservation.
func (h *ReservationHandler) Reschedule(c echo.Context) error {
	req, err := requesterFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookingID := c.Param("id")
	if bookingID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	var body struct {
		NewSlotID string `json:"new_slot_id"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.NewSlotID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "new_slot_id is required"})
	}
	b, err := h.Engine.Reschedule(c.Request().Context(), req, bookingID, body.NewSlotID)
	if err != nil {
		return writeEngineError(c, err)
	}
	return c.JSON(http.StatusOK, toBookingResponse(b))
}

// ListMine handles GET /v1/my-reservations.  It returns all bookings
// made for the current user along with the slot window each occupies.
// When no bookings exist, it returns an empty array.
func (h *ReservationHandler) ListMine(c echo.Context) error {
	req, err := requesterFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	details, err := h.Bookings.ListByClient(c.Request().Context(), req.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load reservations"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": details})
}
