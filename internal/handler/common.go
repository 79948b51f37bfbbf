package handler // handler defines http handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/appointment-slot-reservation/internal/repository"
	"github.com/iliyamo/appointment-slot-reservation/internal/reservation"
)

// requesterFrom extracts the authenticated identity stored in the echo
// context by the JWT middleware.  Both claims are plain strings: the
// subject is a UUID issued by the external auth service and the role
// is one of CLIENT, PROVIDER or ADMIN.
func requesterFrom(c echo.Context) (reservation.Requester, error) {
	id, ok := c.Get("user_id").(string)
	if !ok || id == "" {
		return reservation.Requester{}, errors.New("missing user_id in context")
	}
	role, ok := c.Get("role").(string)
	if !ok || role == "" {
		return reservation.Requester{}, errors.New("missing role in context")
	}
	return reservation.Requester{ID: id, Role: role}, nil
}

// writeEngineError maps the engine's sentinel errors onto the HTTP
// taxonomy: 404 for missing rows, 409 for lost claims, 403 for
// ownership failures, 400 for validation, 500 for everything else.
// Conflicts are definitive; the response invites the caller to pick
// another slot rather than to retry the same one.
func writeEngineError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrSlotNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "slot not found"})
	case errors.Is(err, repository.ErrBookingNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "slot is no longer available"})
	case errors.Is(err, reservation.ErrSlotInPast):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "slot start time is in the past"})
	case errors.Is(err, reservation.ErrServiceMismatch):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "new slot offers a different service"})
	case errors.Is(err, reservation.ErrTokenInvalid):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid or expired token"})
	default:
		c.Logger().Errorf("reservation operation failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}
