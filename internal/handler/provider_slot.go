package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/appointment-slot-reservation/internal/model"
	"github.com/iliyamo/appointment-slot-reservation/internal/repository"
)

// SlotHandler lets providers publish and withdraw bookable windows and
// lets clients browse what is open.  Occupancy itself is never touched
// here; claiming and releasing belong to the reservation engine.
type SlotHandler struct {
	Slots *repository.SlotRepo
}

// NewSlotHandler constructs a SlotHandler with a non-nil repository.
func NewSlotHandler(slots *repository.SlotRepo) *SlotHandler {
	if slots == nil {
		panic("nil repository passed to NewSlotHandler")
	}
	return &SlotHandler{Slots: slots}
}

// slotResponse is the JSON shape returned for a slot.
type slotResponse struct {
	ID         string  `json:"id"`
	ProviderID string  `json:"provider_id"`
	ServiceID  string  `json:"service_id"`
	StaffID    *string `json:"staff_id,omitempty"`
	StartAt    string  `json:"start_at"`
	EndAt      string  `json:"end_at"`
	Status     string  `json:"status"`
}

func toSlotResponse(s *model.Slot) slotResponse {
	return slotResponse{
		ID:         s.ID,
		ProviderID: s.ProviderID,
		ServiceID:  s.ServiceID,
		StaffID:    s.StaffID,
		StartAt:    s.StartAt.Format(time.RFC3339),
		EndAt:      s.EndAt.Format(time.RFC3339),
		Status:     s.Status,
	}
}

// Create handles POST /v1/slots.  The authenticated provider publishes
// a new OPEN window.  The body carries service_id, optional staff_id
// and RFC3339 start/end timestamps.  Malformed times or a window whose
// start is not strictly before its end are 400; publishing a second
// window at an identical start time is 409 via the unique constraint.
func (h *SlotHandler) Create(c echo.Context) error {
	req, err := requesterFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		ServiceID string  `json:"service_id"`
		StaffID   *string `json:"staff_id"`
		StartAt   string  `json:"start_at"`
		EndAt     string  `json:"end_at"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.ServiceID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "service_id is required"})
	}
	start, err := time.Parse(time.RFC3339, body.StartAt)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid start_at"})
	}
	end, err := time.Parse(time.RFC3339, body.EndAt)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid end_at"})
	}
	if !start.Before(end) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "start_at must be before end_at"})
	}
	slot := &model.Slot{
		ID:         uuid.NewString(),
		ProviderID: req.ID,
		ServiceID:  body.ServiceID,
		StaffID:    body.StaffID,
		StartAt:    start.UTC(),
		EndAt:      end.UTC(),
	}
	if err := h.Slots.Create(c.Request().Context(), slot, time.Now().UTC()); err != nil {
		if err == repository.ErrConflict {
			return c.JSON(http.StatusConflict, echo.Map{"error": "a slot already starts at this time"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create slot"})
	}
	return c.JSON(http.StatusCreated, toSlotResponse(slot))
}

// Delete handles DELETE /v1/slots/:id.  A slot can be withdrawn only
// by its owning provider and only while it is still OPEN; a BOOKED
// slot must be cancelled through the reservation engine first.
func (h *SlotHandler) Delete(c echo.Context) error {
	req, err := requesterFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	slotID := c.Param("id")
	if slotID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid slot id"})
	}
	switch err := h.Slots.DeleteOpen(c.Request().Context(), slotID, req.ID); err {
	case nil:
		return c.NoContent(http.StatusNoContent)
	case repository.ErrSlotNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"error": "slot not found"})
	case repository.ErrForbidden:
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case repository.ErrConflict:
		return c.JSON(http.StatusConflict, echo.Map{"error": "slot is booked"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete slot"})
	}
}

// ListOpen handles GET /v1/slots?provider_id=...  It is the public
// browse surface: anyone can see a provider's OPEN windows.
func (h *SlotHandler) ListOpen(c echo.Context) error {
	providerID := c.QueryParam("provider_id")
	if providerID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "provider_id is required"})
	}
	slots, err := h.Slots.ListOpenByProvider(c.Request().Context(), providerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load slots"})
	}
	items := make([]slotResponse, 0, len(slots))
	for i := range slots {
		items = append(items, toSlotResponse(&slots[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// ListMine handles GET /v1/my-slots.  The authenticated provider sees
// all of their windows, booked and open.
func (h *SlotHandler) ListMine(c echo.Context) error {
	req, err := requesterFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	slots, err := h.Slots.ListByProvider(c.Request().Context(), req.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load slots"})
	}
	items := make([]slotResponse, 0, len(slots))
	for i := range slots {
		items = append(items, toSlotResponse(&slots[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
