package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/appointment-slot-reservation/internal/handler"
	"github.com/iliyamo/appointment-slot-reservation/internal/model"
	"github.com/iliyamo/appointment-slot-reservation/internal/repository"
	"github.com/iliyamo/appointment-slot-reservation/internal/reservation"
	"github.com/iliyamo/appointment-slot-reservation/internal/testfixtures"
)

type handlerEnv struct {
	echo    *echo.Echo
	handler *handler.ReservationHandler
	slots   *repository.SlotRepo
	clock   *testfixtures.Clock
}

func newHandlerEnv(t *testing.T) *handlerEnv {
	t.Helper()
	db := testfixtures.NewDB(t)
	slots := repository.NewSlotRepo(db)
	bookings := repository.NewBookingRepo(db)
	clock := testfixtures.NewClock(time.Time{})
	eng := reservation.NewEngine(db, slots, bookings, nil, clock, "http://localhost:8080")
	return &handlerEnv{
		echo:    echo.New(),
		handler: handler.NewReservationHandler(eng, bookings),
		slots:   slots,
		clock:   clock,
	}
}

// request builds an echo context the way the JWT middleware would leave
// it: user_id and role set from the token claims.
func (env *handlerEnv) request(method, target, body, userID, role string) (echo.Context, *httptest.ResponseRecorder) {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := env.echo.NewContext(req, rec)
	if userID != "" {
		c.Set("user_id", userID)
		c.Set("role", role)
	}
	return c, rec
}

func (env *handlerEnv) openSlot(t *testing.T) *model.Slot {
	t.Helper()
	now := env.clock.Now()
	s := &model.Slot{
		ID:         uuid.NewString(),
		ProviderID: uuid.NewString(),
		ServiceID:  uuid.NewString(),
		StartAt:    now.Add(time.Hour),
		EndAt:      now.Add(90 * time.Minute),
	}
	if err := env.slots.Create(t.Context(), s, now); err != nil {
		t.Fatalf("slot Create failed: %v", err)
	}
	return s
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
	return m
}

func TestReservationHandler_Create(t *testing.T) {
	env := newHandlerEnv(t)
	slot := env.openSlot(t)
	clientID := uuid.NewString()

	body := `{"slot_id":"` + slot.ID + `"}`
	c, rec := env.request(http.MethodPost, "/v1/reservations", body, clientID, model.RoleClient)
	if err := env.handler.Create(c); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeBody(t, rec)
	if resp["client_id"] != clientID || resp["slot_id"] != slot.ID {
		t.Errorf("unexpected booking payload: %v", resp)
	}
	if tok, _ := resp["cancel_token"].(string); len(tok) != 64 {
		t.Errorf("expected 64 character cancel token, got %v", resp["cancel_token"])
	}

	// Booking the same slot again conflicts.
	c, rec = env.request(http.MethodPost, "/v1/reservations", body, uuid.NewString(), model.RoleClient)
	if err := env.handler.Create(c); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409 for booked slot, got %d", rec.Code)
	}
}

func TestReservationHandler_Create_Validation(t *testing.T) {
	env := newHandlerEnv(t)

	c, rec := env.request(http.MethodPost, "/v1/reservations", `{}`, uuid.NewString(), model.RoleClient)
	if err := env.handler.Create(c); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing slot_id, got %d", rec.Code)
	}

	// No identity in context at all.
	c, rec = env.request(http.MethodPost, "/v1/reservations", `{"slot_id":"x"}`, "", "")
	if err := env.handler.Create(c); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without identity, got %d", rec.Code)
	}
}

func TestReservationHandler_CancelByToken(t *testing.T) {
	env := newHandlerEnv(t)
	slot := env.openSlot(t)
	clientID := uuid.NewString()

	c, rec := env.request(http.MethodPost, "/v1/reservations",
		`{"slot_id":"`+slot.ID+`"}`, clientID, model.RoleClient)
	if err := env.handler.Create(c); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	token, _ := decodeBody(t, rec)["cancel_token"].(string)
	if token == "" {
		t.Fatal("booking response carried no cancel token")
	}

	c, rec = env.request(http.MethodPost, "/v1/reservations/cancel?token="+token, "", "", "")
	if err := env.handler.CancelByToken(c); err != nil {
		t.Fatalf("CancelByToken returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if resp := decodeBody(t, rec); resp["already_cancelled"] != false {
		t.Errorf("expected already_cancelled=false, got %v", resp)
	}

	c, rec = env.request(http.MethodPost, "/v1/reservations/cancel", "", "", "")
	if err := env.handler.CancelByToken(c); err != nil {
		t.Fatalf("CancelByToken returned error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing token, got %d", rec.Code)
	}

	c, rec = env.request(http.MethodPost, "/v1/reservations/cancel?token="+strings.Repeat("cd", 32), "", "", "")
	if err := env.handler.CancelByToken(c); err != nil {
		t.Fatalf("CancelByToken returned error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown token, got %d", rec.Code)
	}
}

func TestReservationHandler_Cancel(t *testing.T) {
	env := newHandlerEnv(t)
	slot := env.openSlot(t)
	clientID := uuid.NewString()

	c, rec := env.request(http.MethodPost, "/v1/reservations",
		`{"slot_id":"`+slot.ID+`"}`, clientID, model.RoleClient)
	if err := env.handler.Create(c); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	bookingID, _ := decodeBody(t, rec)["id"].(string)

	c, rec = env.request(http.MethodDelete, "/v1/reservations/"+bookingID, "", uuid.NewString(), model.RoleClient)
	c.SetParamNames("id")
	c.SetParamValues(bookingID)
	if err := env.handler.Cancel(c); err != nil {
		t.Fatalf("Cancel returned error: %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 for foreign client, got %d", rec.Code)
	}

	c, rec = env.request(http.MethodDelete, "/v1/reservations/"+bookingID, "", clientID, model.RoleClient)
	c.SetParamNames("id")
	c.SetParamValues(bookingID)
	if err := env.handler.Cancel(c); err != nil {
		t.Fatalf("Cancel returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}
