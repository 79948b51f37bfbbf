package reservation

import "github.com/iliyamo/appointment-slot-reservation/internal/model"

// Requester identifies the authenticated caller of an engine
// operation.  ID and Role come straight from the JWT claims extracted
// by the middleware.
type Requester struct {
	ID   string
	Role string
}

// canAct is the single ownership predicate shared by cancel and
// reschedule: a client may act on their own booking, a provider on
// bookings against their own slots, and an admin on anything.
func canAct(req Requester, clientID, providerID string) bool {
	switch req.Role {
	case model.RoleAdmin:
		return true
	case model.RoleClient:
		return req.ID == clientID
	case model.RoleProvider:
		return req.ID == providerID
	}
	return false
}

// canBookFor guards create: a client may only book for themselves,
// while providers and admins may book on a client's behalf.
func canBookFor(req Requester, targetClientID string) bool {
	switch req.Role {
	case model.RoleAdmin, model.RoleProvider:
		return true
	case model.RoleClient:
		return req.ID == targetClientID
	}
	return false
}
