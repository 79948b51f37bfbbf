package model

// Requester roles carried in the JWT "role" claim.  CLIENT may only act
// on their own bookings, PROVIDER on bookings against their own slots,
// and ADMIN on anything.  User accounts themselves are managed by an
// external service; this core only consumes the identity and role.
const (
	RoleClient   = "CLIENT"
	RoleProvider = "PROVIDER"
	RoleAdmin    = "ADMIN"
)
