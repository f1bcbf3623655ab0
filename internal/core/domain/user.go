package domain

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// SeedAdminUsername names the bootstrap account that can never be deleted.
const SeedAdminUsername = "admin"

// ValidRole reports whether role is one of the supported roles.
func ValidRole(role string) bool {
	return role == RoleUser || role == RoleAdmin
}

// User models an account able to sign in.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Principal is the authenticated identity behind a request.
type Principal struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// PrincipalOf returns the identity view of u.
func PrincipalOf(u *User) *Principal {
	return &Principal{ID: u.ID, Username: u.Username, Role: u.Role}
}

// Capability is something a principal may be allowed to do.
type Capability int

const (
	CapAuthenticated Capability = iota
	CapManageUsers
	CapManageAnyReservation
)

func (c Capability) String() string {
	switch c {
	case CapAuthenticated:
		return "authenticated"
	case CapManageUsers:
		return "manage_users"
	case CapManageAnyReservation:
		return "manage_any_reservation"
	default:
		return "unknown"
	}
}

// Can reports whether p holds capability c.
func (p *Principal) Can(c Capability) bool {
	if p == nil || p.ID == "" {
		return false
	}
	switch c {
	case CapAuthenticated:
		return true
	case CapManageUsers, CapManageAnyReservation:
		return p.Role == RoleAdmin
	default:
		return false
	}
}

// Owns reports whether p created r.
func (p *Principal) Owns(r *Reservation) bool {
	return p != nil && r != nil && p.ID != "" && r.UserID == p.ID
}
