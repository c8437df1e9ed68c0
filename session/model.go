package session

import "time"

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User is the cached profile of the signed-in account. Field names follow the
// backend's JSON representation.
type User struct {
	ID          string    `json:"id,omitempty"`
	Username    string    `json:"username"`
	FullName    string    `json:"full_name,omitempty"`
	Email       string    `json:"email"`
	Role        string    `json:"role"`
	PhoneNumber string    `json:"phone_number,omitempty"`
	Address     string    `json:"address,omitempty"`
	Pincode     string    `json:"pincode,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitzero"`
}

// IsAdmin reports whether u carries the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// State is the externally visible phase of a session.
type State int

const (
	StateUnauthenticated State = iota
	StateAuthenticated
	// StateRenewing means a refresh request is in flight.
	StateRenewing
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	case StateRenewing:
		return "renewing"
	default:
		return "unknown"
	}
}

// Snapshot is a consistent read of the session for diagnostics.
type Snapshot struct {
	State           State
	User            *User
	AuthReady       bool
	ExpiresAt       time.Time
	RenewAt         time.Time
	RenewalArmed    bool
	Generation      uint64
	IsAuthenticated bool
	IsAdmin         bool
}
