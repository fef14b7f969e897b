package domain

import (
	"strings"
	"time"
)

// Role identifies which group of views a session may reach.
type Role string

const (
	RoleNone     Role = ""
	RoleConsumer Role = "consumer"
	RoleFarmer   Role = "farmer"
	RoleAdmin    Role = "admin"
)

// ParseRole accepts the wire spelling of a role, case-insensitively.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleConsumer:
		return RoleConsumer, nil
	case RoleFarmer:
		return RoleFarmer, nil
	case RoleAdmin:
		return RoleAdmin, nil
	}
	return RoleNone, ErrInvalidRole
}

// User models the signed-in account as returned by the remote API.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FullName  string `json:"full_name"`
	Role      Role   `json:"role"`
	Phone     string `json:"phone,omitempty"`
	FarmName  string `json:"farm_name,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// Session is the authentication state carried by the navigator.
// The zero value is an unauthenticated session.
type Session struct {
	Role      Role
	User      *User
	ExpiresAt time.Time
}

// IsAuthenticated reports whether the session holds a usable credential.
func (s Session) IsAuthenticated() bool {
	return s.Role != RoleNone && s.User != nil
}
