package domain

import (
	"encoding/json"
	"strings"
)

type User struct {
	ID       string `json:"_id"`
	Fullname string `json:"fullname"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	Role     Role   `json:"role"`
}

// Role is closed: every authorization boundary switches over these four.
type Role int

const (
	RoleGuest Role = iota
	RoleUser
	RoleAdmin
	RoleSuperAdmin
)

// ParseRole maps the backend role string. Unknown roles are guests.
func ParseRole(s string) Role {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "user":
		return RoleUser
	case "admin":
		return RoleAdmin
	case "superadmin":
		return RoleSuperAdmin
	default:
		return RoleGuest
	}
}

func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleAdmin:
		return "admin"
	case RoleSuperAdmin:
		return "superadmin"
	case RoleGuest:
		return "guest"
	default:
		return "guest"
	}
}

func (r Role) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

func (r *Role) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*r = ParseRole(s)
	return nil
}
