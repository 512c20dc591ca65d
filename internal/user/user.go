package user

import (
	"errors"
	"time"
)

// ErrNotFound is returned by any lookup that misses, so callers can
// distinguish a missing record from a storage failure.
var ErrNotFound = errors.New("user not found")

// Role is a closed enumeration. Registration only ever assigns RoleUser;
// promotion to admin happens through the admin API.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"-"`
	Role          Role      `json:"role"`
	EmailVerified bool      `json:"emailVerified"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}
