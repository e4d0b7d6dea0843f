package domain

import (
	"strings"
	"time"
)

// Role is the coarse-grained permission level of a user.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// authorityPrefix is prepended to a role name to form its authority string.
const authorityPrefix = "ROLE_"

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Authority returns the permission string derived from the role, e.g. "ROLE_ADMIN".
func (r Role) Authority() string {
	return authorityPrefix + string(r)
}

// User models a registered account.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Authorities returns the permission strings granted to the user.
func (u *User) Authorities() []string {
	return []string{u.Role.Authority()}
}

// NormalizeEmail trims surrounding whitespace and lower-cases the address.
// Every read and write of the credential store goes through it, so lookups
// are case-insensitive while stored values and token subjects stay exact.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
