package model

import "time"

// Role determines what a user may administer. Editors are scoped to their
// unit subtree; admins additionally manage users and units, and an admin
// with no unit at all has global scope.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// IsValid checks whether the role is a known value.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleEditor:
		return true
	}
	return false
}

// User is an account row. PasswordHash is never serialized.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"nome"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	UnitID       *string   `json:"unidade_id"`
	Active       bool      `json:"ativo"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Actor is the verified identity attached to a request by the auth
// middleware. The core trusts it; credential checks happen before an Actor
// exists.
type Actor struct {
	ID     string  `json:"id"`
	Email  string  `json:"email"`
	Role   Role    `json:"role"`
	UnitID *string `json:"unidade_id"`
}

// IsGlobalAdmin reports whether the actor is an administrator with no unit
// binding, which grants access to every unit.
func (a *Actor) IsGlobalAdmin() bool {
	return a.Role == RoleAdmin && a.UnitID == nil
}

// PasswordReset is a single-use password reset token. Only the SHA-256 of
// the token is stored; the plaintext leaves the server exactly once, inside
// the reset notification event.
type PasswordReset struct {
	TokenHash string    `json:"-"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
