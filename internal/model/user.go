package model

import "time"

// Roles carried in the access token "role" claim.
const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
)

// User is an account as seen by the ledger.  Accounts are created and
// edited elsewhere; the ledger only resolves them by id or e-mail to
// validate invitations and to address notifications.
//
// Fields:
//
//	ID           – users.id
//	Email        – unique, lower-cased e-mail address.
//	PasswordHash – bcrypt hash, never serialized.
//	Role         – ADMIN or USER.
//	IsActive     – inactive accounts cannot be invited or log in.
type User struct {
	ID           uint64    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         string    `db:"role" json:"role"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}
