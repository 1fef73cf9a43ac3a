package resetcode

import (
	"time"

	"github.com/google/uuid"
)

// Issuer identifies who caused a code to be issued
type Issuer string

const (
	IssuerEmail       Issuer = "EMAIL"
	IssuerAdmin       Issuer = "ADMIN"
	IssuerJuniorAdmin Issuer = "JUNIOR_ADMIN"
)

// Code is a stored password-reset code. Only the salted hash of the 6-digit
// code is persisted; the plaintext exists once, in the issue response.
// Terminal states are consumed or invalidated; rows are never deleted.
type Code struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	CodeHash       string
	ExpiresAt      time.Time
	Attempts       int
	ConsumedAt     *time.Time
	InvalidatedAt  *time.Time
	IssuedBy       Issuer
	IssuedByUserID *uuid.UUID
	CreatedAt      time.Time
}

// ActiveAt reports whether the code can still be redeemed at the given time
func (c Code) ActiveAt(now time.Time) bool {
	return c.ConsumedAt == nil && c.InvalidatedAt == nil && c.ExpiresAt.After(now)
}

// CreateCodeParams contains parameters for storing a new code
type CreateCodeParams struct {
	UserID         uuid.UUID
	CodeHash       string
	ExpiresAt      time.Time
	IssuedBy       Issuer
	IssuedByUserID *uuid.UUID
}
