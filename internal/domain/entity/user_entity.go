package entity

import (
	"strings"
	"time"
)

// OTPChallenge is the active unconsumed one-time code on a user record.
// The code itself is stored as a bcrypt hash; only delivery ever sees plaintext.
type OTPChallenge struct {
	CodeHash  string
	ExpiresAt time.Time
}

// User is the aggregate root for the identity domain. One row per unique email.
// Optional fields are pointers so that absence is explicit rather than a zero
// value with ambiguous meaning.
//
// GoogleID set implies Verified: provider-asserted identities are trusted.
// Verified is a one-way transition and never reverts.
type User struct {
	ID        string
	Email     string
	Name      string
	DOB       *time.Time
	GoogleID  *string
	Verified  bool
	Challenge *OTPChallenge
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NormalizeEmail lowercases and trims an email the same way the store keys it.
// Every lookup and every write goes through this first.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
