package otp

import (
	"crypto/rand"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/notely-app/notely-api/internal/domain/entity"
)

// DefaultTTL is how long an issued code stays valid.
const DefaultTTL = 10 * time.Minute

// Result of verifying a supplied code against the pending challenge.
type Result int

const (
	OK Result = iota
	// NoChallenge means no pending code exists for the user.
	NoChallenge
	// Mismatch means the supplied code does not match the pending one.
	// The challenge is left in place; resend must be invoked explicitly.
	Mismatch
	// Expired means the pending code's validity window has passed.
	Expired
)

func (r Result) String() string {
	switch r {
	case OK:
		return "ok"
	case NoChallenge:
		return "no_challenge"
	case Mismatch:
		return "mismatch"
	case Expired:
		return "expired"
	}
	return "unknown"
}

// Engine issues and verifies one-time codes with expiry.
type Engine struct {
	TTL time.Duration
}

func NewEngine(ttl time.Duration) *Engine {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Engine{TTL: ttl}
}

// Generate returns a 6-digit code in [100000, 999999].
func Generate() (string, error) {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	n := int(b[0])<<24 | int(b[1])<<16 | int(b[2])<<8 | int(b[3])
	if n < 0 {
		n = -n
	}
	return fmt.Sprintf("%06d", 100000+n%900000), nil
}

// Issue attaches a fresh challenge to the user, replacing any pending one, and
// returns the plaintext code for delivery. Only the bcrypt hash is stored.
func (e *Engine) Issue(u *entity.User, now time.Time) (string, error) {
	code, err := Generate()
	if err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	u.Challenge = &entity.OTPChallenge{
		CodeHash:  string(hash),
		ExpiresAt: now.Add(e.TTL),
	}
	return code, nil
}

// Verify checks the supplied code against the pending challenge.
// A code presented at the exact expiry instant is still valid.
// On OK the challenge is cleared and the user becomes verified; on any other
// result the user is left untouched.
func (e *Engine) Verify(u *entity.User, code string, now time.Time) Result {
	if u.Challenge == nil {
		return NoChallenge
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Challenge.CodeHash), []byte(code)) != nil {
		return Mismatch
	}
	if now.After(u.Challenge.ExpiresAt) {
		return Expired
	}
	u.Challenge = nil
	u.Verified = true
	return OK
}
