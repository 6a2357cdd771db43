package repository

import (
	"context"
	"errors"

	"github.com/notely-app/notely-api/internal/domain/entity"
)

var (
	// ErrNotFound is returned when no record matches the lookup.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when an insert collides on a unique key.
	ErrDuplicate = errors.New("duplicate record")
)

// UserRepository is the identity store. Emails passed in must already be
// normalized (entity.NormalizeEmail).
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	GetByGoogleID(ctx context.Context, googleID string) (*entity.User, error)

	// Update performs an atomic read-modify-write of the record keyed by email:
	// the mutation fn runs against the current row and the result is persisted
	// as one unit, so concurrent OTP issue/verify never interleave half-written
	// challenges. Returns ErrNotFound if the email has no record; an error from
	// fn aborts the update without writing.
	Update(ctx context.Context, email string, fn func(*entity.User) error) (*entity.User, error)
}
