package repository

import (
	"context"

	"github.com/notely-app/notely-api/internal/domain/entity"
)

// NoteRepository stores notes. Every operation is scoped to the owning user:
// a note id belonging to another user behaves exactly like a missing id
// (ErrNotFound), so existence never leaks across identities.
type NoteRepository interface {
	Create(ctx context.Context, n *entity.Note) error
	GetByID(ctx context.Context, userID, id string) (*entity.Note, error)
	// ListByUser returns the user's notes, newest first.
	ListByUser(ctx context.Context, userID string) ([]*entity.Note, error)
	Update(ctx context.Context, n *entity.Note) error
	Delete(ctx context.Context, userID, id string) (*entity.Note, error)
}
