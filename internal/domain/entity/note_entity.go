package entity

import "time"

// Note belongs to exactly one user; all queries are scoped by UserID so note
// ids never leak across identities.
type Note struct {
	ID        string
	UserID    string
	Title     string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
