package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/notely-app/notely-api/internal/domain/entity"
	"github.com/notely-app/notely-api/internal/domain/repository"
)

const queryTimeout = 5 * time.Second

const userColumns = `id, email, name, dob, google_id, is_verified, otp_hash, otp_expires, created_at, updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*entity.User, error) {
	u := &entity.User{}
	var otpHash *string
	var otpExpires *time.Time
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.DOB, &u.GoogleID, &u.Verified,
		&otpHash, &otpExpires, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	if otpHash != nil && otpExpires != nil {
		u.Challenge = &entity.OTPChallenge{CodeHash: *otpHash, ExpiresAt: *otpExpires}
	}
	return u, nil
}

func challengeColumns(u *entity.User) (hash *string, expires *time.Time) {
	if u.Challenge != nil {
		hash = &u.Challenge.CodeHash
		expires = &u.Challenge.ExpiresAt
	}
	return hash, expires
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	hash, expires := challengeColumns(u)
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (email, name, dob, google_id, is_verified, otp_hash, otp_expires)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`, u.Email, u.Name, u.DOB, u.GoogleID, u.Verified, hash, expires)

	if err := row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return repository.ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	return scanUser(r.pool.QueryRow(ctx, `
		SELECT `+userColumns+` FROM users WHERE id = $1
	`, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	return scanUser(r.pool.QueryRow(ctx, `
		SELECT `+userColumns+` FROM users WHERE email = $1
	`, email))
}

func (r *UserRepository) GetByGoogleID(ctx context.Context, googleID string) (*entity.User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	return scanUser(r.pool.QueryRow(ctx, `
		SELECT `+userColumns+` FROM users WHERE google_id = $1
	`, googleID))
}

// Update runs fn against the current row under a row lock and persists the
// result in the same transaction, so concurrent challenge writes on one email
// serialize instead of interleaving.
func (r *UserRepository) Update(ctx context.Context, email string, fn func(*entity.User) error) (*entity.User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	u, err := scanUser(tx.QueryRow(ctx, `
		SELECT `+userColumns+` FROM users WHERE email = $1 FOR UPDATE
	`, email))
	if err != nil {
		return nil, err
	}

	if err := fn(u); err != nil {
		return nil, err
	}

	u.UpdatedAt = time.Now()
	hash, expires := challengeColumns(u)
	if _, err := tx.Exec(ctx, `
		UPDATE users
		SET name = $1, dob = $2, google_id = $3, is_verified = $4,
		    otp_hash = $5, otp_expires = $6, updated_at = $7
		WHERE email = $8
	`, u.Name, u.DOB, u.GoogleID, u.Verified, hash, expires, u.UpdatedAt, email); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return u, nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
