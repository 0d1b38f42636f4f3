package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gamestore/gamestore-admin/internal/shared"
)

// Repository defines persistence operations for auth module.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (Account, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// FindByEmail fetches an account by email, ignoring case.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (Account, error) {
	const q = `SELECT id, email, name, password_hash, is_active FROM users WHERE LOWER(email) = $1`
	var a Account
	err := r.pool.QueryRow(ctx, q, strings.ToLower(strings.TrimSpace(email))).
		Scan(&a.ID, &a.Email, &a.Name, &a.PasswordHash, &a.IsActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, shared.ErrNotFound
	}
	if err != nil {
		return Account{}, err
	}
	return a, nil
}

var _ Repository = (*PGRepository)(nil)
