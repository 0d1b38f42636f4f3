package rbac

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gamestore/gamestore-admin/internal/platform/db"
	"github.com/gamestore/gamestore-admin/internal/shared"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS users (
	id            UUID PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE,
	name          TEXT NOT NULL,
	password_hash TEXT NOT NULL DEFAULT '',
	is_active     BOOLEAN NOT NULL DEFAULT TRUE,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS roles (
	id         UUID PRIMARY KEY,
	name       TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE UNIQUE INDEX IF NOT EXISTS uq_roles_name_ci ON roles (LOWER(name));
CREATE TABLE IF NOT EXISTS role_claims (
	role_id     UUID NOT NULL REFERENCES roles(id) ON DELETE CASCADE,
	claim_type  TEXT NOT NULL,
	claim_value TEXT NOT NULL,
	PRIMARY KEY (role_id, claim_type, claim_value)
);
CREATE TABLE IF NOT EXISTS user_roles (
	user_id    UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	role_id    UUID NOT NULL REFERENCES roles(id) ON DELETE CASCADE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (user_id, role_id)
);
`

// PGStore implements Store using PostgreSQL.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore constructs a PostgreSQL backed store.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// EnsureSchema creates the RBAC tables when missing.
func (s *PGStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaDDL); err != nil {
		return fmt.Errorf("rbac: ensure schema: %w", err)
	}
	return nil
}

func (s *PGStore) FindUserByID(ctx context.Context, id uuid.UUID) (User, error) {
	var u User
	err := s.pool.QueryRow(ctx, `SELECT id, email, name, is_active FROM users WHERE id = $1`, id).
		Scan(&u.ID, &u.Email, &u.Name, &u.IsActive)
	if err != nil {
		return User{}, notFound(err, "user", id.String())
	}
	return u, nil
}

func (s *PGStore) GetRolesForUser(ctx context.Context, userID uuid.UUID) ([]Role, error) {
	if _, err := s.FindUserByID(ctx, userID); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, `
		SELECT r.id, r.name, r.created_at, r.updated_at
		FROM roles r
		JOIN user_roles ur ON ur.role_id = r.id
		WHERE ur.user_id = $1
		ORDER BY r.name`, userID)
	if err != nil {
		return nil, err
	}
	return collectRoles(rows)
}

func (s *PGStore) SetUserRoles(ctx context.Context, userID uuid.UUID, roleIDs []uuid.UUID) error {
	return db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("rbac: user %s: %w", userID, shared.ErrNotFound)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM user_roles WHERE user_id = $1`, userID); err != nil {
			return err
		}
		for _, roleID := range roleIDs {
			tag, err := tx.Exec(ctx, `
				INSERT INTO user_roles (user_id, role_id)
				SELECT $1, id FROM roles WHERE id = $2
				ON CONFLICT DO NOTHING`, userID, roleID)
			if err != nil {
				return err
			}
			if tag.RowsAffected() == 0 {
				var known bool
				if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM roles WHERE id = $1)`, roleID).Scan(&known); err != nil {
					return err
				}
				if !known {
					return fmt.Errorf("rbac: role %s: %w", roleID, shared.ErrNotFound)
				}
			}
		}
		return nil
	})
}

func (s *PGStore) FindRoleByName(ctx context.Context, name string) (Role, error) {
	var r Role
	err := s.pool.QueryRow(ctx, `SELECT id, name, created_at, updated_at FROM roles WHERE name = $1`, name).
		Scan(&r.ID, &r.Name, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return Role{}, notFound(err, "role", name)
	}
	return r, nil
}

func (s *PGStore) FindRoleByID(ctx context.Context, id uuid.UUID) (Role, error) {
	var r Role
	err := s.pool.QueryRow(ctx, `SELECT id, name, created_at, updated_at FROM roles WHERE id = $1`, id).
		Scan(&r.ID, &r.Name, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return Role{}, notFound(err, "role", id.String())
	}
	return r, nil
}

func (s *PGStore) ListRoles(ctx context.Context) ([]Role, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, created_at, updated_at FROM roles ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return collectRoles(rows)
}

func (s *PGStore) CreateRole(ctx context.Context, name string) (Role, error) {
	var r Role
	err := s.pool.QueryRow(ctx, `
		INSERT INTO roles (id, name)
		VALUES ($1, $2)
		RETURNING id, name, created_at, updated_at`, uuid.New(), strings.TrimSpace(name)).
		Scan(&r.ID, &r.Name, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Role{}, fmt.Errorf("rbac: role %q: %w", name, shared.ErrDuplicate)
		}
		return Role{}, err
	}
	return r, nil
}

func (s *PGStore) UpdateRole(ctx context.Context, id uuid.UUID, name string) (Role, error) {
	var r Role
	err := s.pool.QueryRow(ctx, `
		UPDATE roles SET name = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING id, name, created_at, updated_at`, id, strings.TrimSpace(name)).
		Scan(&r.ID, &r.Name, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Role{}, fmt.Errorf("rbac: role %q: %w", name, shared.ErrDuplicate)
		}
		return Role{}, notFound(err, "role", id.String())
	}
	return r, nil
}

func (s *PGStore) DeleteRole(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("rbac: role %s: %w", id, shared.ErrNotFound)
	}
	return nil
}

func (s *PGStore) GetClaimsForRole(ctx context.Context, roleID uuid.UUID) ([]Claim, error) {
	if _, err := s.FindRoleByID(ctx, roleID); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, `
		SELECT claim_type, claim_value FROM role_claims
		WHERE role_id = $1
		ORDER BY claim_type, claim_value`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var claims []Claim
	for rows.Next() {
		var c Claim
		if err := rows.Scan(&c.Type, &c.Value); err != nil {
			return nil, err
		}
		claims = append(claims, c)
	}
	return claims, rows.Err()
}

func (s *PGStore) AddClaim(ctx context.Context, roleID uuid.UUID, claim Claim) error {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO role_claims (role_id, claim_type, claim_value)
		SELECT id, $2, $3 FROM roles WHERE id = $1
		ON CONFLICT DO NOTHING`, roleID, claim.Type, claim.Value)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		// Either the claim already exists or the role is missing.
		_, err := s.FindRoleByID(ctx, roleID)
		return err
	}
	return nil
}

func (s *PGStore) RemoveClaim(ctx context.Context, roleID uuid.UUID, claim Claim) error {
	if _, err := s.pool.Exec(ctx, `
		DELETE FROM role_claims
		WHERE role_id = $1 AND claim_type = $2 AND claim_value = $3`, roleID, claim.Type, claim.Value); err != nil {
		return err
	}
	return nil
}

func collectRoles(rows pgx.Rows) ([]Role, error) {
	defer rows.Close()
	var roles []Role
	for rows.Next() {
		var r Role
		if err := rows.Scan(&r.ID, &r.Name, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		roles = append(roles, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return roles, nil
}

func notFound(err error, kind, key string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("rbac: %s %s: %w", kind, key, shared.ErrNotFound)
	}
	return err
}

var _ Store = (*PGStore)(nil)
