package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"user-service/internal/model"
	"user-service/internal/service"
)

type UserRepository struct {
	pool *pgxpool.Pool
}

var _ service.UserStore = (*UserRepository)(nil)

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

const userColumns = `id, email, username, password_hash, first_name, last_name,
		        is_active, is_verified, created_at, updated_at`

// Create inserts the user and, when a role with defaultRole exists, its
// assignment in one transaction. A missing default role is not an error.
func (r *UserRepository) Create(ctx context.Context, u model.User, defaultRole string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create user: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`INSERT INTO users (id, email, username, password_hash, first_name, last_name,
		                    is_active, is_verified, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		u.ID, u.Email, u.Username, u.PasswordHash, u.FirstName, u.LastName,
		u.IsActive, u.IsVerified, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if uniqueViolation(err, "users_email_key") {
			return model.ErrEmailTaken
		}
		if uniqueViolation(err, "users_username_key") {
			return model.ErrUsernameTaken
		}
		return fmt.Errorf("create user: %w", err)
	}

	var roleID string
	err = tx.QueryRow(ctx, `SELECT id FROM roles WHERE name = $1`, defaultRole).Scan(&roleID)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		// No default role seeded; registration proceeds without one.
	case err != nil:
		return fmt.Errorf("lookup default role: %w", err)
	default:
		if _, err := tx.Exec(ctx,
			`INSERT INTO user_roles (user_id, role_id, assigned_at) VALUES ($1, $2, $3)`,
			u.ID, roleID, u.CreatedAt); err != nil {
			return fmt.Errorf("assign default role: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit create user: %w", err)
	}
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (model.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (model.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

// FindByEmailOrUsername prefers the email match when both values belong to
// different existing users.
func (r *UserRepository) FindByEmailOrUsername(ctx context.Context, email, username string) (model.User, error) {
	return r.findOne(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE email = $1 OR username = $2
		 ORDER BY (email = $1) DESC
		 LIMIT 1`, email, username)
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`,
		id, passwordHash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) RolesForUser(ctx context.Context, id string) ([]model.Role, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT r.id, r.name, r.description, r.permissions, r.created_at
		 FROM roles r
		 JOIN user_roles ur ON ur.role_id = r.id
		 WHERE ur.user_id = $1
		 ORDER BY r.name`, id)
	if err != nil {
		return nil, fmt.Errorf("roles for user: %w", err)
	}
	defer rows.Close()

	return scanRoles(rows)
}

func (r *UserRepository) findOne(ctx context.Context, query string, args ...any) (model.User, error) {
	var u model.User
	err := r.pool.QueryRow(ctx, query, args...).
		Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.FirstName, &u.LastName,
			&u.IsActive, &u.IsVerified, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, model.ErrUserNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}

func scanRoles(rows pgx.Rows) ([]model.Role, error) {
	roles := []model.Role{}
	for rows.Next() {
		var (
			role      model.Role
			permsJSON []byte
		)
		if err := rows.Scan(&role.ID, &role.Name, &role.Description, &permsJSON, &role.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan role: %w", err)
		}
		if err := json.Unmarshal(permsJSON, &role.Permissions); err != nil {
			return nil, fmt.Errorf("decode role permissions: %w", err)
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

func uniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "23505" && strings.Contains(pgErr.ConstraintName, constraint)
}
