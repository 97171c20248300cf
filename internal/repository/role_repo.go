package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"user-service/internal/model"
	"user-service/internal/service"
)

type RoleRepository struct {
	pool *pgxpool.Pool
}

var _ service.RoleStore = (*RoleRepository)(nil)

func NewRoleRepository(pool *pgxpool.Pool) *RoleRepository {
	return &RoleRepository{pool: pool}
}

func (r *RoleRepository) CreateRole(ctx context.Context, role model.Role) error {
	permsJSON, err := json.Marshal(role.Permissions)
	if err != nil {
		return fmt.Errorf("encode role permissions: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO roles (id, name, description, permissions, created_at)
		 VALUES ($1, $2, $3, $4::jsonb, $5)`,
		role.ID, role.Name, role.Description, permsJSON, role.CreatedAt)
	if err != nil {
		if uniqueViolation(err, "roles_name_key") {
			return model.ErrRoleExists
		}
		return fmt.Errorf("create role: %w", err)
	}
	return nil
}

func (r *RoleRepository) RoleByID(ctx context.Context, id string) (model.Role, error) {
	return r.findOne(ctx, `SELECT id, name, description, permissions, created_at FROM roles WHERE id = $1`, id)
}

func (r *RoleRepository) RoleByName(ctx context.Context, name string) (model.Role, error) {
	return r.findOne(ctx, `SELECT id, name, description, permissions, created_at FROM roles WHERE name = $1`, name)
}

func (r *RoleRepository) ListRoles(ctx context.Context) ([]model.Role, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, description, permissions, created_at FROM roles ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	defer rows.Close()

	return scanRoles(rows)
}

func (r *RoleRepository) Assign(ctx context.Context, userID, roleID string, at time.Time) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO user_roles (user_id, role_id, assigned_at) VALUES ($1, $2, $3)`,
		userID, roleID, at)
	if err != nil {
		if uniqueViolation(err, "user_roles_pkey") {
			return model.ErrRoleAssigned
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			if strings.Contains(pgErr.ConstraintName, "user_id") {
				return model.ErrUserNotFound
			}
			return model.ErrRoleNotFound
		}
		return fmt.Errorf("assign role: %w", err)
	}
	return nil
}

func (r *RoleRepository) Remove(ctx context.Context, userID, roleID string) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM user_roles WHERE user_id = $1 AND role_id = $2`, userID, roleID)
	if err != nil {
		return fmt.Errorf("remove role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrRoleNotAssigned
	}
	return nil
}

func (r *RoleRepository) findOne(ctx context.Context, query string, args ...any) (model.Role, error) {
	var (
		role      model.Role
		permsJSON []byte
	)
	err := r.pool.QueryRow(ctx, query, args...).
		Scan(&role.ID, &role.Name, &role.Description, &permsJSON, &role.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Role{}, model.ErrRoleNotFound
	}
	if err != nil {
		return model.Role{}, fmt.Errorf("find role: %w", err)
	}
	if err := json.Unmarshal(permsJSON, &role.Permissions); err != nil {
		return model.Role{}, fmt.Errorf("decode role permissions: %w", err)
	}
	return role, nil
}
