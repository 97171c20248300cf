// Package service implements the authentication and role-management
// business logic over pluggable storage.
package service

import (
	"context"
	"time"

	"user-service/internal/model"
)

// UserStore persists user records. Create runs the insert and the default
// role assignment in a single transaction.
type UserStore interface {
	Create(ctx context.Context, u model.User, defaultRole string) error
	FindByID(ctx context.Context, id string) (model.User, error)
	FindByEmail(ctx context.Context, email string) (model.User, error)
	// FindByEmailOrUsername returns any user matching either value, used for
	// duplicate detection before registration.
	FindByEmailOrUsername(ctx context.Context, email, username string) (model.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	RolesForUser(ctx context.Context, id string) ([]model.Role, error)
}

// RoleStore persists roles and user-role assignments.
type RoleStore interface {
	CreateRole(ctx context.Context, r model.Role) error
	RoleByID(ctx context.Context, id string) (model.Role, error)
	RoleByName(ctx context.Context, name string) (model.Role, error)
	ListRoles(ctx context.Context) ([]model.Role, error)
	Assign(ctx context.Context, userID, roleID string, at time.Time) error
	Remove(ctx context.Context, userID, roleID string) error
}

// TokenStore persists refresh-token digests. Rotate validates the old row,
// revokes it, and inserts its successor atomically so a token is exchanged
// exactly once.
type TokenStore interface {
	Store(ctx context.Context, t model.RefreshToken) error
	Revoke(ctx context.Context, tokenHash string) error
	Rotate(ctx context.Context, userID, oldHash string, next model.RefreshToken) error
}
