package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"user-service/internal/model"
	"user-service/pkg/apierror"
)

// defaultRoles are seeded at startup. Seeding only inserts missing names and
// never touches the permissions of a role that already exists.
var defaultRoles = []model.Role{
	{
		Name:        "admin",
		Description: "Administrator with full system access",
		Permissions: map[string][]string{
			"users":  {"create", "read", "update", "delete"},
			"roles":  {"create", "read", "update", "delete"},
			"system": {"manage", "configure"},
		},
	},
	{
		Name:        "user",
		Description: "Standard user with basic access",
		Permissions: map[string][]string{
			"profile":   {"read", "update"},
			"llm":       {"use"},
			"analytics": {"view"},
		},
	},
	{
		Name:        "analyst",
		Description: "Data analyst with analytics access",
		Permissions: map[string][]string{
			"profile":   {"read", "update"},
			"analytics": {"create", "read", "update", "delete"},
			"reports":   {"create", "read", "update", "delete"},
		},
	},
}

type RoleService struct {
	roles RoleStore
	users UserStore
}

func NewRoleService(roles RoleStore, users UserStore) *RoleService {
	return &RoleService{roles: roles, users: users}
}

// EnsureDefaultRoles seeds the admin, user, and analyst roles. Idempotent;
// the process entry point calls it once after the schema is ready.
func (s *RoleService) EnsureDefaultRoles(ctx context.Context) error {
	for _, seed := range defaultRoles {
		_, err := s.roles.RoleByName(ctx, seed.Name)
		if err == nil {
			continue
		}
		if !errors.Is(err, model.ErrRoleNotFound) {
			return err
		}

		seed.ID = uuid.NewString()
		seed.CreatedAt = time.Now().UTC()
		if err := s.roles.CreateRole(ctx, seed); err != nil && !errors.Is(err, model.ErrRoleExists) {
			return err
		}
	}
	return nil
}

// CreateRole persists a new role under its lowercase name.
func (s *RoleService) CreateRole(ctx context.Context, req model.CreateRoleRequest) (model.Role, error) {
	role := model.Role{
		ID:          uuid.NewString(),
		Name:        strings.ToLower(strings.TrimSpace(req.Name)),
		Description: req.Description,
		Permissions: req.Permissions,
		CreatedAt:   time.Now().UTC(),
	}
	if role.Permissions == nil {
		role.Permissions = map[string][]string{}
	}

	if _, err := s.roles.RoleByName(ctx, role.Name); err == nil {
		return model.Role{}, apierror.New(http.StatusBadRequest, model.ErrRoleExists.Error())
	} else if !errors.Is(err, model.ErrRoleNotFound) {
		return model.Role{}, err
	}

	if err := s.roles.CreateRole(ctx, role); err != nil {
		if errors.Is(err, model.ErrRoleExists) {
			return model.Role{}, apierror.New(http.StatusBadRequest, model.ErrRoleExists.Error())
		}
		return model.Role{}, err
	}

	return role, nil
}

func (s *RoleService) ListRoles(ctx context.Context) ([]model.Role, error) {
	return s.roles.ListRoles(ctx)
}

func (s *RoleService) GetRoleByID(ctx context.Context, id string) (model.Role, error) {
	return s.roles.RoleByID(ctx, id)
}

// AssignRole adds a role to a user, rejecting unknown ids and duplicates.
func (s *RoleService) AssignRole(ctx context.Context, userID string, roleID string) error {
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return apierror.New(http.StatusBadRequest, model.ErrUserNotFound.Error())
		}
		return err
	}
	if _, err := s.roles.RoleByID(ctx, roleID); err != nil {
		if errors.Is(err, model.ErrRoleNotFound) {
			return apierror.New(http.StatusBadRequest, model.ErrRoleNotFound.Error())
		}
		return err
	}

	if err := s.roles.Assign(ctx, userID, roleID, time.Now().UTC()); err != nil {
		if errors.Is(err, model.ErrRoleAssigned) {
			return apierror.New(http.StatusBadRequest, model.ErrRoleAssigned.Error())
		}
		return err
	}
	return nil
}

// RemoveRole deletes the assignment if it exists.
func (s *RoleService) RemoveRole(ctx context.Context, userID string, roleID string) error {
	if err := s.roles.Remove(ctx, userID, roleID); err != nil {
		if errors.Is(err, model.ErrRoleNotAssigned) {
			return apierror.New(http.StatusBadRequest, model.ErrRoleNotAssigned.Error())
		}
		return err
	}
	return nil
}

// UserHasPermission resolves the user's roles and applies the permission
// membership test.
func (s *RoleService) UserHasPermission(ctx context.Context, userID string, permission string) (bool, error) {
	roles, err := s.users.RolesForUser(ctx, userID)
	if err != nil {
		return false, err
	}
	return model.HasPermission(roles, permission), nil
}
