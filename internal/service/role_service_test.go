package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"user-service/internal/model"
)

func newRoleFixture(t *testing.T) (*MemoryStore, *RoleService) {
	t.Helper()

	store := NewMemoryStore()
	return store, NewRoleService(store, store)
}

func TestEnsureDefaultRoles(t *testing.T) {
	t.Parallel()

	t.Run("seeds admin, user, and analyst once", func(t *testing.T) {
		t.Parallel()

		store, roles := newRoleFixture(t)
		require.NoError(t, roles.EnsureDefaultRoles(context.Background()))
		require.NoError(t, roles.EnsureDefaultRoles(context.Background()))

		all, err := store.ListRoles(context.Background())
		require.NoError(t, err)
		require.Equal(t, []string{"admin", "analyst", "user"}, model.RoleNames(all))

		user, err := store.RoleByName(context.Background(), "user")
		require.NoError(t, err)
		require.Equal(t, []string{"use"}, user.Permissions["llm"])
		require.Equal(t, []string{"read", "update"}, user.Permissions["profile"])

		admin, err := store.RoleByName(context.Background(), "admin")
		require.NoError(t, err)
		require.Contains(t, admin.Permissions, "system")
	})

	t.Run("leaves modified permissions untouched", func(t *testing.T) {
		t.Parallel()

		store, roles := newRoleFixture(t)
		custom := map[string][]string{"users": {"read"}}
		require.NoError(t, store.CreateRole(context.Background(), model.Role{
			ID:          uuid.NewString(),
			Name:        "admin",
			Permissions: custom,
			CreatedAt:   time.Now().UTC(),
		}))

		require.NoError(t, roles.EnsureDefaultRoles(context.Background()))

		admin, err := store.RoleByName(context.Background(), "admin")
		require.NoError(t, err)
		require.Equal(t, custom, admin.Permissions)

		all, err := store.ListRoles(context.Background())
		require.NoError(t, err)
		require.Len(t, all, 3)
	})
}

func TestCreateRole(t *testing.T) {
	t.Parallel()

	t.Run("normalizes the name to lowercase", func(t *testing.T) {
		t.Parallel()

		_, roles := newRoleFixture(t)

		role, err := roles.CreateRole(context.Background(), model.CreateRoleRequest{
			Name:        "  Moderator ",
			Description: "Content moderator",
			Permissions: map[string][]string{"content": {"review"}},
		})
		require.NoError(t, err)
		require.Equal(t, "moderator", role.Name)
		require.NotEmpty(t, role.ID)
	})

	t.Run("defaults permissions to an empty map", func(t *testing.T) {
		t.Parallel()

		_, roles := newRoleFixture(t)

		role, err := roles.CreateRole(context.Background(), model.CreateRoleRequest{Name: "viewer"})
		require.NoError(t, err)
		require.NotNil(t, role.Permissions)
		require.Empty(t, role.Permissions)
	})

	t.Run("rejects duplicates regardless of case", func(t *testing.T) {
		t.Parallel()

		_, roles := newRoleFixture(t)

		_, err := roles.CreateRole(context.Background(), model.CreateRoleRequest{Name: "moderator"})
		require.NoError(t, err)

		_, err = roles.CreateRole(context.Background(), model.CreateRoleRequest{Name: "Moderator"})
		requireAPIError(t, err, http.StatusBadRequest, "role already exists")
	})
}

func TestAssignAndRemoveRole(t *testing.T) {
	t.Parallel()

	setup := func(t *testing.T) (*MemoryStore, *RoleService, model.Profile, model.Role) {
		t.Helper()

		store, roles := newRoleFixture(t)
		require.NoError(t, roles.EnsureDefaultRoles(context.Background()))

		issuer := NewTokenService("test-secret", 30*time.Minute, 168*time.Hour)
		auth := NewAuthService(store, store, issuer, bcrypt.MinCost)
		profile := registerAlice(t, auth)

		analyst, err := store.RoleByName(context.Background(), "analyst")
		require.NoError(t, err)
		return store, roles, profile, analyst
	}

	t.Run("assigns and removes", func(t *testing.T) {
		t.Parallel()

		store, roles, profile, analyst := setup(t)

		require.NoError(t, roles.AssignRole(context.Background(), profile.ID, analyst.ID))

		assigned, err := store.RolesForUser(context.Background(), profile.ID)
		require.NoError(t, err)
		require.Equal(t, []string{"analyst", "user"}, model.RoleNames(assigned))

		require.NoError(t, roles.RemoveRole(context.Background(), profile.ID, analyst.ID))

		assigned, err = store.RolesForUser(context.Background(), profile.ID)
		require.NoError(t, err)
		require.Equal(t, []string{"user"}, model.RoleNames(assigned))
	})

	t.Run("rejects duplicate assignment", func(t *testing.T) {
		t.Parallel()

		_, roles, profile, analyst := setup(t)

		require.NoError(t, roles.AssignRole(context.Background(), profile.ID, analyst.ID))
		err := roles.AssignRole(context.Background(), profile.ID, analyst.ID)
		requireAPIError(t, err, http.StatusBadRequest, "user already has this role")
	})

	t.Run("rejects unknown user and role ids", func(t *testing.T) {
		t.Parallel()

		_, roles, profile, analyst := setup(t)

		err := roles.AssignRole(context.Background(), uuid.NewString(), analyst.ID)
		requireAPIError(t, err, http.StatusBadRequest, "user not found")

		err = roles.AssignRole(context.Background(), profile.ID, uuid.NewString())
		requireAPIError(t, err, http.StatusBadRequest, "role not found")
	})

	t.Run("rejects removing an unassigned role", func(t *testing.T) {
		t.Parallel()

		_, roles, profile, analyst := setup(t)

		err := roles.RemoveRole(context.Background(), profile.ID, analyst.ID)
		requireAPIError(t, err, http.StatusBadRequest, "user does not have this role")
	})
}

func TestUserHasPermission(t *testing.T) {
	t.Parallel()

	store, roles := newRoleFixture(t)
	require.NoError(t, roles.EnsureDefaultRoles(context.Background()))

	issuer := NewTokenService("test-secret", 30*time.Minute, 168*time.Hour)
	auth := NewAuthService(store, store, issuer, bcrypt.MinCost)
	profile := registerAlice(t, auth)

	// The check matches permission map categories, not category:action pairs.
	ok, err := roles.UserHasPermission(context.Background(), profile.ID, "llm")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = roles.UserHasPermission(context.Background(), profile.ID, "llm:use")
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = roles.UserHasPermission(context.Background(), profile.ID, "system")
	require.NoError(t, err)
	require.False(t, ok)
}
