package handler_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

// loginAs registers a user and returns an access token; when admin is set the
// admin role is assigned before login so the token's role snapshot carries it.
func (e *testEnv) loginAs(t *testing.T, email, username string, admin bool) string {
	t.Helper()

	status, body := e.do(t, http.MethodPost, "/api/auth/register", "", registerBody(email, username))
	require.Equal(t, http.StatusCreated, status)

	if admin {
		userID := body["user"].(map[string]any)["id"].(string)
		role, err := e.store.RoleByName(context.Background(), "admin")
		require.NoError(t, err)
		require.NoError(t, e.roles.AssignRole(context.Background(), userID, role.ID))
	}

	status, body = e.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email":    email,
		"password": "Str0ngPass",
	})
	require.Equal(t, http.StatusOK, status)
	return body["access_token"].(string)
}

func TestRoleEndpointsRequireAdmin(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	userToken := env.loginAs(t, "bob@example.com", "bob", false)

	for _, tc := range []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/roles"},
		{http.MethodPost, "/api/roles"},
		{http.MethodPost, "/api/users/some-user/roles/some-role"},
		{http.MethodDelete, "/api/users/some-user/roles/some-role"},
	} {
		status, body := env.do(t, tc.method, tc.path, userToken, nil)
		require.Equal(t, http.StatusForbidden, status, "%s %s", tc.method, tc.path)
		require.Equal(t, "insufficient permissions", body["error"])
	}
}

func TestListRoles(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	adminToken := env.loginAs(t, "root@example.com", "root", true)

	status, body := env.do(t, http.MethodGet, "/api/roles", adminToken, nil)
	require.Equal(t, http.StatusOK, status)

	roles, ok := body["roles"].([]any)
	require.True(t, ok)
	require.Len(t, roles, 3)

	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, r.(map[string]any)["name"].(string))
	}
	require.ElementsMatch(t, []string{"admin", "user", "analyst"}, names)
}

func TestCreateRoleEndpoint(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	adminToken := env.loginAs(t, "root@example.com", "root", true)

	payload := map[string]any{
		"name":        "Moderator",
		"description": "Content moderator",
		"permissions": map[string][]string{"content": {"review", "remove"}},
	}

	status, body := env.do(t, http.MethodPost, "/api/roles", adminToken, payload)
	require.Equal(t, http.StatusCreated, status)
	require.Equal(t, "role created successfully", body["message"])

	role := body["role"].(map[string]any)
	require.Equal(t, "moderator", role["name"])
	require.NotEmpty(t, role["id"])

	status, body = env.do(t, http.MethodPost, "/api/roles", adminToken, payload)
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "role already exists", body["error"])

	status, body = env.do(t, http.MethodPost, "/api/roles", adminToken, map[string]any{"name": "bad name!"})
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "validation failed", body["error"])
}

func TestAssignAndRemoveRoleEndpoints(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	adminToken := env.loginAs(t, "root@example.com", "root", true)

	status, body := env.do(t, http.MethodPost, "/api/auth/register", "", registerBody("bob@example.com", "bob"))
	require.Equal(t, http.StatusCreated, status)
	bobID := body["user"].(map[string]any)["id"].(string)

	analyst, err := env.store.RoleByName(context.Background(), "analyst")
	require.NoError(t, err)

	assignPath := "/api/users/" + bobID + "/roles/" + analyst.ID

	status, body = env.do(t, http.MethodPost, assignPath, adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "role assigned successfully", body["message"])

	status, body = env.do(t, http.MethodPost, assignPath, adminToken, nil)
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "user already has this role", body["error"])

	// The new role shows up on the next login's snapshot.
	status, body = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email":    "bob@example.com",
		"password": "Str0ngPass",
	})
	require.Equal(t, http.StatusOK, status)
	require.ElementsMatch(t, []any{"user", "analyst"}, body["user"].(map[string]any)["roles"])

	status, body = env.do(t, http.MethodDelete, assignPath, adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "role removed successfully", body["message"])

	status, body = env.do(t, http.MethodDelete, assignPath, adminToken, nil)
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "user does not have this role", body["error"])

	status, body = env.do(t, http.MethodPost, "/api/users/"+bobID+"/roles/unknown-role", adminToken, nil)
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "role not found", body["error"])
}

func TestChangePasswordEndpoint(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	token := env.loginAs(t, "alice@example.com", "alice", false)

	status, body := env.do(t, http.MethodPost, "/api/auth/change-password", token, map[string]any{
		"current_password": "WrongPass1",
		"new_password":     "NewStr0ngPass",
	})
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "current password is incorrect", body["error"])

	status, body = env.do(t, http.MethodPost, "/api/auth/change-password", token, map[string]any{
		"current_password": "Str0ngPass",
		"new_password":     "NewStr0ngPass",
	})
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "password updated successfully", body["message"])

	status, _ = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email":    "alice@example.com",
		"password": "NewStr0ngPass",
	})
	require.Equal(t, http.StatusOK, status)
}
