package model

import (
	"testing"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/stretchr/testify/require"
)

func requireFieldError(t *testing.T, err error, field string) {
	t.Helper()

	require.Error(t, err)
	verrs, ok := err.(validation.Errors)
	require.True(t, ok, "expected validation.Errors, got %T", err)
	require.Contains(t, verrs, field)
}

func TestRegisterRequestValidate(t *testing.T) {
	t.Parallel()

	valid := RegisterRequest{
		Email:    "alice@example.com",
		Username: "alice_1",
		Password: "Str0ngPass",
	}

	t.Run("accepts a valid request", func(t *testing.T) {
		t.Parallel()
		require.NoError(t, valid.Validate())
	})

	t.Run("email", func(t *testing.T) {
		t.Parallel()

		for name, email := range map[string]string{
			"missing":   "",
			"malformed": "not-an-email",
		} {
			req := valid
			req.Email = email
			t.Run(name, func(t *testing.T) {
				requireFieldError(t, req.Validate(), "email")
			})
		}
	})

	t.Run("username", func(t *testing.T) {
		t.Parallel()

		for name, username := range map[string]string{
			"too short": "ab",
			"bad chars": "alice!",
			"spaces":    "al ice",
		} {
			req := valid
			req.Username = username
			t.Run(name, func(t *testing.T) {
				requireFieldError(t, req.Validate(), "username")
			})
		}
	})

	t.Run("password", func(t *testing.T) {
		t.Parallel()

		for name, password := range map[string]string{
			"too short":    "Ab1",
			"no uppercase": "weakpass1",
			"no lowercase": "WEAKPASS1",
			"no digit":     "WeakPassword",
		} {
			req := valid
			req.Password = password
			t.Run(name, func(t *testing.T) {
				requireFieldError(t, req.Validate(), "password")
			})
		}
	})
}

func TestLoginRequestValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, LoginRequest{Email: "alice@example.com", Password: "x"}.Validate())
	requireFieldError(t, LoginRequest{Password: "x"}.Validate(), "email")
	requireFieldError(t, LoginRequest{Email: "alice@example.com"}.Validate(), "password")
}

func TestRefreshRequestValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, RefreshRequest{RefreshToken: "token"}.Validate())
	requireFieldError(t, RefreshRequest{}.Validate(), "refresh_token")
}

func TestChangePasswordRequestValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, ChangePasswordRequest{
		CurrentPassword: "old",
		NewPassword:     "NewStr0ngPass",
	}.Validate())

	requireFieldError(t, ChangePasswordRequest{NewPassword: "NewStr0ngPass"}.Validate(), "current_password")
	requireFieldError(t, ChangePasswordRequest{
		CurrentPassword: "old",
		NewPassword:     "weak",
	}.Validate(), "new_password")
}

func TestCreateRoleRequestValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, CreateRoleRequest{Name: "content-moderator"}.Validate())
	requireFieldError(t, CreateRoleRequest{}.Validate(), "name")
	requireFieldError(t, CreateRoleRequest{Name: "bad name!"}.Validate(), "name")
}
