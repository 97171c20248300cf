package model

import "errors"

var (
	// User errors
	ErrUserNotFound    = errors.New("user not found")
	ErrEmailTaken      = errors.New("email already registered")
	ErrUsernameTaken   = errors.New("username already taken")
	ErrUserDeactivated = errors.New("account is deactivated")

	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrWrongPassword      = errors.New("current password is incorrect")

	// Role errors
	ErrRoleNotFound    = errors.New("role not found")
	ErrRoleExists      = errors.New("role already exists")
	ErrRoleAssigned    = errors.New("user already has this role")
	ErrRoleNotAssigned = errors.New("user does not have this role")

	// Token errors
	ErrTokenExpired = errors.New("token has expired")
	ErrTokenInvalid = errors.New("invalid token")
)
