package model

import (
	"errors"
	"regexp"
	"unicode"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

var (
	usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	roleNameRe = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
)

type RegisterRequest struct {
	Email     string  `json:"email"`
	Username  string  `json:"username"`
	Password  string  `json:"password"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Username,
			validation.Required,
			validation.Length(3, 100),
			validation.Match(usernameRe).Error("must contain only alphanumeric characters and underscores"),
		),
		validation.Field(&r.Password, passwordRules()...),
		validation.Field(&r.FirstName, validation.Length(0, 100)),
		validation.Field(&r.LastName, validation.Length(0, 100)),
	)
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (r RefreshRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.RefreshToken, validation.Required),
	)
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (r ChangePasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.CurrentPassword, validation.Required),
		validation.Field(&r.NewPassword, passwordRules()...),
	)
}

type CreateRoleRequest struct {
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Permissions map[string][]string `json:"permissions"`
}

func (r CreateRoleRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name,
			validation.Required,
			validation.Length(1, 100),
			validation.Match(roleNameRe).Error("must contain only alphanumeric characters, hyphens, and underscores"),
		),
	)
}

func passwordRules() []validation.Rule {
	return []validation.Rule{
		validation.Required,
		validation.Length(8, 128),
		validation.By(requireUpper),
		validation.By(requireLower),
		validation.By(requireDigit),
	}
}

func requireUpper(value interface{}) error {
	return requireRune(value, unicode.IsUpper, "must contain at least one uppercase letter")
}

func requireLower(value interface{}) error {
	return requireRune(value, unicode.IsLower, "must contain at least one lowercase letter")
}

func requireDigit(value interface{}) error {
	return requireRune(value, unicode.IsDigit, "must contain at least one digit")
}

func requireRune(value interface{}, match func(rune) bool, message string) error {
	s, _ := value.(string)
	for _, r := range s {
		if match(r) {
			return nil
		}
	}
	return errors.New(message)
}
