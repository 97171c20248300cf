package model

import "time"

// User mirrors a row in the users table. PasswordHash is never serialized;
// handlers return Profile instead.
type User struct {
	ID           string
	Email        string
	Username     string
	PasswordHash string
	FirstName    *string
	LastName     *string
	IsActive     bool
	IsVerified   bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Profile is the public representation of a user, including role names
// captured at read time.
type Profile struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	Username   string    `json:"username"`
	FirstName  *string   `json:"first_name"`
	LastName   *string   `json:"last_name"`
	IsActive   bool      `json:"is_active"`
	IsVerified bool      `json:"is_verified"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Roles      []string  `json:"roles"`
}

func (u User) Profile(roles []Role) Profile {
	return Profile{
		ID:         u.ID,
		Email:      u.Email,
		Username:   u.Username,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		IsActive:   u.IsActive,
		IsVerified: u.IsVerified,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
		Roles:      RoleNames(roles),
	}
}
