package model

import "time"

// Role groups permissions under a unique lowercase name. Permissions maps a
// resource category to the actions allowed on it, stored as JSONB.
type Role struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Permissions map[string][]string `json:"permissions"`
	CreatedAt   time.Time           `json:"created_at"`
}

// UserRole is the assignment join row between a user and a role.
type UserRole struct {
	UserID     string    `json:"user_id"`
	RoleID     string    `json:"role_id"`
	AssignedAt time.Time `json:"assigned_at"`
}

func RoleNames(roles []Role) []string {
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, r.Name)
	}
	return names
}

// HasPermission reports whether any of the given roles carries the permission.
// The check is a membership test against the permission map's category keys,
// matching the behavior this service replaced; "users" matches a role with a
// "users" category regardless of the actions listed under it.
func HasPermission(roles []Role, permission string) bool {
	for _, r := range roles {
		if _, ok := r.Permissions[permission]; ok {
			return true
		}
	}
	return false
}
