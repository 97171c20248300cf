package model

import "time"

// RefreshToken mirrors a row in the refresh_tokens table. Only the SHA-256
// digest of the raw token is stored; the raw value goes back to the client
// once and is never persisted.
type RefreshToken struct {
	ID        string
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	IsRevoked bool
	CreatedAt time.Time
}

// Valid reports whether the token can still be exchanged.
func (t RefreshToken) Valid(now time.Time) bool {
	return !t.IsRevoked && now.Before(t.ExpiresAt)
}

// TokenPair is the login/refresh response body. User is only present on
// login; refresh returns the tokens alone.
type TokenPair struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	TokenType    string   `json:"token_type"`
	ExpiresIn    int64    `json:"expires_in"`
	User         *Profile `json:"user,omitempty"`
}
