package service

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"user-service/internal/model"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Claims is the decoded payload of a signed token.
type Claims struct {
	UserID    string
	Email     string
	Username  string
	Roles     []string
	Type      string
	TokenID   string
	ExpiresAt time.Time
}

// TokenService signs and verifies HS256 tokens. Access tokens carry the
// identity and role snapshot; refresh tokens carry only the subject and are
// additionally tracked by digest in the token store.
type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewTokenService(secret string, accessTTL time.Duration, refreshTTL time.Duration) *TokenService {
	return &TokenService{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

func (s *TokenService) AccessTTL() time.Duration { return s.accessTTL }

func (s *TokenService) RefreshTTL() time.Duration { return s.refreshTTL }

// IssueAccessToken returns a signed access token embedding the user's roles
// as of issuance. Role changes only show up once a new token is minted.
func (s *TokenService) IssueAccessToken(user model.User, roles []string) (string, error) {
	now := time.Now().UTC()
	return s.sign(jwt.MapClaims{
		"sub":      user.ID,
		"email":    user.Email,
		"username": user.Username,
		"roles":    roles,
		"typ":      TokenTypeAccess,
		"jti":      uuid.NewString(),
		"iat":      now.Unix(),
		"exp":      now.Add(s.accessTTL).Unix(),
	})
}

// IssueRefreshToken returns a signed refresh token and its expiry. The caller
// is responsible for persisting HashToken(token) alongside the expiry.
func (s *TokenService) IssueRefreshToken(user model.User) (string, time.Time, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(s.refreshTTL)
	token, err := s.sign(jwt.MapClaims{
		"sub": user.ID,
		"typ": TokenTypeRefresh,
		"jti": uuid.NewString(),
		"iat": now.Unix(),
		"exp": expiresAt.Unix(),
	})
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// Decode verifies the signature and expiry of a token and checks that its
// typ claim matches expectedType. Expired tokens are reported distinctly
// from malformed or tampered ones.
func (s *TokenService) Decode(tokenString string, expectedType string) (*Claims, error) {
	parsed, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, model.ErrTokenInvalid
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, model.ErrTokenExpired
		}
		return nil, model.ErrTokenInvalid
	}

	claimsMap, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, model.ErrTokenInvalid
	}

	typ, _ := claimsMap["typ"].(string)
	if expectedType != "" && typ != expectedType {
		return nil, model.ErrTokenInvalid
	}

	claims := &Claims{Type: typ}
	claims.UserID, _ = claimsMap["sub"].(string)
	claims.Email, _ = claimsMap["email"].(string)
	claims.Username, _ = claimsMap["username"].(string)
	claims.TokenID, _ = claimsMap["jti"].(string)
	if exp, err := claimsMap.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}

	if rawRoles, ok := claimsMap["roles"].([]interface{}); ok {
		for _, r := range rawRoles {
			if name, ok := r.(string); ok {
				claims.Roles = append(claims.Roles, name)
			}
		}
	}

	if claims.UserID == "" {
		return nil, model.ErrTokenInvalid
	}

	return claims, nil
}

func (s *TokenService) sign(claims jwt.MapClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// HashToken returns the hex SHA-256 digest under which a refresh token is
// stored. The raw token never reaches the database.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// HasRole reports whether the claim set includes the named role.
func (c *Claims) HasRole(name string) bool {
	for _, r := range c.Roles {
		if r == name {
			return true
		}
	}
	return false
}
