package service

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"user-service/internal/model"
	"user-service/pkg/apierror"
)

// DefaultUserRole is assigned to every newly registered user when present.
const DefaultUserRole = "user"

type AuthService struct {
	users      UserStore
	tokens     TokenStore
	issuer     *TokenService
	bcryptCost int
}

func NewAuthService(users UserStore, tokens TokenStore, issuer *TokenService, bcryptCost int) *AuthService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{users: users, tokens: tokens, issuer: issuer, bcryptCost: bcryptCost}
}

// Register creates a user with a hashed password and the default role. The
// duplicate check reports the email conflict when both values collide.
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (model.Profile, error) {
	existing, err := s.users.FindByEmailOrUsername(ctx, req.Email, req.Username)
	switch {
	case err == nil:
		if existing.Email == req.Email {
			return model.Profile{}, apierror.New(http.StatusBadRequest, model.ErrEmailTaken.Error())
		}
		return model.Profile{}, apierror.New(http.StatusBadRequest, model.ErrUsernameTaken.Error())
	case !errors.Is(err, model.ErrUserNotFound):
		return model.Profile{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return model.Profile{}, err
	}

	now := time.Now().UTC()
	user := model.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: string(hash),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user, DefaultUserRole); err != nil {
		// Concurrent registration can lose the race after the pre-check.
		switch {
		case errors.Is(err, model.ErrEmailTaken):
			return model.Profile{}, apierror.New(http.StatusBadRequest, model.ErrEmailTaken.Error())
		case errors.Is(err, model.ErrUsernameTaken):
			return model.Profile{}, apierror.New(http.StatusBadRequest, model.ErrUsernameTaken.Error())
		}
		return model.Profile{}, err
	}

	roles, err := s.users.RolesForUser(ctx, user.ID)
	if err != nil {
		return model.Profile{}, err
	}

	return user.Profile(roles), nil
}

// Login verifies credentials and issues a token pair. Unknown email and
// wrong password produce the same failure so callers cannot enumerate users.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (model.TokenPair, error) {
	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return model.TokenPair{}, apierror.New(http.StatusUnauthorized, model.ErrInvalidCredentials.Error())
		}
		return model.TokenPair{}, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return model.TokenPair{}, apierror.New(http.StatusUnauthorized, model.ErrInvalidCredentials.Error())
	}

	if !user.IsActive {
		return model.TokenPair{}, apierror.New(http.StatusForbidden, model.ErrUserDeactivated.Error())
	}

	roles, err := s.users.RolesForUser(ctx, user.ID)
	if err != nil {
		return model.TokenPair{}, err
	}

	accessToken, err := s.issuer.IssueAccessToken(user, model.RoleNames(roles))
	if err != nil {
		return model.TokenPair{}, err
	}

	refreshToken, expiresAt, err := s.issuer.IssueRefreshToken(user)
	if err != nil {
		return model.TokenPair{}, err
	}

	if err := s.tokens.Store(ctx, model.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		TokenHash: HashToken(refreshToken),
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		return model.TokenPair{}, err
	}

	profile := user.Profile(roles)
	return model.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		ExpiresIn:    int64(s.issuer.AccessTTL().Seconds()),
		User:         &profile,
	}, nil
}

// Refresh exchanges a valid refresh token for a new pair. The consumed token
// is revoked in the same transaction that records its successor, so a token
// can be exchanged at most once even under concurrent calls.
func (s *AuthService) Refresh(ctx context.Context, rawToken string) (model.TokenPair, error) {
	invalid := apierror.New(http.StatusUnauthorized, "invalid or expired refresh token")

	claims, err := s.issuer.Decode(rawToken, TokenTypeRefresh)
	if err != nil {
		return model.TokenPair{}, invalid
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return model.TokenPair{}, apierror.New(http.StatusUnauthorized, "user not found or inactive")
		}
		return model.TokenPair{}, err
	}
	if !user.IsActive {
		return model.TokenPair{}, apierror.New(http.StatusUnauthorized, "user not found or inactive")
	}

	roles, err := s.users.RolesForUser(ctx, user.ID)
	if err != nil {
		return model.TokenPair{}, err
	}

	accessToken, err := s.issuer.IssueAccessToken(user, model.RoleNames(roles))
	if err != nil {
		return model.TokenPair{}, err
	}

	refreshToken, expiresAt, err := s.issuer.IssueRefreshToken(user)
	if err != nil {
		return model.TokenPair{}, err
	}

	err = s.tokens.Rotate(ctx, user.ID, HashToken(rawToken), model.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		TokenHash: HashToken(refreshToken),
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		if errors.Is(err, model.ErrTokenInvalid) {
			return model.TokenPair{}, invalid
		}
		return model.TokenPair{}, err
	}

	return model.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		ExpiresIn:    int64(s.issuer.AccessTTL().Seconds()),
	}, nil
}

// Logout revokes the refresh token if it exists. It succeeds either way so
// the response does not reveal whether the token was ever issued.
func (s *AuthService) Logout(ctx context.Context, rawToken string) error {
	return s.tokens.Revoke(ctx, HashToken(rawToken))
}

// ChangePassword rehashes after verifying the current password. Existing
// refresh tokens stay valid.
func (s *AuthService) ChangePassword(ctx context.Context, userID string, req model.ChangePasswordRequest) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return apierror.New(http.StatusNotFound, "user not found")
		}
		return err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)) != nil {
		return apierror.New(http.StatusBadRequest, model.ErrWrongPassword.Error())
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), s.bcryptCost)
	if err != nil {
		return err
	}

	return s.users.UpdatePassword(ctx, userID, string(hash))
}

// GetProfile returns the user with its current role names.
func (s *AuthService) GetProfile(ctx context.Context, userID string) (model.Profile, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return model.Profile{}, apierror.New(http.StatusNotFound, "user not found")
		}
		return model.Profile{}, err
	}

	roles, err := s.users.RolesForUser(ctx, userID)
	if err != nil {
		return model.Profile{}, err
	}

	return user.Profile(roles), nil
}
