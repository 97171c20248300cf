package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"user-service/internal/model"
	"user-service/internal/service"
)

// TokenRepository persists refresh-token digests. Rows are never deleted;
// consumed tokens stay behind revoked as an audit trail.
type TokenRepository struct {
	pool *pgxpool.Pool
}

var _ service.TokenStore = (*TokenRepository)(nil)

func NewTokenRepository(pool *pgxpool.Pool) *TokenRepository {
	return &TokenRepository{pool: pool}
}

func (r *TokenRepository) Store(ctx context.Context, t model.RefreshToken) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, is_revoked, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		t.ID, t.UserID, t.TokenHash, t.ExpiresAt, t.IsRevoked, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("store refresh token: %w", err)
	}
	return nil
}

// Revoke marks the token revoked. Revoking an unknown or already-revoked
// hash is a no-op so logout stays idempotent.
func (r *TokenRepository) Revoke(ctx context.Context, tokenHash string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE refresh_tokens SET is_revoked = TRUE WHERE token_hash = $1 AND is_revoked = FALSE`,
		tokenHash)
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

// Rotate revokes the consumed token and inserts its successor in one
// transaction. The guarded UPDATE succeeds for exactly one caller when the
// same token is replayed concurrently; everyone else gets ErrTokenInvalid.
func (r *TokenRepository) Rotate(ctx context.Context, userID, oldHash string, next model.RefreshToken) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin rotate: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx,
		`UPDATE refresh_tokens
		 SET is_revoked = TRUE
		 WHERE token_hash = $1 AND user_id = $2 AND is_revoked = FALSE AND expires_at > now()`,
		oldHash, userID)
	if err != nil {
		return fmt.Errorf("revoke consumed token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrTokenInvalid
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, is_revoked, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		next.ID, next.UserID, next.TokenHash, next.ExpiresAt, next.IsRevoked, next.CreatedAt)
	if err != nil {
		return fmt.Errorf("store rotated token: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit rotate: %w", err)
	}
	return nil
}
