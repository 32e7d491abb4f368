package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"go-online-store/internal/database"
	"go-online-store/internal/model"
)

type TokenRepository struct {
	db *database.DB
}

func NewTokenRepository(db *database.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

func (r *TokenRepository) Store(ctx context.Context, t model.RefreshToken) error {
	query, args, err := r.db.Builder().
		Insert("refresh_tokens").
		Columns("token", "user_id", "created_at", "expires_at").
		Values(t.Token, t.UserID, t.CreatedAt, t.ExpiresAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build refresh token insert: %w", err)
	}

	if _, err := r.db.X.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("store refresh token: %w", err)
	}
	return nil
}

// Validate returns the owner of an unexpired refresh token.
func (r *TokenRepository) Validate(ctx context.Context, token string, now time.Time) (int64, error) {
	query, args, err := r.db.Builder().
		Select("token", "user_id", "created_at", "expires_at").
		From("refresh_tokens").
		Where(sq.Eq{"token": token}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build refresh token lookup: %w", err)
	}

	var stored model.RefreshToken
	err = r.db.X.GetContext(ctx, &stored, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, model.ErrTokenNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("validate refresh token: %w", err)
	}

	if !stored.ExpiresAt.After(now) {
		return 0, model.ErrTokenExpired
	}

	return stored.UserID, nil
}

func (r *TokenRepository) Revoke(ctx context.Context, token string) error {
	query, args, err := r.db.Builder().Delete("refresh_tokens").Where(sq.Eq{"token": token}).ToSql()
	if err != nil {
		return fmt.Errorf("build refresh token revoke: %w", err)
	}
	if _, err := r.db.X.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

func (r *TokenRepository) RevokeAllForUser(ctx context.Context, userID int64) error {
	query, args, err := r.db.Builder().Delete("refresh_tokens").Where(sq.Eq{"user_id": userID}).ToSql()
	if err != nil {
		return fmt.Errorf("build refresh token revoke all: %w", err)
	}
	if _, err := r.db.X.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("revoke all refresh tokens: %w", err)
	}
	return nil
}

func (r *TokenRepository) CleanExpired(ctx context.Context, now time.Time) (int64, error) {
	query, args, err := r.db.Builder().Delete("refresh_tokens").Where(sq.LtOrEq{"expires_at": now}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build clean expired tokens: %w", err)
	}

	res, err := r.db.X.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("clean expired tokens: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
