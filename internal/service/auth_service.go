package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"go-online-store/internal/model"
	"go-online-store/pkg/apierror"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

type authUserStore interface {
	FindByID(ctx context.Context, id int64) (model.User, error)
	FindByUsername(ctx context.Context, username string) (model.User, error)
}

type refreshTokenStore interface {
	Store(ctx context.Context, t model.RefreshToken) error
	Validate(ctx context.Context, token string, now time.Time) (int64, error)
	Revoke(ctx context.Context, token string) error
	CleanExpired(ctx context.Context, now time.Time) (int64, error)
}

type AuthService struct {
	users      authUserStore
	tokens     refreshTokenStore
	hasher     PasswordHasher
	jwtSecret  []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewAuthService(users authUserStore, tokens refreshTokenStore, hasher PasswordHasher, jwtSecret string, accessTTL time.Duration, refreshTTL time.Duration) *AuthService {
	return &AuthService{
		users:      users,
		tokens:     tokens,
		hasher:     hasher,
		jwtSecret:  []byte(jwtSecret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func invalidCredentials() error {
	return apierror.Unauthorized("invalid credentials")
}

// Login checks credentials and issues a token pair. Soft-deleted and
// inactive accounts cannot log in.
func (s *AuthService) Login(ctx context.Context, username string, password string) (model.TokenPair, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if errors.Is(err, model.ErrUserNotFound) {
		return model.TokenPair{}, invalidCredentials()
	}
	if err != nil {
		return model.TokenPair{}, err
	}

	if !s.hasher.Matches(user.PasswordHash, password) {
		return model.TokenPair{}, invalidCredentials()
	}
	if user.IsDeleted || !user.IsActive {
		return model.TokenPair{}, apierror.Unauthorized("account is disabled")
	}

	return s.issueTokenPair(ctx, user)
}

// Refresh rotates a refresh token: the presented one is revoked and a new
// pair is issued.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (model.TokenPair, error) {
	claims, err := s.ValidateToken(refreshToken, TokenTypeRefresh)
	if err != nil {
		return model.TokenPair{}, err
	}

	ownerID, err := s.tokens.Validate(ctx, refreshToken, s.now())
	if err != nil {
		if errors.Is(err, model.ErrTokenNotFound) || errors.Is(err, model.ErrTokenExpired) {
			return model.TokenPair{}, apierror.Unauthorized("refresh token is invalid")
		}
		return model.TokenPair{}, err
	}
	if ownerID != claims.UserID {
		return model.TokenPair{}, apierror.Unauthorized("refresh token is invalid")
	}

	if err := s.tokens.Revoke(ctx, refreshToken); err != nil {
		return model.TokenPair{}, err
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if apierror.HasCode(err, apierror.CodeNotFound) {
			return model.TokenPair{}, apierror.Unauthorized("user not found")
		}
		return model.TokenPair{}, err
	}
	if user.IsDeleted || !user.IsActive {
		return model.TokenPair{}, apierror.Unauthorized("account is disabled")
	}

	return s.issueTokenPair(ctx, user)
}

// PurgeExpiredTokens deletes refresh tokens past their expiry.
func (s *AuthService) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	return s.tokens.CleanExpired(ctx, s.now())
}

// StartTokenCleanup purges expired refresh tokens on every tick until ctx is
// cancelled.
func (s *AuthService) StartTokenCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if removed, err := s.PurgeExpiredTokens(ctx); err != nil {
			slog.Error("refresh token cleanup failed", "error", err)
		} else if removed > 0 {
			slog.Info("expired refresh tokens removed", "count", removed)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	return s.tokens.Revoke(ctx, refreshToken)
}

// ValidateToken verifies signature, expiry and token type, returning the
// caller's claims.
func (s *AuthService) ValidateToken(tokenString string, expectedType string) (*model.AuthClaims, error) {
	parsed, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil || !parsed.Valid {
		return nil, apierror.Unauthorized("invalid token")
	}

	claimsMap, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, apierror.Unauthorized("invalid token claims")
	}

	typ, _ := claimsMap["typ"].(string)
	if expectedType != "" && typ != expectedType {
		return nil, apierror.Unauthorized("invalid token type")
	}

	subject, _ := claimsMap["sub"].(string)
	userID, err := strconv.ParseInt(subject, 10, 64)
	if err != nil || userID <= 0 {
		return nil, apierror.Unauthorized("invalid token subject")
	}

	claims := &model.AuthClaims{UserID: userID, Type: typ}
	claims.Username, _ = claimsMap["username"].(string)
	claims.IsStaff, _ = claimsMap["is_staff"].(bool)
	claims.TokenID, _ = claimsMap["jti"].(string)

	return claims, nil
}

// AuthenticateAccess validates an access token and checks that its account
// still exists and may sign in. Staff status is taken from the account, not
// the token.
func (s *AuthService) AuthenticateAccess(ctx context.Context, tokenString string) (*model.AuthClaims, error) {
	claims, err := s.ValidateToken(tokenString, TokenTypeAccess)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if apierror.HasCode(err, apierror.CodeNotFound) {
			return nil, apierror.Unauthorized("user not found")
		}
		return nil, err
	}
	if user.IsDeleted || !user.IsActive {
		return nil, apierror.Unauthorized("account is disabled")
	}

	claims.Username = user.Username
	claims.IsStaff = user.IsStaff
	return claims, nil
}

func (s *AuthService) Me(ctx context.Context, userID int64) (model.AuthUser, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return model.AuthUser{}, err
	}
	return authUser(user), nil
}

func (s *AuthService) issueTokenPair(ctx context.Context, user model.User) (model.TokenPair, error) {
	now := s.now()
	subject := strconv.FormatInt(user.ID, 10)

	accessToken, err := s.signToken(jwt.MapClaims{
		"sub":      subject,
		"username": user.Username,
		"is_staff": user.IsStaff,
		"typ":      TokenTypeAccess,
		"jti":      uuid.NewString(),
		"iat":      now.Unix(),
		"exp":      now.Add(s.accessTTL).Unix(),
	})
	if err != nil {
		return model.TokenPair{}, err
	}

	refreshExpiry := now.Add(s.refreshTTL)
	refreshToken, err := s.signToken(jwt.MapClaims{
		"sub": subject,
		"typ": TokenTypeRefresh,
		"jti": uuid.NewString(),
		"iat": now.Unix(),
		"exp": refreshExpiry.Unix(),
	})
	if err != nil {
		return model.TokenPair{}, err
	}

	if err := s.tokens.Store(ctx, model.RefreshToken{
		Token:     refreshToken,
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: refreshExpiry,
	}); err != nil {
		return model.TokenPair{}, err
	}

	return model.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.accessTTL.Seconds()),
		User:         authUser(user),
	}, nil
}

func (s *AuthService) signToken(claims jwt.MapClaims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
}

func authUser(u model.User) model.AuthUser {
	return model.AuthUser{ID: u.ID, Username: u.Username, IsStaff: u.IsStaff}
}
