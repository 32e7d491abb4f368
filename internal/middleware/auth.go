package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"go-online-store/internal/model"
	"go-online-store/pkg/apierror"
)

// AccessTokenCookie carries the access token for the browser-facing pages.
const AccessTokenCookie = "access_token"

type tokenValidator interface {
	AuthenticateAccess(ctx context.Context, tokenString string) (*model.AuthClaims, error)
}

type contextKey string

const authClaimsContextKey contextKey = "auth_claims"

type AuthMiddleware struct {
	validator tokenValidator
}

func NewAuthMiddleware(validator tokenValidator) *AuthMiddleware {
	return &AuthMiddleware{validator: validator}
}

// Authenticate attaches the caller's claims when a bearer token or access
// token cookie is present. Anonymous requests pass through untouched. An
// invalid bearer token, or one whose account was deleted or deactivated, is
// rejected.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, fromHeader := tokenFromRequest(r)
		if token == "" {
			if fromHeader {
				writeJSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid authorization header")
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		claims, err := m.validator.AuthenticateAccess(r.Context(), token)
		if err != nil {
			if !apierror.HasCode(err, apierror.CodeUnauthorized) {
				slog.Error("failed to authenticate request", "error", err)
				writeJSONError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Unexpected server error")
				return
			}
			if !fromHeader {
				// A stale session cookie leaves the caller anonymous.
				next.ServeHTTP(w, r)
				return
			}
			writeJSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or expired token")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

// RequireAuth rejects anonymous callers. It expects Authenticate to have run.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := ClaimsFromContext(r.Context()); !ok {
			writeJSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireStaff rejects anonymous callers with 401 and non-staff with 403.
func (m *AuthMiddleware) RequireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			writeJSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
			return
		}
		if !claims.IsStaff {
			writeJSONError(w, http.StatusForbidden, "FORBIDDEN", "insufficient permissions")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func WithClaims(ctx context.Context, claims *model.AuthClaims) context.Context {
	return context.WithValue(ctx, authClaimsContextKey, claims)
}

func ClaimsFromContext(ctx context.Context) (*model.AuthClaims, bool) {
	claims, ok := ctx.Value(authClaimsContextKey).(*model.AuthClaims)
	return claims, ok && claims != nil
}

// tokenFromRequest prefers the Authorization header over the cookie.
// fromHeader reports that an Authorization header was sent at all.
func tokenFromRequest(r *http.Request) (token string, fromHeader bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header != "" {
		if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
			return "", true
		}
		return strings.TrimSpace(header[7:]), true
	}

	if cookie, err := r.Cookie(AccessTokenCookie); err == nil {
		return strings.TrimSpace(cookie.Value), false
	}

	return "", false
}
