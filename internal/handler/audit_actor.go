package handler

import (
	"net/http"

	"go-online-store/internal/middleware"
	"go-online-store/internal/model"
)

func actorFromRequest(r *http.Request) model.AuditActor {
	actor := model.AuditActor{IP: middleware.ClientIP(r)}

	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		return actor
	}

	actor.UserID = claims.UserID
	actor.Username = claims.Username

	return actor
}

// callerFromRequest returns the authenticated caller, or nil when anonymous.
func callerFromRequest(r *http.Request) *model.AuthClaims {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		return nil
	}
	return claims
}
