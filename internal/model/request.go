package model

import "time"

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type AuditActor struct {
	UserID   int64  `json:"user_id,omitempty"`
	Username string `json:"username,omitempty"`
	IP       string `json:"ip,omitempty"`
}

type AuditEntry struct {
	ID         int64      `json:"id"`
	Action     string     `json:"action"`
	OccurredAt time.Time  `json:"occurred_at"`
	Actor      AuditActor `json:"actor"`
	Resource   string     `json:"resource"`
	ResourceID int64      `json:"resource_id,omitempty"`
	Payload    any        `json:"payload,omitempty"`
}

// AuditQuery narrows an audit listing; zero values match everything.
type AuditQuery struct {
	Action   string
	ActorID  int64
	Resource string
	From     time.Time
	To       time.Time
}
