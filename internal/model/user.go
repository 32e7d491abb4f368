package model

import "time"

type User struct {
	ID           int64     `db:"id"`
	Username     string    `db:"username"`
	Email        string    `db:"email"`
	FirstName    string    `db:"first_name"`
	LastName     string    `db:"last_name"`
	PasswordHash string    `db:"password_hash"`
	IsStaff      bool      `db:"is_staff"`
	IsActive     bool      `db:"is_active"`
	IsDeleted    bool      `db:"is_deleted"`
	DateJoined   time.Time `db:"date_joined"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// Fields is the renderable representation of a user. The password hash is
// never part of it.
func (u User) Fields() map[string]any {
	return map[string]any{
		"id":          u.ID,
		"username":    u.Username,
		"email":       u.Email,
		"first_name":  u.FirstName,
		"last_name":   u.LastName,
		"is_staff":    u.IsStaff,
		"is_active":   u.IsActive,
		"is_deleted":  u.IsDeleted,
		"date_joined": u.DateJoined,
	}
}

// UserChanges carries the writable user fields; nil means unchanged.
// Password is plain text and hashed by the service.
type UserChanges struct {
	Username  *string
	Email     *string
	FirstName *string
	LastName  *string
	Password  *string
	IsStaff   *bool
}

type AuthClaims struct {
	UserID   int64  `json:"sub"`
	Username string `json:"username"`
	IsStaff  bool   `json:"is_staff"`
	Type     string `json:"typ"`
	TokenID  string `json:"jti"`
}

type AuthUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	IsStaff  bool   `json:"is_staff"`
}

type TokenPair struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	TokenType    string   `json:"token_type"`
	ExpiresIn    int64    `json:"expires_in"`
	User         AuthUser `json:"user"`
}

type RefreshToken struct {
	Token     string    `db:"token"`
	UserID    int64     `db:"user_id"`
	CreatedAt time.Time `db:"created_at"`
	ExpiresAt time.Time `db:"expires_at"`
}
