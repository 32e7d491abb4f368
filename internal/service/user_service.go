package service

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"go-online-store/internal/event"
	"go-online-store/internal/filter"
	"go-online-store/internal/model"
	"go-online-store/internal/pagination"
	"go-online-store/internal/serializer"
	"go-online-store/internal/util"
	"go-online-store/pkg/apierror"
)

type userStore interface {
	List(ctx context.Context, conds sq.Sqlizer, w pagination.Window) ([]model.User, pagination.Slice, error)
	FindByID(ctx context.Context, id int64) (model.User, error)
	FindByUsername(ctx context.Context, username string) (model.User, error)
	Create(ctx context.Context, u model.User) (model.User, error)
	Update(ctx context.Context, u model.User) (model.User, error)
	SoftDelete(ctx context.Context, id int64, at time.Time) error
}

type tokenRevoker interface {
	RevokeAllForUser(ctx context.Context, userID int64) error
}

type UserService struct {
	users  userStore
	tokens tokenRevoker
	hasher PasswordHasher
	bus    event.Bus
	now    func() time.Time
}

func NewUserService(users userStore, tokens tokenRevoker, hasher PasswordHasher, bus event.Bus) *UserService {
	return &UserService{
		users:  users,
		tokens: tokens,
		hasher: hasher,
		bus:    bus,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *UserService) List(ctx context.Context, query url.Values, w pagination.Window) ([]model.User, pagination.Slice, error) {
	conds, err := filter.Users.Parse(query)
	if err != nil {
		return nil, pagination.Slice{}, err
	}
	return s.users.List(ctx, conds, w)
}

func (s *UserService) Get(ctx context.Context, id int64) (model.User, error) {
	return s.users.FindByID(ctx, id)
}

// Field returns a single exposable field of a user, e.g. {"username": "alice"}.
func (s *UserService) Field(ctx context.Context, id int64, field string) (serializer.Representation, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return serializer.UserField(user, field)
}

func (s *UserService) Create(ctx context.Context, actor model.AuditActor, changes model.UserChanges) (model.User, error) {
	if changes.Username == nil || changes.Password == nil {
		return model.User{}, apierror.Validation("invalid input", "username and password are required")
	}

	now := s.now()
	user := model.User{IsActive: true, DateJoined: now, UpdatedAt: now}
	if err := s.apply(&user, changes); err != nil {
		return model.User{}, err
	}

	created, err := s.users.Create(ctx, user)
	if err != nil {
		return model.User{}, err
	}

	s.publish(event.TypeUserCreated, actor, created)
	return created, nil
}

// Register creates a regular account for self sign-up. is_staff is never
// taken from the caller.
func (s *UserService) Register(ctx context.Context, actor model.AuditActor, changes model.UserChanges) (model.AuthUser, error) {
	changes.IsStaff = nil
	created, err := s.Create(ctx, actor, changes)
	if err != nil {
		return model.AuthUser{}, err
	}
	return authUser(created), nil
}

// Update applies changes to an account. Only staff may change is_staff.
func (s *UserService) Update(ctx context.Context, actor model.AuditActor, caller *model.AuthClaims, id int64, changes model.UserChanges) (model.User, error) {
	if changes.IsStaff != nil && (caller == nil || !caller.IsStaff) {
		return model.User{}, apierror.Forbidden("only staff may change is_staff")
	}

	current, err := s.users.FindByID(ctx, id)
	if err != nil {
		return model.User{}, err
	}

	if err := s.apply(&current, changes); err != nil {
		return model.User{}, err
	}
	current.UpdatedAt = s.now()

	updated, err := s.users.Update(ctx, current)
	if err != nil {
		return model.User{}, err
	}

	s.publish(event.TypeUserUpdated, actor, updated)
	return updated, nil
}

// Destroy soft-deletes an account and revokes its refresh tokens.
func (s *UserService) Destroy(ctx context.Context, actor model.AuditActor, id int64) error {
	if err := s.users.SoftDelete(ctx, id, s.now()); err != nil {
		return err
	}

	if s.tokens != nil {
		if err := s.tokens.RevokeAllForUser(ctx, id); err != nil {
			slog.Warn("failed to revoke tokens of deleted user", "user_id", id, "error", err)
		}
	}

	s.publish(event.TypeUserDeleted, actor, model.User{ID: id})
	return nil
}

// CreateSuperuser creates a staff account, or promotes and re-passwords an
// existing account with the same username. A soft-deleted account is
// restored.
func (s *UserService) CreateSuperuser(ctx context.Context, username string, email string, password string) (model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || len(password) < 8 {
		return model.User{}, apierror.Validation("invalid input", "username is required and password needs at least 8 characters")
	}

	isStaff := true
	changes := model.UserChanges{Username: &username, Password: &password, IsStaff: &isStaff}
	if email != "" {
		changes.Email = &email
	}

	existing, err := s.users.FindByUsername(ctx, username)
	if err == nil {
		if err := s.apply(&existing, changes); err != nil {
			return model.User{}, err
		}
		existing.IsActive = true
		existing.IsDeleted = false
		existing.UpdatedAt = s.now()
		return s.users.Update(ctx, existing)
	}
	if !errors.Is(err, model.ErrUserNotFound) {
		return model.User{}, err
	}

	return s.Create(ctx, model.AuditActor{Username: "system"}, changes)
}

const maxPersonNameRunes = 150

func (s *UserService) apply(u *model.User, changes model.UserChanges) error {
	if changes.Username != nil {
		u.Username = strings.TrimSpace(*changes.Username)
	}
	if changes.Email != nil {
		u.Email = strings.TrimSpace(*changes.Email)
	}
	if changes.FirstName != nil {
		u.FirstName = util.CleanText(*changes.FirstName, maxPersonNameRunes)
	}
	if changes.LastName != nil {
		u.LastName = util.CleanText(*changes.LastName, maxPersonNameRunes)
	}
	if changes.IsStaff != nil {
		u.IsStaff = *changes.IsStaff
	}
	if changes.Password != nil {
		hash, err := s.hasher.Hash(*changes.Password)
		if err != nil {
			return err
		}
		u.PasswordHash = hash
	}
	return nil
}

func (s *UserService) publish(typ event.Type, actor model.AuditActor, u model.User) {
	if s.bus == nil {
		return
	}

	var payload any
	if typ != event.TypeUserDeleted {
		payload = map[string]any{"username": u.Username, "is_staff": u.IsStaff}
	}

	s.bus.Publish(event.Event{Type: typ, ResourceID: u.ID, Actor: actor, Payload: payload})
}
