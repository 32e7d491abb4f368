package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"go-online-store/internal/database"
	"go-online-store/internal/model"
	"go-online-store/internal/pagination"
	"go-online-store/pkg/apierror"
)

const userColumns = "u.id, u.username, u.email, u.first_name, u.last_name, u.password_hash, " +
	"u.is_staff, u.is_active, u.is_deleted, u.date_joined, u.updated_at"

type UserRepository struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

// List returns one window of users that are not soft-deleted.
func (r *UserRepository) List(ctx context.Context, conds sq.Sqlizer, w pagination.Window) ([]model.User, pagination.Slice, error) {
	live := sq.Eq{"u.is_deleted": false}

	total := 0
	if w.Counted() {
		countQuery := r.db.Builder().Select("COUNT(*)").From("users u").Where(live)
		if conds != nil {
			countQuery = countQuery.Where(conds)
		}
		query, args, err := countQuery.ToSql()
		if err != nil {
			return nil, pagination.Slice{}, fmt.Errorf("build user count: %w", err)
		}
		if err := r.db.X.GetContext(ctx, &total, query, args...); err != nil {
			return nil, pagination.Slice{}, fmt.Errorf("count users: %w", err)
		}
	}

	selectQuery := r.db.Builder().Select(userColumns).From("users u").Where(live)
	if conds != nil {
		selectQuery = selectQuery.Where(conds)
	}
	query, args, err := w.Apply(selectQuery, "u.id").ToSql()
	if err != nil {
		return nil, pagination.Slice{}, fmt.Errorf("build user list: %w", err)
	}

	rows := make([]model.User, 0, w.Limit+1)
	if err := r.db.X.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, pagination.Slice{}, fmt.Errorf("list users: %w", err)
	}

	items, slice := pagination.Collect(w, rows, func(u model.User) int64 { return u.ID }, total)
	return items, slice, nil
}

// FindByID returns a user whether or not the account is soft-deleted.
func (r *UserRepository) FindByID(ctx context.Context, id int64) (model.User, error) {
	user, err := r.findOne(ctx, sq.Eq{"u.id": id})
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, apierror.NotFound("user not found", strconv.FormatInt(id, 10))
	}
	if err != nil {
		return model.User{}, fmt.Errorf("find user by id: %w", err)
	}
	return user, nil
}

// FindByUsername matches usernames case-insensitively.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (model.User, error) {
	user, err := r.findOne(ctx, sq.Expr("LOWER(u.username) = LOWER(?)", strings.TrimSpace(username)))
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, model.ErrUserNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("find user by username: %w", err)
	}
	return user, nil
}

func (r *UserRepository) findOne(ctx context.Context, where sq.Sqlizer) (model.User, error) {
	query, args, err := r.db.Builder().Select(userColumns).From("users u").Where(where).ToSql()
	if err != nil {
		return model.User{}, err
	}

	var u model.User
	if err := r.db.X.GetContext(ctx, &u, query, args...); err != nil {
		return model.User{}, err
	}
	return u, nil
}

func (r *UserRepository) Create(ctx context.Context, u model.User) (model.User, error) {
	query, args, err := r.db.Builder().
		Insert("users").
		Columns("username", "email", "first_name", "last_name", "password_hash",
			"is_staff", "is_active", "is_deleted", "date_joined", "updated_at").
		Values(strings.TrimSpace(u.Username), u.Email, u.FirstName, u.LastName, u.PasswordHash,
			u.IsStaff, u.IsActive, false, u.DateJoined, u.UpdatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return model.User{}, fmt.Errorf("build user insert: %w", err)
	}

	if err := r.db.X.QueryRowxContext(ctx, query, args...).Scan(&u.ID); err != nil {
		if isUniqueViolation(err) {
			return model.User{}, model.ErrUserAlreadyExists
		}
		return model.User{}, fmt.Errorf("create user: %w", err)
	}

	return r.FindByID(ctx, u.ID)
}

// Update writes the mutable columns of u.
func (r *UserRepository) Update(ctx context.Context, u model.User) (model.User, error) {
	query, args, err := r.db.Builder().
		Update("users").
		SetMap(map[string]any{
			"username":      strings.TrimSpace(u.Username),
			"email":         u.Email,
			"first_name":    u.FirstName,
			"last_name":     u.LastName,
			"password_hash": u.PasswordHash,
			"is_staff":      u.IsStaff,
			"is_active":     u.IsActive,
			"is_deleted":    u.IsDeleted,
			"updated_at":    u.UpdatedAt,
		}).
		Where(sq.Eq{"id": u.ID}).
		ToSql()
	if err != nil {
		return model.User{}, fmt.Errorf("build user update: %w", err)
	}

	res, err := r.db.X.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return model.User{}, model.ErrUserAlreadyExists
		}
		return model.User{}, fmt.Errorf("update user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.User{}, apierror.NotFound("user not found", strconv.FormatInt(u.ID, 10))
	}

	return r.FindByID(ctx, u.ID)
}

// SoftDelete flags the account as deleted. Flagging an already deleted
// account succeeds.
func (r *UserRepository) SoftDelete(ctx context.Context, id int64, at time.Time) error {
	query, args, err := r.db.Builder().
		Update("users").
		Set("is_deleted", true).
		Set("updated_at", at).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build user soft delete: %w", err)
	}

	res, err := r.db.X.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("soft delete user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apierror.NotFound("user not found", strconv.FormatInt(id, 10))
	}

	return nil
}

func (r *UserRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.X.GetContext(ctx, &count, "SELECT COUNT(*) FROM users"); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}
