package repository

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/mock"

	"go-online-store/internal/model"
	"go-online-store/internal/pagination"
)

type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) List(ctx context.Context, conds sq.Sqlizer, w pagination.Window) ([]model.Product, pagination.Slice, error) {
	args := m.Called(ctx, conds, w)
	if args.Get(0) == nil {
		return nil, args.Get(1).(pagination.Slice), args.Error(2)
	}
	return args.Get(0).([]model.Product), args.Get(1).(pagination.Slice), args.Error(2)
}

func (m *MockProductRepository) Get(ctx context.Context, id int64) (model.Product, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Product), args.Error(1)
}

func (m *MockProductRepository) Create(ctx context.Context, p model.Product) (model.Product, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(model.Product), args.Error(1)
}

func (m *MockProductRepository) Update(ctx context.Context, p model.Product, replaceCategories bool) (model.Product, error) {
	args := m.Called(ctx, p, replaceCategories)
	return args.Get(0).(model.Product), args.Error(1)
}

func (m *MockProductRepository) SoftDelete(ctx context.Context, id int64, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) List(ctx context.Context, conds sq.Sqlizer, w pagination.Window) ([]model.User, pagination.Slice, error) {
	args := m.Called(ctx, conds, w)
	if args.Get(0) == nil {
		return nil, args.Get(1).(pagination.Slice), args.Error(2)
	}
	return args.Get(0).([]model.User), args.Get(1).(pagination.Slice), args.Error(2)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id int64) (model.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockUserRepository) FindByUsername(ctx context.Context, username string) (model.User, error) {
	args := m.Called(ctx, username)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, u model.User) (model.User, error) {
	args := m.Called(ctx, u)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, u model.User) (model.User, error) {
	args := m.Called(ctx, u)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockUserRepository) SoftDelete(ctx context.Context, id int64, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

type MockTokenRepository struct {
	mock.Mock
}

func (m *MockTokenRepository) Store(ctx context.Context, t model.RefreshToken) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTokenRepository) Validate(ctx context.Context, token string, now time.Time) (int64, error) {
	args := m.Called(ctx, token, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTokenRepository) Revoke(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockTokenRepository) RevokeAllForUser(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockTokenRepository) CleanExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}
