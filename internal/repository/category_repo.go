package repository

import (
	"context"
	"fmt"
	"strings"

	"go-online-store/internal/database"
	"go-online-store/internal/model"
)

type CategoryRepository struct {
	db *database.DB
}

func NewCategoryRepository(db *database.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) List(ctx context.Context) ([]model.Category, error) {
	query, args, err := r.db.Builder().Select("id", "name", "created_at").From("categories").OrderBy("name ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build category list: %w", err)
	}

	categories := make([]model.Category, 0)
	if err := r.db.X.SelectContext(ctx, &categories, query, args...); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

func (r *CategoryRepository) Create(ctx context.Context, c model.Category) (model.Category, error) {
	c.Name = strings.TrimSpace(c.Name)

	query, args, err := r.db.Builder().
		Insert("categories").
		Columns("name", "created_at").
		Values(c.Name, c.CreatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return model.Category{}, fmt.Errorf("build category insert: %w", err)
	}

	if err := r.db.X.QueryRowxContext(ctx, query, args...).Scan(&c.ID); err != nil {
		if isUniqueViolation(err) {
			return model.Category{}, model.ErrCategoryExists
		}
		return model.Category{}, fmt.Errorf("create category: %w", err)
	}

	return c, nil
}
