package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"go-online-store/internal/database"
	"go-online-store/internal/model"
	"go-online-store/internal/pagination"
	"go-online-store/pkg/apierror"
)

const productColumns = "p.id, p.title, p.price, p.tag, p.is_deleted, p.created_at, p.updated_at"

type ProductRepository struct {
	db *database.DB
}

func NewProductRepository(db *database.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// List returns one window of live products matching conds.
func (r *ProductRepository) List(ctx context.Context, conds sq.Sqlizer, w pagination.Window) ([]model.Product, pagination.Slice, error) {
	live := sq.Eq{"p.is_deleted": false}

	total := 0
	if w.Counted() {
		countQuery := r.db.Builder().Select("COUNT(*)").From("products p").Where(live)
		if conds != nil {
			countQuery = countQuery.Where(conds)
		}
		query, args, err := countQuery.ToSql()
		if err != nil {
			return nil, pagination.Slice{}, fmt.Errorf("build product count: %w", err)
		}
		if err := r.db.X.GetContext(ctx, &total, query, args...); err != nil {
			return nil, pagination.Slice{}, fmt.Errorf("count products: %w", err)
		}
	}

	selectQuery := r.db.Builder().Select(productColumns).From("products p").Where(live)
	if conds != nil {
		selectQuery = selectQuery.Where(conds)
	}
	query, args, err := w.Apply(selectQuery, "p.id").ToSql()
	if err != nil {
		return nil, pagination.Slice{}, fmt.Errorf("build product list: %w", err)
	}

	rows := make([]model.Product, 0, w.Limit+1)
	if err := r.db.X.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, pagination.Slice{}, fmt.Errorf("list products: %w", err)
	}

	items, slice := pagination.Collect(w, rows, func(p model.Product) int64 { return p.ID }, total)
	if err := r.attachCategories(ctx, r.db.X, items); err != nil {
		return nil, pagination.Slice{}, err
	}

	return items, slice, nil
}

// Get returns a product by id whether or not it is soft-deleted.
func (r *ProductRepository) Get(ctx context.Context, id int64) (model.Product, error) {
	return r.get(ctx, r.db.X, id)
}

func (r *ProductRepository) get(ctx context.Context, q sqlx.QueryerContext, id int64) (model.Product, error) {
	query, args, err := r.db.Builder().Select(productColumns).From("products p").Where(sq.Eq{"p.id": id}).ToSql()
	if err != nil {
		return model.Product{}, fmt.Errorf("build product get: %w", err)
	}

	var p model.Product
	err = sqlx.GetContext(ctx, q, &p, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Product{}, apierror.NotFound("product not found", strconv.FormatInt(id, 10))
	}
	if err != nil {
		return model.Product{}, fmt.Errorf("get product: %w", err)
	}

	products := []model.Product{p}
	if err := r.attachCategories(ctx, q, products); err != nil {
		return model.Product{}, err
	}

	return products[0], nil
}

// Create inserts p and its category links, returning the stored record.
func (r *ProductRepository) Create(ctx context.Context, p model.Product) (model.Product, error) {
	tx, err := r.db.X.BeginTxx(ctx, nil)
	if err != nil {
		return model.Product{}, fmt.Errorf("begin create product: %w", err)
	}
	defer tx.Rollback()

	query, args, err := r.db.Builder().
		Insert("products").
		Columns("title", "price", "tag", "is_deleted", "created_at", "updated_at").
		Values(p.Title, p.Price, p.Tag, false, p.CreatedAt, p.UpdatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return model.Product{}, fmt.Errorf("build product insert: %w", err)
	}

	if err := tx.QueryRowxContext(ctx, query, args...).Scan(&p.ID); err != nil {
		return model.Product{}, fmt.Errorf("insert product: %w", err)
	}

	if err := r.replaceCategories(ctx, tx, p.ID, p.Categories); err != nil {
		return model.Product{}, err
	}

	created, err := r.get(ctx, tx, p.ID)
	if err != nil {
		return model.Product{}, err
	}

	if err := tx.Commit(); err != nil {
		return model.Product{}, fmt.Errorf("commit create product: %w", err)
	}

	return created, nil
}

// Update writes the mutable columns of p. The category set is replaced only
// when replaceCategories is true.
func (r *ProductRepository) Update(ctx context.Context, p model.Product, replaceCategories bool) (model.Product, error) {
	tx, err := r.db.X.BeginTxx(ctx, nil)
	if err != nil {
		return model.Product{}, fmt.Errorf("begin update product: %w", err)
	}
	defer tx.Rollback()

	query, args, err := r.db.Builder().
		Update("products").
		SetMap(map[string]any{
			"title":      p.Title,
			"price":      p.Price,
			"tag":        p.Tag,
			"updated_at": p.UpdatedAt,
		}).
		Where(sq.Eq{"id": p.ID}).
		ToSql()
	if err != nil {
		return model.Product{}, fmt.Errorf("build product update: %w", err)
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return model.Product{}, fmt.Errorf("update product: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.Product{}, apierror.NotFound("product not found", strconv.FormatInt(p.ID, 10))
	}

	if replaceCategories {
		if err := r.replaceCategories(ctx, tx, p.ID, p.Categories); err != nil {
			return model.Product{}, err
		}
	}

	updated, err := r.get(ctx, tx, p.ID)
	if err != nil {
		return model.Product{}, err
	}

	if err := tx.Commit(); err != nil {
		return model.Product{}, fmt.Errorf("commit update product: %w", err)
	}

	return updated, nil
}

// SoftDelete flags the product as deleted. Flagging an already deleted
// product succeeds.
func (r *ProductRepository) SoftDelete(ctx context.Context, id int64, at time.Time) error {
	query, args, err := r.db.Builder().
		Update("products").
		Set("is_deleted", true).
		Set("updated_at", at).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build product soft delete: %w", err)
	}

	res, err := r.db.X.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("soft delete product: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apierror.NotFound("product not found", strconv.FormatInt(id, 10))
	}

	return nil
}

// CountAll counts every stored product, soft-deleted ones included.
func (r *ProductRepository) CountAll(ctx context.Context) (int, error) {
	var count int
	if err := r.db.X.GetContext(ctx, &count, "SELECT COUNT(*) FROM products"); err != nil {
		return 0, fmt.Errorf("count all products: %w", err)
	}
	return count, nil
}

func (r *ProductRepository) replaceCategories(ctx context.Context, tx *sqlx.Tx, productID int64, categoryIDs []int64) error {
	if len(categoryIDs) > 0 {
		query, args, err := r.db.Builder().Select("COUNT(*)").From("categories").Where(sq.Eq{"id": categoryIDs}).ToSql()
		if err != nil {
			return fmt.Errorf("build category check: %w", err)
		}
		var found int
		if err := tx.GetContext(ctx, &found, query, args...); err != nil {
			return fmt.Errorf("check categories: %w", err)
		}
		if found != len(categoryIDs) {
			return apierror.Validation("invalid input", "categories: unknown category id")
		}
	}

	query, args, err := r.db.Builder().Delete("product_categories").Where(sq.Eq{"product_id": productID}).ToSql()
	if err != nil {
		return fmt.Errorf("build category unlink: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("unlink categories: %w", err)
	}

	if len(categoryIDs) == 0 {
		return nil
	}

	insert := r.db.Builder().Insert("product_categories").Columns("product_id", "category_id")
	for _, categoryID := range categoryIDs {
		insert = insert.Values(productID, categoryID)
	}
	query, args, err = insert.ToSql()
	if err != nil {
		return fmt.Errorf("build category link: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("link categories: %w", err)
	}

	return nil
}

func (r *ProductRepository) attachCategories(ctx context.Context, q sqlx.QueryerContext, products []model.Product) error {
	if len(products) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(products))
	index := make(map[int64]int, len(products))
	for i := range products {
		ids = append(ids, products[i].ID)
		index[products[i].ID] = i
		products[i].Categories = []int64{}
	}

	query, args, err := r.db.Builder().
		Select("product_id", "category_id").
		From("product_categories").
		Where(sq.Eq{"product_id": ids}).
		OrderBy("category_id ASC").
		ToSql()
	if err != nil {
		return fmt.Errorf("build category load: %w", err)
	}

	var links []struct {
		ProductID  int64 `db:"product_id"`
		CategoryID int64 `db:"category_id"`
	}
	if err := sqlx.SelectContext(ctx, q, &links, query, args...); err != nil {
		return fmt.Errorf("load product categories: %w", err)
	}

	for _, link := range links {
		i := index[link.ProductID]
		products[i].Categories = append(products[i].Categories, link.CategoryID)
	}

	return nil
}
