package model

import "time"

type Product struct {
	ID         int64     `db:"id"`
	Title      string    `db:"title"`
	Price      float64   `db:"price"`
	Tag        string    `db:"tag"`
	IsDeleted  bool      `db:"is_deleted"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
	Categories []int64   `db:"-"`
}

// Fields is the full representation of a product, keyed by field name.
func (p Product) Fields() map[string]any {
	categories := p.Categories
	if categories == nil {
		categories = []int64{}
	}

	return map[string]any{
		"id":         p.ID,
		"title":      p.Title,
		"categories": categories,
		"price":      p.Price,
		"tag":        p.Tag,
		"is_deleted": p.IsDeleted,
		"created_at": p.CreatedAt,
		"updated_at": p.UpdatedAt,
	}
}

// ProductChanges carries the writable product fields. A nil field is left
// untouched; Categories replaces the whole set when non-nil.
type ProductChanges struct {
	Title      *string
	Price      *float64
	Tag        *string
	Categories *[]int64
}

type Category struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type CreateCategoryRequest struct {
	Name string `json:"name" validate:"required,min=1,max=100"`
}
