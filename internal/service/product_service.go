package service

import (
	"context"
	"net/url"
	"time"

	sq "github.com/Masterminds/squirrel"

	"go-online-store/internal/event"
	"go-online-store/internal/filter"
	"go-online-store/internal/model"
	"go-online-store/internal/pagination"
	"go-online-store/internal/util"
	"go-online-store/pkg/apierror"
)

type productStore interface {
	List(ctx context.Context, conds sq.Sqlizer, w pagination.Window) ([]model.Product, pagination.Slice, error)
	Get(ctx context.Context, id int64) (model.Product, error)
	Create(ctx context.Context, p model.Product) (model.Product, error)
	Update(ctx context.Context, p model.Product, replaceCategories bool) (model.Product, error)
	SoftDelete(ctx context.Context, id int64, at time.Time) error
}

type ProductService struct {
	products productStore
	bus      event.Bus
	now      func() time.Time
}

func NewProductService(products productStore, bus event.Bus) *ProductService {
	return &ProductService{
		products: products,
		bus:      bus,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// List returns one window of live products narrowed by the product filter
// parameters present in query.
func (s *ProductService) List(ctx context.Context, query url.Values, w pagination.Window) ([]model.Product, pagination.Slice, error) {
	conds, err := filter.Products.Parse(query)
	if err != nil {
		return nil, pagination.Slice{}, err
	}
	return s.products.List(ctx, conds, w)
}

// Get returns a product by id, including soft-deleted ones.
func (s *ProductService) Get(ctx context.Context, id int64) (model.Product, error) {
	return s.products.Get(ctx, id)
}

func (s *ProductService) Create(ctx context.Context, actor model.AuditActor, changes model.ProductChanges) (model.Product, error) {
	if changes.Title == nil || changes.Price == nil {
		return model.Product{}, apierror.Validation("invalid input", "title and price are required")
	}

	now := s.now()
	p := model.Product{CreatedAt: now, UpdatedAt: now}
	if err := applyProductChanges(&p, changes); err != nil {
		return model.Product{}, err
	}

	created, err := s.products.Create(ctx, p)
	if err != nil {
		return model.Product{}, err
	}

	s.publish(event.TypeProductCreated, actor, created)
	return created, nil
}

// Update applies changes to an existing product. Fields left nil keep their
// stored value.
func (s *ProductService) Update(ctx context.Context, actor model.AuditActor, id int64, changes model.ProductChanges) (model.Product, error) {
	current, err := s.products.Get(ctx, id)
	if err != nil {
		return model.Product{}, err
	}

	if err := applyProductChanges(&current, changes); err != nil {
		return model.Product{}, err
	}
	current.UpdatedAt = s.now()

	updated, err := s.products.Update(ctx, current, changes.Categories != nil)
	if err != nil {
		return model.Product{}, err
	}

	s.publish(event.TypeProductUpdated, actor, updated)
	return updated, nil
}

// Destroy soft-deletes a product. The row stays retrievable by id with
// is_deleted set.
func (s *ProductService) Destroy(ctx context.Context, actor model.AuditActor, id int64) error {
	if err := s.products.SoftDelete(ctx, id, s.now()); err != nil {
		return err
	}

	s.publish(event.TypeProductDeleted, actor, model.Product{ID: id})
	return nil
}

func (s *ProductService) publish(typ event.Type, actor model.AuditActor, p model.Product) {
	if s.bus == nil {
		return
	}

	var payload any
	if typ != event.TypeProductDeleted {
		payload = map[string]any{"title": p.Title, "price": p.Price, "tag": p.Tag, "categories": p.Categories}
	}

	s.bus.Publish(event.Event{Type: typ, ResourceID: p.ID, Actor: actor, Payload: payload})
}

const (
	maxTitleRunes = 255
	maxTagRunes   = 50
)

func applyProductChanges(p *model.Product, changes model.ProductChanges) error {
	if changes.Title != nil {
		title := util.CleanText(*changes.Title, maxTitleRunes)
		if title == "" {
			return apierror.Validation("invalid input", "title: may not be blank")
		}
		p.Title = title
	}
	if changes.Price != nil {
		p.Price = *changes.Price
	}
	if changes.Tag != nil {
		p.Tag = util.CleanText(*changes.Tag, maxTagRunes)
	}
	if changes.Categories != nil {
		p.Categories = append([]int64{}, *changes.Categories...)
	}
	return nil
}
