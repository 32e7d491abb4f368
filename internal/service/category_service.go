package service

import (
	"context"
	"time"

	"go-online-store/internal/event"
	"go-online-store/internal/model"
	"go-online-store/internal/util"
	"go-online-store/pkg/apierror"
)

const maxCategoryNameRunes = 100

type categoryStore interface {
	List(ctx context.Context) ([]model.Category, error)
	Create(ctx context.Context, c model.Category) (model.Category, error)
}

type CategoryService struct {
	categories categoryStore
	bus        event.Bus
}

func NewCategoryService(categories categoryStore, bus event.Bus) *CategoryService {
	return &CategoryService{categories: categories, bus: bus}
}

func (s *CategoryService) List(ctx context.Context) ([]model.Category, error) {
	return s.categories.List(ctx)
}

func (s *CategoryService) Create(ctx context.Context, actor model.AuditActor, name string) (model.Category, error) {
	name = util.CleanText(name, maxCategoryNameRunes)
	if name == "" {
		return model.Category{}, apierror.Validation("invalid input", "name: this field is required")
	}

	created, err := s.categories.Create(ctx, model.Category{Name: name, CreatedAt: time.Now().UTC()})
	if err != nil {
		return model.Category{}, err
	}

	if s.bus != nil {
		s.bus.Publish(event.Event{
			Type:       event.TypeCategoryCreated,
			ResourceID: created.ID,
			Actor:      actor,
			Payload:    map[string]any{"name": created.Name},
		})
	}

	return created, nil
}
