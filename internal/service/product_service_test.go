package service

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"go-online-store/internal/database"
	"go-online-store/internal/event"
	"go-online-store/internal/model"
	"go-online-store/internal/pagination"
	"go-online-store/internal/repository"
	"go-online-store/pkg/apierror"
)

func ptr[T any](v T) *T { return &v }

var testActor = model.AuditActor{UserID: 1, Username: "admin", IP: "127.0.0.1"}

func receive(t *testing.T, ch <-chan event.Event) event.Event {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(time.Second):
		t.Fatal("expected an event")
		return event.Event{}
	}
}

func TestProductService_Create(t *testing.T) {
	t.Run("stores the product and publishes", func(t *testing.T) {
		db := database.NewTestDB(t)
		bus := event.NewBus()
		events, unsubscribe := bus.Subscribe()
		defer unsubscribe()

		svc := NewProductService(repository.NewProductRepository(db), bus)

		p, err := svc.Create(context.Background(), testActor, model.ProductChanges{
			Title: ptr("  Desk lamp "),
			Price: ptr(24.5),
			Tag:   ptr("home"),
		})
		require.NoError(t, err)
		assert.Equal(t, "Desk lamp", p.Title)
		assert.Empty(t, p.Categories)

		e := receive(t, events)
		assert.Equal(t, event.TypeProductCreated, e.Type)
		assert.Equal(t, p.ID, e.ResourceID)
		assert.Equal(t, testActor, e.Actor)
	})

	t.Run("requires title and price", func(t *testing.T) {
		mockRepo := new(repository.MockProductRepository)
		svc := NewProductService(mockRepo, nil)

		_, err := svc.Create(context.Background(), testActor, model.ProductChanges{Title: ptr("x")})
		assert.True(t, apierror.HasCode(err, apierror.CodeValidation))
		mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("rejects a title that is only invisible characters", func(t *testing.T) {
		mockRepo := new(repository.MockProductRepository)
		svc := NewProductService(mockRepo, nil)

		_, err := svc.Create(context.Background(), testActor, model.ProductChanges{Title: ptr("\u200B \u200D"), Price: ptr(1.0)})
		assert.True(t, apierror.HasCode(err, apierror.CodeValidation))
		mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("strips control characters from title and tag", func(t *testing.T) {
		db := database.NewTestDB(t)
		svc := NewProductService(repository.NewProductRepository(db), nil)

		p, err := svc.Create(context.Background(), testActor, model.ProductChanges{
			Title: ptr("Desk\x00 lamp"),
			Price: ptr(1.0),
			Tag:   ptr("\uFEFFhome"),
		})
		require.NoError(t, err)
		assert.Equal(t, "Desk lamp", p.Title)
		assert.Equal(t, "home", p.Tag)
	})
}

func TestProductService_Update(t *testing.T) {
	db := database.NewTestDB(t)
	svc := NewProductService(repository.NewProductRepository(db), nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, testActor, model.ProductChanges{Title: ptr("Lamp"), Price: ptr(10.0), Tag: ptr("home")})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, testActor, created.ID, model.ProductChanges{Price: ptr(12.0)})
	require.NoError(t, err)
	assert.Equal(t, "Lamp", updated.Title)
	assert.Equal(t, 12.0, updated.Price)
	assert.Equal(t, "home", updated.Tag)

	_, err = svc.Update(ctx, testActor, 9999, model.ProductChanges{Price: ptr(1.0)})
	assert.True(t, apierror.HasCode(err, apierror.CodeNotFound))
}

func TestProductService_Destroy(t *testing.T) {
	t.Run("soft delete keeps the record retrievable", func(t *testing.T) {
		db := database.NewTestDB(t)
		repo := repository.NewProductRepository(db)
		bus := event.NewBus()
		events, unsubscribe := bus.Subscribe()
		defer unsubscribe()
		svc := NewProductService(repo, bus)
		ctx := context.Background()

		p, err := svc.Create(ctx, testActor, model.ProductChanges{Title: ptr("Chair"), Price: ptr(40.0)})
		require.NoError(t, err)
		receive(t, events)

		before, err := repo.CountAll(ctx)
		require.NoError(t, err)

		require.NoError(t, svc.Destroy(ctx, testActor, p.ID))

		got, err := svc.Get(ctx, p.ID)
		require.NoError(t, err)
		assert.True(t, got.IsDeleted)

		after, err := repo.CountAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, before, after)

		e := receive(t, events)
		assert.Equal(t, event.TypeProductDeleted, e.Type)
		assert.Equal(t, p.ID, e.ResourceID)

		// Repeating the destroy still succeeds.
		require.NoError(t, svc.Destroy(ctx, testActor, p.ID))
	})

	t.Run("missing id is not found and publishes nothing", func(t *testing.T) {
		mockRepo := new(repository.MockProductRepository)
		bus := event.NewBus()
		events, unsubscribe := bus.Subscribe()
		defer unsubscribe()
		svc := NewProductService(mockRepo, bus)

		mockRepo.On("SoftDelete", mock.Anything, int64(9999), mock.AnythingOfType("time.Time")).
			Return(apierror.NotFound("product not found", "9999"))

		err := svc.Destroy(context.Background(), testActor, 9999)
		assert.True(t, apierror.HasCode(err, apierror.CodeNotFound))
		assert.Empty(t, events)
		mockRepo.AssertExpectations(t)
	})
}

func TestProductService_List(t *testing.T) {
	t.Run("applies filters", func(t *testing.T) {
		db := database.NewTestDB(t)
		svc := NewProductService(repository.NewProductRepository(db), nil)
		ctx := context.Background()

		for _, price := range []float64{5, 50, 500} {
			_, err := svc.Create(ctx, testActor, model.ProductChanges{Title: ptr("item"), Price: ptr(price)})
			require.NoError(t, err)
		}

		w := pagination.Window{Mode: pagination.LimitOffset, Limit: 10}
		items, slice, err := svc.List(ctx, url.Values{"price__gte": {"10"}, "price__lte": {"100"}}, w)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, 50.0, items[0].Price)
		assert.Equal(t, 1, slice.Total)
	})

	t.Run("bad filter value never reaches the store", func(t *testing.T) {
		mockRepo := new(repository.MockProductRepository)
		svc := NewProductService(mockRepo, nil)

		_, _, err := svc.List(context.Background(), url.Values{"price__gte": {"lots"}}, pagination.Window{Limit: 10})
		assert.True(t, apierror.HasCode(err, apierror.CodeValidation))
		mockRepo.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("store errors pass through", func(t *testing.T) {
		mockRepo := new(repository.MockProductRepository)
		svc := NewProductService(mockRepo, nil)
		boom := errors.New("connection reset")

		mockRepo.On("List", mock.Anything, mock.Anything, mock.Anything).Return(nil, pagination.Slice{}, boom)

		_, _, err := svc.List(context.Background(), url.Values{}, pagination.Window{Limit: 10})
		assert.ErrorIs(t, err, boom)
	})
}
