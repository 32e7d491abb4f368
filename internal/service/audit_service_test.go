package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-online-store/internal/database"
	"go-online-store/internal/event"
	"go-online-store/internal/model"
	"go-online-store/internal/pagination"
	"go-online-store/internal/repository"
)

func TestAuditService_ConsumeRecordsEvents(t *testing.T) {
	db := database.NewTestDB(t)
	audit := NewAuditService(repository.NewAuditRepository(db))
	bus := event.NewBus()
	events, unsubscribe := bus.Subscribe()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		audit.Consume(ctx, events)
		close(done)
	}()

	products := NewProductService(repository.NewProductRepository(db), bus)
	p, err := products.Create(context.Background(), testActor, model.ProductChanges{Title: ptr("Lamp"), Price: ptr(3.0)})
	require.NoError(t, err)
	require.NoError(t, products.Destroy(context.Background(), testActor, p.ID))

	window := pagination.Window{Mode: pagination.PageNumber, Page: 1, Limit: 10}
	require.Eventually(t, func() bool {
		_, slice, err := audit.Query(context.Background(), model.AuditQuery{Resource: "product"}, window)
		return err == nil && slice.Total == 2
	}, 2*time.Second, 10*time.Millisecond)

	entries, _, err := audit.Query(context.Background(), model.AuditQuery{Action: "product.deleted"}, window)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, p.ID, entries[0].ResourceID)
	assert.Equal(t, "admin", entries[0].Actor.Username)

	unsubscribe()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop after the channel closed")
	}
}
