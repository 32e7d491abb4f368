package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusFansOutToEverySubscriber(t *testing.T) {
	bus := NewBus()

	first, unsubFirst := bus.Subscribe()
	second, unsubSecond := bus.Subscribe()
	defer unsubFirst()
	defer unsubSecond()

	bus.Publish(Event{Type: TypeProductCreated, ResourceID: 5})

	for _, ch := range []<-chan Event{first, second} {
		got := <-ch
		assert.Equal(t, TypeProductCreated, got.Type)
		assert.Equal(t, int64(5), got.ResourceID)
		assert.NotEmpty(t, got.ID)
		assert.False(t, got.Timestamp.IsZero())
	}
}

func TestPublishNeverBlocksOnFullSubscriber(t *testing.T) {
	bus := NewBus()
	ch, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	for i := 0; i < subscriberBuffer+10; i++ {
		bus.Publish(Event{Type: TypeUserUpdated})
	}

	assert.Len(t, ch, subscriberBuffer)
}

func TestUnsubscribeClosesChannelOnce(t *testing.T) {
	bus := NewBus()
	ch, unsubscribe := bus.Subscribe()

	unsubscribe()
	unsubscribe()

	_, open := <-ch
	require.False(t, open)

	bus.Publish(Event{Type: TypeUserDeleted})
}

func TestTypeResource(t *testing.T) {
	assert.Equal(t, "product", TypeProductDeleted.Resource())
	assert.Equal(t, "category", TypeCategoryCreated.Resource())
	assert.Equal(t, "plain", Type("plain").Resource())
}
