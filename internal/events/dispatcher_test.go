package events

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAsyncDispatcherDelivers(t *testing.T) {
	d := NewAsyncDispatcher(8, zap.NewNop())

	var mu sync.Mutex
	var received []Event
	d.Subscribe(EventTicketCreated, func(_ context.Context, event Event) error {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, event)
		return nil
	})

	err := d.Publish(context.Background(), Event{
		Type:     EventTicketCreated,
		TicketID: "t1",
		Payload:  TicketCreatedPayload{Title: "hello"},
	})
	require.NoError(t, err)
	d.Close()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, received, 1)
	assert.Equal(t, "t1", received[0].TicketID)
	assert.NotEmpty(t, received[0].ID)
	assert.False(t, received[0].Timestamp.IsZero())
}

func TestAsyncDispatcherFansOut(t *testing.T) {
	d := NewAsyncDispatcher(8, zap.NewNop())

	var mu sync.Mutex
	calls := 0
	handler := func(_ context.Context, _ Event) error {
		mu.Lock()
		defer mu.Unlock()
		calls++
		return nil
	}
	d.Subscribe(EventTicketStatusChanged, handler)
	d.Subscribe(EventTicketStatusChanged, handler)
	d.Subscribe(EventTicketCreated, handler)

	require.NoError(t, d.Publish(context.Background(), Event{Type: EventTicketStatusChanged, TicketID: "t1"}))
	d.Close()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, calls)
}

func TestAsyncDispatcherHandlerErrorDoesNotStopOthers(t *testing.T) {
	d := NewAsyncDispatcher(8, zap.NewNop())

	var mu sync.Mutex
	secondRan := false
	d.Subscribe(EventTicketCommentAdded, func(_ context.Context, _ Event) error {
		return errors.New("smtp down")
	})
	d.Subscribe(EventTicketCommentAdded, func(_ context.Context, _ Event) error {
		mu.Lock()
		defer mu.Unlock()
		secondRan = true
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), Event{Type: EventTicketCommentAdded, TicketID: "t1"}))
	d.Close()

	mu.Lock()
	defer mu.Unlock()
	assert.True(t, secondRan)
}

func TestAsyncDispatcherCloseIsIdempotent(t *testing.T) {
	d := NewAsyncDispatcher(1, zap.NewNop())
	d.Close()
	d.Close()
}
