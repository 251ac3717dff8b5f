package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDispatcher_FailingHandlerDoesNotStopOthers(t *testing.T) {
	d := NewInMemoryDispatcher(zap.NewNop())
	var calls []string

	d.Subscribe(EventTicketCreated, func(context.Context, Event) error {
		calls = append(calls, "first")
		return errors.New("smtp down")
	})
	d.Subscribe(EventTicketCreated, func(context.Context, Event) error {
		calls = append(calls, "second")
		return nil
	})
	d.Subscribe(EventVisitorCheckedIn, func(context.Context, Event) error {
		calls = append(calls, "other")
		return nil
	})

	err := d.Publish(context.Background(), Event{ID: "e1", Type: EventTicketCreated})
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestDispatcher_PanickingHandlerIsContained(t *testing.T) {
	d := NewInMemoryDispatcher(nil)
	reached := false

	d.Subscribe(EventMeetingScheduled, func(context.Context, Event) error {
		panic("nil calendar")
	})
	d.Subscribe(EventMeetingScheduled, func(context.Context, Event) error {
		reached = true
		return nil
	})

	require.NotPanics(t, func() {
		assert.NoError(t, d.Publish(context.Background(), Event{ID: "e2", Type: EventMeetingScheduled}))
	})
	assert.True(t, reached)
}
