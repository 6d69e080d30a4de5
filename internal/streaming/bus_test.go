package streaming

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenEmitsStreamInit(t *testing.T) {
	b := NewBus()
	defer b.Stop()

	id := b.Open()
	ch, ok := b.Subscribe(id)
	require.True(t, ok)

	evt := <-ch
	assert.Equal(t, EventStreamInit, evt.Type)
	assert.Equal(t, id, evt.SessionID)
}

func TestPublishDeliversToSubscriber(t *testing.T) {
	b := NewBus()
	defer b.Stop()

	id := b.Open()
	ch, _ := b.Subscribe(id)
	<-ch // drain stream.init

	b.Publish(id, Event{Type: EventProgress, Data: map[string]any{"phase": "grover", "iteration": 1}})

	evt := <-ch
	assert.Equal(t, EventProgress, evt.Type)
	assert.Equal(t, "grover", evt.Data["phase"])
}

func TestPublishToUnknownSessionIsNoop(t *testing.T) {
	b := NewBus()
	defer b.Stop()

	assert.NotPanics(t, func() {
		b.Publish("no-such-session", Event{Type: EventLog})
	})
}

func TestCloseEmitsStreamEndThenCloses(t *testing.T) {
	b := NewBus()
	defer b.Stop()

	id := b.Open()
	ch, _ := b.Subscribe(id)
	<-ch // drain stream.init

	b.Close(id, "cancelled")

	evt, ok := <-ch
	require.True(t, ok)
	assert.Equal(t, EventStreamEnd, evt.Type)
	assert.Equal(t, "cancelled", evt.Data["reason"])

	_, ok = <-ch
	assert.False(t, ok, "channel should be closed after stream.end")
}

func TestCloseIsIdempotent(t *testing.T) {
	b := NewBus()
	defer b.Stop()

	id := b.Open()
	assert.NotPanics(t, func() {
		b.Close(id, "done")
		b.Close(id, "done")
	})
}

func TestOverflowDropsEventsAndWarnsOnce(t *testing.T) {
	b := NewBus()
	defer b.Stop()

	id := b.Open()
	ch, _ := b.Subscribe(id)
	<-ch // drain stream.init

	for i := 0; i < queueCapacity+10; i++ {
		b.Publish(id, Event{Type: EventLog, Data: map[string]any{"i": i}})
	}

	// Queue holds queueCapacity events; the rest, and the overflow warning
	// event (no slot was free for it), were dropped, so draining stops at
	// queueCapacity reads rather than queueCapacity+10.
	count := 0
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				t.Fatal("channel closed unexpectedly")
			}
			count++
		case <-time.After(50 * time.Millisecond):
			assert.LessOrEqual(t, count, queueCapacity)
			return
		}
	}
}

func TestEmitAndLogNoopWithoutSession(t *testing.T) {
	assert.NotPanics(t, func() {
		Emit(context.Background(), EventLog, map[string]any{"x": 1})
		Progress(context.Background(), "grover", 0, nil)
	})
}

func TestWithSessionBindsEmitToBus(t *testing.T) {
	b := NewBus()
	defer b.Stop()

	id := b.Open()
	ch, _ := b.Subscribe(id)
	<-ch // drain stream.init

	ctx := WithSession(context.Background(), b, id)
	Progress(ctx, "grover", 2, map[string]any{"programsExtracted": 3})

	evt := <-ch
	assert.Equal(t, EventProgress, evt.Type)
	assert.Equal(t, "grover", evt.Data["phase"])
	assert.Equal(t, 2, evt.Data["iteration"])
	assert.Equal(t, 3, evt.Data["programsExtracted"])

	sid, ok := SessionID(ctx)
	assert.True(t, ok)
	assert.Equal(t, id, sid)
}
