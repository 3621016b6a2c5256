package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublisher_AppendsToStore(t *testing.T) {
	store := NewInMemoryStore()
	pub := NewPublisher(store, nil)

	err := pub.Emit(context.Background(), Event{
		UserID: "user-1", FlowID: "flow-1", Action: ActionStageCompleted, Subject: "PAN Details",
	})
	require.NoError(t, err)

	events, err := store.ListByUser(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, ActionStageCompleted, events[0].Action)
	assert.False(t, events[0].Timestamp.IsZero(), "missing timestamps are filled in")
}

func TestPublisher_FanOutToInbox(t *testing.T) {
	inbox := make(chan Event, 4)
	pub := NewPublisher(NewInMemoryStore(), nil, WithInbox(inbox))

	err := pub.Emit(context.Background(), Event{UserID: "user-1", Action: ActionOTPVerified})
	require.NoError(t, err)

	select {
	case got := <-inbox:
		assert.Equal(t, ActionOTPVerified, got.Action)
	default:
		t.Fatal("event not fanned out to inbox")
	}
}

func TestPublisher_FullInboxDropsInsteadOfBlocking(t *testing.T) {
	inbox := make(chan Event, 1)
	pub := NewPublisher(NewInMemoryStore(), nil, WithInbox(inbox))

	require.NoError(t, pub.Emit(context.Background(), Event{UserID: "u", Action: ActionStageCompleted}))

	done := make(chan struct{})
	go func() {
		// Must not block even though the inbox is full.
		_ = pub.Emit(context.Background(), Event{UserID: "u", Action: ActionStageCompleted})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Emit blocked on a full inbox")
	}
}

type captureSink struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (s *captureSink) Publish(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, event)
	return nil
}

func (s *captureSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func TestWorker_ForwardsEventsToSink(t *testing.T) {
	inbox := make(chan Event, 4)
	sink := &captureSink{}
	worker := NewWorker(sink, inbox, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	inbox <- Event{UserID: "u", Action: ActionOrderAuthorized}
	inbox <- Event{UserID: "u", Action: ActionFlowCompleted}

	require.Eventually(t, func() bool { return sink.count() == 2 }, time.Second, 5*time.Millisecond)

	cancel()
	err := <-done
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestWorker_SinkFailureDoesNotStopTheLoop(t *testing.T) {
	inbox := make(chan Event, 4)
	sink := &captureSink{err: errors.New("broker down")}
	worker := NewWorker(sink, inbox, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = worker.Run(ctx) }()

	inbox <- Event{UserID: "u", Action: ActionOrderRejected}

	// Recovery: once the sink heals, later events flow.
	time.Sleep(20 * time.Millisecond)
	sink.mu.Lock()
	sink.err = nil
	sink.mu.Unlock()

	inbox <- Event{UserID: "u", Action: ActionOrderAuthorized}
	require.Eventually(t, func() bool { return sink.count() == 1 }, time.Second, 5*time.Millisecond)
}
