package audit

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "tandem/pkg/domain-errors"
)

func TestEmitSynchronousPersists(t *testing.T) {
	store := NewInMemoryStore()
	p := NewPublisher(store)

	require.NoError(t, p.Emit(context.Background(), Event{
		Action:   ActionMatchFound,
		ReportID: "report-1",
		OwnerID:  "owner-a",
	}))

	events, err := store.ListByReport(context.Background(), "report-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, ActionMatchFound, events[0].Action)
	assert.False(t, events[0].Timestamp.IsZero())
}

func TestEmitSynchronousPropagatesStoreError(t *testing.T) {
	p := NewPublisher(erroringStore{})

	err := p.Emit(context.Background(), Event{Action: ActionMatchFound})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
}

func TestEmitAsyncDrainsOnClose(t *testing.T) {
	store := NewInMemoryStore()
	p := NewPublisher(store, WithAsyncBuffer(8))

	for i := 0; i < 5; i++ {
		require.NoError(t, p.Emit(context.Background(), Event{
			Action:   ActionMatchFound,
			ReportID: "report-1",
		}))
	}
	p.Close()

	events, err := store.ListByReport(context.Background(), "report-1")
	require.NoError(t, err)
	assert.Len(t, events, 5)
}

func TestEmitAsyncDropsWhenBufferFull(t *testing.T) {
	store := newBlockingStore()
	p := NewPublisher(store, WithAsyncBuffer(1), WithPublisherLogger(slog.New(slog.DiscardHandler)))

	emit := func() {
		require.NoError(t, p.Emit(context.Background(), Event{
			Action:   ActionMatchFound,
			ReportID: "report-1",
		}))
	}

	emit()
	// Wait until the worker is parked inside Append so the buffer is empty
	// again; the next emit fills it and the one after that must drop rather
	// than block the caller.
	<-store.started
	emit()
	emit()

	close(store.release)
	p.Close()

	events, err := store.ListByReport(context.Background(), "report-1")
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

type erroringStore struct{}

func (erroringStore) Append(context.Context, Event) error {
	return errors.New("append failed")
}

func (erroringStore) ListByReport(context.Context, string) ([]Event, error) {
	return nil, errors.New("list failed")
}

// blockingStore holds every Append until release is closed, so tests can fill
// the publisher's buffer deterministically.
type blockingStore struct {
	inner   *InMemoryStore
	release chan struct{}
	started chan struct{}
}

func newBlockingStore() *blockingStore {
	return &blockingStore{
		inner:   NewInMemoryStore(),
		release: make(chan struct{}),
		started: make(chan struct{}, 16),
	}
}

func (s *blockingStore) Append(ctx context.Context, event Event) error {
	s.started <- struct{}{}
	<-s.release
	return s.inner.Append(ctx, event)
}

func (s *blockingStore) ListByReport(ctx context.Context, reportID string) ([]Event, error) {
	return s.inner.ListByReport(ctx, reportID)
}
