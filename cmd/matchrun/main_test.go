package main

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tandem/internal/audit"
	"tandem/internal/matching/service"
	"tandem/internal/notification"
	"tandem/internal/platform/runlock"
	"tandem/internal/report/models"
	"tandem/internal/report/store"
)

func newJobService(t *testing.T, notifier notification.Notifier) *service.Service {
	t.Helper()
	recordStore := store.New()
	for _, owner := range []string{"owner-a", "owner-b"} {
		report := models.NewReport(owner)
		require.NoError(t, recordStore.CreateReport(context.Background(), report))
		record, err := models.NewMatchRecord(report, "instagram.com/someone")
		require.NoError(t, err)
		require.NoError(t, recordStore.CreateMatchRecord(context.Background(), record))
	}
	return service.NewService(
		recordStore,
		audit.NewPublisher(audit.NewInMemoryStore()),
		notifier,
		slog.New(slog.DiscardHandler),
	)
}

func TestExecuteRunReleasesLockOnFailure(t *testing.T) {
	recorder := notification.NewRecorder()
	recorder.NotifyErr = errors.New("notification gateway down")
	svc := newJobService(t, recorder)
	locker := runlock.NewLocal()
	log := slog.New(slog.DiscardHandler)

	code := executeRun(context.Background(), svc, locker, log, nil)
	assert.Equal(t, 1, code)

	// The failed run must not leave the lock held.
	release, err := locker.Acquire(context.Background())
	require.NoError(t, err)
	require.NoError(t, release(context.Background()))
}

func TestExecuteRunSuccess(t *testing.T) {
	recorder := notification.NewRecorder()
	svc := newJobService(t, recorder)
	locker := runlock.NewLocal()
	log := slog.New(slog.DiscardHandler)

	code := executeRun(context.Background(), svc, locker, log, nil)
	assert.Equal(t, 0, code)
	assert.Len(t, recorder.Notifications, 2)

	release, err := locker.Acquire(context.Background())
	require.NoError(t, err)
	require.NoError(t, release(context.Background()))
}

func TestExecuteRunSkipsWhenLockHeld(t *testing.T) {
	recorder := notification.NewRecorder()
	svc := newJobService(t, recorder)
	locker := runlock.NewLocal()
	log := slog.New(slog.DiscardHandler)

	release, err := locker.Acquire(context.Background())
	require.NoError(t, err)
	defer func() { _ = release(context.Background()) }()

	code := executeRun(context.Background(), svc, locker, log, nil)
	assert.Equal(t, 0, code)
	assert.Empty(t, recorder.Notifications)
}

func TestParseIdentifiers(t *testing.T) {
	assert.Nil(t, parseIdentifiers(""))
	assert.Equal(t, []string{"a", "b"}, parseIdentifiers(" a , b ,"))
}
