//go:build integration

package audit

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tandem/migrations"
	"tandem/pkg/testutil/containers"
)

func TestPostgresStoreAppendAndList(t *testing.T) {
	ctx := context.Background()
	db := containers.StartPostgres(t)
	require.NoError(t, migrations.Apply(ctx, db))

	s := NewPostgres(db)
	reportID := uuid.New().String()
	runID := uuid.New().String()

	first := Event{
		Timestamp: time.Now().UTC().Truncate(time.Millisecond),
		Action:    ActionMatchFound,
		ReportID:  reportID,
		OwnerID:   "owner-a",
		RunID:     runID,
	}
	require.NoError(t, s.Append(ctx, first))

	// Run lifecycle events carry no report or owner.
	require.NoError(t, s.Append(ctx, Event{
		Timestamp: time.Now().UTC(),
		Action:    ActionRunCompleted,
		RunID:     runID,
	}))

	events, err := s.ListByReport(ctx, reportID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, ActionMatchFound, events[0].Action)
	assert.Equal(t, "owner-a", events[0].OwnerID)
	assert.Equal(t, runID, events[0].RunID)

	other, err := s.ListByReport(ctx, uuid.New().String())
	require.NoError(t, err)
	assert.Empty(t, other)
}
