//go:build integration

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tandem/internal/report/models"
	"tandem/migrations"
	"tandem/pkg/testutil/containers"
)

func TestPostgresStore(t *testing.T) {
	ctx := context.Background()
	db := containers.StartPostgres(t)
	require.NoError(t, migrations.Apply(ctx, db))

	s := NewPostgres(db)

	report := models.NewReport("owner-a")
	require.NoError(t, s.CreateReport(ctx, report))
	record, err := models.NewMatchRecord(report, "instagram.com/someone")
	require.NoError(t, err)
	require.NoError(t, s.CreateMatchRecord(ctx, record))

	t.Run("find report", func(t *testing.T) {
		found, err := s.FindReport(ctx, report.ID)
		require.NoError(t, err)
		assert.Equal(t, report.OwnerID, found.OwnerID)
		assert.False(t, found.MatchFound)
	})

	t.Run("list populates report", func(t *testing.T) {
		records, err := s.ListMatchRecords(ctx)
		require.NoError(t, err)
		require.Len(t, records, 1)
		require.NotNil(t, records[0].Report)
		assert.Equal(t, "owner-a", records[0].Report.OwnerID)
		require.NotNil(t, records[0].Identifier)
		assert.Equal(t, "instagram.com/someone", *records[0].Identifier)
	})

	t.Run("save report persists flags", func(t *testing.T) {
		report.MatchFound = true
		require.NoError(t, s.SaveReport(ctx, report))

		found, err := s.FindReport(ctx, report.ID)
		require.NoError(t, err)
		assert.True(t, found.MatchFound)
	})

	t.Run("save match record clears identifier", func(t *testing.T) {
		record.Seen = true
		record.Identifier = nil
		require.NoError(t, s.SaveMatchRecord(ctx, record))

		unseen, err := s.ListUnseen(ctx)
		require.NoError(t, err)
		assert.Empty(t, unseen)

		records, err := s.ListMatchRecords(ctx)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.True(t, records[0].Seen)
		assert.Nil(t, records[0].Identifier)
	})

	t.Run("missing rows", func(t *testing.T) {
		_, err := s.FindReport(ctx, "00000000-0000-0000-0000-000000000000")
		assert.ErrorIs(t, err, ErrNotFound)

		ghost := models.NewReport("owner-x")
		assert.ErrorIs(t, s.SaveReport(ctx, ghost), ErrNotFound)
	})
}
