package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tandem/internal/report/models"
)

func seedRecord(t *testing.T, s *InMemoryStore, ownerID, rawIdentifier string) *models.MatchRecord {
	t.Helper()
	ctx := context.Background()
	report := models.NewReport(ownerID)
	require.NoError(t, s.CreateReport(ctx, report))
	record, err := models.NewMatchRecord(report, rawIdentifier)
	require.NoError(t, err)
	require.NoError(t, s.CreateMatchRecord(ctx, record))
	return record
}

func TestInMemoryStoreOperations(t *testing.T) {
	s := New()
	ctx := context.Background()

	seedRecord(t, s, "owner-a", "twitter.com/somebody")

	// Lists populate the report reference.
	all, err := s.ListMatchRecords(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.NotNil(t, all[0].Report)
	assert.Equal(t, "owner-a", all[0].Report.OwnerID)

	// Save record mutations.
	fetched := all[0]
	fetched.Seen = true
	fetched.Identifier = nil
	require.NoError(t, s.SaveMatchRecord(ctx, fetched))

	unseen, err := s.ListUnseen(ctx)
	require.NoError(t, err)
	assert.Empty(t, unseen)

	// Save report mutations and observe them through a later list.
	fetched.Report.MatchFound = true
	require.NoError(t, s.SaveReport(ctx, fetched.Report))
	all, err = s.ListMatchRecords(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.True(t, all[0].Report.MatchFound)

	// Copy integrity: mutating a fetched record must not affect the store.
	all[0].Seen = false
	again, err := s.ListMatchRecords(ctx)
	require.NoError(t, err)
	assert.True(t, again[0].Seen)
}

func TestInMemoryStoreNotFound(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, err := s.FindReport(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	err = s.SaveReport(ctx, models.NewReport("owner-a"))
	assert.ErrorIs(t, err, ErrNotFound)

	record, err := models.NewMatchRecord(models.NewReport("owner-a"), "identifier")
	require.NoError(t, err)
	err = s.SaveMatchRecord(ctx, record)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListUnseenFiltersSeenRecords(t *testing.T) {
	s := New()
	ctx := context.Background()

	first := seedRecord(t, s, "owner-a", "identifier-one")
	seedRecord(t, s, "owner-b", "identifier-two")

	first.Seen = true
	require.NoError(t, s.SaveMatchRecord(ctx, first))

	unseen, err := s.ListUnseen(ctx)
	require.NoError(t, err)
	require.Len(t, unseen, 1)
	require.NotNil(t, unseen[0].Identifier)
	assert.Equal(t, "identifier-two", *unseen[0].Identifier)
}
