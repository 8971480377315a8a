package store

import (
	"context"

	"tandem/internal/report/models"
	dErrors "tandem/pkg/domain-errors"
)

// ErrNotFound keeps storage-specific 404s consistent across implementations.
var ErrNotFound = dErrors.New(dErrors.CodeNotFound, "record not found")

// Store is the persistence boundary for reports and match records.
//
// Error Contract:
//   - FindReport returns ErrNotFound when no record exists
//   - List methods return records with Report populated
//   - Save methods persist field mutations on existing entities and return
//     ErrNotFound for unknown IDs; Create methods insert new entities
type Store interface {
	CreateReport(ctx context.Context, report *models.Report) error
	CreateMatchRecord(ctx context.Context, record *models.MatchRecord) error
	SaveReport(ctx context.Context, report *models.Report) error
	SaveMatchRecord(ctx context.Context, record *models.MatchRecord) error
	FindReport(ctx context.Context, id string) (*models.Report, error)
	ListMatchRecords(ctx context.Context) ([]*models.MatchRecord, error)
	ListUnseen(ctx context.Context) ([]*models.MatchRecord, error)
}
