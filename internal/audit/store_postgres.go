package audit

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// PostgresStore implements Store using PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres creates a new PostgreSQL audit store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Append inserts an audit event into the eval_rows table.
func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	query := `
		INSERT INTO eval_rows (id, timestamp, action, report_id, owner_id, run_id)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	// Run lifecycle events carry no report; store NULLs rather than
	// zero values so the UUID columns stay valid.
	_, err := s.db.ExecContext(ctx, query,
		uuid.New(),
		event.Timestamp,
		string(event.Action),
		nullIfEmpty(event.ReportID),
		nullIfEmpty(event.OwnerID),
		event.RunID,
	)
	if err != nil {
		return fmt.Errorf("insert eval row: %w", err)
	}
	return nil
}

// ListByReport returns all events recorded for a report, oldest first.
func (s *PostgresStore) ListByReport(ctx context.Context, reportID string) ([]Event, error) {
	query := `
		SELECT timestamp, action, report_id, owner_id, run_id
		FROM eval_rows
		WHERE report_id = $1
		ORDER BY timestamp
	`
	rows, err := s.db.QueryContext(ctx, query, reportID)
	if err != nil {
		return nil, fmt.Errorf("list eval rows: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var action string
		var ownerID sql.NullString
		if err := rows.Scan(&e.Timestamp, &action, &e.ReportID, &ownerID, &e.RunID); err != nil {
			return nil, fmt.Errorf("scan eval row: %w", err)
		}
		e.Action = Action(action)
		e.OwnerID = ownerID.String
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate eval rows: %w", err)
	}
	return events, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
