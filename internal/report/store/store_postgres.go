package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tandem/internal/report/models"
)

// PostgresStore persists reports and match records in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) CreateReport(ctx context.Context, report *models.Report) error {
	query := `
		INSERT INTO reports (id, owner_id, match_found, submitted_to_school, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(ctx, query,
		report.ID,
		report.OwnerID,
		report.MatchFound,
		report.SubmittedToSchool,
		report.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateMatchRecord(ctx context.Context, record *models.MatchRecord) error {
	query := `
		INSERT INTO match_records (id, report_id, identifier_hash, identifier, seen, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query,
		record.ID,
		record.ReportID,
		record.IdentifierHash,
		record.Identifier,
		record.Seen,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create match record: %w", err)
	}
	return nil
}

func (s *PostgresStore) SaveReport(ctx context.Context, report *models.Report) error {
	query := `
		UPDATE reports
		SET match_found = $2, submitted_to_school = $3
		WHERE id = $1
	`
	result, err := s.db.ExecContext(ctx, query,
		report.ID,
		report.MatchFound,
		report.SubmittedToSchool,
	)
	if err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	return requireRow(result)
}

func (s *PostgresStore) SaveMatchRecord(ctx context.Context, record *models.MatchRecord) error {
	query := `
		UPDATE match_records
		SET seen = $2, identifier = $3
		WHERE id = $1
	`
	result, err := s.db.ExecContext(ctx, query,
		record.ID,
		record.Seen,
		record.Identifier,
	)
	if err != nil {
		return fmt.Errorf("save match record: %w", err)
	}
	return requireRow(result)
}

func (s *PostgresStore) FindReport(ctx context.Context, id string) (*models.Report, error) {
	query := `
		SELECT id, owner_id, match_found, submitted_to_school, created_at
		FROM reports
		WHERE id = $1
	`
	report := &models.Report{}
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&report.ID,
		&report.OwnerID,
		&report.MatchFound,
		&report.SubmittedToSchool,
		&report.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find report: %w", err)
	}
	return report, nil
}

func (s *PostgresStore) ListMatchRecords(ctx context.Context) ([]*models.MatchRecord, error) {
	return s.list(ctx, "")
}

func (s *PostgresStore) ListUnseen(ctx context.Context) ([]*models.MatchRecord, error) {
	return s.list(ctx, "WHERE m.seen = FALSE")
}

func (s *PostgresStore) list(ctx context.Context, where string) ([]*models.MatchRecord, error) {
	query := fmt.Sprintf(`
		SELECT m.id, m.report_id, m.identifier_hash, m.identifier, m.seen, m.created_at,
		       r.id, r.owner_id, r.match_found, r.submitted_to_school, r.created_at
		FROM match_records m
		JOIN reports r ON r.id = m.report_id
		%s
		ORDER BY m.created_at, m.id
	`, where)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list match records: %w", err)
	}
	defer rows.Close()

	var records []*models.MatchRecord
	for rows.Next() {
		record := &models.MatchRecord{Report: &models.Report{}}
		err := rows.Scan(
			&record.ID,
			&record.ReportID,
			&record.IdentifierHash,
			&record.Identifier,
			&record.Seen,
			&record.CreatedAt,
			&record.Report.ID,
			&record.Report.OwnerID,
			&record.Report.MatchFound,
			&record.Report.SubmittedToSchool,
			&record.Report.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan match record: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate match records: %w", err)
	}
	return records, nil
}

func requireRow(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
