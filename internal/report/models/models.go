// Package models holds the report-side entities the matching pipeline reads
// and flags. Reports and match records are created at intake; matching never
// creates or deletes them.
package models

import (
	"time"

	"github.com/google/uuid"

	"tandem/pkg/identifier"
)

// Report is a user submission that may later be escalated to the receiving
// authority. Matching only ever mutates MatchFound.
type Report struct {
	ID                string
	OwnerID           string
	MatchFound        bool
	SubmittedToSchool bool
	CreatedAt         time.Time
}

// MatchRecord associates a report with the derived identifier value used for
// matching.
//
// Identifier holds the raw submitted value only until the record's first
// matching pass; afterwards it is cleared and Seen is set, so re-running
// matching does not reprocess the record. IdentifierHash is the salted digest
// the matching predicate compares against and is never cleared.
type MatchRecord struct {
	ID             string
	ReportID       string
	Report         *Report
	IdentifierHash string
	Identifier     *string
	Seen           bool
	CreatedAt      time.Time
}

// NewReport constructs an unmatched report for the given owner.
func NewReport(ownerID string) *Report {
	return &Report{
		ID:        uuid.New().String(),
		OwnerID:   ownerID,
		CreatedAt: time.Now(),
	}
}

// NewMatchRecord constructs an unseen match record carrying the raw
// identifier and its derived digest.
func NewMatchRecord(report *Report, rawIdentifier string) (*MatchRecord, error) {
	hash, err := identifier.Hash(rawIdentifier)
	if err != nil {
		return nil, err
	}
	raw := rawIdentifier
	return &MatchRecord{
		ID:             uuid.New().String(),
		ReportID:       report.ID,
		Report:         report,
		IdentifierHash: hash,
		Identifier:     &raw,
		CreatedAt:      time.Now(),
	}, nil
}

// Matches reports whether this record corresponds to the candidate
// identifier. Comparison runs against the stored digest, so it works for
// records whose transient Identifier has already been cleared.
func (m *MatchRecord) Matches(candidate string) bool {
	return identifier.Verify(candidate, m.IdentifierHash)
}
