package store

import (
	"context"
	"sort"
	"sync"

	"tandem/internal/report/models"
)

// InMemoryStore keeps reports and match records in memory for tests and
// single-node development.
type InMemoryStore struct {
	mu      sync.RWMutex
	reports map[string]*models.Report
	records map[string]*models.MatchRecord
	order   []string
}

// New constructs an empty in-memory store.
func New() *InMemoryStore {
	return &InMemoryStore{
		reports: make(map[string]*models.Report),
		records: make(map[string]*models.MatchRecord),
	}
}

func (s *InMemoryStore) CreateReport(_ context.Context, report *models.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copyReport := *report
	s.reports[report.ID] = &copyReport
	return nil
}

func (s *InMemoryStore) CreateMatchRecord(_ context.Context, record *models.MatchRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[record.ID]; !ok {
		s.order = append(s.order, record.ID)
	}
	s.records[record.ID] = copyRecord(record)
	return nil
}

func (s *InMemoryStore) SaveReport(_ context.Context, report *models.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reports[report.ID]; !ok {
		return ErrNotFound
	}
	copyReport := *report
	s.reports[report.ID] = &copyReport
	return nil
}

func (s *InMemoryStore) SaveMatchRecord(_ context.Context, record *models.MatchRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[record.ID]; !ok {
		return ErrNotFound
	}
	s.records[record.ID] = copyRecord(record)
	return nil
}

func (s *InMemoryStore) FindReport(_ context.Context, id string) (*models.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	report, ok := s.reports[id]
	if !ok {
		return nil, ErrNotFound
	}
	copyReport := *report
	return &copyReport, nil
}

func (s *InMemoryStore) ListMatchRecords(_ context.Context) ([]*models.MatchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listLocked(func(*models.MatchRecord) bool { return true }), nil
}

func (s *InMemoryStore) ListUnseen(_ context.Context) ([]*models.MatchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listLocked(func(r *models.MatchRecord) bool { return !r.Seen }), nil
}

// listLocked returns copies in insertion order with Report populated from the
// report table, so callers observe report mutations saved by earlier passes.
func (s *InMemoryStore) listLocked(keep func(*models.MatchRecord) bool) []*models.MatchRecord {
	results := make([]*models.MatchRecord, 0, len(s.order))
	for _, id := range s.order {
		record, ok := s.records[id]
		if !ok || !keep(record) {
			continue
		}
		out := copyRecord(record)
		if report, ok := s.reports[record.ReportID]; ok {
			copyReport := *report
			out.Report = &copyReport
		}
		results = append(results, out)
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].CreatedAt.Before(results[j].CreatedAt)
	})
	return results
}

// copyRecord deep-copies a match record so callers cannot mutate stored state.
func copyRecord(record *models.MatchRecord) *models.MatchRecord {
	out := *record
	if record.Identifier != nil {
		raw := *record.Identifier
		out.Identifier = &raw
	}
	if record.Report != nil {
		copyReport := *record.Report
		out.Report = &copyReport
	}
	return &out
}
