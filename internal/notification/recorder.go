package notification

import (
	"context"
	"sync"

	"tandem/internal/report/models"
)

// MatchNotification captures one SendMatchNotification call.
type MatchNotification struct {
	OwnerID string
	Record  *models.MatchRecord
}

// SchoolReport captures one SendMatchingReportToSchool call.
type SchoolReport struct {
	Identifier string
	Matches    []*models.MatchRecord
}

// Recorder is a Notifier that records calls for assertions in tests. Errors
// can be injected to exercise propagation paths.
type Recorder struct {
	mu            sync.Mutex
	Notifications []MatchNotification
	SchoolReports []SchoolReport

	NotifyErr error
	SchoolErr error
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) SendMatchNotification(_ context.Context, ownerID string, record *models.MatchRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.NotifyErr != nil {
		return r.NotifyErr
	}
	r.Notifications = append(r.Notifications, MatchNotification{OwnerID: ownerID, Record: record})
	return nil
}

func (r *Recorder) SendMatchingReportToSchool(_ context.Context, matches []*models.MatchRecord, identifier string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.SchoolErr != nil {
		return r.SchoolErr
	}
	r.SchoolReports = append(r.SchoolReports, SchoolReport{Identifier: identifier, Matches: matches})
	return nil
}

// NotifiedOwners returns the distinct owners notified, in call order.
func (r *Recorder) NotifiedOwners() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	owners := make([]string, 0, len(r.Notifications))
	for _, n := range r.Notifications {
		owners = append(owners, n.OwnerID)
	}
	return owners
}

var _ Notifier = (*Recorder)(nil)
