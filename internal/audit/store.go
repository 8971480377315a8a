package audit

import "context"

// Store persists audit events. ListByReport returns an empty slice, not an
// error, for reports with no recorded events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByReport(ctx context.Context, reportID string) ([]Event, error)
}
