// Package notification delivers match outcomes to reporting users and to the
// receiving authority. The matching service depends only on the Notifier
// interface; implementations are injected per invocation.
package notification

import (
	"context"

	"tandem/internal/report/models"
)

// Notifier is the capability set matching needs from the notification
// system: one message per newly matched owner, and one escalation report per
// confirmed match group.
type Notifier interface {
	SendMatchNotification(ctx context.Context, ownerID string, record *models.MatchRecord) error
	SendMatchingReportToSchool(ctx context.Context, matches []*models.MatchRecord, identifier string) error
}
