package notification

import (
	"context"
	"log/slog"

	"tandem/internal/report/models"
)

// LogNotifier writes notifications to the log instead of delivering them.
// It stands in for the API client in development when no notification
// gateway is configured.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) SendMatchNotification(ctx context.Context, ownerID string, record *models.MatchRecord) error {
	n.logger.InfoContext(ctx, "match notification (log only)",
		"owner_id", ownerID,
		"report_id", record.ReportID,
	)
	return nil
}

func (n *LogNotifier) SendMatchingReportToSchool(ctx context.Context, matches []*models.MatchRecord, identifier string) error {
	n.logger.InfoContext(ctx, "school report (log only)", "group_size", len(matches))
	return nil
}

var _ Notifier = (*LogNotifier)(nil)
