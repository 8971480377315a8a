// Package service implements the matching pass over submitted identifiers.
//
// A match is "new" when at least two records with the same identifier belong
// to at least two distinct users and at least one of those records had not
// been seen by a previous run. New matches notify each reporting user once
// and escalate the full group to the receiving authority.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"tandem/internal/audit"
	"tandem/internal/matching/metrics"
	"tandem/internal/matching/tracer"
	"tandem/internal/notification"
	"tandem/internal/report/models"
	dErrors "tandem/pkg/domain-errors"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store

// Store defines the persistence interface for reports and match records.
// Error Contract:
// - List methods return records with Report populated
// - Save methods return nil on success or wrapped errors on failure
type Store interface {
	ListMatchRecords(ctx context.Context) ([]*models.MatchRecord, error)
	ListUnseen(ctx context.Context) ([]*models.MatchRecord, error)
	SaveReport(ctx context.Context, report *models.Report) error
	SaveMatchRecord(ctx context.Context, record *models.MatchRecord) error
}

// Summary reports what a matching run did.
type Summary struct {
	RunID              string
	IdentifiersChecked int
	NewMatchGroups     int
	NotificationsSent  int
	SchoolReportsSent  int
	RecordsMarkedSeen  int
}

type Option func(*Service)

// Service runs the matching pass. It is not safe for concurrent invocations;
// callers serialize runs (see platform/runlock).
type Service struct {
	store    Store
	auditor  *audit.Publisher
	notifier notification.Notifier
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   tracer.Tracer
}

func NewService(store Store, auditor *audit.Publisher, notifier notification.Notifier, logger *slog.Logger, opts ...Option) *Service {
	svc := &Service{
		store:    store,
		auditor:  auditor,
		notifier: notifier,
		logger:   logger,
		tracer:   tracer.NewNoop(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// WithMetrics sets the metrics instance for the service.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithTracer sets the tracer used for matching spans.
func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

// Run is the matching entry point. A nil identifiers slice means "check the
// identifiers of all records not yet seen by a previous run"; an explicit
// empty slice checks nothing. A nil notifier falls back to the service
// default.
func (s *Service) Run(ctx context.Context, identifiers []string, notifier notification.Notifier) (summary *Summary, err error) {
	runID := uuid.New().String()
	start := time.Now()

	ctx, span := s.tracer.Start(ctx, tracer.SpanMatchingRun, tracer.String(tracer.AttrRunID, runID))
	defer func() { span.End(err) }()

	s.logger.InfoContext(ctx, "running matching", "run_id", runID)

	if identifiers == nil {
		identifiers, err = s.unseenIdentifiers(ctx)
		if err != nil {
			s.incrementRuns("error")
			return nil, err
		}
	}

	if err = s.emitRunEvent(ctx, audit.ActionRunStarted, runID); err != nil {
		s.incrementRuns("error")
		return nil, err
	}

	summary, err = s.findMatches(ctx, runID, identifiers, notifier)
	if err != nil {
		s.incrementRuns("error")
		return summary, err
	}

	if err = s.emitRunEvent(ctx, audit.ActionRunCompleted, runID); err != nil {
		s.incrementRuns("error")
		return summary, err
	}

	s.incrementRuns("success")
	if s.metrics != nil {
		s.metrics.ObserveRunLatency(time.Since(start).Seconds())
	}
	s.logger.InfoContext(ctx, "matching completed",
		"run_id", runID,
		"identifiers_checked", summary.IdentifiersChecked,
		"new_match_groups", summary.NewMatchGroups,
		"notifications_sent", summary.NotificationsSent,
		"records_marked_seen", summary.RecordsMarkedSeen,
	)
	return summary, nil
}

// FindMatches checks the given identifiers against all existing match
// records. It is exported for callers that manage their own identifier
// derivation; Run is the usual entry point.
func (s *Service) FindMatches(ctx context.Context, identifiers []string, notifier notification.Notifier) (*Summary, error) {
	return s.findMatches(ctx, uuid.New().String(), identifiers, notifier)
}

func (s *Service) findMatches(ctx context.Context, runID string, identifiers []string, notifier notification.Notifier) (*Summary, error) {
	if notifier == nil {
		notifier = s.notifier
	}
	summary := &Summary{RunID: runID, IdentifiersChecked: len(identifiers)}
	for _, identifier := range identifiers {
		if err := s.matchIdentifier(ctx, runID, identifier, notifier, summary); err != nil {
			return summary, err
		}
	}
	return summary, nil
}

// matchIdentifier runs one identifier through the full scan-decide-flag
// cycle. The scan is deliberately a full pass over every record: volumes are
// small and an index over derived identifier values would defeat the salted
// storage form.
func (s *Service) matchIdentifier(ctx context.Context, runID, identifier string, notifier notification.Notifier, summary *Summary) (err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanMatchingScan,
		tracer.String(tracer.AttrRunID, runID),
		tracer.String(tracer.AttrIdentifier, tracer.HashIdentifier(identifier)),
	)
	defer func() { span.End(err) }()

	all, err := s.store.ListMatchRecords(ctx)
	if err != nil {
		err = dErrors.Wrap(err, dErrors.CodeInternal, "list match records")
		return err
	}
	if s.metrics != nil {
		s.metrics.RecordsScanned.Observe(float64(len(all)))
	}

	matchList := make([]*models.MatchRecord, 0)
	for _, record := range all {
		if record.Matches(identifier) {
			matchList = append(matchList, record)
		}
	}

	if len(matchList) > 1 {
		seenOwners := make(map[string]struct{})
		newOwners := make(map[string]struct{})
		for _, m := range matchList {
			if m.Seen {
				seenOwners[m.Report.OwnerID] = struct{}{}
			} else {
				newOwners[m.Report.OwnerID] = struct{}{}
			}
		}
		span.SetAttributes(
			tracer.Int64(tracer.AttrGroupSize, int64(len(matchList))),
			tracer.Int64(tracer.AttrDistinctOwner, int64(distinctOwners(seenOwners, newOwners))),
		)

		// Multiple reports by the same person are not a match.
		if distinctOwners(seenOwners, newOwners) > 1 {
			// Only notify when someone we didn't already know about has
			// matched; the group itself is still flagged below either way.
			if !isSubset(newOwners, seenOwners) {
				if err = s.processNewMatches(ctx, runID, matchList, identifier, notifier, summary); err != nil {
					return err
				}
				summary.NewMatchGroups++
				if s.metrics != nil {
					s.metrics.NewMatchGroups.Inc()
				}
			}
			for _, m := range matchList {
				m.Report.MatchFound = true
				if err = s.store.SaveReport(ctx, m.Report); err != nil {
					err = dErrors.Wrap(err, dErrors.CodeInternal, "save report")
					return err
				}
			}
		}
	}

	for _, m := range matchList {
		m.Seen = true
		// The raw value is only carried until a record's first pass; the
		// digest keeps future runs matching.
		m.Identifier = nil
		if err = s.store.SaveMatchRecord(ctx, m); err != nil {
			err = dErrors.Wrap(err, dErrors.CodeInternal, "save match record")
			return err
		}
		summary.RecordsMarkedSeen++
		if s.metrics != nil {
			s.metrics.RecordsMarkedSeen.Inc()
		}
	}
	return nil
}

// processNewMatches records an eval row per report, notifies each distinct
// owner at most once, and always escalates the full group to the receiving
// authority exactly once.
//
// Owners whose report already has a match or was already submitted to the
// school are not re-notified; this check reads the pre-run flag value, which
// is why the caller persists match_found only after this returns.
func (s *Service) processNewMatches(ctx context.Context, runID string, matches []*models.MatchRecord, identifier string, notifier notification.Notifier, summary *Summary) (err error) {
	s.logger.InfoContext(ctx, "new match found", "run_id", runID, "group_size", len(matches))

	ctx, span := s.tracer.Start(ctx, tracer.SpanEscalate,
		tracer.String(tracer.AttrRunID, runID),
		tracer.Int64(tracer.AttrGroupSize, int64(len(matches))),
	)
	defer func() { span.End(err) }()

	notified := make(map[string]struct{})
	for _, m := range matches {
		if err = s.auditor.Emit(ctx, audit.Event{
			Action:   audit.ActionMatchFound,
			ReportID: m.ReportID,
			OwnerID:  m.Report.OwnerID,
			RunID:    runID,
		}); err != nil {
			return err
		}

		owner := m.Report.OwnerID
		if _, already := notified[owner]; already {
			continue
		}
		if m.Report.MatchFound || m.Report.SubmittedToSchool {
			continue
		}
		if err = notifier.SendMatchNotification(ctx, owner, m); err != nil {
			err = dErrors.Wrap(err, dErrors.CodeUnavailable, "send match notification")
			return err
		}
		notified[owner] = struct{}{}
		summary.NotificationsSent++
		if s.metrics != nil {
			s.metrics.NotificationsSent.Inc()
		}
	}

	if err = notifier.SendMatchingReportToSchool(ctx, matches, identifier); err != nil {
		err = dErrors.Wrap(err, dErrors.CodeUnavailable, "send matching report to school")
		return err
	}
	summary.SchoolReportsSent++
	if s.metrics != nil {
		s.metrics.SchoolReportsSent.Inc()
	}
	return nil
}

// unseenIdentifiers derives the candidate list from records no prior run has
// processed. Records whose raw identifier was already cleared are skipped.
func (s *Service) unseenIdentifiers(ctx context.Context) ([]string, error) {
	unseen, err := s.store.ListUnseen(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list unseen match records")
	}
	identifiers := make([]string, 0, len(unseen))
	for _, record := range unseen {
		if record.Identifier != nil {
			identifiers = append(identifiers, *record.Identifier)
		}
	}
	return identifiers, nil
}

func (s *Service) emitRunEvent(ctx context.Context, action audit.Action, runID string) error {
	return s.auditor.Emit(ctx, audit.Event{Action: action, RunID: runID})
}

func (s *Service) incrementRuns(outcome string) {
	if s.metrics != nil {
		s.metrics.IncrementRuns(outcome)
	}
}

func distinctOwners(seen, unseen map[string]struct{}) int {
	count := len(seen)
	for owner := range unseen {
		if _, ok := seen[owner]; !ok {
			count++
		}
	}
	return count
}

// isSubset reports whether every member of sub is also in super.
func isSubset(sub, super map[string]struct{}) bool {
	for owner := range sub {
		if _, ok := super[owner]; !ok {
			return false
		}
	}
	return true
}
