// Package handler exposes the matching trigger over HTTP.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"tandem/internal/audit"
	"tandem/internal/matching/service"
	"tandem/internal/platform/middleware"
	"tandem/internal/platform/runlock"
	dErrors "tandem/pkg/domain-errors"
	"tandem/pkg/httputil"
	"tandem/pkg/validation"
)

type Handler struct {
	svc    *service.Service
	locker runlock.Locker
	audits *audit.Publisher
	logger *slog.Logger
}

func New(svc *service.Service, locker runlock.Locker, audits *audit.Publisher, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, locker: locker, audits: audits, logger: logger}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/matching/run", h.runMatching)
	r.Get("/reports/{reportID}/events", h.listReportEvents)
}

type runRequest struct {
	// Absent means "derive from records not yet seen"; an explicit empty
	// list checks nothing.
	Identifiers []string `json:"identifiers" validate:"omitempty,dive,notblank"`
}

type runResponse struct {
	RunID              string `json:"run_id"`
	IdentifiersChecked int    `json:"identifiers_checked"`
	NewMatchGroups     int    `json:"new_match_groups"`
	NotificationsSent  int    `json:"notifications_sent"`
	SchoolReportsSent  int    `json:"school_reports_sent"`
	RecordsMarkedSeen  int    `json:"records_marked_seen"`
}

func (h *Handler) runMatching(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := validation.Validate(req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	release, err := h.locker.Acquire(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	defer func() {
		if err := release(r.Context()); err != nil {
			h.logger.Warn("failed to release run lock",
				"error", err,
				"request_id", middleware.GetRequestID(r.Context()),
			)
		}
	}()

	summary, err := h.svc.Run(r.Context(), req.Identifiers, nil)
	if err != nil {
		h.logger.Error("matching run failed",
			"error", err,
			"request_id", middleware.GetRequestID(r.Context()),
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, runResponse{
		RunID:              summary.RunID,
		IdentifiersChecked: summary.IdentifiersChecked,
		NewMatchGroups:     summary.NewMatchGroups,
		NotificationsSent:  summary.NotificationsSent,
		SchoolReportsSent:  summary.SchoolReportsSent,
		RecordsMarkedSeen:  summary.RecordsMarkedSeen,
	})
}

func (h *Handler) listReportEvents(w http.ResponseWriter, r *http.Request) {
	reportID := chi.URLParam(r, "reportID")
	// The postgres store compares against a uuid column; a malformed id
	// would otherwise surface as a database error.
	if _, err := uuid.Parse(reportID); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "report id must be a valid uuid"))
		return
	}

	events, err := h.audits.ListByReport(r.Context(), reportID)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "list report events"))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{"events": events})
}
