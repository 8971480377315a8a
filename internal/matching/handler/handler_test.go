package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tandem/internal/audit"
	"tandem/internal/matching/service"
	"tandem/internal/notification"
	"tandem/internal/platform/runlock"
	"tandem/internal/report/models"
	"tandem/internal/report/store"
)

type fixture struct {
	store    *store.InMemoryStore
	recorder *notification.Recorder
	locker   *runlock.Local
	router   chi.Router
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	recordStore := store.New()
	recorder := notification.NewRecorder()
	auditor := audit.NewPublisher(audit.NewInMemoryStore())
	logger := slog.New(slog.DiscardHandler)
	svc := service.NewService(recordStore, auditor, recorder, logger)
	locker := runlock.NewLocal()

	router := chi.NewRouter()
	New(svc, locker, auditor, logger).RegisterRoutes(router)

	return &fixture{store: recordStore, recorder: recorder, locker: locker, router: router}
}

func (f *fixture) seed(t *testing.T, ownerID, rawIdentifier string) *models.MatchRecord {
	t.Helper()
	report := models.NewReport(ownerID)
	require.NoError(t, f.store.CreateReport(context.Background(), report))
	record, err := models.NewMatchRecord(report, rawIdentifier)
	require.NoError(t, err)
	require.NoError(t, f.store.CreateMatchRecord(context.Background(), record))
	return record
}

func (f *fixture) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestRunMatching(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "owner-a", "instagram.com/someone")
	f.seed(t, "owner-b", "instagram.com/someone")

	rec := f.do(http.MethodPost, "/matching/run", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		RunID             string `json:"run_id"`
		NewMatchGroups    int    `json:"new_match_groups"`
		NotificationsSent int    `json:"notifications_sent"`
		SchoolReportsSent int    `json:"school_reports_sent"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.RunID)
	assert.Equal(t, 1, resp.NewMatchGroups)
	assert.Equal(t, 2, resp.NotificationsSent)
	assert.Equal(t, 1, resp.SchoolReportsSent)
	assert.Len(t, f.recorder.Notifications, 2)
}

func TestRunMatchingExplicitIdentifiers(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "owner-a", "instagram.com/someone")
	f.seed(t, "owner-b", "instagram.com/someone")

	rec := f.do(http.MethodPost, "/matching/run", `{"identifiers": []}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, f.recorder.Notifications)
}

func TestRunMatchingInvalidBody(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodPost, "/matching/run", `{"identifiers": "not-a-list"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRunMatchingBlankIdentifier(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodPost, "/matching/run", `{"identifiers": ["  "]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRunMatchingWhileLocked(t *testing.T) {
	f := newFixture(t)
	release, err := f.locker.Acquire(context.Background())
	require.NoError(t, err)
	defer func() { _ = release(context.Background()) }()

	rec := f.do(http.MethodPost, "/matching/run", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestListReportEventsRejectsMalformedID(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodGet, "/reports/not-a-uuid/events", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListReportEvents(t *testing.T) {
	f := newFixture(t)
	record := f.seed(t, "owner-a", "instagram.com/someone")
	f.seed(t, "owner-b", "instagram.com/someone")

	rec := f.do(http.MethodPost, "/matching/run", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodGet, "/reports/"+record.ReportID+"/events", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Events []audit.Event `json:"events"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Events, 1)
	assert.Equal(t, audit.ActionMatchFound, resp.Events[0].Action)
	assert.Equal(t, "owner-a", resp.Events[0].OwnerID)
}
