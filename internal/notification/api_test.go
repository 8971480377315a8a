package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tandem/internal/report/models"
	dErrors "tandem/pkg/domain-errors"
)

func TestAPIClientSendsMatchNotification(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody matchNotificationRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	client := NewAPIClient(server.URL, "api-token", time.Second)
	report := models.NewReport("owner-a")
	record, err := models.NewMatchRecord(report, "identifier")
	require.NoError(t, err)

	require.NoError(t, client.SendMatchNotification(context.Background(), "owner-a", record))

	assert.Equal(t, "/notifications/match", gotPath)
	assert.Equal(t, "Bearer api-token", gotAuth)
	assert.Equal(t, "owner-a", gotBody.OwnerID)
	assert.Equal(t, report.ID, gotBody.ReportID)
}

func TestAPIClientSendsSchoolReport(t *testing.T) {
	var gotBody schoolReportRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/reports/school", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewAPIClient(server.URL, "", time.Second)
	r1, err := models.NewMatchRecord(models.NewReport("owner-a"), "identifier")
	require.NoError(t, err)
	r2, err := models.NewMatchRecord(models.NewReport("owner-b"), "identifier")
	require.NoError(t, err)

	err = client.SendMatchingReportToSchool(context.Background(), []*models.MatchRecord{r1, r2}, "identifier")
	require.NoError(t, err)

	assert.Equal(t, "identifier", gotBody.Identifier)
	require.Len(t, gotBody.Matches, 2)
	assert.Equal(t, "owner-a", gotBody.Matches[0].OwnerID)
	assert.Equal(t, "owner-b", gotBody.Matches[1].OwnerID)
}

func TestAPIClientSurfacesServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewAPIClient(server.URL, "", time.Second)
	record, err := models.NewMatchRecord(models.NewReport("owner-a"), "identifier")
	require.NoError(t, err)

	err = client.SendMatchNotification(context.Background(), "owner-a", record)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
}
