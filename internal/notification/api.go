package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"tandem/internal/report/models"
	dErrors "tandem/pkg/domain-errors"
)

// APIClient is the default Notifier. It posts JSON to the notification
// service, which owns templating and delivery (email, in-app).
type APIClient struct {
	baseURL string
	token   string
	client  *http.Client
}

// APIOption configures the APIClient.
type APIOption func(*APIClient)

// WithHTTPClient injects a custom http.Client, mainly for tests.
func WithHTTPClient(client *http.Client) APIOption {
	return func(c *APIClient) {
		c.client = client
	}
}

// NewAPIClient constructs the HTTP notifier.
func NewAPIClient(baseURL, token string, timeout time.Duration, opts ...APIOption) *APIClient {
	c := &APIClient{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type matchNotificationRequest struct {
	OwnerID  string `json:"owner_id"`
	ReportID string `json:"report_id"`
	RecordID string `json:"record_id"`
}

type schoolReportRequest struct {
	Identifier string              `json:"identifier"`
	Matches    []schoolReportMatch `json:"matches"`
}

type schoolReportMatch struct {
	RecordID  string    `json:"record_id"`
	ReportID  string    `json:"report_id"`
	OwnerID   string    `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
}

// SendMatchNotification tells one reporting user that their report matched.
func (c *APIClient) SendMatchNotification(ctx context.Context, ownerID string, record *models.MatchRecord) error {
	return c.post(ctx, "/notifications/match", matchNotificationRequest{
		OwnerID:  ownerID,
		ReportID: record.ReportID,
		RecordID: record.ID,
	})
}

// SendMatchingReportToSchool escalates the full match group to the receiving
// authority.
func (c *APIClient) SendMatchingReportToSchool(ctx context.Context, matches []*models.MatchRecord, identifier string) error {
	req := schoolReportRequest{Identifier: identifier}
	for _, m := range matches {
		entry := schoolReportMatch{
			RecordID:  m.ID,
			ReportID:  m.ReportID,
			CreatedAt: m.CreatedAt,
		}
		if m.Report != nil {
			entry.OwnerID = m.Report.OwnerID
		}
		req.Matches = append(req.Matches, entry)
	}
	return c.post(ctx, "/reports/school", req)
}

func (c *APIClient) post(ctx context.Context, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "encode notification payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "build notification request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "notification service unreachable")
	}
	defer resp.Body.Close()
	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return dErrors.New(dErrors.CodeUnavailable,
			fmt.Sprintf("notification service returned %d for %s", resp.StatusCode, path))
	}
	return nil
}

var _ Notifier = (*APIClient)(nil)
