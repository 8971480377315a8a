package audit

import "time"

// Event is emitted from matching logic to capture key actions. It mirrors the
// evaluation rows the reporting pipeline consumes: one row per affected
// report, tagged with the action and the run that produced it.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Action    Action    `json:"action"`
	ReportID  string    `json:"report_id"`
	OwnerID   string    `json:"owner_id"`
	RunID     string    `json:"run_id"`
}

type Action string

const (
	ActionMatchFound   Action = "match_found"
	ActionRunStarted   Action = "match_run_started"
	ActionRunCompleted Action = "match_run_completed"
)
