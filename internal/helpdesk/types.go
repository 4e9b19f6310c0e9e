package helpdesk

import (
	"errors"
	"time"
)

// Status is the lifecycle state of a help request. Transitions are
// one-directional: pending is the only non-terminal state.
type Status string

const (
	StatusPending  Status = "pending"
	StatusResolved Status = "resolved"
	StatusTimeout  Status = "timeout"
)

// Priority orders requests for supervisor attention.
type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

// TimeoutWindow is how long a request may sit pending before the sweeper
// marks it timed out.
const TimeoutWindow = 30 * time.Minute

// Sentinel errors returned by the store.
var (
	ErrNotFound   = errors.New("help request not found")
	ErrNotPending = errors.New("help request is not pending")
	ErrValidation = errors.New("missing required field")
)

// SupervisorResponse records the human answer that resolved a request.
type SupervisorResponse struct {
	Answer      string    `json:"answer"`
	RespondedBy string    `json:"responded_by"`
	RespondedAt time.Time `json:"responded_at"`
}

// Request is a tracked escalation from the automated agent to a human
// supervisor.
type Request struct {
	ID                 string              `json:"id"`
	Question           string              `json:"question"`
	CallerPhone        string              `json:"caller_phone"`
	CallerName         string              `json:"caller_name"`
	SessionID          string              `json:"session_id,omitempty"`
	Context            string              `json:"context"`
	Status             Status              `json:"status"`
	Priority           Priority            `json:"priority"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
	ResolvedAt         *time.Time          `json:"resolved_at,omitempty"`
	TimeoutAt          time.Time           `json:"timeout_at"`
	SupervisorResponse *SupervisorResponse `json:"supervisor_response,omitempty"`
	NotificationsSent  int                 `json:"notifications_sent"`
}

// CreateParams are the caller-supplied fields for a new request.
type CreateParams struct {
	Question    string
	CallerPhone string
	CallerName  string
	SessionID   string
	Context     string
	Priority    Priority
}

// ListFilter controls which requests GetAll returns.
type ListFilter struct {
	Status Status
	Limit  int
}

// Stats aggregates request counts per status plus the mean resolution
// latency in whole minutes over resolved requests.
type Stats struct {
	Total             int `json:"total"`
	Pending           int `json:"pending"`
	Resolved          int `json:"resolved"`
	Timeout           int `json:"timeout"`
	AvgResolutionTime int `json:"avgResolutionTime"` // minutes, 0 when nothing resolved
}
