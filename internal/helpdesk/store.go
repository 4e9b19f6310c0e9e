package helpdesk

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/frontdeskhq/frontdesk/internal/db"
)

// Store owns the help request lifecycle. All status transitions go through
// it; other components only create and read requests.
type Store struct {
	db  *db.DB
	now func() time.Time
}

// NewStore creates a new help request store.
func NewStore(database *db.DB) *Store {
	return &Store{db: database, now: time.Now}
}

// Create opens a new pending request. The timeout deadline is fixed at
// creation time.
func (s *Store) Create(ctx context.Context, p CreateParams) (*Request, error) {
	if strings.TrimSpace(p.Question) == "" {
		return nil, fmt.Errorf("%w: question", ErrValidation)
	}

	if p.CallerPhone == "" {
		p.CallerPhone = "unknown"
	}
	if p.CallerName == "" {
		p.CallerName = "Unknown Caller"
	}
	if p.Priority == "" {
		p.Priority = PriorityNormal
	}

	now := s.now().UTC()
	req := Request{
		ID:          uuid.New().String(),
		Question:    p.Question,
		CallerPhone: p.CallerPhone,
		CallerName:  p.CallerName,
		SessionID:   p.SessionID,
		Context:     p.Context,
		Status:      StatusPending,
		Priority:    p.Priority,
		CreatedAt:   now,
		UpdatedAt:   now,
		TimeoutAt:   now.Add(TimeoutWindow),
	}

	var sessionID any
	if req.SessionID != "" {
		sessionID = req.SessionID
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO help_requests (id, question, caller_phone, caller_name, session_id, context, status, priority, created_at, updated_at, timeout_at, notifications_sent)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0)`,
		req.ID, req.Question, req.CallerPhone, req.CallerName, sessionID, req.Context,
		req.Status, req.Priority, req.CreatedAt, req.UpdatedAt, req.TimeoutAt,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting help request: %w", err)
	}

	log.Printf("helpdesk: created request %s (%q)", req.ID, req.Question)
	return &req, nil
}

// Get retrieves a request by id.
func (s *Store) Get(ctx context.Context, id string) (*Request, error) {
	row := s.db.QueryRowContext(ctx, selectRequest+` WHERE id = ?`, id)
	req, err := scanRequest(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting help request: %w", err)
	}
	return req, nil
}

// GetPending returns all pending requests, newest first.
func (s *Store) GetPending(ctx context.Context) ([]Request, error) {
	return s.GetAll(ctx, ListFilter{Status: StatusPending})
}

// GetAll returns requests matching the filter, newest first.
func (s *Store) GetAll(ctx context.Context, filter ListFilter) ([]Request, error) {
	query := selectRequest + ` WHERE 1=1`
	args := []any{}

	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, filter.Status)
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing help requests: %w", err)
	}
	defer rows.Close()

	var requests []Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning help request: %w", err)
		}
		requests = append(requests, *req)
	}
	return requests, rows.Err()
}

// Resolve transitions a pending request to resolved and records the
// supervisor's answer. The status precondition is enforced by the UPDATE's
// WHERE clause, so a concurrent resolve or timeout can win the race and this
// call fails with ErrNotPending without mutating anything.
func (s *Store) Resolve(ctx context.Context, id, answer, supervisorName string) (*Request, error) {
	if strings.TrimSpace(answer) == "" {
		return nil, fmt.Errorf("%w: answer", ErrValidation)
	}
	if supervisorName == "" {
		supervisorName = "Supervisor"
	}

	// Distinguish unknown ids from bad-state ids up front.
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	result, err := s.db.ExecContext(ctx,
		`UPDATE help_requests
		 SET status = ?, response_answer = ?, response_by = ?, response_at = ?, resolved_at = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		StatusResolved, answer, supervisorName, now, now, now, id, StatusPending,
	)
	if err != nil {
		return nil, fmt.Errorf("resolving help request: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, ErrNotPending
	}

	log.Printf("helpdesk: resolved request %s by %s", id, supervisorName)
	return s.Get(ctx, id)
}

// MarkTimeout transitions a pending request to timeout. A request that is no
// longer pending returns ErrNotPending; callers racing the resolve path
// treat that as benign.
func (s *Store) MarkTimeout(ctx context.Context, id string) error {
	now := s.now().UTC()
	result, err := s.db.ExecContext(ctx,
		`UPDATE help_requests SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		StatusTimeout, now, id, StatusPending,
	)
	if err != nil {
		return fmt.Errorf("marking timeout: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		if _, err := s.Get(ctx, id); err != nil {
			return err
		}
		return ErrNotPending
	}

	log.Printf("helpdesk: request %s timed out", id)
	return nil
}

// SweepTimeouts transitions every pending request whose deadline has passed
// and returns the ids that were actually transitioned. Each request is
// attempted independently; a failed or raced transition is logged and does
// not abort the sweep. Running the sweep twice with no intervening writes is
// a no-op the second time.
func (s *Store) SweepTimeouts(ctx context.Context, now time.Time) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM help_requests WHERE status = ? AND timeout_at <= ?`,
		StatusPending, now.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("querying expired requests: %w", err)
	}

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning expired request: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var swept []string
	for _, id := range ids {
		switch err := s.MarkTimeout(ctx, id); {
		case err == nil:
			swept = append(swept, id)
		case errors.Is(err, ErrNotPending):
			// Resolved between the query and the transition. Fine.
		default:
			log.Printf("helpdesk: sweep: timing out %s: %v", id, err)
		}
	}

	if len(swept) > 0 {
		log.Printf("helpdesk: swept %d timed-out request(s)", len(swept))
	}
	return swept, nil
}

// GetStats aggregates request counts and the mean resolution latency.
func (s *Store) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	rows, err := s.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM help_requests GROUP BY status`,
	)
	if err != nil {
		return nil, fmt.Errorf("counting help requests: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scanning status count: %w", err)
		}
		stats.Total += count
		switch status {
		case StatusPending:
			stats.Pending = count
		case StatusResolved:
			stats.Resolved = count
		case StatusTimeout:
			stats.Timeout = count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if stats.Resolved > 0 {
		resolved, err := s.GetAll(ctx, ListFilter{Status: StatusResolved})
		if err != nil {
			return nil, err
		}
		var total time.Duration
		for _, r := range resolved {
			if r.ResolvedAt != nil {
				total += r.ResolvedAt.Sub(r.CreatedAt)
			}
		}
		avg := total.Minutes() / float64(len(resolved))
		stats.AvgResolutionTime = int(math.Round(avg))
	}

	return stats, nil
}

// IncrementNotifications bumps the notification counter. The counter is
// purely observational and never affects state transitions.
func (s *Store) IncrementNotifications(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE help_requests SET notifications_sent = notifications_sent + 1, updated_at = ? WHERE id = ?`,
		s.now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("incrementing notifications: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

const selectRequest = `SELECT id, question, caller_phone, caller_name, session_id, context, status, priority,
	created_at, updated_at, resolved_at, timeout_at, response_answer, response_by, response_at, notifications_sent
	FROM help_requests`

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRequest(row scanner) (*Request, error) {
	var r Request
	var sessionID, respAnswer, respBy sql.NullString
	var resolvedAt, respAt sql.NullTime

	err := row.Scan(&r.ID, &r.Question, &r.CallerPhone, &r.CallerName, &sessionID, &r.Context,
		&r.Status, &r.Priority, &r.CreatedAt, &r.UpdatedAt, &resolvedAt, &r.TimeoutAt,
		&respAnswer, &respBy, &respAt, &r.NotificationsSent)
	if err != nil {
		return nil, err
	}

	r.SessionID = sessionID.String
	if resolvedAt.Valid {
		r.ResolvedAt = &resolvedAt.Time
	}
	if respAnswer.Valid {
		r.SupervisorResponse = &SupervisorResponse{
			Answer:      respAnswer.String,
			RespondedBy: respBy.String,
			RespondedAt: respAt.Time,
		}
	}
	return &r, nil
}
