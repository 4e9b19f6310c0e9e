package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/frontdeskhq/frontdesk/internal/db"
)

// Turn roles in a conversation.
const (
	RoleCaller = "caller"
	RoleAgent  = "agent"
)

// Turn is one utterance in a conversation session.
type Turn struct {
	Role    string    `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// SessionStore holds per-session conversation history. Implementations must
// be safe for concurrent use.
type SessionStore interface {
	Append(ctx context.Context, sessionID string, turns ...Turn) error
	History(ctx context.Context, sessionID string) ([]Turn, error)
	Clear(ctx context.Context, sessionID string) error
	ActiveCount(ctx context.Context) (int, error)
}

// DefaultSessionTTL is how long an idle session's history is retained.
const DefaultSessionTTL = 2 * time.Hour

type memorySession struct {
	turns    []Turn
	lastSeen time.Time
}

// MemorySessionStore keeps history in process memory with idle-TTL eviction.
// Suitable for a single-instance deployment.
type MemorySessionStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]*memorySession
	now      func() time.Time
}

// NewMemorySessionStore creates a memory store with the given idle TTL.
// A zero ttl falls back to DefaultSessionTTL.
func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &MemorySessionStore{
		ttl:      ttl,
		sessions: make(map[string]*memorySession),
		now:      time.Now,
	}
}

func (m *MemorySessionStore) Append(_ context.Context, sessionID string, turns ...Turn) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pruneLocked()

	s, ok := m.sessions[sessionID]
	if !ok {
		s = &memorySession{}
		m.sessions[sessionID] = s
	}
	s.turns = append(s.turns, turns...)
	s.lastSeen = m.now()
	return nil
}

func (m *MemorySessionStore) History(_ context.Context, sessionID string) ([]Turn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pruneLocked()

	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	s.lastSeen = m.now()
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out, nil
}

func (m *MemorySessionStore) Clear(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
	return nil
}

func (m *MemorySessionStore) ActiveCount(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pruneLocked()
	return len(m.sessions), nil
}

func (m *MemorySessionStore) pruneLocked() {
	cutoff := m.now().Add(-m.ttl)
	for id, s := range m.sessions {
		if s.lastSeen.Before(cutoff) {
			delete(m.sessions, id)
		}
	}
}

// SQLiteSessionStore persists history in the chat_sessions/chat_messages
// tables so conversations survive restarts and can be shared across
// instances pointing at the same database.
type SQLiteSessionStore struct {
	db     *db.DB
	window time.Duration
}

// NewSQLiteSessionStore creates a database-backed session store. window
// bounds what ActiveCount considers active; zero falls back to
// DefaultSessionTTL.
func NewSQLiteSessionStore(database *db.DB, window time.Duration) *SQLiteSessionStore {
	if window <= 0 {
		window = DefaultSessionTTL
	}
	return &SQLiteSessionStore{db: database, window: window}
}

func (s *SQLiteSessionStore) Append(ctx context.Context, sessionID string, turns ...Turn) error {
	if len(turns) == 0 {
		return nil
	}
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_sessions (id, created_at, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET updated_at = excluded.updated_at`,
		sessionID, now, now,
	)
	if err != nil {
		return fmt.Errorf("upserting session: %w", err)
	}

	var seq int
	row := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) FROM chat_messages WHERE session_id = ?`, sessionID)
	if err := row.Scan(&seq); err != nil {
		return fmt.Errorf("reading message sequence: %w", err)
	}

	for _, turn := range turns {
		seq++
		at := turn.At
		if at.IsZero() {
			at = now
		}
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO chat_messages (id, session_id, role, content, seq, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			uuid.New().String(), sessionID, turn.Role, turn.Content, seq, at.UTC(),
		)
		if err != nil {
			return fmt.Errorf("inserting message: %w", err)
		}
	}
	return nil
}

func (s *SQLiteSessionStore) History(ctx context.Context, sessionID string) ([]Turn, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT role, content, created_at FROM chat_messages WHERE session_id = ? ORDER BY seq ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var t Turn
		if err := rows.Scan(&t.Role, &t.Content, &t.At); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

func (s *SQLiteSessionStore) Clear(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM chat_messages WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("deleting messages: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM chat_sessions WHERE id = ?`, sessionID); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

func (s *SQLiteSessionStore) ActiveCount(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-s.window)
	var count int
	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM chat_sessions WHERE updated_at >= ?`, cutoff)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("counting sessions: %w", err)
	}
	return count, nil
}
