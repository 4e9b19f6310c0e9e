package knowledge

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/frontdeskhq/frontdesk/internal/db"
)

// Store manages the knowledge corpus.
type Store struct {
	db *db.DB
}

// NewStore creates a new knowledge store.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// seedEntries returns the fixed bootstrap corpus for a business. The ids are
// stable so Bootstrap can run on every startup without duplicating entries.
func seedEntries(biz Business) []Entry {
	return []Entry{
		{
			ID:       "business_info",
			Category: "general",
			Question: "business information",
			Answer: fmt.Sprintf("%s is a premium salon and spa. We offer haircuts, coloring, styling, "+
				"manicures, pedicures, facials, and massage services. We're open Monday-Saturday 9am-7pm, "+
				"Sunday 10am-5pm. Located at 123 Main Street.", biz.Name),
		},
		{
			ID:       "hours",
			Category: "hours",
			Question: "what are your hours",
			Answer:   "We are open Monday through Saturday from 9am to 7pm, and Sunday from 10am to 5pm.",
		},
		{
			ID:       "services",
			Category: "services",
			Question: "what services do you offer",
			Answer:   "We offer haircuts, hair coloring, styling, manicures, pedicures, facials, massages, and waxing services.",
		},
		{
			ID:       "booking",
			Category: "booking",
			Question: "how do i book an appointment",
			Answer: fmt.Sprintf("You can book an appointment by calling us at %s or visiting our website. "+
				"Walk-ins are also welcome based on availability.", biz.Phone),
		},
	}
}

// Bootstrap ensures the seed corpus exists. Existing entries are never
// overwritten, so supervisor edits to seed answers survive restarts.
func (s *Store) Bootstrap(ctx context.Context, biz Business) error {
	now := time.Now().UTC()
	for _, e := range seedEntries(biz) {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO knowledge_entries (id, question, answer, category, confidence, source, use_count, created_at, updated_at)
			 VALUES (?, ?, ?, ?, 1.0, ?, 0, ?, ?)
			 ON CONFLICT(id) DO NOTHING`,
			e.ID, e.Question, e.Answer, e.Category, SourceInitial, now, now,
		)
		if err != nil {
			return fmt.Errorf("seeding entry %s: %w", e.ID, err)
		}
	}
	return nil
}

// Search returns the single entry whose stored question best matches the
// query, or nil when no entry clears the relevance floor. A successful match
// bumps the entry's use count and last-used timestamp; this is a
// side-effecting read by design of the learning loop.
func (s *Store) Search(ctx context.Context, query string) (*Match, error) {
	entries, err := s.allOrdered(ctx, "rowid ASC")
	if err != nil {
		return nil, err
	}

	var best *Match
	for i := range entries {
		score := Relevance(query, entries[i].Question)
		// Strict comparisons: the floor must be exceeded, and an equal
		// score keeps the earlier entry.
		if score > relevanceFloor && (best == nil || score > best.RelevanceScore) {
			best = &Match{Entry: entries[i], RelevanceScore: score}
		}
	}
	if best == nil {
		return nil, nil
	}

	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx,
		`UPDATE knowledge_entries SET use_count = use_count + 1, last_used = ? WHERE id = ?`,
		now, best.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("recording knowledge use: %w", err)
	}
	best.UseCount++
	best.LastUsed = &now

	return best, nil
}

// Add inserts a new entry with a fresh id. Question and answer are required.
func (s *Store) Add(ctx context.Context, e Entry) (*Entry, error) {
	if strings.TrimSpace(e.Question) == "" {
		return nil, fmt.Errorf("%w: question", ErrValidation)
	}
	if strings.TrimSpace(e.Answer) == "" {
		return nil, fmt.Errorf("%w: answer", ErrValidation)
	}

	e.ID = uuid.New().String()
	if e.Category == "" {
		e.Category = "learned"
	}
	if e.Confidence == 0 {
		e.Confidence = 0.8
	}
	if e.Source == "" {
		e.Source = SourceSupervisor
	}
	e.UseCount = 0
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now

	var learnedFrom any
	if e.LearnedFrom != "" {
		learnedFrom = e.LearnedFrom
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO knowledge_entries (id, question, answer, category, confidence, source, use_count, learned_from, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, 0, ?, ?, ?)`,
		e.ID, e.Question, e.Answer, e.Category, e.Confidence, e.Source, learnedFrom, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting knowledge entry: %w", err)
	}

	log.Printf("knowledge: added entry %s (%q)", e.ID, e.Question)
	return &e, nil
}

// Get retrieves an entry by id.
func (s *Store) Get(ctx context.Context, id string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, question, answer, category, confidence, source, use_count, learned_from, created_at, updated_at, last_used
		 FROM knowledge_entries WHERE id = ?`, id,
	)
	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting knowledge entry: %w", err)
	}
	return e, nil
}

// GetAll returns every entry, most recent first.
func (s *Store) GetAll(ctx context.Context) ([]Entry, error) {
	return s.allOrdered(ctx, "created_at DESC, rowid DESC")
}

func (s *Store) allOrdered(ctx context.Context, order string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, question, answer, category, confidence, source, use_count, learned_from, created_at, updated_at, last_used
		 FROM knowledge_entries ORDER BY `+order,
	)
	if err != nil {
		return nil, fmt.Errorf("querying knowledge entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning knowledge entry: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// Update applies a partial edit and refreshes the updated-at timestamp.
func (s *Store) Update(ctx context.Context, id string, patch Patch) error {
	sets := []string{"updated_at = ?"}
	args := []any{time.Now().UTC()}

	if patch.Question != nil {
		sets = append(sets, "question = ?")
		args = append(args, *patch.Question)
	}
	if patch.Answer != nil {
		sets = append(sets, "answer = ?")
		args = append(args, *patch.Answer)
	}
	if patch.Category != nil {
		sets = append(sets, "category = ?")
		args = append(args, *patch.Category)
	}
	if patch.Confidence != nil {
		sets = append(sets, "confidence = ?")
		args = append(args, *patch.Confidence)
	}
	args = append(args, id)

	result, err := s.db.ExecContext(ctx,
		`UPDATE knowledge_entries SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...,
	)
	if err != nil {
		return fmt.Errorf("updating knowledge entry: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an entry. This is an explicit administrative action; nothing
// in the automated pipeline deletes knowledge.
func (s *Store) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM knowledge_entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting knowledge entry: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ContextString renders all confident entries as Q/A pairs for use as
// grounding context in LLM prompts. Entries at or below 0.5 confidence are
// left out so unvetted knowledge never reaches the model.
func (s *Store) ContextString(ctx context.Context) (string, error) {
	entries, err := s.GetAll(ctx)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, e := range entries {
		if e.Confidence <= 0.5 {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "Q: %s\nA: %s", e.Question, e.Answer)
	}
	return b.String(), nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*Entry, error) {
	var e Entry
	var learnedFrom sql.NullString
	var lastUsed sql.NullTime
	err := row.Scan(&e.ID, &e.Question, &e.Answer, &e.Category, &e.Confidence, &e.Source,
		&e.UseCount, &learnedFrom, &e.CreatedAt, &e.UpdatedAt, &lastUsed)
	if err != nil {
		return nil, err
	}
	e.LearnedFrom = learnedFrom.String
	if lastUsed.Valid {
		e.LastUsed = &lastUsed.Time
	}
	return &e, nil
}
