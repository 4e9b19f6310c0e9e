package knowledge

import (
	"errors"
	"time"
)

// Source records how an entry got into the corpus.
type Source string

const (
	SourceInitial    Source = "initial"
	SourceManual     Source = "manual"
	SourceSupervisor Source = "supervisor"
	SourceLearned    Source = "learned"
)

// Sentinel errors returned by the store.
var (
	ErrNotFound   = errors.New("knowledge entry not found")
	ErrValidation = errors.New("missing required field")
)

// Entry is a stored question/answer pair with provenance and usage metadata.
type Entry struct {
	ID          string     `json:"id"`
	Question    string     `json:"question"`
	Answer      string     `json:"answer"`
	Category    string     `json:"category"`
	Confidence  float64    `json:"confidence"` // 0..1
	Source      Source     `json:"source"`
	UseCount    int        `json:"use_count"`
	LearnedFrom string     `json:"learned_from,omitempty"` // help request id
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	LastUsed    *time.Time `json:"last_used,omitempty"`
}

// Match is a search result: the best entry plus its relevance score.
type Match struct {
	Entry
	RelevanceScore float64 `json:"relevance_score"`
}

// Patch describes a partial update to an entry. Nil fields are left unchanged.
type Patch struct {
	Question   *string  `json:"question,omitempty"`
	Answer     *string  `json:"answer,omitempty"`
	Category   *string  `json:"category,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// Business holds the business identity used to render the seed corpus.
type Business struct {
	Name  string
	Phone string
}
