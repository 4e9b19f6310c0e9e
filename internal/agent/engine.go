// Package agent implements the confidence-gated escalation engine: answer
// from the knowledge corpus when a match is strong, otherwise consult the
// model and defer to a human supervisor, feeding the eventual human answer
// back into the corpus.
package agent

import (
	"context"
	"log"
	"strings"
	"sync"

	"github.com/frontdeskhq/frontdesk/internal/events"
	"github.com/frontdeskhq/frontdesk/internal/helpdesk"
	"github.com/frontdeskhq/frontdesk/internal/knowledge"
	"github.com/frontdeskhq/frontdesk/internal/llm"
	"github.com/frontdeskhq/frontdesk/internal/notify"
)

// ConfidenceThreshold is the relevance score above which a corpus match is
// trusted without model or human involvement.
const ConfidenceThreshold = 0.7

// defaultConfidence is reported for model replies with no corpus match.
const defaultConfidence = 0.5

// deferralMessage is what the caller hears when their question escalates.
const deferralMessage = "Let me check with my supervisor and get back to you. This usually takes just a few minutes."

// fallbackMessage is the soft failure response when the pipeline itself
// breaks. No help request is created on this path.
const fallbackMessage = "I apologize, I'm having a little trouble right now. Let me have someone get back to you shortly."

// escalationPhrases mark a model reply as a deferral. Matched
// case-insensitively as substrings.
var escalationPhrases = []string{
	"let me check",
	"check with my supervisor",
	"i don't know",
	"i'm not sure",
	"i don't have that information",
}

// Reply sources.
const (
	SourceKnowledgeBase = "knowledge_base"
	SourceAIGenerated   = "ai_generated"
	SourceEscalation    = "escalation"
)

// Reply is the outcome of one conversation turn.
type Reply struct {
	Answer     string  `json:"answer"`
	NeedsHelp  bool    `json:"needsHelp"`
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source"`
	RequestID  string  `json:"requestId,omitempty"`
}

// CallerInfo identifies who is on the line.
type CallerInfo struct {
	Phone string `json:"callerPhone"`
	Name  string `json:"callerName"`
}

// Engine orchestrates conversation turns. All collaborators are injected at
// construction; the engine itself only caches the grounding context.
type Engine struct {
	knowledge *knowledge.Store
	helpdesk  *helpdesk.Store
	sessions  SessionStore
	provider  llm.Provider
	notifier  notify.Notifier
	hub       *events.Hub
	model     string
	business  knowledge.Business

	mu     sync.RWMutex
	corpus string
}

// Config bundles the engine's collaborators.
type Config struct {
	Knowledge *knowledge.Store
	Helpdesk  *helpdesk.Store
	Sessions  SessionStore
	Provider  llm.Provider
	Notifier  notify.Notifier
	Hub       *events.Hub
	Model     string
	Business  knowledge.Business
}

// NewEngine creates an engine and primes its grounding context cache.
func NewEngine(ctx context.Context, cfg Config) (*Engine, error) {
	e := &Engine{
		knowledge: cfg.Knowledge,
		helpdesk:  cfg.Helpdesk,
		sessions:  cfg.Sessions,
		provider:  cfg.Provider,
		notifier:  cfg.Notifier,
		hub:       cfg.Hub,
		model:     cfg.Model,
		business:  cfg.Business,
	}
	if err := e.RefreshContext(ctx); err != nil {
		return nil, err
	}
	return e, nil
}

// ProcessMessage handles one caller utterance. It never returns an error for
// upstream failures; those degrade to a fallback reply so the caller always
// hears something.
func (e *Engine) ProcessMessage(ctx context.Context, message, sessionID string, caller CallerInfo) *Reply {
	match, err := e.knowledge.Search(ctx, message)
	if err != nil {
		log.Printf("agent: knowledge search failed: %v", err)
		return e.fallback()
	}

	// Fast path: a strong corpus match skips the model entirely.
	if match != nil && match.RelevanceScore > ConfidenceThreshold {
		return &Reply{
			Answer:     match.Answer,
			Confidence: match.RelevanceScore,
			Source:     SourceKnowledgeBase,
		}
	}

	history, err := e.sessions.History(ctx, sessionID)
	if err != nil {
		log.Printf("agent: loading session %s: %v", sessionID, err)
		return e.fallback()
	}

	resp, err := e.provider.Complete(ctx, llm.CompletionRequest{
		Model:       e.model,
		Messages:    buildMessages(e.business, e.contextSnapshot(), history, message),
		MaxTokens:   256,
		Temperature: 0.7,
	})
	if err != nil {
		log.Printf("agent: completion failed: %v", err)
		return e.fallback()
	}
	generated := strings.TrimSpace(resp.Content)

	newTurns := []Turn{
		{Role: RoleCaller, Content: message},
		{Role: RoleAgent, Content: generated},
	}
	if err := e.sessions.Append(ctx, sessionID, newTurns...); err != nil {
		log.Printf("agent: appending to session %s: %v", sessionID, err)
	}
	history = append(history, newTurns...)

	// Escalate on a deferral phrase in the reply, or whenever the corpus
	// match was absent or below the threshold. A match at exactly the
	// threshold is not low confidence. The second condition almost always
	// holds here since a stronger match already returned above; kept
	// deliberately until product decides the model reply alone should be
	// trusted.
	lowConfidence := match == nil || match.RelevanceScore < ConfidenceThreshold
	if containsEscalationPhrase(generated) || lowConfidence {
		return e.escalate(ctx, message, sessionID, caller, history)
	}

	confidence := defaultConfidence
	if match != nil {
		confidence = match.RelevanceScore
	}
	return &Reply{
		Answer:     generated,
		Confidence: confidence,
		Source:     SourceAIGenerated,
	}
}

func (e *Engine) escalate(ctx context.Context, message, sessionID string, caller CallerInfo, history []Turn) *Reply {
	req, err := e.helpdesk.Create(ctx, helpdesk.CreateParams{
		Question:    message,
		CallerPhone: caller.Phone,
		CallerName:  caller.Name,
		SessionID:   sessionID,
		Context:     formatRecentContext(history),
	})
	if err != nil {
		log.Printf("agent: creating help request: %v", err)
		return e.fallback()
	}

	// Notification is fire-and-forget: a paging failure must not turn a
	// successful escalation into an error for the caller.
	if err := e.notifier.NotifySupervisor(ctx, req); err != nil {
		log.Printf("agent: notifying supervisor for %s: %v", req.ID, err)
	} else if err := e.helpdesk.IncrementNotifications(ctx, req.ID); err != nil {
		log.Printf("agent: counting notification for %s: %v", req.ID, err)
	}

	if e.hub != nil {
		e.hub.Publish(events.TypeRequestCreated, req)
	}

	return &Reply{
		Answer:    deferralMessage,
		NeedsHelp: true,
		Source:    SourceEscalation,
		RequestID: req.ID,
	}
}

func (e *Engine) fallback() *Reply {
	return &Reply{
		Answer:    fallbackMessage,
		NeedsHelp: true,
		Source:    SourceEscalation,
	}
}

// HandleSupervisorResponse closes the learning loop: resolve the request,
// store the answer as a new corpus entry, call the customer back, and
// refresh the grounding context so the next question benefits immediately.
func (e *Engine) HandleSupervisorResponse(ctx context.Context, requestID, answer, supervisorName string) (*helpdesk.Request, error) {
	req, err := e.helpdesk.Resolve(ctx, requestID, answer, supervisorName)
	if err != nil {
		return nil, err
	}

	learned, err := e.knowledge.Add(ctx, knowledge.Entry{
		Question:    req.Question,
		Answer:      answer,
		Category:    "learned",
		Confidence:  0.9,
		Source:      knowledge.SourceSupervisor,
		LearnedFrom: requestID,
	})
	if err != nil {
		log.Printf("agent: learning from request %s: %v", requestID, err)
	}

	if err := e.notifier.CallbackCustomer(ctx, req, answer); err != nil {
		log.Printf("agent: callback for %s: %v", requestID, err)
	}

	if err := e.RefreshContext(ctx); err != nil {
		log.Printf("agent: refreshing context: %v", err)
	}

	if e.hub != nil {
		e.hub.Publish(events.TypeRequestResolved, req)
		if learned != nil {
			e.hub.Publish(events.TypeKnowledgeAdded, learned)
		}
	}
	return req, nil
}

// RefreshContext rebuilds the cached grounding context from the corpus.
func (e *Engine) RefreshContext(ctx context.Context) error {
	corpus, err := e.knowledge.ContextString(ctx)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.corpus = corpus
	e.mu.Unlock()
	return nil
}

func (e *Engine) contextSnapshot() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.corpus
}

// ActiveSessionsCount reports how many conversations are currently live.
func (e *Engine) ActiveSessionsCount(ctx context.Context) (int, error) {
	return e.sessions.ActiveCount(ctx)
}

// ClearSession drops a session's conversation history.
func (e *Engine) ClearSession(ctx context.Context, sessionID string) error {
	return e.sessions.Clear(ctx, sessionID)
}

func containsEscalationPhrase(reply string) bool {
	lower := strings.ToLower(reply)
	for _, phrase := range escalationPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
