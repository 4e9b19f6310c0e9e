package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/frontdeskhq/frontdesk/internal/db"
	"github.com/frontdeskhq/frontdesk/internal/events"
	"github.com/frontdeskhq/frontdesk/internal/helpdesk"
	"github.com/frontdeskhq/frontdesk/internal/knowledge"
	"github.com/frontdeskhq/frontdesk/internal/llm"
)

type fakeProvider struct {
	reply    string
	err      error
	requests []llm.CompletionRequest
}

func (f *fakeProvider) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return &llm.CompletionResponse{Content: f.reply}, nil
}

func (f *fakeProvider) Name() string { return "fake" }

type fakeNotifier struct {
	supervisor int
	callbacks  []string
	err        error
}

func (f *fakeNotifier) NotifySupervisor(context.Context, *helpdesk.Request) error {
	f.supervisor++
	return f.err
}

func (f *fakeNotifier) CallbackCustomer(_ context.Context, _ *helpdesk.Request, answer string) error {
	f.callbacks = append(f.callbacks, answer)
	return f.err
}

type testEnv struct {
	engine    *Engine
	knowledge *knowledge.Store
	helpdesk  *helpdesk.Store
	provider  *fakeProvider
	notifier  *fakeNotifier
	sessions  *MemorySessionStore
	hub       *events.Hub
}

func setupEngine(t *testing.T, provider *fakeProvider) *testEnv {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("opening in-memory db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	biz := knowledge.Business{Name: "Glow Salon", Phone: "+15550002222"}
	ks := knowledge.NewStore(database)
	if err := ks.Bootstrap(context.Background(), biz); err != nil {
		t.Fatalf("bootstrapping corpus: %v", err)
	}

	env := &testEnv{
		knowledge: ks,
		helpdesk:  helpdesk.NewStore(database),
		provider:  provider,
		notifier:  &fakeNotifier{},
		sessions:  NewMemorySessionStore(0),
		hub:       events.NewHub(),
	}

	env.engine, err = NewEngine(context.Background(), Config{
		Knowledge: env.knowledge,
		Helpdesk:  env.helpdesk,
		Sessions:  env.sessions,
		Provider:  env.provider,
		Notifier:  env.notifier,
		Hub:       env.hub,
		Model:     "test-model",
		Business:  biz,
	})
	if err != nil {
		t.Fatalf("creating engine: %v", err)
	}
	return env
}

func TestProcessMessageFastPath(t *testing.T) {
	env := setupEngine(t, &fakeProvider{reply: "should not be called"})

	reply := env.engine.ProcessMessage(context.Background(), "what are your hours", "s1", CallerInfo{})

	if reply.Source != SourceKnowledgeBase {
		t.Errorf("source = %q, want knowledge_base", reply.Source)
	}
	if reply.NeedsHelp {
		t.Error("needsHelp = true on a confident match")
	}
	if !strings.Contains(reply.Answer, "Monday through Saturday") {
		t.Errorf("answer = %q, want seeded hours answer", reply.Answer)
	}
	if reply.Confidence <= ConfidenceThreshold {
		t.Errorf("confidence = %v, want > %v", reply.Confidence, ConfidenceThreshold)
	}
	if len(env.provider.requests) != 0 {
		t.Errorf("model called %d times on the fast path", len(env.provider.requests))
	}
}

func TestProcessMessageEscalates(t *testing.T) {
	env := setupEngine(t, &fakeProvider{reply: "I don't know, let me find out for you."})
	ctx := context.Background()

	reply := env.engine.ProcessMessage(ctx, "do you accept cryptocurrency", "s1", CallerInfo{
		Phone: "+15550001111", Name: "Alex",
	})

	if !reply.NeedsHelp {
		t.Fatal("needsHelp = false, want escalation")
	}
	if reply.Source != SourceEscalation {
		t.Errorf("source = %q, want escalation", reply.Source)
	}
	if reply.Confidence != 0 {
		t.Errorf("confidence = %v, want 0", reply.Confidence)
	}
	if reply.RequestID == "" {
		t.Fatal("no request id returned")
	}

	req, err := env.helpdesk.Get(ctx, reply.RequestID)
	if err != nil {
		t.Fatalf("fetching created request: %v", err)
	}
	if req.Status != helpdesk.StatusPending {
		t.Errorf("status = %q, want pending", req.Status)
	}
	if req.CallerName != "Alex" {
		t.Errorf("caller name = %q", req.CallerName)
	}
	if !strings.Contains(req.Context, "do you accept cryptocurrency") {
		t.Errorf("request context %q missing the question", req.Context)
	}
	if env.notifier.supervisor != 1 {
		t.Errorf("supervisor notified %d times, want 1", env.notifier.supervisor)
	}
	if req.NotificationsSent != 1 {
		t.Errorf("notificationsSent = %d, want 1", req.NotificationsSent)
	}

	history, _ := env.sessions.History(ctx, "s1")
	if len(history) != 2 {
		t.Fatalf("history length = %d, want caller+agent pair", len(history))
	}
	if history[0].Role != RoleCaller || history[1].Role != RoleAgent {
		t.Errorf("history roles = %s/%s", history[0].Role, history[1].Role)
	}
}

func TestProcessMessageEscalatesOnWeakMatch(t *testing.T) {
	// Even a polite, confident model reply escalates when the corpus match
	// was weak. Kept deliberately; see the engine comment.
	env := setupEngine(t, &fakeProvider{reply: "We are fully wheelchair accessible."})

	reply := env.engine.ProcessMessage(context.Background(), "is your salon wheelchair accessible", "s1", CallerInfo{})

	if !reply.NeedsHelp || reply.Source != SourceEscalation {
		t.Errorf("reply = %+v, want escalation", reply)
	}
}

func TestProcessMessageThresholdMatchTrustsModelReply(t *testing.T) {
	env := setupEngine(t, &fakeProvider{reply: "A gel set is $45 and repairs start at $10."})
	ctx := context.Background()

	if _, err := env.knowledge.Add(ctx, knowledge.Entry{
		Question: "price details gel nail extension repairs polish",
		Answer:   "See our price list at the front desk.",
	}); err != nil {
		t.Fatalf("adding entry: %v", err)
	}

	// Seven of the ten query tokens match the stored question, so the
	// relevance score lands exactly on the threshold. That is not a weak
	// match and the confident model reply goes out as-is.
	reply := env.engine.ProcessMessage(ctx,
		"price details gel nail extension repairs polish during winter months", "s1", CallerInfo{})

	if reply.Source != SourceAIGenerated {
		t.Fatalf("source = %q, want %q", reply.Source, SourceAIGenerated)
	}
	if reply.NeedsHelp {
		t.Error("needsHelp = true for a threshold match")
	}
	if reply.Confidence != ConfidenceThreshold {
		t.Errorf("confidence = %v, want %v", reply.Confidence, ConfidenceThreshold)
	}
	pending, err := env.helpdesk.GetPending(ctx)
	if err != nil {
		t.Fatalf("GetPending: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("created %d help requests, want none", len(pending))
	}
}

func TestSupervisorResponsePublishesEvents(t *testing.T) {
	env := setupEngine(t, &fakeProvider{reply: "I don't know."})
	ctx := context.Background()

	reply := env.engine.ProcessMessage(ctx, "do you accept cryptocurrency", "s1", CallerInfo{})
	if reply.RequestID == "" {
		t.Fatal("escalation did not create a request")
	}

	ch, cancel := env.hub.Subscribe()
	defer cancel()

	if _, err := env.engine.HandleSupervisorResponse(ctx, reply.RequestID, "Yes, we accept Bitcoin.", "Dana"); err != nil {
		t.Fatalf("HandleSupervisorResponse: %v", err)
	}

	published := map[string]bool{}
	for len(ch) > 0 {
		published[(<-ch).Type] = true
	}
	if !published[events.TypeRequestResolved] {
		t.Error("no request_resolved event published")
	}
	if !published[events.TypeKnowledgeAdded] {
		t.Error("no knowledge_added event published")
	}
}

func TestSupervisorResponseClosesLoop(t *testing.T) {
	env := setupEngine(t, &fakeProvider{reply: "I don't know."})
	ctx := context.Background()

	reply := env.engine.ProcessMessage(ctx, "do you accept cryptocurrency", "s1", CallerInfo{})
	if reply.RequestID == "" {
		t.Fatal("escalation did not create a request")
	}

	resolved, err := env.engine.HandleSupervisorResponse(ctx, reply.RequestID, "Yes, we accept Bitcoin.", "Dana")
	if err != nil {
		t.Fatalf("HandleSupervisorResponse: %v", err)
	}
	if resolved.Status != helpdesk.StatusResolved {
		t.Errorf("status = %q, want resolved", resolved.Status)
	}

	// Exactly one new supervisor-sourced entry appears in the corpus.
	entries, _ := env.knowledge.GetAll(ctx)
	var learned []knowledge.Entry
	for _, e := range entries {
		if e.Source == knowledge.SourceSupervisor {
			learned = append(learned, e)
		}
	}
	if len(learned) != 1 {
		t.Fatalf("supervisor entries = %d, want 1", len(learned))
	}
	if learned[0].LearnedFrom != reply.RequestID {
		t.Errorf("learnedFrom = %q, want %q", learned[0].LearnedFrom, reply.RequestID)
	}
	if learned[0].Confidence != 0.9 {
		t.Errorf("confidence = %v, want 0.9", learned[0].Confidence)
	}

	if len(env.notifier.callbacks) != 1 || env.notifier.callbacks[0] != "Yes, we accept Bitcoin." {
		t.Errorf("callbacks = %v", env.notifier.callbacks)
	}

	// The identical question now answers from the corpus directly.
	again := env.engine.ProcessMessage(ctx, "do you accept cryptocurrency", "s2", CallerInfo{})
	if again.Source != SourceKnowledgeBase {
		t.Errorf("source = %q, want knowledge_base after learning", again.Source)
	}
	if again.Answer != "Yes, we accept Bitcoin." {
		t.Errorf("answer = %q", again.Answer)
	}
}

func TestSupervisorResponseErrors(t *testing.T) {
	env := setupEngine(t, &fakeProvider{reply: "I don't know."})
	ctx := context.Background()

	if _, err := env.engine.HandleSupervisorResponse(ctx, "no-such-id", "answer", "Dana"); !errors.Is(err, helpdesk.ErrNotFound) {
		t.Errorf("unknown id err = %v, want ErrNotFound", err)
	}

	reply := env.engine.ProcessMessage(ctx, "do you accept cryptocurrency", "s1", CallerInfo{})
	if _, err := env.engine.HandleSupervisorResponse(ctx, reply.RequestID, "first", "Dana"); err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	if _, err := env.engine.HandleSupervisorResponse(ctx, reply.RequestID, "second", "Dana"); !errors.Is(err, helpdesk.ErrNotPending) {
		t.Errorf("double resolve err = %v, want ErrNotPending", err)
	}
}

func TestProcessMessageFallsBackOnModelError(t *testing.T) {
	env := setupEngine(t, &fakeProvider{err: errors.New("backend down")})
	ctx := context.Background()

	reply := env.engine.ProcessMessage(ctx, "do you accept cryptocurrency", "s1", CallerInfo{})

	if !reply.NeedsHelp {
		t.Error("needsHelp = false on fallback")
	}
	if reply.RequestID != "" {
		t.Errorf("requestId = %q, want none on fallback", reply.RequestID)
	}
	if reply.Answer != fallbackMessage {
		t.Errorf("answer = %q, want fallback message", reply.Answer)
	}

	// The fallback path must not create a request.
	all, _ := env.helpdesk.GetAll(ctx, helpdesk.ListFilter{})
	if len(all) != 0 {
		t.Errorf("requests created = %d, want 0", len(all))
	}
}

func TestPromptCarriesContextAndHistory(t *testing.T) {
	env := setupEngine(t, &fakeProvider{reply: "I don't know."})
	ctx := context.Background()

	// Pre-seed eight turns; only the trailing six may reach the model.
	for i := 0; i < 4; i++ {
		env.sessions.Append(ctx, "s1",
			Turn{Role: RoleCaller, Content: "earlier question"},
			Turn{Role: RoleAgent, Content: "earlier answer"},
		)
	}

	env.engine.ProcessMessage(ctx, "do you accept cryptocurrency", "s1", CallerInfo{})

	if len(env.provider.requests) != 1 {
		t.Fatalf("model called %d times, want 1", len(env.provider.requests))
	}
	msgs := env.provider.requests[0].Messages

	// System prompt, six history turns, the new message.
	if len(msgs) != 8 {
		t.Fatalf("prompt has %d messages, want 8", len(msgs))
	}
	if msgs[0].Role != llm.RoleSystem {
		t.Errorf("first message role = %q, want system", msgs[0].Role)
	}
	if !strings.Contains(msgs[0].Content, "Glow Salon") {
		t.Error("system prompt missing business name")
	}
	if !strings.Contains(msgs[0].Content, "Monday through Saturday") {
		t.Error("system prompt missing corpus grounding")
	}
	if msgs[len(msgs)-1].Content != "do you accept cryptocurrency" {
		t.Errorf("last message = %q", msgs[len(msgs)-1].Content)
	}
}

func TestActiveSessionsAndClear(t *testing.T) {
	env := setupEngine(t, &fakeProvider{reply: "I don't know."})
	ctx := context.Background()

	env.engine.ProcessMessage(ctx, "do you accept cryptocurrency", "s1", CallerInfo{})
	env.engine.ProcessMessage(ctx, "do you accept cryptocurrency", "s2", CallerInfo{})

	count, err := env.engine.ActiveSessionsCount(ctx)
	if err != nil {
		t.Fatalf("ActiveSessionsCount: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}

	if err := env.engine.ClearSession(ctx, "s1"); err != nil {
		t.Fatalf("ClearSession: %v", err)
	}
	count, _ = env.engine.ActiveSessionsCount(ctx)
	if count != 1 {
		t.Errorf("count after clear = %d, want 1", count)
	}
}

func setupRouter(t *testing.T) (*testEnv, *chi.Mux) {
	t.Helper()
	env := setupEngine(t, &fakeProvider{reply: "I don't know."})
	r := chi.NewRouter()
	RegisterRoutes(r, env.engine)
	helpdesk.RegisterRoutes(r, env.helpdesk, ResolveHandler(env.engine))
	return env, r
}

func TestProcessMessageRoute(t *testing.T) {
	_, r := setupRouter(t)

	body, _ := json.Marshal(processMessageRequest{Message: "what are your hours", SessionID: "s1"})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/process-message", bytes.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var reply Reply
	if err := json.NewDecoder(rec.Body).Decode(&reply); err != nil {
		t.Fatalf("decoding reply: %v", err)
	}
	if reply.Source != SourceKnowledgeBase {
		t.Errorf("source = %q", reply.Source)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/process-message", strings.NewReader(`{"message":"  "}`)))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("blank message status = %d, want 400", rec.Code)
	}

	// A request without a session id gets one generated and echoed back.
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/process-message", strings.NewReader(`{"message":"what are your hours"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var withSession struct {
		SessionID string `json:"sessionId"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&withSession); err != nil {
		t.Fatalf("decoding reply: %v", err)
	}
	if withSession.SessionID == "" {
		t.Error("expected a generated session id")
	}
}

func TestResolveRoute(t *testing.T) {
	env, r := setupRouter(t)
	ctx := context.Background()

	reply := env.engine.ProcessMessage(ctx, "do you accept cryptocurrency", "s1", CallerInfo{})
	if reply.RequestID == "" {
		t.Fatal("no request created")
	}

	body := `{"answer":"Yes, we accept Bitcoin.","supervisorName":"Dana"}`
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/help-requests/"+reply.RequestID+"/resolve", strings.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("resolve status = %d", rec.Code)
	}
	var resolved helpdesk.Request
	if err := json.NewDecoder(rec.Body).Decode(&resolved); err != nil {
		t.Fatalf("decoding resolved: %v", err)
	}
	if resolved.Status != helpdesk.StatusResolved {
		t.Errorf("status = %q", resolved.Status)
	}

	// Double resolution conflicts.
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/help-requests/"+reply.RequestID+"/resolve", strings.NewReader(body)))
	if rec.Code != http.StatusConflict {
		t.Errorf("double resolve status = %d, want 409", rec.Code)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/help-requests/missing/resolve", strings.NewReader(body)))
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing id status = %d, want 404", rec.Code)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/help-requests/missing/resolve", strings.NewReader(`{"answer":""}`)))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty answer status = %d, want 400", rec.Code)
	}
}
