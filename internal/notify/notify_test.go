package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/frontdeskhq/frontdesk/internal/helpdesk"
)

func sampleRequest() *helpdesk.Request {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	return &helpdesk.Request{
		ID:          "req-1",
		Question:    "Do you have parking?",
		CallerPhone: "+15550001111",
		CallerName:  "Alex",
		Status:      helpdesk.StatusPending,
		CreatedAt:   now,
		TimeoutAt:   now.Add(helpdesk.TimeoutWindow),
	}
}

func TestWebhookNotifier(t *testing.T) {
	var events []webhookEvent
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		var e webhookEvent
		if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
			t.Errorf("decoding event: %v", err)
		}
		events = append(events, e)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL)
	req := sampleRequest()

	if err := n.NotifySupervisor(context.Background(), req); err != nil {
		t.Fatalf("NotifySupervisor: %v", err)
	}
	if err := n.CallbackCustomer(context.Background(), req, "Yes, behind the building."); err != nil {
		t.Fatalf("CallbackCustomer: %v", err)
	}

	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Event != "help_request" || events[0].Request.ID != "req-1" {
		t.Errorf("first event = %+v", events[0])
	}
	if events[1].Event != "customer_callback" || events[1].Answer != "Yes, behind the building." {
		t.Errorf("second event = %+v", events[1])
	}
}

func TestWebhookNotifierErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL)
	if err := n.NotifySupervisor(context.Background(), sampleRequest()); err == nil {
		t.Fatal("expected error on 502 response")
	}
}

func TestSlackNotifier(t *testing.T) {
	var bodies []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		bodies = append(bodies, string(b))
	}))
	defer srv.Close()

	n := NewSlackNotifier(srv.URL)
	if err := n.NotifySupervisor(context.Background(), sampleRequest()); err != nil {
		t.Fatalf("NotifySupervisor: %v", err)
	}

	if len(bodies) != 1 {
		t.Fatalf("got %d posts, want 1", len(bodies))
	}
	var payload map[string]string
	if err := json.Unmarshal([]byte(bodies[0]), &payload); err != nil {
		t.Fatalf("unmarshalling slack payload: %v", err)
	}
	if payload["text"] == "" {
		t.Error("slack payload has no text")
	}
}

type stubNotifier struct {
	supervisor int
	callback   int
	err        error
}

func (s *stubNotifier) NotifySupervisor(context.Context, *helpdesk.Request) error {
	s.supervisor++
	return s.err
}

func (s *stubNotifier) CallbackCustomer(context.Context, *helpdesk.Request, string) error {
	s.callback++
	return s.err
}

func TestFanoutDeliversToAll(t *testing.T) {
	failing := &stubNotifier{err: errors.New("boom")}
	ok := &stubNotifier{}
	f := Fanout{failing, ok}

	err := f.NotifySupervisor(context.Background(), sampleRequest())
	if err == nil {
		t.Error("expected first error to propagate")
	}
	if failing.supervisor != 1 || ok.supervisor != 1 {
		t.Errorf("delivery counts = %d/%d, want 1/1", failing.supervisor, ok.supervisor)
	}

	if err := f.CallbackCustomer(context.Background(), sampleRequest(), "answer"); err == nil {
		t.Error("expected callback error to propagate")
	}
	if ok.callback != 1 {
		t.Errorf("callback count = %d, want 1", ok.callback)
	}
}
