// Package notify delivers supervisor alerts and customer callbacks. In a
// production deployment these would go out over SMS or a messaging bridge;
// the log notifier simulates that channel so the rest of the pipeline can be
// exercised without credentials.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/frontdeskhq/frontdesk/internal/helpdesk"
)

// Notifier delivers escalation traffic to humans. NotifySupervisor fires
// when a request is created or times out; CallbackCustomer fires when a
// supervisor answer needs to reach the caller.
type Notifier interface {
	NotifySupervisor(ctx context.Context, req *helpdesk.Request) error
	CallbackCustomer(ctx context.Context, req *helpdesk.Request, answer string) error
}

// LogNotifier writes simulated text messages to the process log.
type LogNotifier struct{}

func (LogNotifier) NotifySupervisor(_ context.Context, req *helpdesk.Request) error {
	log.Printf("notify: [SMS to supervisor] Caller %s (%s) needs help: %q (request %s, respond by %s)",
		req.CallerName, req.CallerPhone, req.Question, req.ID,
		req.TimeoutAt.Format(time.Kitchen))
	return nil
}

func (LogNotifier) CallbackCustomer(_ context.Context, req *helpdesk.Request, answer string) error {
	log.Printf("notify: [SMS to %s] Hi %s, following up on your question %q: %s",
		req.CallerPhone, req.CallerName, req.Question, answer)
	return nil
}

// webhookEvent is the JSON body POSTed by WebhookNotifier.
type webhookEvent struct {
	Event   string            `json:"event"`
	Request *helpdesk.Request `json:"request"`
	Answer  string            `json:"answer,omitempty"`
}

// WebhookNotifier POSTs escalation events as JSON to a subscriber URL.
type WebhookNotifier struct {
	URL    string
	client *http.Client
}

// NewWebhookNotifier creates a webhook notifier for the given URL.
func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{
		URL:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (n *WebhookNotifier) NotifySupervisor(ctx context.Context, req *helpdesk.Request) error {
	return n.post(ctx, webhookEvent{Event: "help_request", Request: req})
}

func (n *WebhookNotifier) CallbackCustomer(ctx context.Context, req *helpdesk.Request, answer string) error {
	return n.post(ctx, webhookEvent{Event: "customer_callback", Request: req, Answer: answer})
}

func (n *WebhookNotifier) post(ctx context.Context, event webhookEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshalling webhook event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.URL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// SlackNotifier posts escalation messages to a Slack incoming webhook.
type SlackNotifier struct {
	WebhookURL string
	client     *http.Client
}

// NewSlackNotifier creates a Slack notifier for the given incoming webhook.
func NewSlackNotifier(webhookURL string) *SlackNotifier {
	return &SlackNotifier{
		WebhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

func (n *SlackNotifier) NotifySupervisor(ctx context.Context, req *helpdesk.Request) error {
	text := fmt.Sprintf("*Help needed*: %s (%s) asked %q. Request `%s`, respond by %s.",
		req.CallerName, req.CallerPhone, req.Question, req.ID,
		req.TimeoutAt.Format(time.Kitchen))
	return n.post(ctx, text)
}

func (n *SlackNotifier) CallbackCustomer(ctx context.Context, req *helpdesk.Request, answer string) error {
	text := fmt.Sprintf("Callback for %s (%s) re %q: %s",
		req.CallerName, req.CallerPhone, req.Question, answer)
	return n.post(ctx, text)
}

func (n *SlackNotifier) post(ctx context.Context, text string) error {
	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return fmt.Errorf("marshalling slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting to slack: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("slack returned status %d", resp.StatusCode)
	}
	return nil
}

// Fanout delivers to every underlying notifier and returns the first error.
type Fanout []Notifier

func (f Fanout) NotifySupervisor(ctx context.Context, req *helpdesk.Request) error {
	var first error
	for _, n := range f {
		if err := n.NotifySupervisor(ctx, req); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (f Fanout) CallbackCustomer(ctx context.Context, req *helpdesk.Request, answer string) error {
	var first error
	for _, n := range f {
		if err := n.CallbackCustomer(ctx, req, answer); err != nil && first == nil {
			first = err
		}
	}
	return first
}
