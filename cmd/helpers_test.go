package cmd

import (
	"testing"

	"github.com/frontdeskhq/frontdesk/internal/config"
	"github.com/frontdeskhq/frontdesk/internal/notify"
)

func TestCreateNotifierFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()

	n, err := createNotifierFromConfig(cfg)
	if err != nil {
		t.Fatalf("createNotifierFromConfig: %v", err)
	}
	if _, ok := n.(notify.LogNotifier); !ok {
		t.Errorf("notifier = %T, want notify.LogNotifier", n)
	}

	// A comma-separated channel list fans out to every channel.
	cfg.Notify.Channel = "log,slack"
	cfg.Notify.SlackWebhookURL = "https://hooks.slack.com/services/T0/B0/x"
	n, err = createNotifierFromConfig(cfg)
	if err != nil {
		t.Fatalf("createNotifierFromConfig: %v", err)
	}
	fan, ok := n.(notify.Fanout)
	if !ok {
		t.Fatalf("notifier = %T, want notify.Fanout", n)
	}
	if len(fan) != 2 {
		t.Errorf("fanout size = %d, want 2", len(fan))
	}

	cfg.Notify.Channel = "pager"
	if _, err := createNotifierFromConfig(cfg); err == nil {
		t.Error("expected error for unknown channel")
	}
}
