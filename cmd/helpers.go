package cmd

import (
	"fmt"
	"time"

	"github.com/frontdeskhq/frontdesk/internal/agent"
	"github.com/frontdeskhq/frontdesk/internal/config"
	"github.com/frontdeskhq/frontdesk/internal/db"
	"github.com/frontdeskhq/frontdesk/internal/llm"
	"github.com/frontdeskhq/frontdesk/internal/notify"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `frontdesk init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// createLLMProviderFromConfig creates an LLM provider based on config settings.
func createLLMProviderFromConfig(cfg *config.Config) (llm.Provider, error) {
	return llm.NewProvider(string(cfg.Provider), cfg.Model)
}

// createNotifierFromConfig selects the supervisor paging channels. More
// than one configured channel fans out to all of them.
func createNotifierFromConfig(cfg *config.Config) (notify.Notifier, error) {
	var notifiers notify.Fanout
	for _, ch := range cfg.NotifyChannels() {
		switch ch {
		case config.NotifyLog:
			notifiers = append(notifiers, notify.LogNotifier{})
		case config.NotifyWebhook:
			notifiers = append(notifiers, notify.NewWebhookNotifier(cfg.Notify.WebhookURL))
		case config.NotifySlack:
			notifiers = append(notifiers, notify.NewSlackNotifier(cfg.Notify.SlackWebhookURL))
		default:
			return nil, fmt.Errorf("unsupported notify channel %q", ch)
		}
	}
	if len(notifiers) == 0 {
		return nil, fmt.Errorf("no notify channel configured")
	}
	if len(notifiers) == 1 {
		return notifiers[0], nil
	}
	return notifiers, nil
}

// createSessionStoreFromConfig selects where conversation history lives.
func createSessionStoreFromConfig(cfg *config.Config, database *db.DB) agent.SessionStore {
	ttl := time.Duration(cfg.SessionTTLMinutes) * time.Minute
	if cfg.SessionBackend == config.SessionSQLite {
		return agent.NewSQLiteSessionStore(database, ttl)
	}
	return agent.NewMemorySessionStore(ttl)
}
