package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// DefaultPath is where Load looks for configuration by default.
const DefaultPath = ".frontdesk.yml"

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (FRONTDESK_*).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	// Overlay environment variables: FRONTDESK_PROVIDER -> provider,
	// FRONTDESK_SERVER_PORT -> server.port, etc.
	if err := k.Load(env.Provider("FRONTDESK_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, "FRONTDESK_")), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// validProviders is the set of recognized provider values.
var validProviders = map[ProviderType]bool{
	ProviderGoogle:    true,
	ProviderOpenAI:    true,
	ProviderAnthropic: true,
	ProviderOllama:    true,
}

// validChannels is the set of recognized notification channels.
var validChannels = map[NotifyChannel]bool{
	NotifyLog:     true,
	NotifyWebhook: true,
	NotifySlack:   true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.Provider == "" {
		return fmt.Errorf("provider is required")
	}
	if !validProviders[c.Provider] {
		return fmt.Errorf("invalid provider %q: must be one of google, openai, anthropic, ollama", c.Provider)
	}

	if c.Model == "" {
		return fmt.Errorf("model is required")
	}

	if c.Business.Name == "" {
		return fmt.Errorf("business.name is required")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}

	if c.DBPath == "" {
		return fmt.Errorf("db_path is required")
	}

	switch c.SessionBackend {
	case SessionMemory, SessionSQLite:
	default:
		return fmt.Errorf("invalid session_backend %q: must be memory or sqlite", c.SessionBackend)
	}
	if c.SessionTTLMinutes < 0 {
		return fmt.Errorf("session_ttl_minutes must be non-negative")
	}

	channels := c.NotifyChannels()
	if len(channels) == 0 {
		return fmt.Errorf("notify.channel is required")
	}
	for _, ch := range channels {
		if !validChannels[ch] {
			return fmt.Errorf("invalid notify.channel %q: must be one of log, webhook, slack", ch)
		}
		if ch == NotifyWebhook && c.Notify.WebhookURL == "" {
			return fmt.Errorf("notify.webhook_url is required for the webhook channel")
		}
		if ch == NotifySlack && c.Notify.SlackWebhookURL == "" {
			return fmt.Errorf("notify.slack_webhook_url is required for the slack channel")
		}
	}

	return nil
}

// NotifyChannels parses notify.channel, which accepts a single channel or a
// comma-separated list ("log,slack") for delivery to several channels at once.
func (c *Config) NotifyChannels() []NotifyChannel {
	var channels []NotifyChannel
	for _, part := range strings.Split(string(c.Notify.Channel), ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			channels = append(channels, NotifyChannel(part))
		}
	}
	return channels
}

// APIKeyEnvVar returns the conventional environment variable name for
// the API key of the given provider.
func APIKeyEnvVar(provider ProviderType) string {
	switch provider {
	case ProviderGoogle:
		return "GOOGLE_API_KEY"
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	default:
		return ""
	}
}
