package config

// ProviderType identifies an LLM provider.
type ProviderType string

const (
	ProviderGoogle    ProviderType = "google"
	ProviderOpenAI    ProviderType = "openai"
	ProviderAnthropic ProviderType = "anthropic"
	ProviderOllama    ProviderType = "ollama"
)

// NotifyChannel selects how supervisors are paged.
type NotifyChannel string

const (
	NotifyLog     NotifyChannel = "log"
	NotifyWebhook NotifyChannel = "webhook"
	NotifySlack   NotifyChannel = "slack"
)

// SessionBackend selects where conversation history lives.
type SessionBackend string

const (
	SessionMemory SessionBackend = "memory"
	SessionSQLite SessionBackend = "sqlite"
)

// Config is the top-level frontdesk configuration, corresponding to
// .frontdesk.yml.
type Config struct {
	Provider ProviderType `yaml:"provider" koanf:"provider"`
	Model    string       `yaml:"model" koanf:"model"`

	Business BusinessConfig `yaml:"business" koanf:"business"`
	Server   ServerConfig   `yaml:"server" koanf:"server"`
	Notify   NotifyConfig   `yaml:"notify" koanf:"notify"`

	DBPath            string         `yaml:"db_path" koanf:"db_path"`
	SessionBackend    SessionBackend `yaml:"session_backend" koanf:"session_backend"`
	SessionTTLMinutes int            `yaml:"session_ttl_minutes" koanf:"session_ttl_minutes"`
}

// BusinessConfig identifies the business the agent answers for.
type BusinessConfig struct {
	Name  string `yaml:"name" koanf:"name"`
	Phone string `yaml:"phone" koanf:"phone"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host string `yaml:"host" koanf:"host"`
	Port int    `yaml:"port" koanf:"port"`
}

// NotifyConfig holds supervisor paging settings.
type NotifyConfig struct {
	Channel         NotifyChannel `yaml:"channel" koanf:"channel"`
	WebhookURL      string        `yaml:"webhook_url" koanf:"webhook_url"`
	SlackWebhookURL string        `yaml:"slack_webhook_url" koanf:"slack_webhook_url"`
}
