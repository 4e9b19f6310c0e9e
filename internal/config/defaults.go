package config

// defaultModels maps each provider to its recommended model.
var defaultModels = map[ProviderType]string{
	ProviderGoogle:    "gemini-3-flash-preview",
	ProviderOpenAI:    "gpt-4o-mini",
	ProviderAnthropic: "claude-haiku-4-5-20251001",
	ProviderOllama:    "llama3",
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderGoogle,
		Model:    defaultModels[ProviderGoogle],
		Business: BusinessConfig{
			Name:  "Glow Salon & Spa",
			Phone: "+1 (555) 123-4567",
		},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 3000,
		},
		Notify: NotifyConfig{
			Channel: NotifyLog,
		},
		DBPath:            "frontdesk.db",
		SessionBackend:    SessionMemory,
		SessionTTLMinutes: 120,
	}
}

// DefaultModel returns the recommended model for a provider, falling back
// to the Google default for unknown providers.
func DefaultModel(provider ProviderType) string {
	if m, ok := defaultModels[provider]; ok {
		return m
	}
	return defaultModels[ProviderGoogle]
}
