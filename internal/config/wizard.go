package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to .frontdesk.yml.
func RunWizard() (*Config, error) {
	fmt.Println("Welcome to frontdesk! Let's set up your receptionist.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Business identity.
	namePrompt := promptui.Prompt{
		Label:   "Business name",
		Default: cfg.Business.Name,
		Validate: func(s string) error {
			if s == "" {
				return fmt.Errorf("business name is required")
			}
			return nil
		},
	}
	name, err := namePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("business name: %w", err)
	}
	cfg.Business.Name = name

	phonePrompt := promptui.Prompt{
		Label:   "Business phone",
		Default: cfg.Business.Phone,
	}
	phone, err := phonePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("business phone: %w", err)
	}
	cfg.Business.Phone = phone

	// 2. Provider selection.
	providerPrompt := promptui.Select{
		Label: "Select LLM provider",
		Items: []string{"google", "openai", "anthropic", "ollama"},
	}
	_, providerStr, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	cfg.Provider = ProviderType(providerStr)
	cfg.Model = DefaultModel(cfg.Provider)

	modelPrompt := promptui.Prompt{
		Label:   "Model",
		Default: cfg.Model,
	}
	model, err := modelPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}
	cfg.Model = model

	// 3. Supervisor paging channel.
	channelPrompt := promptui.Select{
		Label: "Supervisor notification channel",
		Items: []string{
			"log     - simulated SMS in the process log",
			"webhook - POST escalation events to a URL",
			"slack   - Slack incoming webhook",
		},
	}
	channelIdx, _, err := channelPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("channel selection: %w", err)
	}
	channels := []NotifyChannel{NotifyLog, NotifyWebhook, NotifySlack}
	cfg.Notify.Channel = channels[channelIdx]

	switch cfg.Notify.Channel {
	case NotifyWebhook:
		urlPrompt := promptui.Prompt{Label: "Webhook URL"}
		url, err := urlPrompt.Run()
		if err != nil {
			return nil, fmt.Errorf("webhook url: %w", err)
		}
		cfg.Notify.WebhookURL = url
	case NotifySlack:
		urlPrompt := promptui.Prompt{Label: "Slack incoming webhook URL"}
		url, err := urlPrompt.Run()
		if err != nil {
			return nil, fmt.Errorf("slack webhook url: %w", err)
		}
		cfg.Notify.SlackWebhookURL = url
	}

	// 4. Listener port.
	portPrompt := promptui.Prompt{
		Label:   "HTTP port",
		Default: strconv.Itoa(cfg.Server.Port),
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n < 1 || n > 65535 {
				return fmt.Errorf("port must be a number between 1 and 65535")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	cfg.Server.Port, _ = strconv.Atoi(portStr)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Save(DefaultPath); err != nil {
		return nil, err
	}

	fmt.Println()
	fmt.Printf("Saved %s\n", DefaultPath)
	if envVar := APIKeyEnvVar(cfg.Provider); envVar != "" {
		if os.Getenv(envVar) == "" {
			fmt.Printf("Remember to set %s before starting the server.\n", envVar)
		}
	}
	return cfg, nil
}
