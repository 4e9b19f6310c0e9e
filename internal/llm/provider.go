package llm

import "context"

// Provider defines the interface for generative text backends. The agent
// treats completions as single-turn and stateless; conversation history is
// carried in the request messages.
type Provider interface {
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	// Name returns the name of this provider.
	Name() string
}
