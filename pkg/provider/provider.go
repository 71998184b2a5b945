// Package provider defines the AI provider interface, identities and
// per-request provider selection.
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Identity names one of the interchangeable AI text-generation backends.
type Identity string

const (
	// Azure is the default provider (Azure OpenAI chat completions).
	Azure Identity = "azure"
	// Vertex is the Vertex AI text prediction provider.
	Vertex Identity = "vertex"
	// GPT5Mini is the GPT-5 mini chat completions provider.
	GPT5Mini Identity = "gpt5mini"
)

// ErrMissingCredential is returned when a provider is invoked without a
// configured API key. The gateway serves traffic with missing keys and
// fails the individual request instead.
var ErrMissingCredential = errors.New("provider credential not configured")

// Select maps a caller's provider preference to an Identity.
//
// Matching is exact and case-sensitive against the alias table; anything
// else, including the empty string, selects Azure. Select is total: every
// input maps to a valid Identity.
func Select(preference string) Identity {
	switch preference {
	case "vertex":
		return Vertex
	case "gpt5mini", "gpt-5-mini", "gpt5":
		return GPT5Mini
	default:
		return Azure
	}
}

// Request is a text-generation request routed to one provider.
type Request struct {
	Prompt string
}

// Result is the normalized envelope for a provider response.
type Result struct {
	// Raw is the provider's response payload, returned verbatim to callers.
	Raw json.RawMessage
	// Text is the first candidate text extracted from Raw, used where the
	// gateway needs the generated text itself (batch sentiment).
	Text string
	// Source identifies which provider produced the result.
	Source Identity
}

// Provider is the interface all AI text-generation backends implement.
type Provider interface {
	// Name returns the provider's identity.
	Name() Identity

	// Generate performs a single text-generation call. It never retries
	// and never caches: every call reaches the network.
	Generate(ctx context.Context, req Request) (Result, error)
}

// Registry maps provider identities to configured providers.
type Registry map[Identity]Provider

// For resolves a caller preference to a configured provider.
func (r Registry) For(preference string) (Provider, error) {
	id := Select(preference)
	p, ok := r[id]
	if !ok {
		return nil, fmt.Errorf("provider: %q not registered", id)
	}
	return p, nil
}
