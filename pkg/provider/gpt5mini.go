package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// GPT5MiniProvider implements the Provider interface for the GPT-5 mini
// chat completions API. Same request shape as Azure, bearer credential.
//
// There is deliberately no placeholder credential fallback: a request
// routed here without a configured key fails closed.
type GPT5MiniProvider struct {
	client *http.Client
	url    string
	key    string
}

// NewGPT5MiniProvider creates a new GPT-5 mini provider.
func NewGPT5MiniProvider(url, key string, timeout time.Duration) *GPT5MiniProvider {
	return &GPT5MiniProvider{
		client: &http.Client{Timeout: timeout},
		url:    url,
		key:    key,
	}
}

func (g *GPT5MiniProvider) Name() Identity { return GPT5Mini }

// Generate performs a unary chat completion call to GPT-5 mini.
func (g *GPT5MiniProvider) Generate(ctx context.Context, req Request) (Result, error) {
	if g.key == "" {
		return Result{}, fmt.Errorf("gpt5mini: %w", ErrMissingCredential)
	}

	body := chatRequest{
		Messages: []chatMessage{{Role: "user", Content: req.Prompt}},
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return Result{}, fmt.Errorf("gpt5mini: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(jsonBody))
	if err != nil {
		return Result{}, fmt.Errorf("gpt5mini: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+g.key)

	httpResp, err := g.client.Do(httpReq)
	if err != nil {
		return Result{}, fmt.Errorf("gpt5mini: do request: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("gpt5mini: read response: %w", err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return Result{}, fmt.Errorf("gpt5mini: API error %d: %s", httpResp.StatusCode, string(respBody))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return Result{}, fmt.Errorf("gpt5mini: decode response: %w", err)
	}

	var text string
	if len(parsed.Choices) > 0 {
		text = parsed.Choices[0].Message.Content
	}

	return Result{Raw: respBody, Text: text, Source: GPT5Mini}, nil
}
