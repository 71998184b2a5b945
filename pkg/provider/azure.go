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

// AzureProvider implements the Provider interface for Azure OpenAI chat
// completions. Credentials are injected via the "api-key" header.
type AzureProvider struct {
	client *http.Client
	url    string
	key    string
}

// NewAzureProvider creates a new Azure OpenAI provider.
func NewAzureProvider(url, key string, timeout time.Duration) *AzureProvider {
	return &AzureProvider{
		client: &http.Client{Timeout: timeout},
		url:    url,
		key:    key,
	}
}

func (a *AzureProvider) Name() Identity { return Azure }

// chatRequest is the chat-message-list request body shared by the Azure
// and GPT-5 mini providers.
type chatRequest struct {
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse extracts the first candidate text from a chat completion.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Generate performs a unary chat completion call to Azure OpenAI.
func (a *AzureProvider) Generate(ctx context.Context, req Request) (Result, error) {
	if a.key == "" {
		return Result{}, fmt.Errorf("azure: %w", ErrMissingCredential)
	}

	body := chatRequest{
		Messages: []chatMessage{{Role: "user", Content: req.Prompt}},
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return Result{}, fmt.Errorf("azure: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewReader(jsonBody))
	if err != nil {
		return Result{}, fmt.Errorf("azure: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("api-key", a.key)

	httpResp, err := a.client.Do(httpReq)
	if err != nil {
		return Result{}, fmt.Errorf("azure: do request: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("azure: read response: %w", err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return Result{}, fmt.Errorf("azure: API error %d: %s", httpResp.StatusCode, string(respBody))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return Result{}, fmt.Errorf("azure: decode response: %w", err)
	}

	var text string
	if len(parsed.Choices) > 0 {
		text = parsed.Choices[0].Message.Content
	}

	return Result{Raw: respBody, Text: text, Source: Azure}, nil
}
