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

// VertexProvider implements the Provider interface for Vertex AI text
// prediction. Credentials are injected as a bearer token.
type VertexProvider struct {
	client *http.Client
	url    string
	key    string
}

// NewVertexProvider creates a new Vertex AI provider.
func NewVertexProvider(url, key string, timeout time.Duration) *VertexProvider {
	return &VertexProvider{
		client: &http.Client{Timeout: timeout},
		url:    url,
		key:    key,
	}
}

func (v *VertexProvider) Name() Identity { return Vertex }

// vertexRequest is the instance-list request body for Vertex prediction.
type vertexRequest struct {
	Instances []vertexInstance `json:"instances"`
}

type vertexInstance struct {
	Content string `json:"content"`
}

// vertexResponse extracts the first prediction text.
type vertexResponse struct {
	Predictions []struct {
		Content string `json:"content"`
	} `json:"predictions"`
}

// Generate performs a unary prediction call to Vertex AI.
func (v *VertexProvider) Generate(ctx context.Context, req Request) (Result, error) {
	if v.key == "" {
		return Result{}, fmt.Errorf("vertex: %w", ErrMissingCredential)
	}

	body := vertexRequest{
		Instances: []vertexInstance{{Content: req.Prompt}},
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return Result{}, fmt.Errorf("vertex: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, v.url, bytes.NewReader(jsonBody))
	if err != nil {
		return Result{}, fmt.Errorf("vertex: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+v.key)

	httpResp, err := v.client.Do(httpReq)
	if err != nil {
		return Result{}, fmt.Errorf("vertex: do request: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("vertex: read response: %w", err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return Result{}, fmt.Errorf("vertex: API error %d: %s", httpResp.StatusCode, string(respBody))
	}

	var parsed vertexResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return Result{}, fmt.Errorf("vertex: decode response: %w", err)
	}

	var text string
	if len(parsed.Predictions) > 0 {
		text = parsed.Predictions[0].Content
	}

	return Result{Raw: respBody, Text: text, Source: Vertex}, nil
}
