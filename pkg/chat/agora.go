// Package chat forwards integration payloads to the Agora chat service.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// PlatformAgora is the only chat platform with a real integration.
const PlatformAgora = "agora"

// AgoraClient forwards user-management payloads to the Agora chat REST API.
type AgoraClient struct {
	client *http.Client
	appID  string
	appKey string
	url    string
}

// NewAgoraClient creates an Agora chat client for one org/app pair.
func NewAgoraClient(restHost, appID, appKey, orgName, appName string, timeout time.Duration) *AgoraClient {
	return &AgoraClient{
		client: &http.Client{Timeout: timeout},
		appID:  appID,
		appKey: appKey,
		url:    fmt.Sprintf("https://%s/dev/v1/%s/%s/users", restHost, orgName, appName),
	}
}

// ForwardUserPayload forwards the caller's payload verbatim to the Agora
// user-management endpoint and returns the downstream response unmodified.
func (a *AgoraClient) ForwardUserPayload(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
	if len(payload) == 0 {
		payload = json.RawMessage("{}")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("chat: create request: %w", err)
	}
	req.Header.Set("X-Agora-App-Id", a.appID)
	req.Header.Set("X-Agora-AppKey", a.appKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chat: do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("chat: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("chat: agora API error %d: %s", resp.StatusCode, string(respBody))
	}

	return respBody, nil
}
