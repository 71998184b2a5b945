package live

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/engagesphere/gateway/pkg/oauth"
)

// ZoomClient creates Zoom meetings on behalf of the authorized operator.
type ZoomClient struct {
	manager *oauth.Manager
	client  *http.Client
	baseURL string
}

// NewZoomClient creates a Zoom API client gated on the given manager.
func NewZoomClient(manager *oauth.Manager, timeout time.Duration) *ZoomClient {
	return &ZoomClient{
		manager: manager,
		client:  &http.Client{Timeout: timeout},
		baseURL: "https://api.zoom.us/v2",
	}
}

type zoomUser struct {
	ID string `json:"id"`
}

type zoomMeetingRequest struct {
	Topic string `json:"topic"`
	Type  int    `json:"type"` // 1 = instant meeting
}

type zoomMeeting struct {
	JoinURL string `json:"join_url"`
}

// CreateMeeting creates an instant Zoom meeting and returns its join URL.
// The authorization gate is checked before any network call.
func (z *ZoomClient) CreateMeeting(ctx context.Context, topic string) (Meeting, error) {
	token, ok := z.manager.AccessToken(ctx)
	if !ok {
		return Meeting{}, &UnauthorizedError{Platform: "zoom", AuthPath: z.manager.AuthPath()}
	}

	if topic == "" {
		topic = "Live Meeting"
	}

	var user zoomUser
	if err := z.getJSON(ctx, token, z.baseURL+"/users/me", &user); err != nil {
		return Meeting{}, fmt.Errorf("live: zoom meeting creation failed: %w", err)
	}

	body, err := json.Marshal(zoomMeetingRequest{Topic: topic, Type: 1})
	if err != nil {
		return Meeting{}, fmt.Errorf("live: marshal zoom meeting: %w", err)
	}

	var meeting zoomMeeting
	url := fmt.Sprintf("%s/users/%s/meetings", z.baseURL, user.ID)
	if err := z.postJSON(ctx, token, url, body, &meeting); err != nil {
		return Meeting{}, fmt.Errorf("live: zoom meeting creation failed: %w", err)
	}

	return Meeting{Platform: "zoom", JoinURL: meeting.JoinURL, Info: "Zoom meeting created"}, nil
}

func (z *ZoomClient) getJSON(ctx context.Context, token, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return z.do(req, out)
}

func (z *ZoomClient) postJSON(ctx context.Context, token, url string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	return z.do(req, out)
}

func (z *ZoomClient) do(req *http.Request, out any) error {
	resp, err := z.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("zoom API error %d: %s", resp.StatusCode, string(respBody))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
