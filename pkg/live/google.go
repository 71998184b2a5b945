package live

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/engagesphere/gateway/pkg/oauth"
)

// GoogleClient issues Google API capability calls (Calendar/Meet, Drive,
// Contacts, Gmail) on behalf of the authorized operator. Every call is
// gated on the Google OAuth2 session before touching the network.
type GoogleClient struct {
	manager *oauth.Manager
	client  *http.Client

	calendarURL    string
	driveUploadURL string
	contactsURL    string
	gmailSendURL   string
}

// NewGoogleClient creates a Google API client gated on the given manager.
func NewGoogleClient(manager *oauth.Manager, timeout time.Duration) *GoogleClient {
	return &GoogleClient{
		manager:        manager,
		client:         &http.Client{Timeout: timeout},
		calendarURL:    "https://www.googleapis.com/calendar/v3/calendars/primary/events",
		driveUploadURL: "https://www.googleapis.com/upload/drive/v3/files",
		contactsURL:    "https://people.googleapis.com/v1/people/me/connections",
		gmailSendURL:   "https://gmail.googleapis.com/gmail/v1/users/me/messages/send",
	}
}

// unauthorized builds the authorization-gap error for one capability,
// pointing the caller at the scope it needs.
func (g *GoogleClient) unauthorized(scope string) *UnauthorizedError {
	path := g.manager.AuthPath()
	if scope != "" {
		path += "?scope=" + scope
	}
	return &UnauthorizedError{Platform: "google", AuthPath: path}
}

// ---------------------------------------------------------------------------
// Calendar / Meet
// ---------------------------------------------------------------------------

type calendarEvent struct {
	Summary        string          `json:"summary"`
	Start          eventTime       `json:"start"`
	End            eventTime       `json:"end"`
	ConferenceData *conferenceData `json:"conferenceData,omitempty"`
}

type eventTime struct {
	DateTime string `json:"dateTime"`
}

type conferenceData struct {
	CreateRequest conferenceCreateRequest `json:"createRequest"`
}

type conferenceCreateRequest struct {
	RequestID             string                `json:"requestId"`
	ConferenceSolutionKey conferenceSolutionKey `json:"conferenceSolutionKey"`
}

type conferenceSolutionKey struct {
	Type string `json:"type"`
}

type calendarEventResponse struct {
	HangoutLink string `json:"hangoutLink"`
	HTMLLink    string `json:"htmlLink"`
}

// CreateMeetEvent creates a 30-minute calendar event with a Meet link
// starting now and returns the join URL.
func (g *GoogleClient) CreateMeetEvent(ctx context.Context, topic string) (Meeting, error) {
	token, ok := g.manager.AccessToken(ctx)
	if !ok {
		return Meeting{}, g.unauthorized("")
	}

	if topic == "" {
		topic = "Live Meeting"
	}

	now := time.Now()
	event := calendarEvent{
		Summary: topic,
		Start:   eventTime{DateTime: now.Format(time.RFC3339)},
		End:     eventTime{DateTime: now.Add(30 * time.Minute).Format(time.RFC3339)},
		ConferenceData: &conferenceData{
			CreateRequest: conferenceCreateRequest{
				RequestID:             strings.ReplaceAll(uuid.NewString(), "-", "")[:8],
				ConferenceSolutionKey: conferenceSolutionKey{Type: "hangoutsMeet"},
			},
		},
	}

	body, err := json.Marshal(event)
	if err != nil {
		return Meeting{}, fmt.Errorf("live: marshal calendar event: %w", err)
	}

	var created calendarEventResponse
	if err := g.postJSON(ctx, token, g.calendarURL+"?conferenceDataVersion=1", "application/json", body, &created); err != nil {
		return Meeting{}, fmt.Errorf("live: google event creation failed: %w", err)
	}

	joinURL := created.HangoutLink
	if joinURL == "" {
		joinURL = created.HTMLLink
	}

	return Meeting{Platform: "googlemeet", JoinURL: joinURL, Info: "Google Meet event created"}, nil
}

// ---------------------------------------------------------------------------
// Drive
// ---------------------------------------------------------------------------

// DriveFile is the result of a Drive upload.
type DriveFile struct {
	FileID string `json:"fileId"`
	Info   string `json:"info"`
}

type driveFileResponse struct {
	ID string `json:"id"`
}

// UploadSampleFile uploads a small text file to Drive as a capability
// demonstration and returns the created file id.
func (g *GoogleClient) UploadSampleFile(ctx context.Context) (DriveFile, error) {
	token, ok := g.manager.AccessToken(ctx)
	if !ok {
		return DriveFile{}, g.unauthorized("drive")
	}

	uploadURL := g.driveUploadURL + "?" + url.Values{
		"uploadType": {"media"},
		"name":       {"sample.txt"},
	}.Encode()

	var created driveFileResponse
	if err := g.postJSON(ctx, token, uploadURL, "text/plain", []byte("Hello from EngageSphere!"), &created); err != nil {
		return DriveFile{}, fmt.Errorf("live: drive upload failed: %w", err)
	}

	return DriveFile{FileID: created.ID, Info: "File uploaded to Google Drive."}, nil
}

// ---------------------------------------------------------------------------
// Contacts
// ---------------------------------------------------------------------------

type contactsResponse struct {
	Connections json.RawMessage `json:"connections"`
}

// ListContacts returns the operator's contacts (names and email
// addresses) as the provider's raw connection list.
func (g *GoogleClient) ListContacts(ctx context.Context) (json.RawMessage, error) {
	token, ok := g.manager.AccessToken(ctx)
	if !ok {
		return nil, g.unauthorized("contacts")
	}

	listURL := g.contactsURL + "?" + url.Values{
		"personFields": {"names,emailAddresses"},
	}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, listURL, nil)
	if err != nil {
		return nil, fmt.Errorf("live: create contacts request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	var parsed contactsResponse
	if err := g.do(req, &parsed); err != nil {
		return nil, fmt.Errorf("live: contacts fetch failed: %w", err)
	}

	return parsed.Connections, nil
}

// ---------------------------------------------------------------------------
// Gmail
// ---------------------------------------------------------------------------

type gmailSendRequest struct {
	Raw string `json:"raw"`
}

type gmailSendResponse struct {
	ID string `json:"id"`
}

// SendMail assembles an RFC 822 message and sends it via Gmail,
// returning the message id.
func (g *GoogleClient) SendMail(ctx context.Context, to, subject, message string) (string, error) {
	token, ok := g.manager.AccessToken(ctx)
	if !ok {
		return "", g.unauthorized("gmail")
	}

	raw := strings.Join([]string{
		"To: " + to,
		"Subject: " + subject,
		"",
		message,
	}, "\r\n")
	encoded := base64.RawURLEncoding.EncodeToString([]byte(raw))

	body, err := json.Marshal(gmailSendRequest{Raw: encoded})
	if err != nil {
		return "", fmt.Errorf("live: marshal gmail send: %w", err)
	}

	var sent gmailSendResponse
	if err := g.postJSON(ctx, token, g.gmailSendURL, "application/json", body, &sent); err != nil {
		return "", fmt.Errorf("live: gmail send failed: %w", err)
	}

	return sent.ID, nil
}

// ---------------------------------------------------------------------------
// HTTP helpers
// ---------------------------------------------------------------------------

func (g *GoogleClient) postJSON(ctx context.Context, token, url, contentType string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", contentType)
	return g.do(req, out)
}

func (g *GoogleClient) do(req *http.Request, out any) error {
	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("google API error %d: %s", resp.StatusCode, string(respBody))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
