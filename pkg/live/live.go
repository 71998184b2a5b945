// Package live starts joinable live sessions on external platforms.
//
// Zoom and Google Meet are real integrations gated on their OAuth2
// sessions; every other supported platform gets a simulated join URL and
// never touches the network.
package live

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// supportedPlatforms is the fixed allow-list of live platforms.
var supportedPlatforms = map[string]bool{
	"zoom":       true,
	"vm":         true,
	"innchat":    true,
	"teams":      true,
	"googlemeet": true,
	"whatsapp":   true,
}

// Supported reports whether platform (case-insensitive) is allow-listed.
func Supported(platform string) bool {
	return supportedPlatforms[strings.ToLower(platform)]
}

// Meeting is a joinable live session.
type Meeting struct {
	Platform string `json:"platform"`
	JoinURL  string `json:"joinUrl"`
	Info     string `json:"info"`
}

// ErrUnsupportedPlatform is returned for platforms outside the allow-list.
var ErrUnsupportedPlatform = errors.New("live: unsupported live platform")

// UnauthorizedError signals that a gated capability call was rejected
// because the platform's OAuth2 session is absent. AuthPath is the
// gateway route the caller can follow to authorize.
type UnauthorizedError struct {
	Platform string
	AuthPath string
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("live: %s not authorized; visit %s to authorize", e.Platform, e.AuthPath)
}

// Starter dispatches meeting creation to the right integration.
type Starter struct {
	zoom   *ZoomClient
	google *GoogleClient
}

// NewStarter creates a Starter over the two real integrations.
func NewStarter(zoom *ZoomClient, google *GoogleClient) *Starter {
	return &Starter{zoom: zoom, google: google}
}

// Start creates a joinable session on the given platform. Unsupported
// platforms are rejected before any dispatch; unauthorized real
// integrations are rejected before any network call.
func (s *Starter) Start(ctx context.Context, platform, topic string) (Meeting, error) {
	p := strings.ToLower(platform)
	if !supportedPlatforms[p] {
		return Meeting{}, ErrUnsupportedPlatform
	}

	switch p {
	case "zoom":
		return s.zoom.CreateMeeting(ctx, topic)
	case "googlemeet":
		return s.google.CreateMeetEvent(ctx, topic)
	default:
		return simulatedMeeting(p), nil
	}
}

// simulatedMeeting fabricates a plausible join URL without contacting
// any external system.
func simulatedMeeting(platform string) Meeting {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return Meeting{
		Platform: platform,
		JoinURL:  fmt.Sprintf("https://join.%s.com/meeting/%s", platform, id),
		Info:     fmt.Sprintf("Simulated join for %s", platform),
	}
}
