package oauth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// Platform identifies an external OAuth2 platform.
type Platform string

const (
	// PlatformGoogle is the calendar/Drive/Gmail/Contacts suite.
	PlatformGoogle Platform = "google"
	// PlatformZoom is the video-conferencing platform.
	PlatformZoom Platform = "zoom"
)

// ManagerConfig configures a per-platform session manager.
type ManagerConfig struct {
	Platform     Platform
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Endpoint     oauth2.Endpoint

	// ClientIDVariants maps a client platform hint (android, ios,
	// desktop) to an alternative client id used when building the
	// authorization URL. Unset hints fall back to ClientID.
	ClientIDVariants map[string]string

	// ScopeAliases maps short scope names to full scope URLs. Unknown
	// names are passed through unchanged.
	ScopeAliases map[string]string

	// AuthCodeOptions are extra parameters added to the authorization URL.
	AuthCodeOptions []oauth2.AuthCodeOption

	// AuthPath is the gateway route a caller can follow to (re)authorize
	// the platform. Surfaced in authorization-gap errors.
	AuthPath string

	// Store holds the resulting sessions. Required.
	Store SessionStore
}

// Manager owns the authorization-code flow for one platform and exposes
// the capability gate to downstream handlers.
//
// The manager keeps no state between redirect and callback; the one-time
// code held by the platform is the only transitional state. There is no
// logout and no expiry tracking.
type Manager struct {
	platform Platform
	config   *oauth2.Config
	variants map[string]string
	aliases  map[string]string
	authOpts []oauth2.AuthCodeOption
	authPath string
	store    SessionStore
	key      string
}

// NewManager creates a session manager for one platform.
func NewManager(cfg ManagerConfig) *Manager {
	return &Manager{
		platform: cfg.Platform,
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Endpoint:     cfg.Endpoint,
		},
		variants: cfg.ClientIDVariants,
		aliases:  cfg.ScopeAliases,
		authOpts: cfg.AuthCodeOptions,
		authPath: cfg.AuthPath,
		store:    cfg.Store,
		key:      fmt.Sprintf("oauth:%s", cfg.Platform),
	}
}

// Platform returns the platform this manager owns.
func (m *Manager) Platform() Platform { return m.platform }

// AuthPath returns the gateway route that starts this platform's
// authorization flow.
func (m *Manager) AuthPath() string { return m.authPath }

// AuthURL builds the provider's authorization URL. Scope aliases are
// resolved against the alias table and the client id is selected by the
// client platform hint. The state parameter is random and not verified
// on callback; the provider's one-time code is the source of truth.
func (m *Manager) AuthURL(scopes []string, clientHint string) string {
	cfg := *m.config

	resolved := make([]string, 0, len(scopes))
	for _, s := range scopes {
		if full, ok := m.aliases[s]; ok {
			s = full
		}
		resolved = append(resolved, s)
	}
	cfg.Scopes = resolved

	if id, ok := m.variants[clientHint]; ok && id != "" {
		cfg.ClientID = id
	}

	return cfg.AuthCodeURL(uuid.NewString(), m.authOpts...)
}

// Exchange trades the one-time authorization code for a token pair and
// stores it. A successful exchange overwrites any existing session for
// this platform: the last completed authorization wins. On failure the
// stored session is left untouched.
func (m *Manager) Exchange(ctx context.Context, code string) error {
	token, err := m.config.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("oauth: %s code exchange: %w", m.platform, err)
	}

	session := Session{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		AuthorizedAt: time.Now(),
	}
	if err := m.store.Put(ctx, m.key, session); err != nil {
		return fmt.Errorf("oauth: store %s session: %w", m.platform, err)
	}
	return nil
}

// AccessToken returns the stored access token, if the platform is
// authorized.
func (m *Manager) AccessToken(ctx context.Context) (string, bool) {
	s, ok, err := m.store.Get(ctx, m.key)
	if err != nil || !ok || s.AccessToken == "" {
		return "", false
	}
	return s.AccessToken, true
}

// Authorized reports whether a capability call against this platform may
// proceed. Gated calls must check this before touching the network.
func (m *Manager) Authorized(ctx context.Context) bool {
	_, ok := m.AccessToken(ctx)
	return ok
}
