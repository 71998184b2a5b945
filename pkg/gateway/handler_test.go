package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/engagesphere/gateway/pkg/auth"
	"github.com/engagesphere/gateway/pkg/chat"
	"github.com/engagesphere/gateway/pkg/config"
	"github.com/engagesphere/gateway/pkg/live"
	"github.com/engagesphere/gateway/pkg/oauth"
	"github.com/engagesphere/gateway/pkg/provider"
)

// stubProvider is a scriptable in-memory provider.
type stubProvider struct {
	name  provider.Identity
	calls int
	fn    func(prompt string) (provider.Result, error)
}

func (s *stubProvider) Name() provider.Identity { return s.name }

func (s *stubProvider) Generate(_ context.Context, req provider.Request) (provider.Result, error) {
	s.calls++
	return s.fn(req.Prompt)
}

// testEnv bundles the router with the collaborators tests poke at.
type testEnv struct {
	router        http.Handler
	authenticator *auth.Authenticator
	azure         *stubProvider
	zoomManager   *oauth.Manager
	googleManager *oauth.Manager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	// Token endpoint exchanging code "c" for access token "access-c".
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"access_token":"access-%s","token_type":"bearer"}`, r.Form.Get("code"))
	}))
	t.Cleanup(tokenServer.Close)

	store := oauth.NewMemoryStore()
	googleManager := oauth.NewManager(oauth.ManagerConfig{
		Platform:     oauth.PlatformGoogle,
		ClientID:     "google-client",
		ClientSecret: "google-secret",
		RedirectURI:  "http://localhost:3000/api/live/google/callback",
		Endpoint:     oauth2.Endpoint{AuthURL: tokenServer.URL + "/auth", TokenURL: tokenServer.URL + "/token"},
		ScopeAliases: oauth.GoogleScopeAliases,
		AuthPath:     "/api/live/google/auth",
		Store:        store,
	})
	zoomManager := oauth.NewManager(oauth.ManagerConfig{
		Platform:     oauth.PlatformZoom,
		ClientID:     "zoom-client",
		ClientSecret: "zoom-secret",
		RedirectURI:  "http://localhost:3000/api/live/zoom/callback",
		Endpoint:     oauth2.Endpoint{AuthURL: tokenServer.URL + "/auth", TokenURL: tokenServer.URL + "/token"},
		AuthPath:     "/api/live/zoom/auth",
		Store:        store,
	})

	azure := &stubProvider{
		name: provider.Azure,
		fn: func(prompt string) (provider.Result, error) {
			return provider.Result{Raw: json.RawMessage(`{"stub":true}`), Text: "Positive", Source: provider.Azure}, nil
		},
	}

	authenticator := auth.NewAuthenticator("test-secret")
	zoomClient := live.NewZoomClient(zoomManager, time.Second)
	googleClient := live.NewGoogleClient(googleManager, time.Second)

	handler := NewHandler(Config{
		Providers:     provider.Registry{provider.Azure: azure},
		Authenticator: authenticator,
		GoogleManager: googleManager,
		ZoomManager:   zoomManager,
		GoogleClient:  googleClient,
		Starter:       live.NewStarter(zoomClient, googleClient),
		Agora:         chat.NewAgoraClient("agora.invalid", "id", "key", "org", "app", time.Second),
		Gateway:       config.Config{Environment: "test"},
	})

	return &testEnv{
		router:        handler.Routes(),
		authenticator: authenticator,
		azure:         azure,
		zoomManager:   zoomManager,
		googleManager: googleManager,
	}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) token(t *testing.T, username, role string) string {
	t.Helper()
	token, err := e.authenticator.IssueToken(username, role)
	require.NoError(t, err)
	return token
}

// ---------------------------------------------------------------------------
// Auth
// ---------------------------------------------------------------------------

func TestLogin(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "admin", "password": "adminpass",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["token"])
	assert.Equal(t, "admin", resp["role"])

	rec = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "admin", "password": "nope",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Invalid credentials"}`, rec.Body.String())
}

func TestAICapabilities_RequireCredential(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	for _, path := range []string{
		"/api/ai/personalize",
		"/api/ai/sentiment",
		"/api/ai/sentiment-batch",
		"/api/ai/behavioral-analysis",
	} {
		rec := env.do(t, http.MethodPost, path, "", map[string]string{})
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "path %s", path)
	}
	assert.Equal(t, 0, env.azure.calls)
}

// ---------------------------------------------------------------------------
// AI capabilities
// ---------------------------------------------------------------------------

func TestPersonalize_PassesRawPayloadThrough(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	token := env.token(t, "user", "user")

	rec := env.do(t, http.MethodPost, "/api/ai/personalize", token, map[string]string{
		"prompt": "write a welcome message",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"stub":true}`, rec.Body.String(), "provider payload returns verbatim")

	rec = env.do(t, http.MethodPost, "/api/ai/personalize", token, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSentiment_PromptTemplate(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	var prompt string
	env.azure.fn = func(p string) (provider.Result, error) {
		prompt = p
		return provider.Result{Raw: json.RawMessage(`{}`)}, nil
	}

	rec := env.do(t, http.MethodPost, "/api/ai/sentiment", env.token(t, "user", "user"), map[string]string{
		"text": "great session",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Analyze sentiment: great session", prompt)
}

func TestSentimentBatch_OrderAndLength(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	env.azure.fn = func(prompt string) (provider.Result, error) {
		// Echo the message portion of the prompt as the sentiment.
		idx := strings.LastIndex(prompt, "Message: ")
		return provider.Result{Text: "sentiment of " + prompt[idx+len("Message: "):]}, nil
	}

	texts := []string{"first", "second", "third"}
	rec := env.do(t, http.MethodPost, "/api/ai/sentiment-batch", env.token(t, "user", "user"), map[string]any{
		"texts": texts,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Results []struct {
			Text      string `json:"text"`
			Sentiment string `json:"sentiment"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Results, len(texts), "one result per input")
	for i, text := range texts {
		assert.Equal(t, text, resp.Results[i].Text, "input order preserved")
		assert.Equal(t, "sentiment of "+text, resp.Results[i].Sentiment)
	}
	assert.Equal(t, len(texts), env.azure.calls, "one provider call per item")
}

func TestSentimentBatch_EmptyRejectedBeforeNetwork(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	token := env.token(t, "user", "user")

	rec := env.do(t, http.MethodPost, "/api/ai/sentiment-batch", token, map[string]any{"texts": []string{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/ai/sentiment-batch", token, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, 0, env.azure.calls, "validation must reject before any provider call")
}

// TestSentimentBatch_FailureDiscardsPartials verifies a mid-batch failure
// aborts the whole call with no partial results.
func TestSentimentBatch_FailureDiscardsPartials(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	env.azure.fn = func(prompt string) (provider.Result, error) {
		if strings.Contains(prompt, "poison") {
			return provider.Result{}, fmt.Errorf("azure: API error 500: upstream exploded")
		}
		return provider.Result{Text: "Positive"}, nil
	}

	rec := env.do(t, http.MethodPost, "/api/ai/sentiment-batch", env.token(t, "user", "user"), map[string]any{
		"texts": []string{"fine", "poison", "never reached"},
	})
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp, "error")
	assert.NotContains(t, resp, "results", "no partial results on failure")
	assert.Equal(t, 2, env.azure.calls, "batch aborts at the failing item")
}

func TestBehavioralAnalysis_NumbersMessages(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	var prompt string
	env.azure.fn = func(p string) (provider.Result, error) {
		prompt = p
		return provider.Result{Raw: json.RawMessage(`{}`)}, nil
	}

	rec := env.do(t, http.MethodPost, "/api/ai/behavioral-analysis", env.token(t, "user", "user"), map[string]any{
		"texts": []string{"thanks!", "this helped"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, prompt, "1. thanks!")
	assert.Contains(t, prompt, "2. this helped")
}

// ---------------------------------------------------------------------------
// Integrations
// ---------------------------------------------------------------------------

func TestIntegrate_UnsupportedPlatform(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/integrate/slack", "", map[string]any{"payload": map[string]string{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Only 'agora' is supported")
}

func TestStreamStart(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	t.Run("missing fields", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/stream/start", "", map[string]string{"platform": "Twitch"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("platform outside allow-list", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/stream/start", "", map[string]string{
			"platform": "Myspace", "channel": "c", "token": "t",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "'Myspace' is not supported")
	})

	t.Run("supported platform", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/stream/start", "", map[string]string{
			"platform": "Twitch", "channel": "engagesphere", "token": "stream-key",
		})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"started","platform":"Twitch","channel":"engagesphere"}`, rec.Body.String())
	})
}

// ---------------------------------------------------------------------------
// OAuth flows + gated capabilities
// ---------------------------------------------------------------------------

func TestGoogleAuth_Redirects(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/live/google/auth?scope=drive,gmail&platform=web", "", nil)
	require.Equal(t, http.StatusFound, rec.Code)

	location := rec.Header().Get("Location")
	assert.Contains(t, location, "client_id=google-client")
	assert.Contains(t, location, "drive.file")
	assert.Contains(t, location, "gmail.send")
}

func TestGoogleCallback_MissingCode(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/live/google/callback", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// TestZoomCallback_LastWriteWins verifies two sequential authorization
// completions leave the session holding the second token.
func TestZoomCallback_LastWriteWins(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/live/zoom/callback?code=first", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Zoom authorization successful")

	rec = env.do(t, http.MethodGet, "/api/live/zoom/callback?code=second", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	token, ok := env.zoomManager.AccessToken(context.Background())
	require.True(t, ok)
	assert.Equal(t, "access-second", token)
}

func TestGatedCapabilities_UnauthorizedWithHint(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/live/google/drive/upload", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "/api/live/google/auth?scope=drive")

	rec = env.do(t, http.MethodGet, "/api/live/google/contacts", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "/api/live/google/auth?scope=contacts")

	rec = env.do(t, http.MethodPost, "/api/live/google/gmail/send", "", map[string]string{
		"to": "a@b.c", "subject": "s", "message": "m",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "/api/live/google/auth?scope=gmail")
}

// ---------------------------------------------------------------------------
// Live sessions
// ---------------------------------------------------------------------------

func TestLiveStart(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	t.Run("unsupported platform", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/live/start", "", map[string]any{"platform": "skype"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"error":"Unsupported live platform"}`, rec.Body.String())
	})

	t.Run("simulated platform", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/live/start", "", map[string]any{"platform": "whatsapp"})
		require.Equal(t, http.StatusOK, rec.Code)

		var meeting live.Meeting
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &meeting))
		assert.Equal(t, "whatsapp", meeting.Platform)
		assert.Regexp(t, `^https://join\.whatsapp\.com/meeting/[0-9a-f]{8}$`, meeting.JoinURL)
	})

	t.Run("zoom requires authorization", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/live/start", "", map[string]any{"platform": "zoom"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "/api/live/zoom/auth")
	})
}

// ---------------------------------------------------------------------------
// Admin
// ---------------------------------------------------------------------------

func TestAdminHealth(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/admin/health", env.token(t, "user", "user"), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/admin/health", env.token(t, "admin", "admin"), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var report map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, "test", report["environment"])
	assert.Contains(t, report, "AZURE_OPENAI_KEY")
	assert.Contains(t, report, "VERTEX_AI_KEY")
	assert.Contains(t, report, "GPT5_MINI_KEY")
	assert.Contains(t, report, "timestamp")
	assert.Equal(t, false, report["AZURE_OPENAI_KEY"])
}
