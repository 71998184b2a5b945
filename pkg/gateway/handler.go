// Package gateway implements the HTTP capability router.
//
// Each inbound capability request is validated, dispatched to a provider
// adapter or a platform-specific capability call (gated on that
// platform's OAuth2 session), and mapped onto the response envelope.
package gateway

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/engagesphere/gateway/pkg/auth"
	"github.com/engagesphere/gateway/pkg/chat"
	"github.com/engagesphere/gateway/pkg/config"
	"github.com/engagesphere/gateway/pkg/live"
	"github.com/engagesphere/gateway/pkg/metrics"
	"github.com/engagesphere/gateway/pkg/oauth"
	"github.com/engagesphere/gateway/pkg/provider"
)

// supportedStreamPlatforms is the fixed allow-list for stream triggers.
var supportedStreamPlatforms = map[string]bool{
	"YouTube":     true,
	"Facebook":    true,
	"Twitch":      true,
	"Instagram":   true,
	"LinkedIn":    true,
	"Twitter (X)": true,
	"WeChat":      true,
	"Kick":        true,
	"Trovo":       true,
	"DLive":       true,
	"Vimeo":       true,
	"TikTok":      true,
	"Custom RTMP": true,
}

// Handler routes capability requests to providers and platform clients.
type Handler struct {
	providers    provider.Registry
	auth         *auth.Authenticator
	google       *oauth.Manager
	zoom         *oauth.Manager
	googleClient *live.GoogleClient
	starter      *live.Starter
	agora        *chat.AgoraClient
	cfg          config.Config
}

// Config holds the handler's collaborators.
type Config struct {
	Providers     provider.Registry
	Authenticator *auth.Authenticator
	GoogleManager *oauth.Manager
	ZoomManager   *oauth.Manager
	GoogleClient  *live.GoogleClient
	Starter       *live.Starter
	Agora         *chat.AgoraClient
	Gateway       config.Config
}

// NewHandler creates the capability router.
func NewHandler(cfg Config) *Handler {
	return &Handler{
		providers:    cfg.Providers,
		auth:         cfg.Authenticator,
		google:       cfg.GoogleManager,
		zoom:         cfg.ZoomManager,
		googleClient: cfg.GoogleClient,
		starter:      cfg.Starter,
		agora:        cfg.Agora,
		cfg:          cfg.Gateway,
	}
}

// Routes builds the HTTP routing table.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(instrument)

	r.Post("/api/auth/login", h.login)
	r.Post("/api/integrate/{platform}", h.integrate)
	r.Post("/api/stream/start", h.streamStart)

	// AI capabilities require an authenticated caller.
	r.Group(func(r chi.Router) {
		r.Use(h.auth.Middleware)
		r.Post("/api/ai/personalize", h.personalize)
		r.Post("/api/ai/sentiment", h.sentiment)
		r.Post("/api/ai/sentiment-batch", h.sentimentBatch)
		r.Post("/api/ai/behavioral-analysis", h.behavioralAnalysis)
		r.With(auth.RequireRole("admin")).Get("/api/admin/health", h.adminHealth)
	})

	r.Route("/api/live", func(r chi.Router) {
		r.Get("/google/auth", h.googleAuth)
		r.Get("/google/callback", h.googleCallback)
		r.Post("/google/drive/upload", h.driveUpload)
		r.Get("/google/contacts", h.googleContacts)
		r.Post("/google/gmail/send", h.gmailSend)
		r.Get("/zoom/auth", h.zoomAuth)
		r.Get("/zoom/callback", h.zoomCallback)
		r.Post("/start", h.liveStart)
	})

	return r
}

// ---------------------------------------------------------------------------
// Auth
// ---------------------------------------------------------------------------

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, ok := auth.Lookup(req.Username, req.Password)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := h.auth.IssueToken(user.Username, user.Role)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": token, "role": user.Role})
}

// ---------------------------------------------------------------------------
// AI capabilities
// ---------------------------------------------------------------------------

// generate routes one prompt to the selected provider and writes its raw
// payload back to the caller.
func (h *Handler) generate(w http.ResponseWriter, r *http.Request, preference, prompt string) {
	p, err := h.providers.For(preference)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	result, err := p.Generate(r.Context(), provider.Request{Prompt: prompt})
	metrics.RecordProviderCall(string(p.Name()), err)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeRaw(w, result.Raw)
}

func (h *Handler) personalize(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Prompt   string `json:"prompt"`
		Provider string `json:"provider"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Prompt == "" {
		writeError(w, http.StatusBadRequest, "prompt is required")
		return
	}

	h.generate(w, r, req.Provider, req.Prompt)
}

func (h *Handler) sentiment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text     string `json:"text"`
		Provider string `json:"provider"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	h.generate(w, r, req.Provider, "Analyze sentiment: "+req.Text)
}

func (h *Handler) sentimentBatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Texts    []string `json:"texts"`
		Provider string   `json:"provider"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Texts) == 0 {
		writeError(w, http.StatusBadRequest, "texts (array) is required")
		return
	}

	p, err := h.providers.For(req.Provider)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	type batchResult struct {
		Text      string `json:"text"`
		Sentiment string `json:"sentiment"`
	}

	// One provider call per item, strictly in input order. A failure on
	// any item aborts the whole batch and discards partial results.
	results := make([]batchResult, 0, len(req.Texts))
	for _, text := range req.Texts {
		prompt := "Analyze the sentiment of this message. Reply with only Positive, Neutral, or Negative.\nMessage: " + text
		result, err := p.Generate(r.Context(), provider.Request{Prompt: prompt})
		metrics.RecordProviderCall(string(p.Name()), err)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		results = append(results, batchResult{Text: text, Sentiment: result.Text})
	}

	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (h *Handler) behavioralAnalysis(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Texts    []string `json:"texts"`
		Provider string   `json:"provider"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Texts) == 0 {
		writeError(w, http.StatusBadRequest, "texts (array) is required")
		return
	}

	var sb strings.Builder
	sb.WriteString("Analyze the following forum/feedback messages. Identify behavioral triggers that lead to positive conversations. Return a summary and highlight any common positive patterns.\n\nMessages:\n")
	for i, t := range req.Texts {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, t)
	}

	h.generate(w, r, req.Provider, sb.String())
}

// ---------------------------------------------------------------------------
// Chat integration
// ---------------------------------------------------------------------------

func (h *Handler) integrate(w http.ResponseWriter, r *http.Request) {
	platform := chi.URLParam(r, "platform")
	if platform != chat.PlatformAgora {
		writeError(w, http.StatusBadRequest, "Unsupported platform. Only 'agora' is supported in this integration.")
		return
	}

	var req struct {
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.agora.ForwardUserPayload(r.Context(), req.Payload)
	if err != nil {
		log.Printf("[gateway] agora integration error: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeRaw(w, resp)
}

// ---------------------------------------------------------------------------
// Stream trigger
// ---------------------------------------------------------------------------

func (h *Handler) streamStart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Platform string `json:"platform"`
		Channel  string `json:"channel"`
		Token    string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil ||
		req.Platform == "" || req.Channel == "" || req.Token == "" {
		writeError(w, http.StatusBadRequest, "platform, channel, and token are required.")
		return
	}
	if !supportedStreamPlatforms[req.Platform] {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Platform '%s' is not supported.", req.Platform))
		return
	}

	// Simulation only: no per-platform streaming trigger exists yet.
	log.Printf("[gateway] triggering stream for platform: %s, channel: %s", req.Platform, req.Channel)

	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "started",
		"platform": req.Platform,
		"channel":  req.Channel,
	})
}

// ---------------------------------------------------------------------------
// OAuth flows
// ---------------------------------------------------------------------------

func (h *Handler) googleAuth(w http.ResponseWriter, r *http.Request) {
	scopeParam := r.URL.Query().Get("scope")
	if scopeParam == "" {
		scopeParam = "calendar"
	}
	clientHint := r.URL.Query().Get("platform")
	if clientHint == "" {
		clientHint = "web"
	}

	authURL := h.google.AuthURL(strings.Split(scopeParam, ","), clientHint)
	http.Redirect(w, r, authURL, http.StatusFound)
}

func (h *Handler) googleCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "Missing code", http.StatusBadRequest)
		return
	}

	if err := h.google.Exchange(r.Context(), code); err != nil {
		metrics.OAuthExchangesTotal.WithLabelValues("google", "error").Inc()
		http.Error(w, "Google OAuth failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	metrics.OAuthExchangesTotal.WithLabelValues("google", "success").Inc()

	fmt.Fprint(w, "Google authorization successful. You may now use Calendar, Drive, Contacts, and Gmail features.")
}

func (h *Handler) zoomAuth(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.zoom.AuthURL(nil, ""), http.StatusFound)
}

func (h *Handler) zoomCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "Missing code", http.StatusBadRequest)
		return
	}

	if err := h.zoom.Exchange(r.Context(), code); err != nil {
		metrics.OAuthExchangesTotal.WithLabelValues("zoom", "error").Inc()
		http.Error(w, "Zoom OAuth failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	metrics.OAuthExchangesTotal.WithLabelValues("zoom", "success").Inc()

	fmt.Fprint(w, "Zoom authorization successful. You may now create meetings.")
}

// ---------------------------------------------------------------------------
// Gated Google capabilities
// ---------------------------------------------------------------------------

func (h *Handler) driveUpload(w http.ResponseWriter, r *http.Request) {
	file, err := h.googleClient.UploadSampleFile(r.Context())
	if err != nil {
		writeCapabilityError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, file)
}

func (h *Handler) googleContacts(w http.ResponseWriter, r *http.Request) {
	contacts, err := h.googleClient.ListContacts(r.Context())
	if err != nil {
		writeCapabilityError(w, err)
		return
	}
	if len(contacts) == 0 {
		contacts = json.RawMessage("[]")
	}
	writeJSON(w, http.StatusOK, map[string]json.RawMessage{"contacts": contacts})
}

func (h *Handler) gmailSend(w http.ResponseWriter, r *http.Request) {
	var req struct {
		To      string `json:"to"`
		Subject string `json:"subject"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.To == "" {
		writeError(w, http.StatusBadRequest, "to is required")
		return
	}

	id, err := h.googleClient.SendMail(r.Context(), req.To, req.Subject, req.Message)
	if err != nil {
		writeCapabilityError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "info": "Email sent via Gmail."})
}

// ---------------------------------------------------------------------------
// Live sessions
// ---------------------------------------------------------------------------

func (h *Handler) liveStart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Platform    string `json:"platform"`
		MeetingInfo struct {
			Topic string `json:"topic"`
		} `json:"meetingInfo"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	meeting, err := h.starter.Start(r.Context(), req.Platform, req.MeetingInfo.Topic)
	if err != nil {
		writeCapabilityError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, meeting)
}

// ---------------------------------------------------------------------------
// Admin
// ---------------------------------------------------------------------------

func (h *Handler) adminHealth(w http.ResponseWriter, r *http.Request) {
	report := map[string]any{
		"environment": h.cfg.Environment,
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
	}
	for name, present := range h.cfg.SecretsConfigured() {
		report[name] = present
	}
	writeJSON(w, http.StatusOK, report)
}
