// Package config resolves the gateway configuration from the environment.
//
// All values are read exactly once at startup. Missing provider secrets do
// not prevent the process from serving traffic: the gateway logs a warning
// and the affected requests fail when the secret is actually needed.
package config

import (
	"os"
	"strconv"
	"time"
)

// ProviderConfig holds the endpoint and credential for one AI provider.
type ProviderConfig struct {
	URL string
	Key string
}

// OAuthConfig holds the client credentials for one OAuth2 platform.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

// GoogleConfig extends OAuthConfig with the per-client-platform id variants.
type GoogleConfig struct {
	OAuthConfig
	AndroidClientID string
	IOSClientID     string
	DesktopClientID string
}

// AgoraConfig holds the chat-platform integration settings.
type AgoraConfig struct {
	AppID    string
	RESTHost string
	AppKey   string
	OrgName  string
	AppName  string
}

// RedisConfig holds the optional Redis session-store settings.
// The store is only used when Addr is non-empty.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Config is the resolved gateway configuration.
type Config struct {
	Port           string
	MetricsPort    string
	Environment    string
	JWTSecret      string
	RequestTimeout time.Duration

	AzureOpenAI ProviderConfig
	VertexAI    ProviderConfig
	GPT5Mini    ProviderConfig

	Google GoogleConfig
	Zoom   OAuthConfig
	Agora  AgoraConfig
	Redis  RedisConfig
}

// Load reads the configuration from the environment.
func Load() Config {
	return Config{
		Port:           envOrDefault("PORT", "3000"),
		MetricsPort:    envOrDefault("METRICS_PORT", "9090"),
		Environment:    envOrDefault("APP_ENV", "development"),
		JWTSecret:      envOrDefault("JWT_SECRET", "supersecretkey"),
		RequestTimeout: envDurationOrDefault("REQUEST_TIMEOUT", 30*time.Second),

		AzureOpenAI: ProviderConfig{
			URL: envOrDefault("AZURE_OPENAI_URL", "https://write-mar5lw3u-swedencentral.cognitiveservices.azure.com/openai/deployments/Codeflow/chat/completions?api-version=2025-01-01-preview"),
			Key: os.Getenv("AZURE_OPENAI_KEY"),
		},
		VertexAI: ProviderConfig{
			URL: envOrDefault("VERTEX_AI_URL", "https://us-central1-aiplatform.googleapis.com/v1/projects/vertex-ai-ml-demo/locations/us-central1/publishers/google/models/text-bison:predict"),
			Key: os.Getenv("VERTEX_AI_KEY"),
		},
		GPT5Mini: ProviderConfig{
			URL: envOrDefault("GPT5_MINI_URL", "https://api.gpt5mini.com/v1/chat/completions"),
			// No placeholder fallback: a request routed here without a
			// configured key fails closed.
			Key: os.Getenv("GPT5_MINI_KEY"),
		},

		Google: GoogleConfig{
			OAuthConfig: OAuthConfig{
				ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
				ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
				RedirectURI:  envOrDefault("GOOGLE_REDIRECT_URI", "http://localhost:3000/api/live/google/callback"),
			},
			AndroidClientID: os.Getenv("GOOGLE_ANDROID_CLIENT_ID"),
			IOSClientID:     os.Getenv("GOOGLE_IOS_CLIENT_ID"),
			DesktopClientID: os.Getenv("GOOGLE_DESKTOP_CLIENT_ID"),
		},
		Zoom: OAuthConfig{
			ClientID:     os.Getenv("ZOOM_CLIENT_ID"),
			ClientSecret: os.Getenv("ZOOM_CLIENT_SECRET"),
			RedirectURI:  envOrDefault("ZOOM_REDIRECT_URI", "http://localhost:3000/api/live/zoom/callback"),
		},
		Agora: AgoraConfig{
			AppID:    os.Getenv("AGORA_APP_ID"),
			RESTHost: envOrDefault("AGORA_REST_HOST", "a41.chat.agora.io"),
			AppKey:   os.Getenv("AGORA_APP_KEY"),
			OrgName:  os.Getenv("AGORA_ORG_NAME"),
			AppName:  os.Getenv("AGORA_APP_NAME"),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       envIntOrDefault("REDIS_DB", 0),
		},
	}
}

// MissingSecrets reports the names of provider secrets that are not
// configured. The process still serves traffic; requests needing one of
// these fail when the secret is actually used.
func (c Config) MissingSecrets() []string {
	var missing []string
	if c.VertexAI.Key == "" {
		missing = append(missing, "VERTEX_AI_KEY")
	}
	if c.AzureOpenAI.Key == "" {
		missing = append(missing, "AZURE_OPENAI_KEY")
	}
	if c.GPT5Mini.Key == "" {
		missing = append(missing, "GPT5_MINI_KEY")
	}
	return missing
}

// SecretsConfigured reports which secrets are present, keyed by their
// environment variable name. Used by the admin health endpoint.
func (c Config) SecretsConfigured() map[string]bool {
	return map[string]bool{
		"VERTEX_AI_KEY":    c.VertexAI.Key != "",
		"AZURE_OPENAI_KEY": c.AzureOpenAI.Key != "",
		"GPT5_MINI_KEY":    c.GPT5Mini.Key != "",
		"JWT_SECRET":       os.Getenv("JWT_SECRET") != "",
		"GOOGLE_CLIENT_ID": c.Google.ClientID != "",
		"ZOOM_CLIENT_ID":   c.Zoom.ClientID != "",
	}
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envIntOrDefault(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func envDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
