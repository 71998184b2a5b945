// EngageSphere Gateway — main entry point
//
// Environment variables:
//   PORT                 — HTTP port (default: 3000)
//   METRICS_PORT         — Prometheus metrics HTTP port (default: 9090)
//   APP_ENV              — environment name reported by admin health
//   JWT_SECRET           — HS256 signing secret for identity credentials
//   REQUEST_TIMEOUT      — outbound request timeout (default: 30s)
//   AZURE_OPENAI_URL/KEY — Azure OpenAI endpoint and key
//   VERTEX_AI_URL/KEY    — Vertex AI endpoint and key
//   GPT5_MINI_URL/KEY    — GPT-5 mini endpoint and key
//   GOOGLE_CLIENT_ID     — Google OAuth2 client id (web)
//   GOOGLE_CLIENT_SECRET — Google OAuth2 client secret
//   GOOGLE_REDIRECT_URI  — Google OAuth2 callback URL
//   GOOGLE_ANDROID_CLIENT_ID / GOOGLE_IOS_CLIENT_ID / GOOGLE_DESKTOP_CLIENT_ID
//   ZOOM_CLIENT_ID       — Zoom OAuth2 client id
//   ZOOM_CLIENT_SECRET   — Zoom OAuth2 client secret
//   ZOOM_REDIRECT_URI    — Zoom OAuth2 callback URL
//   AGORA_APP_ID / AGORA_REST_HOST / AGORA_APP_KEY / AGORA_ORG_NAME / AGORA_APP_NAME
//   REDIS_ADDR           — optional Redis session store address
//   REDIS_PASSWORD       — Redis password
//   REDIS_DB             — Redis database (default: 0)
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/engagesphere/gateway/pkg/auth"
	"github.com/engagesphere/gateway/pkg/chat"
	"github.com/engagesphere/gateway/pkg/config"
	"github.com/engagesphere/gateway/pkg/gateway"
	"github.com/engagesphere/gateway/pkg/live"
	"github.com/engagesphere/gateway/pkg/oauth"
	"github.com/engagesphere/gateway/pkg/provider"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting EngageSphere Gateway...")

	cfg := config.Load()

	// -------------------------------------------------------------------------
	// Startup environment checks for AI provider keys
	// -------------------------------------------------------------------------
	if missing := cfg.MissingSecrets(); len(missing) > 0 {
		log.Println("WARNING: missing environment variables for AI providers:")
		for _, name := range missing {
			log.Printf(" - %s", name)
		}
		log.Println("Requests needing these providers will fail until they are set.")
	} else {
		log.Println("All AI provider keys present.")
	}

	// -------------------------------------------------------------------------
	// Initialize providers
	// -------------------------------------------------------------------------
	providers := provider.Registry{
		provider.Azure:    provider.NewAzureProvider(cfg.AzureOpenAI.URL, cfg.AzureOpenAI.Key, cfg.RequestTimeout),
		provider.Vertex:   provider.NewVertexProvider(cfg.VertexAI.URL, cfg.VertexAI.Key, cfg.RequestTimeout),
		provider.GPT5Mini: provider.NewGPT5MiniProvider(cfg.GPT5Mini.URL, cfg.GPT5Mini.Key, cfg.RequestTimeout),
	}

	// -------------------------------------------------------------------------
	// Initialize OAuth session store
	// -------------------------------------------------------------------------
	var store oauth.SessionStore = oauth.NewMemoryStore()
	if cfg.Redis.Addr != "" {
		redisStore := oauth.NewRedisStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisStore.Ping(ctx); err != nil {
			log.Printf("WARNING: Redis connection failed: %v (using in-memory session store)", err)
		} else {
			store = redisStore
			log.Printf("Redis session store enabled (%s)", cfg.Redis.Addr)
		}
		cancel()
	}

	// -------------------------------------------------------------------------
	// Initialize OAuth session managers
	// -------------------------------------------------------------------------
	googleManager := oauth.NewManager(oauth.ManagerConfig{
		Platform:     oauth.PlatformGoogle,
		ClientID:     cfg.Google.ClientID,
		ClientSecret: cfg.Google.ClientSecret,
		RedirectURI:  cfg.Google.RedirectURI,
		Endpoint:     oauth.GoogleEndpoint,
		ClientIDVariants: map[string]string{
			"android": cfg.Google.AndroidClientID,
			"ios":     cfg.Google.IOSClientID,
			"desktop": cfg.Google.DesktopClientID,
		},
		ScopeAliases:    oauth.GoogleScopeAliases,
		AuthCodeOptions: oauth.GoogleAuthCodeOptions,
		AuthPath:        "/api/live/google/auth",
		Store:           store,
	})

	zoomManager := oauth.NewManager(oauth.ManagerConfig{
		Platform:     oauth.PlatformZoom,
		ClientID:     cfg.Zoom.ClientID,
		ClientSecret: cfg.Zoom.ClientSecret,
		RedirectURI:  cfg.Zoom.RedirectURI,
		Endpoint:     oauth.ZoomEndpoint,
		AuthPath:     "/api/live/zoom/auth",
		Store:        store,
	})

	// -------------------------------------------------------------------------
	// Initialize platform clients
	// -------------------------------------------------------------------------
	zoomClient := live.NewZoomClient(zoomManager, cfg.RequestTimeout)
	googleClient := live.NewGoogleClient(googleManager, cfg.RequestTimeout)
	starter := live.NewStarter(zoomClient, googleClient)
	agora := chat.NewAgoraClient(cfg.Agora.RESTHost, cfg.Agora.AppID, cfg.Agora.AppKey, cfg.Agora.OrgName, cfg.Agora.AppName, cfg.RequestTimeout)

	// -------------------------------------------------------------------------
	// Create HTTP handler
	// -------------------------------------------------------------------------
	handler := gateway.NewHandler(gateway.Config{
		Providers:     providers,
		Authenticator: auth.NewAuthenticator(cfg.JWTSecret),
		GoogleManager: googleManager,
		ZoomManager:   zoomManager,
		GoogleClient:  googleClient,
		Starter:       starter,
		Agora:         agora,
		Gateway:       cfg,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 10*time.Second,
	}

	go func() {
		log.Printf("Gateway listening on :%s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Gateway server error: %v", err)
		}
	}()

	// -------------------------------------------------------------------------
	// Start HTTP metrics server
	// -------------------------------------------------------------------------
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsMux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	metricsServer := &http.Server{
		Addr:         ":" + cfg.MetricsPort,
		Handler:      metricsMux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Metrics server listening on :%s/metrics", cfg.MetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Metrics server error: %v", err)
		}
	}()

	// -------------------------------------------------------------------------
	// Graceful shutdown
	// -------------------------------------------------------------------------
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	log.Printf("Received signal %v, shutting down...", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Gateway server shutdown error: %v", err)
	}
	log.Println("Gateway server stopped")

	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Metrics server shutdown error: %v", err)
	}
	log.Println("Metrics server stopped")

	log.Println("EngageSphere Gateway shut down successfully")
}
