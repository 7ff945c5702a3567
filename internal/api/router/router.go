package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/voice-bridge/internal/accesstoken"
	httpmiddleware "github.com/wolfman30/voice-bridge/internal/http/middleware"
	"github.com/wolfman30/voice-bridge/internal/observability/metrics"
	"github.com/wolfman30/voice-bridge/internal/voice"
	"github.com/wolfman30/voice-bridge/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	VoiceHandler       *voice.Handler
	TokenHandler       *accesstoken.Handler
	Metrics            *metrics.VoiceMetrics
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}

	r.Get("/", liveness)
	r.Get("/health", health)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	// Provider webhooks
	if cfg.VoiceHandler != nil {
		r.Group(func(webhooks chi.Router) {
			webhooks.Use(httpmiddleware.SignatureProbe(cfg.Logger, cfg.Metrics))
			webhooks.Get("/voice", cfg.VoiceHandler.Voice)
			webhooks.Post("/voice", cfg.VoiceHandler.Voice)
			webhooks.Post("/voice/action", cfg.VoiceHandler.Action)
			webhooks.Post("/status", cfg.VoiceHandler.Status)
			webhooks.Post("/fallback", cfg.VoiceHandler.Fallback)
		})
	}

	if cfg.TokenHandler != nil {
		r.Post("/token", cfg.TokenHandler.Token)
	}

	return r
}

func liveness(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("Twilio Voice Server - Status: Running"))
}

func health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
