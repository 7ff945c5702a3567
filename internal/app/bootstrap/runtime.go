package bootstrap

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/voice-bridge/internal/accesstoken"
	"github.com/wolfman30/voice-bridge/internal/api/router"
	appconfig "github.com/wolfman30/voice-bridge/internal/config"
	"github.com/wolfman30/voice-bridge/internal/observability/metrics"
	"github.com/wolfman30/voice-bridge/internal/voice"
	"github.com/wolfman30/voice-bridge/pkg/logging"
)

// BuildHTTPHandler validates cfg and wires the full HTTP surface. An invalid
// configuration returns an error before any handler exists, so callers can
// refuse to serve.
func BuildHTTPHandler(cfg appconfig.Config, logger *logging.Logger) (http.Handler, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		voiceMetrics   *metrics.VoiceMetrics
		metricsHandler http.Handler
	)
	if cfg.MetricsEnabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		voiceMetrics = metrics.NewVoiceMetrics(reg)
		metricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}

	callRouter := voice.NewRouter(voice.RouterConfig{
		CallerID:    cfg.Credentials.PhoneNumber,
		Language:    cfg.VoiceLanguage,
		Voice:       cfg.VoiceName,
		DialTimeout: cfg.DialTimeout,
	})

	var voiceOpts []voice.HandlerOption
	if !cfg.TrustForwardedHeaders {
		voiceOpts = append(voiceOpts, voice.IgnoreForwardedHeaders())
	}

	issuer, err := accesstoken.NewIssuer(cfg.Credentials, accesstoken.WithTTL(cfg.TokenTTL))
	if err != nil {
		return nil, fmt.Errorf("token issuer: %w", err)
	}

	return router.New(&router.Config{
		Logger:             logger,
		VoiceHandler:       voice.NewHandler(callRouter, cfg.PublicBaseURL, voiceMetrics, logger, voiceOpts...),
		TokenHandler:       accesstoken.NewHandler(issuer, voiceMetrics, logger),
		Metrics:            voiceMetrics,
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	}), nil
}
