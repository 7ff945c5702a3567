package voice

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/voice-bridge/internal/observability/metrics"
	"github.com/wolfman30/voice-bridge/pkg/logging"
)

var voiceTracer = otel.Tracer("voicebridge.internal.voice")

// Handler serves the provider's voice webhooks.
type Handler struct {
	router         *Router
	publicBaseURL  string
	trustForwarded bool
	metrics        *metrics.VoiceMetrics
	logger         *logging.Logger
}

// HandlerOption customises a Handler.
type HandlerOption func(*Handler)

// IgnoreForwardedHeaders derives callback URLs from the connection and Host
// header only. Use it when no proxy strips client-supplied X-Forwarded-*.
func IgnoreForwardedHeaders() HandlerOption {
	return func(h *Handler) {
		h.trustForwarded = false
	}
}

// NewHandler creates a voice webhook handler. publicBaseURL, when set, replaces
// the request-derived scheme and host in status-callback URLs.
func NewHandler(router *Router, publicBaseURL string, m *metrics.VoiceMetrics, logger *logging.Logger, opts ...HandlerOption) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	if router == nil {
		panic("voice: router cannot be nil")
	}
	h := &Handler{
		router:         router,
		publicBaseURL:  strings.TrimRight(publicBaseURL, "/"),
		trustForwarded: true,
		metrics:        m,
		logger:         logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Voice handles GET|POST /voice: bridge the call to the requested destination.
func (h *Handler) Voice(w http.ResponseWriter, r *http.Request) {
	ctx, span := voiceTracer.Start(r.Context(), "voice.route")
	defer span.End()
	start := time.Now()
	log := h.logger.WithContext(ctx)

	webhook, err := ParseWebhook(r)
	if err != nil {
		// An unreadable payload has no destination; Route answers with the fallback.
		log.Warn("failed to parse voice webhook", "error", err)
		span.RecordError(err)
	}

	if r.Method == http.MethodGet && webhook.To == "" {
		h.writeDocument(w, r, "voice", "probe", h.router.ServiceActive())
		return
	}

	baseURL := h.callbackBaseURL(r)
	doc := h.router.Route(RoutingRequest{
		Destination:     webhook.To,
		CallbackBaseURL: baseURL,
	})

	outcome := "fallback"
	if doc.Bridged() {
		outcome = "bridged"
	}
	span.SetAttributes(
		attribute.String("voicebridge.call_sid", webhook.CallSid),
		attribute.String("voicebridge.outcome", outcome),
	)
	log.Info("voice webhook routed",
		"call_sid", webhook.CallSid,
		"from", webhook.From,
		"to", webhook.To,
		"outcome", outcome,
		"callback_base", baseURL,
	)

	h.writeDocument(w, r, "voice", outcome, doc)
	h.metrics.ObserveWebhookLatency("voice", time.Since(start).Seconds())
}

// Status handles POST /status. Events are logged and counted, nothing is stored.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	ctx, span := voiceTracer.Start(r.Context(), "voice.status")
	defer span.End()
	start := time.Now()
	log := h.logger.WithContext(ctx)

	webhook, err := ParseWebhook(r)
	if err != nil {
		log.Warn("failed to parse status callback", "error", err)
		span.RecordError(err)
		h.metrics.ObserveWebhook("status", "invalid")
		w.WriteHeader(http.StatusOK)
		return
	}

	status := webhook.CallStatus
	label := string(status)
	if !status.Known() {
		label = "unknown"
	}
	span.SetAttributes(
		attribute.String("voicebridge.call_sid", webhook.CallSid),
		attribute.String("voicebridge.call_status", label),
	)

	attrs := []any{
		"call_sid", webhook.CallSid,
		"status", string(status),
		"direction", webhook.Direction,
		"to", webhook.To,
	}
	if status.IsTerminal() {
		attrs = append(attrs, "duration_s", webhook.CallDuration)
	}
	log.Info("call status update", attrs...)

	h.metrics.ObserveStatusEvent(label)
	h.metrics.ObserveWebhook("status", "accepted")
	h.metrics.ObserveWebhookLatency("status", time.Since(start).Seconds())
	w.WriteHeader(http.StatusOK)
}

// Fallback handles POST /fallback, the provider's fallback URL.
func (h *Handler) Fallback(w http.ResponseWriter, r *http.Request) {
	_, span := voiceTracer.Start(r.Context(), "voice.fallback")
	defer span.End()

	h.logger.Warn("provider fallback invoked",
		"call_sid", r.FormValue("CallSid"),
		"error_code", r.FormValue("ErrorCode"),
	)
	h.writeDocument(w, r, "fallback", "unavailable", h.router.Fallback())
}

// Action handles POST /voice/action, called once the dialled leg ends.
func (h *Handler) Action(w http.ResponseWriter, r *http.Request) {
	_, span := voiceTracer.Start(r.Context(), "voice.action")
	defer span.End()

	h.logger.Info("dial action completed",
		"call_sid", r.FormValue("CallSid"),
		"dial_call_status", r.FormValue("DialCallStatus"),
	)
	h.writeDocument(w, r, "action", "hangup", h.router.EndCall())
}

func (h *Handler) writeDocument(w http.ResponseWriter, r *http.Request, endpoint, outcome string, doc Document) {
	body, err := h.router.Render(doc)
	if err != nil {
		h.logger.Error("failed to encode twiml, sending fallback", "error", err, "endpoint", endpoint)
		outcome = "fallback"
	}
	h.metrics.ObserveWebhook(endpoint, outcome)

	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// callbackBaseURL is the public scheme+host the provider can reach us on.
func (h *Handler) callbackBaseURL(r *http.Request) string {
	if h.publicBaseURL != "" {
		return h.publicBaseURL
	}
	var scheme, host string
	if h.trustForwarded {
		scheme = firstHeaderValue(r.Header.Get("X-Forwarded-Proto"))
		host = firstHeaderValue(r.Header.Get("X-Forwarded-Host"))
	}
	if scheme == "" {
		scheme = "https"
		if r.TLS == nil {
			scheme = "http"
		}
	}
	if host == "" {
		host = r.Host
	}
	return fmt.Sprintf("%s://%s", scheme, host)
}

// firstHeaderValue returns the first entry of a comma separated proxy header.
func firstHeaderValue(v string) string {
	if i := strings.IndexByte(v, ','); i >= 0 {
		v = v[:i]
	}
	return strings.TrimSpace(v)
}
