package accesstoken

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/voice-bridge/internal/observability/metrics"
	"github.com/wolfman30/voice-bridge/pkg/logging"
)

var tokenTracer = otel.Tracer("voicebridge.internal.accesstoken")

const maxTokenRequestBody = 4 << 10

// Handler serves POST /token.
type Handler struct {
	issuer  *Issuer
	metrics *metrics.VoiceMetrics
	logger  *logging.Logger
}

func NewHandler(issuer *Issuer, m *metrics.VoiceMetrics, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	if issuer == nil {
		panic("accesstoken: issuer cannot be nil")
	}
	return &Handler{issuer: issuer, metrics: m, logger: logger}
}

type tokenRequest struct {
	Identity string `json:"identity"`
	To       string `json:"to"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	Identity  string    `json:"identity"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Token issues an access token. The body is optional and may be JSON or a form.
func (h *Handler) Token(w http.ResponseWriter, r *http.Request) {
	ctx, span := tokenTracer.Start(r.Context(), "accesstoken.issue")
	defer span.End()
	log := h.logger.WithContext(ctx)

	req, err := decodeTokenRequest(r)
	if err != nil {
		log.Warn("invalid token request", "error", err)
		span.RecordError(err)
		h.metrics.ObserveToken("invalid")
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	tok, err := h.issuer.Issue(Request{Identity: req.Identity, To: req.To})
	if errors.Is(err, ErrInvalidIdentity) {
		h.metrics.ObserveToken("invalid")
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err != nil {
		log.Error("failed to issue access token", "error", err)
		span.RecordError(err)
		h.metrics.ObserveToken("failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to issue token"})
		return
	}

	span.SetAttributes(attribute.String("voicebridge.identity", tok.Identity))
	log.Info("access token issued", "identity", tok.Identity, "expires_at", tok.ExpiresAt)
	h.metrics.ObserveToken("issued")
	writeJSON(w, http.StatusOK, tokenResponse{
		Token:     tok.Value,
		Identity:  tok.Identity,
		ExpiresAt: tok.ExpiresAt.UTC(),
	})
}

func decodeTokenRequest(r *http.Request) (tokenRequest, error) {
	var req tokenRequest
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		err := json.NewDecoder(io.LimitReader(r.Body, maxTokenRequestBody)).Decode(&req)
		if err != nil && !errors.Is(err, io.EOF) {
			return tokenRequest{}, err
		}
		return req, nil
	}
	if err := r.ParseForm(); err != nil {
		return tokenRequest{}, err
	}
	req.Identity = r.FormValue("identity")
	req.To = r.FormValue("to")
	return req, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
