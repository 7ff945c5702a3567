package middleware

import (
	"fmt"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/voice-bridge/internal/observability/metrics"
	"github.com/wolfman30/voice-bridge/pkg/logging"
)

// SignatureHeader is the header the provider signs webhooks with.
const SignatureHeader = "X-Twilio-Signature"

// SignatureProbe records whether webhooks carry a signature header and logs
// any 403 answered to the provider. It never verifies the signature and never
// rejects a request.
func SignatureProbe(logger *logging.Logger, m *metrics.VoiceMetrics) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			present := r.Header.Get(SignatureHeader) != ""
			if !present {
				logger.Debug("webhook without signature header", "path", r.URL.Path)
			}

			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := statusOrOK(ww.Status())
			if status == http.StatusForbidden {
				logger.Warn("webhook answered with 403",
					"path", r.URL.Path,
					"method", r.Method,
					"signature_present", present,
					"user_agent", r.UserAgent(),
					"forwarded_host", r.Header.Get("X-Forwarded-Host"),
				)
			}
			m.ObserveSignature(present, statusClass(status))
		})
	}
}

// statusClass keeps 403 distinct and buckets everything else as "Nxx".
func statusClass(status int) string {
	if status == http.StatusForbidden {
		return "403"
	}
	return fmt.Sprintf("%dxx", status/100)
}
