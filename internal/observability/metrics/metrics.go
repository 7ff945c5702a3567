package metrics

import "github.com/prometheus/client_golang/prometheus"

// VoiceMetrics exposes counters/histograms for webhook and token flows.
type VoiceMetrics struct {
	webhookTotal      *prometheus.CounterVec
	webhookLatency    *prometheus.HistogramVec
	statusEventsTotal *prometheus.CounterVec
	tokensTotal       *prometheus.CounterVec
	signatureTotal    *prometheus.CounterVec
}

func NewVoiceMetrics(reg prometheus.Registerer) *VoiceMetrics {
	m := &VoiceMetrics{
		webhookTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voicebridge",
			Subsystem: "webhook",
			Name:      "requests_total",
			Help:      "Total provider webhooks by endpoint and outcome",
		}, []string{"endpoint", "outcome"}),
		webhookLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "voicebridge",
			Subsystem: "webhook",
			Name:      "latency_seconds",
			Help:      "Latency of webhook processing",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		statusEventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voicebridge",
			Subsystem: "webhook",
			Name:      "status_events_total",
			Help:      "Call status callbacks received by call status",
		}, []string{"status"}),
		tokensTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voicebridge",
			Subsystem: "token",
			Name:      "issued_total",
			Help:      "Access token requests by result",
		}, []string{"result"}),
		signatureTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voicebridge",
			Subsystem: "webhook",
			Name:      "signature_observed_total",
			Help:      "Webhook requests by signature header presence and response class",
		}, []string{"present", "code"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.webhookTotal, m.webhookLatency, m.statusEventsTotal, m.tokensTotal, m.signatureTotal)
	return m
}

func (m *VoiceMetrics) ObserveWebhook(endpoint, outcome string) {
	if m == nil {
		return
	}
	m.webhookTotal.WithLabelValues(endpoint, outcome).Inc()
}

func (m *VoiceMetrics) ObserveWebhookLatency(endpoint string, seconds float64) {
	if m == nil {
		return
	}
	m.webhookLatency.WithLabelValues(endpoint).Observe(seconds)
}

func (m *VoiceMetrics) ObserveStatusEvent(status string) {
	if m == nil {
		return
	}
	m.statusEventsTotal.WithLabelValues(status).Inc()
}

func (m *VoiceMetrics) ObserveToken(result string) {
	if m == nil {
		return
	}
	m.tokensTotal.WithLabelValues(result).Inc()
}

// ObserveSignature records whether a webhook carried a signature header.
// code is the response status class, e.g. "2xx" or "403".
func (m *VoiceMetrics) ObserveSignature(present bool, code string) {
	if m == nil {
		return
	}
	label := "false"
	if present {
		label = "true"
	}
	m.signatureTotal.WithLabelValues(label, code).Inc()
}
