package voice

import (
	"strings"
)

// Spoken messages. FallbackMessage is the single apology used for every
// failure: undialable destinations, encode faults and the provider's
// fallback URL.
const (
	FallbackMessage      = "Une erreur est survenue. Veuillez réessayer plus tard."
	ServiceActiveMessage = "Service vocal Twilio actif"
)

const (
	// DefaultDialTimeout is how long the destination rings, in seconds.
	DefaultDialTimeout = 30

	recordFromAnswer = "record-from-answer"
	statusPath       = "/status"
)

// last-resort body used only if the fallback document itself fails to encode
const staticFallbackTwiML = `<?xml version="1.0" encoding="UTF-8"?><Response><Say>` + FallbackMessage + `</Say></Response>`

// RouterConfig carries the static settings of a Router.
type RouterConfig struct {
	// CallerID is the service's own number presented to the destination.
	CallerID    string
	Language    string
	Voice       string
	DialTimeout int
}

// RoutingRequest is the per-call input of Route.
type RoutingRequest struct {
	Destination     string
	CallbackBaseURL string
}

// Router turns inbound call webhooks into call-control documents.
// It holds no mutable state and is safe for concurrent use.
type Router struct {
	cfg         RouterConfig
	encode      func(Document) ([]byte, error)
	fallbackXML []byte
}

// NewRouter creates a router for the configured caller identity.
func NewRouter(cfg RouterConfig) *Router {
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = DefaultDialTimeout
	}
	r := &Router{cfg: cfg, encode: EncodeTwiML}
	fallbackXML, err := EncodeTwiML(r.Fallback())
	if err != nil {
		fallbackXML = []byte(staticFallbackTwiML)
	}
	r.fallbackXML = fallbackXML
	return r
}

// Route builds the bridge document for req, or the fallback document when
// the destination cannot be normalized.
func (r *Router) Route(req RoutingRequest) Document {
	number, ok := NormalizeDestination(req.Destination)
	if !ok {
		return r.Fallback()
	}

	base := strings.TrimRight(strings.TrimSpace(req.CallbackBaseURL), "/")
	events := make(CallbackSet, len(BridgeEvents))
	copy(events, BridgeEvents)

	return Document{Verbs: []Verb{
		Dial{
			CallerID:       r.cfg.CallerID,
			Timeout:        r.cfg.DialTimeout,
			Record:         recordFromAnswer,
			AnswerOnBridge: true,
			Number: Number{
				StatusCallbackEvent:  events,
				StatusCallback:       base + statusPath,
				StatusCallbackMethod: "POST",
				Value:                number,
			},
		},
	}}
}

// Fallback is the apology spoken when a call cannot be routed.
func (r *Router) Fallback() Document {
	return r.say(FallbackMessage)
}

// ServiceActive is the notice returned to GET /voice probes without a destination.
func (r *Router) ServiceActive() Document {
	return r.say(ServiceActiveMessage)
}

// EndCall hangs up.
func (r *Router) EndCall() Document {
	return Document{Verbs: []Verb{Hangup{}}}
}

// Render encodes doc. Encoding failures yield the encoded fallback,
// so the result is always a well-formed document; the error is returned for
// logging only.
func (r *Router) Render(doc Document) ([]byte, error) {
	out, err := r.encode(doc)
	if err != nil {
		return r.fallbackXML, err
	}
	return out, nil
}

func (r *Router) say(text string) Document {
	return Document{Verbs: []Verb{
		Say{Language: r.cfg.Language, Voice: r.cfg.Voice, Text: text},
	}}
}
