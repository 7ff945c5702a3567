package voice

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"
)

// CallStatus is the progress state reported by the provider for a call leg.
type CallStatus string

const (
	CallInitiated  CallStatus = "initiated"
	CallQueued     CallStatus = "queued"
	CallRinging    CallStatus = "ringing"
	CallAnswered   CallStatus = "answered"
	CallInProgress CallStatus = "in-progress"
	CallCompleted  CallStatus = "completed"
	CallBusy       CallStatus = "busy"
	CallFailed     CallStatus = "failed"
	CallNoAnswer   CallStatus = "no-answer"
	CallCanceled   CallStatus = "canceled"
)

// BridgeEvents are the events every outbound leg subscribes to.
var BridgeEvents = CallbackSet{CallInitiated, CallRinging, CallAnswered, CallCompleted}

// Known reports whether s is one of the statuses above.
func (s CallStatus) Known() bool {
	switch s {
	case CallInitiated, CallQueued, CallRinging, CallAnswered, CallInProgress,
		CallCompleted, CallBusy, CallFailed, CallNoAnswer, CallCanceled:
		return true
	}
	return false
}

// IsTerminal reports whether no further events follow s.
func (s CallStatus) IsTerminal() bool {
	switch s {
	case CallCompleted, CallBusy, CallFailed, CallNoAnswer, CallCanceled:
		return true
	}
	return false
}

// Webhook carries the fields the provider sends with voice callbacks.
type Webhook struct {
	CallSid      string     `json:"CallSid"`
	AccountSid   string     `json:"AccountSid"`
	From         string     `json:"From"`
	To           string     `json:"To"`
	CallStatus   CallStatus `json:"CallStatus"`
	CallDuration string     `json:"CallDuration"`
	Direction    string     `json:"Direction"`
}

var errUnsupportedBody = errors.New("unsupported webhook body")

// ParseWebhook reads a webhook from a form-encoded body, a JSON body or the
// query string.
func ParseWebhook(r *http.Request) (Webhook, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var wh Webhook
		if err := json.NewDecoder(r.Body).Decode(&wh); err != nil {
			return Webhook{}, fmt.Errorf("decode json webhook: %w", err)
		}
		return wh.trimmed(), nil
	}
	if mediaType != "" && mediaType != "application/x-www-form-urlencoded" && mediaType != "multipart/form-data" {
		return Webhook{}, fmt.Errorf("%w: %s", errUnsupportedBody, mediaType)
	}
	if err := r.ParseForm(); err != nil {
		return Webhook{}, fmt.Errorf("failed to parse form: %w", err)
	}
	wh := Webhook{
		CallSid:      r.FormValue("CallSid"),
		AccountSid:   r.FormValue("AccountSid"),
		From:         r.FormValue("From"),
		To:           r.FormValue("To"),
		CallStatus:   CallStatus(r.FormValue("CallStatus")),
		CallDuration: r.FormValue("CallDuration"),
		Direction:    r.FormValue("Direction"),
	}
	return wh.trimmed(), nil
}

func (w Webhook) trimmed() Webhook {
	w.CallSid = strings.TrimSpace(w.CallSid)
	w.AccountSid = strings.TrimSpace(w.AccountSid)
	w.From = strings.TrimSpace(w.From)
	w.To = strings.TrimSpace(w.To)
	w.CallStatus = CallStatus(strings.ToLower(strings.TrimSpace(string(w.CallStatus))))
	w.CallDuration = strings.TrimSpace(w.CallDuration)
	w.Direction = strings.TrimSpace(w.Direction)
	return w
}
