package accesstoken

import "github.com/golang-jwt/jwt/v5"

// contentType marks the token as a provider access token.
const contentType = "twilio-fpa;v=1"

// Grants lists what the bearer of a token may do.
type Grants struct {
	Identity string     `json:"identity"`
	Voice    VoiceGrant `json:"voice"`
}

// VoiceGrant allows receiving calls and placing calls through one application.
type VoiceGrant struct {
	Incoming *IncomingGrant `json:"incoming,omitempty"`
	Outgoing *OutgoingGrant `json:"outgoing,omitempty"`
}

type IncomingGrant struct {
	Allow bool `json:"allow"`
}

type OutgoingGrant struct {
	ApplicationSID string            `json:"application_sid"`
	Allow          bool              `json:"allow"`
	Params         map[string]string `json:"params,omitempty"`
}

// Claims is the signed payload of an access token.
type Claims struct {
	Grants Grants `json:"grants"`
	jwt.RegisteredClaims
}
