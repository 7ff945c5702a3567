package accesstoken

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/wolfman30/voice-bridge/internal/config"
	"github.com/wolfman30/voice-bridge/internal/voice"
)

// DefaultTTL is the lifetime of an issued token.
const DefaultTTL = 24 * time.Hour

// maxIdentityLength is the longest client identity the provider accepts.
const maxIdentityLength = 121

// ErrInvalidIdentity is returned when a requested identity cannot be used.
var ErrInvalidIdentity = errors.New("identity must be 1-121 characters without whitespace")

// IssuanceError wraps a failure to sign a token.
type IssuanceError struct {
	Identity string
	Err      error
}

func (e *IssuanceError) Error() string {
	return fmt.Sprintf("issue access token for %q: %v", e.Identity, e.Err)
}

func (e *IssuanceError) Unwrap() error {
	return e.Err
}

// Request carries the optional hints for one token.
type Request struct {
	// Identity overrides the generated user_<millis> identity.
	Identity string
	// To, when normalizable, is passed to the application as an outgoing param.
	To string
}

// Token is what callers receive. The secret and raw claims never leave the issuer.
type Token struct {
	Value     string
	Identity  string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Issuer signs capability tokens for one calling application.
type Issuer struct {
	creds  config.Credentials
	ttl    time.Duration
	now    func() time.Time
	method jwt.SigningMethod
}

// Option customises an Issuer.
type Option func(*Issuer)

// WithTTL overrides DefaultTTL. Values below config.MinTokenTTL are ignored.
func WithTTL(ttl time.Duration) Option {
	return func(i *Issuer) {
		if ttl >= config.MinTokenTTL {
			i.ttl = ttl
		}
	}
}

// WithClock sets the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) {
		if now != nil {
			i.now = now
		}
	}
}

func withSigningMethod(m jwt.SigningMethod) Option {
	return func(i *Issuer) {
		i.method = m
	}
}

// NewIssuer validates creds and returns an issuer. Missing credentials yield a
// *config.ConfigurationError; nothing is signed in that case.
func NewIssuer(creds config.Credentials, opts ...Option) (*Issuer, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	i := &Issuer{
		creds:  creds,
		ttl:    DefaultTTL,
		now:    time.Now,
		method: jwt.SigningMethodHS256,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// Issue signs a token for req. Identity problems return ErrInvalidIdentity;
// signing problems return *IssuanceError.
func (i *Issuer) Issue(req Request) (Token, error) {
	now := i.now()
	millis := now.UnixMilli()

	identity := strings.TrimSpace(req.Identity)
	if identity == "" {
		identity = fmt.Sprintf("user_%d", millis)
	} else if len(identity) > maxIdentityLength || strings.ContainsAny(identity, " \t\r\n") {
		return Token{}, ErrInvalidIdentity
	}

	outgoing := &OutgoingGrant{ApplicationSID: i.creds.TwiMLAppSID, Allow: true}
	if to, ok := voice.NormalizeDestination(req.To); ok {
		outgoing.Params = map[string]string{"To": to.String()}
	}

	issuedAt := jwt.NewNumericDate(now)
	expiresAt := jwt.NewNumericDate(now.Add(i.ttl))
	claims := Claims{
		Grants: Grants{
			Identity: identity,
			Voice: VoiceGrant{
				Incoming: &IncomingGrant{Allow: true},
				Outgoing: outgoing,
			},
		},
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        fmt.Sprintf("%s-%d", i.creds.APIKeySID, millis),
			Issuer:    i.creds.APIKeySID,
			Subject:   i.creds.AccountSID,
			IssuedAt:  issuedAt,
			ExpiresAt: expiresAt,
		},
	}

	token := jwt.NewWithClaims(i.method, claims)
	token.Header["cty"] = contentType
	signed, err := token.SignedString([]byte(i.creds.APIKeySecret))
	if err != nil {
		return Token{}, &IssuanceError{Identity: identity, Err: err}
	}

	return Token{
		Value:     signed,
		Identity:  identity,
		IssuedAt:  issuedAt.Time,
		ExpiresAt: expiresAt.Time,
	}, nil
}

// Parse verifies a token issued by i and returns its claims.
func (i *Issuer) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(i.creds.APIKeySecret), nil
	}, jwt.WithTimeFunc(i.now), jwt.WithIssuer(i.creds.APIKeySID), jwt.WithSubject(i.creds.AccountSID))
	if err != nil {
		return nil, err
	}
	return claims, nil
}
