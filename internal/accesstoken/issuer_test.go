package accesstoken

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/voice-bridge/internal/config"
)

var fixedNow = time.UnixMilli(1_700_000_000_123)

func validCredentials() config.Credentials {
	return config.Credentials{
		AccountSID:   "ACtest",
		APIKeySID:    "SKtest",
		APIKeySecret: "super-secret",
		TwiMLAppSID:  "APtest",
		PhoneNumber:  "+32460205680",
	}
}

func newTestIssuer(t *testing.T, opts ...Option) *Issuer {
	t.Helper()
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	issuer, err := NewIssuer(validCredentials(), opts...)
	require.NoError(t, err)
	return issuer
}

func TestNewIssuerMissingSecret(t *testing.T) {
	creds := validCredentials()
	creds.APIKeySecret = ""

	issuer, err := NewIssuer(creds)

	assert.Nil(t, issuer)
	var cfgErr *config.ConfigurationError
	require.True(t, errors.As(err, &cfgErr), "expected ConfigurationError, got %v", err)
	assert.Equal(t, []string{config.EnvAPIKeySecret}, cfgErr.Missing)
}

func TestIssueClaims(t *testing.T) {
	issuer := newTestIssuer(t)

	tok, err := issuer.Issue(Request{})
	require.NoError(t, err)
	assert.Equal(t, "user_1700000000123", tok.Identity)

	claims, err := issuer.Parse(tok.Value)
	require.NoError(t, err)

	assert.Equal(t, int64(86400), claims.ExpiresAt.Unix()-claims.IssuedAt.Unix())
	assert.Equal(t, "APtest", claims.Grants.Voice.Outgoing.ApplicationSID)
	assert.True(t, claims.Grants.Voice.Outgoing.Allow)
	assert.True(t, claims.Grants.Voice.Incoming.Allow)
	assert.Nil(t, claims.Grants.Voice.Outgoing.Params)
	assert.Equal(t, "user_1700000000123", claims.Grants.Identity)
	assert.Equal(t, "ACtest", claims.Subject)
	assert.Equal(t, "SKtest", claims.Issuer)
	assert.Equal(t, "SKtest-1700000000123", claims.ID)
	assert.True(t, tok.ExpiresAt.After(tok.IssuedAt))
}

func TestIssueHeaderAndWireNames(t *testing.T) {
	tok, err := newTestIssuer(t).Issue(Request{})
	require.NoError(t, err)

	parts := strings.Split(tok.Value, ".")
	require.Len(t, parts, 3)

	header := decodeSegment(t, parts[0])
	assert.Equal(t, "HS256", header["alg"])
	assert.Equal(t, "twilio-fpa;v=1", header["cty"])

	payload := decodeSegment(t, parts[1])
	grants := payload["grants"].(map[string]any)
	outgoing := grants["voice"].(map[string]any)["outgoing"].(map[string]any)
	assert.Equal(t, "APtest", outgoing["application_sid"])
	assert.NotContains(t, tok.Value, "super-secret")
}

func TestIssueHonoursIdentityAndDestinationHints(t *testing.T) {
	issuer := newTestIssuer(t)

	tok, err := issuer.Issue(Request{Identity: " agent-7 ", To: "+32 460 20 56 80"})
	require.NoError(t, err)
	assert.Equal(t, "agent-7", tok.Identity)

	claims, err := issuer.Parse(tok.Value)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"To": "+32460205680"}, claims.Grants.Voice.Outgoing.Params)
}

func TestIssueIgnoresUnusableDestinationHint(t *testing.T) {
	issuer := newTestIssuer(t)
	tok, err := issuer.Issue(Request{To: "123"})
	require.NoError(t, err)

	claims, err := issuer.Parse(tok.Value)
	require.NoError(t, err)
	assert.Nil(t, claims.Grants.Voice.Outgoing.Params)
}

func TestIssueRejectsInvalidIdentity(t *testing.T) {
	issuer := newTestIssuer(t)

	_, err := issuer.Issue(Request{Identity: "has space"})
	assert.ErrorIs(t, err, ErrInvalidIdentity)

	_, err = issuer.Issue(Request{Identity: strings.Repeat("a", maxIdentityLength+1)})
	assert.ErrorIs(t, err, ErrInvalidIdentity)
}

func TestIssueUniqueAcrossTime(t *testing.T) {
	now := fixedNow
	issuer, err := NewIssuer(validCredentials(), WithClock(func() time.Time {
		now = now.Add(time.Millisecond)
		return now
	}))
	require.NoError(t, err)

	a, err := issuer.Issue(Request{})
	require.NoError(t, err)
	b, err := issuer.Issue(Request{})
	require.NoError(t, err)

	assert.NotEqual(t, a.Identity, b.Identity)
	assert.NotEqual(t, a.Value, b.Value)
}

func TestIssueWithTTL(t *testing.T) {
	issuer := newTestIssuer(t, WithTTL(time.Hour))
	tok, err := issuer.Issue(Request{})
	require.NoError(t, err)
	assert.Equal(t, time.Hour, tok.ExpiresAt.Sub(tok.IssuedAt))
}

func TestIssueIgnoresSubSecondTTL(t *testing.T) {
	issuer, err := NewIssuer(validCredentials(),
		WithClock(func() time.Time { return time.UnixMilli(1_700_000_000_100) }),
		WithTTL(500*time.Millisecond),
	)
	require.NoError(t, err)

	tok, err := issuer.Issue(Request{})
	require.NoError(t, err)
	assert.True(t, tok.ExpiresAt.After(tok.IssuedAt))
	assert.Equal(t, DefaultTTL, tok.ExpiresAt.Sub(tok.IssuedAt))
}

func TestIssueSigningFailureIsIssuanceError(t *testing.T) {
	issuer := newTestIssuer(t, withSigningMethod(jwt.SigningMethodRS256))

	tok, err := issuer.Issue(Request{Identity: "agent"})

	assert.Empty(t, tok.Value)
	var issErr *IssuanceError
	require.True(t, errors.As(err, &issErr), "expected IssuanceError, got %v", err)
	assert.Equal(t, "agent", issErr.Identity)
	assert.ErrorIs(t, err, jwt.ErrInvalidKeyType)
}

func TestParseRejectsForeignSecret(t *testing.T) {
	tok, err := newTestIssuer(t).Issue(Request{})
	require.NoError(t, err)

	creds := validCredentials()
	creds.APIKeySecret = "other"
	other, err := NewIssuer(creds, WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, err)

	_, err = other.Parse(tok.Value)
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
}

func decodeSegment(t *testing.T, seg string) map[string]any {
	t.Helper()
	raw, err := base64.RawURLEncoding.DecodeString(seg)
	require.NoError(t, err)
	out := map[string]any{}
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}
