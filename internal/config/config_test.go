package config

import (
	"errors"
	"testing"
	"time"
)

func setCredentials(t *testing.T) {
	t.Helper()
	t.Setenv(EnvAccountSID, "ACxxxxxxxx")
	t.Setenv(EnvAPIKeySID, "SKxxxxxxxx")
	t.Setenv(EnvAPIKeySecret, "secret")
	t.Setenv(EnvTwiMLAppSID, "APxxxxxxxx")
	t.Setenv(EnvPhoneNumber, "+32460205680")
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ENV", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	t.Setenv("VOICE_LANGUAGE", "")
	t.Setenv("DIAL_TIMEOUT_SECONDS", "")
	t.Setenv("TOKEN_TTL", "")
	cfg := Load()
	if cfg.Port != "3000" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
		t.Fatalf("expected wildcard CORS default, got %v", cfg.CORSAllowedOrigins)
	}
	if cfg.VoiceLanguage != "fr-FR" || cfg.VoiceName != "woman" {
		t.Fatalf("unexpected voice defaults %s/%s", cfg.VoiceLanguage, cfg.VoiceName)
	}
	if cfg.DialTimeout != 30 {
		t.Fatalf("expected default dial timeout, got %d", cfg.DialTimeout)
	}
	if cfg.TokenTTL != 24*time.Hour {
		t.Fatalf("expected default token ttl, got %s", cfg.TokenTTL)
	}
	if !cfg.MetricsEnabled {
		t.Fatalf("expected metrics enabled by default")
	}
	if !cfg.TrustForwardedHeaders {
		t.Fatalf("expected forwarded headers trusted by default")
	}
}

func TestLoadOverrides(t *testing.T) {
	setCredentials(t)
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("PUBLIC_BASE_URL", "https://voice.example.com/")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("DIAL_TIMEOUT_SECONDS", "45")
	t.Setenv("TOKEN_TTL", "1h")
	t.Setenv("METRICS_ENABLED", "false")
	t.Setenv("TRUST_FORWARDED_HEADERS", "false")
	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if cfg.PublicBaseURL != "https://voice.example.com" {
		t.Fatalf("expected trailing slash trimmed, got %s", cfg.PublicBaseURL)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected origins %v", cfg.CORSAllowedOrigins)
	}
	if cfg.DialTimeout != 45 {
		t.Fatalf("expected dial timeout override, got %d", cfg.DialTimeout)
	}
	if cfg.TokenTTL != time.Hour {
		t.Fatalf("expected token ttl override, got %s", cfg.TokenTTL)
	}
	if cfg.MetricsEnabled {
		t.Fatalf("expected metrics disabled")
	}
	if cfg.TrustForwardedHeaders {
		t.Fatalf("expected forwarded headers distrusted")
	}
	if cfg.Credentials.PhoneNumber != "+32460205680" {
		t.Fatalf("expected phone number, got %s", cfg.Credentials.PhoneNumber)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestValidateReportsAllMissingCredentials(t *testing.T) {
	creds := Credentials{AccountSID: "AC1", TwiMLAppSID: "AP1"}
	err := creds.Validate()

	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
	want := []string{EnvAPIKeySID, EnvAPIKeySecret, EnvPhoneNumber}
	if len(cfgErr.Missing) != len(want) {
		t.Fatalf("expected %v missing, got %v", want, cfgErr.Missing)
	}
	for i, key := range want {
		if cfgErr.Missing[i] != key {
			t.Fatalf("expected %s at %d, got %s", key, i, cfgErr.Missing[i])
		}
	}
}

func TestValidateRejectsBlankSecret(t *testing.T) {
	setCredentials(t)
	t.Setenv(EnvAPIKeySecret, "   ")
	cfg := Load()

	var cfgErr *ConfigurationError
	if !errors.As(cfg.Validate(), &cfgErr) {
		t.Fatalf("expected ConfigurationError for blank secret")
	}
}

func TestValidateRejectsNonPositiveTimeout(t *testing.T) {
	setCredentials(t)
	t.Setenv("DIAL_TIMEOUT_SECONDS", "0")
	cfg := Load()
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for zero dial timeout")
	}
}

func TestValidateRejectsSubSecondTokenTTL(t *testing.T) {
	setCredentials(t)
	t.Setenv("TOKEN_TTL", "500ms")
	cfg := Load()
	if cfg.TokenTTL != 500*time.Millisecond {
		t.Fatalf("expected TOKEN_TTL to load as 500ms, got %s", cfg.TokenTTL)
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for sub-second token ttl")
	}

	cfg.TokenTTL = MinTokenTTL
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected one second ttl to be accepted, got %v", err)
	}
}
