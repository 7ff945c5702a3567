package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment keys for the provider credentials.
const (
	EnvAccountSID   = "TWILIO_ACCOUNT_SID"
	EnvAPIKeySID    = "TWILIO_API_KEY"
	EnvAPIKeySecret = "TWILIO_API_SECRET"
	EnvTwiMLAppSID  = "TWILIO_TWIML_APP_SID"
	EnvPhoneNumber  = "TWILIO_PHONE_NUMBER"
)

// Credentials identify the service towards the telephony provider.
// The value is read once at startup and only ever passed by value.
type Credentials struct {
	AccountSID   string
	APIKeySID    string
	APIKeySecret string
	TwiMLAppSID  string
	PhoneNumber  string
}

// Validate reports every missing credential in a single ConfigurationError.
func (c Credentials) Validate() error {
	var missing []string
	check := func(key, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, key)
		}
	}
	check(EnvAccountSID, c.AccountSID)
	check(EnvAPIKeySID, c.APIKeySID)
	check(EnvAPIKeySecret, c.APIKeySecret)
	check(EnvTwiMLAppSID, c.TwiMLAppSID)
	check(EnvPhoneNumber, c.PhoneNumber)
	if len(missing) > 0 {
		return &ConfigurationError{Missing: missing}
	}
	return nil
}

// ConfigurationError is returned when required startup configuration is absent.
type ConfigurationError struct {
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("missing required configuration: %s", strings.Join(e.Missing, ", "))
}

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	LogLevel      string
	LogFormat     string
	PublicBaseURL string
	// TrustForwardedHeaders lets X-Forwarded-Proto/Host pick the status
	// callback host when PublicBaseURL is unset. Only safe behind a proxy
	// that overwrites those headers.
	TrustForwardedHeaders bool
	CORSAllowedOrigins    []string
	MetricsEnabled        bool

	// Speech settings for spoken notices and fallbacks
	VoiceLanguage string
	VoiceName     string
	DialTimeout   int

	TokenTTL time.Duration

	Credentials Credentials
}

// Load reads configuration from environment variables
func Load() Config {
	return Config{
		Port:                  getEnv("PORT", "3000"),
		Env:                   getEnv("ENV", "development"),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		LogFormat:             getEnv("LOG_FORMAT", "json"),
		PublicBaseURL:         strings.TrimRight(getEnv("PUBLIC_BASE_URL", ""), "/"),
		CORSAllowedOrigins:    getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		TrustForwardedHeaders: getEnvAsBool("TRUST_FORWARDED_HEADERS", true),
		MetricsEnabled:        getEnvAsBool("METRICS_ENABLED", true),

		VoiceLanguage: getEnv("VOICE_LANGUAGE", "fr-FR"),
		VoiceName:     getEnv("VOICE_NAME", "woman"),
		DialTimeout:   getEnvAsInt("DIAL_TIMEOUT_SECONDS", 30),

		TokenTTL: getEnvAsDuration("TOKEN_TTL", 24*time.Hour),

		Credentials: Credentials{
			AccountSID:   getEnv(EnvAccountSID, ""),
			APIKeySID:    getEnv(EnvAPIKeySID, ""),
			APIKeySecret: getEnv(EnvAPIKeySecret, ""),
			TwiMLAppSID:  getEnv(EnvTwiMLAppSID, ""),
			PhoneNumber:  getEnv(EnvPhoneNumber, ""),
		},
	}
}

// MinTokenTTL is the shortest token lifetime. Token timestamps have whole
// second precision, so anything shorter could expire at its issue time.
const MinTokenTTL = time.Second

// Validate checks the settings the server cannot start without.
func (c Config) Validate() error {
	if err := c.Credentials.Validate(); err != nil {
		return err
	}
	if c.DialTimeout <= 0 {
		return fmt.Errorf("DIAL_TIMEOUT_SECONDS must be positive, got %d", c.DialTimeout)
	}
	if c.TokenTTL < MinTokenTTL {
		return fmt.Errorf("TOKEN_TTL must be at least %s, got %s", MinTokenTTL, c.TokenTTL)
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
