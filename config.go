package hireqa

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// AppConfig carries everything the server needs, loaded from the
// environment with an optional .env overlay.
type AppConfig struct {
	Environment            string
	HTTPPort               string
	DatabaseDSN            string
	SigningKey             string
	TokenExpirationMinutes int
	Issuer                 string
	Audience               []string
	FrontendURL            string
	ResendAPIKey           string
	EmailFrom              string
	AppName                string
	Debug                  bool
}

// LoadConfig reads configuration from the environment. A .env file in the
// working directory is applied first when present; real environment
// variables win.
func LoadConfig() *AppConfig {
	// missing .env is fine, the environment may carry everything
	_ = godotenv.Load()

	cfg := &AppConfig{
		Environment:            envOr("APP_ENV", "development"),
		HTTPPort:               envOr("PORT", "8080"),
		DatabaseDSN:            envOr("DATABASE_DSN", "file:hireqa.db?_pragma=foreign_keys(1)"),
		SigningKey:             envOr("JWT_SIGNING_KEY", ""),
		TokenExpirationMinutes: envIntOr("JWT_EXPIRATION_MINUTES", 30),
		Issuer:                 envOr("JWT_ISSUER", "hireqa"),
		FrontendURL:            envOr("FRONTEND_URL", "http://localhost:3000"),
		ResendAPIKey:           envOr("RESEND_API_KEY", ""),
		EmailFrom:              envOr("EMAIL_FROM", "HireQA <no-reply@hireqa.example>"),
		AppName:                envOr("APP_NAME", "HireQA"),
		Debug:                  envBoolOr("DEBUG", false),
	}

	if audience := envOr("JWT_AUDIENCE", ""); audience != "" {
		for _, aud := range strings.Split(audience, ",") {
			if aud = strings.TrimSpace(aud); aud != "" {
				cfg.Audience = append(cfg.Audience, aud)
			}
		}
	}

	return cfg
}

// IsDevelopment reports whether the app runs outside production.
func (c *AppConfig) IsDevelopment() bool {
	return c.Environment != "production"
}

func (c *AppConfig) GetSigningKey() string {
	return c.SigningKey
}

func (c *AppConfig) GetTokenExpirationMinutes() int {
	return c.TokenExpirationMinutes
}

func (c *AppConfig) GetIssuer() string {
	return c.Issuer
}

func (c *AppConfig) GetAudience() []string {
	return c.Audience
}

var _ Config = (*AppConfig)(nil)

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envBoolOr(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
