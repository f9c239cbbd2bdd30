package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Email provider names accepted by EMAIL_PROVIDER.
const (
	ProviderResend   = "resend"
	ProviderSendGrid = "sendgrid"
	ProviderSES      = "ses"
	ProviderSMTP     = "smtp"
	ProviderStub     = "stub"
)

// Config holds application configuration
type Config struct {
	Port     string `validate:"required,numeric"`
	Env      string
	LogLevel string

	// Email provider selection and credentials
	EmailProvider        string `validate:"oneof=resend sendgrid ses smtp stub"`
	EmailProviderTimeout time.Duration `validate:"gt=0"`
	ResendAPIKey         string
	ResendBaseURL        string `validate:"required,url"`
	SendGridAPIKey       string
	SMTPHost             string
	SMTPPort             int `validate:"gt=0,lte=65535"`
	SMTPUsername         string
	SMTPPassword         string
	AWSRegion            string
	AWSAccessKeyID       string
	AWSSecretAccessKey   string
	AWSEndpointOverride  string

	// Lead routing and copy
	LeadToEmail     string `validate:"required,email"`
	FromAddress     string `validate:"required"`
	BrandName       string `validate:"required"`
	BrandLegalName  string
	ContactWhatsApp string
	DefaultSource   string `validate:"required"`
	ThankYouPath    string `validate:"required,startswith=/"`
	HoneypotField   string

	// HTTP edge
	CORSAllowedOrigins []string `validate:"min=1"`
	ExposeErrorDetail  bool
	TrustProxyHeaders  bool
	RateLimitPerMinute int
	RateLimitBurst     int
	RedisAddr          string
	RedisPassword      string
	RedisTLS           bool
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		EmailProvider:        strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", ProviderResend))),
		EmailProviderTimeout: getEnvAsDuration("EMAIL_PROVIDER_TIMEOUT", 5*time.Second),
		ResendAPIKey:         strings.TrimSpace(getEnv("RESEND_API_KEY", "")),
		ResendBaseURL:        strings.TrimRight(getEnv("RESEND_BASE_URL", "https://api.resend.com"), "/"),
		SendGridAPIKey:       strings.TrimSpace(getEnv("SENDGRID_API_KEY", "")),
		SMTPHost:             getEnv("SMTP_HOST", ""),
		SMTPPort:             getEnvAsInt("SMTP_PORT", 587),
		SMTPUsername:         getEnv("SMTP_USER", ""),
		SMTPPassword:         getEnv("SMTP_PASS", ""),
		AWSRegion:            getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:       getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride:  getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		LeadToEmail:     getEnv("LEAD_TO_EMAIL", "info@chinaexecution.com"),
		FromAddress:     getEnv("RESEND_FROM", getEnv("EMAIL_FROM", "ChinaExecution <info@chinaexecution.com>")),
		BrandName:       getEnv("BRAND_NAME", "ChinaExecution"),
		BrandLegalName:  getEnv("BRAND_LEGAL_NAME", "Bestoo Service LLC"),
		ContactWhatsApp: getEnv("CONTACT_WHATSAPP", "+1 919 213 1199"),
		DefaultSource:   getEnv("DEFAULT_SOURCE", "website"),
		ThankYouPath:    getEnv("THANK_YOU_PATH", "/thank-you.html"),
		HoneypotField:   getEnv("HONEYPOT_FIELD", "_gotcha"),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{
			"https://chinaexecution.com",
			"https://www.chinaexecution.com",
		}),
		ExposeErrorDetail:  getEnvAsBool("EXPOSE_ERROR_DETAIL", false),
		TrustProxyHeaders:  getEnvAsBool("TRUST_PROXY_HEADERS", false),
		RateLimitPerMinute: getEnvAsInt("RATE_LIMIT_PER_MINUTE", 10),
		RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 5),
		RedisAddr:          getEnv("REDIS_ADDR", ""),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisTLS:           getEnvAsBool("REDIS_TLS", false),
	}
}

// Validate checks the shape of the loaded values. A missing provider
// credential is not an error here; see ProviderCredential.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok {
			fields := make([]string, 0, len(errs))
			for _, e := range errs {
				fields = append(fields, fmt.Sprintf("%s(%s)", e.Field(), e.Tag()))
			}
			return fmt.Errorf("config: invalid fields: %s", strings.Join(fields, ", "))
		}
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// ProviderCredential reports whether the selected email provider has the
// credential it needs to send.
func (c *Config) ProviderCredential() bool {
	switch c.EmailProvider {
	case ProviderResend:
		return c.ResendAPIKey != ""
	case ProviderSendGrid:
		return c.SendGridAPIKey != ""
	case ProviderSMTP:
		return c.SMTPHost != ""
	case ProviderSES, ProviderStub:
		// SES resolves credentials through the AWS default chain.
		return true
	default:
		return false
	}
}

// DefaultOrigin is the CORS origin echoed for requests outside the allow-list.
func (c *Config) DefaultOrigin() string {
	for _, origin := range c.CORSAllowedOrigins {
		if origin != "*" {
			return origin
		}
	}
	return ""
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
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
