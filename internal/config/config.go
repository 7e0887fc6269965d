package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

type Config struct {
	// Service configuration
	ServiceName  string
	LogLevel     string
	LogFormat    string
	REPLLogLevel string

	// LLM configuration
	LLMProvider     string
	AnthropicAPIKey string
	AnthropicModel  string
	OpenAIAPIKey    string
	OpenAIModel     string
	LLMTimeout      time.Duration

	// Reservation backend configuration
	Reservation ReservationConfig

	// Session storage
	RedisURL   string
	SessionTTL time.Duration

	// NATS configuration
	NatsEnabled     bool
	NatsURL         string
	NatsChatSubject string
	NatsTimeout     time.Duration

	// HTTP configuration
	HTTPAddr          string
	HTTPAllowedOrigin string
}

type ReservationConfig struct {
	BaseURL              string
	APIToken             string
	Microsite            string
	ChannelCode          string
	CancellationReasonID int
	Timeout              time.Duration
	Customer             Customer
}

// Customer is the fixed identity every booking is created under.
type Customer struct {
	Title     string
	FirstName string
	Surname   string
	Email     string
	Mobile    string
}

var defaults = map[string]any{
	"SERVICE_NAME": "tablebuddy",
	"LOG_LEVEL":    "info",
	"LOG_FORMAT":   "console",

	// The terminal chat keeps logs quiet so they do not interleave with replies.
	"REPL_LOG_LEVEL": "warn",

	"LLM_PROVIDER":    ProviderAnthropic,
	"ANTHROPIC_MODEL": "claude-3-5-sonnet-20241022",
	"OPENAI_MODEL":    "gpt-4o-mini",
	"LLM_TIMEOUT":     "30s",

	"RESERVATION_BASE_URL":               "http://localhost:8547/api/ConsumerApi/v1/Restaurant/TheHungryUnicorn",
	"RESERVATION_MICROSITE":              "TheHungryUnicorn",
	"RESERVATION_CHANNEL_CODE":           "ONLINE",
	"RESERVATION_CANCELLATION_REASON_ID": 1,
	"RESERVATION_TIMEOUT":                "15s",

	"CUSTOMER_TITLE":      "Mr",
	"CUSTOMER_FIRST_NAME": "John",
	"CUSTOMER_SURNAME":    "Doe",
	"CUSTOMER_EMAIL":      "john.doe@example.com",
	"CUSTOMER_MOBILE":     "07123456789",

	"SESSION_TTL": "30m",

	"NATS_ENABLED":      false,
	"NATS_URL":          "nats://localhost:4222",
	"NATS_CHAT_SUBJECT": "tablebuddy.chat",
	"NATS_TIMEOUT":      "30s",

	"HTTP_ADDR":           ":8080",
	"HTTP_ALLOWED_ORIGIN": "*",
}

// Load reads .env (if present), an optional config.yaml and the process
// environment, in increasing order of precedence.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	// Keys without defaults still need binding so AutomaticEnv sees them on Get.
	for _, key := range []string{"ANTHROPIC_API_KEY", "OPENAI_API_KEY", "RESERVATION_API_TOKEN", "REDIS_URL"} {
		_ = v.BindEnv(key)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{
		ServiceName:  v.GetString("SERVICE_NAME"),
		LogLevel:     strings.ToLower(v.GetString("LOG_LEVEL")),
		LogFormat:    strings.ToLower(v.GetString("LOG_FORMAT")),
		REPLLogLevel: strings.ToLower(v.GetString("REPL_LOG_LEVEL")),

		LLMProvider:     strings.ToLower(v.GetString("LLM_PROVIDER")),
		AnthropicAPIKey: v.GetString("ANTHROPIC_API_KEY"),
		AnthropicModel:  v.GetString("ANTHROPIC_MODEL"),
		OpenAIAPIKey:    v.GetString("OPENAI_API_KEY"),
		OpenAIModel:     v.GetString("OPENAI_MODEL"),
		LLMTimeout:      v.GetDuration("LLM_TIMEOUT"),

		Reservation: ReservationConfig{
			BaseURL:              strings.TrimRight(v.GetString("RESERVATION_BASE_URL"), "/"),
			APIToken:             v.GetString("RESERVATION_API_TOKEN"),
			Microsite:            v.GetString("RESERVATION_MICROSITE"),
			ChannelCode:          v.GetString("RESERVATION_CHANNEL_CODE"),
			CancellationReasonID: v.GetInt("RESERVATION_CANCELLATION_REASON_ID"),
			Timeout:              v.GetDuration("RESERVATION_TIMEOUT"),
			Customer: Customer{
				Title:     v.GetString("CUSTOMER_TITLE"),
				FirstName: v.GetString("CUSTOMER_FIRST_NAME"),
				Surname:   v.GetString("CUSTOMER_SURNAME"),
				Email:     v.GetString("CUSTOMER_EMAIL"),
				Mobile:    v.GetString("CUSTOMER_MOBILE"),
			},
		},

		RedisURL:   v.GetString("REDIS_URL"),
		SessionTTL: v.GetDuration("SESSION_TTL"),

		NatsEnabled:     v.GetBool("NATS_ENABLED"),
		NatsURL:         v.GetString("NATS_URL"),
		NatsChatSubject: v.GetString("NATS_CHAT_SUBJECT"),
		NatsTimeout:     v.GetDuration("NATS_TIMEOUT"),

		HTTPAddr:          v.GetString("HTTP_ADDR"),
		HTTPAllowedOrigin: v.GetString("HTTP_ALLOWED_ORIGIN"),
	}

	return cfg, nil
}

// Validate checks the settings the chat loop cannot run without.
func (c *Config) Validate() error {
	switch c.LLMProvider {
	case ProviderAnthropic:
		if c.AnthropicAPIKey == "" {
			return errors.New("ANTHROPIC_API_KEY environment variable is required")
		}
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return errors.New("OPENAI_API_KEY environment variable is required")
		}
	default:
		return fmt.Errorf("unsupported LLM_PROVIDER %q", c.LLMProvider)
	}

	if c.Reservation.BaseURL == "" {
		return errors.New("RESERVATION_BASE_URL is required")
	}
	return nil
}

// TurnTimeout bounds one chat turn: a classifier call plus the longest
// backend sequence, a modification with its capacity check.
func (c *Config) TurnTimeout() time.Duration {
	return c.LLMTimeout + 3*c.Reservation.Timeout
}
