package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrConfigMissing is returned by Load when required keys are absent.
var ErrConfigMissing = errors.New("required configuration missing")

// Config holds the application configuration
type Config struct {
	LLM       LLMConfig
	Twilio    TwilioConfig
	Server    ServerConfig
	Assistant AssistantConfig
	Voice     VoiceConfig
	Session   SessionConfig
	CallLog   CallLogConfig `mapstructure:"calllog"`
	Log       LogConfig
}

// LLMConfig holds the completion service configuration
type LLMConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float32       `mapstructure:"temperature"`
}

// TwilioConfig holds the telephony account configuration
type TwilioConfig struct {
	AccountSID string `mapstructure:"account_sid"`
	AuthToken  string `mapstructure:"auth_token"`
	FromNumber string `mapstructure:"from_number"`
	ToNumber   string `mapstructure:"to_number"`
}

// ServerConfig holds the server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	BaseURL         string        `mapstructure:"base_url"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// AssistantConfig holds the persona and dialogue settings
type AssistantConfig struct {
	Persona           string `mapstructure:"persona"`
	KnowledgeBasePath string `mapstructure:"knowledge_base_path"`
	MaxHistory        int    `mapstructure:"max_history"`
	EmptyReply        string `mapstructure:"empty_reply"`
	ErrorReply        string `mapstructure:"error_reply"`
}

// VoiceConfig holds what the voice layer says and how it listens
type VoiceConfig struct {
	Language      string `mapstructure:"language"`
	Voice         string `mapstructure:"voice"`
	SpeechTimeout string `mapstructure:"speech_timeout"`
	Greeting      string `mapstructure:"greeting"`
	NotHeard      string `mapstructure:"not_heard"`
	SessionError  string `mapstructure:"session_error"`
}

// SessionConfig holds call session expiry settings
type SessionConfig struct {
	IdleTimeout   time.Duration `mapstructure:"idle_timeout"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// CallLogConfig holds the call ledger settings. An empty path keeps the ledger in memory.
type CallLogConfig struct {
	Path string `mapstructure:"path"`
}

// LogConfig holds the logger settings
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// envBindings maps config keys to the environment variables that may set them, in priority order.
var envBindings = map[string][]string{
	"llm.api_key":                   {"GROQ_API_KEY", "LLM_API_KEY"},
	"llm.model":                     {"LLM_MODEL"},
	"llm.base_url":                  {"LLM_BASE_URL"},
	"twilio.account_sid":            {"TWILIO_ACCOUNT_SID"},
	"twilio.auth_token":             {"TWILIO_AUTH_TOKEN"},
	"twilio.from_number":            {"TWILIO_PHONE_NUMBER"},
	"twilio.to_number":              {"MY_PHONE_NUMBER"},
	"server.base_url":               {"BASE_URL"},
	"server.port":                   {"PORT"},
	"assistant.knowledge_base_path": {"KNOWLEDGE_BASE_PATH"},
	"calllog.path":                  {"CALLLOG_PATH"},
	"log.level":                     {"LOG_LEVEL"},
}

// Load loads the configuration from an optional config.yaml (or $CONFIG_PATH),
// a .env file and the environment, then validates required keys.
func Load() (*Config, error) {
	// .env is optional; variables already in the environment win.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		// An explicit path must exist; only the implicit config.yaml is optional.
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	for key, envs := range envBindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("bind env for %s: %w", key, err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate reports every missing required key in a single ErrConfigMissing error.
func (c *Config) Validate() error {
	required := []struct {
		key   string
		value string
	}{
		{"llm.api_key", c.LLM.APIKey},
		{"llm.model", c.LLM.Model},
		{"twilio.account_sid", c.Twilio.AccountSID},
		{"twilio.auth_token", c.Twilio.AuthToken},
		{"twilio.from_number", c.Twilio.FromNumber},
		{"twilio.to_number", c.Twilio.ToNumber},
		{"server.base_url", c.Server.BaseURL},
		{"assistant.knowledge_base_path", c.Assistant.KnowledgeBasePath},
	}

	var missing []string
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrConfigMissing, strings.Join(missing, ", "))
	}
	return nil
}

// Addr returns the listen address of the HTTP server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%s", s.Host, s.Port)
}
