package config

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const sampleConfig = `
llm:
  base_url: https://api.example.com/v1
  api_key: dummy
  model: llama-test
  timeout: 5s
twilio:
  account_sid: AC123
  auth_token: secret
  from_number: "+15550001111"
  to_number: "+15550002222"
server:
  port: "9090"
  base_url: https://example.ngrok.app
assistant:
  max_history: 7
session:
  idle_timeout: 2m
`

var allEnv = []string{
	"GROQ_API_KEY", "LLM_API_KEY", "LLM_MODEL", "LLM_BASE_URL",
	"TWILIO_ACCOUNT_SID", "TWILIO_AUTH_TOKEN", "TWILIO_PHONE_NUMBER", "MY_PHONE_NUMBER",
	"BASE_URL", "PORT", "KNOWLEDGE_BASE_PATH", "CALLLOG_PATH", "LOG_LEVEL",
}

// isolate clears every bound variable and runs from an empty directory so no
// stray config.yaml or .env leaks into the test.
func isolate(t *testing.T) {
	t.Helper()
	for _, k := range allEnv {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	t.Setenv("CONFIG_PATH", "")
	t.Chdir(t.TempDir())
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	tmp, err := os.CreateTemp(t.TempDir(), "cfg-*.yaml")
	if err != nil {
		t.Fatalf("temp file: %v", err)
	}
	if _, err := tmp.WriteString(body); err != nil {
		t.Fatalf("write: %v", err)
	}
	tmp.Close()
	return tmp.Name()
}

// TestLoad_File verifies that Load unmarshals the YAML file and fills defaults.
func TestLoad_File(t *testing.T) {
	isolate(t)
	t.Setenv("CONFIG_PATH", writeConfig(t, sampleConfig))

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "https://api.example.com/v1", cfg.LLM.BaseURL)
	require.Equal(t, "llama-test", cfg.LLM.Model)
	require.Equal(t, 5*time.Second, cfg.LLM.Timeout)
	require.Equal(t, "AC123", cfg.Twilio.AccountSID)
	require.Equal(t, "+15550002222", cfg.Twilio.ToNumber)
	require.Equal(t, "0.0.0.0:9090", cfg.Server.Addr())
	require.Equal(t, 7, cfg.Assistant.MaxHistory)
	require.Equal(t, 2*time.Minute, cfg.Session.IdleTimeout)
	require.Equal(t, time.Minute, cfg.Session.SweepInterval)

	require.Equal(t, "hi-IN", cfg.Voice.Language)
	require.Equal(t, "Polly.Aditi", cfg.Voice.Voice)
	require.Equal(t, "knowledge_base.txt", cfg.Assistant.KnowledgeBasePath)
	require.NotEmpty(t, cfg.Voice.Greeting)
	require.NotEmpty(t, cfg.Assistant.ErrorReply)
}

// TestLoad_Env verifies the historical environment variable names are honoured without a file.
func TestLoad_Env(t *testing.T) {
	isolate(t)
	t.Setenv("GROQ_API_KEY", "gsk-env")
	t.Setenv("TWILIO_ACCOUNT_SID", "AC999")
	t.Setenv("TWILIO_AUTH_TOKEN", "tok")
	t.Setenv("TWILIO_PHONE_NUMBER", "+15550003333")
	t.Setenv("MY_PHONE_NUMBER", "+15550004444")
	t.Setenv("BASE_URL", "https://env.example")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "gsk-env", cfg.LLM.APIKey)
	require.Equal(t, "llama-3.3-70b-versatile", cfg.LLM.Model)
	require.Equal(t, "+15550003333", cfg.Twilio.FromNumber)
	require.Equal(t, "https://env.example", cfg.Server.BaseURL)
	require.Equal(t, 21, cfg.Assistant.MaxHistory)
}

// TestLoad_EnvOverridesFile checks precedence of environment over the YAML file.
func TestLoad_EnvOverridesFile(t *testing.T) {
	isolate(t)
	t.Setenv("CONFIG_PATH", writeConfig(t, sampleConfig))
	t.Setenv("MY_PHONE_NUMBER", "+15559999999")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "+15559999999", cfg.Twilio.ToNumber)
}

func TestLoad_MissingRequired(t *testing.T) {
	isolate(t)
	t.Setenv("GROQ_API_KEY", "gsk-env")

	_, err := Load()
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrConfigMissing))
	for _, key := range []string{"twilio.account_sid", "twilio.auth_token", "twilio.from_number", "twilio.to_number", "server.base_url"} {
		require.Contains(t, err.Error(), key)
	}
	require.NotContains(t, err.Error(), "llm.api_key")
}

func TestLoad_BadConfigPath(t *testing.T) {
	isolate(t)
	t.Setenv("CONFIG_PATH", "/does/not/exist.yaml")

	_, err := Load()
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrConfigMissing))
}
