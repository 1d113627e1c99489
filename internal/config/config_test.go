package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var requiredEnv = []string{
	"OPENAI_API_KEY", "ANTHROPIC_API_KEY", "GEMINI_API_KEY", "LLM_API_KEY",
	"EVENT_REGISTRY_API_KEY", "FINNHUB_API_KEY", "REMETENTE_EMAIL", "REMETENTE_SENHA",
	"SHEET_ID", "SUBSCRIBERS_CSV", "LLM_PROVIDER", "SUBSCRIBER_SOURCE",
	"OPENAI_MODEL", "LLM_MODEL", "CONTEXT_MODEL", "OPENAI_TEMPERATURE",
	"TIMEZONE", "CALL_TIMEOUT_SECONDS", "SHEET_RANGE", "LLM_MAX_TOKENS", "CONTEXT_TEMPERATURE",
	"NEWS_BASE_URL", "NEWS_LANGUAGE", "NAME_COLUMN", "EMAIL_COLUMN", "TICKERS_COLUMN",
	"REMETENTE_NOME", "PRICE_SUFFIX",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range requiredEnv {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_YAMLWithDefaults(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.yaml", `
llm:
  api_key: sk-test
news:
  api_key: er-test
email:
  sender: bot@example.com
  password: secret
subscribers:
  sheet_id: sheet-1
analysis:
  top_n: 3
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, 0.2, cfg.LLM.Temperature)
	assert.Equal(t, 3, cfg.Analysis.TopN)
	assert.Equal(t, 20, cfg.Analysis.MaxNewsPerTicker)
	assert.Equal(t, 24*time.Hour, cfg.Lookback())
	assert.Equal(t, "score", cfg.Analysis.Ranking)
	assert.Equal(t, "smtp.gmail.com", cfg.Email.SMTPHost)
	assert.Equal(t, 465, cfg.Email.SMTPPort)
	assert.Equal(t, 1, cfg.Pipeline.Workers)
	assert.Equal(t, "Ticker 1", cfg.Subscribers.TickersColumn)
}

func TestLoad_TOML(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.toml", `
[llm]
provider = "anthropic"
api_key = "ak"
model = "claude-haiku-4-5"

[news]
provider = "finnhub"
api_key = "fh"

[email]
sender = "bot@example.com"
password = "pw"

[subscribers]
source = "csv"
csv_path = "subs.csv"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, "claude-haiku-4-5", cfg.LLM.Model)
	assert.Equal(t, "finnhub", cfg.News.Provider)
	assert.Equal(t, "subs.csv", cfg.Subscribers.CSVPath)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "from-env")
	t.Setenv("TOP_N_RELEVANTES", "7")
	t.Setenv("HORAS_RETROATIVAS", "48")
	t.Setenv("RELEVANCIA_MIN", "4.5")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.LLM.APIKey)
	assert.Equal(t, 7, cfg.Analysis.TopN)
	assert.Equal(t, 48, cfg.Analysis.LookbackHours)
	assert.Equal(t, 4.5, cfg.Analysis.MinRelevance)
}

func TestLoad_EveryTaggedEnvOverride(t *testing.T) {
	clearEnv(t)
	env := map[string]string{
		"TIMEZONE":             "UTC",
		"CALL_TIMEOUT_SECONDS": "5",
		"SHEET_RANGE":          "Respostas!A:D",
		"LLM_MAX_TOKENS":       "256",
		"CONTEXT_TEMPERATURE":  "0.7",
		"NEWS_BASE_URL":        "http://news.local",
		"NEWS_LANGUAGE":        "por",
		"NAME_COLUMN":          "Nome",
		"EMAIL_COLUMN":         "Email",
		"TICKERS_COLUMN":       "Ativos",
		"REMETENTE_NOME":       "Mesa",
		"PRICE_SUFFIX":         ".US",
	}
	for k, v := range env {
		t.Setenv(k, v)
	}

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "UTC", cfg.Analysis.Timezone)
	assert.Equal(t, 5*time.Second, cfg.CallTimeout())
	assert.Equal(t, "Respostas!A:D", cfg.Subscribers.SheetRange)
	assert.Equal(t, 256, cfg.LLM.MaxTokens)
	assert.Equal(t, 0.7, cfg.LLM.ContextTemperature)
	assert.Equal(t, "http://news.local", cfg.News.BaseURL)
	assert.Equal(t, "por", cfg.News.Language)
	assert.Equal(t, "Nome", cfg.Subscribers.NameColumn)
	assert.Equal(t, "Email", cfg.Subscribers.EmailColumn)
	assert.Equal(t, "Ativos", cfg.Subscribers.TickersColumn)
	assert.Equal(t, "Mesa", cfg.Email.FromName)
	assert.Equal(t, ".US", cfg.Prices.Suffix)
}

func TestLoad_ProviderDefaultModels(t *testing.T) {
	tests := []struct {
		provider, model, contextModel string
	}{
		{"openai", "gpt-4o-mini", "gpt-4o"},
		{"anthropic", "claude-haiku-4-5", "claude-sonnet-4-5"},
		{"gemini", "gemini-2.5-flash", "gemini-2.5-pro"},
	}
	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			clearEnv(t)
			path := writeFile(t, "config.yaml", "llm:\n  provider: "+tt.provider+"\n")
			cfg, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, tt.model, cfg.LLM.Model)
			assert.Equal(t, tt.contextModel, cfg.LLM.ContextModel)
		})
	}
}

func TestLoad_ExplicitZeroTemperature(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.yaml", `
llm:
  temperature: 0
  context_temperature: 0
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.0, cfg.LLM.Temperature)
	assert.Equal(t, 0.0, cfg.LLM.ContextTemperature)

	cfg, err = Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 0.2, cfg.LLM.Temperature)
	assert.Equal(t, 0.3, cfg.LLM.ContextTemperature)

	t.Setenv("OPENAI_TEMPERATURE", "0")
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.0, cfg.LLM.Temperature)
}

func TestValidate_EnumeratesAllMissing(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	err = cfg.Validate()
	require.Error(t, err)

	var missing *MissingError
	require.True(t, errors.As(err, &missing))
	assert.ElementsMatch(t, []string{
		"OPENAI_API_KEY", "EVENT_REGISTRY_API_KEY", "REMETENTE_EMAIL", "REMETENTE_SENHA", "SHEET_ID",
	}, missing.Names)
	assert.Contains(t, err.Error(), "REMETENTE_SENHA")
}

func TestValidate_ProviderSpecificKeyName(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	cfg.LLM.Provider = "gemini"
	cfg.News.APIKey = "x"
	cfg.Email.Sender = "a@b"
	cfg.Email.Password = "p"
	cfg.Subscribers.SheetID = "s"

	var missing *MissingError
	require.True(t, errors.As(cfg.Validate(), &missing))
	assert.Equal(t, []string{"GEMINI_API_KEY"}, missing.Names)
}

func TestValidate_InvalidEnum(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	cfg.LLM.APIKey = "k"
	cfg.News.APIKey = "x"
	cfg.Email.Sender = "a@b"
	cfg.Email.Password = "p"
	cfg.Subscribers.SheetID = "s"
	cfg.Analysis.Ranking = "random"

	err = cfg.Validate()
	require.Error(t, err)
	var missing *MissingError
	assert.False(t, errors.As(err, &missing))
	assert.Contains(t, err.Error(), "RANKING")
}
