package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
// The env tag names the setting in error messages and environment overrides.
type Config struct {
	LLM struct {
		Provider           string  `yaml:"provider" toml:"provider" env:"LLM_PROVIDER" validate:"oneof=openai anthropic gemini"`
		APIKey             string  `yaml:"api_key" toml:"api_key" env:"LLM_API_KEY" validate:"required"`
		Model              string  `yaml:"model" toml:"model" env:"OPENAI_MODEL" validate:"required"`
		ContextModel       string  `yaml:"context_model" toml:"context_model" env:"CONTEXT_MODEL"`
		Temperature        float64 `yaml:"temperature" toml:"temperature" env:"OPENAI_TEMPERATURE" validate:"gte=0,lte=2"`
		ContextTemperature float64 `yaml:"context_temperature" toml:"context_temperature" env:"CONTEXT_TEMPERATURE" validate:"gte=0,lte=2"`
		MaxTokens          int     `yaml:"max_tokens" toml:"max_tokens" env:"LLM_MAX_TOKENS" validate:"gte=0"`
		RequestsPerSecond  float64 `yaml:"requests_per_second" toml:"requests_per_second" env:"LLM_REQUESTS_PER_SECOND" validate:"gte=0"`
	} `yaml:"llm" toml:"llm"`
	News struct {
		Provider string `yaml:"provider" toml:"provider" env:"NEWS_PROVIDER" validate:"oneof=eventregistry finnhub"`
		APIKey   string `yaml:"api_key" toml:"api_key" env:"EVENT_REGISTRY_API_KEY" validate:"required"`
		BaseURL  string `yaml:"base_url" toml:"base_url" env:"NEWS_BASE_URL"`
		Language string `yaml:"language" toml:"language" env:"NEWS_LANGUAGE"`
	} `yaml:"news" toml:"news"`
	Email struct {
		Sender   string `yaml:"sender" toml:"sender" env:"REMETENTE_EMAIL" validate:"required"`
		Password string `yaml:"password" toml:"password" env:"REMETENTE_SENHA" validate:"required"`
		SMTPHost string `yaml:"smtp_host" toml:"smtp_host" env:"SMTP_SERVER" validate:"required"`
		SMTPPort int    `yaml:"smtp_port" toml:"smtp_port" env:"SMTP_PORT" validate:"gt=0"`
		FromName string `yaml:"from_name" toml:"from_name" env:"REMETENTE_NOME"`
	} `yaml:"email" toml:"email"`
	Subscribers struct {
		Source          string `yaml:"source" toml:"source" env:"SUBSCRIBER_SOURCE" validate:"oneof=sheets csv"`
		SheetID         string `yaml:"sheet_id" toml:"sheet_id" env:"SHEET_ID" validate:"required_if=Source sheets"`
		SheetRange      string `yaml:"sheet_range" toml:"sheet_range" env:"SHEET_RANGE"`
		CredentialsFile string `yaml:"credentials_file" toml:"credentials_file" env:"GOOGLE_APPLICATION_CREDENTIALS"`
		CSVPath         string `yaml:"csv_path" toml:"csv_path" env:"SUBSCRIBERS_CSV" validate:"required_if=Source csv"`
		NameColumn      string `yaml:"name_column" toml:"name_column" env:"NAME_COLUMN"`
		EmailColumn     string `yaml:"email_column" toml:"email_column" env:"EMAIL_COLUMN"`
		TickersColumn   string `yaml:"tickers_column" toml:"tickers_column" env:"TICKERS_COLUMN"`
	} `yaml:"subscribers" toml:"subscribers"`
	Analysis struct {
		MaxNewsPerTicker   int     `yaml:"max_news_per_ticker" toml:"max_news_per_ticker" env:"MAX_NOTICIAS_POR_TICKER" validate:"gt=0"`
		TopN               int     `yaml:"top_n" toml:"top_n" env:"TOP_N_RELEVANTES" validate:"gt=0"`
		MinRelevance       float64 `yaml:"min_relevance" toml:"min_relevance" env:"RELEVANCIA_MIN" validate:"gte=0,lte=10"`
		LookbackHours      int     `yaml:"lookback_hours" toml:"lookback_hours" env:"HORAS_RETROATIVAS" validate:"gt=0"`
		Timezone           string  `yaml:"timezone" toml:"timezone" env:"TIMEZONE" validate:"timezone"`
		Ranking            string  `yaml:"ranking" toml:"ranking" env:"RANKING" validate:"oneof=score sentiment"`
		StrategicContext   bool    `yaml:"strategic_context" toml:"strategic_context" env:"STRATEGIC_CONTEXT"`
		Consolidated       bool    `yaml:"consolidated" toml:"consolidated" env:"CONSOLIDATED"`
		CallTimeoutSeconds int     `yaml:"call_timeout_seconds" toml:"call_timeout_seconds" env:"CALL_TIMEOUT_SECONDS" validate:"gt=0"`
	} `yaml:"analysis" toml:"analysis"`
	Prices struct {
		Enabled bool   `yaml:"enabled" toml:"enabled" env:"PRICES_ENABLED"`
		Suffix  string `yaml:"suffix" toml:"suffix" env:"PRICE_SUFFIX"`
	} `yaml:"prices" toml:"prices"`
	Context struct {
		Backend  string `yaml:"backend" toml:"backend" env:"CONTEXT_BACKEND" validate:"oneof=file redis"`
		Dir      string `yaml:"dir" toml:"dir" env:"CONTEXT_DIR"`
		RedisURL string `yaml:"redis_url" toml:"redis_url" env:"REDIS_URL" validate:"required_if=Backend redis"`
	} `yaml:"context" toml:"context"`
	Pipeline struct {
		Workers int `yaml:"workers" toml:"workers" env:"WORKERS" validate:"gt=0"`
	} `yaml:"pipeline" toml:"pipeline"`
	Schedule struct {
		Cron string `yaml:"cron" toml:"cron" env:"CRON_SCHEDULE"`
	} `yaml:"schedule" toml:"schedule"`
	Telegram struct {
		BotToken string `yaml:"bot_token" toml:"bot_token" env:"TELEGRAM_BOT_TOKEN"`
		ChatID   string `yaml:"chat_id" toml:"chat_id" env:"TELEGRAM_CHAT_ID"`
	} `yaml:"telegram" toml:"telegram"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path" toml:"sqlite_path" env:"SQLITE_PATH"`
	} `yaml:"database" toml:"database"`
	Log struct {
		Level string `yaml:"level" toml:"level" env:"LOG_LEVEL" validate:"oneof=debug info warn error"`
	} `yaml:"log" toml:"log"`
	Proxy string `yaml:"proxy" toml:"proxy" env:"HTTPS_PROXY"`
}

// MissingError lists every required setting that is absent.
type MissingError struct {
	Names []string
}

func (e *MissingError) Error() string {
	return "missing required configuration: " + strings.Join(e.Names, ", ")
}

// Load reads config from a YAML or TOML file (by extension), then applies
// .env and environment variable overrides, then defaults.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	// Zero is a meaningful temperature, so these defaults are set before the
	// file and environment get a chance to override them.
	cfg.LLM.Temperature = 0.2
	cfg.LLM.ContextTemperature = 0.3

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".toml":
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	applyEnv(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	envString(&cfg.LLM.Provider, "LLM_PROVIDER")
	envString(&cfg.LLM.APIKey, llmKeyEnv(cfg.LLM.Provider))
	envString(&cfg.LLM.APIKey, "LLM_API_KEY")
	envString(&cfg.LLM.Model, "OPENAI_MODEL")
	envString(&cfg.LLM.Model, "LLM_MODEL")
	envString(&cfg.LLM.ContextModel, "CONTEXT_MODEL")
	envFloat(&cfg.LLM.Temperature, "OPENAI_TEMPERATURE")
	envFloat(&cfg.LLM.ContextTemperature, "CONTEXT_TEMPERATURE")
	envInt(&cfg.LLM.MaxTokens, "LLM_MAX_TOKENS")
	envFloat(&cfg.LLM.RequestsPerSecond, "LLM_REQUESTS_PER_SECOND")

	envString(&cfg.News.Provider, "NEWS_PROVIDER")
	envString(&cfg.News.APIKey, "EVENT_REGISTRY_API_KEY")
	envString(&cfg.News.APIKey, "FINNHUB_API_KEY")
	envString(&cfg.News.BaseURL, "NEWS_BASE_URL")
	envString(&cfg.News.Language, "NEWS_LANGUAGE")

	envString(&cfg.Email.Sender, "REMETENTE_EMAIL")
	envString(&cfg.Email.Password, "REMETENTE_SENHA")
	envString(&cfg.Email.SMTPHost, "SMTP_SERVER")
	envInt(&cfg.Email.SMTPPort, "SMTP_PORT")
	envString(&cfg.Email.FromName, "REMETENTE_NOME")

	envString(&cfg.Subscribers.Source, "SUBSCRIBER_SOURCE")
	envString(&cfg.Subscribers.SheetID, "SHEET_ID")
	envString(&cfg.Subscribers.SheetRange, "SHEET_RANGE")
	envString(&cfg.Subscribers.CredentialsFile, "GOOGLE_APPLICATION_CREDENTIALS")
	envString(&cfg.Subscribers.CSVPath, "SUBSCRIBERS_CSV")
	envString(&cfg.Subscribers.NameColumn, "NAME_COLUMN")
	envString(&cfg.Subscribers.EmailColumn, "EMAIL_COLUMN")
	envString(&cfg.Subscribers.TickersColumn, "TICKERS_COLUMN")

	envInt(&cfg.Analysis.MaxNewsPerTicker, "MAX_NOTICIAS_POR_TICKER")
	envInt(&cfg.Analysis.TopN, "TOP_N_RELEVANTES")
	envFloat(&cfg.Analysis.MinRelevance, "RELEVANCIA_MIN")
	envInt(&cfg.Analysis.LookbackHours, "HORAS_RETROATIVAS")
	envString(&cfg.Analysis.Timezone, "TIMEZONE")
	envString(&cfg.Analysis.Ranking, "RANKING")
	envInt(&cfg.Analysis.CallTimeoutSeconds, "CALL_TIMEOUT_SECONDS")
	envBool(&cfg.Analysis.StrategicContext, "STRATEGIC_CONTEXT")
	envBool(&cfg.Analysis.Consolidated, "CONSOLIDATED")

	envBool(&cfg.Prices.Enabled, "PRICES_ENABLED")
	envString(&cfg.Prices.Suffix, "PRICE_SUFFIX")
	envString(&cfg.Context.Backend, "CONTEXT_BACKEND")
	envString(&cfg.Context.Dir, "CONTEXT_DIR")
	envString(&cfg.Context.RedisURL, "REDIS_URL")
	envInt(&cfg.Pipeline.Workers, "WORKERS")
	envString(&cfg.Schedule.Cron, "CRON_SCHEDULE")
	envString(&cfg.Telegram.BotToken, "TELEGRAM_BOT_TOKEN")
	envString(&cfg.Telegram.ChatID, "TELEGRAM_CHAT_ID")
	envString(&cfg.Database.SQLitePath, "SQLITE_PATH")
	envString(&cfg.Log.Level, "LOG_LEVEL")
	envString(&cfg.Proxy, "HTTPS_PROXY")
}

// defaultModels pairs each provider with its scoring and context models.
var defaultModels = map[string]struct{ scoring, context string }{
	"openai":    {"gpt-4o-mini", "gpt-4o"},
	"anthropic": {"claude-haiku-4-5", "claude-sonnet-4-5"},
	"gemini":    {"gemini-2.5-flash", "gemini-2.5-pro"},
}

func applyDefaults(cfg *Config) {
	setDefault(&cfg.LLM.Provider, "openai")
	if m, ok := defaultModels[cfg.LLM.Provider]; ok {
		setDefault(&cfg.LLM.Model, m.scoring)
		setDefault(&cfg.LLM.ContextModel, m.context)
	}
	setDefault(&cfg.LLM.ContextModel, cfg.LLM.Model)
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = 1024
	}

	setDefault(&cfg.News.Provider, "eventregistry")

	setDefault(&cfg.Email.SMTPHost, "smtp.gmail.com")
	if cfg.Email.SMTPPort == 0 {
		cfg.Email.SMTPPort = 465
	}
	setDefault(&cfg.Email.FromName, "TradingCore")

	setDefault(&cfg.Subscribers.Source, "sheets")
	setDefault(&cfg.Subscribers.SheetRange, "A:Z")
	setDefault(&cfg.Subscribers.CredentialsFile, "config/credentials.json")
	setDefault(&cfg.Subscribers.NameColumn, "Qual seu nome completo?")
	setDefault(&cfg.Subscribers.EmailColumn, "Qual seu e-mail?")
	setDefault(&cfg.Subscribers.TickersColumn, "Ticker 1")

	if cfg.Analysis.MaxNewsPerTicker == 0 {
		cfg.Analysis.MaxNewsPerTicker = 20
	}
	if cfg.Analysis.TopN == 0 {
		cfg.Analysis.TopN = 5
	}
	if cfg.Analysis.LookbackHours == 0 {
		cfg.Analysis.LookbackHours = 24
	}
	setDefault(&cfg.Analysis.Timezone, "America/Sao_Paulo")
	setDefault(&cfg.Analysis.Ranking, "score")
	if cfg.Analysis.CallTimeoutSeconds == 0 {
		cfg.Analysis.CallTimeoutSeconds = 60
	}

	setDefault(&cfg.Prices.Suffix, ".SA")
	setDefault(&cfg.Context.Backend, "file")
	setDefault(&cfg.Context.Dir, "data/contexts")
	if cfg.Pipeline.Workers == 0 {
		cfg.Pipeline.Workers = 1
	}
	setDefault(&cfg.Log.Level, "info")
}

// Validate checks every field and reports all missing required settings at once.
func (c *Config) Validate() error {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("env"); name != "" {
			return name
		}
		return f.Name
	})

	err := v.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate config: %w", err)
	}

	missing := &MissingError{}
	var invalid []error
	for _, fe := range verrs {
		name := fe.Field()
		if name == "LLM_API_KEY" {
			name = llmKeyEnv(c.LLM.Provider)
		}
		if strings.HasPrefix(fe.Tag(), "required") {
			missing.Names = append(missing.Names, name)
			continue
		}
		invalid = append(invalid, fmt.Errorf("%s: invalid value %v (%s=%s)", name, fe.Value(), fe.Tag(), fe.Param()))
	}
	if len(missing.Names) > 0 {
		invalid = append([]error{missing}, invalid...)
	}
	return errors.Join(invalid...)
}

// Location resolves the configured timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Analysis.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Lookback is the news window length.
func (c *Config) Lookback() time.Duration {
	return time.Duration(c.Analysis.LookbackHours) * time.Hour
}

// CallTimeout bounds every single external call.
func (c *Config) CallTimeout() time.Duration {
	return time.Duration(c.Analysis.CallTimeoutSeconds) * time.Second
}

func llmKeyEnv(provider string) string {
	switch provider {
	case "anthropic":
		return "ANTHROPIC_API_KEY"
	case "gemini":
		return "GEMINI_API_KEY"
	default:
		return "OPENAI_API_KEY"
	}
}

func setDefault(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}

func envString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envFloat(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func envBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
