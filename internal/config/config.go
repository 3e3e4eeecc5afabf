package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Dataset    DatasetConfig    `yaml:"dataset" mapstructure:"dataset"`
	Classifier ClassifierConfig `yaml:"classifier" mapstructure:"classifier"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Gemini     GeminiConfig     `yaml:"gemini" mapstructure:"gemini"`
	Enrich     EnrichConfig     `yaml:"enrich" mapstructure:"enrich"`
	Normalize  NormalizeConfig  `yaml:"normalize" mapstructure:"normalize"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// DatasetConfig locates the job-postings file.
type DatasetConfig struct {
	File string `yaml:"file" mapstructure:"file"`
}

// ClassifierConfig configures the text-generation classifier.
type ClassifierConfig struct {
	Provider                 string `yaml:"provider" mapstructure:"provider"`
	MaxDescriptionChars      int    `yaml:"max_description_chars" mapstructure:"max_description_chars"`
	TitleAttempts            int    `yaml:"title_attempts" mapstructure:"title_attempts"`
	TitleBaseDelaySecs       int    `yaml:"title_base_delay_secs" mapstructure:"title_base_delay_secs"`
	DescriptionAttempts      int    `yaml:"description_attempts" mapstructure:"description_attempts"`
	DescriptionBaseDelaySecs int    `yaml:"description_base_delay_secs" mapstructure:"description_base_delay_secs"`
	TitleMaxTokens           int    `yaml:"title_max_tokens" mapstructure:"title_max_tokens"`
	DescriptionMaxTokens     int    `yaml:"description_max_tokens" mapstructure:"description_max_tokens"`
	RequestsPerMinute        int    `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
	BreakerThreshold         int    `yaml:"breaker_threshold" mapstructure:"breaker_threshold"`
	BreakerResetSecs         int    `yaml:"breaker_reset_secs" mapstructure:"breaker_reset_secs"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	Model   string `yaml:"model" mapstructure:"model"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// GeminiConfig holds Google Gemini API settings.
type GeminiConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	Model   string `yaml:"model" mapstructure:"model"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// EnrichConfig configures the reconciler.
type EnrichConfig struct {
	MinDescriptionChars  int    `yaml:"min_description_chars" mapstructure:"min_description_chars"`
	CheckpointEvery      int    `yaml:"checkpoint_every" mapstructure:"checkpoint_every"`
	TitlePauseSecs       int    `yaml:"title_pause_secs" mapstructure:"title_pause_secs"`
	DescriptionPauseSecs int    `yaml:"description_pause_secs" mapstructure:"description_pause_secs"`
	DefaultSeniority     string `yaml:"default_seniority" mapstructure:"default_seniority"`
}

// NormalizeConfig points at optional vocabulary overrides.
type NormalizeConfig struct {
	VocabularyFile string `yaml:"vocabulary_file" mapstructure:"vocabulary_file"`
}

// StoreConfig configures the run ledger backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DSN         string `yaml:"dsn" mapstructure:"dsn"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// ServerConfig configures the dashboard API server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("JOBMARKET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Provider keys also come from the variables the SDKs document.
	if err := v.BindEnv("gemini.key", "JOBMARKET_GEMINI_KEY", "GEMINI_API_KEY"); err != nil {
		return nil, eris.Wrap(err, "config: bind gemini key")
	}
	if err := v.BindEnv("anthropic.key", "JOBMARKET_ANTHROPIC_KEY", "ANTHROPIC_API_KEY"); err != nil {
		return nil, eris.Wrap(err, "config: bind anthropic key")
	}

	// Defaults
	v.SetDefault("dataset.file", "dados_vagas_linkedin.csv")
	v.SetDefault("classifier.provider", "gemini")
	v.SetDefault("classifier.max_description_chars", 8000)
	v.SetDefault("classifier.title_attempts", 3)
	v.SetDefault("classifier.title_base_delay_secs", 5)
	v.SetDefault("classifier.description_attempts", 5)
	v.SetDefault("classifier.description_base_delay_secs", 10)
	v.SetDefault("classifier.title_max_tokens", 256)
	v.SetDefault("classifier.description_max_tokens", 2048)
	v.SetDefault("classifier.requests_per_minute", 0)
	v.SetDefault("classifier.breaker_threshold", 5)
	v.SetDefault("classifier.breaker_reset_secs", 60)
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("gemini.model", "gemini-flash-latest")
	v.SetDefault("enrich.min_description_chars", 10)
	v.SetDefault("enrich.checkpoint_every", 5)
	v.SetDefault("enrich.title_pause_secs", 2)
	v.SetDefault("enrich.description_pause_secs", 4)
	v.SetDefault("enrich.default_seniority", "")
	v.SetDefault("normalize.vocabulary_file", "")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.dsn", "jobmarket.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command mode depends on. Modes are
// "enrich", "offline", "serve", and "read".
func (c *Config) Validate(mode string) error {
	var errs []string
	if c.Dataset.File == "" {
		errs = append(errs, "dataset.file is required")
	}

	switch mode {
	case "enrich":
		switch strings.ToLower(c.Classifier.Provider) {
		case "gemini":
			if c.Gemini.Key == "" {
				errs = append(errs, "gemini.key is required (or set GEMINI_API_KEY)")
			}
		case "anthropic":
			if c.Anthropic.Key == "" {
				errs = append(errs, "anthropic.key is required (or set ANTHROPIC_API_KEY)")
			}
		default:
			errs = append(errs, fmt.Sprintf("classifier.provider must be gemini or anthropic, got %q", c.Classifier.Provider))
		}
		errs = append(errs, c.validateEnrich()...)
	case "offline":
		errs = append(errs, c.validateEnrich()...)
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be > 0 and <= 65535")
		}
	case "read":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateEnrich() []string {
	var errs []string
	if c.Classifier.TitleAttempts < 1 || c.Classifier.DescriptionAttempts < 1 {
		errs = append(errs, "classifier attempts must be >= 1")
	}
	if c.Classifier.MaxDescriptionChars < 1 {
		errs = append(errs, "classifier.max_description_chars must be >= 1")
	}
	if c.Classifier.RequestsPerMinute < 0 {
		errs = append(errs, "classifier.requests_per_minute must be >= 0")
	}
	if c.Enrich.CheckpointEvery < 1 {
		errs = append(errs, "enrich.checkpoint_every must be >= 1")
	}
	if c.Enrich.TitlePauseSecs < 0 || c.Enrich.DescriptionPauseSecs < 0 {
		errs = append(errs, "enrich pause values must be >= 0")
	}
	if c.Store.Driver == "postgres" && c.Store.DatabaseURL == "" {
		errs = append(errs, "store.database_url is required for the postgres driver")
	}
	return errs
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
