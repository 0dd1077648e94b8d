// Package config provides configuration loading and validation for the news pipeline.
// Values come from defaults, an optional YAML/JSON file and the environment, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides, e.g. NEWSPIPE_SINK_KIND.
const EnvPrefix = "NEWSPIPE"

var (
	// ErrSinkConfigMissing is returned when the selected sink lacks its destination settings.
	ErrSinkConfigMissing = errors.New("sink configuration missing")
	// ErrSourceConfigMissing is returned when the selected source lacks its settings.
	ErrSourceConfigMissing = errors.New("source configuration missing")
)

// Config is the complete pipeline configuration.
type Config struct {
	Source    SourceConfig    `mapstructure:"source"`
	Extract   ExtractConfig   `mapstructure:"extract"`
	Sentiment SentimentConfig `mapstructure:"sentiment"`
	Dedup     DedupConfig     `mapstructure:"dedup"`
	Sink      SinkConfig      `mapstructure:"sink"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Server    ServerConfig    `mapstructure:"server"`
}

// SourceConfig selects and configures the article source.
type SourceConfig struct {
	Kind     string   `mapstructure:"kind"      validate:"oneof=newsapi rss file"`
	Topics   []string `mapstructure:"topics"`
	Days     int      `mapstructure:"days"      validate:"min=1"`
	Language string   `mapstructure:"language"`
	SortBy   string   `mapstructure:"sort_by"`
	Page     int      `mapstructure:"page"      validate:"min=1"`
	APIKey   string   `mapstructure:"api_key"`
	BaseURL  string   `mapstructure:"base_url"  validate:"omitempty,url"`
	Feeds    []string `mapstructure:"feeds"     validate:"dive,url"`
	File     string   `mapstructure:"file"`
}

// ExtractConfig configures the content extractor.
type ExtractConfig struct {
	Timeout        time.Duration `mapstructure:"timeout"         validate:"gt=0"`
	MaxLength      int           `mapstructure:"max_length"      validate:"min=1"`
	Concurrency    int           `mapstructure:"concurrency"     validate:"min=1,max=64"`
	UseBrowser     bool          `mapstructure:"use_browser"`
	BrowserTimeout time.Duration `mapstructure:"browser_timeout" validate:"gt=0"`
}

// SentimentConfig configures the sentiment scorer and its classifier backend.
type SentimentConfig struct {
	Backend   string `mapstructure:"backend"    validate:"oneof=gemini lexicon"`
	BatchSize int    `mapstructure:"batch_size" validate:"min=1"`
	MaxChars  int    `mapstructure:"max_chars"  validate:"min=1"`
	APIKey    string `mapstructure:"api_key"`
	Model     string `mapstructure:"model"`
}

// DedupConfig selects the deduplication key.
type DedupConfig struct {
	Key string `mapstructure:"key" validate:"oneof=description url"`
}

// SinkConfig selects and configures the destination.
type SinkConfig struct {
	Kind            string   `mapstructure:"kind"             validate:"oneof=none jsonl postgres bigquery kafka"`
	Mode            string   `mapstructure:"mode"             validate:"oneof=fail replace append"`
	Path            string   `mapstructure:"path"`
	Table           string   `mapstructure:"table"`
	ProjectID       string   `mapstructure:"project_id"`
	DatasetID       string   `mapstructure:"dataset_id"`
	TableID         string   `mapstructure:"table_id"`
	CredentialsFile string   `mapstructure:"credentials_file"`
	Brokers         []string `mapstructure:"brokers"`
	Topic           string   `mapstructure:"topic"`
}

// DatabaseConfig holds the PostgreSQL connection used by the postgres sink and the run ledger.
type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=console json"`
	File   string `mapstructure:"file"`
}

// ServerConfig holds HTTP trigger settings.
type ServerConfig struct {
	Port               int    `mapstructure:"port"                 validate:"min=1,max=65535"`
	JWTSecret          string `mapstructure:"jwt_secret"`
	JWTExpirationHours int    `mapstructure:"jwt_expiration_hours" validate:"min=1"`
}

// legacyEnv maps config keys to the environment names the pipeline has always honoured.
var legacyEnv = map[string]string{
	"source.api_key":        "NEWS_API",
	"sentiment.api_key":     "GEMINI_API_KEY",
	"database.url":          "DATABASE_URL",
	"sink.project_id":       "project_id",
	"sink.dataset_id":       "dataset_id",
	"sink.table_id":         "table_id",
	"sink.credentials_file": "GOOGLE_APPLICATION_CREDENTIALS",
	"sink.mode":             "LOAD_METHOD",
	"server.jwt_secret":     "JWT_SECRET",
}

// Load reads configuration from the given file (optional; empty means defaults and
// environment only). The result is not validated; call Validate.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, legacy := range legacyEnv {
		envKey := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, envKey, legacy); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Default returns the built-in defaults with environment overrides applied.
func Default() (*Config, error) {
	return Load("")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("source.kind", "newsapi")
	v.SetDefault("source.topics", []string{"GenAI", "AI", "Technology"})
	v.SetDefault("source.days", 7)
	v.SetDefault("source.language", "en")
	v.SetDefault("source.sort_by", "relevancy")
	v.SetDefault("source.page", 1)
	v.SetDefault("source.api_key", "")
	v.SetDefault("source.base_url", "https://newsapi.org")
	v.SetDefault("source.feeds", []string{})
	v.SetDefault("source.file", "")

	v.SetDefault("extract.timeout", 15*time.Second)
	v.SetDefault("extract.max_length", 1000)
	v.SetDefault("extract.concurrency", 1)
	v.SetDefault("extract.use_browser", false)
	v.SetDefault("extract.browser_timeout", 30*time.Second)

	v.SetDefault("sentiment.backend", "lexicon")
	v.SetDefault("sentiment.batch_size", 32)
	v.SetDefault("sentiment.max_chars", 512)
	v.SetDefault("sentiment.api_key", "")
	v.SetDefault("sentiment.model", "")

	v.SetDefault("dedup.key", "description")

	v.SetDefault("sink.kind", "none")
	v.SetDefault("sink.mode", "append")
	v.SetDefault("sink.path", "")
	v.SetDefault("sink.table", "news_articles")
	v.SetDefault("sink.project_id", "")
	v.SetDefault("sink.dataset_id", "")
	v.SetDefault("sink.table_id", "")
	v.SetDefault("sink.credentials_file", "")
	v.SetDefault("sink.brokers", []string{})
	v.SetDefault("sink.topic", "news-articles")

	v.SetDefault("database.url", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.file", "")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.jwt_secret", "")
	v.SetDefault("server.jwt_expiration_hours", 24)
}

// Validate checks field ranges and that the selected source and sink are fully configured.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	switch c.Source.Kind {
	case "newsapi":
		if c.Source.APIKey == "" {
			return fmt.Errorf("%w: newsapi requires source.api_key (or NEWS_API)", ErrSourceConfigMissing)
		}
		if len(c.Source.Topics) == 0 {
			return fmt.Errorf("%w: newsapi requires at least one topic", ErrSourceConfigMissing)
		}
	case "rss":
		if len(c.Source.Feeds) == 0 {
			return fmt.Errorf("%w: rss requires source.feeds", ErrSourceConfigMissing)
		}
	case "file":
		if c.Source.File == "" {
			return fmt.Errorf("%w: file source requires source.file", ErrSourceConfigMissing)
		}
	}

	return c.ValidateSink()
}

// ValidateSink checks only the sink settings.
func (c *Config) ValidateSink() error {
	var missing []string
	switch c.Sink.Kind {
	case "jsonl":
		if c.Sink.Path == "" {
			missing = append(missing, "sink.path")
		}
	case "postgres":
		if c.Database.URL == "" {
			missing = append(missing, "database.url")
		}
		if c.Sink.Table == "" {
			missing = append(missing, "sink.table")
		}
	case "bigquery":
		if c.Sink.ProjectID == "" {
			missing = append(missing, "sink.project_id")
		}
		if c.Sink.DatasetID == "" {
			missing = append(missing, "sink.dataset_id")
		}
		if c.Sink.TableID == "" {
			missing = append(missing, "sink.table_id")
		}
	case "kafka":
		if len(c.Sink.Brokers) == 0 {
			missing = append(missing, "sink.brokers")
		}
		if c.Sink.Topic == "" {
			missing = append(missing, "sink.topic")
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: %s sink requires %s", ErrSinkConfigMissing, c.Sink.Kind, strings.Join(missing, ", "))
	}
	return nil
}
