package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"recognition-pipeline/internal/model"
	"recognition-pipeline/internal/pipeline"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Comparison ComparisonConfig `mapstructure:"comparison"`
	Upload     UploadConfig     `mapstructure:"upload"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type ClassifierConfig struct {
	DefaultCategory          string `mapstructure:"default_category"`
	IncludeSubcategoryTokens bool   `mapstructure:"include_subcategory_tokens"`
	ResolveSubcategories     bool   `mapstructure:"resolve_subcategories"`
	Workers                  int    `mapstructure:"workers"`
	ChunkSize                int    `mapstructure:"chunk_size"`
}

type ComparisonConfig struct {
	CategoryMax  float64 `mapstructure:"category_max"`
	CandidateMax float64 `mapstructure:"candidate_max"`
	MalformedMax float64 `mapstructure:"malformed_max"`
	BiasMax      float64 `mapstructure:"bias_max"`
}

type UploadConfig struct {
	Transformations []string      `mapstructure:"transformations"`
	MaxRetries      int           `mapstructure:"max_retries"`
	RetryDelay      time.Duration `mapstructure:"retry_delay"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// EnvPrefix prefixes every environment override, e.g. RECOGNITION_SERVER_ADDR.
const EnvPrefix = "RECOGNITION"

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("database.driver", "sqlite3")
	v.SetDefault("database.dsn", "recognition.db")
	v.SetDefault("classifier.default_category", "")
	v.SetDefault("classifier.include_subcategory_tokens", true)
	v.SetDefault("classifier.resolve_subcategories", false)
	v.SetDefault("classifier.workers", 4)
	v.SetDefault("classifier.chunk_size", 100)
	v.SetDefault("comparison.category_max", 25)
	v.SetDefault("comparison.candidate_max", 50)
	v.SetDefault("comparison.malformed_max", 100)
	v.SetDefault("comparison.bias_max", 100)
	v.SetDefault("upload.transformations", []string{"trimStrings"})
	v.SetDefault("upload.max_retries", 3)
	v.SetDefault("upload.retry_delay", "100ms")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.json", false)
}

// LoadConfig reads defaults, then the optional YAML file at path, then
// RECOGNITION_* environment variables. DATABASE_URL selects postgres.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// Enable environment variable support
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Check for DATABASE_URL environment variable
	_ = v.BindEnv("database_url", "DATABASE_URL")
	if dbURL := v.GetString("database_url"); dbURL != "" {
		config.Database.Driver = "postgres"
		config.Database.DSN = dbURL
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks values that defaults cannot fix.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite3", "sqlite", "postgres":
	default:
		return fmt.Errorf("invalid database.driver %q: expected sqlite3, sqlite or postgres", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("invalid database.dsn: must not be empty")
	}
	if c.Classifier.Workers < 1 {
		return fmt.Errorf("invalid classifier.workers %d: must be at least 1", c.Classifier.Workers)
	}
	if c.Classifier.ChunkSize < 1 {
		return fmt.Errorf("invalid classifier.chunk_size %d: must be at least 1", c.Classifier.ChunkSize)
	}
	if c.Upload.MaxRetries < 0 {
		return fmt.Errorf("invalid upload.max_retries %d: must not be negative", c.Upload.MaxRetries)
	}
	for name, max := range map[string]float64{
		"comparison.category_max":  c.Comparison.CategoryMax,
		"comparison.candidate_max": c.Comparison.CandidateMax,
		"comparison.malformed_max": c.Comparison.MalformedMax,
		"comparison.bias_max":      c.Comparison.BiasMax,
	} {
		if max <= 0 {
			return fmt.Errorf("invalid %s %v: must be positive", name, max)
		}
	}
	return nil
}

// ServiceOptions converts the configuration into pipeline service options.
func (c *Config) ServiceOptions() pipeline.Options {
	retry := pipeline.DefaultRetryConfig
	retry.MaxAttempts = c.Upload.MaxRetries + 1
	if c.Upload.RetryDelay > 0 {
		retry.InitialDelay = c.Upload.RetryDelay
	}
	return pipeline.Options{
		DefaultCategory:          c.Classifier.DefaultCategory,
		IncludeSubcategoryTokens: c.Classifier.IncludeSubcategoryTokens,
		ResolveSubcategories:     c.Classifier.ResolveSubcategories,
		Batch:                    model.BatchOptions{Workers: c.Classifier.Workers, ChunkSize: c.Classifier.ChunkSize},
		Transformations:          c.Upload.Transformations,
		Retry:                    retry,
		Radar: pipeline.RadarLimits{
			CategoryMax:  c.Comparison.CategoryMax,
			CandidateMax: c.Comparison.CandidateMax,
			MalformedMax: c.Comparison.MalformedMax,
			BiasMax:      c.Comparison.BiasMax,
		},
	}
}
