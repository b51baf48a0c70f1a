package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	EDGAR    EDGARConfig    `yaml:"edgar" mapstructure:"edgar"`
	Retry    RetryConfig    `yaml:"retry" mapstructure:"retry"`
	Circuit  CircuitConfig  `yaml:"circuit" mapstructure:"circuit"`
	Download DownloadConfig `yaml:"download" mapstructure:"download"`
	Batch    BatchConfig    `yaml:"batch" mapstructure:"batch"`
	Storage  StorageConfig  `yaml:"storage" mapstructure:"storage"`
	Metrics  MetricsConfig  `yaml:"metrics" mapstructure:"metrics"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// EDGARConfig configures the SEC endpoints and filing selection.
type EDGARConfig struct {
	BaseURL           string  `yaml:"base_url" mapstructure:"base_url" validate:"required,url"`
	UserAgent         string  `yaml:"user_agent" mapstructure:"user_agent" validate:"required"`
	Accept            string  `yaml:"accept" mapstructure:"accept"`
	FilingType        string  `yaml:"filing_type" mapstructure:"filing_type" validate:"required"`
	Count             int     `yaml:"count" mapstructure:"count" validate:"min=1,max=100"`
	Years             []int   `yaml:"years" mapstructure:"years" validate:"dive,min=1993,max=2100"`
	YearMatch         string  `yaml:"year_match" mapstructure:"year_match" validate:"oneof=contains exact"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second" validate:"gt=0"`
}

// RetryConfig configures the shared retry policy.
type RetryConfig struct {
	MaxAttempts        int     `yaml:"max_attempts" mapstructure:"max_attempts" validate:"min=1,max=20"`
	InitialBackoffMs   int     `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms" validate:"min=0"`
	MaxBackoffMs       int     `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms" validate:"min=0"`
	Multiplier         float64 `yaml:"multiplier" mapstructure:"multiplier" validate:"gte=1"`
	JitterFraction     float64 `yaml:"jitter_fraction" mapstructure:"jitter_fraction" validate:"gte=0,lte=1"`
	AttemptTimeoutSecs int     `yaml:"attempt_timeout_secs" mapstructure:"attempt_timeout_secs" validate:"min=1"`
}

// CircuitConfig configures the per-host circuit breakers.
type CircuitConfig struct {
	FailureThreshold int `yaml:"failure_threshold" mapstructure:"failure_threshold" validate:"min=0"`
	ResetTimeoutSecs int `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs" validate:"min=0"`
}

// DownloadConfig configures where and how attachments are saved.
type DownloadConfig struct {
	Dir                string `yaml:"dir" mapstructure:"dir" validate:"required"`
	MaxConcurrentFiles int    `yaml:"max_concurrent_files" mapstructure:"max_concurrent_files" validate:"min=1,max=16"`
	PerCompanyDirs     bool   `yaml:"per_company_dirs" mapstructure:"per_company_dirs"`
}

// BatchConfig configures batch processing.
type BatchConfig struct {
	MaxConcurrentCompanies int    `yaml:"max_concurrent_companies" mapstructure:"max_concurrent_companies"`
	CompanyTimeoutSecs     int    `yaml:"company_timeout_secs" mapstructure:"company_timeout_secs"`
	RetryList              string `yaml:"retry_list" mapstructure:"retry_list"`
}

// StorageConfig configures the optional S3-compatible mirror.
type StorageConfig struct {
	Endpoint  string `yaml:"endpoint" mapstructure:"endpoint"`
	AccessKey string `yaml:"access_key" mapstructure:"access_key"`
	SecretKey string `yaml:"secret_key" mapstructure:"secret_key"`
	Bucket    string `yaml:"bucket" mapstructure:"bucket"`
	Region    string `yaml:"region" mapstructure:"region"`
	Prefix    string `yaml:"prefix" mapstructure:"prefix"`
	UseSSL    bool   `yaml:"use_ssl" mapstructure:"use_ssl"`
}

// Enabled reports whether a mirror endpoint is configured.
func (s StorageConfig) Enabled() bool { return s.Endpoint != "" }

// MetricsConfig configures the Prometheus endpoint. Empty Addr disables it.
type MetricsConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// DefaultYears are the fiscal years the batch downloader targets when none
// are configured.
var DefaultYears = []int{2019, 2020, 2021, 2022, 2023}

// Load reads configuration from file and environment. An empty path searches
// the working directory for config.yaml.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Config file
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	// Environment
	v.SetEnvPrefix("XBRL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("download.dir", "XBRL_DOWNLOAD_DIR", "DOWNLOAD_DIR"); err != nil {
		return nil, eris.Wrap(err, "config: bind env")
	}

	// Defaults
	v.SetDefault("edgar.base_url", "https://www.sec.gov")
	v.SetDefault("edgar.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64)")
	v.SetDefault("edgar.accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	v.SetDefault("edgar.filing_type", "10-K")
	v.SetDefault("edgar.count", 40)
	v.SetDefault("edgar.years", DefaultYears)
	v.SetDefault("edgar.year_match", "contains")
	v.SetDefault("edgar.requests_per_second", 10.0)
	v.SetDefault("retry.max_attempts", 5)
	v.SetDefault("retry.initial_backoff_ms", 1000)
	v.SetDefault("retry.max_backoff_ms", 16000)
	v.SetDefault("retry.multiplier", 2.0)
	v.SetDefault("retry.jitter_fraction", 0.0)
	v.SetDefault("retry.attempt_timeout_secs", 10)
	v.SetDefault("circuit.failure_threshold", 10)
	v.SetDefault("circuit.reset_timeout_secs", 60)
	v.SetDefault("download.dir", "downloads")
	v.SetDefault("download.max_concurrent_files", 4)
	v.SetDefault("download.per_company_dirs", false)
	v.SetDefault("batch.max_concurrent_companies", 4)
	v.SetDefault("batch.company_timeout_secs", 600)
	v.SetDefault("storage.prefix", "xbrl")
	v.SetDefault("storage.use_ssl", true)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional unless a path was given)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

var validate = validator.New()

// Validate checks the configuration for the given command mode: "resolve"
// (lookups and listings), "download" (single filing), or "batch".
func (c *Config) Validate(mode string) error {
	var problems []string

	check := func(section string, s any) {
		if err := validate.Struct(s); err != nil {
			var verrs validator.ValidationErrors
			if !errors.As(err, &verrs) {
				problems = append(problems, err.Error())
				return
			}
			for _, fe := range verrs {
				problems = append(problems, fmt.Sprintf("%s.%s failed %q", section, fieldKey(fe), fe.Tag()))
			}
		}
	}

	switch mode {
	case "resolve":
		check("edgar", c.EDGAR)
		check("retry", c.Retry)
	case "download":
		check("edgar", c.EDGAR)
		check("retry", c.Retry)
		check("download", c.Download)
	case "batch":
		check("edgar", c.EDGAR)
		check("retry", c.Retry)
		check("circuit", c.Circuit)
		check("download", c.Download)
		if c.Batch.MaxConcurrentCompanies < 1 || c.Batch.MaxConcurrentCompanies > 32 {
			problems = append(problems, "batch.max_concurrent_companies must be between 1 and 32")
		}
		if c.Batch.CompanyTimeoutSecs < 0 {
			problems = append(problems, "batch.company_timeout_secs must be >= 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Storage.Enabled() && (mode == "download" || mode == "batch") {
		if c.Storage.Bucket == "" {
			problems = append(problems, "storage.bucket is required when storage.endpoint is set")
		}
		if c.Storage.AccessKey == "" || c.Storage.SecretKey == "" {
			problems = append(problems, "storage.access_key and storage.secret_key are required when storage.endpoint is set")
		}
	}

	if len(problems) > 0 {
		return eris.Errorf("config: validation failed: %s", strings.Join(problems, "; "))
	}
	return nil
}

// fieldKey snake-cases a struct field name into its config key.
func fieldKey(fe validator.FieldError) string {
	name := fe.StructField()
	var b strings.Builder
	for i, r := range name {
		if i > 0 && r >= 'A' && r <= 'Z' && (name[i-1] < 'A' || name[i-1] > 'Z') {
			b.WriteByte('_')
		}
		b.WriteRune(r)
	}
	return strings.ToLower(b.String())
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
