package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
	Geocode    GeocodeConfig    `yaml:"geocode" mapstructure:"geocode"`
	OCR        OCRConfig        `yaml:"ocr" mapstructure:"ocr"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	DSS        DSSConfig        `yaml:"dss" mapstructure:"dss"`
	Ingest     IngestConfig     `yaml:"ingest" mapstructure:"ingest"`
	Monitoring MonitoringConfig `yaml:"monitoring" mapstructure:"monitoring"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	MaxUploadMB    int      `yaml:"max_upload_mb" mapstructure:"max_upload_mb"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// GeocodeConfig configures address resolution for claims without valid
// coordinates.
type GeocodeConfig struct {
	NominatimURL     string  `yaml:"nominatim_url" mapstructure:"nominatim_url"`
	UserAgent        string  `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs      int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RateLimit        float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	GoogleKey        string  `yaml:"google_api_key" mapstructure:"google_api_key"`
	CacheTTLMinutes  int     `yaml:"cache_ttl_minutes" mapstructure:"cache_ttl_minutes"`
	FailureThreshold int     `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutSecs int     `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs"`
}

// OCRConfig configures document text extraction.
type OCRConfig struct {
	Provider      string `yaml:"provider" mapstructure:"provider"`
	PdfToTextPath string `yaml:"pdftotext_path" mapstructure:"pdftotext_path"`
	TesseractPath string `yaml:"tesseract_path" mapstructure:"tesseract_path"`
	TesseractLang string `yaml:"tesseract_lang" mapstructure:"tesseract_lang"`
	MistralKey    string `yaml:"mistral_api_key" mapstructure:"mistral_api_key"`
	MistralModel  string `yaml:"mistral_model" mapstructure:"mistral_model"`
}

// AnthropicConfig holds settings for the optional LLM query parser and
// field cleaner. Both stay off unless Enabled is set and a key is present.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
	Enabled   bool   `yaml:"enabled" mapstructure:"enabled"`
}

// LLMEnabled reports whether the LLM helpers should be constructed.
func (a AnthropicConfig) LLMEnabled() bool {
	return a.Enabled && a.Key != ""
}

// DSSConfig configures the decision-support query path.
type DSSConfig struct {
	States         []string `yaml:"states" mapstructure:"states"`
	DefaultLandUse string   `yaml:"default_land_use" mapstructure:"default_land_use"`
	SchemeSeedFile string   `yaml:"scheme_seed_file" mapstructure:"scheme_seed_file"`
	ResultLimit    int      `yaml:"result_limit" mapstructure:"result_limit"`
}

// IngestConfig configures batch document intake.
type IngestConfig struct {
	Concurrency    int `yaml:"concurrency" mapstructure:"concurrency"`
	FTPTimeoutSecs int `yaml:"ftp_timeout_secs" mapstructure:"ftp_timeout_secs"`
}

// MonitoringConfig configures the background health checks and alert
// webhook.
type MonitoringConfig struct {
	WebhookURL              string  `yaml:"webhook_url" mapstructure:"webhook_url"`
	CheckIntervalSecs       int     `yaml:"check_interval_secs" mapstructure:"check_interval_secs"`
	LookbackWindowHours     int     `yaml:"lookback_window_hours" mapstructure:"lookback_window_hours"`
	ZeroResultRateThreshold float64 `yaml:"zero_result_rate_threshold" mapstructure:"zero_result_rate_threshold"`
	PendingBacklogThreshold int     `yaml:"pending_backlog_threshold" mapstructure:"pending_backlog_threshold"`
	MinGeocodeCoverage      float64 `yaml:"min_geocode_coverage" mapstructure:"min_geocode_coverage"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("FRA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.max_upload_mb", 20)
	v.SetDefault("geocode.nominatim_url", "https://nominatim.openstreetmap.org/search")
	v.SetDefault("geocode.user_agent", "FRA-System/1.0")
	v.SetDefault("geocode.timeout_secs", 10)
	v.SetDefault("geocode.rate_limit", 1.0)
	v.SetDefault("geocode.cache_ttl_minutes", 24*60)
	v.SetDefault("geocode.failure_threshold", 5)
	v.SetDefault("geocode.reset_timeout_secs", 60)
	v.SetDefault("ocr.provider", "local")
	v.SetDefault("ocr.pdftotext_path", "pdftotext")
	v.SetDefault("ocr.tesseract_path", "tesseract")
	v.SetDefault("ocr.tesseract_lang", "eng")
	v.SetDefault("ocr.mistral_model", "mistral-ocr-latest")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 1024)
	v.SetDefault("anthropic.enabled", false)
	v.SetDefault("dss.states", []string{"jharkhand", "odisha", "chhattisgarh"})
	v.SetDefault("dss.default_land_use", "Homestead")
	v.SetDefault("ingest.concurrency", 4)
	v.SetDefault("ingest.ftp_timeout_secs", 30)
	v.SetDefault("monitoring.check_interval_secs", 300)
	v.SetDefault("monitoring.lookback_window_hours", 24)
	v.SetDefault("monitoring.zero_result_rate_threshold", 0.5)
	v.SetDefault("monitoring.pending_backlog_threshold", 500)
	v.SetDefault("monitoring.min_geocode_coverage", 0.6)

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

// Validate checks the settings a command needs. mode is one of serve,
// migrate, ingest, check, schemes, statewise, atlas or status.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch c.Store.Driver {
	case "postgres":
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required")
		}
	case "sqlite":
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required (sqlite file path)")
		}
	default:
		errs = append(errs, "store.driver must be postgres or sqlite")
	}

	switch mode {
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be > 0 and <= 65535")
		}
		errs = append(errs, c.validateIntake()...)
	case "ingest":
		errs = append(errs, c.validateIntake()...)
		if c.Ingest.Concurrency < 1 || c.Ingest.Concurrency > 32 {
			errs = append(errs, "ingest.concurrency must be between 1 and 32")
		}
	case "migrate", "check", "schemes", "statewise", "atlas", "status":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Monitoring.ZeroResultRateThreshold < 0 || c.Monitoring.ZeroResultRateThreshold > 1 {
		errs = append(errs, "monitoring.zero_result_rate_threshold must be between 0 and 1")
	}
	if c.Monitoring.MinGeocodeCoverage < 0 || c.Monitoring.MinGeocodeCoverage > 1 {
		errs = append(errs, "monitoring.min_geocode_coverage must be between 0 and 1")
	}
	if c.DSS.ResultLimit < 0 {
		errs = append(errs, "dss.result_limit must be >= 0")
	}
	if c.Anthropic.Enabled && c.Anthropic.Key == "" {
		errs = append(errs, "anthropic.key is required when anthropic.enabled is set")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateIntake() []string {
	var errs []string
	switch c.OCR.Provider {
	case "local":
	case "mistral":
		if c.OCR.MistralKey == "" {
			errs = append(errs, "ocr.mistral_api_key is required for the mistral provider")
		}
	default:
		errs = append(errs, "ocr.provider must be local or mistral")
	}
	if c.Geocode.TimeoutSecs <= 0 {
		errs = append(errs, "geocode.timeout_secs must be > 0")
	}
	if c.Geocode.RateLimit <= 0 {
		errs = append(errs, "geocode.rate_limit must be > 0")
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
