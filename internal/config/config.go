package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server" envconfig:"SERVER"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Paths    PathsConfig    `yaml:"paths" envconfig:"PATHS"`
	Coverage CoverageConfig `yaml:"coverage" envconfig:"COVERAGE"`
	Forecast ForecastConfig `yaml:"forecast" envconfig:"FORECAST"`
}

// ServerConfig contains HTTP server configuration for the results API
type ServerConfig struct {
	Port            int             `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration   `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration   `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration   `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	RateLimit       RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS"`
	Burst   int     `yaml:"burst" envconfig:"BURST"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL"`
	Format   string `yaml:"format" envconfig:"FORMAT"`
	Output   string `yaml:"output" envconfig:"OUTPUT"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	DataDir   string `yaml:"data_dir" envconfig:"DATA_DIR"`
	OutputDir string `yaml:"output_dir" envconfig:"OUTPUT_DIR"`
	LogsDir   string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
}

// CoverageConfig describes where the logbook coverage reference list comes
// from. File takes precedence over URL when both are set.
type CoverageConfig struct {
	URL  string `yaml:"url" envconfig:"URL"`
	File string `yaml:"file" envconfig:"FILE"`
}

// ForecastConfig contains the trend-model toggles. Enumerated string fields
// rather than booleans so call sites and env vars stay self-documenting.
type ForecastConfig struct {
	// Backend selects the trend model: "sarima" or "linear".
	Backend string `yaml:"backend" envconfig:"BACKEND"`
	// Granularity of the forecast axis: "weekly", "monthly" or "daily".
	Granularity string `yaml:"granularity" envconfig:"GRANULARITY"`
	// Training selects per-gap refitting ("per-gap") or one global model
	// re-predicted at each gap's axis ("global").
	Training string `yaml:"training" envconfig:"TRAINING"`
	// Growth is "linear" or "logistic"; logistic bounds predictions into
	// [0, historical maximum].
	Growth string `yaml:"growth" envconfig:"GROWTH"`
	// Parallel runs independent per-gap fits concurrently.
	Parallel bool `yaml:"parallel" envconfig:"PARALLEL"`
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     100,
				Burst:   50,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/app.log",
		},
		Paths: PathsConfig{
			DataDir:   "data/source-data",
			OutputDir: "data/output",
			LogsDir:   "logs",
		},
		Coverage: CoverageConfig{
			URL: "https://raw.githubusercontent.com/rlskoeser/shxco-missingdata-specreading/main/data/logbook-dates.json",
		},
		Forecast: ForecastConfig{
			Backend:     "sarima",
			Granularity: "weekly",
			Training:    "per-gap",
			Growth:      "linear",
		},
	}
}

// Load builds the configuration in three layers: defaults, then the
// optional YAML file, then environment variables. Later layers win.
func Load() (*Config, error) {
	cfg := Default()

	configFile := configFilePath()
	if _, err := os.Stat(configFile); err == nil {
		data, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := envconfig.Process("LL", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// configFilePath returns the config file location, overridable via LL_CONFIG.
func configFilePath() string {
	if path := os.Getenv("LL_CONFIG"); path != "" {
		return path
	}
	return "lendlib.yaml"
}

// validate checks configuration values for consistency
func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.Forecast.Backend {
	case "sarima", "linear":
	default:
		return fmt.Errorf("invalid forecast backend: %q", c.Forecast.Backend)
	}

	switch c.Forecast.Granularity {
	case "weekly", "monthly", "daily":
	default:
		return fmt.Errorf("invalid forecast granularity: %q", c.Forecast.Granularity)
	}

	switch c.Forecast.Training {
	case "per-gap", "global":
	default:
		return fmt.Errorf("invalid forecast training mode: %q", c.Forecast.Training)
	}

	switch c.Forecast.Growth {
	case "linear", "logistic":
	default:
		return fmt.Errorf("invalid forecast growth mode: %q", c.Forecast.Growth)
	}

	if c.Coverage.URL == "" && c.Coverage.File == "" {
		return fmt.Errorf("coverage source required: set coverage.url or coverage.file")
	}

	return nil
}

// EnsureDirectories creates the output and log directories if missing
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, c.Paths.LogsDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// LogPath returns the path of a log file inside the configured logs directory
func (c *Config) LogPath(name string) string {
	return filepath.Join(c.Paths.LogsDir, name)
}
