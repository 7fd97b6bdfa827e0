package config

import (
	"os"
	"strconv"
	"strings"

	"boxmeta/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Engine EngineConfig
	Run    RunConfig
	Report ReportConfig
	Server ServerConfig
	Log    LogConfig
}

// EngineConfig holds estimation and comparison settings
type EngineConfig struct {
	ConfidenceLevel float64
	Mode            string
	Correlation     float64
	FiveNumber      string
	MeanCoefficient float64
	SDCoefficient   float64
}

// RunConfig holds batch execution settings
type RunConfig struct {
	Workers int
}

// ReportConfig holds output settings
type ReportConfig struct {
	Format   string
	Language string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port           string
	RateLimit      float64
	Burst          int
	AllowedOrigins []string
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string
	Format string
}

var (
	reportFormats = map[string]bool{"text": true, "json": true, "yaml": true, "markdown": true, "html": true}
	fiveNumbers   = map[string]bool{"banded": true, "closed": true}
	modes         = map[string]bool{"intervention-baseline": true, "pairwise": true, "all": true, "none": true}
)

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Engine: loadEngineConfig(),
		Run:    loadRunConfig(),
		Report: loadReportConfig(),
		Server: loadServerConfig(),
		Log:    loadLogConfig(),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

// Default returns the configuration Load produces with an empty environment.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			ConfidenceLevel: 0.95,
			Mode:            "all",
			FiveNumber:      "banded",
			MeanCoefficient: 0.05,
			SDCoefficient:   0.10,
		},
		Run:    RunConfig{Workers: 4},
		Report: ReportConfig{Format: "text", Language: "en"},
		Server: ServerConfig{Port: "8080", RateLimit: 20, Burst: 40, AllowedOrigins: []string{"*"}},
		Log:    LogConfig{Level: "INFO", Format: "console"},
	}
}

func loadEngineConfig() EngineConfig {
	d := Default().Engine
	return EngineConfig{
		ConfidenceLevel: getEnvFloatOrDefault("CONFIDENCE_LEVEL", d.ConfidenceLevel),
		Mode:            strings.ToLower(getEnvOrDefault("COMPARISON_MODE", d.Mode)),
		Correlation:     getEnvFloatOrDefault("CORRELATION", d.Correlation),
		FiveNumber:      strings.ToLower(getEnvOrDefault("FIVE_NUMBER_FORMULA", d.FiveNumber)),
		MeanCoefficient: getEnvFloatOrDefault("SKEW_MEAN_COEFFICIENT", d.MeanCoefficient),
		SDCoefficient:   getEnvFloatOrDefault("SKEW_SD_COEFFICIENT", d.SDCoefficient),
	}
}

func loadRunConfig() RunConfig {
	return RunConfig{
		Workers: getEnvIntOrDefault("WORKERS", Default().Run.Workers),
	}
}

func loadReportConfig() ReportConfig {
	d := Default().Report
	return ReportConfig{
		Format:   strings.ToLower(getEnvOrDefault("REPORT_FORMAT", d.Format)),
		Language: getEnvOrDefault("REPORT_LANG", d.Language),
	}
}

func loadServerConfig() ServerConfig {
	d := Default().Server
	origins := d.AllowedOrigins
	if raw := os.Getenv("ALLOWED_ORIGINS"); raw != "" {
		origins = nil
		for _, o := range strings.Split(raw, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
	}
	return ServerConfig{
		Port:           getEnvOrDefault("PORT", d.Port),
		RateLimit:      getEnvFloatOrDefault("RATE_LIMIT", d.RateLimit),
		Burst:          getEnvIntOrDefault("RATE_BURST", d.Burst),
		AllowedOrigins: origins,
	}
}

func loadLogConfig() LogConfig {
	d := Default().Log
	return LogConfig{
		Level:  getEnvOrDefault("LOG_LEVEL", d.Level),
		Format: getEnvOrDefault("LOG_FORMAT", d.Format),
	}
}

// Validate checks a configuration assembled from env and flags.
func Validate(config *Config) error {
	return validateConfig(config)
}

func validateConfig(config *Config) error {
	cl := config.Engine.ConfidenceLevel
	if !(cl > 0 && cl < 1) {
		return errors.ConfigInvalid("CONFIDENCE_LEVEL must be in (0, 1)")
	}
	if r := config.Engine.Correlation; r < -1 || r > 1 {
		return errors.ConfigInvalid("CORRELATION must be in [-1, 1]")
	}
	if !modes[config.Engine.Mode] {
		return errors.ConfigInvalid("COMPARISON_MODE must be intervention-baseline, pairwise, all or none")
	}
	if !fiveNumbers[config.Engine.FiveNumber] {
		return errors.ConfigInvalid("FIVE_NUMBER_FORMULA must be banded or closed")
	}
	if config.Run.Workers < 1 {
		return errors.ConfigInvalid("WORKERS must be positive")
	}
	if !reportFormats[config.Report.Format] {
		return errors.ConfigInvalid("REPORT_FORMAT must be text, json, yaml, markdown or html")
	}
	if config.Server.Port == "" {
		return errors.ConfigInvalid("PORT is required")
	}
	if config.Server.RateLimit < 0 {
		return errors.ConfigInvalid("RATE_LIMIT must not be negative")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
