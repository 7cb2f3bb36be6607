package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"infodyn/internal/errors"

	"github.com/go-playground/validator/v10"
	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"
)

const (
	DefaultEstimator          = "gaussian"
	DefaultK                  = 1
	DefaultTau                = 1
	DefaultMaxConditionNumber = 1e12
	DefaultKSGK               = 4
	DefaultPermutations       = 1000
	DefaultSeed               = 42
	DefaultAlpha              = 0.05
	DefaultWorkers            = 4
)

// Config represents the complete application configuration
type Config struct {
	Analysis AnalysisConfig `yaml:"analysis"`
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
}

// AnalysisConfig holds the estimator and significance settings
type AnalysisConfig struct {
	Estimator          string  `yaml:"estimator" validate:"oneof=gaussian kraskov ksg"`
	K                  int     `yaml:"k" validate:"min=1"`
	Tau                int     `yaml:"tau" validate:"min=1"`
	BiasCorrection     bool    `yaml:"bias_correction"`
	MaxConditionNumber float64 `yaml:"max_condition_number" validate:"gt=1"`
	KSGK               int     `yaml:"ksg_k" validate:"min=1"`
	Normalise          bool    `yaml:"normalise"`
	Permutations       int     `yaml:"permutations" validate:"min=0,max=100000"`
	Seed               int64   `yaml:"seed"`
	Alpha              float64 `yaml:"alpha" validate:"gt=0,lt=1"`
	Workers            int     `yaml:"workers" validate:"min=1,max=256"`
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string `yaml:"port" validate:"required,numeric"`
	GinMode string `yaml:"gin_mode" validate:"oneof=debug release test"`
}

// DatabaseConfig holds database connection settings. An empty URL selects
// the in-memory result store.
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string `yaml:"level" validate:"oneof=ERROR WARN INFO DEBUG TRACE"`
}

// Default returns the configuration used when nothing is overridden
func Default() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			Estimator:          DefaultEstimator,
			K:                  DefaultK,
			Tau:                DefaultTau,
			MaxConditionNumber: DefaultMaxConditionNumber,
			KSGK:               DefaultKSGK,
			Normalise:          true,
			Permutations:       DefaultPermutations,
			Seed:               DefaultSeed,
			Alpha:              DefaultAlpha,
			Workers:            DefaultWorkers,
		},
		Server: ServerConfig{
			Port:    "8080",
			GinMode: "debug",
		},
		Log: LogConfig{
			Level: "INFO",
		},
	}
}

// Load builds the configuration from defaults, then the optional YAML file
// at path, then environment variables, and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.WithCode(errors.CodeConfigInvalid, fmt.Errorf("read %s: %w", path, err))
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return errors.WithCode(errors.CodeConfigInvalid, fmt.Errorf("parse %s: %w", path, err))
	}
	return nil
}

func (c *Config) applyEnv() {
	a := &c.Analysis
	a.Estimator = strings.ToLower(getEnvOrDefault("AIS_ESTIMATOR", a.Estimator))
	a.K = getEnvIntOrDefault("AIS_K", a.K)
	a.Tau = getEnvIntOrDefault("AIS_TAU", a.Tau)
	a.BiasCorrection = getEnvBoolOrDefault("AIS_BIAS_CORRECTION", a.BiasCorrection)
	a.MaxConditionNumber = getEnvFloatOrDefault("AIS_MAX_CONDITION", a.MaxConditionNumber)
	a.KSGK = getEnvIntOrDefault("AIS_KSG_K", a.KSGK)
	a.Normalise = getEnvBoolOrDefault("AIS_NORMALISE", a.Normalise)
	a.Permutations = getEnvIntOrDefault("AIS_PERMUTATIONS", a.Permutations)
	a.Seed = int64(getEnvIntOrDefault("AIS_SEED", int(a.Seed)))
	a.Alpha = getEnvFloatOrDefault("AIS_ALPHA", a.Alpha)
	a.Workers = getEnvIntOrDefault("AIS_WORKERS", a.Workers)

	c.Server.Port = getEnvOrDefault("PORT", c.Server.Port)
	c.Server.GinMode = getEnvOrDefault("GIN_MODE", c.Server.GinMode)
	c.Database.URL = getEnvOrDefault("DATABASE_URL", c.Database.URL)
	c.Log.Level = strings.ToUpper(getEnvOrDefault("LOG_LEVEL", c.Log.Level))
}

var validate = validator.New()

// Validate checks every field against its constraints
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return errors.ConfigInvalid(fmt.Sprintf("%s fails %q (got %v)", fe.Namespace(), fe.Tag(), fe.Value()))
		}
		return errors.ConfigInvalid(err.Error())
	}
	return nil
}

// DiffFromDefault describes every setting that differs from Default, empty
// when nothing was overridden.
func (c *Config) DiffFromDefault() string {
	return cmp.Diff(Default(), c)
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

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
