package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"riskfusion/adapters/classifier"
	"riskfusion/internal"
	"riskfusion/internal/errors"
)

// Placeholder policies
const (
	PolicyRandom = "random"
	PolicyFail   = "fail"
)

// Config represents the complete application configuration
type Config struct {
	Log      LogConfig
	Pipeline PipelineConfig
	Model    ModelConfig
	Runner   RunnerConfig
}

// LogConfig holds logger settings
type LogConfig struct {
	Level internal.LogLevel
}

// PipelineConfig holds ingestion and fusion settings
type PipelineConfig struct {
	LabelColumn       string
	MinTrainingRows   int
	MaxBatchRows      int // 0 means unlimited
	PlaceholderPolicy string
	PlaceholderSeed   int64 // 0 means clock seeded
}

// ModelConfig selects and parameterises the risk model family
type ModelConfig struct {
	Family   string
	Trees    int
	MaxDepth int
	Seed     int64
}

// RunnerConfig holds batch runner settings
type RunnerConfig struct {
	MaxConcurrent int
}

// Default returns the configuration used when no variables are set
func Default() *Config {
	return &Config{
		Log: LogConfig{Level: internal.LogLevelInfo},
		Pipeline: PipelineConfig{
			LabelColumn:       "outbreak_risk",
			MinTrainingRows:   2,
			MaxBatchRows:      0,
			PlaceholderPolicy: PolicyRandom,
			PlaceholderSeed:   0,
		},
		Model: ModelConfig{
			Family:   classifier.FamilyRandomForest,
			Trees:    classifier.DefaultTrees,
			MaxDepth: classifier.DefaultMaxDepth,
			Seed:     classifier.DefaultSeed,
		},
		Runner: RunnerConfig{MaxConcurrent: 4},
	}
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := Default()

	logConfig, err := loadLogConfig(config.Log)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load log configuration")
	}
	config.Log = *logConfig

	pipelineConfig, err := loadPipelineConfig(config.Pipeline)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load pipeline configuration")
	}
	config.Pipeline = *pipelineConfig

	modelConfig, err := loadModelConfig(config.Model)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load model configuration")
	}
	config.Model = *modelConfig

	runnerConfig, err := loadRunnerConfig(config.Runner)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load runner configuration")
	}
	config.Runner = *runnerConfig

	if err := Validate(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadLogConfig(defaults LogConfig) (*LogConfig, error) {
	value := os.Getenv("LOG_LEVEL")
	if value == "" {
		return &defaults, nil
	}
	level, ok := internal.ParseLogLevel(value)
	if !ok {
		return nil, errors.ConfigInvalid(fmt.Sprintf("LOG_LEVEL: unknown level %q", value))
	}
	return &LogConfig{Level: level}, nil
}

func loadPipelineConfig(defaults PipelineConfig) (*PipelineConfig, error) {
	minRows, err := getEnvIntOrDefault("RISK_MIN_TRAINING_ROWS", defaults.MinTrainingRows)
	if err != nil {
		return nil, err
	}
	maxRows, err := getEnvIntOrDefault("RISK_MAX_BATCH_ROWS", defaults.MaxBatchRows)
	if err != nil {
		return nil, err
	}
	seed, err := getEnvInt64OrDefault("RISK_PLACEHOLDER_SEED", defaults.PlaceholderSeed)
	if err != nil {
		return nil, err
	}

	return &PipelineConfig{
		LabelColumn:       strings.TrimSpace(getEnvOrDefault("RISK_LABEL_COLUMN", defaults.LabelColumn)),
		MinTrainingRows:   minRows,
		MaxBatchRows:      maxRows,
		PlaceholderPolicy: strings.ToLower(getEnvOrDefault("RISK_PLACEHOLDER_POLICY", defaults.PlaceholderPolicy)),
		PlaceholderSeed:   seed,
	}, nil
}

func loadModelConfig(defaults ModelConfig) (*ModelConfig, error) {
	trees, err := getEnvIntOrDefault("RISK_FOREST_TREES", defaults.Trees)
	if err != nil {
		return nil, err
	}
	depth, err := getEnvIntOrDefault("RISK_FOREST_MAX_DEPTH", defaults.MaxDepth)
	if err != nil {
		return nil, err
	}
	seed, err := getEnvInt64OrDefault("RISK_MODEL_SEED", defaults.Seed)
	if err != nil {
		return nil, err
	}

	return &ModelConfig{
		Family:   strings.ToLower(getEnvOrDefault("RISK_MODEL_FAMILY", defaults.Family)),
		Trees:    trees,
		MaxDepth: depth,
		Seed:     seed,
	}, nil
}

func loadRunnerConfig(defaults RunnerConfig) (*RunnerConfig, error) {
	concurrent, err := getEnvIntOrDefault("RISK_MAX_CONCURRENT", defaults.MaxConcurrent)
	if err != nil {
		return nil, err
	}
	return &RunnerConfig{MaxConcurrent: concurrent}, nil
}

// Validate checks a configuration. Commands call it again after applying
// flag overrides.
func Validate(config *Config) error {
	if config.Pipeline.LabelColumn == "" {
		return errors.ConfigInvalid("label column is required")
	}
	if config.Pipeline.MinTrainingRows < 1 {
		return errors.ConfigInvalid("minimum training rows must be at least 1")
	}
	if config.Pipeline.MaxBatchRows < 0 {
		return errors.ConfigInvalid("max batch rows must not be negative")
	}
	switch config.Pipeline.PlaceholderPolicy {
	case PolicyRandom, PolicyFail:
	default:
		return errors.ConfigInvalid(fmt.Sprintf("placeholder policy must be %q or %q, got %q",
			PolicyRandom, PolicyFail, config.Pipeline.PlaceholderPolicy))
	}
	if !slices.Contains(classifier.Families(), config.Model.Family) {
		return errors.ConfigInvalid(fmt.Sprintf("unsupported model family %q (supported: %s)",
			config.Model.Family, strings.Join(classifier.Families(), ", ")))
	}
	if config.Model.Trees < 1 {
		return errors.ConfigInvalid("forest tree count must be positive")
	}
	if config.Model.MaxDepth < 1 {
		return errors.ConfigInvalid("forest max depth must be positive")
	}
	if config.Runner.MaxConcurrent < 1 {
		return errors.ConfigInvalid("max concurrent batches must be positive")
	}
	return nil
}

// Helper functions for environment variable parsing. A set but unparsable
// value is a CONFIG_INVALID error rather than a silent default.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	intValue, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, errors.ConfigInvalid(fmt.Sprintf("%s: %q is not an integer", key, value))
	}
	return intValue, nil
}

func getEnvInt64OrDefault(key string, defaultValue int64) (int64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0, errors.ConfigInvalid(fmt.Sprintf("%s: %q is not an integer", key, value))
	}
	return intValue, nil
}
