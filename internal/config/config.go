package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	DefaultMaxCredits         = 5.0
	DefaultScoringPolicy      = "balanced"
	DefaultMinCredits         = 4.0
	DefaultLargeWaitlistSize  = 5
	DefaultMostRequestedCount = 3
)

// StatisticsConfig holds the thresholds used when reporting on an enrollment run
type StatisticsConfig struct {
	// MinCredits is the credit load below which a student counts as under-enrolled
	MinCredits float64 `yaml:"minCredits" validate:"gte=0"`

	// LargeWaitlistSize is the waitlist length at which a section is reported
	LargeWaitlistSize int `yaml:"largeWaitlistSize" validate:"gte=1"`

	// MostRequestedCount is the number of most-requested sections to report
	MostRequestedCount int `yaml:"mostRequestedCount" validate:"gte=1"`
}

// Config represents the application configuration
type Config struct {
	DatabaseURL    string `yaml:"databaseURL" validate:"required"`
	RosterSheetID  string `yaml:"rosterSheetID" validate:"required"`
	StudentsTab    string `yaml:"studentsTab" validate:"required"`
	SectionsTab    string `yaml:"sectionsTab" validate:"required"`
	PreferencesTab string `yaml:"preferencesTab" validate:"required"`
	PublishSheetID string `yaml:"publishSheetID,omitempty"`

	// MaxCredits is the credit load a student may hold concurrently
	MaxCredits float64 `yaml:"maxCredits" validate:"gt=0"`

	// ScoringPolicy selects the priority table layout
	ScoringPolicy string `yaml:"scoringPolicy" validate:"oneof=balanced jagged"`

	// RandomSeed fixes the tie-break source so runs are reproducible
	RandomSeed *int64 `yaml:"randomSeed,omitempty"`

	Statistics StatisticsConfig `yaml:"statistics"`

	GmailSender string `yaml:"gmailSender,omitempty" validate:"omitempty,email"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Load loads and validates the configuration from enrollment_config.yaml
// It looks for the config file in the current directory first, then in the user's home directory
func Load() (*Config, error) {
	return LoadWithEnv("")
}

// LoadWithEnv loads and validates the configuration with an environment suffix
// For example, env="test" will look for "enrollment_config.test.yaml"
func LoadWithEnv(env string) (*Config, error) {
	configPath, err := findConfigFile(env)
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads and validates the configuration from a specific path
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyDefaults fills in optional settings left out of the file
func applyDefaults(cfg *Config) {
	if cfg.MaxCredits == 0 {
		cfg.MaxCredits = DefaultMaxCredits
	}
	if cfg.ScoringPolicy == "" {
		cfg.ScoringPolicy = DefaultScoringPolicy
	}
	if cfg.Statistics.MinCredits == 0 {
		cfg.Statistics.MinCredits = DefaultMinCredits
	}
	if cfg.Statistics.LargeWaitlistSize == 0 {
		cfg.Statistics.LargeWaitlistSize = DefaultLargeWaitlistSize
	}
	if cfg.Statistics.MostRequestedCount == 0 {
		cfg.Statistics.MostRequestedCount = DefaultMostRequestedCount
	}
}

// Validate validates the configuration struct and checks cross-field constraints
func Validate(cfg *Config) error {
	// Run struct validation
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	// A student below the cap must be able to reach the under-enrolled threshold
	if cfg.Statistics.MinCredits > cfg.MaxCredits {
		return fmt.Errorf("statistics.minCredits (%.2f) exceeds maxCredits (%.2f)",
			cfg.Statistics.MinCredits, cfg.MaxCredits)
	}

	return nil
}

// findConfigFile searches for the config file in current directory and home directory
// If env is provided, it adds it as an extension (e.g., "enrollment_config.test.yaml")
func findConfigFile(env string) (string, error) {
	configFileName := "enrollment_config.yaml"
	if env != "" {
		configFileName = "enrollment_config." + env + ".yaml"
	}

	// Check current directory
	if _, err := os.Stat(configFileName); err == nil {
		return configFileName, nil
	}

	// Check home directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	homeConfigPath := filepath.Join(homeDir, configFileName)
	if _, err := os.Stat(homeConfigPath); err == nil {
		return homeConfigPath, nil
	}

	return "", fmt.Errorf("config file %s not found in current directory or home directory", configFileName)
}
