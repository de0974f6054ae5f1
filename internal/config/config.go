package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/existflow/weekplan/internal/logger"
	"gopkg.in/yaml.v3"
)

// Config holds the client's preferences
type Config struct {
	ServerURL      string        `yaml:"server_url" json:"server_url"`           // Persistence server base URL, empty for local-only
	DBPath         string        `yaml:"db_path" json:"db_path"`                 // Local snapshot cache
	ConfirmDelete  bool          `yaml:"confirm_delete" json:"confirm_delete"`   // Ask before destructive commands
	DefaultProject string        `yaml:"default_project" json:"default_project"` // Project used by add when none is given
	RetentionDays  int           `yaml:"retention_days" json:"retention_days"`   // Recycle-bin retention
	SweepInterval  time.Duration `yaml:"sweep_interval" json:"sweep_interval"`   // How often the bin is swept
	Sync           SyncConfig    `yaml:"sync" json:"sync"`

	// Logging configuration
	LogLevel   string `yaml:"log_level" json:"log_level"`     // Log level: DEBUG, INFO, WARN, ERROR
	LogFile    string `yaml:"log_file" json:"log_file"`       // Path to log file
	LogConsole bool   `yaml:"log_console" json:"log_console"` // Enable console logging
}

// SyncConfig tunes the outbound write queue and the periodic resync
type SyncConfig struct {
	Retries      int           `yaml:"retries" json:"retries"`
	Backoff      time.Duration `yaml:"backoff" json:"backoff"`
	PollInterval time.Duration `yaml:"poll_interval" json:"poll_interval"` // 0 disables periodic resync
	Timeout      time.Duration `yaml:"timeout" json:"timeout"`
}

// Dir returns ~/.weekplan
func Dir() string {
	home, _ := os.UserHomeDir()
	if home == "" {
		return ".weekplan"
	}
	return filepath.Join(home, ".weekplan")
}

// Path returns the default config file location
func Path() string {
	return filepath.Join(Dir(), "config.yaml")
}

// DefaultConfig returns default settings
func DefaultConfig() *Config {
	dir := Dir()
	return &Config{
		ServerURL:     getEnv("WEEKPLAN_SERVER_URL", ""),
		DBPath:        getEnv("WEEKPLAN_DB_PATH", filepath.Join(dir, "weekplan.db")),
		ConfirmDelete: true,
		RetentionDays: 30,
		SweepInterval: 24 * time.Hour,
		Sync: SyncConfig{
			Retries:      3,
			Backoff:      500 * time.Millisecond,
			PollInterval: 5 * time.Minute,
			Timeout:      10 * time.Second,
		},
		LogLevel:   getEnv("WEEKPLAN_LOG_LEVEL", "INFO"),
		LogFile:    getEnv("WEEKPLAN_LOG_FILE", filepath.Join(dir, "logs", "weekplan.log")),
		LogConsole: getEnv("WEEKPLAN_LOG_CONSOLE", "false") == "true",
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Load loads config from ~/.weekplan/config.yaml
func Load() (*Config, error) {
	return LoadFrom(Path())
}

// LoadFrom reads a config file, returning defaults when it does not exist
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// Save saves config to ~/.weekplan/config.yaml
func (c *Config) Save() error {
	return c.SaveTo(Path())
}

// SaveTo writes the config to path, creating its directory
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Retention returns how long deleted tasks are kept
func (c *Config) Retention() time.Duration {
	if c.RetentionDays <= 0 {
		return 30 * 24 * time.Hour
	}
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}

// Logger converts the logging keys into a logger.Config
func (c *Config) Logger() logger.Config {
	lc := logger.DefaultConfig()
	lc.Level = logger.ParseLevel(c.LogLevel)
	lc.FilePath = c.LogFile
	lc.Console = c.LogConsole
	return lc
}
