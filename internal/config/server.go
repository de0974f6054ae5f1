package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ServerConfig is the persistence server's configuration. Values come from
// config.yaml, then .env, then the process environment (highest priority).
type ServerConfig struct {
	Port          int         `mapstructure:"port"`
	DatabaseURL   string      `mapstructure:"database_url"`
	Store         string      `mapstructure:"store"` // postgres or memory
	LogLevel      string      `mapstructure:"log_level"`
	RetentionDays int         `mapstructure:"retention_days"`
	Drive         DriveConfig `mapstructure:"drive"`
}

// DriveConfig holds the Google Drive scanner settings
type DriveConfig struct {
	CredentialsPath string `mapstructure:"credentials_path"` // service account or OAuth client JSON
	TokenPath       string `mapstructure:"token_path"`       // OAuth token JSON, unused for service accounts
	SharedDriveID   string `mapstructure:"shared_drive_id"`
	LookbackHours   int    `mapstructure:"lookback_hours"`
}

// LoadServer reads the server configuration. envFiles are tried in order and
// the first one that loads wins; a missing file is not an error.
func LoadServer(configDir string, envFiles ...string) (*ServerConfig, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, path := range envFiles {
		if err := godotenv.Load(path); err == nil {
			break
		}
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if configDir != "" {
		v.AddConfigPath(configDir)
	}
	v.AddConfigPath(".")

	v.SetDefault("port", getEnvInt("PORT", 8080))
	v.SetDefault("database_url", getEnv("DATABASE_URL", "postgres://localhost:5432/weekplan?sslmode=disable"))
	v.SetDefault("store", getEnv("STORE", "postgres"))
	v.SetDefault("log_level", getEnv("LOG_LEVEL", "INFO"))
	v.SetDefault("retention_days", getEnvInt("RETENTION_DAYS", 30))
	v.SetDefault("drive.credentials_path", getEnv("GOOGLE_CREDENTIALS_PATH", ""))
	v.SetDefault("drive.token_path", getEnv("GOOGLE_TOKEN_PATH", ""))
	v.SetDefault("drive.shared_drive_id", getEnv("GOOGLE_SHARED_DRIVE_ID", ""))
	v.SetDefault("drive.lookback_hours", getEnvInt("GDRIVE_LOOKBACK_HOURS", 36))

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg ServerConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if cfg.Store != "postgres" && cfg.Store != "memory" {
		return nil, fmt.Errorf("unknown store %q (want postgres or memory)", cfg.Store)
	}
	return &cfg, nil
}

// Addr returns the listen address
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
