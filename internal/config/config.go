package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application. Cloud sync is
// optional: without Firebase credentials the server runs local-only and
// sign-in requests are rejected.
type Config struct {
	Port    string `mapstructure:"PORT"`
	GinMode string `mapstructure:"GIN_MODE"`

	ClientURL string `mapstructure:"CLIENT_URL"`

	// LocalDBPath is the SQLite file backing anonymous sessions.
	LocalDBPath string `mapstructure:"LOCAL_DB_PATH"`

	FirebaseProjectID                string `mapstructure:"FIREBASE_PROJECT_ID"`
	GoogleApplicationCredentials     string `mapstructure:"GOOGLE_APPLICATION_CREDENTIALS"`
	FirebaseServiceAccountJSONBase64 string `mapstructure:"FIREBASE_SERVICE_ACCOUNT_JSON_BASE64"`

	NotificationsEnabled   bool   `mapstructure:"NOTIFICATIONS_ENABLED"`
	NotificationWebhookURL string `mapstructure:"NOTIFICATION_WEBHOOK_URL"`
	NotificationUsername   string `mapstructure:"NOTIFICATION_USERNAME"`

	LogFile  string `mapstructure:"LOG_FILE"`
	LogLevel string `mapstructure:"LOG_LEVEL"`
}

// LoadConfig loads configuration from environment variables using Viper.
func LoadConfig() (*Config, error) {
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("GIN_MODE", "debug")
	viper.SetDefault("LOCAL_DB_PATH", "billdue.db")
	viper.SetDefault("NOTIFICATIONS_ENABLED", true)
	viper.SetDefault("NOTIFICATION_USERNAME", "BillDue")
	viper.SetDefault("LOG_LEVEL", "info")

	// Bind environment variables
	viper.BindEnv("PORT")
	viper.BindEnv("GIN_MODE")
	viper.BindEnv("CLIENT_URL")
	viper.BindEnv("LOCAL_DB_PATH")
	viper.BindEnv("FIREBASE_PROJECT_ID")
	viper.BindEnv("GOOGLE_APPLICATION_CREDENTIALS")
	viper.BindEnv("FIREBASE_SERVICE_ACCOUNT_JSON_BASE64")
	viper.BindEnv("NOTIFICATIONS_ENABLED")
	viper.BindEnv("NOTIFICATION_WEBHOOK_URL")
	viper.BindEnv("NOTIFICATION_USERNAME")
	viper.BindEnv("LOG_FILE")
	viper.BindEnv("LOG_LEVEL")

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, errors.New("failed to unmarshal config: " + err.Error())
	}

	// Validate required fields
	if cfg.ClientURL == "" {
		return nil, errors.New("CLIENT_URL is required")
	}
	if cfg.FirebaseProjectID != "" &&
		cfg.GoogleApplicationCredentials == "" && cfg.FirebaseServiceAccountJSONBase64 == "" {
		return nil, errors.New("FIREBASE_PROJECT_ID is set but neither GOOGLE_APPLICATION_CREDENTIALS nor FIREBASE_SERVICE_ACCOUNT_JSON_BASE64 is")
	}

	return &cfg, nil
}

// CloudSyncConfigured reports whether Firebase credentials are present,
// which enables authenticated sessions and remote persistence.
func (c *Config) CloudSyncConfigured() bool {
	return c.FirebaseProjectID != ""
}
