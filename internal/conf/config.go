// Package conf loads and validates the application configuration from
// config.yaml and environment variables using viper.
package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/campusworks/eventhub/internal/errors"
	"github.com/spf13/viper"
)

// Settings holds the complete application configuration.
type Settings struct {
	Debug bool // enables debug logging across components

	Main struct {
		Name string // instance name shown in logs and notifications
	}

	WebServer struct {
		Port    string
		Debug   bool
		Metrics bool // expose /metrics
	}

	Output struct {
		SQLite SQLiteSettings
		MySQL  MySQLSettings
	}

	Security     SecuritySettings
	Payment      PaymentSettings
	Notification NotificationSettings
	Dedup        DedupSettings
}

// SQLiteSettings contains SQLite database configuration
type SQLiteSettings struct {
	Enabled bool
	Path    string
}

// MySQLSettings contains MySQL database configuration
type MySQLSettings struct {
	Enabled  bool
	Username string
	Password string
	Database string
	Host     string
	Port     string
}

// SecuritySettings contains session and password hashing configuration
type SecuritySettings struct {
	SessionDuration time.Duration
	BcryptCost      int
}

// PaymentSettings configures the external payment gateway client
type PaymentSettings struct {
	GatewayURL string
	APIKey     string
	Timeout    time.Duration
}

// NotificationSettings configures in-app and push notification delivery
type NotificationSettings struct {
	Enabled  bool
	PushURLs []string // shoutrrr service URLs
}

// DedupSettings holds the duplicate-event detector tuning constants.
// These map to the detector's Config value; they are explicit here so
// operators can see and adjust them in one place.
type DedupSettings struct {
	Threshold      float64 // probability at or above which a pair is a duplicate
	DateWindowDays int     // candidate pool window around the event start
	VenueRadiusKm  float64 // geo proximity radius for venue scoring
	CandidateLimit int     // max events fetched per check
}

var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
)

// Setting returns the current settings instance, loading it if needed.
func Setting() *Settings {
	settingsMutex.RLock()
	if settingsInstance != nil {
		defer settingsMutex.RUnlock()
		return settingsInstance
	}
	settingsMutex.RUnlock()

	settings, err := Load()
	if err != nil {
		return nil
	}
	return settings
}

// Load reads the configuration file and environment variables into Settings.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// initViper initializes viper with default values and reads the configuration file.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("EVENTHUB")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	setDefaultConfig()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			// Missing config file is fine, defaults apply.
			return nil
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// GetDefaultConfigPaths returns the OS specific config search paths.
func GetDefaultConfigPaths() ([]string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, errors.New(err).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Context("operation", "get-home-directory").
			Build()
	}

	var configPaths []string
	switch runtime.GOOS {
	case "windows":
		configPaths = []string{
			".",
			filepath.Join(homeDir, "AppData", "Roaming", "eventhub"),
		}
	default:
		configPaths = []string{
			".",
			filepath.Join(homeDir, ".config", "eventhub"),
			"/etc/eventhub",
		}
	}
	return configPaths, nil
}
