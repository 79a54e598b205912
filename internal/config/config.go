// Package config manages application configuration from files and environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	Workbook      string        `mapstructure:"workbook"`
	Sheet         string        `mapstructure:"sheet"`
	Interval      time.Duration `mapstructure:"interval"`
	HistoryWindow time.Duration `mapstructure:"history_window"`
	Listen        string        `mapstructure:"listen"`
	Title         string        `mapstructure:"title"`
	Columns       int           `mapstructure:"columns"`
	Layout        string        `mapstructure:"layout"`
	Watch         bool          `mapstructure:"watch"`
	DebounceMs    int           `mapstructure:"debounce_ms"`
	Verbose       bool          `mapstructure:"verbose"`
}

// Defaults
const (
	DefaultInterval      = 10 * time.Second
	DefaultHistoryWindow = 24 * time.Hour
	DefaultListen        = ":8501"
	DefaultTitle         = "Статистика по группам"
	DefaultColumns       = 4
	DefaultDebounceMs    = 500
)

// Options controls where configuration is read from.
type Options struct {
	// ConfigFile overrides ~/.countboard/config.yaml.
	ConfigFile string
	// EnvFile is a dotenv file loaded into the environment. Empty means ".env"
	// in the working directory; a missing default file is not an error.
	EnvFile string
}

// Load reads the configuration from the config file, a .env file and
// environment variables.
func Load(opts Options) (*Config, error) {
	if err := loadEnvFile(opts.EnvFile); err != nil {
		return nil, err
	}

	if opts.ConfigFile != "" {
		viper.SetConfigFile(opts.ConfigFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(configDir())
	}

	setDefaults()

	// Environment variable overrides
	viper.SetEnvPrefix("COUNTBOARD")
	viper.AutomaticEnv()
	// Older deployments export EXCEL_FILE_PATH.
	_ = viper.BindEnv("workbook", "COUNTBOARD_WORKBOOK", "EXCEL_FILE_PATH")

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.ConfigFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("could not read config: %w", err)
		}
	}

	return Current()
}

// Current decodes the configuration viper currently holds.
func Current() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("interval", DefaultInterval)
	viper.SetDefault("history_window", DefaultHistoryWindow)
	viper.SetDefault("listen", DefaultListen)
	viper.SetDefault("title", DefaultTitle)
	viper.SetDefault("columns", DefaultColumns)
	viper.SetDefault("watch", false)
	viper.SetDefault("debounce_ms", DefaultDebounceMs)
}

func loadEnvFile(path string) error {
	if path == "" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("could not load .env: %w", err)
		}
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("could not load env file %s: %w", path, err)
	}
	return nil
}

func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".countboard"
	}
	return filepath.Join(home, ".countboard")
}
