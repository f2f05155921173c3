package app

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/shouhanzen/confluence-sync/pkg/constants"
	"github.com/shouhanzen/confluence-sync/pkg/errors"
)

// Config holds the application configuration loaded from flags,
// environment variables, .env files, and the config file.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool

	// Config file
	ConfigFile string

	// Remote service
	BaseURL    string
	Username   string
	APIToken   string
	Timeout    time.Duration
	MaxRetries int

	// Sync settings
	SpaceKey    string
	ParentID    string
	Directory   string
	Ignore      []string
	Concurrency int

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// LoadConfig loads configuration from all sources in order of precedence:
//  1. Command-line flags (applied later by cobra)
//  2. Environment variables (CONFLUENCE_URL, CONFLUENCE_USERNAME,
//     CONFLUENCE_API_TOKEN, ...)
//  3. .env files
//  4. Config file (confluence-sync.yaml in the working directory or $HOME)
//  5. Defaults
//
// The API token is only ever read from the environment or .env files; it is
// never written to the config file.
func LoadConfig() (*Config, error) {
	// Load .env files before Viper env binding.
	loadEnvFiles()

	viper.AutomaticEnv()
	viper.SetEnvPrefix("CONFLUENCE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	configFile := viper.GetString("config")
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName("confluence-sync")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
	}

	// A missing config file is fine; env vars and flags may carry
	// everything.
	_ = viper.ReadInConfig()

	config := &Config{
		Verbose: viper.GetBool("verbose"),
		Quiet:   viper.GetBool("quiet"),
		NoColor: viper.GetBool("no-color"),

		ConfigFile: viper.ConfigFileUsed(),

		BaseURL:    viper.GetString("url"),
		Username:   viper.GetString("username"),
		APIToken:   viper.GetString("api_token"),
		Timeout:    viper.GetDuration("timeout"),
		MaxRetries: viper.GetInt("max_retries"),

		SpaceKey:    viper.GetString("space"),
		ParentID:    viper.GetString("parent_id"),
		Directory:   viper.GetString("directory"),
		Ignore:      viper.GetStringSlice("ignore"),
		Concurrency: viper.GetInt("concurrency"),

		LogLevel:  getEnvOrDefault("LOG_LEVEL", ""),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "auto"),
		LogOutput: getEnvOrDefault("LOG_OUTPUT", "stderr"),
	}

	if config.Directory == "" {
		config.Directory = "."
	}
	if config.Timeout == 0 {
		config.Timeout = constants.DefaultHTTPTimeout
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = constants.MaxRetries
	}
	if config.Concurrency == 0 {
		config.Concurrency = constants.MaxConcurrentRequests
	}

	return config, nil
}

// ValidateRemote checks that everything needed to reach the remote service
// is configured. Username is optional: without it the token is sent as a
// bearer personal access token.
func (c *Config) ValidateRemote() error {
	if c.BaseURL == "" {
		return errors.NewConfigError("confluence", "url is required (set CONFLUENCE_URL or the config file)", nil)
	}
	if c.APIToken == "" {
		return errors.NewConfigError("confluence", "api token is required (set CONFLUENCE_API_TOKEN)", nil)
	}
	if c.SpaceKey == "" {
		return errors.NewConfigError("confluence", "space key is required (set CONFLUENCE_SPACE or the config file)", nil)
	}
	return nil
}

// UpdateFromFlags updates config values from parsed command flags so flag
// values take precedence over config file and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, logLevel string) {
	c.Verbose = verbose
	c.Quiet = quiet
	c.NoColor = noColor
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// loadEnvFiles loads environment variables from .env files.
// .env.local overrides .env.
func loadEnvFiles() {
	for _, envFile := range []string{".env", ".env.local"} {
		_ = godotenv.Load(envFile)
	}
}

// getEnvOrDefault returns the environment variable value or the default if
// not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
