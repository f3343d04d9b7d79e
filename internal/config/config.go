// Package config loads the linxo CLI settings and stored credentials.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Veraticus/linxo/internal/common"
	"github.com/Veraticus/linxo/internal/linxo"
	"github.com/spf13/viper"
)

// Defaults.
const (
	DefaultEnvironment = "sandbox"
	DefaultTimeout     = 30 * time.Second
	DefaultTokenFile   = "~/.config/linxo/token.json"
)

// Config holds the settings of the linxo CLI.
type Config struct {
	ClientID     string        `mapstructure:"client_id"`
	ClientSecret string        `mapstructure:"client_secret"`
	RedirectURL  string        `mapstructure:"redirect_url"`
	Environment  string        `mapstructure:"environment"`
	TokenFile    string        `mapstructure:"token_file"`
	UserID       string        `mapstructure:"user_id"`
	APIURL       string        `mapstructure:"api_url"`  // Overrides the environment API base
	AuthURL      string        `mapstructure:"auth_url"` // Overrides the environment auth base
	Timeout      time.Duration `mapstructure:"timeout"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() Config {
	return Config{
		Environment: DefaultEnvironment,
		TokenFile:   ExpandPath(DefaultTokenFile),
		Timeout:     DefaultTimeout,
	}
}

// Load reads the linxo section from the global viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads the configuration from v. It follows this precedence:
// 1. Viper configuration (config file "linxo.*" keys or bound flags)
// 2. Direct environment variables (LINXO_CLIENT_ID, ...)
// 3. Default values
func LoadFrom(v *viper.Viper) (*Config, error) {
	config := DefaultConfig()

	// Load from Viper first
	if s := v.GetString("linxo.client_id"); s != "" {
		config.ClientID = s
	}
	if s := v.GetString("linxo.client_secret"); s != "" {
		config.ClientSecret = s
	}
	if s := v.GetString("linxo.redirect_url"); s != "" {
		config.RedirectURL = s
	}
	if s := v.GetString("linxo.environment"); s != "" {
		config.Environment = s
	}
	if s := v.GetString("linxo.token_file"); s != "" {
		config.TokenFile = ExpandPath(s)
	}
	if s := v.GetString("linxo.user_id"); s != "" {
		config.UserID = s
	}
	if s := v.GetString("linxo.api_url"); s != "" {
		config.APIURL = s
	}
	if s := v.GetString("linxo.auth_url"); s != "" {
		config.AuthURL = s
	}
	if v.IsSet("linxo.timeout") {
		config.Timeout = v.GetDuration("linxo.timeout")
	}

	// Override with direct environment variables if not set
	if config.ClientID == "" {
		config.ClientID = os.Getenv("LINXO_CLIENT_ID")
	}
	if config.ClientSecret == "" {
		config.ClientSecret = os.Getenv("LINXO_CLIENT_SECRET")
	}
	if config.RedirectURL == "" {
		config.RedirectURL = os.Getenv("LINXO_REDIRECT_URL")
	}
	if config.UserID == "" {
		config.UserID = os.Getenv("LINXO_USER_ID")
	}
	if config.APIURL == "" {
		config.APIURL = os.Getenv("LINXO_API_URL")
	}
	if config.AuthURL == "" {
		config.AuthURL = os.Getenv("LINXO_AUTH_URL")
	}
	if s := os.Getenv("LINXO_ENVIRONMENT"); s != "" && !v.IsSet("linxo.environment") {
		config.Environment = s
	}
	if s := os.Getenv("LINXO_TOKEN_FILE"); s != "" && !v.IsSet("linxo.token_file") {
		config.TokenFile = ExpandPath(s)
	}
	if s := os.Getenv("LINXO_TIMEOUT"); s != "" && !v.IsSet("linxo.timeout") {
		d, err := time.ParseDuration(s)
		if err != nil {
			return nil, fmt.Errorf("%w: LINXO_TIMEOUT: %w", common.ErrInvalidConfig, err)
		}
		config.Timeout = d
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks the fields every command needs. Client credentials are
// checked separately by RequireCredentials since not every command uses them.
func (c *Config) Validate() error {
	if _, err := linxo.ParseEnvironment(c.Environment); err != nil {
		return fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive, got %s", common.ErrInvalidConfig, c.Timeout)
	}
	if c.TokenFile == "" {
		return fmt.Errorf("%w: token file path is required", common.ErrMissingConfig)
	}
	return nil
}

// RequireCredentials checks the OAuth2 client registration.
func (c *Config) RequireCredentials() error {
	switch {
	case c.ClientID == "":
		return fmt.Errorf("%w: linxo.client_id (or LINXO_CLIENT_ID) is required", common.ErrMissingConfig)
	case c.ClientSecret == "":
		return fmt.Errorf("%w: linxo.client_secret (or LINXO_CLIENT_SECRET) is required", common.ErrMissingConfig)
	case c.RedirectURL == "":
		return fmt.Errorf("%w: linxo.redirect_url (or LINXO_REDIRECT_URL) is required", common.ErrMissingConfig)
	}
	return nil
}

// Endpoints returns the base URLs of the configured environment with the
// api_url and auth_url overrides applied.
func (c *Config) Endpoints() (linxo.Endpoints, error) {
	env, err := linxo.ParseEnvironment(c.Environment)
	if err != nil {
		return linxo.Endpoints{}, fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}
	endpoints, err := linxo.EndpointsFor(env)
	if err != nil {
		return linxo.Endpoints{}, err
	}
	if c.APIURL != "" {
		endpoints.API = c.APIURL
	}
	if c.AuthURL != "" {
		endpoints.Auth = c.AuthURL
	}
	return endpoints, nil
}

// SessionConfig builds the session settings for the configured environment.
func (c *Config) SessionConfig() (linxo.Config, error) {
	if err := c.RequireCredentials(); err != nil {
		return linxo.Config{}, err
	}
	endpoints, err := c.Endpoints()
	if err != nil {
		return linxo.Config{}, err
	}
	return linxo.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		RedirectURL:  c.RedirectURL,
		Endpoints:    endpoints,
	}, nil
}

// DefaultConfigDir is where the config file and token live.
func DefaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", "linxo"), nil
}

// ExpandPath expands a leading ~ and $VAR references in path.
func ExpandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return os.ExpandEnv(path)
}
