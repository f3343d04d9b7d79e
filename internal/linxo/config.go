package linxo

import (
	"fmt"
	"strings"
)

// Environment selects which Linxo deployment a session talks to.
type Environment string

// Supported environments.
const (
	EnvironmentSandbox    Environment = "sandbox"
	EnvironmentProduction Environment = "production"
)

// ParseEnvironment accepts "sandbox", "production" or "prod".
func ParseEnvironment(s string) (Environment, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sandbox":
		return EnvironmentSandbox, nil
	case "production", "prod":
		return EnvironmentProduction, nil
	default:
		return "", fmt.Errorf("invalid Linxo environment %q: must be sandbox or production", s)
	}
}

// Endpoints are the base URLs of one deployment.
type Endpoints struct {
	API  string // REST API
	Auth string // OAuth2 authorization server
	Web  string // Sign-up / login pages, informational only
}

// EndpointsFor returns the base URLs of a known environment.
func EndpointsFor(env Environment) (Endpoints, error) {
	switch env {
	case EnvironmentSandbox:
		return Endpoints{
			API:  "https://sandbox-api.linxo.com",
			Auth: "https://sandbox-auth.linxo.com",
			Web:  "https://sandbox.linxo.com",
		}, nil
	case EnvironmentProduction:
		return Endpoints{
			API:  "https://api.linxo.com",
			Auth: "https://auth.linxo.com",
			Web:  "https://www.linxo.com",
		}, nil
	default:
		return Endpoints{}, fmt.Errorf("invalid Linxo environment %q: must be sandbox or production", env)
	}
}

// AuthorizeURL is the OAuth2 authorization endpoint.
func (e Endpoints) AuthorizeURL() string {
	return strings.TrimRight(e.Auth, "/") + "/signin"
}

// TokenURL is the OAuth2 token endpoint.
func (e Endpoints) TokenURL() string {
	return strings.TrimRight(e.Auth, "/") + "/token"
}

// Config holds the OAuth2 client registration and target endpoints of a session.
type Config struct {
	Endpoints    Endpoints
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// Validate ensures all required fields are present.
func (c *Config) Validate() error {
	if c.ClientID == "" {
		return fmt.Errorf("linxo client ID is required")
	}
	if c.ClientSecret == "" {
		return fmt.Errorf("linxo client secret is required")
	}
	if c.RedirectURL == "" {
		return fmt.Errorf("linxo redirect URL is required")
	}
	if c.Endpoints.API == "" || c.Endpoints.Auth == "" {
		return fmt.Errorf("linxo API and auth endpoints are required")
	}
	return nil
}
