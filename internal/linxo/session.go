package linxo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Veraticus/linxo/internal/model"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// OAuth2 grant types.
const (
	GrantAuthorizationCode = "authorization_code"
	GrantRefreshToken      = "refresh_token"
)

// Session owns the OAuth2 credentials of one Linxo user and hands out API
// clients authorized with the current bearer token. It is safe for
// concurrent use; the token is swapped atomically on exchange and refresh.
type Session struct {
	token      atomic.Pointer[model.BearerToken]
	httpClient *http.Client
	logger     *slog.Logger
	oauth      *oauth2.Config
	cfg        Config
}

// SessionOption customizes a Session.
type SessionOption func(*Session)

// WithSessionHTTPClient sets the HTTP client used for token requests and
// for the clients returned by BindGateway.
func WithSessionHTTPClient(hc *http.Client) SessionOption {
	return func(s *Session) {
		if hc != nil {
			s.httpClient = hc
		}
	}
}

// WithToken seeds the session with a previously issued token.
func WithToken(token model.BearerToken) SessionOption {
	return func(s *Session) {
		s.token.Store(&token)
	}
}

// WithSessionLogger sets the logger.
func WithSessionLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSession creates a session for the given client registration.
func NewSession(cfg Config, opts ...SessionOption) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid session config: %w", err)
	}

	s := &Session{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: slog.Default().With("component", "linxo-session"),
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.Endpoints.AuthorizeURL(),
				TokenURL:  cfg.Endpoints.TokenURL(),
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Config returns the session configuration.
func (s *Session) Config() Config {
	return s.cfg
}

// Token returns the current token, or false if none has been obtained yet.
func (s *Session) Token() (model.BearerToken, bool) {
	tok := s.token.Load()
	if tok == nil {
		return model.BearerToken{}, false
	}
	return *tok, true
}

// NewState returns a random value for the OAuth2 state parameter.
func NewState() string {
	return uuid.NewString()
}

// AuthCodeURL is the page where the user grants access. The authorization
// code comes back on the redirect URL together with state.
func (s *Session) AuthCodeURL(state string) string {
	return s.oauth.AuthCodeURL(state)
}

// SignupURL is the Linxo web page for creating an account.
func (s *Session) SignupURL() string {
	if s.cfg.Endpoints.Web == "" {
		return ""
	}
	return strings.TrimRight(s.cfg.Endpoints.Web, "/") + "/signup"
}

// BindGateway returns an API client authorized with the current token. The
// client keeps that token; it is not refreshed on 401.
func (s *Session) BindGateway(opts ...ClientOption) (*Client, error) {
	tok := s.token.Load()
	if tok == nil || tok.AccessToken == "" {
		return nil, ErrNoToken
	}

	all := make([]ClientOption, 0, len(opts)+1)
	all = append(all, WithHTTPClient(s.httpClient))
	all = append(all, opts...)
	return NewClient(s.cfg.Endpoints.API, tok.AccessToken, all...)
}

// ExchangeCode trades an authorization code for a token.
func (s *Session) ExchangeCode(ctx context.Context, code string) (model.BearerToken, error) {
	if code == "" {
		return model.BearerToken{}, fmt.Errorf("authorization code cannot be empty")
	}

	tok, err := s.oauth.Exchange(s.oauthContext(ctx), code)
	if err != nil {
		return model.BearerToken{}, s.tokenError(GrantAuthorizationCode, err)
	}

	bearer := fromOAuth2(tok)
	s.token.Store(&bearer)
	s.logger.Info("Exchanged authorization code", "expires_at", bearer.ExpiresAt)
	return bearer, nil
}

// Refresh trades a refresh token for a new token.
func (s *Session) Refresh(ctx context.Context, refreshToken string) (model.BearerToken, error) {
	if refreshToken == "" {
		return model.BearerToken{}, fmt.Errorf("refresh token cannot be empty")
	}

	// An empty access token forces the token source to hit the endpoint.
	src := s.oauth.TokenSource(s.oauthContext(ctx), &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return model.BearerToken{}, s.tokenError(GrantRefreshToken, err)
	}

	bearer := fromOAuth2(tok)
	s.token.Store(&bearer)
	s.logger.Info("Refreshed bearer token", "expires_at", bearer.ExpiresAt)
	return bearer, nil
}

func (s *Session) oauthContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
}

// tokenError classifies a token endpoint failure.
func (s *Session) tokenError(grant string, err error) error {
	tokenURL := s.cfg.Endpoints.TokenURL()

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		status := 0
		if retrieveErr.Response != nil {
			status = retrieveErr.Response.StatusCode
		}
		if !grantRejected(status, retrieveErr.ErrorCode) {
			s.logger.Warn("Token endpoint failed", "grant", grant, "status", status)
			return &RequestFailedError{
				Method:     http.MethodPost,
				Path:       tokenURL,
				Body:       truncate(string(retrieveErr.Body), maxErrorBody),
				StatusCode: status,
			}
		}

		rejected := &AuthRejectedError{
			Grant:       grant,
			Code:        retrieveErr.ErrorCode,
			Description: retrieveErr.ErrorDescription,
			StatusCode:  status,
			Err:         err,
		}
		s.logger.Warn("Token request rejected", "grant", grant, "status", status, "code", rejected.Code)
		return rejected
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &TransportError{Op: http.MethodPost, URL: tokenURL, Err: err}
	}

	return &MalformedResponseError{Path: tokenURL, Err: err}
}

// grantRejected reports whether a token endpoint error refuses the code or
// refresh token itself, as opposed to an outage or throttling.
func grantRejected(status int, code string) bool {
	switch status {
	case http.StatusBadRequest, http.StatusUnauthorized:
		return true
	case 0:
		return code != ""
	default:
		return false
	}
}

func fromOAuth2(tok *oauth2.Token) model.BearerToken {
	return model.BearerToken{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.Expiry,
	}
}
