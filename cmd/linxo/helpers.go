package main

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Veraticus/linxo/internal/common"
	"github.com/Veraticus/linxo/internal/config"
	"github.com/Veraticus/linxo/internal/linxo"
	"github.com/Veraticus/linxo/internal/model"
)

const signInHint = "run `linxo auth url` and `linxo auth exchange CODE` to sign in again"

// newSession builds a session from the loaded configuration. token, when
// non-nil, seeds the session.
func newSession(cfg *config.Config, token *model.BearerToken) (*linxo.Session, error) {
	sessionCfg, err := cfg.SessionConfig()
	if err != nil {
		return nil, err
	}

	opts := []linxo.SessionOption{linxo.WithSessionHTTPClient(&http.Client{Timeout: cfg.Timeout})}
	if token != nil {
		opts = append(opts, linxo.WithToken(*token))
	}
	return linxo.NewSession(sessionCfg, opts...)
}

// initClient loads the configuration and the saved token and returns an
// authorized API client.
func initClient() (*linxo.Client, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	token, err := config.LoadToken(cfg.TokenFile)
	if err != nil {
		if errors.Is(err, common.ErrNotAuthenticated) {
			return nil, nil, common.NewUserError("Not signed in: "+signInHint, err)
		}
		return nil, nil, fmt.Errorf("failed to load token: %w", err)
	}

	session, err := newSession(cfg, &token)
	if err != nil {
		return nil, nil, err
	}

	var opts []linxo.ClientOption
	if cfg.UserID != "" {
		opts = append(opts, linxo.WithUserID(cfg.UserID))
	}
	client, err := session.BindGateway(opts...)
	if err != nil {
		return nil, nil, err
	}
	return client, cfg, nil
}

// explain turns credential failures into messages telling the user what to do.
func explain(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, linxo.ErrAuthRejected) {
		return common.NewUserError("Linxo rejected the credentials: "+signInHint, err)
	}

	var reqErr *linxo.RequestFailedError
	if errors.As(err, &reqErr) && reqErr.StatusCode == http.StatusUnauthorized {
		return common.NewUserError("The access token is no longer valid: run `linxo auth refresh` or "+signInHint, err)
	}

	return err
}
