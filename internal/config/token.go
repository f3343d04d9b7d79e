package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/Veraticus/linxo/internal/common"
	"github.com/Veraticus/linxo/internal/model"
)

// LoadToken reads a bearer token saved by SaveToken.
func LoadToken(path string) (model.BearerToken, error) {
	f, err := os.Open(path) // #nosec G304
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return model.BearerToken{}, fmt.Errorf("%w: no token at %s", common.ErrNotAuthenticated, path)
		}
		return model.BearerToken{}, err
	}
	defer func() { _ = f.Close() }()

	var token model.BearerToken
	if err := json.NewDecoder(f).Decode(&token); err != nil {
		return model.BearerToken{}, fmt.Errorf("failed to decode token: %w", err)
	}
	if token.AccessToken == "" {
		return model.BearerToken{}, fmt.Errorf("%w: token file %s has no access token", common.ErrNotAuthenticated, path)
	}
	return token, nil
}

// SaveToken writes token to path, readable only by the current user.
func SaveToken(path string, token model.BearerToken) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600) // #nosec G304
	if err != nil {
		return fmt.Errorf("failed to create token file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := json.NewEncoder(f).Encode(token); err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	return nil
}
