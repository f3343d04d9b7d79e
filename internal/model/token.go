package model

import "time"

// BearerToken is an OAuth2 access/refresh token pair.
// It is never mutated; a refresh produces a new value.
type BearerToken struct {
	ExpiresAt    time.Time `json:"expires_at"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
}

// Expired reports whether the access token is past its expiry at now.
// A zero ExpiresAt never expires.
func (t BearerToken) Expired(now time.Time) bool {
	if t.ExpiresAt.IsZero() {
		return false
	}
	return !now.Before(t.ExpiresAt)
}
