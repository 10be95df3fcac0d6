package remote

import (
	"errors"
	"strings"
	"time"
)

// Config holds configuration for the remote history API.
type Config struct {
	// URL is the base URL of the API, without a trailing slash.
	URL string `mapstructure:"url" default:"https://danbooru.donmai.us"`
	// Login is the account name sent with every request.
	Login string `mapstructure:"login" default:""`
	// APIKey is the API key of the account.
	APIKey string `mapstructure:"api_key" default:""`
	// TimeoutSeconds bounds a single request. 0 disables the timeout.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"0"`
	// UserAgent is sent with every request.
	UserAgent string `mapstructure:"user_agent" default:"booru-sync"`
}

// ErrMissingCredentials is returned by Validate when login or API key is unset.
var ErrMissingCredentials = errors.New("remote: login and api_key must be set (DANBOORU_LOGIN, DANBOORU_API_KEY)")

// Validate checks that the configuration can authenticate.
func (c Config) Validate() error {
	if strings.TrimSpace(c.URL) == "" {
		return errors.New("remote: url must be set")
	}
	if c.Login == "" || c.APIKey == "" {
		return ErrMissingCredentials
	}
	return nil
}

// Timeout returns the per-request timeout.
func (c Config) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c Config) baseURL() string {
	return strings.TrimRight(c.URL, "/")
}
