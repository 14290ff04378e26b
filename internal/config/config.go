// Package config reads devmate settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Defaults.
const (
	DefaultBackendURL  = "http://localhost:5000"
	DefaultBoardID     = "1"
	DefaultPostListURL = "/boards/study/posts"
	DefaultTimeout     = 10 * time.Second
	DefaultAddr        = ":8080"
)

// Config holds runtime configuration.
type Config struct {
	BackendURL     string
	BoardID        string
	PostListURL    string
	NewPostURL     string // empty hides the "Create New Post" link
	RequestTimeout time.Duration
	DevMode        bool
	SecureCookies  bool
}

// FromEnv creates a Config from environment variables.
func FromEnv() (Config, error) {
	timeout, err := envDuration("DM_REQUEST_TIMEOUT", DefaultTimeout)
	if err != nil {
		return Config{}, err
	}

	return Config{
		BackendURL:     envOrDefault("DM_BACKEND_URL", DefaultBackendURL),
		BoardID:        envOrDefault("DM_BOARD_ID", DefaultBoardID),
		PostListURL:    envOrDefault("DM_POST_LIST_URL", DefaultPostListURL),
		NewPostURL:     os.Getenv("DM_NEW_POST_URL"),
		RequestTimeout: timeout,
		DevMode:        envBool("DM_DEV_MODE"),
		SecureCookies:  envBool("DM_SECURE_COOKIES"),
	}, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && v
}

// envDuration accepts a Go duration ("15s") or a bare number of seconds.
func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs <= 0 {
			return 0, fmt.Errorf("%s must be positive, got %q", key, v)
		}
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %q", key, v)
	}
	return d, nil
}
