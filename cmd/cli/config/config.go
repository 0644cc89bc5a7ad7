package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

const (
	defaultAPIURL = "http://localhost:8080"
	tokenFileName = ".timetable_token"
)

// ErrNoToken means the user has not logged in.
var ErrNoToken = errors.New("not logged in: run 'ttctl login' first")

var apiURLOverride string

// SetAPIURL overrides the base URL for this process (the --api-url flag).
func SetAPIURL(u string) { apiURLOverride = u }

// APIURL returns the base URL for the Timetable API.
// It can be overridden with --api-url or the TIMETABLE_API_URL environment variable.
func APIURL() string {
	if apiURLOverride != "" {
		return strings.TrimRight(apiURLOverride, "/")
	}
	if v := os.Getenv("TIMETABLE_API_URL"); v != "" {
		return strings.TrimRight(v, "/")
	}
	return defaultAPIURL
}

func tokenPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, tokenFileName), nil
}

// SaveToken stores the JWT readable only by the current user.
func SaveToken(token string) error {
	path, err := tokenPath()
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(token), 0o600)
}

func ReadToken() (string, error) {
	path, err := tokenPath()
	if err != nil {
		return "", err
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNoToken
	}
	if err != nil {
		return "", err
	}
	token := strings.TrimSpace(string(b))
	if token == "" {
		return "", ErrNoToken
	}
	return token, nil
}

// ClearToken removes the stored token. A missing file is not an error.
func ClearToken() error {
	path, err := tokenPath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
