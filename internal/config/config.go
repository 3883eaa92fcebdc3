package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
)

const (
	credentialsFile   = "credentials.json"
	defaultCalendarID = "primary"
	defaultLogLevel   = "info"
)

// Config holds everything an invocation needs to talk to Google.
// Values come from the environment (optionally populated from a .env file),
// with credentials.json and a saved token file as fallbacks.
type Config struct {
	ClientID         string
	ClientSecret     string
	RefreshToken     string
	CalendarID       string
	TokenURL         string
	CalendarEndpoint string // empty means the calendar library default
	LogLevel         string
}

// Load reads the configuration from the process environment.
func Load() (*Config, error) {
	cfg := &Config{
		ClientID:         os.Getenv("GOOGLE_CLIENT_ID"),
		ClientSecret:     os.Getenv("GOOGLE_CLIENT_SECRET"),
		RefreshToken:     os.Getenv("GOOGLE_REFRESH_TOKEN"),
		CalendarID:       envOr("GOOGLE_CALENDAR_ID", defaultCalendarID),
		TokenURL:         envOr("GOOGLE_TOKEN_URL", google.Endpoint.TokenURL),
		CalendarEndpoint: os.Getenv("GOOGLE_CALENDAR_ENDPOINT"),
		LogLevel:         envOr("LOG_LEVEL", defaultLogLevel),
	}

	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		oc, err := ClientFromCredentialsFile(credentialsFile)
		if err != nil {
			return nil, err
		}
		cfg.ClientID = oc.ClientID
		cfg.ClientSecret = oc.ClientSecret
	}

	if cfg.RefreshToken == "" {
		tokenFile := os.Getenv("GOOGLE_TOKEN_FILE")
		if tokenFile == "" {
			return nil, fmt.Errorf("no refresh token configured. Set GOOGLE_REFRESH_TOKEN or GOOGLE_TOKEN_FILE (see the 'auth' command)")
		}
		tok, err := TokenFromFile(tokenFile)
		if err != nil {
			return nil, fmt.Errorf("could not load token file %s: %w", tokenFile, err)
		}
		if tok.RefreshToken == "" {
			return nil, fmt.Errorf("token file %s has no refresh token", tokenFile)
		}
		cfg.RefreshToken = tok.RefreshToken
	}

	return cfg, nil
}

// ClientFromCredentialsFile reads an OAuth client (id and secret) from a
// credentials.json downloaded from the Google Cloud console.
func ClientFromCredentialsFile(path string) (*oauth2.Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s not found. Please provide GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET env vars or place %s in the working directory", path, path)
		}
		return nil, fmt.Errorf("unable to read client secret file: %w", err)
	}

	oc, err := google.ConfigFromJSON(b, calendar.CalendarEventsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client secret file to config: %w", err)
	}
	return oc, nil
}

// TokenFromFile retrieves a token saved by the auth command.
func TokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(tok)
	return tok, err
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
