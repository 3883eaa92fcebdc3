package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/oauth2"
)

// AuthError is returned when the token endpoint refuses to mint an access token.
// StatusCode is zero when the endpoint could not be reached at all.
type AuthError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *AuthError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("failed to refresh token: %d %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("failed to refresh token: %v", e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// TokenRefresher exchanges a refresh token for a short-lived access token.
type TokenRefresher struct {
	logger     *slog.Logger
	tokenURL   string
	httpClient *http.Client
}

// NewTokenRefresher creates a refresher posting to tokenURL.
// A nil httpClient uses the oauth2 default.
func NewTokenRefresher(logger *slog.Logger, tokenURL string, httpClient *http.Client) *TokenRefresher {
	return &TokenRefresher{logger: logger, tokenURL: tokenURL, httpClient: httpClient}
}

// Refresh performs a single refresh_token grant. Nothing is cached.
func (r *TokenRefresher) Refresh(ctx context.Context, refreshToken, clientID, clientSecret string) (string, error) {
	conf := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  r.tokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
	if r.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, r.httpClient)
	}

	r.logger.Debug("Refreshing access token", "tokenURL", r.tokenURL)
	tok, err := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		var rErr *oauth2.RetrieveError
		if errors.As(err, &rErr) && rErr.Response != nil {
			return "", &AuthError{StatusCode: rErr.Response.StatusCode, Body: string(rErr.Body), Err: err}
		}
		return "", &AuthError{Err: err}
	}

	r.logger.Debug("Access token refreshed", "expiry", tok.Expiry)
	return tok.AccessToken, nil
}
