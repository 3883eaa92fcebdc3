package google

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/oauth2"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRefreshReturnsAccessToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
			t.Errorf("Content-Type = %q, want form encoding", ct)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm: %v", err)
		}
		want := map[string]string{
			"grant_type":    "refresh_token",
			"refresh_token": "refresh",
			"client_id":     "id",
			"client_secret": "secret",
		}
		for k, v := range want {
			if got := r.PostForm.Get(k); got != v {
				t.Errorf("form %s = %q, want %q", k, got, v)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"access_token":"fresh","token_type":"Bearer","expires_in":3599}`)
	}))
	defer srv.Close()

	r := NewTokenRefresher(testLogger(), srv.URL, srv.Client())
	tok, err := r.Refresh(context.Background(), "refresh", "id", "secret")
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if tok != "fresh" {
		t.Errorf("token = %q, want fresh", tok)
	}
}

func TestRefreshUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error":"invalid_client"}`)
	}))
	defer srv.Close()

	r := NewTokenRefresher(testLogger(), srv.URL, srv.Client())
	_, err := r.Refresh(context.Background(), "refresh", "id", "secret")
	if err == nil {
		t.Fatal("expected error for 401")
	}

	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("error type = %T, want *AuthError", err)
	}
	if authErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("StatusCode = %d, want 401", authErr.StatusCode)
	}
	if !strings.Contains(authErr.Body, "invalid_client") {
		t.Errorf("Body = %q", authErr.Body)
	}
	if !strings.HasPrefix(authErr.Error(), "failed to refresh token: 401") {
		t.Errorf("Error() = %q", authErr.Error())
	}

	var rErr *oauth2.RetrieveError
	if !errors.As(err, &rErr) {
		t.Error("AuthError should unwrap to *oauth2.RetrieveError")
	}
}

func TestRefreshUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	r := NewTokenRefresher(testLogger(), url, nil)
	_, err := r.Refresh(context.Background(), "refresh", "id", "secret")

	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("error = %v, want *AuthError", err)
	}
	if authErr.StatusCode != 0 {
		t.Errorf("StatusCode = %d, want 0", authErr.StatusCode)
	}
}

func TestRefreshMissingAccessToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"token_type":"Bearer"}`)
	}))
	defer srv.Close()

	r := NewTokenRefresher(testLogger(), srv.URL, srv.Client())
	_, err := r.Refresh(context.Background(), "refresh", "id", "secret")

	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("error = %v, want *AuthError", err)
	}
}
