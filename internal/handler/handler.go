package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"calhook/internal/config"
	"calhook/internal/google"
	"calhook/internal/models"
	"calhook/internal/nlparse"

	"github.com/aws/aws-lambda-go/events"
)

// TokenRefresher mints an access token from the configured refresh token.
type TokenRefresher interface {
	Refresh(ctx context.Context, refreshToken, clientID, clientSecret string) (string, error)
}

// EventCreator inserts an event resource given as JSON.
type EventCreator interface {
	CreateEvent(ctx context.Context, accessToken string, payload []byte) (json.RawMessage, error)
}

// Handler serves one create-event invocation end to end.
type Handler struct {
	logger *slog.Logger
	cfg    *config.Config
	tokens TokenRefresher
	events EventCreator
}

// New creates a Handler.
func New(logger *slog.Logger, cfg *config.Config, tokens TokenRefresher, events EventCreator) *Handler {
	return &Handler{logger: logger, cfg: cfg, tokens: tokens, events: events}
}

// Handle refreshes the access token, builds the event from the request body
// and creates it. Every outcome is reported through the response; the
// returned error is always nil so the runtime never sees a failed invocation.
func (h *Handler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	accessToken, err := h.tokens.Refresh(ctx, h.cfg.RefreshToken, h.cfg.ClientID, h.cfg.ClientSecret)
	if err != nil {
		h.logger.Error("Token refresh failed", "error", err)
		return respond(http.StatusBadGateway, models.ErrorBody{
			Error:   "Failed to refresh access token",
			Details: err.Error(),
		}), nil
	}

	payload, err := h.eventPayload(req.Body)
	if err != nil {
		h.logger.Warn("Rejected request body", "error", err)
		return respond(http.StatusBadRequest, models.ErrorBody{
			Error: fmt.Sprintf("Failed to parse input: %v", err),
		}), nil
	}

	created, err := h.events.CreateEvent(ctx, accessToken, payload)
	if err != nil {
		var ece *google.EventCreationError
		if errors.As(err, &ece) {
			return respond(ece.StatusCode, models.ErrorBody{
				Error:   "Failed to create event",
				Details: ece.Body,
			}), nil
		}
		h.logger.Error("Event creation failed", "error", err)
		return respond(http.StatusInternalServerError, models.ErrorBody{
			Error: fmt.Sprintf("An error occurred: %v", err),
		}), nil
	}

	return respond(http.StatusOK, models.SuccessBody{
		Message: "Event created successfully",
		Event:   created,
	}), nil
}

// eventPayload returns the JSON to send to the Calendar API. Structured
// bodies are forwarded byte for byte; natural_language bodies are parsed.
func (h *Handler) eventPayload(body string) ([]byte, error) {
	if strings.TrimSpace(body) == "" {
		return nil, errors.New("request body is empty")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &fields); err != nil {
		return nil, fmt.Errorf("invalid JSON body: %w", err)
	}
	if fields == nil {
		return nil, errors.New("request body must be a JSON object")
	}

	raw, ok := fields["natural_language"]
	if !ok {
		return []byte(body), nil
	}

	var sentence string
	if err := json.Unmarshal(raw, &sentence); err != nil {
		return nil, errors.New("natural_language must be a string")
	}

	x, err := nlparse.Parse(sentence)
	if err != nil {
		return nil, err
	}
	h.logger.Info("Extracted event from natural language",
		"summary", x.Summary, "start", x.Start.Format(nlparse.DateTimeLayout), "duration", x.Duration)
	if x.DateHint != "at" {
		h.logger.Warn("Date keyword is not resolved, the event uses the default date", "keyword", x.DateHint)
	}

	b, err := json.Marshal(x.Event())
	if err != nil {
		return nil, fmt.Errorf("failed to encode extracted event: %w", err)
	}
	return b, nil
}

func respond(status int, v any) events.APIGatewayProxyResponse {
	b, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		b = []byte(`{"error":"An error occurred: failed to encode response"}`)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(b),
	}
}
