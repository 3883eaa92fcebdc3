package models

import "encoding/json"

// SuccessBody is the response body of a created event.
type SuccessBody struct {
	Message string          `json:"message"`
	Event   json.RawMessage `json:"event"`
}

// ErrorBody is the response body of every failed invocation.
type ErrorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
