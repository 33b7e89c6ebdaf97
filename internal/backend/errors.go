package backend

import (
	"encoding/json"
	"errors"
)

// FallbackMessage is shown when the upstream rejects a request without any
// recognizable message field in the body.
const FallbackMessage = "Request failed. Please try again."

// ErrUnexpected reports a network-level failure: no upstream response at all.
// Callers never see raw transport errors.
var ErrUnexpected = errors.New("An unexpected error occurred.")

// APIError is an upstream-rejected request normalized to a human-readable
// message plus the HTTP status the upstream answered with.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string { return e.Message }

// errorBody covers the message shapes the backoffice is known to answer with.
// Fields may be absent; extraction follows a fixed priority order.
type errorBody struct {
	Msg   string `json:"msg"`
	Mes   string `json:"mes"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// normalizeError builds an APIError from a non-2xx response body. Priority:
// error.message, then msg, then mes, then the generic fallback.
func normalizeError(status int, body []byte) *APIError {
	var eb errorBody
	// A body that is not JSON at all still yields the fallback message.
	_ = json.Unmarshal(body, &eb)

	msg := eb.Error.Message
	if msg == "" {
		msg = eb.Msg
	}
	if msg == "" {
		msg = eb.Mes
	}
	if msg == "" {
		msg = FallbackMessage
	}
	return &APIError{Status: status, Message: msg}
}
