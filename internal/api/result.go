// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// OUTCOME
// =============================================================================

// Outcome classifies a finished request.
type Outcome int

const (
	// OutcomeSuccess is a 2xx response.
	OutcomeSuccess Outcome = iota
	// OutcomeHTTPError is any non-2xx response other than 401.
	OutcomeHTTPError
	// OutcomeTransportError means no response was received.
	OutcomeTransportError
	// OutcomeUnauthorized is a 401. The stored token has been cleared.
	OutcomeUnauthorized
)

// String returns a short name for the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeHTTPError:
		return "http_error"
	case OutcomeTransportError:
		return "transport_error"
	case OutcomeUnauthorized:
		return "unauthorized"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrUnauthorized is returned when the server rejected the session.
var ErrUnauthorized = errors.New("unauthorized")

// HTTPError is a non-2xx response, or a 2xx response the endpoint treats
// as a failure.
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	if e.Message == "" {
		return statusMessage(e.Status)
	}
	return e.Message
}

// TransportError wraps a failure to reach the server or read its reply.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func statusMessage(status int) string {
	return fmt.Sprintf("HTTP %d", status)
}

// =============================================================================
// RESULT
// =============================================================================

// Result is the outcome of one request.
type Result struct {
	Outcome Outcome
	Status  int
	// Body is the raw response body, capped at MaxResponseSize.
	Body []byte
	// Payload is Body decoded as a JSON object. It is empty, never nil,
	// when the body is empty, invalid, or not an object.
	Payload map[string]any
	// Message is the server's "error" field, or "HTTP <status>".
	Message string
	// Cause is the underlying transport error, if any.
	Cause error

	op string
}

// OK reports whether the request succeeded.
func (r Result) OK() bool {
	return r.Outcome == OutcomeSuccess
}

// Err converts the result into an error, or nil on success.
func (r Result) Err() error {
	switch r.Outcome {
	case OutcomeSuccess:
		return nil
	case OutcomeUnauthorized:
		return ErrUnauthorized
	case OutcomeTransportError:
		op := r.op
		if op == "" {
			op = "request"
		}
		return &TransportError{Op: op, Err: r.Cause}
	default:
		return &HTTPError{Status: r.Status, Message: r.Message}
	}
}

// Decode unmarshals the raw body into v.
func (r Result) Decode(v any) error {
	if len(r.Body) == 0 {
		return errors.New("empty response body")
	}
	return json.Unmarshal(r.Body, v)
}

// String field from the payload, or "".
func (r Result) String(key string) string {
	s, _ := r.Payload[key].(string)
	return s
}

// OKFlag reports whether the payload carries "ok": true.
func (r Result) OKFlag() bool {
	v, _ := r.Payload["ok"].(bool)
	return v
}

// decodePayload parses body as a JSON object, returning an empty map for
// anything else.
func decodePayload(body []byte) map[string]any {
	payload := map[string]any{}
	if len(body) == 0 {
		return payload
	}
	var obj map[string]any
	if err := json.Unmarshal(body, &obj); err != nil || obj == nil {
		return payload
	}
	return obj
}

// errorMessage is the server "error" field when it is a non-empty string,
// otherwise "HTTP <status>".
func errorMessage(payload map[string]any, status int) string {
	if msg, ok := payload["error"].(string); ok && strings.TrimSpace(msg) != "" {
		return msg
	}
	return statusMessage(status)
}

// requireOK turns a 2xx without "ok": true into an HTTPError. Admin
// endpoints report success this way.
func requireOK(r Result) error {
	if err := r.Err(); err != nil {
		return err
	}
	if !r.OKFlag() {
		return &HTTPError{Status: r.Status, Message: errorMessage(r.Payload, r.Status)}
	}
	return nil
}
