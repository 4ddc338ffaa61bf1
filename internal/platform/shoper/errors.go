package shoper

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// APIError is returned for every failed call to the shop REST API, including
// transport failures (StatusCode 0).
type APIError struct {
	StatusCode  int
	Code        string
	Message     string
	Description string
}

func (e *APIError) Error() string {
	var b strings.Builder
	b.WriteString("shop api error")
	if e.StatusCode > 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.Code != "" {
		b.WriteString(": " + e.Code)
	}
	if e.Message != "" {
		b.WriteString(": " + e.Message)
	}
	if e.Description != "" {
		b.WriteString(": " + e.Description)
	}
	return b.String()
}

// HTTPStatusCode exposes the upstream status for error classification.
func (e *APIError) HTTPStatusCode() int { return e.StatusCode }

type errorBody struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Message          string `json:"message"`
}

func newStatusError(status int, body []byte) *APIError {
	e := &APIError{StatusCode: status}
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		e.Code = eb.Error
		e.Description = eb.ErrorDescription
		e.Message = eb.Message
	}
	if e.Code == "" && e.Message == "" && e.Description == "" {
		e.Message = truncate(strings.TrimSpace(string(body)), 256)
	}
	return e
}

// NewTransportError wraps a failed round trip. Timeouts say so in the
// message so that they are classified as recoverable.
func NewTransportError(err error) *APIError {
	var ne net.Error
	var ue *url.Error
	if (errors.As(err, &ne) && ne.Timeout()) || (errors.As(err, &ue) && ue.Timeout()) {
		return &APIError{Message: "request timeout: " + err.Error()}
	}
	return &APIError{Message: err.Error()}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
