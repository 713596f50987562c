package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrNetwork            = errors.New("no response from server")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrValidationSession  = errors.New("session validation failed")
	ErrStorageKeyNotFound = errors.New("storage key not found")
	ErrStorageUnavailable = errors.New("storage backend unavailable")
	ErrRouteNotFound      = errors.New("page does not exist")
	ErrAuthRequired       = errors.New("login required")
	ErrNotConnected       = errors.New("realtime connection is not established")
)

// HTTPError is a response the backend delivered with a non-2xx status.
type HTTPError struct {
	Status int
	Body   []byte
}

func (e *HTTPError) Error() string {
	body := strings.TrimSpace(string(e.Body))
	if body == "" {
		return fmt.Sprintf("status %d", e.Status)
	}
	return fmt.Sprintf("status %d: %s", e.Status, body)
}

// Is lets a 401 response match ErrUnauthorized.
func (e *HTTPError) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == http.StatusUnauthorized
}

// Code returns the machine readable error code carried in the response body,
// if any. Both {"code": "..."} and {"error": "..."} shapes are accepted.
func (e *HTTPError) Code() string {
	var payload struct {
		Code  string `json:"code"`
		Error string `json:"error"`
	}
	if err := json.Unmarshal(e.Body, &payload); err != nil {
		return ""
	}
	if payload.Code != "" {
		return payload.Code
	}
	return payload.Error
}

// StatusOf returns the HTTP status of err when it wraps an *HTTPError.
func StatusOf(err error) (int, bool) {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Status, true
	}
	return 0, false
}
