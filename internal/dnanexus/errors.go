package dnanexus

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a lookup has no result, *APIError values of
// type ResourceNotFound also match it with errors.Is.
var ErrNotFound = errors.New("not found")

// APIError is an error response of the platform API.
type APIError struct {
	StatusCode int
	Type       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("dnanexus: %d %s: %s", e.StatusCode, e.Type, e.Message)
}

func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.Type == "ResourceNotFound"
}

type errorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}
