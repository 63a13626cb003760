// Tunecast - Song Suggestion Backend
// Copyright 2026 Tunecast contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunecast/tunecast

package models

import (
	"fmt"
	"net/http"
)

// ValidationError reports a missing or malformed input field. It maps to
// HTTP 400 at the API boundary.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a ValidationError with the default message for
// the given field.
func NewValidationError(field string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: fmt.Sprintf("validation failed for field '%s'", field),
	}
}

// NewValidationErrorMessage creates a ValidationError with an explicit
// message.
func NewValidationErrorMessage(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	return e.Message
}

// HTTPStatus implements the status mapping for validation failures.
func (e *ValidationError) HTTPStatus() int {
	return http.StatusBadRequest
}

// ExternalServiceError reports a failed upstream call. It maps to HTTP 502
// where it is surfaced directly; the suggestion path absorbs it into fallback
// content instead.
type ExternalServiceError struct {
	Service string
	Message string
	Err     error
}

// NewExternalServiceError wraps err as a failure of the named service.
func NewExternalServiceError(service string, err error) *ExternalServiceError {
	return &ExternalServiceError{
		Service: service,
		Message: fmt.Sprintf("external service '%s' failed", service),
		Err:     err,
	}
}

func (e *ExternalServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExternalServiceError) Unwrap() error {
	return e.Err
}

// HTTPStatus implements the status mapping for upstream failures.
func (e *ExternalServiceError) HTTPStatus() int {
	return http.StatusBadGateway
}

// PipelineError is a generic pipeline failure carrying its own HTTP status.
// A zero Code means 500.
type PipelineError struct {
	Code    int
	Message string
}

func (e *PipelineError) Error() string {
	if e.Message == "" {
		return "suggestion pipeline encountered an error"
	}
	return e.Message
}

// HTTPStatus implements the status mapping for pipeline failures.
func (e *PipelineError) HTTPStatus() int {
	if e.Code == 0 {
		return http.StatusInternalServerError
	}
	return e.Code
}
