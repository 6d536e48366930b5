// Copyright 2026 Guestsnap
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package domain

import (
	"fmt"
	"net/http"
)

// AppErrorCode represents a machine-readable error code for API responses.
type AppErrorCode string

const (
	// ErrCodeInvalidInput indicates a bad owner name, filename, index or chunk count.
	ErrCodeInvalidInput AppErrorCode = "INVALID_INPUT"
	// ErrCodeUnsupportedType indicates a file extension outside the allow-list.
	ErrCodeUnsupportedType AppErrorCode = "UNSUPPORTED_TYPE"
	// ErrCodeSessionNotFound indicates an unknown or already-consumed upload session.
	ErrCodeSessionNotFound AppErrorCode = "SESSION_NOT_FOUND"
	// ErrCodeIncompleteUpload indicates completion was requested with chunks still missing.
	ErrCodeIncompleteUpload AppErrorCode = "INCOMPLETE_UPLOAD"
	// ErrCodeRequestTooLarge indicates the file exceeds the configured maximum size.
	ErrCodeRequestTooLarge AppErrorCode = "REQUEST_TOO_LARGE"
	// ErrCodeAssemblyFailed indicates chunk assembly failed; the session is gone.
	ErrCodeAssemblyFailed AppErrorCode = "ASSEMBLY_FAILED"
	// ErrCodeStorageIO indicates a filesystem error while persisting chunks.
	ErrCodeStorageIO AppErrorCode = "STORAGE_IO"
	// ErrCodeInternal indicates an internal server error.
	ErrCodeInternal AppErrorCode = "INTERNAL_ERROR"
)

// AppError represents an application error with context for API responses.
type AppError struct {
	// Machine-readable error code
	Code AppErrorCode `json:"code"`

	// Human-readable error message
	Message string `json:"message"`

	// HTTP status code
	StatusCode int `json:"-"`

	// Additional error details
	Details map[string]interface{} `json:"details,omitempty"`

	// Original error
	Err error `json:"-"`
}

// NewAppError creates a new application error.
func NewAppError(code AppErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: GetHTTPStatus(code),
		Details:    make(map[string]interface{}),
	}
}

// Error implements error interface.
func (e *AppError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetails adds additional details to error.
func (e *AppError) WithDetails(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithError wraps an underlying error.
func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	if e.Message == "" && err != nil {
		e.Message = err.Error()
	}
	return e
}

// IsClientError reports whether the error is the caller's fault and safe to
// surface verbatim. Server-side failures are reported generically instead.
func (e *AppError) IsClientError() bool {
	return e.StatusCode >= http.StatusBadRequest && e.StatusCode < http.StatusInternalServerError
}

// GetHTTPStatus maps error code to HTTP status.
func GetHTTPStatus(code AppErrorCode) int {
	switch code {
	case ErrCodeInvalidInput:
		return http.StatusBadRequest
	case ErrCodeUnsupportedType:
		return http.StatusUnsupportedMediaType
	case ErrCodeSessionNotFound:
		return http.StatusNotFound
	case ErrCodeIncompleteUpload:
		return http.StatusConflict
	case ErrCodeRequestTooLarge:
		return http.StatusRequestEntityTooLarge
	case ErrCodeAssemblyFailed, ErrCodeStorageIO, ErrCodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
