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

package http

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/guestsnap/guestsnap/pkg/domain"
)

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    domain.AppErrorCode `json:"code"`
	Message string              `json:"message"`
	Details map[string]any      `json:"details,omitempty"`
}

// ErrorResponse is the API error envelope.
type ErrorResponse struct {
	Success bool         `json:"success"`
	Error   *ErrorDetail `json:"error"`
	Meta    *MetaData    `json:"meta"`
}

// SuccessResponse is the API success envelope.
type SuccessResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data"`
	Meta    *MetaData `json:"meta,omitempty"`
}

// MetaData contains request metadata.
type MetaData struct {
	Timestamp time.Time `json:"timestamp"`
	Path      string    `json:"path,omitempty"`
}

// RespondWithSuccess sends a success envelope.
func RespondWithSuccess(c *gin.Context, status int, data any) {
	c.JSON(status, &SuccessResponse{
		Success: true,
		Data:    data,
		Meta:    &MetaData{Timestamp: time.Now().UTC(), Path: c.FullPath()},
	})
}

// RespondWithError sends an error envelope. Client errors carry their code,
// message and retry details; server-side failures are reported generically so
// internal paths never leak.
func RespondWithError(c *gin.Context, err error) {
	var appErr *domain.AppError
	if !errors.As(err, &appErr) {
		appErr = domain.NewAppError(domain.ErrCodeInternal, "internal server error").WithError(err)
	}

	detail := &ErrorDetail{Code: appErr.Code, Message: appErr.Message}
	if appErr.IsClientError() {
		detail.Details = appErr.Details
	} else {
		detail.Message = "internal server error"
	}

	c.JSON(appErr.StatusCode, &ErrorResponse{
		Success: false,
		Error:   detail,
		Meta:    &MetaData{Timestamp: time.Now().UTC(), Path: c.FullPath()},
	})
}
