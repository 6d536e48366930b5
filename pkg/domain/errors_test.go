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

package domain_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guestsnap/guestsnap/pkg/domain"
)

func TestNewAppError(t *testing.T) {
	tests := []struct {
		name       string
		code       domain.AppErrorCode
		message    string
		wantStatus int
		wantClient bool
	}{
		{
			name:       "invalid input",
			code:       domain.ErrCodeInvalidInput,
			message:    "chunk index out of range",
			wantStatus: http.StatusBadRequest,
			wantClient: true,
		},
		{
			name:       "unsupported type",
			code:       domain.ErrCodeUnsupportedType,
			message:    "extension not allowed",
			wantStatus: http.StatusUnsupportedMediaType,
			wantClient: true,
		},
		{
			name:       "session not found",
			code:       domain.ErrCodeSessionNotFound,
			message:    "unknown session",
			wantStatus: http.StatusNotFound,
			wantClient: true,
		},
		{
			name:       "incomplete upload",
			code:       domain.ErrCodeIncompleteUpload,
			message:    "chunks missing",
			wantStatus: http.StatusConflict,
			wantClient: true,
		},
		{
			name:       "request too large",
			code:       domain.ErrCodeRequestTooLarge,
			message:    "file exceeds limit",
			wantStatus: http.StatusRequestEntityTooLarge,
			wantClient: true,
		},
		{
			name:       "assembly failed",
			code:       domain.ErrCodeAssemblyFailed,
			message:    "assembly produced no bytes",
			wantStatus: http.StatusInternalServerError,
			wantClient: false,
		},
		{
			name:       "storage io",
			code:       domain.ErrCodeStorageIO,
			message:    "disk full",
			wantStatus: http.StatusInternalServerError,
			wantClient: false,
		},
		{
			name:       "unknown code falls back to 500",
			code:       domain.AppErrorCode("BOGUS"),
			message:    "who knows",
			wantStatus: http.StatusInternalServerError,
			wantClient: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := domain.NewAppError(tt.code, tt.message)
			require.NotNil(t, err)
			assert.Equal(t, tt.code, err.Code)
			assert.Equal(t, tt.message, err.Message)
			assert.Equal(t, tt.wantStatus, err.StatusCode)
			assert.Equal(t, tt.wantClient, err.IsClientError())
		})
	}
}

func TestAppErrorError(t *testing.T) {
	err := domain.NewAppError(domain.ErrCodeSessionNotFound, "no such session")
	assert.Equal(t, "[SESSION_NOT_FOUND] no such session", err.Error())
}

func TestAppErrorWithDetails(t *testing.T) {
	err := domain.NewAppError(domain.ErrCodeIncompleteUpload, "chunks missing").
		WithDetails("missing", []int{2, 5})
	assert.Equal(t, []int{2, 5}, err.Details["missing"])
}

func TestAppErrorWithError(t *testing.T) {
	cause := errors.New("write /tmp/chunk: no space left on device")

	err := domain.NewAppError(domain.ErrCodeStorageIO, "chunk write failed").WithError(cause)
	assert.Equal(t, cause, errors.Unwrap(err))

	// An empty message is filled in from the cause.
	filled := domain.NewAppError(domain.ErrCodeStorageIO, "").WithError(cause)
	assert.Equal(t, cause.Error(), filled.Message)
}

func TestUploadSessionComplete(t *testing.T) {
	s := &domain.UploadSession{
		TotalChunks: 3,
		Received:    map[int]struct{}{},
	}
	assert.False(t, s.Complete())

	s.Received[1] = struct{}{}
	s.Received[3] = struct{}{}
	assert.False(t, s.Complete())

	s.Received[2] = struct{}{}
	assert.True(t, s.Complete())
}
