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
	stdhttp "net/http"
	"path"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"

	"github.com/guestsnap/guestsnap/pkg/domain"
	"github.com/guestsnap/guestsnap/pkg/upload"
)

// UploadHandler exposes the chunked upload protocol over multipart form
// requests: start, chunk, complete.
type UploadHandler struct {
	service *upload.Service
}

// NewUploadHandler creates the upload protocol handler.
func NewUploadHandler(service *upload.Service) *UploadHandler {
	return &UploadHandler{service: service}
}

// HandleStart opens a session.
//
// POST form fields: guest, filename, totalChunks, fileSize (optional).
func (h *UploadHandler) HandleStart(c *gin.Context) {
	totalChunks, err := strconv.Atoi(c.PostForm("totalChunks"))
	if err != nil {
		RespondWithError(c, domain.NewAppError(domain.ErrCodeInvalidInput, "totalChunks must be an integer"))
		return
	}

	var fileSize int64
	if raw := c.PostForm("fileSize"); raw != "" {
		fileSize, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			RespondWithError(c, domain.NewAppError(domain.ErrCodeInvalidInput, "fileSize must be an integer"))
			return
		}
	}

	result, err := h.service.Start(c.PostForm("guest"), c.PostForm("filename"), totalChunks, fileSize)
	if err != nil {
		RespondWithError(c, err)
		return
	}
	RespondWithSuccess(c, stdhttp.StatusCreated, result)
}

// HandleChunk stores one chunk.
//
// POST form fields: sessionId, index; file field: chunk.
func (h *UploadHandler) HandleChunk(c *gin.Context) {
	sessionID := c.PostForm("sessionId")
	if sessionID == "" {
		RespondWithError(c, domain.NewAppError(domain.ErrCodeInvalidInput, "sessionId is required"))
		return
	}
	index, err := strconv.Atoi(c.PostForm("index"))
	if err != nil {
		RespondWithError(c, domain.NewAppError(domain.ErrCodeInvalidInput, "index must be an integer"))
		return
	}

	fileHeader, err := c.FormFile("chunk")
	if err != nil {
		RespondWithError(c, domain.NewAppError(domain.ErrCodeInvalidInput, "chunk file field is required"))
		return
	}
	src, err := fileHeader.Open()
	if err != nil {
		RespondWithError(c, domain.NewAppError(domain.ErrCodeStorageIO, "failed to open uploaded chunk").WithError(err))
		return
	}
	defer src.Close()

	progress, err := h.service.UploadChunk(sessionID, index, src)
	if err != nil {
		RespondWithError(c, err)
		return
	}
	RespondWithSuccess(c, stdhttp.StatusOK, progress)
}

// HandleComplete assembles the final file.
//
// POST form field: sessionId.
func (h *UploadHandler) HandleComplete(c *gin.Context) {
	sessionID := c.PostForm("sessionId")
	if sessionID == "" {
		RespondWithError(c, domain.NewAppError(domain.ErrCodeInvalidInput, "sessionId is required"))
		return
	}

	file, err := h.service.Complete(sessionID)
	if err != nil {
		RespondWithError(c, err)
		return
	}

	RespondWithSuccess(c, stdhttp.StatusOK, gin.H{
		"owner":     file.Owner,
		"filename":  file.Filename,
		"size":      file.Size,
		"sizeHuman": humanize.IBytes(uint64(file.Size)),
		"url":       path.Join("/media", file.Owner, file.Filename),
	})
}
