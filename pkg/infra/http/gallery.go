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
	"fmt"
	stdhttp "net/http"
	"path"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"

	"github.com/guestsnap/guestsnap/pkg/domain"
	"github.com/guestsnap/guestsnap/pkg/gallery"
	"github.com/guestsnap/guestsnap/pkg/logging"
)

// GalleryHandler serves the browse/download side of the kiosk.
type GalleryHandler struct {
	gallery *gallery.Gallery
	logger  *logging.Logger
}

// NewGalleryHandler creates the gallery handler.
func NewGalleryHandler(g *gallery.Gallery, logger *logging.Logger) *GalleryHandler {
	return &GalleryHandler{gallery: g, logger: logger}
}

type fileView struct {
	Owner      string    `json:"owner"`
	Filename   string    `json:"filename"`
	URL        string    `json:"url"`
	Size       int64     `json:"size"`
	SizeHuman  string    `json:"sizeHuman"`
	IsVideo    bool      `json:"isVideo"`
	UploadedAt time.Time `json:"uploadedAt"`
}

var videoExtensions = map[string]struct{}{
	".mp4": {}, ".mov": {}, ".m4v": {}, ".webm": {}, ".avi": {}, ".mkv": {},
}

func toView(f domain.StoredFile) fileView {
	_, isVideo := videoExtensions[strings.ToLower(path.Ext(f.Filename))]
	return fileView{
		Owner:      f.Owner,
		Filename:   f.Filename,
		URL:        path.Join("/media", f.Owner, f.Filename),
		Size:       f.Size,
		SizeHuman:  humanize.IBytes(uint64(f.Size)),
		IsVideo:    isVideo,
		UploadedAt: f.UploadedAt,
	}
}

// HandleList returns every guest folder with its files plus gallery totals.
func (h *GalleryHandler) HandleList(c *gin.Context) {
	owners, err := h.gallery.Owners()
	if err != nil {
		RespondWithError(c, err)
		return
	}

	folders := make(map[string][]fileView, len(owners))
	for _, owner := range owners {
		files, err := h.gallery.Files(owner)
		if err != nil {
			RespondWithError(c, err)
			return
		}
		views := make([]fileView, 0, len(files))
		for _, f := range files {
			views = append(views, toView(f))
		}
		folders[owner] = views
	}

	stats, err := h.gallery.Ledger().Stats()
	if err != nil {
		RespondWithError(c, err)
		return
	}

	RespondWithSuccess(c, stdhttp.StatusOK, gin.H{"folders": folders, "stats": stats})
}

// HandleOwner returns one guest folder.
func (h *GalleryHandler) HandleOwner(c *gin.Context) {
	files, err := h.gallery.Files(c.Param("owner"))
	if err != nil {
		RespondWithError(c, domain.NewAppError(domain.ErrCodeInvalidInput, "unknown guest folder").WithError(err))
		return
	}

	views := make([]fileView, 0, len(files))
	for _, f := range files {
		views = append(views, toView(f))
	}
	RespondWithSuccess(c, stdhttp.StatusOK, gin.H{"files": views})
}

// HandleRecent returns the newest uploads from the ledger, for the slideshow.
func (h *GalleryHandler) HandleRecent(c *gin.Context) {
	recent, err := h.gallery.Ledger().Recent(50)
	if err != nil {
		RespondWithError(c, err)
		return
	}

	views := make([]fileView, 0, len(recent))
	for _, f := range recent {
		views = append(views, toView(f))
	}
	RespondWithSuccess(c, stdhttp.StatusOK, gin.H{"files": views})
}

// HandleZip streams a zip of one guest folder, or the whole gallery when no
// owner is given.
func (h *GalleryHandler) HandleZip(c *gin.Context) {
	owner := c.Query("owner")
	name := "gallery.zip"
	if owner != "" {
		name = fmt.Sprintf("%s.zip", owner)
	}

	c.Header("Content-Type", "application/zip")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))

	if err := h.gallery.WriteZip(c.Writer, owner); err != nil {
		// Headers are likely gone already; log and cut the stream
		h.logger.Error("zip download failed", "owner", owner, "error", err)
		c.Abort()
	}
}
