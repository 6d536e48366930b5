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
	"context"
	"embed"
	"html/template"
	stdhttp "net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"

	"github.com/guestsnap/guestsnap/pkg/cfg"
	"github.com/guestsnap/guestsnap/pkg/gallery"
	"github.com/guestsnap/guestsnap/pkg/logging"
	"github.com/guestsnap/guestsnap/pkg/upload"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	// Chunk uploads from phones on event wifi are slow; keep the
	// request timeouts generous.
	readTimeout     = 5 * time.Minute
	writeTimeout    = 30 * time.Minute
	idleTimeout     = 2 * time.Minute
	shutdownTimeout = 10 * time.Second

	// MaxMemory is the multipart parse threshold before spilling to disk.
	MaxMemory = 32 << 20
)

// Server is the kiosk HTTP server: guest upload form, chunked upload API,
// gallery browsing and the live event feed.
type Server struct {
	fs       afero.Fs
	settings *cfg.Settings
	uploads  *upload.Service
	gallery  *gallery.Gallery
	hub      *Hub
	engine   *gin.Engine
	logger   *logging.Logger
}

// NewServer wires the handlers and routes. Completion hooks for the gallery
// ledger and the event hub are registered here.
func NewServer(fs afero.Fs, settings *cfg.Settings, uploads *upload.Service, g *gallery.Gallery, logger *logging.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		fs:       fs,
		settings: settings,
		uploads:  uploads,
		gallery:  g,
		hub:      NewHub(logger),
		engine:   gin.New(),
		logger:   logger,
	}

	uploads.OnComplete(g.Record)
	uploads.OnComplete(s.hub.NotifyUpload)

	s.engine.Use(gin.Recovery())
	s.engine.Use(cors.Default())
	s.engine.MaxMultipartMemory = MaxMemory
	s.engine.SetHTMLTemplate(template.Must(template.ParseFS(templateFS, "templates/*.html")))

	s.setupRoutes()
	return s
}

// Engine exposes the router, mainly for httptest.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) setupRoutes() {
	uploadHandler := NewUploadHandler(s.uploads)
	galleryHandler := NewGalleryHandler(s.gallery, s.logger)

	s.engine.GET("/", s.handleUploadPage)
	s.engine.GET("/gallery", s.handleGalleryPage)

	api := s.engine.Group("/api")
	{
		api.POST("/upload/start", uploadHandler.HandleStart)
		api.POST("/upload/chunk", uploadHandler.HandleChunk)
		api.POST("/upload/complete", uploadHandler.HandleComplete)

		api.GET("/gallery", galleryHandler.HandleList)
		api.GET("/gallery/recent", galleryHandler.HandleRecent)
		api.GET("/gallery/zip", galleryHandler.HandleZip)
		api.GET("/gallery/folders/:owner", galleryHandler.HandleOwner)
	}

	s.engine.GET("/ws/events", func(c *gin.Context) {
		s.hub.Serve(c.Writer, c.Request)
	})

	httpFs := afero.NewHttpFs(s.fs)
	s.engine.StaticFS("/media", httpFs.Dir(s.settings.UploadRoot))
}

func (s *Server) handleUploadPage(c *gin.Context) {
	c.HTML(stdhttp.StatusOK, "upload.html", gin.H{
		"ChunkSize": s.settings.ChunkSizeBytes(),
	})
}

func (s *Server) handleGalleryPage(c *gin.Context) {
	recent, err := s.gallery.Ledger().Recent(50)
	if err != nil {
		s.logger.Error("failed to load recent uploads", "error", err)
	}

	views := make([]fileView, 0, len(recent))
	for _, f := range recent {
		views = append(views, toView(f))
	}
	c.HTML(stdhttp.StatusOK, "gallery.html", gin.H{"Files": views})
}

// Run serves until the context is cancelled, then shuts down gracefully. The
// background session evictor runs for the same lifetime.
func (s *Server) Run(ctx context.Context) error {
	s.uploads.StartEvictor(ctx)

	server := &stdhttp.Server{
		Addr:         s.settings.Addr(),
		Handler:      s.engine,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()
	s.logger.Info("kiosk server listening", "addr", s.settings.Addr())

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down kiosk server")
		s.hub.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}
