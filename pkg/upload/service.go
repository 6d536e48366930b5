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

package upload

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/afero"

	"github.com/guestsnap/guestsnap/pkg/domain"
	"github.com/guestsnap/guestsnap/pkg/logging"
)

// DefaultChunkSize is the fixed chunk-size hint handed to clients at session
// start. It is a server constant, not negotiated.
const DefaultChunkSize = 5 * 1024 * 1024

// allowedExtensions is the image/video allow-list checked at session start.
var allowedExtensions = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {}, ".webp": {},
	".heic": {}, ".heif": {},
	".mp4": {}, ".mov": {}, ".m4v": {}, ".webm": {}, ".avi": {}, ".mkv": {},
}

// Options configures the upload service.
type Options struct {
	// UploadRoot is where assembled files land, one folder per guest.
	UploadRoot string

	// ScratchDir holds per-session chunk directories.
	ScratchDir string

	// ChunkSize is the chunk-size hint returned at session start.
	ChunkSize int64

	// MaxFileSize caps the declared and the accumulated upload size.
	MaxFileSize int64

	// StaleWindow is the idle duration after which an incomplete session
	// is eligible for eviction.
	StaleWindow time.Duration

	// EvictInterval is how often the background evictor runs.
	EvictInterval time.Duration
}

// CompletionHook is called after a successful assembly, outside any lock.
// The gallery ledger and the websocket event hub register through this.
type CompletionHook func(file domain.StoredFile)

// StartResult is the client-visible payload of a Start call.
type StartResult struct {
	SessionID string `json:"sessionId"`
	ChunkSize int64  `json:"chunkSize"`
}

// Progress is the client-visible payload of an UploadChunk call.
type Progress struct {
	Received int `json:"received"`
	Total    int `json:"total"`
}

// Service is the upload orchestrator: the Start / UploadChunk / Complete
// protocol coordinating the sanitizer, registry, store and assembler.
type Service struct {
	fs       afero.Fs
	opts     Options
	registry *Registry
	store    *Store
	asm      *Assembler
	logger   *logging.Logger
	hooks    []CompletionHook
	now      func() time.Time
}

// NewService wires up the upload core. The clock is injectable for tests;
// pass nil to use time.Now.
func NewService(fs afero.Fs, opts Options, logger *logging.Logger, clock func() time.Time) *Service {
	if clock == nil {
		clock = time.Now
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}

	store := NewStore(fs, opts.ScratchDir)
	return &Service{
		fs:       fs,
		opts:     opts,
		registry: NewRegistry(clock),
		store:    store,
		asm:      NewAssembler(fs, store),
		logger:   logger,
		now:      clock,
	}
}

// OnComplete registers a hook invoked for every successfully assembled file.
// Hooks must be registered before the service starts handling requests.
func (s *Service) OnComplete(hook CompletionHook) {
	s.hooks = append(s.hooks, hook)
}

// Registry exposes the session registry, mainly for tests and diagnostics.
func (s *Service) Registry() *Registry {
	return s.registry
}

// Start validates the request and opens a new upload session, returning the
// session ID and the server's chunk-size hint.
func (s *Service) Start(owner, filename string, totalChunks int, declaredSize int64) (*StartResult, error) {
	safeOwner := Sanitize(owner)
	if safeOwner == "" {
		return nil, domain.NewAppError(domain.ErrCodeInvalidInput, "guest name is required")
	}

	safeName := SanitizeFilename(filename)
	if safeName == "" {
		return nil, domain.NewAppError(domain.ErrCodeInvalidInput, "file name is required")
	}
	ext := strings.ToLower(filepath.Ext(safeName))
	if _, ok := allowedExtensions[ext]; !ok {
		return nil, domain.NewAppError(domain.ErrCodeUnsupportedType,
			fmt.Sprintf("file type %q is not allowed", ext)).
			WithDetails("filename", safeName)
	}

	if totalChunks < 1 {
		return nil, domain.NewAppError(domain.ErrCodeInvalidInput, "total chunk count must be positive")
	}
	if declaredSize < 0 {
		return nil, domain.NewAppError(domain.ErrCodeInvalidInput, "file size cannot be negative")
	}
	if s.opts.MaxFileSize > 0 && declaredSize > s.opts.MaxFileSize {
		return nil, domain.NewAppError(domain.ErrCodeRequestTooLarge,
			fmt.Sprintf("file exceeds the %s limit", humanize.IBytes(uint64(s.opts.MaxFileSize))))
	}

	session := s.registry.Create(safeOwner, safeName, totalChunks, declaredSize)
	s.logger.Info("upload session started",
		"session", session.ID, "owner", safeOwner, "file", safeName, "chunks", totalChunks)

	return &StartResult{SessionID: session.ID, ChunkSize: s.opts.ChunkSize}, nil
}

// UploadChunk stores one chunk and records it in the registry. Chunks may
// arrive out of order and concurrently; repeating an index overwrites the
// stored bytes (last write wins) without double-counting progress.
func (s *Service) UploadChunk(sessionID string, index int, r io.Reader) (*Progress, error) {
	session, err := s.registry.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if index < 1 || index > session.TotalChunks {
		return nil, domain.NewAppError(domain.ErrCodeInvalidInput,
			fmt.Sprintf("chunk index %d out of range 1..%d", index, session.TotalChunks))
	}

	if _, err := s.store.Write(sessionID, index, r); err != nil {
		return nil, err
	}

	if s.opts.MaxFileSize > 0 {
		onDisk, err := s.store.BytesOnDisk(sessionID)
		if err != nil {
			return nil, err
		}
		if onDisk > s.opts.MaxFileSize {
			s.abort(sessionID)
			return nil, domain.NewAppError(domain.ErrCodeRequestTooLarge,
				fmt.Sprintf("upload exceeds the %s limit", humanize.IBytes(uint64(s.opts.MaxFileSize))))
		}
	}

	received, total, err := s.registry.RecordChunk(sessionID, index)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("chunk received", "session", sessionID, "index", index, "received", received, "total", total)
	return &Progress{Received: received, Total: total}, nil
}

// Complete finalizes the upload. With chunks still missing it fails with
// INCOMPLETE_UPLOAD and the session stays open for retries. Otherwise the
// session is consumed: whether assembly succeeds or fails, the scratch
// directory and registry entry are gone afterwards and a failed completion
// needs a brand-new session.
func (s *Service) Complete(sessionID string) (*domain.StoredFile, error) {
	session, err := s.registry.Get(sessionID)
	if err != nil {
		return nil, err
	}

	missing, err := s.store.Missing(sessionID, session.TotalChunks)
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		s.registry.Touch(sessionID)
		return nil, domain.NewAppError(domain.ErrCodeIncompleteUpload, "upload is missing chunks").
			WithDetails("missing", missing)
	}

	// Consume the session so a concurrent second Complete sees
	// SESSION_NOT_FOUND instead of double-assembling.
	session, ok := s.registry.Take(sessionID)
	if !ok {
		return nil, domain.NewAppError(domain.ErrCodeSessionNotFound, "unknown upload session").
			WithDetails("sessionId", sessionID)
	}
	defer func() {
		if err := s.store.Purge(sessionID); err != nil {
			s.logger.Error("failed to purge chunk directory", "session", sessionID, "error", err)
		}
	}()

	destPath := s.destinationPath(session.Owner, session.Filename)
	size, err := s.asm.Assemble(sessionID, session.TotalChunks, destPath)
	if err != nil {
		s.logger.Error("assembly failed", "session", sessionID, "error", err)
		return nil, err
	}

	file := domain.StoredFile{
		Owner:       session.Owner,
		Filename:    filepath.Base(destPath),
		Path:        destPath,
		Size:        size,
		ContentType: s.sniffContentType(destPath),
		UploadedAt:  s.now(),
	}

	s.logger.Info("upload complete",
		"owner", file.Owner, "file", file.Filename, "size", humanize.IBytes(uint64(size)))

	for _, hook := range s.hooks {
		hook(file)
	}
	return &file, nil
}

// EvictStale purges sessions with no activity inside the window, registry
// entry and chunk directory both, and returns how many were evicted.
func (s *Service) EvictStale(window time.Duration) int {
	ids := s.registry.Stale(window)
	for _, id := range ids {
		s.abort(id)
		s.logger.Warn("evicted stale upload session", "session", id)
	}
	return len(ids)
}

// StartEvictor runs background staleness eviction until the context is
// cancelled, bounding scratch-disk growth from abandoned uploads.
func (s *Service) StartEvictor(ctx context.Context) {
	interval := s.opts.EvictInterval
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	window := s.opts.StaleWindow
	if window <= 0 {
		window = 24 * time.Hour
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.EvictStale(window)
			}
		}
	}()
}

func (s *Service) abort(sessionID string) {
	s.registry.Remove(sessionID)
	if err := s.store.Purge(sessionID); err != nil {
		s.logger.Error("failed to purge chunk directory", "session", sessionID, "error", err)
	}
}

// destinationPath picks a collision-free final path inside the guest folder,
// suffixing the stem with a counter when the name is already taken.
func (s *Service) destinationPath(owner, filename string) string {
	dir := filepath.Join(s.opts.UploadRoot, owner)
	path := filepath.Join(dir, filename)

	ext := filepath.Ext(filename)
	stem := strings.TrimSuffix(filename, ext)
	for n := 1; ; n++ {
		if exists, _ := afero.Exists(s.fs, path); !exists {
			return path
		}
		path = filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, n, ext))
	}
}

func (s *Service) sniffContentType(path string) string {
	f, err := s.fs.Open(path)
	if err != nil {
		return "application/octet-stream"
	}
	defer f.Close()

	mime, err := mimetype.DetectReader(f)
	if err != nil {
		return "application/octet-stream"
	}
	return mime.String()
}
