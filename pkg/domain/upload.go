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

import "time"

// UploadSession is the server-side record of one in-progress chunked upload.
// Sessions live in memory only; an upload interrupted by a restart must be
// started over.
type UploadSession struct {
	// Unique identifier, allocated at Start, never reused
	ID string `json:"id"`

	// Sanitized guest folder name
	Owner string `json:"owner"`

	// Sanitized final file name (basename only)
	Filename string `json:"filename"`

	// Number of chunks the client declared at Start; fixed for the
	// session's lifetime. Chunk indices are 1-based.
	TotalChunks int `json:"totalChunks"`

	// Total file size the client declared at Start, zero if unknown
	DeclaredSize int64 `json:"declaredSize,omitempty"`

	// Indices received so far; duplicates are idempotent
	Received map[int]struct{} `json:"-"`

	// Session creation timestamp
	CreatedAt time.Time `json:"createdAt"`

	// Timestamp of the last chunk or completion activity, drives
	// staleness eviction
	LastActivity time.Time `json:"lastActivity"`
}

// Complete reports whether every declared chunk index has been recorded.
func (s *UploadSession) Complete() bool {
	if len(s.Received) != s.TotalChunks {
		return false
	}
	for i := 1; i <= s.TotalChunks; i++ {
		if _, ok := s.Received[i]; !ok {
			return false
		}
	}
	return true
}

// StoredFile describes a fully assembled upload handed off to the gallery.
type StoredFile struct {
	// Guest folder the file belongs to
	Owner string `json:"owner"`

	// Final file name inside the guest folder
	Filename string `json:"filename"`

	// Absolute path of the assembled file
	Path string `json:"path"`

	// File size in bytes
	Size int64 `json:"size"`

	// MIME type sniffed from content
	ContentType string `json:"contentType"`

	// Assembly completion timestamp
	UploadedAt time.Time `json:"uploadedAt"`
}
