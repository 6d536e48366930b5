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
	"bytes"
	"compress/gzip"
	"io"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/afero"

	"github.com/guestsnap/guestsnap/pkg/domain"
)

// Assembler concatenates a session's chunks, in ascending index order, into
// the final destination file. Chunks are decompressed transparently when
// their content is gzip; detection is by magic bytes, never by file name, so
// a misnamed upload is still saved intact.
type Assembler struct {
	fs    afero.Fs
	store *Store
}

// NewAssembler creates an assembler reading from the given chunk store.
func NewAssembler(fs afero.Fs, store *Store) *Assembler {
	return &Assembler{fs: fs, store: store}
}

// Assemble verifies completeness and streams all chunks into destPath,
// returning the final byte size. With chunks missing it fails with
// INCOMPLETE_UPLOAD and leaves every chunk intact so the client can retry
// just the gaps. Any failure past that point removes the partial destination
// file. Purging the scratch directory is the caller's job and must happen
// whether assembly succeeds or not.
func (a *Assembler) Assemble(sessionID string, total int, destPath string) (int64, error) {
	missing, err := a.store.Missing(sessionID, total)
	if err != nil {
		return 0, err
	}
	if len(missing) > 0 {
		return 0, domain.NewAppError(domain.ErrCodeIncompleteUpload, "upload is missing chunks").
			WithDetails("missing", missing)
	}

	if err := a.fs.MkdirAll(filepath.Dir(destPath), 0o750); err != nil {
		return 0, domain.NewAppError(domain.ErrCodeAssemblyFailed, "failed to create destination directory").WithError(err)
	}

	dest, err := a.fs.Create(destPath)
	if err != nil {
		return 0, domain.NewAppError(domain.ErrCodeAssemblyFailed, "failed to create destination file").WithError(err)
	}

	var size int64
	for index := 1; index <= total; index++ {
		written, err := a.appendChunk(dest, sessionID, index)
		if err != nil {
			_ = dest.Close()
			_ = a.fs.Remove(destPath)
			return 0, err
		}
		size += written
	}

	if err := dest.Close(); err != nil {
		_ = a.fs.Remove(destPath)
		return 0, domain.NewAppError(domain.ErrCodeAssemblyFailed, "failed to finalize destination file").WithError(err)
	}

	// An assembled file with no bytes is useless to the gallery; treat it
	// as a failed upload.
	if size == 0 {
		_ = a.fs.Remove(destPath)
		return 0, domain.NewAppError(domain.ErrCodeAssemblyFailed, "assembled file is empty")
	}

	return size, nil
}

func (a *Assembler) appendChunk(dest io.Writer, sessionID string, index int) (int64, error) {
	chunk, err := a.store.Read(sessionID, index)
	if err != nil {
		return 0, domain.NewAppError(domain.ErrCodeAssemblyFailed, "failed to read chunk").WithError(err).
			WithDetails("index", index)
	}
	defer chunk.Close()

	data, err := io.ReadAll(chunk)
	if err != nil {
		return 0, domain.NewAppError(domain.ErrCodeAssemblyFailed, "failed to read chunk").WithError(err).
			WithDetails("index", index)
	}

	var src io.Reader = bytes.NewReader(data)
	if mimetype.Detect(data).Is("application/gzip") {
		gz, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return 0, domain.NewAppError(domain.ErrCodeAssemblyFailed, "failed to decompress chunk").WithError(err).
				WithDetails("index", index)
		}
		defer gz.Close()
		src = gz
	}

	written, err := io.Copy(dest, src)
	if err != nil {
		return 0, domain.NewAppError(domain.ErrCodeAssemblyFailed, "failed to append chunk").WithError(err).
			WithDetails("index", index)
	}
	return written, nil
}
