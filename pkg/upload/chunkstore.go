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
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/guestsnap/guestsnap/pkg/domain"
)

const chunkPrefix = "chunk_"

// Store persists individual chunks under a per-session scratch directory,
// one file per index. Session IDs are globally unique, so no two sessions
// ever share a directory.
type Store struct {
	fs   afero.Fs
	root string
}

// NewStore creates a chunk store rooted at dir.
func NewStore(fs afero.Fs, dir string) *Store {
	return &Store{fs: fs, root: dir}
}

func (s *Store) sessionDir(sessionID string) string {
	return filepath.Join(s.root, sessionID)
}

func (s *Store) chunkPath(sessionID string, index int) string {
	return filepath.Join(s.sessionDir(sessionID), fmt.Sprintf("%s%06d", chunkPrefix, index))
}

// Write persists one chunk. The bytes land in a temp file first and are
// renamed into place, so a chunk file is never observed half-written and
// rewriting the same index atomically replaces it (last write wins).
func (s *Store) Write(sessionID string, index int, r io.Reader) (int64, error) {
	dir := s.sessionDir(sessionID)
	if err := s.fs.MkdirAll(dir, 0o750); err != nil {
		return 0, domain.NewAppError(domain.ErrCodeStorageIO, "failed to create chunk directory").WithError(err)
	}

	tmp, err := afero.TempFile(s.fs, dir, ".partial_*")
	if err != nil {
		return 0, domain.NewAppError(domain.ErrCodeStorageIO, "failed to create chunk file").WithError(err)
	}

	written, err := io.Copy(tmp, r)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = s.fs.Remove(tmp.Name())
		return 0, domain.NewAppError(domain.ErrCodeStorageIO, "failed to write chunk").WithError(err)
	}

	if err := s.fs.Rename(tmp.Name(), s.chunkPath(sessionID, index)); err != nil {
		_ = s.fs.Remove(tmp.Name())
		return 0, domain.NewAppError(domain.ErrCodeStorageIO, "failed to place chunk").WithError(err)
	}

	return written, nil
}

// Read opens one chunk for reading.
func (s *Store) Read(sessionID string, index int) (io.ReadCloser, error) {
	f, err := s.fs.Open(s.chunkPath(sessionID, index))
	if err != nil {
		return nil, domain.NewAppError(domain.ErrCodeStorageIO,
			fmt.Sprintf("failed to open chunk %d", index)).WithError(err)
	}
	return f, nil
}

// Missing computes which of the indices 1..total have no chunk file on disk.
// This is the authoritative completeness check, independent of the registry's
// in-memory set.
func (s *Store) Missing(sessionID string, total int) ([]int, error) {
	present := make(map[int]struct{})

	entries, err := afero.ReadDir(s.fs, s.sessionDir(sessionID))
	if err != nil && !os.IsNotExist(err) {
		return nil, domain.NewAppError(domain.ErrCodeStorageIO, "failed to list chunk directory").WithError(err)
	}
	for _, entry := range entries {
		var index int
		if _, err := fmt.Sscanf(entry.Name(), chunkPrefix+"%d", &index); err == nil {
			present[index] = struct{}{}
		}
	}

	var missing []int
	for i := 1; i <= total; i++ {
		if _, ok := present[i]; !ok {
			missing = append(missing, i)
		}
	}
	sort.Ints(missing)
	return missing, nil
}

// BytesOnDisk returns the summed size of all chunk files for the session,
// used to enforce the maximum file size against what actually arrived.
func (s *Store) BytesOnDisk(sessionID string) (int64, error) {
	entries, err := afero.ReadDir(s.fs, s.sessionDir(sessionID))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, domain.NewAppError(domain.ErrCodeStorageIO, "failed to list chunk directory").WithError(err)
	}

	var total int64
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), chunkPrefix) {
			total += entry.Size()
		}
	}
	return total, nil
}

// Purge removes the session's chunk directory. Purging a directory that is
// already gone is not an error.
func (s *Store) Purge(sessionID string) error {
	if err := s.fs.RemoveAll(s.sessionDir(sessionID)); err != nil && !os.IsNotExist(err) {
		return domain.NewAppError(domain.ErrCodeStorageIO, "failed to purge chunk directory").WithError(err)
	}
	return nil
}
