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

package upload_test

import (
	"bytes"
	"compress/gzip"
	"errors"
	"math/rand"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guestsnap/guestsnap/pkg/domain"
	"github.com/guestsnap/guestsnap/pkg/upload"
)

func gzipBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write(data)
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

func TestAssembler_OrderByIndexNotArrival(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := upload.NewStore(fs, "/scratch")
	asm := upload.NewAssembler(fs, store)

	source := make([]byte, 10*1024)
	_, err := rand.New(rand.NewSource(42)).Read(source)
	require.NoError(t, err)

	// Split into 7 chunks and upload in a shuffled order
	const total = 7
	chunkLen := (len(source) + total - 1) / total
	order := rand.New(rand.NewSource(7)).Perm(total)
	for _, i := range order {
		start := i * chunkLen
		end := start + chunkLen
		if end > len(source) {
			end = len(source)
		}
		_, err := store.Write("s", i+1, bytes.NewReader(source[start:end]))
		require.NoError(t, err)
	}

	size, err := asm.Assemble("s", total, "/final/out.jpg")
	require.NoError(t, err)
	assert.Equal(t, int64(len(source)), size)

	got, err := afero.ReadFile(fs, "/final/out.jpg")
	require.NoError(t, err)
	assert.True(t, bytes.Equal(source, got), "assembled bytes must equal the pre-split source")
}

func TestAssembler_GzipChunksDecompressed(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := upload.NewStore(fs, "/scratch")
	asm := upload.NewAssembler(fs, store)

	// Mixed raw and gzip chunks in the same session
	_, err := store.Write("s", 1, bytes.NewReader([]byte("raw-one,")))
	require.NoError(t, err)
	_, err = store.Write("s", 2, bytes.NewReader(gzipBytes(t, []byte("packed-two,"))))
	require.NoError(t, err)
	_, err = store.Write("s", 3, bytes.NewReader([]byte("raw-three")))
	require.NoError(t, err)

	size, err := asm.Assemble("s", 3, "/final/mixed.jpg")
	require.NoError(t, err)

	got, err := afero.ReadFile(fs, "/final/mixed.jpg")
	require.NoError(t, err)
	assert.Equal(t, "raw-one,packed-two,raw-three", string(got))
	assert.Equal(t, int64(len(got)), size)
}

func TestAssembler_IncompleteLeavesChunksIntact(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := upload.NewStore(fs, "/scratch")
	asm := upload.NewAssembler(fs, store)

	_, err := store.Write("s", 1, bytes.NewReader([]byte("one")))
	require.NoError(t, err)
	_, err = store.Write("s", 4, bytes.NewReader([]byte("four")))
	require.NoError(t, err)

	_, err = asm.Assemble("s", 4, "/final/gap.jpg")
	require.Error(t, err)

	var appErr *domain.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, domain.ErrCodeIncompleteUpload, appErr.Code)
	assert.Equal(t, []int{2, 3}, appErr.Details["missing"])

	// No partial destination, all chunks retrievable
	exists, err := afero.Exists(fs, "/final/gap.jpg")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t, []byte("one"), readChunk(t, store, "s", 1))
	assert.Equal(t, []byte("four"), readChunk(t, store, "s", 4))
}

func TestAssembler_EmptyResultIsFailure(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := upload.NewStore(fs, "/scratch")
	asm := upload.NewAssembler(fs, store)

	_, err := store.Write("s", 1, bytes.NewReader(nil))
	require.NoError(t, err)

	_, err = asm.Assemble("s", 1, "/final/empty.jpg")
	require.Error(t, err)

	var appErr *domain.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, domain.ErrCodeAssemblyFailed, appErr.Code)

	exists, err := afero.Exists(fs, "/final/empty.jpg")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestAssembler_CorruptGzipRemovesPartialFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := upload.NewStore(fs, "/scratch")
	asm := upload.NewAssembler(fs, store)

	_, err := store.Write("s", 1, bytes.NewReader([]byte("good")))
	require.NoError(t, err)
	// Gzip magic bytes followed by garbage
	_, err = store.Write("s", 2, bytes.NewReader([]byte{0x1f, 0x8b, 0xff, 0x00, 0xde, 0xad}))
	require.NoError(t, err)

	_, err = asm.Assemble("s", 2, "/final/broken.jpg")
	require.Error(t, err)

	var appErr *domain.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, domain.ErrCodeAssemblyFailed, appErr.Code)

	exists, err := afero.Exists(fs, "/final/broken.jpg")
	require.NoError(t, err)
	assert.False(t, exists, "partial destination must be deleted on failure")
}
