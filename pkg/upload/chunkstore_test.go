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
	"io"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guestsnap/guestsnap/pkg/upload"
)

func readChunk(t *testing.T, store *upload.Store, sessionID string, index int) []byte {
	t.Helper()
	rc, err := store.Read(sessionID, index)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	return data
}

func TestStore_WriteAndRead(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := upload.NewStore(fs, "/scratch")

	written, err := store.Write("session-1", 1, strings.NewReader("hello"))
	require.NoError(t, err)
	assert.Equal(t, int64(5), written)

	assert.Equal(t, []byte("hello"), readChunk(t, store, "session-1", 1))
}

func TestStore_OverwriteLastWriteWins(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := upload.NewStore(fs, "/scratch")

	_, err := store.Write("session-1", 2, strings.NewReader("first"))
	require.NoError(t, err)
	_, err = store.Write("session-1", 2, strings.NewReader("second"))
	require.NoError(t, err)

	assert.Equal(t, []byte("second"), readChunk(t, store, "session-1", 2))

	// Overwriting never leaves a second chunk file behind
	missing, err := store.Missing("session-1", 2)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, missing)
}

func TestStore_Missing(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := upload.NewStore(fs, "/scratch")

	t.Run("nothing on disk", func(t *testing.T) {
		missing, err := store.Missing("untouched", 3)
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2, 3}, missing)
	})

	t.Run("partial", func(t *testing.T) {
		_, err := store.Write("session-1", 1, bytes.NewReader([]byte{1}))
		require.NoError(t, err)
		_, err = store.Write("session-1", 3, bytes.NewReader([]byte{3}))
		require.NoError(t, err)

		missing, err := store.Missing("session-1", 4)
		require.NoError(t, err)
		assert.Equal(t, []int{2, 4}, missing)
	})

	t.Run("complete", func(t *testing.T) {
		_, err := store.Write("session-1", 2, bytes.NewReader([]byte{2}))
		require.NoError(t, err)
		_, err = store.Write("session-1", 4, bytes.NewReader([]byte{4}))
		require.NoError(t, err)

		missing, err := store.Missing("session-1", 4)
		require.NoError(t, err)
		assert.Empty(t, missing)
	})
}

func TestStore_BytesOnDisk(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := upload.NewStore(fs, "/scratch")

	size, err := store.BytesOnDisk("session-1")
	require.NoError(t, err)
	assert.Zero(t, size)

	_, err = store.Write("session-1", 1, strings.NewReader("12345"))
	require.NoError(t, err)
	_, err = store.Write("session-1", 2, strings.NewReader("678"))
	require.NoError(t, err)

	size, err = store.BytesOnDisk("session-1")
	require.NoError(t, err)
	assert.Equal(t, int64(8), size)
}

func TestStore_Purge(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := upload.NewStore(fs, "/scratch")

	_, err := store.Write("session-1", 1, strings.NewReader("data"))
	require.NoError(t, err)

	require.NoError(t, store.Purge("session-1"))
	exists, err := afero.DirExists(fs, "/scratch/session-1")
	require.NoError(t, err)
	assert.False(t, exists)

	// Idempotent: purging again is fine
	require.NoError(t, store.Purge("session-1"))
	require.NoError(t, store.Purge("never-existed"))
}

func TestStore_SessionsAreIsolated(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := upload.NewStore(fs, "/scratch")

	_, err := store.Write("a", 1, strings.NewReader("aaa"))
	require.NoError(t, err)
	_, err = store.Write("b", 1, strings.NewReader("bbb"))
	require.NoError(t, err)

	require.NoError(t, store.Purge("a"))
	assert.Equal(t, []byte("bbb"), readChunk(t, store, "b", 1))
}
