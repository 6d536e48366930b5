package cfg_test

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guestsnap/guestsnap/pkg/cfg"
)

func TestLoad_Defaults(t *testing.T) {
	fs := afero.NewMemMapFs()

	settings, err := cfg.Load(fs)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", settings.Addr())
	assert.Equal(t, int64(5*1024*1024), settings.ChunkSizeBytes())
	assert.Equal(t, int64(2*1024*1024*1024), settings.MaxFileSizeBytes())
	assert.Equal(t, 24*time.Hour, settings.StaleWindow)
	assert.Equal(t, 30*time.Minute, settings.EvictInterval)
	assert.NotEmpty(t, settings.UploadRoot)

	exists, err := afero.DirExists(fs, settings.ScratchDir)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("GUESTSNAP_PORT", "9090")
	t.Setenv("GUESTSNAP_UPLOAD_ROOT", "/srv/party/uploads")
	t.Setenv("GUESTSNAP_CHUNK_SIZE", "1MiB")
	t.Setenv("GUESTSNAP_MAX_FILE_SIZE", "100MiB")
	t.Setenv("GUESTSNAP_STALE_WINDOW", "1h")

	fs := afero.NewMemMapFs()
	settings, err := cfg.Load(fs)
	require.NoError(t, err)

	assert.Equal(t, 9090, settings.Port)
	assert.Equal(t, "/srv/party/uploads", settings.UploadRoot)
	assert.Equal(t, "/srv/party/uploads/.scratch", settings.ScratchDir)
	assert.Equal(t, int64(1024*1024), settings.ChunkSizeBytes())
	assert.Equal(t, time.Hour, settings.StaleWindow)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad port", "GUESTSNAP_PORT", "70000"},
		{"bad chunk size", "GUESTSNAP_CHUNK_SIZE", "lots"},
		{"chunk larger than max", "GUESTSNAP_CHUNK_SIZE", "3GiB"},
		{"zero max size", "GUESTSNAP_MAX_FILE_SIZE", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := cfg.Load(afero.NewMemMapFs())
			assert.Error(t, err)
		})
	}
}
