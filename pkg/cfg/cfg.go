package cfg

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/adrg/xdg"
	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	"github.com/spf13/afero"

	"github.com/guestsnap/guestsnap/pkg/logging"
)

// Settings holds the kiosk configuration, loaded from the environment with
// GUESTSNAP_* variables. A .env file in the working directory is honored
// before the environment is read.
type Settings struct {
	Host string `env:"GUESTSNAP_HOST,default=0.0.0.0"`
	Port int    `env:"GUESTSNAP_PORT,default=8080"`

	// PublicURL is the address guests reach after scanning the QR code.
	PublicURL string `env:"GUESTSNAP_PUBLIC_URL"`

	// UploadRoot is where guest folders live; defaults under XDG data home.
	UploadRoot string `env:"GUESTSNAP_UPLOAD_ROOT"`

	// ScratchDir holds in-flight chunk directories; defaults under UploadRoot.
	ScratchDir string `env:"GUESTSNAP_SCRATCH_DIR"`

	// GalleryDB is the sqlite file recording completed uploads.
	GalleryDB string `env:"GUESTSNAP_GALLERY_DB"`

	// Human-readable sizes, e.g. "5MiB", "2GiB"
	ChunkSize   string `env:"GUESTSNAP_CHUNK_SIZE,default=5MiB"`
	MaxFileSize string `env:"GUESTSNAP_MAX_FILE_SIZE,default=2GiB"`

	StaleWindow   time.Duration `env:"GUESTSNAP_STALE_WINDOW,default=24h"`
	EvictInterval time.Duration `env:"GUESTSNAP_EVICT_INTERVAL,default=30m"`

	Extras env.EnvSet

	chunkSizeBytes   int64
	maxFileSizeBytes int64
}

// Load reads a .env file if present, unmarshals the environment and fills in
// directory defaults, creating the upload and scratch directories.
func Load(fs afero.Fs) (*Settings, error) {
	if err := godotenv.Load(); err == nil {
		logging.Debug("loaded settings overrides from .env")
	}

	var settings Settings
	es, err := env.UnmarshalFromEnviron(&settings)
	if err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	settings.Extras = es

	if settings.UploadRoot == "" {
		settings.UploadRoot = filepath.Join(xdg.DataHome, "guestsnap", "uploads")
	}
	if settings.ScratchDir == "" {
		settings.ScratchDir = filepath.Join(settings.UploadRoot, ".scratch")
	}
	if settings.GalleryDB == "" {
		settings.GalleryDB = filepath.Join(filepath.Dir(settings.UploadRoot), "gallery.db")
	}

	if err := settings.validate(); err != nil {
		return nil, err
	}

	for _, dir := range []string{settings.UploadRoot, settings.ScratchDir} {
		if err := fs.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	logging.Info("settings loaded",
		"upload-root", settings.UploadRoot,
		"chunk-size", settings.ChunkSize,
		"max-file-size", settings.MaxFileSize)

	return &settings, nil
}

func (s *Settings) validate() error {
	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("invalid port %d", s.Port)
	}

	chunkSize, err := humanize.ParseBytes(s.ChunkSize)
	if err != nil {
		return fmt.Errorf("invalid chunk size %q: %w", s.ChunkSize, err)
	}
	maxFileSize, err := humanize.ParseBytes(s.MaxFileSize)
	if err != nil {
		return fmt.Errorf("invalid max file size %q: %w", s.MaxFileSize, err)
	}
	if chunkSize == 0 || maxFileSize == 0 {
		return errors.New("chunk size and max file size must be positive")
	}
	if chunkSize > maxFileSize {
		return errors.New("chunk size cannot exceed max file size")
	}
	s.chunkSizeBytes = int64(chunkSize)
	s.maxFileSizeBytes = int64(maxFileSize)

	if s.StaleWindow <= 0 || s.EvictInterval <= 0 {
		return errors.New("stale window and evict interval must be positive")
	}
	return nil
}

// ChunkSizeBytes returns the parsed chunk size.
func (s *Settings) ChunkSizeBytes() int64 {
	return s.chunkSizeBytes
}

// MaxFileSizeBytes returns the parsed maximum file size.
func (s *Settings) MaxFileSizeBytes() int64 {
	return s.maxFileSizeBytes
}

// Addr returns the host:port the server listens on.
func (s *Settings) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
