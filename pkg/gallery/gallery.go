package gallery

import (
	"archive/zip"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/guestsnap/guestsnap/pkg/domain"
	"github.com/guestsnap/guestsnap/pkg/logging"
)

// Gallery exposes the finished uploads: folder listing straight off the
// filesystem (so files copied in out of band still show up), the ledger for
// history and stats, and zip export for taking a guest's folder home.
type Gallery struct {
	fs     afero.Fs
	root   string
	ledger *Ledger
	logger *logging.Logger
}

// New creates a gallery over the upload root.
func New(fs afero.Fs, root string, ledger *Ledger, logger *logging.Logger) *Gallery {
	return &Gallery{fs: fs, root: root, ledger: ledger, logger: logger}
}

// Ledger returns the underlying upload ledger.
func (g *Gallery) Ledger() *Ledger {
	return g.ledger
}

// Record is the upload service's completion hook.
func (g *Gallery) Record(file domain.StoredFile) {
	if err := g.ledger.Record(file); err != nil {
		g.logger.Error("failed to record upload in gallery ledger", "file", file.Filename, "error", err)
	}
}

// Owners lists the guest folders, sorted. Dot-directories (the chunk scratch
// space lives under the root) are not guest folders.
func (g *Gallery) Owners() ([]string, error) {
	entries, err := afero.ReadDir(g.fs, g.root)
	if err != nil {
		return nil, fmt.Errorf("failed to list upload root: %w", err)
	}

	var owners []string
	for _, entry := range entries {
		if entry.IsDir() && !strings.HasPrefix(entry.Name(), ".") {
			owners = append(owners, entry.Name())
		}
	}
	sort.Strings(owners)
	return owners, nil
}

// Files lists one guest folder's files, sorted by name.
func (g *Gallery) Files(owner string) ([]domain.StoredFile, error) {
	// Listing is disk-based, but reject anything that escapes the root.
	owner = filepath.Base(owner)
	if owner == "." || owner == ".." || owner == "" || strings.HasPrefix(owner, ".") {
		return nil, fmt.Errorf("invalid guest folder %q", owner)
	}
	dir := filepath.Join(g.root, owner)

	entries, err := afero.ReadDir(g.fs, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list guest folder: %w", err)
	}

	var files []domain.StoredFile
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		files = append(files, domain.StoredFile{
			Owner:      owner,
			Filename:   entry.Name(),
			Path:       filepath.Join(dir, entry.Name()),
			Size:       entry.Size(),
			UploadedAt: entry.ModTime(),
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Filename < files[j].Filename })
	return files, nil
}

// WriteZip streams a zip archive of one guest folder, or of every folder when
// owner is empty. Media files are stored uncompressed; they do not deflate.
func (g *Gallery) WriteZip(w io.Writer, owner string) error {
	owners := []string{filepath.Base(owner)}
	if owner == "" {
		all, err := g.Owners()
		if err != nil {
			return err
		}
		owners = all
	}

	zw := zip.NewWriter(w)
	for _, o := range owners {
		files, err := g.Files(o)
		if err != nil {
			return err
		}
		for _, file := range files {
			if err := g.addZipEntry(zw, o, file); err != nil {
				return err
			}
		}
	}
	return zw.Close()
}

func (g *Gallery) addZipEntry(zw *zip.Writer, owner string, file domain.StoredFile) error {
	header := &zip.FileHeader{
		Name:     path.Join(owner, file.Filename),
		Method:   zip.Store,
		Modified: file.UploadedAt,
	}
	entry, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("failed to create zip entry: %w", err)
	}

	src, err := g.fs.Open(file.Path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", file.Filename, err)
	}
	defer src.Close()

	if _, err := io.Copy(entry, src); err != nil {
		return fmt.Errorf("failed to write zip entry: %w", err)
	}
	return nil
}
