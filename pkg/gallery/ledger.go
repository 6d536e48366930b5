package gallery

import (
	"database/sql"
	"fmt"
	"time"

	// sqlite driver
	_ "github.com/mattn/go-sqlite3"

	"github.com/guestsnap/guestsnap/pkg/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS uploads (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	owner         TEXT NOT NULL,
	filename      TEXT NOT NULL,
	path          TEXT NOT NULL,
	size          INTEGER NOT NULL,
	content_type  TEXT NOT NULL,
	uploaded_at   TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_uploads_owner ON uploads(owner);
CREATE INDEX IF NOT EXISTS idx_uploads_uploaded_at ON uploads(uploaded_at);
`

// Ledger is the durable record of completed uploads. Sessions are memory-only
// but the gallery survives restarts, so finished files are written here at
// completion time.
type Ledger struct {
	db *sql.DB
}

// OpenLedger opens (and if needed initializes) the sqlite ledger at path.
// Use ":memory:" for tests.
func OpenLedger(path string) (*Ledger, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open gallery ledger: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize gallery ledger: %w", err)
	}
	return &Ledger{db: db}, nil
}

// Close closes the underlying database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Record inserts one completed upload.
func (l *Ledger) Record(file domain.StoredFile) error {
	_, err := l.db.Exec(
		`INSERT INTO uploads (owner, filename, path, size, content_type, uploaded_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		file.Owner, file.Filename, file.Path, file.Size, file.ContentType, file.UploadedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record upload: %w", err)
	}
	return nil
}

// Recent returns the newest uploads across all guests, newest first.
func (l *Ledger) Recent(limit int) ([]domain.StoredFile, error) {
	rows, err := l.db.Query(
		`SELECT owner, filename, path, size, content_type, uploaded_at
		 FROM uploads ORDER BY uploaded_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query uploads: %w", err)
	}
	defer rows.Close()
	return scanFiles(rows)
}

// ForOwner returns one guest's uploads, newest first.
func (l *Ledger) ForOwner(owner string) ([]domain.StoredFile, error) {
	rows, err := l.db.Query(
		`SELECT owner, filename, path, size, content_type, uploaded_at
		 FROM uploads WHERE owner = ? ORDER BY uploaded_at DESC, id DESC`, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to query uploads: %w", err)
	}
	defer rows.Close()
	return scanFiles(rows)
}

// Stats summarizes the whole gallery.
type Stats struct {
	Files  int   `json:"files"`
	Guests int   `json:"guests"`
	Bytes  int64 `json:"bytes"`
}

// Stats returns gallery-wide totals.
func (l *Ledger) Stats() (Stats, error) {
	var s Stats
	err := l.db.QueryRow(
		`SELECT COUNT(*), COUNT(DISTINCT owner), COALESCE(SUM(size), 0) FROM uploads`,
	).Scan(&s.Files, &s.Guests, &s.Bytes)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to query gallery stats: %w", err)
	}
	return s, nil
}

func scanFiles(rows *sql.Rows) ([]domain.StoredFile, error) {
	var files []domain.StoredFile
	for rows.Next() {
		var f domain.StoredFile
		var uploadedAt time.Time
		if err := rows.Scan(&f.Owner, &f.Filename, &f.Path, &f.Size, &f.ContentType, &uploadedAt); err != nil {
			return nil, fmt.Errorf("failed to scan upload row: %w", err)
		}
		f.UploadedAt = uploadedAt
		files = append(files, f)
	}
	return files, rows.Err()
}
