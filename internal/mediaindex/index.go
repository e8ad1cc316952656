// Package mediaindex keeps a SQLite catalog of media files on the device.
// It plays the part of the platform media store: photo scans query it and
// deletions must remove the matching record.
package mediaindex

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	_ "github.com/mattn/go-sqlite3"
)

// ErrRecordNotFound is returned when a record does not exist
var ErrRecordNotFound = errors.New("media index record not found")

// Record is one catalogued media file
type Record struct {
	ID        string
	Name      string
	Path      string
	Size      int64
	DateTaken time.Time
}

// RecordID derives the stable record ID of a path
func RecordID(path string) string {
	return strconv.FormatUint(xxhash.Sum64String(filepath.Clean(path)), 16)
}

// Index is the media catalog
type Index struct {
	db *sql.DB
}

// Open opens or creates the catalog at dbPath. ":memory:" opens a private
// in-memory catalog.
func Open(dbPath string) (*Index, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("index path cannot be empty")
	}

	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create index directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}

	// Single connection: avoids "database is locked" and keeps :memory: shared
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode and busy timeout: %w", err)
	}

	idx := &Index{db: db}
	if err := idx.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return idx, nil
}

func (i *Index) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS images (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		path TEXT NOT NULL UNIQUE,
		size INTEGER NOT NULL DEFAULT 0,
		date_taken INTEGER NOT NULL DEFAULT 0,
		indexed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_images_date ON images(date_taken DESC);
	`

	_, err := i.db.Exec(schema)
	return err
}

// Close closes the catalog
func (i *Index) Close() error {
	return i.db.Close()
}

// Upsert inserts or replaces a record. An empty ID is derived from the path.
func (i *Index) Upsert(ctx context.Context, r Record) (Record, error) {
	if r.Path == "" {
		return Record{}, fmt.Errorf("record path cannot be empty")
	}
	if r.ID == "" {
		r.ID = RecordID(r.Path)
	}
	if r.Name == "" {
		r.Name = filepath.Base(r.Path)
	}

	query := `
		INSERT INTO images (id, name, path, size, date_taken)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			path = excluded.path,
			size = excluded.size,
			date_taken = excluded.date_taken,
			indexed_at = CURRENT_TIMESTAMP
	`

	if _, err := i.db.ExecContext(ctx, query, r.ID, r.Name, r.Path, r.Size, toMillis(r.DateTaken)); err != nil {
		return Record{}, fmt.Errorf("failed to save record %s: %w", r.Path, err)
	}
	return r, nil
}

// Images returns every record ordered by capture date, newest first
func (i *Index) Images(ctx context.Context) ([]Record, error) {
	query := `
		SELECT id, name, path, size, date_taken
		FROM images
		ORDER BY date_taken DESC, path ASC
	`

	rows, err := i.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query images: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating images: %w", err)
	}

	return records, nil
}

// Get returns the record with the given ID
func (i *Index) Get(ctx context.Context, id string) (Record, error) {
	row := i.db.QueryRowContext(ctx, `
		SELECT id, name, path, size, date_taken
		FROM images
		WHERE id = ?
	`, id)

	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}
	return r, err
}

// Remove deletes the record with the given ID. A missing record yields
// ErrRecordNotFound.
func (i *Index) Remove(ctx context.Context, id string) error {
	res, err := i.db.ExecContext(ctx, "DELETE FROM images WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to remove record %s: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to remove record %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}
	return nil
}

// Count returns the number of records
func (i *Index) Count(ctx context.Context) (int, error) {
	var n int
	if err := i.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM images").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var r Record
	var millis int64
	if err := row.Scan(&r.ID, &r.Name, &r.Path, &r.Size, &millis); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, err
		}
		return Record{}, fmt.Errorf("failed to scan record: %w", err)
	}
	r.DateTaken = fromMillis(millis)
	return r, nil
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
