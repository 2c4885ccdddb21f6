package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/san-kum/atomscene/internal/errs"
	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS states (
	id       TEXT PRIMARY KEY,
	name     TEXT NOT NULL UNIQUE,
	saved_at INTEGER NOT NULL,
	data     BLOB NOT NULL
)`

// SQLiteStore keeps every entry in one database file.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens or creates the library database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errs.Invalid("library path is required")
	}
	clean := filepath.Clean(path)
	db, err := sql.Open("sqlite", clean)
	if err != nil {
		return nil, errs.IO("open", clean, err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errs.IO("open", clean, err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, errs.IO("migrate", clean, err)
	}
	return &SQLiteStore{db: db, path: clean}, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) Put(name string, blob []byte) (Entry, error) {
	if err := checkName(name); err != nil {
		return Entry{}, err
	}
	e := Entry{
		ID:    uuid.NewString(),
		Name:  name,
		Saved: time.Now().UTC(),
		Size:  len(blob),
	}
	_, err := s.db.Exec(
		`INSERT INTO states (id, name, saved_at, data) VALUES (?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET
		   id = excluded.id,
		   saved_at = excluded.saved_at,
		   data = excluded.data`,
		e.ID, e.Name, e.Saved.UnixMilli(), blob,
	)
	if err != nil {
		return Entry{}, errs.IO("put", s.path, fmt.Errorf("state %q: %w", name, err))
	}
	e.Saved = time.UnixMilli(e.Saved.UnixMilli()).UTC()
	return e, nil
}

func (s *SQLiteStore) Get(name string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRow(`SELECT data FROM states WHERE name = ?`, name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(name)
	}
	if err != nil {
		return nil, errs.IO("get", s.path, err)
	}
	return data, nil
}

func (s *SQLiteStore) List() ([]Entry, error) {
	rows, err := s.db.Query(`SELECT id, name, saved_at, length(data) FROM states ORDER BY name`)
	if err != nil {
		return nil, errs.IO("list", s.path, err)
	}
	defer rows.Close()

	out := make([]Entry, 0)
	for rows.Next() {
		var (
			e     Entry
			saved int64
		)
		if err := rows.Scan(&e.ID, &e.Name, &saved, &e.Size); err != nil {
			return nil, errs.IO("list", s.path, err)
		}
		e.Saved = time.UnixMilli(saved).UTC()
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.IO("list", s.path, err)
	}
	sortEntries(out)
	return out, nil
}

// Open picks the backend by path: a .db/.sqlite file selects SQLite,
// anything else a directory library.
func Open(path string) (Library, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return OpenSQLite(path)
	}
	d := NewDirStore(path)
	if err := d.Init(); err != nil {
		return nil, err
	}
	return d, nil
}
