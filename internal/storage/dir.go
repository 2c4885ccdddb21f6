package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/san-kum/atomscene/internal/errs"
)

const (
	metadataFile = "metadata.json"
	stateFile    = "state.json"
)

// DirStore lays entries out as <dir>/<name>/metadata.json and state.json.
type DirStore struct {
	baseDir string
}

func NewDirStore(baseDir string) *DirStore {
	return &DirStore{baseDir: baseDir}
}

func (s *DirStore) Init() error {
	return errs.IO("mkdir", s.baseDir, os.MkdirAll(s.baseDir, 0755))
}

func (s *DirStore) Put(name string, blob []byte) (Entry, error) {
	if err := checkName(name); err != nil {
		return Entry{}, err
	}
	dir := filepath.Join(s.baseDir, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return Entry{}, errs.IO("mkdir", dir, err)
	}

	meta := Entry{
		ID:    uuid.NewString(),
		Name:  name,
		Saved: time.Now().UTC(),
		Size:  len(blob),
	}

	statePath := filepath.Join(dir, stateFile)
	if err := os.WriteFile(statePath, blob, 0644); err != nil {
		return Entry{}, errs.IO("write", statePath, err)
	}

	metaPath := filepath.Join(dir, metadataFile)
	metaFile, err := os.Create(metaPath)
	if err != nil {
		return Entry{}, errs.IO("create", metaPath, err)
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return Entry{}, errs.IO("write", metaPath, err)
	}
	return meta, nil
}

func (s *DirStore) Get(name string) ([]byte, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	path := filepath.Join(s.baseDir, name, stateFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, notFound(name)
		}
		return nil, errs.IO("read", path, err)
	}
	return data, nil
}

// List skips directories without readable metadata.
func (s *DirStore) List() ([]Entry, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Entry{}, nil
		}
		return nil, errs.IO("list", s.baseDir, err)
	}

	out := make([]Entry, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.baseDir, entry.Name(), metadataFile))
		if err != nil {
			continue
		}
		var meta Entry
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}
		out = append(out, meta)
	}
	sortEntries(out)
	return out, nil
}

func (s *DirStore) Close() error { return nil }
