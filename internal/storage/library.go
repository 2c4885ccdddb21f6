// Package storage keeps a library of named state blobs, either as one
// directory per entry or in a single SQLite database.
package storage

import (
	"sort"
	"strings"
	"time"

	"github.com/san-kum/atomscene/internal/errs"
)

// Entry describes one saved blob.
type Entry struct {
	ID    string    `json:"id"`
	Name  string    `json:"name"`
	Saved time.Time `json:"saved"`
	Size  int       `json:"size"`
}

// Library stores blobs under names. Put replaces an existing entry of the
// same name.
type Library interface {
	Put(name string, blob []byte) (Entry, error)
	Get(name string) ([]byte, error)
	List() ([]Entry, error)
	Close() error
}

func checkName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return errs.Invalid("invalid state name %q", name)
	}
	return nil
}

func notFound(name string) error {
	return errs.Reference("no saved state named %q", name)
}

func sortEntries(es []Entry) {
	sort.Slice(es, func(i, j int) bool { return es[i].Name < es[j].Name })
}
