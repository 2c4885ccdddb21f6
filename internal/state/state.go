// Package state saves and restores a whole viewer session as one
// versioned blob: settings, frames, the active frame and opaque view
// parameters. Window geometry is never part of a blob.
package state

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/san-kum/atomscene/internal/atoms"
	"github.com/san-kum/atomscene/internal/errs"
	"github.com/san-kum/atomscene/internal/ioformat"
	"github.com/san-kum/atomscene/internal/settings"
)

const (
	Format  = "atomscene-state"
	Version = 1
)

// Snapshot is what a blob holds.
type Snapshot struct {
	Settings *settings.State
	Frames   []*atoms.Configuration
	Frame    int
	// View is passed through untouched to and from the renderer.
	View  []float64
	Views map[string][]float64
}

type blob struct {
	Format   string                 `json:"format"`
	Version  int                    `json:"version"`
	Settings *settings.State        `json:"settings"`
	Frames   []*atoms.Configuration `json:"frames"`
	Frame    int                    `json:"frame"`
	View     []float64              `json:"view,omitempty"`
	Views    map[string][]float64   `json:"views,omitempty"`
}

// Save encodes s.
func Save(s *Snapshot) ([]byte, error) {
	if s.Settings == nil {
		return nil, errs.Invalid("cannot save state without settings")
	}
	var buf bytes.Buffer
	if err := Encode(&buf, s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func Encode(w io.Writer, s *Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	err := enc.Encode(blob{
		Format:   Format,
		Version:  Version,
		Settings: s.Settings,
		Frames:   s.Frames,
		Frame:    s.Frame,
		View:     s.View,
		Views:    s.Views,
	})
	if err != nil {
		return fmt.Errorf("%w: encode state: %v", errs.ErrIOFailure, err)
	}
	return nil
}

// Restore decodes a blob written by Save. Malformed blobs, foreign formats
// and unknown versions fail with ErrIOFailure.
func Restore(data []byte) (*Snapshot, error) {
	return Decode(bytes.NewReader(data))
}

func Decode(r io.Reader) (*Snapshot, error) {
	var b blob
	dec := json.NewDecoder(r)
	if err := dec.Decode(&b); err != nil {
		return nil, fmt.Errorf("%w: decode state: %v", errs.ErrIOFailure, err)
	}
	if b.Format != Format {
		return nil, fmt.Errorf("%w: not a state blob (format %q)", errs.ErrIOFailure, b.Format)
	}
	if b.Version != Version {
		return nil, fmt.Errorf("%w: unsupported state version %d", errs.ErrIOFailure, b.Version)
	}
	if b.Settings == nil {
		return nil, fmt.Errorf("%w: state blob has no settings", errs.ErrIOFailure)
	}
	for i, f := range b.Frames {
		if err := f.Validate(); err != nil {
			return nil, fmt.Errorf("%w: frame %d: %v", errs.ErrIOFailure, i, err)
		}
	}
	if len(b.Frames) > 0 && (b.Frame < 0 || b.Frame >= len(b.Frames)) {
		return nil, fmt.Errorf("%w: frame index %d out of range", errs.ErrIOFailure, b.Frame)
	}
	return &Snapshot{
		Settings: b.Settings,
		Frames:   b.Frames,
		Frame:    b.Frame,
		View:     b.View,
		Views:    b.Views,
	}, nil
}

// WriteFile saves s to path, gzipped when path ends in .gz.
func WriteFile(path string, s *Snapshot) error {
	w, err := ioformat.Create(path)
	if err != nil {
		return err
	}
	if err := Encode(w, s); err != nil {
		w.Close()
		return errs.IO("write", path, err)
	}
	return errs.IO("write", path, w.Close())
}

// ReadFile restores the blob at path, gzipped or not.
func ReadFile(path string) (*Snapshot, error) {
	r, err := ioformat.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	s, err := Decode(r)
	if err != nil {
		return nil, errs.IO("read", path, err)
	}
	return s, nil
}
