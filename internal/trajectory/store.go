// Package trajectory holds the loaded frames and the current frame index.
package trajectory

import (
	"fmt"

	"github.com/san-kum/atomscene/internal/atoms"
	"github.com/san-kum/atomscene/internal/errs"
)

// Store is an ordered list of configurations plus the active frame.
// Generation increases whenever frame content changes, so scene builds can
// tell a moved index from new data.
type Store struct {
	frames     []*atoms.Configuration
	current    int
	generation uint64
}

func New() *Store { return &Store{} }

func (s *Store) Len() int           { return len(s.frames) }
func (s *Store) Index() int         { return s.current }
func (s *Store) Generation() uint64 { return s.generation }
func (s *Store) Empty() bool        { return len(s.frames) == 0 }

// Frames returns the frames. Configurations are shared and must not be
// modified.
func (s *Store) Frames() []*atoms.Configuration { return s.frames }

// Current returns the active configuration, or ErrEmptyConfiguration when
// nothing is loaded.
func (s *Store) Current() (*atoms.Configuration, error) {
	if len(s.frames) == 0 {
		return nil, errs.ErrEmptyConfiguration
	}
	return s.frames[s.current], nil
}

func (s *Store) Frame(i int) (*atoms.Configuration, error) {
	if i < 0 || i >= len(s.frames) {
		return nil, errs.Reference("frame %d out of range [0,%d)", i, len(s.frames))
	}
	return s.frames[i], nil
}

// Load replaces all frames and rewinds to the first.
func (s *Store) Load(frames []*atoms.Configuration) error {
	for i, f := range frames {
		if err := f.Validate(); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
	}
	s.frames = append([]*atoms.Configuration(nil), frames...)
	s.current = 0
	s.generation++
	return nil
}

// Append adds frames after the existing ones without moving the index.
func (s *Store) Append(frames ...*atoms.Configuration) error {
	for i, f := range frames {
		if err := f.Validate(); err != nil {
			return fmt.Errorf("frame %d: %w", len(s.frames)+i, err)
		}
	}
	s.frames = append(s.frames, frames...)
	s.generation++
	return nil
}

// Replace swaps frame i for cfg.
func (s *Store) Replace(i int, cfg *atoms.Configuration) error {
	if _, err := s.Frame(i); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.frames[i] = cfg
	s.generation++
	return nil
}

// Go moves to frame i. Negative indices count from the end.
func (s *Store) Go(i int) error {
	if i < 0 {
		i += len(s.frames)
	}
	if _, err := s.Frame(i); err != nil {
		return err
	}
	s.current = i
	return nil
}

// Step moves by delta frames, clamping at both ends.
func (s *Store) Step(delta int) error {
	if len(s.frames) == 0 {
		return errs.ErrEmptyConfiguration
	}
	s.current = max(0, min(len(s.frames)-1, s.current+delta))
	return nil
}

// Clone returns a draft that can be mutated without touching s. Frames
// are shared.
func (s *Store) Clone() *Store {
	return &Store{
		frames:     append([]*atoms.Configuration(nil), s.frames...),
		current:    s.current,
		generation: s.generation,
	}
}
