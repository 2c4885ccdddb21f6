package ioformat

import (
	"github.com/san-kum/atomscene/internal/errs"
	"github.com/san-kum/atomscene/internal/volume"
)

// ReadVolume reads a grid in the native volumetric format, or a VASP
// charge density when the file name ends in CHGCAR.
func ReadVolume(path string) (*volume.Grid, error) {
	rc, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	parse := volume.Parse
	if IsCHGCAR(path) {
		parse = ReadCHGCAR
	}
	g, err := parse(rc)
	if err != nil {
		return nil, errs.IO("parse", path, err)
	}
	return g, nil
}
