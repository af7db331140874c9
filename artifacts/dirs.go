// Copyright 2026 The ESSnoop Authors
// This file is part of ESSnoop.
//
// ESSnoop is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// ESSnoop is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with ESSnoop. If not, see <http://www.gnu.org/licenses/>.

// Package artifacts keeps the per-contract files of a run (bytecode, opcode
// listing, CFG) under a work directory.
package artifacts

import (
	"errors"
	"path/filepath"
	"syscall"

	"github.com/gofrs/flock"
)

// Dirs is the layout of the work directory.
type Dirs struct {
	WorkDir  string
	Bytecode string
	Opcodes  string
	Analyzed string
}

func NewDirs(workDir string) (Dirs, error) {
	if workDir == "" {
		workDir = "."
	}
	abs, err := filepath.Abs(workDir)
	if err != nil {
		return Dirs{}, err
	}
	return Dirs{
		WorkDir:  abs,
		Bytecode: filepath.Join(abs, "bytecode"),
		Opcodes:  filepath.Join(abs, "opcodes"),
		Analyzed: filepath.Join(abs, "analyzed"),
	}, nil
}

func (d Dirs) all() []string { return []string{d.Bytecode, d.Opcodes, d.Analyzed} }

var (
	ErrWorkDirLocked = errors.New("work dir already used by another process")

	workDirInUseErrNos = map[uint]bool{11: true, 32: true, 35: true}
)

func convertFileLockError(err error) error {
	//nolint
	if errno, ok := err.(syscall.Errno); ok && workDirInUseErrNos[uint(errno)] {
		return ErrWorkDirLocked
	}
	return err
}

// TryFlock locks WorkDir/LOCK so two runs cannot share a work directory.
// The work directory must exist.
func TryFlock(dirs Dirs) (*flock.Flock, error) {
	l := flock.New(filepath.Join(dirs.WorkDir, "LOCK"))
	locked, err := l.TryLock()
	if err != nil {
		return nil, convertFileLockError(err)
	}
	if !locked {
		return nil, ErrWorkDirLocked
	}
	return l, nil
}
