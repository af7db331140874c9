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

package artifacts

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

type Kind uint8

const (
	Bytecode Kind = iota // hex text with 0x prefix
	Opcodes              // one instruction per line
	CFG                  // EtherSolve JSON
	Dot                  // Graphviz rendering of the CFG
)

func (k Kind) String() string {
	switch k {
	case Bytecode:
		return "bytecode"
	case Opcodes:
		return "opcodes"
	case CFG:
		return "cfg"
	case Dot:
		return "dot"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

func (k Kind) ext() string {
	switch k {
	case Bytecode:
		return ".bytecode"
	case Opcodes:
		return ".opcodes"
	case CFG:
		return ".json"
	default:
		return ".dot"
	}
}

// Preserve selects which artifacts outlive a run. All implies Bytecode.
type Preserve struct {
	Bytecode bool
	All      bool
}

func (p Preserve) keeps(k Kind) bool {
	switch {
	case k == Dot, p.All:
		return true
	case k == Bytecode:
		return p.Bytecode
	default:
		return false
	}
}

type Store struct {
	fs       afero.Fs
	dirs     Dirs
	preserve Preserve
}

// NewStore creates the artifact directories on fs.
func NewStore(fs afero.Fs, dirs Dirs, preserve Preserve) (*Store, error) {
	for _, d := range dirs.all() {
		if err := fs.MkdirAll(d, 0o755); err != nil {
			return nil, err
		}
	}
	return &Store{fs: fs, dirs: dirs, preserve: preserve}, nil
}

func (s *Store) Dirs() Dirs { return s.dirs }

func (s *Store) dir(k Kind) string {
	switch k {
	case Bytecode:
		return s.dirs.Bytecode
	case Opcodes:
		return s.dirs.Opcodes
	default:
		return s.dirs.Analyzed
	}
}

// Path is where the artifact of kind k for addr lives.
func (s *Store) Path(k Kind, addr common.Address) string {
	return filepath.Join(s.dir(k), addr.Hex()+k.ext())
}

// Exists reports whether a non-empty artifact is present.
func (s *Store) Exists(k Kind, addr common.Address) bool {
	fi, err := s.fs.Stat(s.Path(k, addr))
	return err == nil && fi.Mode().IsRegular() && fi.Size() > 0
}

func (s *Store) Read(k Kind, addr common.Address) ([]byte, error) {
	return afero.ReadFile(s.fs, s.Path(k, addr))
}

// Write stores data through a temporary file so readers never see a
// partial artifact.
func (s *Store) Write(k Kind, addr common.Address, data []byte) error {
	path := s.Path(k, addr)
	tmp := path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0o644); err != nil {
		return err
	}
	return s.fs.Rename(tmp, path)
}

func (s *Store) Remove(k Kind, addr common.Address) error {
	if err := s.fs.Remove(s.Path(k, addr)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Cleanup removes the artifacts of addr that are not preserved.
func (s *Store) Cleanup(addr common.Address) error {
	for _, k := range []Kind{Bytecode, Opcodes, CFG, Dot} {
		if s.preserve.keeps(k) {
			continue
		}
		if err := s.Remove(k, addr); err != nil {
			return err
		}
	}
	return nil
}

// Reset deletes leftovers of previous runs that are not preserved, so
// stale artifacts are never reused.
func (s *Store) Reset() error {
	g := errgroup.Group{}
	for _, k := range []Kind{Bytecode, Opcodes, CFG} {
		// interrupted writes are never reused
		extensions := []string{".tmp"}
		if !s.preserve.keeps(k) {
			extensions = append(extensions, k.ext())
		}
		files, err := s.list(s.dir(k), extensions...)
		if err != nil {
			return err
		}
		for _, path := range files {
			path := path
			g.Go(func() error { return s.fs.Remove(path) })
		}
	}
	return g.Wait()
}

func (s *Store) list(dir string, extensions ...string) ([]string, error) {
	entries, err := afero.ReadDir(s.fs, dir)
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		for _, ext := range extensions {
			if filepath.Ext(e.Name()) == ext {
				paths = append(paths, filepath.Join(dir, e.Name()))
				break
			}
		}
	}
	return paths, nil
}
