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
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

var (
	addrA = common.HexToAddress("0x00000000219ab540356cBB839Cbe05303d7705Fa")
	addrB = common.HexToAddress("0xdAC17F958D2ee523a2206206994597C13D831ec7")
)

func newTestStore(t *testing.T, preserve Preserve) (*Store, afero.Fs) {
	t.Helper()
	dirs, err := NewDirs("/work")
	require.NoError(t, err)
	fs := afero.NewMemMapFs()
	s, err := NewStore(fs, dirs, preserve)
	require.NoError(t, err)
	return s, fs
}

func writeAll(t *testing.T, s *Store, addr common.Address) {
	t.Helper()
	for _, k := range []Kind{Bytecode, Opcodes, CFG, Dot} {
		require.NoError(t, s.Write(k, addr, []byte(k.String())))
	}
}

func TestStorePaths(t *testing.T) {
	s, _ := newTestStore(t, Preserve{})
	require.Equal(t, filepath.Join("/work", "bytecode", addrA.Hex()+".bytecode"), s.Path(Bytecode, addrA))
	require.Equal(t, filepath.Join("/work", "opcodes", addrA.Hex()+".opcodes"), s.Path(Opcodes, addrA))
	require.Equal(t, filepath.Join("/work", "analyzed", addrA.Hex()+".json"), s.Path(CFG, addrA))
	require.Equal(t, filepath.Join("/work", "analyzed", addrA.Hex()+".dot"), s.Path(Dot, addrA))
}

func TestStoreWriteRead(t *testing.T) {
	s, fs := newTestStore(t, Preserve{})
	require.False(t, s.Exists(Bytecode, addrA))

	require.NoError(t, s.Write(Bytecode, addrA, []byte("0x00")))
	require.True(t, s.Exists(Bytecode, addrA))

	data, err := s.Read(Bytecode, addrA)
	require.NoError(t, err)
	require.Equal(t, "0x00", string(data))

	tmp, err := afero.Exists(fs, s.Path(Bytecode, addrA)+".tmp")
	require.NoError(t, err)
	require.False(t, tmp)

	require.NoError(t, s.Write(CFG, addrA, nil))
	require.False(t, s.Exists(CFG, addrA), "empty artifacts do not count")
}

func TestStoreCleanupHonoursPreserve(t *testing.T) {
	for name, tc := range map[string]struct {
		preserve Preserve
		kept     []Kind
		removed  []Kind
	}{
		"nothing":  {Preserve{}, []Kind{Dot}, []Kind{Bytecode, Opcodes, CFG}},
		"bytecode": {Preserve{Bytecode: true}, []Kind{Bytecode, Dot}, []Kind{Opcodes, CFG}},
		"all":      {Preserve{All: true}, []Kind{Bytecode, Opcodes, CFG, Dot}, nil},
	} {
		t.Run(name, func(t *testing.T) {
			s, _ := newTestStore(t, tc.preserve)
			writeAll(t, s, addrA)
			writeAll(t, s, addrB)

			require.NoError(t, s.Cleanup(addrA))
			for _, k := range tc.kept {
				require.True(t, s.Exists(k, addrA), k.String())
			}
			for _, k := range tc.removed {
				require.False(t, s.Exists(k, addrA), k.String())
				require.True(t, s.Exists(k, addrB), "other contracts are untouched")
			}

			// second cleanup is a no-op
			require.NoError(t, s.Cleanup(addrA))
		})
	}
}

func TestStoreReset(t *testing.T) {
	s, fs := newTestStore(t, Preserve{Bytecode: true})
	writeAll(t, s, addrA)
	require.NoError(t, afero.WriteFile(fs, filepath.Join(s.Dirs().Analyzed, "x.json.tmp"), []byte("{"), 0o644))
	require.NoError(t, afero.WriteFile(fs, filepath.Join(s.Dirs().Analyzed, ".keep"), nil, 0o644))

	require.NoError(t, s.Reset())
	require.True(t, s.Exists(Bytecode, addrA))
	require.True(t, s.Exists(Dot, addrA))
	require.False(t, s.Exists(Opcodes, addrA))
	require.False(t, s.Exists(CFG, addrA))

	left, err := afero.ReadDir(fs, s.Dirs().Analyzed)
	require.NoError(t, err)
	names := make([]string, 0, len(left))
	for _, fi := range left {
		names = append(names, fi.Name())
	}
	require.ElementsMatch(t, []string{addrA.Hex() + ".dot", ".keep"}, names)
}

func TestStoreResetDropsTmpWhenPreserved(t *testing.T) {
	s, fs := newTestStore(t, Preserve{All: true})
	writeAll(t, s, addrA)
	partial := s.Path(CFG, addrB) + ".tmp"
	require.NoError(t, afero.WriteFile(fs, partial, []byte(`{"runtimeCfg"`), 0o644))

	require.NoError(t, s.Reset())
	for _, k := range []Kind{Bytecode, Opcodes, CFG, Dot} {
		require.True(t, s.Exists(k, addrA), k.String())
	}
	exists, err := afero.Exists(fs, partial)
	require.NoError(t, err)
	require.False(t, exists)
}

func TestTryFlock(t *testing.T) {
	dirs, err := NewDirs(t.TempDir())
	require.NoError(t, err)

	l, err := TryFlock(dirs)
	require.NoError(t, err)
	defer l.Unlock()

	_, err = TryFlock(dirs)
	require.ErrorIs(t, err, ErrWorkDirLocked)
}
