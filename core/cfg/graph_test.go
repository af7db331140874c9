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

package cfg

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/Sparkhand/ESSnoop/core/asm"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/stretchr/testify/require"
)

// JUMPDEST, PUSH1 0x06, JUMPI, STOP, JUMPDEST, STOP
const exampleCode = "5B600657005B00"

const exampleCFG = `{
  "runtimeCfg": {
    "nodes": [
      {"offset": 0, "length": 4, "type": "common", "parsedOpcodes": "0: JUMPDEST\n1: PUSH1 0x06\n3: JUMPI"},
      {"offset": 4, "length": 1, "type": "common", "parsedOpcodes": "4: STOP"},
      {"offset": 5, "length": 2, "type": "common", "parsedOpcodes": "5: JUMPDEST\n6: STOP"},
      {"offset": -1, "length": 0, "type": "exit", "parsedOpcodes": ""}
    ],
    "successors": [
      {"from": 0, "to": [4, 5, 5]},
      {"from": 4, "to": [-1]},
      {"from": 5, "to": [-1]}
    ]
  }
}`

func scan(t *testing.T, code string) *asm.Program {
	t.Helper()
	b, err := hex.DecodeString(code)
	require.NoError(t, err)
	p, err := asm.Scan(b)
	require.NoError(t, err)
	return p
}

func TestDecodeExample(t *testing.T) {
	g, err := Decode([]byte(exampleCFG))
	require.NoError(t, err)
	require.Len(t, g.Blocks, 4)
	require.Equal(t, -1, g.Blocks[0].Offset, "blocks are kept in offset order")
	require.Equal(t, []int{4, 5}, g.Successors(0), "successors are deduplicated")

	b, ok := g.Block(0)
	require.True(t, ok)
	require.Equal(t, NodeCommon, b.Type)
	require.Equal(t, []Instruction{
		{Offset: 0, Name: "JUMPDEST"},
		{Offset: 1, Name: "PUSH1", Arg: "0x06"},
		{Offset: 3, Name: "JUMPI"},
	}, b.Instructions)

	p := scan(t, exampleCode)
	require.NoError(t, g.Validate(p))

	exit, err := b.Exit(p)
	require.NoError(t, err)
	require.Equal(t, vm.JUMPI, exit.Op)
	require.Equal(t, []Edge{
		{From: 0, To: 4, Kind: Fallthrough},
		{From: 0, To: 5, Kind: JumpResolved},
	}, g.Edges(b, exit))
}

func TestDecodeRejectsMissingFields(t *testing.T) {
	for name, doc := range map[string]string{
		"no runtimeCfg": `{"constructorCfg": {}}`,
		"no nodes":      `{"runtimeCfg": {"successors": []}}`,
		"no successors": `{"runtimeCfg": {"nodes": []}}`,
		"no offset":     `{"runtimeCfg": {"nodes": [{"length": 1}], "successors": []}}`,
		"no length":     `{"runtimeCfg": {"nodes": [{"offset": 0}], "successors": []}}`,
		"no from":       `{"runtimeCfg": {"nodes": [], "successors": [{"to": [1]}]}}`,
		"bad type":      `{"runtimeCfg": {"nodes": [{"offset": "zero", "length": 1}], "successors": []}}`,
		"bad listing":   `{"runtimeCfg": {"nodes": [{"offset": 0, "length": 1, "parsedOpcodes": "STOP"}], "successors": []}}`,
		"duplicate":     `{"runtimeCfg": {"nodes": [{"offset": 0, "length": 1}, {"offset": 0, "length": 1}], "successors": []}}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(doc))
			require.ErrorIs(t, err, ErrMalformedCFG)
		})
	}
}

func TestDecodeInvalidJSON(t *testing.T) {
	_, err := Decode([]byte(`{"runtimeCfg": `))
	require.ErrorIs(t, err, ErrInvalidJSON)
	require.NotErrorIs(t, err, ErrMalformedCFG)
}

func TestValidateOutOfRange(t *testing.T) {
	p := scan(t, exampleCode)

	g, err := New([]*Block{{Offset: 7, Length: 1}}, nil)
	require.NoError(t, err)
	require.ErrorIs(t, g.Validate(p), ErrMalformedCFG)

	// offset 2 is the PUSH1 immediate
	g, err = New([]*Block{{Offset: 2, Length: 1}}, nil)
	require.NoError(t, err)
	require.ErrorIs(t, g.Validate(p), ErrMalformedCFG)

	g, err = New([]*Block{{Offset: 0, Length: 4}}, map[int][]int{0: {100}})
	require.NoError(t, err)
	require.ErrorIs(t, g.Validate(p), ErrMalformedCFG)

	g, err = New([]*Block{{Offset: 0, Length: 4}}, map[int][]int{9: {0}})
	require.NoError(t, err)
	require.ErrorIs(t, g.Validate(p), ErrMalformedCFG)
}

func TestValidateListingDisagreesWithBytecode(t *testing.T) {
	p := scan(t, exampleCode)
	g, err := New([]*Block{{
		Offset:       0,
		Length:       3,
		Instructions: []Instruction{{Offset: 0, Name: "JUMPDEST"}, {Offset: 1, Name: "JUMP"}},
	}}, nil)
	require.NoError(t, err)
	require.ErrorIs(t, g.Validate(p), ErrMalformedCFG)
}

func TestValidateListingOutsideBlock(t *testing.T) {
	p := scan(t, exampleCode)
	for name, node := range map[string]string{
		"ends past length":    `{"offset": 0, "length": 1, "parsedOpcodes": "0: JUMPDEST\n3: JUMPI"}`,
		"starts after offset": `{"offset": 0, "length": 4, "parsedOpcodes": "1: PUSH1 0x06\n3: JUMPI"}`,
		"zero length":         `{"offset": 0, "length": 0, "parsedOpcodes": "0: JUMPDEST"}`,
	} {
		t.Run(name, func(t *testing.T) {
			g, err := Decode([]byte(`{"runtimeCfg": {"nodes": [` + node + `], "successors": [{"from": 0, "to": [4, 5]}]}}`))
			require.NoError(t, err)
			require.ErrorIs(t, g.Validate(p), ErrMalformedCFG)

			b, ok := g.Block(0)
			require.True(t, ok)
			_, err = b.Exit(p)
			require.ErrorIs(t, err, ErrMalformedCFG)
		})
	}
}

func TestExitWithoutListing(t *testing.T) {
	p := scan(t, exampleCode)
	b := &Block{Offset: 0, Length: 4}
	exit, err := b.Exit(p)
	require.NoError(t, err)
	require.Equal(t, 3, exit.Offset)
	require.Equal(t, vm.JUMPI, exit.Op)

	_, err = (&Block{Offset: 0, Length: 0}).Exit(p)
	require.ErrorIs(t, err, ErrMalformedCFG)
}

func TestEdgesToSinkAreUnresolved(t *testing.T) {
	p := scan(t, exampleCode)
	blocks := []*Block{
		{Offset: 0, Length: 4},
		{Offset: 4, Length: 1},
		{Offset: 7, Type: NodeError},
	}
	g, err := New(blocks, map[int][]int{0: {7, 4}})
	require.NoError(t, err)
	require.NoError(t, g.Validate(p))

	b, _ := g.Block(0)
	exit, err := b.Exit(p)
	require.NoError(t, err)
	require.Equal(t, []Edge{
		{From: 0, To: 4, Kind: Fallthrough},
		{From: 0, To: 7, Kind: JumpUnresolved},
	}, g.Edges(b, exit))
}

func TestReachable(t *testing.T) {
	g, err := New([]*Block{{Offset: 0}, {Offset: 4}, {Offset: 5}, {Offset: 9}}, map[int][]int{
		0: {4},
		4: {0, 9},
		5: {9},
	})
	require.NoError(t, err)

	r := g.Reachable()
	require.True(t, r[0])
	require.True(t, r[4])
	require.True(t, r[9])
	require.False(t, r[5])
}

func TestParseNodeType(t *testing.T) {
	require.Equal(t, NodeExit, ParseNodeType("EXIT"))
	require.True(t, ParseNodeType("Error").IsSink())
	require.False(t, ParseNodeType("dispatcher").IsSink())
	require.Equal(t, NodeCommon, ParseNodeType(""))
}

func TestWriteDot(t *testing.T) {
	g, err := Decode([]byte(exampleCFG))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, g.WriteDot(&buf, scan(t, exampleCode)))
	out := buf.String()
	require.Contains(t, out, "digraph")
	require.Contains(t, out, "darkgreen")
	require.Contains(t, out, "JUMPI")
}
