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

// Package cfg holds the control flow graph produced by EtherSolve for a
// contract's runtime code.
package cfg

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var (
	// ErrMalformedCFG is returned when the graph is well-formed JSON but does
	// not describe the bytecode it was produced from.
	ErrMalformedCFG = errors.New("malformed CFG")
	// ErrInvalidJSON is returned when the analyzer output is not JSON at all.
	ErrInvalidJSON = errors.New("invalid CFG JSON")
)

type jsonNode struct {
	Offset        *int    `json:"offset"`
	Length        *int    `json:"length"`
	Type          string  `json:"type"`
	ParsedOpcodes *string `json:"parsedOpcodes"`
}

type jsonSuccessor struct {
	From *int  `json:"from"`
	To   []int `json:"to"`
}

type jsonCfg struct {
	Nodes      *[]jsonNode      `json:"nodes"`
	Successors *[]jsonSuccessor `json:"successors"`
}

type jsonFile struct {
	RuntimeCfg *jsonCfg `json:"runtimeCfg"`
}

// Decode parses the EtherSolve "-rj" output. Only runtimeCfg is read; the
// nodes and successors arrays and the offset, length and from fields are
// required.
func Decode(data []byte) (*Graph, error) {
	json := jsoniter.ConfigCompatibleWithStandardLibrary
	if !json.Valid(data) {
		return nil, ErrInvalidJSON
	}

	var f jsonFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCFG, err)
	}
	if f.RuntimeCfg == nil {
		return nil, fmt.Errorf("%w: missing runtimeCfg", ErrMalformedCFG)
	}
	if f.RuntimeCfg.Nodes == nil {
		return nil, fmt.Errorf("%w: missing runtimeCfg.nodes", ErrMalformedCFG)
	}
	if f.RuntimeCfg.Successors == nil {
		return nil, fmt.Errorf("%w: missing runtimeCfg.successors", ErrMalformedCFG)
	}

	blocks := make([]*Block, 0, len(*f.RuntimeCfg.Nodes))
	for i, n := range *f.RuntimeCfg.Nodes {
		if n.Offset == nil {
			return nil, fmt.Errorf("%w: node %d has no offset", ErrMalformedCFG, i)
		}
		if n.Length == nil {
			return nil, fmt.Errorf("%w: node %d has no length", ErrMalformedCFG, i)
		}
		b := &Block{Offset: *n.Offset, Length: *n.Length, Type: ParseNodeType(n.Type)}
		if n.ParsedOpcodes != nil {
			ins, err := parseOpcodes(*n.ParsedOpcodes)
			if err != nil {
				return nil, fmt.Errorf("%w: node at offset %d: %v", ErrMalformedCFG, b.Offset, err)
			}
			b.Instructions = ins
		}
		blocks = append(blocks, b)
	}

	succs := make(map[int][]int, len(*f.RuntimeCfg.Successors))
	for i, s := range *f.RuntimeCfg.Successors {
		if s.From == nil {
			return nil, fmt.Errorf("%w: successor entry %d has no from", ErrMalformedCFG, i)
		}
		succs[*s.From] = append(succs[*s.From], s.To...)
	}

	return New(blocks, succs)
}

// parseOpcodes reads the "offset: NAME [arg]" listing EtherSolve attaches to
// every node.
func parseOpcodes(listing string) ([]Instruction, error) {
	var ins []Instruction
	for _, line := range strings.Split(listing, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		i := strings.IndexByte(line, ':')
		if i < 0 {
			return nil, fmt.Errorf("opcode line %q has no offset", line)
		}
		offset, err := strconv.Atoi(strings.TrimSpace(line[:i]))
		if err != nil {
			return nil, fmt.Errorf("opcode line %q: %w", line, err)
		}
		fields := strings.Fields(line[i+1:])
		if len(fields) == 0 {
			return nil, fmt.Errorf("opcode line %q has no opcode", line)
		}
		in := Instruction{Offset: offset, Name: strings.ToUpper(fields[0])}
		if len(fields) > 1 {
			in.Arg = fields[1]
		}
		if n := len(ins); n > 0 && ins[n-1].Offset >= offset {
			return nil, fmt.Errorf("opcode offsets not increasing at %d", offset)
		}
		ins = append(ins, in)
	}
	return ins, nil
}
