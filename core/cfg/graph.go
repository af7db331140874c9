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
	"fmt"
	"sort"
	"strings"

	"github.com/Sparkhand/ESSnoop/core/asm"
	"github.com/ethereum/go-ethereum/core/vm"
)

type NodeType string

const (
	NodeCommon     NodeType = "common"
	NodeDispatcher NodeType = "dispatcher"
	NodeFallback   NodeType = "fallback"
	NodeExit       NodeType = "exit"
	NodeError      NodeType = "error"
)

// ParseNodeType lower-cases t; unknown types are kept as they are.
func ParseNodeType(t string) NodeType {
	if t == "" {
		return NodeCommon
	}
	return NodeType(strings.ToLower(t))
}

// IsSink reports whether the node is a virtual marker rather than code.
// Jumps the analyzer could not resolve point at these.
func (t NodeType) IsSink() bool { return t == NodeExit || t == NodeError }

// Instruction is one line of a node's opcode listing.
type Instruction struct {
	Offset int
	Name   string
	Arg    string
}

func (in Instruction) IsJump() bool { return in.Name == "JUMP" || in.Name == "JUMPI" }

type Block struct {
	Offset       int
	Length       int
	Type         NodeType
	Instructions []Instruction
}

// Exit returns the last instruction of b as found by the linear scan of p.
// When b carries an opcode listing its last entry is used, otherwise the
// last instruction starting inside [Offset, Offset+Length). A listing must
// start at Offset and stay inside that range.
func (b *Block) Exit(p *asm.Program) (asm.Instruction, error) {
	end := b.Offset + b.Length
	if n := len(b.Instructions); n > 0 {
		if first := b.Instructions[0].Offset; first != b.Offset {
			return asm.Instruction{}, fmt.Errorf("%w: block %d listing starts at %d", ErrMalformedCFG, b.Offset, first)
		}
		for _, in := range b.Instructions {
			if in.Offset < b.Offset || in.Offset >= end {
				return asm.Instruction{}, fmt.Errorf("%w: block %d lists %s at %d, outside [%d, %d)", ErrMalformedCFG, b.Offset, in.Name, in.Offset, b.Offset, end)
			}
		}
		last := b.Instructions[n-1]
		in, ok := p.At(last.Offset)
		if !ok {
			return asm.Instruction{}, fmt.Errorf("%w: block %d ends at %d, not an instruction boundary", ErrMalformedCFG, b.Offset, last.Offset)
		}
		if in.IsJump() != last.IsJump() {
			return asm.Instruction{}, fmt.Errorf("%w: block %d lists %s at %d, bytecode has %v", ErrMalformedCFG, b.Offset, last.Name, last.Offset, in.Op)
		}
		return in, nil
	}

	var (
		exit  asm.Instruction
		found bool
	)
	in, ok := p.At(b.Offset)
	for ok && in.Offset < end {
		exit, found = in, true
		in, ok = p.At(in.Next())
	}
	if !found {
		return asm.Instruction{}, fmt.Errorf("%w: block %d has no instructions", ErrMalformedCFG, b.Offset)
	}
	return exit, nil
}

type EdgeKind uint8

const (
	Fallthrough EdgeKind = iota
	JumpResolved
	JumpUnresolved
)

func (k EdgeKind) String() string {
	switch k {
	case Fallthrough:
		return "fallthrough"
	case JumpResolved:
		return "jump-resolved"
	case JumpUnresolved:
		return "jump-unresolved"
	default:
		return fmt.Sprintf("EdgeKind(%d)", uint8(k))
	}
}

type Edge struct {
	From int
	To   int
	Kind EdgeKind
}

func (e Edge) String() string {
	return fmt.Sprintf("%v -> %v (%v)", e.From, e.To, e.Kind)
}

// Graph is immutable once built.
type Graph struct {
	Blocks   []*Block // in offset order
	byOffset map[int]*Block
	succs    map[int][]int // sorted, without duplicates
}

// New builds a graph from blocks and successor lists keyed by block offset.
func New(blocks []*Block, succs map[int][]int) (*Graph, error) {
	g := &Graph{
		Blocks:   make([]*Block, len(blocks)),
		byOffset: make(map[int]*Block, len(blocks)),
		succs:    make(map[int][]int, len(succs)),
	}
	copy(g.Blocks, blocks)
	sort.SliceStable(g.Blocks, func(i, j int) bool { return g.Blocks[i].Offset < g.Blocks[j].Offset })

	for _, b := range g.Blocks {
		if _, dup := g.byOffset[b.Offset]; dup {
			return nil, fmt.Errorf("%w: duplicate block offset %d", ErrMalformedCFG, b.Offset)
		}
		g.byOffset[b.Offset] = b
	}
	for from, tos := range succs {
		g.succs[from] = sortAndUnique(tos)
	}
	return g, nil
}

func sortAndUnique(offsets []int) []int {
	if len(offsets) == 0 {
		return nil
	}
	out := make([]int, len(offsets))
	copy(out, offsets)
	sort.Ints(out)
	j := 0
	for i := 1; i < len(out); i++ {
		if out[i] != out[j] {
			j++
			out[j] = out[i]
		}
	}
	return out[:j+1]
}

func (g *Graph) Block(offset int) (*Block, bool) {
	b, ok := g.byOffset[offset]
	return b, ok
}

// Successors returns the destinations of the block at offset.
func (g *Graph) Successors(offset int) []int { return g.succs[offset] }

func (g *Graph) isSink(offset int) bool {
	b, ok := g.byOffset[offset]
	return ok && b.Type.IsSink()
}

// Validate checks g against the linear scan of the bytecode it was built
// from. Sink nodes are exempt from range checks.
func (g *Graph) Validate(p *asm.Program) error {
	for _, b := range g.Blocks {
		if b.Type.IsSink() {
			continue
		}
		if !p.InRange(b.Offset) {
			return fmt.Errorf("%w: block offset %d outside bytecode of %d bytes", ErrMalformedCFG, b.Offset, len(p.Code))
		}
		if _, ok := p.At(b.Offset); !ok {
			return fmt.Errorf("%w: block offset %d is inside PUSH data", ErrMalformedCFG, b.Offset)
		}
		if b.Length < 0 || b.Offset+b.Length > len(p.Code) {
			return fmt.Errorf("%w: block %d length %d runs past the bytecode", ErrMalformedCFG, b.Offset, b.Length)
		}
		if _, err := b.Exit(p); err != nil {
			return err
		}
	}

	froms := make([]int, 0, len(g.succs))
	for from := range g.succs {
		froms = append(froms, from)
	}
	sort.Ints(froms)
	for _, from := range froms {
		if _, ok := g.byOffset[from]; !ok {
			return fmt.Errorf("%w: successors of unknown block %d", ErrMalformedCFG, from)
		}
		for _, to := range g.succs[from] {
			if g.isSink(to) {
				continue
			}
			if !p.InRange(to) {
				return fmt.Errorf("%w: edge %d -> %d leaves the bytecode", ErrMalformedCFG, from, to)
			}
		}
	}
	return nil
}

// Edges tags the successors of b. exit is b's last instruction; edges out
// of a block that does not end in JUMP or JUMPI are all fall-through.
func (g *Graph) Edges(b *Block, exit asm.Instruction) []Edge {
	tos := g.succs[b.Offset]
	edges := make([]Edge, 0, len(tos))
	for _, to := range tos {
		kind := Fallthrough
		if exit.IsJump() {
			switch {
			case exit.Op == vm.JUMPI && to == exit.Next():
				kind = Fallthrough
			case g.isSink(to):
				kind = JumpUnresolved
			default:
				kind = JumpResolved
			}
		}
		edges = append(edges, Edge{From: b.Offset, To: to, Kind: kind})
	}
	return edges
}

// Reachable returns the offsets reachable from the entry block at 0 by a
// depth-first walk over all successor edges.
func (g *Graph) Reachable() map[int]bool {
	visited := make(map[int]bool)
	stack := []int{0}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[cur] {
			continue
		}
		visited[cur] = true
		for _, to := range g.succs[cur] {
			if !visited[to] {
				stack = append(stack, to)
			}
		}
	}
	return visited
}
