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

// Package jumps classifies every JUMP and JUMPI of a contract by how the
// CFG analyzer resolved it.
package jumps

import (
	"fmt"
	"sort"

	"github.com/Sparkhand/ESSnoop/core/asm"
	"github.com/Sparkhand/ESSnoop/core/cfg"
	"github.com/ethereum/go-ethereum/core/vm"
)

type Outcome uint8

const (
	Unresolved Outcome = iota
	ResolvedSingle
	ResolvedMulti
)

func (o Outcome) String() string {
	switch o {
	case Unresolved:
		return "unresolved"
	case ResolvedSingle:
		return "resolved-single-target"
	case ResolvedMulti:
		return "resolved-multi-target"
	default:
		return fmt.Sprintf("Outcome(%d)", uint8(o))
	}
}

func (o Outcome) Resolved() bool { return o == ResolvedSingle || o == ResolvedMulti }

// Method is how a jump was resolved. EtherSolve does not record it, so it is
// inferred from the bytecode around the jump and the number of targets.
type Method uint8

const (
	MethodNone Method = iota
	MethodDirect
	MethodPropagation
	MethodDuplication
)

func (m Method) String() string {
	switch m {
	case MethodNone:
		return "none"
	case MethodDirect:
		return "direct"
	case MethodPropagation:
		return "propagation"
	case MethodDuplication:
		return "duplication"
	default:
		return fmt.Sprintf("Method(%d)", uint8(m))
	}
}

type Classification struct {
	Offset  int
	Op      vm.OpCode
	Outcome Outcome
	Method  Method
	Targets []int

	Missing     bool // no CFG block ends at this jump
	Unreachable bool // every block ending here is unreachable from entry
	Imprecise   bool // some target is not a JUMPDEST
}

type Result struct {
	Jumps []Classification // one per scanned JUMP/JUMPI, in offset order
	Stats Stats
}

type jumpSite struct {
	blocks  []int
	targets map[int]struct{}
}

// Classify matches the jumps found by the linear scan p against the blocks
// of g. It does not modify g and gives the same result for the same inputs.
func Classify(p *asm.Program, g *cfg.Graph) (*Result, error) {
	if err := g.Validate(p); err != nil {
		return nil, err
	}

	sites := make(map[int]*jumpSite)
	for _, b := range g.Blocks {
		if b.Type.IsSink() {
			continue
		}
		exit, err := b.Exit(p)
		if err != nil {
			return nil, err
		}
		if !exit.IsJump() {
			continue
		}
		site, ok := sites[exit.Offset]
		if !ok {
			site = &jumpSite{targets: make(map[int]struct{})}
			sites[exit.Offset] = site
		}
		site.blocks = append(site.blocks, b.Offset)
		for _, e := range g.Edges(b, exit) {
			if e.Kind == cfg.JumpResolved {
				site.targets[e.To] = struct{}{}
			}
		}
	}

	reachable := g.Reachable()
	res := &Result{}
	res.Stats.TotalOpcodes = len(p.Instructions)
	res.Stats.Orphan = p.OrphanJumps()
	for _, j := range p.Jumps() {
		c := Classification{Offset: j.Offset, Op: j.Op}
		site, ok := sites[j.Offset]
		if !ok {
			c.Missing = true
			res.add(c)
			continue
		}

		for t := range site.targets {
			c.Targets = append(c.Targets, t)
		}
		sort.Ints(c.Targets)

		switch len(c.Targets) {
		case 0:
			c.Outcome, c.Method = Unresolved, MethodNone
			c.Unreachable = true
			for _, b := range site.blocks {
				if reachable[b] {
					c.Unreachable = false
					break
				}
			}
		case 1:
			c.Outcome, c.Method = ResolvedSingle, MethodPropagation
			if isDirect(p, j, c.Targets[0]) {
				c.Method = MethodDirect
			}
		default:
			c.Outcome, c.Method = ResolvedMulti, MethodDuplication
		}
		for _, t := range c.Targets {
			if !p.IsJumpDest(t) {
				c.Imprecise = true
				break
			}
		}
		res.add(c)
	}
	return res, nil
}

// isDirect reports whether the destination of j is the constant pushed by
// the instruction right before it.
func isDirect(p *asm.Program, j asm.Instruction, target int) bool {
	prev, ok := p.Prev(j.Offset)
	if !ok || !prev.IsPush() {
		return false
	}
	v := prev.Value()
	return v.IsUint64() && v.Uint64() == uint64(target)
}

func (r *Result) add(c Classification) {
	r.Jumps = append(r.Jumps, c)
	r.Stats.Add(c)
}
