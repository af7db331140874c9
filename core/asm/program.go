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

package asm

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/holiman/uint256"
)

type Instruction struct {
	Offset int
	Op     vm.OpCode
	Arg    []byte
}

func (in Instruction) Size() int { return 1 + len(in.Arg) }

// Next is the offset of the instruction that follows in, i.e. the JUMPI
// fall-through destination.
func (in Instruction) Next() int { return in.Offset + in.Size() }

func (in Instruction) IsJump() bool { return in.Op == vm.JUMP || in.Op == vm.JUMPI }

func (in Instruction) IsPush() bool { return in.Op >= vm.PUSH0 && in.Op <= vm.PUSH32 }

// Value returns the pushed word, or nil for non-PUSH instructions.
func (in Instruction) Value() *uint256.Int {
	if !in.IsPush() {
		return nil
	}
	return new(uint256.Int).SetBytes(in.Arg)
}

func (in Instruction) String() string {
	if len(in.Arg) > 0 {
		return fmt.Sprintf("%v 0x%x", in.Op, in.Arg)
	}
	return in.Op.String()
}

// Program is the result of a linear scan over runtime bytecode.
type Program struct {
	Code         []byte
	Instructions []Instruction
	index        map[int]int // offset -> position in Instructions
}

// Scan decodes every instruction of code. It fails with ErrMalformedBytecode
// when a PUSH immediate is cut off by the end of the code.
func Scan(code []byte) (*Program, error) {
	p := &Program{Code: code, index: make(map[int]int)}
	it := NewIterator(code)
	for it.Next() {
		p.index[it.PC()] = len(p.Instructions)
		p.Instructions = append(p.Instructions, Instruction{Offset: it.PC(), Op: it.Op(), Arg: it.Arg()})
	}
	if err := it.Error(); err != nil {
		return nil, err
	}
	return p, nil
}

// At returns the instruction starting at offset. ok is false when offset is
// out of range or points into PUSH immediate data.
func (p *Program) At(offset int) (in Instruction, ok bool) {
	i, ok := p.index[offset]
	if !ok {
		return Instruction{}, false
	}
	return p.Instructions[i], true
}

// Prev returns the instruction preceding the one at offset.
func (p *Program) Prev(offset int) (Instruction, bool) {
	i, ok := p.index[offset]
	if !ok || i == 0 {
		return Instruction{}, false
	}
	return p.Instructions[i-1], true
}

func (p *Program) InRange(offset int) bool { return offset >= 0 && offset < len(p.Code) }

func (p *Program) IsJumpDest(offset int) bool {
	in, ok := p.At(offset)
	return ok && in.Op == vm.JUMPDEST
}

// Jumps returns every JUMP and JUMPI in offset order.
func (p *Program) Jumps() []Instruction {
	var jumps []Instruction
	for _, in := range p.Instructions {
		if in.IsJump() {
			jumps = append(jumps, in)
		}
	}
	return jumps
}

// OrphanJumps counts JUMPs whose destination is not pushed by the
// instruction right before them.
func (p *Program) OrphanJumps() int {
	orphans := 0
	for i, in := range p.Instructions {
		if in.Op != vm.JUMP {
			continue
		}
		if i == 0 || !p.Instructions[i-1].IsPush() {
			orphans++
		}
	}
	return orphans
}

// DecodeHex parses 0x-prefixed bytecode as served by eth_getCode.
func DecodeHex(s string) ([]byte, error) {
	code, err := hexutil.Decode(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBytecode, err)
	}
	return code, nil
}

func EncodeHex(code []byte) string { return hexutil.Encode(code) }
