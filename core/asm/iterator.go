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

// Package asm scans legacy EVM bytecode into instructions.
package asm

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/core/vm"
)

var ErrMalformedBytecode = errors.New("malformed bytecode")

// TruncatedPushError is returned when the immediate of a PUSH runs past the
// end of the code.
type TruncatedPushError struct {
	Offset int
	Op     vm.OpCode
	Want   int
	Have   int
}

func (e *TruncatedPushError) Error() string {
	return fmt.Sprintf("%v: %v at offset %d needs %d immediate bytes, %d left", ErrMalformedBytecode, e.Op, e.Offset, e.Want, e.Have)
}

func (e *TruncatedPushError) Unwrap() error { return ErrMalformedBytecode }

// ImmediateSize returns the number of immediate bytes following op.
func ImmediateSize(op vm.OpCode) int {
	if op >= vm.PUSH1 && op <= vm.PUSH32 {
		return int(op-vm.PUSH1) + 1
	}
	return 0
}

// Iterator walks the instructions of a piece of code. Immediate bytes of
// PUSH1..PUSH32 are consumed together with their opcode and never surface
// as instructions of their own.
type Iterator struct {
	code    []byte
	pc      int
	op      vm.OpCode
	arg     []byte
	err     error
	started bool
}

func NewIterator(code []byte) *Iterator {
	return &Iterator{code: code}
}

// Next moves to the next instruction and reports whether there is one.
func (it *Iterator) Next() bool {
	if it.err != nil || it.pc >= len(it.code) {
		return false
	}

	if it.started {
		it.pc += 1 + len(it.arg)
	} else {
		it.started = true
	}

	if it.pc >= len(it.code) {
		return false
	}

	it.op = vm.OpCode(it.code[it.pc])
	size := ImmediateSize(it.op)
	if size == 0 {
		it.arg = nil
		return true
	}

	end := it.pc + 1 + size
	if end > len(it.code) {
		it.err = &TruncatedPushError{Offset: it.pc, Op: it.op, Want: size, Have: len(it.code) - it.pc - 1}
		it.arg = nil
		return false
	}
	it.arg = it.code[it.pc+1 : end]
	return true
}

func (it *Iterator) Error() error { return it.err }

func (it *Iterator) PC() int { return it.pc }

func (it *Iterator) Op() vm.OpCode { return it.op }

func (it *Iterator) Arg() []byte { return it.arg }
