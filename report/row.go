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

// Package report turns per-contract results into the CSV report.
package report

import (
	"errors"
	"strconv"

	"github.com/Sparkhand/ESSnoop/core/asm"
	"github.com/Sparkhand/ESSnoop/core/cfg"
	"github.com/Sparkhand/ESSnoop/core/jumps"
	"github.com/Sparkhand/ESSnoop/etherscan"
	"github.com/Sparkhand/ESSnoop/ethersolve"
)

// Error kinds as written to the error column.
const (
	KindFetch             = "FetchError"
	KindAnalyzer          = "AnalyzerError"
	KindMalformedBytecode = "MalformedBytecode"
	KindMalformedCFG      = "MalformedCFG"
	KindInternal          = "InternalError"
)

func KindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, etherscan.ErrFetch):
		return KindFetch
	case errors.Is(err, ethersolve.ErrAnalyzer):
		return KindAnalyzer
	case errors.Is(err, asm.ErrMalformedBytecode):
		return KindMalformedBytecode
	case errors.Is(err, cfg.ErrMalformedCFG):
		return KindMalformedCFG
	default:
		return KindInternal
	}
}

var Header = []string{
	"address",
	"total_jumps",
	"resolved",
	"unresolved",
	"ratio",
	"multi_target",
	"single_target",
	"direct",
	"missing",
	"unreachable",
	"imprecise",
	"orphan",
	"total_opcodes",
	"error",
	"error_message",
}

// Row is the outcome for one input line. Exactly one of Stats and Err is set.
type Row struct {
	Address string
	Stats   *jumps.Stats
	Err     error
}

func (r Row) Failed() bool { return r.Err != nil || r.Stats == nil }

// Record renders r in Header order. Stat columns stay empty on failure.
func (r Row) Record() []string {
	rec := make([]string, len(Header))
	rec[0] = r.Address
	if r.Failed() {
		err := r.Err
		if err == nil {
			err = errors.New("no result")
		}
		rec[13] = KindOf(err)
		rec[14] = err.Error()
		return rec
	}

	s := r.Stats
	itoa := strconv.Itoa
	rec[1] = itoa(s.Total)
	rec[2] = itoa(s.Resolved())
	rec[3] = itoa(s.Unresolved)
	rec[4] = strconv.FormatFloat(s.Ratio(), 'f', 4, 64)
	rec[5] = itoa(s.MultiTarget)
	rec[6] = itoa(s.SingleTarget)
	rec[7] = itoa(s.Direct)
	rec[8] = itoa(s.Missing)
	rec[9] = itoa(s.Unreachable)
	rec[10] = itoa(s.Imprecise)
	rec[11] = itoa(s.Orphan)
	rec[12] = itoa(s.TotalOpcodes)
	return rec
}
