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

package batch

import (
	"bufio"
	"io"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ledgerwatch/log/v3"

	"github.com/Sparkhand/ESSnoop/etherscan"
)

// Input is one non-comment line of the address list. Lines that are not a
// valid address are kept with Err set so they still get a report row.
type Input struct {
	Line string
	Addr common.Address
	Err  error
}

// ReadAddresses reads one address per line, skipping blank lines and lines
// starting with '#'. Duplicates are kept and logged.
func ReadAddresses(r io.Reader, logger log.Logger) ([]Input, error) {
	var inputs []Input
	seen := make(map[common.Address]int)
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		in := Input{Line: line}
		in.Addr, in.Err = etherscan.ParseAddress(line)
		if in.Err == nil {
			if first, dup := seen[in.Addr]; dup {
				logger.Warn("[batch] duplicate address", "address", in.Addr, "line", lineNo, "first", first)
			} else {
				seen[in.Addr] = lineNo
			}
		} else {
			logger.Warn("[batch] invalid address", "line", lineNo, "value", line)
		}
		inputs = append(inputs, in)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return inputs, nil
}
