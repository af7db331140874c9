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

package jumps

// Stats aggregates the classifications of one contract.
type Stats struct {
	TotalOpcodes int
	Orphan       int // JUMPs not directly preceded by a PUSH

	Total        int
	SingleTarget int
	MultiTarget  int
	Unresolved   int

	Direct     int
	Propagated int
	Duplicated int

	Missing     int
	Unreachable int
	Imprecise   int
}

func (s *Stats) Add(c Classification) {
	s.Total++
	switch c.Outcome {
	case ResolvedSingle:
		s.SingleTarget++
	case ResolvedMulti:
		s.MultiTarget++
	default:
		s.Unresolved++
	}
	switch c.Method {
	case MethodDirect:
		s.Direct++
	case MethodPropagation:
		s.Propagated++
	case MethodDuplication:
		s.Duplicated++
	}
	if c.Missing {
		s.Missing++
	}
	if c.Unreachable {
		s.Unreachable++
	}
	if c.Imprecise {
		s.Imprecise++
	}
}

func (s Stats) Resolved() int { return s.SingleTarget + s.MultiTarget }

// Ratio is Resolved/Total, 0 for contracts without jumps.
func (s Stats) Ratio() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Resolved()) / float64(s.Total)
}
