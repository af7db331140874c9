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

package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Summary aggregates the rows of a run for the end-of-run table.
type Summary struct {
	Contracts   int
	Analyzed    int
	Failed      map[string]int // by error kind
	TotalJumps  int
	Resolved    int
	Unresolved  int
	MultiTarget int
	Missing     int
	Unreachable int
	ratioSum    float64
}

func NewSummary() *Summary {
	return &Summary{Failed: make(map[string]int)}
}

func (s *Summary) Write(r Row) error {
	s.Contracts++
	if r.Failed() {
		s.Failed[KindOf(r.Err)]++
		return nil
	}
	s.Analyzed++
	s.TotalJumps += r.Stats.Total
	s.Resolved += r.Stats.Resolved()
	s.Unresolved += r.Stats.Unresolved
	s.MultiTarget += r.Stats.MultiTarget
	s.Missing += r.Stats.Missing
	s.Unreachable += r.Stats.Unreachable
	s.ratioSum += r.Stats.Ratio()
	return nil
}

// MeanRatio averages the per-contract resolved ratio over analyzed contracts.
func (s *Summary) MeanRatio() float64 {
	if s.Analyzed == 0 {
		return 0
	}
	return s.ratioSum / float64(s.Analyzed)
}

func (s *Summary) Render(w io.Writer) error {
	t := table.NewWriter()
	t.SetTitle("EtherSolve jump resolution")
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRows([]table.Row{
		{"Contracts", s.Contracts},
		{"Analyzed", s.Analyzed},
		{"Total jumps", s.TotalJumps},
		{"Resolved", s.Resolved},
		{"Unresolved", s.Unresolved},
		{"Multi-target", s.MultiTarget},
		{"Unreachable", s.Unreachable},
		{"Missing", s.Missing},
		{"Mean resolved ratio", fmt.Sprintf("%.4f", s.MeanRatio())},
	})

	kinds := make([]string, 0, len(s.Failed))
	for k := range s.Failed {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	if len(kinds) > 0 {
		t.AppendSeparator()
		for _, k := range kinds {
			t.AppendRow(table.Row{"Failed: " + k, s.Failed[k]})
		}
	}

	_, err := io.WriteString(w, t.Render()+"\n")
	return err
}
