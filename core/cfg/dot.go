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
	"bufio"
	"fmt"
	"io"

	"github.com/Sparkhand/ESSnoop/core/asm"
	"github.com/emicklei/dot"
)

var edgeColors = map[EdgeKind]string{
	Fallthrough:    "black",
	JumpResolved:   "darkgreen",
	JumpUnresolved: "red",
}

// WriteDot renders g in Graphviz format. Jump edges are colored by kind.
func (g *Graph) WriteDot(w io.Writer, p *asm.Program) error {
	dg := dot.NewGraph(dot.Directed)
	block2node := make(map[int]dot.Node, len(g.Blocks))
	for _, b := range g.Blocks {
		label := fmt.Sprintf("%v\n%v", b.Offset, b.Type)
		if !b.Type.IsSink() {
			if exit, err := b.Exit(p); err == nil {
				label = fmt.Sprintf("%v\n%v", b.Offset, exit)
			}
		}
		block2node[b.Offset] = dg.Node(fmt.Sprint(b.Offset)).Label(label).Box()
	}

	for _, b := range g.Blocks {
		n0 := block2node[b.Offset]
		var edges []Edge
		if exit, err := b.Exit(p); err == nil && !b.Type.IsSink() {
			edges = g.Edges(b, exit)
		} else {
			for _, to := range g.succs[b.Offset] {
				edges = append(edges, Edge{From: b.Offset, To: to})
			}
		}
		for _, e := range edges {
			n1, ok := block2node[e.To]
			if !ok {
				n1 = dg.Node(fmt.Sprint(e.To))
				block2node[e.To] = n1
			}
			dg.Edge(n0, n1).Attr("color", edgeColors[e.Kind])
		}
	}

	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(dg.String()); err != nil {
		return err
	}
	return bw.Flush()
}
