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
	"encoding/csv"
	"fmt"
	"io"
	"sync"
)

type RowWriter interface {
	Write(r Row) error
}

// Writer writes rows as CSV, flushing after each one so an interrupted run
// still leaves every finished row on disk.
type Writer struct {
	csv *csv.Writer
}

func NewWriter(w io.Writer) (*Writer, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return nil, err
	}
	cw.Flush()
	return &Writer{csv: cw}, cw.Error()
}

func (w *Writer) Write(r Row) error {
	if err := w.csv.Write(r.Record()); err != nil {
		return err
	}
	w.csv.Flush()
	return w.csv.Error()
}

type multiWriter []RowWriter

func (m multiWriter) Write(r Row) error {
	for _, w := range m {
		if err := w.Write(r); err != nil {
			return err
		}
	}
	return nil
}

func MultiWriter(writers ...RowWriter) RowWriter { return multiWriter(writers) }

// OrderedWriter takes rows in completion order and forwards them in input
// order: row i is written as soon as rows 0..i-1 have been.
type OrderedWriter struct {
	mu      sync.Mutex
	w       RowWriter
	next    int
	pending map[int]Row
}

func NewOrderedWriter(w RowWriter) *OrderedWriter {
	return &OrderedWriter{w: w, pending: make(map[int]Row)}
}

func (o *OrderedWriter) Put(i int, r Row) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, dup := o.pending[i]; dup || i < o.next {
		return fmt.Errorf("row %d written twice", i)
	}
	o.pending[i] = r
	for {
		row, ok := o.pending[o.next]
		if !ok {
			return nil
		}
		delete(o.pending, o.next)
		o.next++
		if err := o.w.Write(row); err != nil {
			return err
		}
	}
}

// Written is the number of rows forwarded so far.
func (o *OrderedWriter) Written() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.next
}

// Close fails if some row is still waiting for an earlier one.
func (o *OrderedWriter) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.pending) > 0 {
		return fmt.Errorf("%d rows never written, first missing index %d", len(o.pending), o.next)
	}
	return nil
}
