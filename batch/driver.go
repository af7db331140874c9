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
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/ledgerwatch/log/v3"
	"golang.org/x/sync/errgroup"

	"github.com/Sparkhand/ESSnoop/artifacts"
	"github.com/Sparkhand/ESSnoop/core/asm"
	"github.com/Sparkhand/ESSnoop/core/cfg"
	"github.com/Sparkhand/ESSnoop/core/jumps"
	"github.com/Sparkhand/ESSnoop/ethersolve"
	"github.com/Sparkhand/ESSnoop/report"
)

type Fetcher interface {
	FetchCode(ctx context.Context, addr common.Address) ([]byte, error)
}

type Analyzer interface {
	Analyze(ctx context.Context, bytecodePath, outPath string) error
}

type Driver struct {
	cfg      Config
	fetcher  Fetcher
	analyzer Analyzer
	store    *artifacts.Store
	metrics  *Metrics
	logger   log.Logger

	cache *lru.Cache[common.Address, []byte]

	locksMu sync.Mutex
	locks   map[common.Address]*addrLock
}

type addrLock struct {
	sync.Mutex
	refs int
}

// NewDriver wires the pipeline stages. metrics may be nil.
func NewDriver(cfg Config, fetcher Fetcher, analyzer Analyzer, store *artifacts.Store, metrics *Metrics, logger log.Logger) (*Driver, error) {
	cache, err := lru.New[common.Address, []byte](cfg.CacheSize)
	if err != nil {
		return nil, err
	}
	return &Driver{
		cfg:      cfg,
		fetcher:  fetcher,
		analyzer: analyzer,
		store:    store,
		metrics:  metrics,
		logger:   logger,
		cache:    cache,
		locks:    make(map[common.Address]*addrLock),
	}, nil
}

type indexedRow struct {
	i   int
	row report.Row
}

// Run processes inputs on a bounded pool and hands every row to ow under
// its input index. A failing contract only produces a failure row; the run
// stops early only when ctx is cancelled or ow fails.
func (d *Driver) Run(ctx context.Context, inputs []Input, ow *report.OrderedWriter) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan indexedRow, d.cfg.Concurrency)
	g := errgroup.Group{}
	g.SetLimit(d.cfg.Concurrency)
	go func() {
		defer close(results)
		for i, in := range inputs {
			i, in := i, in
			if ctx.Err() != nil {
				break
			}
			g.Go(func() error {
				row := d.Process(ctx, in)
				if row.Err != nil && ctx.Err() != nil {
					// interrupted, not a result
					return nil
				}
				results <- indexedRow{i: i, row: row}
				return nil
			})
		}
		_ = g.Wait()
	}()

	interval := d.cfg.ProgressInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	progress := time.NewTicker(interval)
	defer progress.Stop()

	var (
		writeErr error
		done     int
		started  = time.Now()
	)
	for {
		select {
		case r, ok := <-results:
			if !ok {
				if writeErr != nil {
					return writeErr
				}
				return ctx.Err()
			}
			done++
			if writeErr != nil {
				continue
			}
			if err := ow.Put(r.i, r.row); err != nil {
				writeErr = fmt.Errorf("writing report: %w", err)
				cancel()
			}
		case <-progress.C:
			d.logger.Info("[batch] progress", "done", done, "total", len(inputs), "written", ow.Written(), "elapsed", time.Since(started).Round(time.Second))
		}
	}
}

// Process runs the whole pipeline for one input. Every error ends up in
// the returned row.
func (d *Driver) Process(ctx context.Context, in Input) report.Row {
	row := report.Row{Address: in.Line}
	if in.Err != nil {
		row.Err = in.Err
		d.metrics.observeRow(row)
		return row
	}

	stats, err := d.analyze(ctx, in.Addr)
	if err != nil {
		row.Err = err
		if ctx.Err() == nil {
			d.logger.Warn("[batch] contract failed", "address", in.Addr, "kind", report.KindOf(err), "err", err)
		}
	} else {
		row.Stats = stats
		d.logger.Debug("[batch] contract analyzed", "address", in.Addr, "jumps", stats.Total, "resolved", stats.Resolved(), "ratio", stats.Ratio())
	}
	d.metrics.observeRow(row)
	return row
}

func (d *Driver) lock(addr common.Address) func() {
	d.locksMu.Lock()
	l, ok := d.locks[addr]
	if !ok {
		l = &addrLock{}
		d.locks[addr] = l
	}
	l.refs++
	d.locksMu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		d.locksMu.Lock()
		if l.refs--; l.refs == 0 {
			delete(d.locks, addr)
		}
		d.locksMu.Unlock()
	}
}

func (d *Driver) analyze(ctx context.Context, addr common.Address) (*jumps.Stats, error) {
	// the same address may appear more than once in the input; its
	// artifacts are shared
	unlock := d.lock(addr)
	defer unlock()
	defer func() {
		if err := d.store.Cleanup(addr); err != nil {
			d.logger.Warn("[batch] cleanup failed", "address", addr, "err", err)
		}
	}()

	code, err := d.bytecode(ctx, addr)
	if err != nil {
		return nil, err
	}

	prog, err := asm.Scan(code)
	if err != nil {
		return nil, err
	}
	if err := d.writeListing(addr, prog); err != nil {
		return nil, err
	}

	if !d.store.Exists(artifacts.CFG, addr) {
		start := time.Now()
		err := d.analyzer.Analyze(ctx, d.store.Path(artifacts.Bytecode, addr), d.store.Path(artifacts.CFG, addr))
		if d.metrics != nil {
			d.metrics.AnalyzeDuration.Observe(time.Since(start).Seconds())
		}
		if err != nil {
			d.dropCFG(addr)
			return nil, err
		}
	} else {
		d.logger.Debug("[batch] reusing CFG", "address", addr)
	}

	data, err := d.store.Read(artifacts.CFG, addr)
	if err != nil {
		return nil, fmt.Errorf("%w: reading output: %w", ethersolve.ErrAnalyzer, err)
	}
	g, err := cfg.Decode(data)
	if errors.Is(err, cfg.ErrInvalidJSON) {
		d.dropCFG(addr)
		return nil, fmt.Errorf("%w: %w", ethersolve.ErrAnalyzer, err)
	}
	if err != nil {
		return nil, err
	}

	res, err := jumps.Classify(prog, g)
	if err != nil {
		return nil, err
	}
	if res.Stats.Missing > 0 {
		d.logger.Warn("[batch] jumps missing from CFG", "address", addr, "missing", res.Stats.Missing, "total", res.Stats.Total)
	}
	d.metrics.observeJumps(res)

	if d.cfg.Dot {
		if err := d.writeDot(addr, g, prog); err != nil {
			d.logger.Warn("[batch] dot export failed", "address", addr, "err", err)
		}
	}
	return &res.Stats, nil
}

// bytecode looks in the in-memory cache, then on disk, and downloads as a
// last resort. The bytecode file is always present on return.
func (d *Driver) bytecode(ctx context.Context, addr common.Address) ([]byte, error) {
	code, cached := d.cache.Get(addr)
	if !cached && d.store.Exists(artifacts.Bytecode, addr) {
		data, err := d.store.Read(artifacts.Bytecode, addr)
		if err != nil {
			return nil, err
		}
		if code, err = asm.DecodeHex(string(data)); err != nil {
			return nil, err
		}
		d.logger.Debug("[batch] reusing bytecode", "address", addr)
		cached = true
	}
	if !cached {
		start := time.Now()
		var err error
		code, err = d.fetcher.FetchCode(ctx, addr)
		if d.metrics != nil {
			d.metrics.FetchDuration.Observe(time.Since(start).Seconds())
		}
		if err != nil {
			return nil, err
		}
	}
	d.cache.Add(addr, code)

	if !d.store.Exists(artifacts.Bytecode, addr) {
		if err := d.store.Write(artifacts.Bytecode, addr, []byte(asm.EncodeHex(code))); err != nil {
			return nil, err
		}
	}
	return code, nil
}

// dropCFG removes an analyzer output that must not be reused by a later
// run, even when CFGs are preserved.
func (d *Driver) dropCFG(addr common.Address) {
	if err := d.store.Remove(artifacts.CFG, addr); err != nil {
		d.logger.Warn("[batch] could not remove CFG", "address", addr, "err", err)
	}
}

func (d *Driver) writeListing(addr common.Address, prog *asm.Program) error {
	if d.store.Exists(artifacts.Opcodes, addr) {
		return nil
	}
	var buf bytes.Buffer
	if err := asm.WriteListing(&buf, prog); err != nil {
		return err
	}
	return d.store.Write(artifacts.Opcodes, addr, buf.Bytes())
}

func (d *Driver) writeDot(addr common.Address, g *cfg.Graph, prog *asm.Program) error {
	var buf bytes.Buffer
	if err := g.WriteDot(&buf, prog); err != nil {
		return err
	}
	return d.store.Write(artifacts.Dot, addr, buf.Bytes())
}
