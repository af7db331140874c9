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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Sparkhand/ESSnoop/core/jumps"
	"github.com/Sparkhand/ESSnoop/report"
)

type Metrics struct {
	Contracts       *prometheus.CounterVec
	Jumps           *prometheus.CounterVec
	FetchDuration   prometheus.Histogram
	AnalyzeDuration prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Contracts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "essnoop",
			Name:      "contracts_total",
			Help:      "Contracts processed, by result (ok or error kind).",
		}, []string{"result"}),
		Jumps: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "essnoop",
			Name:      "jumps_total",
			Help:      "Classified JUMP/JUMPI instructions, by outcome.",
		}, []string{"outcome"}),
		FetchDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "essnoop",
			Name:      "fetch_duration_seconds",
			Help:      "Time spent downloading bytecode.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
		AnalyzeDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "essnoop",
			Name:      "analyze_duration_seconds",
			Help:      "Time spent in the CFG analyzer.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
	}
}

func (m *Metrics) observeRow(r report.Row) {
	if m == nil {
		return
	}
	if r.Failed() {
		m.Contracts.WithLabelValues(report.KindOf(r.Err)).Inc()
		return
	}
	m.Contracts.WithLabelValues("ok").Inc()
}

func (m *Metrics) observeJumps(res *jumps.Result) {
	if m == nil {
		return
	}
	for _, c := range res.Jumps {
		m.Jumps.WithLabelValues(c.Outcome.String()).Inc()
	}
}
