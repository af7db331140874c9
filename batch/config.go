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

// Package batch runs the per-contract pipeline over an address list.
package batch

import (
	"fmt"
	"runtime"
	"time"

	"github.com/c2h5oh/datasize"
	"golang.org/x/time/rate"

	"github.com/Sparkhand/ESSnoop/artifacts"
	"github.com/Sparkhand/ESSnoop/etherscan"
	"github.com/Sparkhand/ESSnoop/ethersolve"
)

// Config is everything a run needs; it is filled from the command line and
// the optional config file and passed down explicitly.
type Config struct {
	Input    string
	Output   string
	WorkDir  string
	Preserve artifacts.Preserve
	Dot      bool

	Concurrency      int
	CacheSize        int
	ProgressInterval time.Duration

	EtherscanURL          string
	EtherscanAPIKey       string
	EtherscanTimeout      time.Duration
	EtherscanMaxResponse  datasize.ByteSize
	EtherscanRequests     int
	EtherscanInterval     time.Duration
	EtherscanMaxRetries   uint64
	EtherscanRetryBackOff time.Duration

	Java              string
	Jar               string
	EtherSolveTimeout time.Duration

	MetricsAddr string
}

func DefaultConfig() Config {
	return Config{
		Output:                "ethersolve_report.csv",
		WorkDir:               ".",
		Concurrency:           runtime.GOMAXPROCS(0),
		CacheSize:             1024,
		ProgressInterval:      30 * time.Second,
		EtherscanURL:          etherscan.DefaultURL,
		EtherscanTimeout:      etherscan.DefaultTimeout,
		EtherscanMaxResponse:  etherscan.DefaultMaxResponseSize,
		EtherscanRequests:     etherscan.DefaultRateBurst,
		EtherscanInterval:     2 * time.Second,
		EtherscanMaxRetries:   etherscan.DefaultMaxRetries,
		EtherscanRetryBackOff: etherscan.DefaultRetryBackOff,
		Java:                  ethersolve.DefaultJava,
		Jar:                   ethersolve.DefaultJar,
		EtherSolveTimeout:     ethersolve.DefaultTimeout,
	}
}

// RateLimit spreads EtherscanRequests evenly over EtherscanInterval.
func (c Config) RateLimit() (rate.Limit, int) {
	if c.EtherscanRequests <= 0 || c.EtherscanInterval <= 0 {
		return rate.Inf, 1
	}
	return rate.Every(c.EtherscanInterval / time.Duration(c.EtherscanRequests)), c.EtherscanRequests
}

func (c Config) Validate() error {
	if c.Input == "" {
		return fmt.Errorf("no input file")
	}
	if c.Output == "" {
		return fmt.Errorf("no output file")
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	if c.CacheSize < 1 {
		return fmt.Errorf("cache size must be at least 1, got %d", c.CacheSize)
	}
	return nil
}
