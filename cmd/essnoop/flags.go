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

package main

import (
	"runtime"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/Sparkhand/ESSnoop/etherscan"
	"github.com/Sparkhand/ESSnoop/ethersolve"
	"github.com/Sparkhand/ESSnoop/turbo/logging"
)

var (
	ConfigFlag = cli.StringFlag{
		Name:  "config",
		Usage: "Sets flags from a TOML file, command line flags take precedence",
	}
	OutputFlag = cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "CSV report path",
		Value:   "ethersolve_report.csv",
	}
	WorkDirFlag = cli.StringFlag{
		Name:  "workdir",
		Usage: "Directory holding bytecode/, opcodes/ and analyzed/",
		Value: ".",
	}
	PreserveBytecodeFlag = cli.BoolFlag{
		Name:    "preserve-bytecode",
		Aliases: []string{"b"},
		Usage:   "Keep downloaded bytecode and reuse it on the next run",
	}
	PreserveAllFlag = cli.BoolFlag{
		Name:    "preserve-all",
		Aliases: []string{"p"},
		Usage:   "Keep bytecode, opcode listings and CFGs, implies --preserve-bytecode",
	}
	DotFlag = cli.BoolFlag{
		Name:  "dot",
		Usage: "Also render each CFG as analyzed/<address>.dot",
	}
	ConcurrencyFlag = cli.IntFlag{
		Name:  "concurrency",
		Usage: "Contracts processed in parallel, 1 processes them one by one",
		Value: runtime.GOMAXPROCS(0),
	}
	CacheSizeFlag = cli.IntFlag{
		Name:  "cache.size",
		Usage: "Bytecodes kept in memory for addresses repeated in the input",
		Value: 1024,
	}

	EtherscanURLFlag = cli.StringFlag{
		Name:  "etherscan.url",
		Usage: "Etherscan API endpoint",
		Value: etherscan.DefaultURL,
	}
	EtherscanAPIKeyFlag = cli.StringFlag{
		Name:    "etherscan.api-key",
		Aliases: []string{"k"},
		Usage:   "Etherscan API key",
		EnvVars: []string{"ETHERSCAN_API_KEY"},
	}
	EtherscanTimeoutFlag = cli.DurationFlag{
		Name:  "etherscan.timeout",
		Usage: "Timeout of a single Etherscan request",
		Value: etherscan.DefaultTimeout,
	}
	EtherscanMaxResponseFlag = cli.StringFlag{
		Name:  "etherscan.max-response",
		Usage: "Largest accepted Etherscan response body",
		Value: etherscan.DefaultMaxResponseSize.String(),
	}
	EtherscanRequestsFlag = cli.IntFlag{
		Name:  "etherscan.requests",
		Usage: "Requests allowed per --etherscan.interval, 0 disables rate limiting",
		Value: etherscan.DefaultRateBurst,
	}
	EtherscanIntervalFlag = cli.DurationFlag{
		Name:  "etherscan.interval",
		Usage: "Window of the Etherscan rate limit",
		Value: 2 * time.Second,
	}
	EtherscanRetriesFlag = cli.Uint64Flag{
		Name:  "etherscan.retries",
		Usage: "Retries on transport errors, 5xx and rate limiting",
		Value: etherscan.DefaultMaxRetries,
	}
	EtherscanRetryBackOffFlag = cli.DurationFlag{
		Name:  "etherscan.retry-backoff",
		Usage: "Pause between Etherscan retries",
		Value: etherscan.DefaultRetryBackOff,
	}

	JavaFlag = cli.StringFlag{
		Name:  "java",
		Usage: "Java executable",
		Value: ethersolve.DefaultJava,
	}
	JarFlag = cli.StringFlag{
		Name:    "ethersolve.jar",
		Aliases: []string{"j"},
		Usage:   "Path to the EtherSolve jar",
		Value:   ethersolve.DefaultJar,
	}
	EtherSolveTimeoutFlag = cli.DurationFlag{
		Name:  "ethersolve.timeout",
		Usage: "Timeout of a single EtherSolve run",
		Value: ethersolve.DefaultTimeout,
	}

	MetricsAddrFlag = cli.StringFlag{
		Name:  "metrics.addr",
		Usage: "Serve Prometheus metrics on this address, e.g. 127.0.0.1:6060",
	}
)

var appFlags = append([]cli.Flag{
	&ConfigFlag,
	&OutputFlag,
	&WorkDirFlag,
	&PreserveBytecodeFlag,
	&PreserveAllFlag,
	&DotFlag,
	&ConcurrencyFlag,
	&CacheSizeFlag,
	&EtherscanURLFlag,
	&EtherscanAPIKeyFlag,
	&EtherscanTimeoutFlag,
	&EtherscanMaxResponseFlag,
	&EtherscanRequestsFlag,
	&EtherscanIntervalFlag,
	&EtherscanRetriesFlag,
	&EtherscanRetryBackOffFlag,
	&JavaFlag,
	&JarFlag,
	&EtherSolveTimeoutFlag,
	&MetricsAddrFlag,
}, logging.Flags...)
