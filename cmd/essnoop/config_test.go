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
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/Sparkhand/ESSnoop/batch"
	"github.com/Sparkhand/ESSnoop/etherscan"
)

// runWithCtx parses args the way the binary does and hands the resulting
// context to fn, so flag aliases are resolved.
func runWithCtx(t *testing.T, fn func(*cli.Context), args ...string) {
	t.Helper()
	app := cli.NewApp()
	app.Name = "essnoop"
	app.Flags = appFlags
	app.Writer = io.Discard
	app.ErrWriter = io.Discard
	app.Action = func(ctx *cli.Context) error {
		fn(ctx)
		return nil
	}
	require.NoError(t, app.Run(append([]string{"essnoop"}, args...)))
}

func configFromArgs(t *testing.T, args ...string) (cfg batch.Config, err error) {
	t.Helper()
	runWithCtx(t, func(ctx *cli.Context) { cfg, err = configFromCtx(ctx) }, args...)
	return cfg, err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestConfigFromCtxDefaults(t *testing.T) {
	cfg, err := configFromArgs(t, "addresses.txt")
	require.NoError(t, err)
	require.Equal(t, "addresses.txt", cfg.Input)
	require.Equal(t, "ethersolve_report.csv", cfg.Output)
	require.Equal(t, ".", cfg.WorkDir)
	require.False(t, cfg.Preserve.Bytecode)
	require.False(t, cfg.Preserve.All)
	require.Equal(t, etherscan.DefaultMaxResponseSize, cfg.EtherscanMaxResponse)
	require.Equal(t, etherscan.DefaultURL, cfg.EtherscanURL)
	require.Equal(t, 3, cfg.EtherscanRequests)
	require.Equal(t, 2*time.Second, cfg.EtherscanInterval)
}

func TestConfigFromCtxFlags(t *testing.T) {
	cfg, err := configFromArgs(t,
		"-o", "out.csv",
		"-b",
		"--workdir", "/tmp/work",
		"--concurrency", "4",
		"--etherscan.max-response", "1MB",
		"--etherscan.timeout", "10s",
		"--ethersolve.jar", "/opt/EtherSolve.jar",
		"--dot",
		"addresses.txt",
	)
	require.NoError(t, err)
	require.Equal(t, "out.csv", cfg.Output)
	require.True(t, cfg.Preserve.Bytecode)
	require.Equal(t, "/tmp/work", cfg.WorkDir)
	require.Equal(t, 4, cfg.Concurrency)
	require.Equal(t, datasize.MB, cfg.EtherscanMaxResponse)
	require.Equal(t, 10*time.Second, cfg.EtherscanTimeout)
	require.Equal(t, "/opt/EtherSolve.jar", cfg.Jar)
	require.True(t, cfg.Dot)
}

func TestConfigFromCtxErrors(t *testing.T) {
	_, err := configFromArgs(t)
	require.ErrorContains(t, err, "no input file")

	_, err = configFromArgs(t, "a.txt", "b.txt")
	require.ErrorContains(t, err, "one input file")

	_, err = configFromArgs(t, "--concurrency", "0", "a.txt")
	require.ErrorContains(t, err, "concurrency")

	_, err = configFromArgs(t, "--etherscan.max-response", "lots", "a.txt")
	require.ErrorContains(t, err, "etherscan.max-response")

	_, err = configFromArgs(t, "--etherscan.max-response", "10B", "a.txt")
	require.ErrorContains(t, err, "at least 1KB")
}

func TestSetFlagsFromConfigFile(t *testing.T) {
	path := writeFile(t, "essnoop.toml", `
output = "from-file.csv"
concurrency = 2
dot = true
"ethersolve.timeout" = "1m"

[etherscan]
timeout = "45s"
max-response = "2MB"
requests = 5
`)
	for _, outputFlag := range []string{"--output", "-o"} {
		t.Run(outputFlag, func(t *testing.T) {
			var (
				cfg batch.Config
				err error
			)
			runWithCtx(t, func(ctx *cli.Context) {
				if err = setFlagsFromConfigFile(ctx, path); err == nil {
					cfg, err = configFromCtx(ctx)
				}
			}, outputFlag, "from-cli.csv", "addresses.txt")
			require.NoError(t, err)

			require.Equal(t, "from-cli.csv", cfg.Output)
			require.Equal(t, 2, cfg.Concurrency)
			require.True(t, cfg.Dot)
			require.Equal(t, time.Minute, cfg.EtherSolveTimeout)
			require.Equal(t, 45*time.Second, cfg.EtherscanTimeout)
			require.Equal(t, 2*datasize.MB, cfg.EtherscanMaxResponse)
			require.Equal(t, 5, cfg.EtherscanRequests)
		})
	}
}

func TestSetFlagsFromConfigFileErrors(t *testing.T) {
	for name, tc := range map[string]struct {
		path func(t *testing.T) string
		want string
	}{
		"missing":   {path: func(t *testing.T) string { return filepath.Join(t.TempDir(), "missing.toml") }, want: "missing.toml"},
		"bad toml":  {path: func(t *testing.T) string { return writeFile(t, "bad.toml", "output = ") }, want: "bad.toml"},
		"unknown":   {path: func(t *testing.T) string { return writeFile(t, "unknown.toml", `colour = "blue"`) }, want: "colour"},
		"bad value": {path: func(t *testing.T) string { return writeFile(t, "badvalue.toml", `concurrency = "many"`) }, want: "concurrency"},
	} {
		t.Run(name, func(t *testing.T) {
			path := tc.path(t)
			var err error
			runWithCtx(t, func(ctx *cli.Context) { err = setFlagsFromConfigFile(ctx, path) }, "addresses.txt")
			require.ErrorContains(t, err, tc.want)
		})
	}
}

func TestFlagValue(t *testing.T) {
	require.Equal(t, "3", flagValue(int64(3)))
	require.Equal(t, "true", flagValue(true))
	require.Equal(t, "a,b", flagValue([]interface{}{"a", "b"}))
}

func TestPreflight(t *testing.T) {
	input := writeFile(t, "addresses.txt", "0x0000000000000000000000000000000000000001\n")
	jar := writeFile(t, "EtherSolve.jar", "jar")

	cfg := batch.DefaultConfig()
	cfg.Input = input
	cfg.Jar = jar
	cfg.EtherscanAPIKey = "key"
	require.NoError(t, preflight(cfg))

	noKey := cfg
	noKey.EtherscanAPIKey = ""
	require.ErrorContains(t, preflight(noKey), "API key")
	noKey.Preserve.Bytecode = true
	require.NoError(t, preflight(noKey))

	noInput := cfg
	noInput.Input = filepath.Join(t.TempDir(), "missing.txt")
	require.ErrorContains(t, preflight(noInput), "input file")

	noJar := cfg
	noJar.Jar = filepath.Join(t.TempDir(), "missing.jar")
	require.ErrorContains(t, preflight(noJar), "jar")
}
