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
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/c2h5oh/datasize"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v2"

	"github.com/Sparkhand/ESSnoop/artifacts"
	"github.com/Sparkhand/ESSnoop/batch"
)

// setFlagsFromConfigFile applies a TOML file whose keys are flag names.
// Tables are flattened with dots, so [etherscan] timeout = "1m" sets
// --etherscan.timeout. Flags given on the command line win.
func setFlagsFromConfigFile(ctx *cli.Context, filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	fileConfig := make(map[string]interface{})
	if err := toml.Unmarshal(data, &fileConfig); err != nil {
		return fmt.Errorf("config file %s: %w", filePath, err)
	}

	flat := make(map[string]interface{})
	flatten("", fileConfig, flat)

	keys := make([]string, 0, len(flat))
	for key := range flat {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if ctx.IsSet(key) {
			continue
		}
		if err := ctx.Set(key, flagValue(flat[key])); err != nil {
			return fmt.Errorf("config file %s: %s: %w", filePath, key, err)
		}
	}
	return nil
}

func flatten(prefix string, in map[string]interface{}, out map[string]interface{}) {
	for key, value := range in {
		if prefix != "" {
			key = prefix + "." + key
		}
		if table, ok := value.(map[string]interface{}); ok {
			flatten(key, table, out)
			continue
		}
		out[key] = value
	}
}

func flagValue(value interface{}) string {
	if slice, ok := value.([]interface{}); ok {
		values := make([]string, len(slice))
		for i, v := range slice {
			values[i] = fmt.Sprintf("%v", v)
		}
		return strings.Join(values, ",")
	}
	return fmt.Sprintf("%v", value)
}

func configFromCtx(ctx *cli.Context) (batch.Config, error) {
	cfg := batch.DefaultConfig()

	cfg.Input = ctx.Args().First()
	cfg.Output = ctx.String(OutputFlag.Name)
	cfg.WorkDir = ctx.String(WorkDirFlag.Name)
	cfg.Preserve = artifacts.Preserve{
		Bytecode: ctx.Bool(PreserveBytecodeFlag.Name),
		All:      ctx.Bool(PreserveAllFlag.Name),
	}
	cfg.Dot = ctx.Bool(DotFlag.Name)
	cfg.Concurrency = ctx.Int(ConcurrencyFlag.Name)
	cfg.CacheSize = ctx.Int(CacheSizeFlag.Name)

	cfg.EtherscanURL = ctx.String(EtherscanURLFlag.Name)
	cfg.EtherscanAPIKey = ctx.String(EtherscanAPIKeyFlag.Name)
	cfg.EtherscanTimeout = ctx.Duration(EtherscanTimeoutFlag.Name)
	if err := cfg.EtherscanMaxResponse.UnmarshalText([]byte(ctx.String(EtherscanMaxResponseFlag.Name))); err != nil {
		return cfg, fmt.Errorf("--%s: %w", EtherscanMaxResponseFlag.Name, err)
	}
	if cfg.EtherscanMaxResponse < datasize.KB {
		return cfg, fmt.Errorf("--%s: must be at least 1KB, got %v", EtherscanMaxResponseFlag.Name, cfg.EtherscanMaxResponse)
	}
	cfg.EtherscanRequests = ctx.Int(EtherscanRequestsFlag.Name)
	cfg.EtherscanInterval = ctx.Duration(EtherscanIntervalFlag.Name)
	cfg.EtherscanMaxRetries = ctx.Uint64(EtherscanRetriesFlag.Name)
	cfg.EtherscanRetryBackOff = ctx.Duration(EtherscanRetryBackOffFlag.Name)

	cfg.Java = ctx.String(JavaFlag.Name)
	cfg.Jar = ctx.String(JarFlag.Name)
	cfg.EtherSolveTimeout = ctx.Duration(EtherSolveTimeoutFlag.Name)

	cfg.MetricsAddr = ctx.String(MetricsAddrFlag.Name)

	if ctx.NArg() > 1 {
		return cfg, fmt.Errorf("expected one input file, got %d arguments", ctx.NArg())
	}
	return cfg, cfg.Validate()
}
