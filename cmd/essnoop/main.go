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

// essnoop measures how many JUMP/JUMPI targets EtherSolve recovers for a
// list of deployed contracts and writes one CSV row per contract.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ledgerwatch/log/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"

	"github.com/Sparkhand/ESSnoop/artifacts"
	"github.com/Sparkhand/ESSnoop/batch"
	"github.com/Sparkhand/ESSnoop/etherscan"
	"github.com/Sparkhand/ESSnoop/ethersolve"
	"github.com/Sparkhand/ESSnoop/report"
	"github.com/Sparkhand/ESSnoop/turbo/logging"
)

func main() {
	app := cli.NewApp()
	app.Name = "essnoop"
	app.Usage = "Measure EtherSolve jump resolution over a list of contracts"
	app.UsageText = "essnoop [flags] <address file>"
	app.Flags = appFlags
	app.Action = runEssnoop

	if err := app.Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runEssnoop(cliCtx *cli.Context) error {
	if path := cliCtx.String(ConfigFlag.Name); path != "" {
		if err := setFlagsFromConfigFile(cliCtx, path); err != nil {
			return err
		}
	}

	cfg, err := configFromCtx(cliCtx)
	if err != nil {
		return err
	}

	dirs, err := artifacts.NewDirs(cfg.WorkDir)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dirs.WorkDir, 0o755); err != nil {
		return err
	}
	logger := logging.SetupLoggerCtx("essnoop", cliCtx, dirs.WorkDir)

	if err := preflight(cfg); err != nil {
		return err
	}

	lock, err := artifacts.TryFlock(dirs)
	if err != nil {
		return err
	}
	defer lock.Unlock()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return run(ctx, cfg, dirs, logger)
}

// preflight rejects a run before any artifact is touched.
func preflight(cfg batch.Config) error {
	if _, err := os.Stat(cfg.Input); err != nil {
		return fmt.Errorf("input file: %w", err)
	}
	if _, err := os.Stat(cfg.Jar); err != nil {
		return fmt.Errorf("EtherSolve jar: %w", err)
	}
	if cfg.EtherscanAPIKey == "" && !cfg.Preserve.Bytecode && !cfg.Preserve.All {
		return errors.New("no Etherscan API key, set --etherscan.api-key or ETHERSCAN_API_KEY")
	}
	return nil
}

func run(ctx context.Context, cfg batch.Config, dirs artifacts.Dirs, logger log.Logger) error {
	store, err := artifacts.NewStore(afero.NewOsFs(), dirs, cfg.Preserve)
	if err != nil {
		return err
	}
	if err := store.Reset(); err != nil {
		return fmt.Errorf("reset artifacts: %w", err)
	}

	f, err := os.Open(cfg.Input)
	if err != nil {
		return err
	}
	inputs, err := batch.ReadAddresses(f, logger)
	f.Close()
	if err != nil {
		return fmt.Errorf("read %s: %w", cfg.Input, err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	metrics := batch.NewMetrics(reg)
	if cfg.MetricsAddr != "" {
		startMetricsServer(ctx, cfg.MetricsAddr, reg, logger)
	}

	limit, burst := cfg.RateLimit()
	client := etherscan.NewClient(cfg.EtherscanURL, cfg.EtherscanAPIKey, logger,
		etherscan.WithTimeout(cfg.EtherscanTimeout),
		etherscan.WithMaxResponseSize(cfg.EtherscanMaxResponse),
		etherscan.WithRateLimit(limit, burst),
		etherscan.WithMaxRetries(cfg.EtherscanMaxRetries),
		etherscan.WithRetryBackOff(cfg.EtherscanRetryBackOff),
	)
	defer client.Close()

	runner := ethersolve.NewRunner(cfg.Java, cfg.Jar, cfg.EtherSolveTimeout, logger)

	driver, err := batch.NewDriver(cfg, client, runner, store, metrics, logger)
	if err != nil {
		return err
	}

	out, err := os.Create(cfg.Output)
	if err != nil {
		return err
	}
	defer out.Close()

	csvWriter, err := report.NewWriter(out)
	if err != nil {
		return err
	}
	summary := report.NewSummary()
	ow := report.NewOrderedWriter(report.MultiWriter(csvWriter, summary))

	logger.Info("Starting", "contracts", len(inputs), "concurrency", cfg.Concurrency, "workdir", dirs.WorkDir, "jar", runner.Jar())
	runErr := driver.Run(ctx, inputs, ow)
	closeErr := ow.Close()

	if err := summary.Render(os.Stdout); err != nil {
		logger.Warn("Could not print summary", "err", err)
	}

	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			logger.Warn("Interrupted, report is partial", "rows", ow.Written(), "of", len(inputs), "path", cfg.Output)
		}
		return runErr
	}
	if closeErr != nil {
		return closeErr
	}
	logger.Info("Report written", "path", cfg.Output, "rows", ow.Written())
	return out.Sync()
}
