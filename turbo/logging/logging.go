// Copyright 2024 The Erigon Authors
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

// Package logging configures the root logger from command line flags:
// console output plus an optional rotating file in a log directory.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ledgerwatch/log/v3"
	"github.com/urfave/cli/v2"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Config struct {
	FilePrefix   string
	ConsoleLevel log.Lvl
	ConsoleJson  bool
	DirPath      string // empty means console only
	DirLevel     log.Lvl
	DirJson      bool
}

// ConfigFromCtx reads the logging flags. defaultDir is used when
// --log.dir.path is not given.
func ConfigFromCtx(filePrefix string, ctx *cli.Context, defaultDir string) Config {
	cfg := Config{
		FilePrefix:  filePrefix,
		ConsoleJson: ctx.Bool(LogJsonFlag.Name) || ctx.Bool(LogConsoleJsonFlag.Name),
		DirJson:     ctx.Bool(LogDirJsonFlag.Name),
	}

	consoleLevel, lErr := tryGetLogLevel(ctx.String(LogConsoleVerbosityFlag.Name))
	if lErr != nil {
		// try verbosity flag
		consoleLevel, lErr = tryGetLogLevel(ctx.String(LogVerbosityFlag.Name))
		if lErr != nil {
			consoleLevel = log.LvlInfo
		}
	}
	cfg.ConsoleLevel = consoleLevel

	dirLevel, dErr := tryGetLogLevel(ctx.String(LogDirVerbosityFlag.Name))
	if dErr != nil {
		dirLevel = log.LvlInfo
	}
	cfg.DirLevel = dirLevel

	if !ctx.Bool(LogDirDisableFlag.Name) {
		cfg.DirPath = ctx.String(LogDirPathFlag.Name)
		if cfg.DirPath == "" {
			cfg.DirPath = defaultDir
		}
	}
	if prefix := ctx.String(LogDirPrefixFlag.Name); prefix != "" {
		cfg.FilePrefix = prefix
	}
	return cfg
}

// SetupLoggerCtx installs the handlers described by the flags on the root
// logger and returns it.
func SetupLoggerCtx(filePrefix string, ctx *cli.Context, defaultDir string) log.Logger {
	return Setup(ConfigFromCtx(filePrefix, ctx, defaultDir), os.Stderr)
}

func Setup(cfg Config, console io.Writer) log.Logger {
	logger := log.Root()

	var consoleHandler log.Handler
	switch {
	case cfg.ConsoleJson:
		consoleHandler = log.StreamHandler(console, log.JsonFormat())
	case console == os.Stderr:
		consoleHandler = log.StderrHandler
	default:
		consoleHandler = log.StreamHandler(console, log.TerminalFormatNoColor())
	}
	logger.SetHandler(log.LvlFilterHandler(cfg.ConsoleLevel, consoleHandler))

	if len(cfg.DirPath) == 0 {
		logger.Debug("no log dir set, console logging only")
		return logger
	}

	if err := os.MkdirAll(cfg.DirPath, 0764); err != nil {
		logger.Warn("failed to create log dir, console logging only", "err", err)
		return logger
	}

	dirFormat := log.TerminalFormatNoColor()
	if cfg.DirJson {
		dirFormat = log.JsonFormat()
	}

	lumberjack := &lumberjack.Logger{
		Filename:   filepath.Join(cfg.DirPath, cfg.FilePrefix+".log"),
		MaxSize:    100, // megabytes
		MaxBackups: 3,
		MaxAge:     28, //days
	}
	userLog := log.StreamHandler(lumberjack, dirFormat)

	mux := log.MultiHandler(logger.GetHandler(), log.LvlFilterHandler(cfg.DirLevel, userLog))
	logger.SetHandler(mux)
	logger.Debug("logging to file system", "log dir", cfg.DirPath, "file prefix", cfg.FilePrefix, "log level", cfg.DirLevel, "json", cfg.DirJson)
	return logger
}

func tryGetLogLevel(s string) (log.Lvl, error) {
	lvl, err := log.LvlFromString(s)
	if err != nil {
		l, err := strconv.Atoi(s)
		if err != nil {
			return 0, err
		}
		return log.Lvl(l), nil
	}
	return lvl, nil
}
