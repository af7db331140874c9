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

// Package ethersolve runs the EtherSolve jar to build the CFG of a contract.
package ethersolve

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/ledgerwatch/log/v3"
)

var ErrAnalyzer = errors.New("analyzer error")

const (
	DefaultJava    = "java"
	DefaultJar     = "EtherSolve.jar"
	DefaultTimeout = 5 * time.Minute
)

// ExitError is returned when the analyzer exits with a nonzero status.
type ExitError struct {
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%v: exit status %d: %s", ErrAnalyzer, e.Code, e.Stderr)
}

func (e *ExitError) Unwrap() error { return ErrAnalyzer }

type Runner struct {
	java    string
	jar     string
	timeout time.Duration
	logger  log.Logger
}

func NewRunner(java, jar string, timeout time.Duration, logger log.Logger) *Runner {
	if java == "" {
		java = DefaultJava
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Runner{java: java, jar: jar, timeout: timeout, logger: logger}
}

func (r *Runner) Jar() string { return r.jar }

// Analyze runs "java -jar <jar> -rj <bytecodePath> -o <outPath>.tmp" and
// renames the CFG into place only when a non-empty file was written, so a
// crashed or killed analyzer never leaves a partial outPath behind.
func (r *Runner) Analyze(ctx context.Context, bytecodePath, outPath string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	tmpPath := outPath + ".tmp"
	defer os.Remove(tmpPath)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, r.java, "-jar", r.jar, "-rj", bytecodePath, "-o", tmpPath)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	start := time.Now()
	err := cmd.Run()
	if out := strings.TrimSpace(stdout.String()); out != "" {
		r.logger.Debug("[ethersolve] stdout", "in", bytecodePath, "out", out)
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%w: %w", ErrAnalyzer, ctxErr)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &ExitError{Code: exitErr.ExitCode(), Stderr: strings.TrimSpace(stderr.String())}
		}
		return fmt.Errorf("%w: %w", ErrAnalyzer, err)
	}

	info, err := os.Stat(tmpPath)
	if err != nil {
		return fmt.Errorf("%w: no output: %w", ErrAnalyzer, err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("%w: empty output %s", ErrAnalyzer, outPath)
	}
	if err := os.Rename(tmpPath, outPath); err != nil {
		return fmt.Errorf("%w: %w", ErrAnalyzer, err)
	}

	r.logger.Debug("[ethersolve] analyzed", "in", bytecodePath, "took", time.Since(start))
	return nil
}
