// Copyright 2024 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

// Package logging configures the root go-ethereum logger for govledger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/log"
	"github.com/govledger/govledger/internal/config"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Setup installs the root logger described by cfg. The returned closer
// releases the log file, if any.
func Setup(cfg config.LogConfig) (io.Closer, error) {
	handler, closer, err := NewHandler(cfg, os.Stderr)
	if err != nil {
		return nil, err
	}
	log.SetDefault(log.NewLogger(handler))
	return closer, nil
}

// NewHandler builds the slog handler for cfg. Records go to the rotating
// log file when one is configured, otherwise to stderr.
func NewHandler(cfg config.LogConfig, stderr *os.File) (slog.Handler, io.Closer, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}
	var (
		output   io.Writer = stderr
		closer   io.Closer = nopCloser{}
		useColor           = false
	)
	if cfg.File != "" {
		file := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			Compress:   true,
		}
		output, closer = file, file
	} else if stderr != nil {
		useColor = (isatty.IsTerminal(stderr.Fd()) || isatty.IsCygwinTerminal(stderr.Fd())) && os.Getenv("TERM") != "dumb"
		if useColor {
			output = colorable.NewColorable(stderr)
		}
	} else {
		output = io.Discard
	}
	switch cfg.Format {
	case "json":
		return log.JSONHandlerWithLevel(output, level), closer, nil
	case "terminal", "":
		return log.NewTerminalHandlerWithLevel(output, level, useColor), closer, nil
	default:
		return nil, nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}
}

// ParseLevel maps a level name to its slog level. Besides the slog names it
// accepts trace and crit.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "trace":
		return log.LevelTrace, nil
	case "crit":
		return log.LevelCrit, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", name, err)
	}
	return level, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
