// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/shipframe/services/frame/config"
)

var (
	configPath string

	rootCmd = &cobra.Command{
		Use:   "shipframe",
		Short: "Structural frame graph service",
		Long: "shipframe hosts server-owned frame graphs for constructible structures\n" +
			"and replicates them to client mirrors over incremental updates.",
		SilenceUsage: true,
	}
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"path to config.yaml (built-in defaults apply when omitted)")
}

// loadConfig returns the file configuration, or defaults when no file was
// given.
func loadConfig() (config.Config, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	return config.Load(configPath)
}

// setupLogging builds the process logger and installs it as the slog
// default. "auto" format logs text on a terminal and JSON otherwise.
func setupLogging(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch {
	case cfg.Format == "text",
		cfg.Format == "auto" && isatty.IsTerminal(os.Stderr.Fd()):
		handler = slog.NewTextHandler(os.Stderr, opts)
	default:
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
