/*
 * MIT License
 *
 * Copyright (c) 2026 Nguyen Thanh Phuong
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/phuonguno98/unomon/internal/collector"
	"github.com/phuonguno98/unomon/internal/config"
	"github.com/phuonguno98/unomon/internal/source"
	"github.com/spf13/cobra"
)

var (
	// Global persistent flags (shared by subcommands)
	configPath string
	envFile    string
)

const (
	osWindows = "windows"
	osLinux   = "linux"
	osDarwin  = "darwin"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "unomon",
	Short: "UnoMon - Lightweight host metrics sampler",
	Long: `UnoMon samples aggregate CPU utilization, memory usage, filesystem
capacity of one mount point and network throughput at a fixed interval.
Snapshots can be printed to the terminal, exported to CSV or served over HTTP.

Settings are read, in increasing priority, from built-in defaults, a YAML file
(--config), the environment (UNOMON_*, also loaded from .env) and flags.

Use 'unomon watch' to begin sampling.`,
	SilenceUsage: true,
	// No RunE field, so it prints help by default
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "",
		"Environment file to load (default: .env when present)")
	config.AddLoggingFlags(rootCmd.PersistentFlags())
}

// loadConfig merges defaults, the config file, the environment and the
// explicitly set flags of cmd, then validates the result.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath, envFile)
	if err != nil {
		return nil, err
	}

	if err := cfg.ApplyFlags(cmd.Flags()); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// InitLogger initializes and returns a slog.Logger based on the provided settings.
// It is shared by all commands to ensure consistent logging format.
func InitLogger(levelStr, fileStr string) (*slog.Logger, error) {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if fileStr != "" {
		f, err := os.OpenFile(fileStr, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		handler = slog.NewJSONHandler(f, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler), nil
}

// newEngine opens the configured counter source and builds an engine over it.
func newEngine(cfg *config.Config, logger *slog.Logger) (*collector.Engine, error) {
	reader, err := source.New(cfg.Source, cfg.ProcRoot)
	if err != nil {
		return nil, err
	}
	return collector.NewEngine(cfg.EngineOptions(), reader, logger), nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("Received signal, initiating shutdown", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}

// checkPlatformCapabilities logs platform-specific capability notes.
func checkPlatformCapabilities(cfg *config.Config, logger *slog.Logger) {
	switch runtime.GOOS {
	case osLinux:
		logger.Info("Running on Linux: All metrics available", "source", cfg.SourceName())
	case osDarwin, osWindows:
		if cfg.Source == source.KindProcfs {
			logger.Warn("procfs source selected on a platform without /proc, reads will fail", "os", runtime.GOOS)
		}
	default:
		logger.Warn("Running on unsupported platform, some metrics may not work", "os", runtime.GOOS)
	}
}

