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
	"runtime"
	"sync"

	"github.com/phuonguno98/unomon/internal/collector"
	"github.com/phuonguno98/unomon/internal/config"
	"github.com/phuonguno98/unomon/internal/exporter"
	"github.com/phuonguno98/unomon/pkg/metrics"
	"github.com/phuonguno98/unomon/pkg/version"
	"github.com/spf13/cobra"
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Sample metrics and save them to CSV",
	Long: `Sample the enabled metrics at a fixed interval and append every snapshot
to a CSV file. Metrics that are not available yet are written as N/A.
The file is rotated to <name>_1.csv, <name>_2.csv, ... once it grows past
--max-file-size.

Examples:
  # Run in foreground with default settings
  unomon collect

  # Custom interval, mount point and output
  unomon collect --interval 5s --mount /var -o /tmp/var.csv`,
	RunE: runCollect,
}

func init() {
	rootCmd.AddCommand(collectCmd)

	config.AddSamplingFlags(collectCmd.Flags())
	config.AddOutputFlags(collectCmd.Flags())
}

// runCollect is the CSV export entry point.
func runCollect(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// Set defaults if not specified
	if cfg.OutputPath == "" {
		cfg.OutputPath = config.GetDefaultOutputPath()
	}
	if err := cfg.ValidateOutput(); err != nil {
		return err
	}

	logger, err := InitLogger(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return err
	}

	logger.Info("Starting UnoMon",
		"version", version.Info(),
		"os", runtime.GOOS,
		"arch", runtime.GOARCH,
	)
	logger.Info("Configuration loaded", "config", cfg.String())

	checkPlatformCapabilities(cfg, logger)

	engine, err := newEngine(cfg, logger)
	if err != nil {
		return err
	}

	// Create metrics channel (buffered to avoid blocking the manager)
	metricsChan := make(chan *metrics.Snapshot, 10)

	collectorMgr := collector.NewManager(engine, cfg.SamplingInterval, metricsChan, logger)

	csvExporter, err := exporter.NewCSVExporter(cfg, metricsChan, logger)
	if err != nil {
		logger.Error("Failed to create CSV exporter", "error", err)
		return err
	}
	defer func() {
		if err := csvExporter.Close(); err != nil {
			logger.Error("Failed to close exporter", "error", err)
		}
	}()

	ctx, cancel := signalContext(logger)
	defer cancel()

	logger.Info("UnoMon is running", "output", cfg.OutputPath)

	var wg sync.WaitGroup

	// The exporter drains until the channel is closed, not until ctx is done,
	// so the last snapshots are written.
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := csvExporter.Start(context.Background()); err != nil {
			logger.Error("Exporter stopped with error", "error", err)
		}
	}()

	// Blocks until ctx is cancelled
	if err := collectorMgr.Start(ctx); err != nil {
		logger.Error("Collector manager stopped with error", "error", err)
	}

	logger.Info("Shutting down...")

	close(metricsChan)
	wg.Wait()

	logger.Info("Shutdown complete")

	return nil
}
