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
	"runtime"
	"sync"

	"github.com/phuonguno98/unomon/internal/collector"
	"github.com/phuonguno98/unomon/internal/config"
	"github.com/phuonguno98/unomon/internal/server"
	"github.com/phuonguno98/unomon/pkg/metrics"
	"github.com/phuonguno98/unomon/pkg/version"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the latest snapshot over HTTP",
	Long: `Sample the enabled metrics at a fixed interval and expose them over HTTP.

Endpoints:
  GET /api/snapshot   latest snapshot as JSON (503 before the first tick)
  GET /api/health     per-metric freshness of the latest snapshot
  GET /api/version    build information and instance id
  GET /api/stream     WebSocket stream of every new snapshot

Examples:
  # Listen on the default address (127.0.0.1:8086)
  unomon serve

  # Listen on all interfaces, sample every 2 seconds
  unomon serve --listen 0.0.0.0:8086 --interval 2s`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	config.AddSamplingFlags(serveCmd.Flags())
	config.AddServerFlags(serveCmd.Flags())
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, err := InitLogger(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return err
	}

	logger.Info("Starting UnoMon server",
		"version", version.Info(),
		"os", runtime.GOOS,
		"arch", runtime.GOARCH,
	)
	logger.Info("Configuration loaded", "config", cfg.String(), "listen", cfg.ListenAddr)

	checkPlatformCapabilities(cfg, logger)

	engine, err := newEngine(cfg, logger)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(logger)
	defer cancel()

	metricsChan := make(chan *metrics.Snapshot, 10)
	collectorMgr := collector.NewManager(engine, cfg.SamplingInterval, metricsChan, logger)
	srv := server.NewServer(logger)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		srv.Run(ctx, metricsChan)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := collectorMgr.Start(ctx); err != nil {
			logger.Error("Collector manager stopped with error", "error", err)
		}
	}()

	// Blocks until ctx is cancelled or the listener fails
	serveErr := srv.ListenAndServe(ctx, cfg.ListenAddr)
	if serveErr != nil {
		logger.Error("HTTP server stopped with error", "error", serveErr)
	}

	cancel()
	wg.Wait()

	logger.Info("Shutdown complete")
	return serveErr
}
