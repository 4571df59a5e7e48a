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
	"io"
	"strings"
	"sync"
	"time"

	"github.com/phuonguno98/unomon/internal/collector"
	"github.com/phuonguno98/unomon/internal/config"
	"github.com/phuonguno98/unomon/pkg/metrics"
	"github.com/phuonguno98/unomon/pkg/version"
	"github.com/spf13/cobra"
)

// Watch command specific flags
var watchCount int

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print one line per sampling tick",
	Long: `Sample the enabled metrics at a fixed interval and print every snapshot
as a single line. The first tick only establishes the baseline for CPU and
network rates, so those read '-' until the second tick.

Examples:
  # Sample everything once per second
  unomon watch

  # CPU and memory only, every 2 seconds, ten lines
  unomon watch --metrics cpu,memory --interval 2s --count 10

  # Disk usage of /data and traffic of eth0 only
  unomon watch --mount /data --include-networks eth0`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	config.AddSamplingFlags(watchCmd.Flags())
	watchCmd.Flags().IntVarP(&watchCount, "count", "n", 0,
		"Stop after printing this many lines (0 = until interrupted)")
}

func runWatch(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, err := InitLogger(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return err
	}
	logger.Debug("Configuration loaded", "version", version.Info(), "config", cfg.String())
	checkPlatformCapabilities(cfg, logger)

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	engine, err := newEngine(cfg, logger)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(logger)
	defer cancel()

	metricsChan := make(chan *metrics.Snapshot, 10)
	manager := collector.NewManager(engine, cfg.SamplingInterval, metricsChan, logger)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		printSnapshots(ctx, cmd.OutOrStdout(), metricsChan, loc, watchCount, cancel)
	}()

	if err := manager.Start(ctx); err != nil {
		logger.Error("Collector manager stopped with error", "error", err)
	}

	close(metricsChan)
	wg.Wait()
	return nil
}

// printSnapshots writes one line per snapshot until in is closed or ctx is
// cancelled. It calls done after count lines when count is positive.
func printSnapshots(ctx context.Context, w io.Writer, in <-chan *metrics.Snapshot, loc *time.Location, count int, done func()) {
	printed := 0
	for {
		select {
		case <-ctx.Done():
			return
		case snapshot, ok := <-in:
			if !ok {
				return
			}
			fmt.Fprintln(w, FormatSnapshotLine(snapshot, loc))
			printed++
			if count > 0 && printed >= count {
				done()
				return
			}
		}
	}
}

// FormatSnapshotLine renders the enabled metrics of snapshot on one line.
// Values of metrics whose latest read failed are marked with '*'.
func FormatSnapshotLine(s *metrics.Snapshot, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}

	parts := []string{s.Timestamp.In(loc).Format("15:04:05")}

	if s.CPU != nil {
		parts = append(parts, "CPU "+withBand(metrics.FormatPercent(s.CPU.Percent, s.CPU.Available), s.CPU.Band)+staleMark(s.CPU.Freshness))
	}

	if s.Memory != nil {
		m := s.Memory
		text := "MEM -"
		if !m.LastUpdated.IsZero() {
			text = fmt.Sprintf("MEM %s/%s %s",
				metrics.FormatBytes(float64(m.UsedBytes)),
				metrics.FormatBytes(float64(m.TotalBytes)),
				withBand(metrics.FormatPercent(m.Percent, m.TotalBytes > 0), m.Band))
		}
		parts = append(parts, text+staleMark(m.Freshness))
	}

	if s.Disk != nil {
		d := s.Disk
		text := "DISK " + d.MountPoint + " -"
		if !d.LastUpdated.IsZero() {
			text = fmt.Sprintf("DISK %s %s free %s",
				d.MountPoint,
				withBand(metrics.FormatPercent(d.UsedPercent, true), d.Band),
				metrics.FormatBytes(float64(d.FreeBytes)))
		}
		parts = append(parts, text+staleMark(d.Freshness))
	}

	if s.NetworkSpeed != nil {
		text := "NET -"
		if s.NetworkSpeed.Available {
			text = "NET " + metrics.FormatSpeed(s.NetworkSpeed.RxRateBps, s.NetworkSpeed.TxRateBps)
		}
		parts = append(parts, text+staleMark(s.NetworkSpeed.Freshness))
	}

	if s.NetworkTraffic != nil {
		t := s.NetworkTraffic
		parts = append(parts, "TOTAL "+metrics.FormatTraffic(t.RxTotalBytes, t.TxTotalBytes)+staleMark(t.Freshness))
	}

	return strings.Join(parts, " | ")
}

func withBand(text string, band metrics.Band) string {
	if band == metrics.BandNone {
		return text
	}
	return fmt.Sprintf("%s [%s]", text, band)
}

func staleMark(f metrics.Freshness) string {
	if f.Stale {
		return "*"
	}
	return ""
}
