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

// Package exporter writes engine snapshots to CSV files.
package exporter

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/phuonguno98/unomon/internal/config"
	"github.com/phuonguno98/unomon/pkg/metrics"
)

const naString = "N/A"

// openFile is replaced in tests.
var openFile = os.OpenFile

// column is one CSV column: its header and how to read its cell from a snapshot.
type column struct {
	header string
	value  func(s *metrics.Snapshot) string
}

// CSVExporter exports metrics to a CSV file with buffering.
type CSVExporter struct {
	config        *config.Config
	file          *os.File
	csvWriter     *csv.Writer
	bufWriter     *bufio.Writer
	metricsChan   <-chan *metrics.Snapshot
	flushTicker   *time.Ticker
	recordCount   int
	logger        *slog.Logger
	headerWritten bool
	columns       []column       // Fixed by the first snapshot
	location      *time.Location // Timezone location for timestamps
	currentSize   int64          // Current file size in bytes
	basePath      string         // Base output path
	fileIndex     int            // Index for file rotation
}

// NewCSVExporter creates a new CSV exporter instance.
func NewCSVExporter(cfg *config.Config, metricsChan <-chan *metrics.Snapshot, logger *slog.Logger) (*CSVExporter, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	// Open output file
	file, err := openFile(cfg.OutputPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open output file: %w", err)
	}

	// Get initial file size (if appending)
	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	bufWriter := bufio.NewWriterSize(file, 8192) // 8KB buffer

	return &CSVExporter{
		config:      cfg,
		file:        file,
		csvWriter:   csv.NewWriter(bufWriter),
		bufWriter:   bufWriter,
		metricsChan: metricsChan,
		logger:      logger,
		location:    loc,
		currentSize: stat.Size(),
		// Appending to a file that already has rows: it already carries a header
		headerWritten: stat.Size() > 0,
		basePath:      cfg.OutputPath,
	}, nil
}

// Start begins listening to the metrics channel and writing to CSV.
// It returns after ctx is cancelled or the channel is closed, flushing first.
func (e *CSVExporter) Start(ctx context.Context) error {
	e.logger.Info("Starting CSV exporter", "output", e.config.OutputPath, "timezone", e.config.Timezone)

	// Start flush ticker
	e.flushTicker = time.NewTicker(e.config.FlushInterval)
	defer e.flushTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("CSV exporter stopping...")
			return e.flush()

		case snapshot, ok := <-e.metricsChan:
			if !ok {
				// Channel closed, flush and exit
				e.logger.Info("Metrics channel closed, flushing remaining data...")
				return e.flush()
			}

			if err := e.writeSnapshot(snapshot); err != nil {
				e.logger.Error("Failed to write snapshot", "error", err)
			}

			e.recordCount++

			// Flush if buffer size reached
			if e.recordCount >= e.config.BufferSize {
				if err := e.flush(); err != nil {
					e.logger.Error("Failed to flush", "error", err)
				}
				e.recordCount = 0
			}

		case <-e.flushTicker.C:
			// Time-based flush
			if e.recordCount > 0 {
				if err := e.flush(); err != nil {
					e.logger.Error("Failed to flush", "error", err)
				}
				e.recordCount = 0
			}
		}
	}
}

// writeSnapshot writes a single snapshot to the CSV file.
func (e *CSVExporter) writeSnapshot(snapshot *metrics.Snapshot) error {
	if e.columns == nil {
		e.columns = columnsFor(snapshot)
	}

	// Write header if this is the first record
	if !e.headerWritten {
		if err := e.writeHeader(); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
		e.headerWritten = true
	}

	// Check before writing to stay close to the limit
	if e.currentSize >= e.config.MaxFileSize {
		if err := e.rotateFile(); err != nil {
			// Keep writing to the current file
			e.logger.Error("Failed to rotate file", "error", err)
		}
	}

	row := e.buildRow(snapshot)
	if err := e.csvWriter.Write(row); err != nil {
		return fmt.Errorf("failed to write row: %w", err)
	}

	e.currentSize += rowSize(row) // Approximate size tracking
	return nil
}

// writeHeader writes the CSV header row.
func (e *CSVExporter) writeHeader() error {
	header := make([]string, 0, len(e.columns)+1)
	header = append(header, "Timestamp")
	for _, c := range e.columns {
		header = append(header, c.header)
	}

	if err := e.csvWriter.Write(header); err != nil {
		return err
	}
	e.currentSize += rowSize(header)
	return nil
}

// buildRow builds a CSV row from a snapshot.
func (e *CSVExporter) buildRow(snapshot *metrics.Snapshot) []string {
	// Convert timestamp to configured timezone
	ts := snapshot.Timestamp.In(e.location)

	row := make([]string, 0, len(e.columns)+1)
	row = append(row, ts.Format("2006-01-02 15:04:05"))
	for _, c := range e.columns {
		row = append(row, c.value(snapshot))
	}
	return row
}

// columnsFor derives the column layout from the metric groups present in s.
func columnsFor(s *metrics.Snapshot) []column {
	var cols []column

	if s.CPU != nil {
		cols = append(cols,
			column{"CPU Utilization (%)", func(s *metrics.Snapshot) string {
				if s.CPU == nil || !s.CPU.Available {
					return naString
				}
				return formatFloat(s.CPU.Percent)
			}},
			column{"CPU Band", func(s *metrics.Snapshot) string {
				if s.CPU == nil {
					return naString
				}
				return formatBand(s.CPU.Band)
			}},
		)
	}

	if s.Memory != nil {
		memory := func(s *metrics.Snapshot) *metrics.MemoryMetric {
			if s.Memory == nil || s.Memory.LastUpdated.IsZero() {
				return nil
			}
			return s.Memory
		}
		cols = append(cols,
			column{"Memory Used (bytes)", func(s *metrics.Snapshot) string {
				if m := memory(s); m != nil {
					return formatUint(m.UsedBytes)
				}
				return naString
			}},
			column{"Memory Total (bytes)", func(s *metrics.Snapshot) string {
				if m := memory(s); m != nil {
					return formatUint(m.TotalBytes)
				}
				return naString
			}},
			column{"Memory Utilization (%)", func(s *metrics.Snapshot) string {
				if m := memory(s); m != nil {
					return formatFloat(m.Percent)
				}
				return naString
			}},
			column{"Memory Band", func(s *metrics.Snapshot) string {
				if m := memory(s); m != nil {
					return formatBand(m.Band)
				}
				return naString
			}},
		)
	}

	if s.Disk != nil {
		mount := s.Disk.MountPoint
		disk := func(s *metrics.Snapshot) *metrics.DiskMetric {
			if s.Disk == nil || s.Disk.LastUpdated.IsZero() {
				return nil
			}
			return s.Disk
		}
		cols = append(cols,
			column{fmt.Sprintf("Disk [%s] Used (%%)", mount), func(s *metrics.Snapshot) string {
				if d := disk(s); d != nil {
					return formatFloat(d.UsedPercent)
				}
				return naString
			}},
			column{fmt.Sprintf("Disk [%s] Free (bytes)", mount), func(s *metrics.Snapshot) string {
				if d := disk(s); d != nil {
					return formatUint(d.FreeBytes)
				}
				return naString
			}},
			column{fmt.Sprintf("Disk [%s] Band", mount), func(s *metrics.Snapshot) string {
				if d := disk(s); d != nil {
					return formatBand(d.Band)
				}
				return naString
			}},
		)
	}

	if s.NetworkSpeed != nil {
		speed := func(s *metrics.Snapshot) *metrics.NetworkSpeed {
			if s.NetworkSpeed == nil || !s.NetworkSpeed.Available {
				return nil
			}
			return s.NetworkSpeed
		}
		cols = append(cols,
			column{"Network Receive (B/s)", func(s *metrics.Snapshot) string {
				if n := speed(s); n != nil {
					return formatFloat(n.RxRateBps)
				}
				return naString
			}},
			column{"Network Transmit (B/s)", func(s *metrics.Snapshot) string {
				if n := speed(s); n != nil {
					return formatFloat(n.TxRateBps)
				}
				return naString
			}},
		)
	}

	if s.NetworkTraffic != nil {
		traffic := func(s *metrics.Snapshot) *metrics.NetworkTraffic {
			if s.NetworkTraffic == nil || s.NetworkTraffic.LastUpdated.IsZero() {
				return nil
			}
			return s.NetworkTraffic
		}
		cols = append(cols,
			column{"Network Received (bytes)", func(s *metrics.Snapshot) string {
				if n := traffic(s); n != nil {
					return formatUint(n.RxTotalBytes)
				}
				return naString
			}},
			column{"Network Transmitted (bytes)", func(s *metrics.Snapshot) string {
				if n := traffic(s); n != nil {
					return formatUint(n.TxTotalBytes)
				}
				return naString
			}},
		)
	}

	return cols
}

func formatFloat(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func formatUint(v uint64) string {
	return strconv.FormatUint(v, 10)
}

func formatBand(b metrics.Band) string {
	if b == metrics.BandNone {
		return naString
	}
	return b.String()
}

func rowSize(row []string) int64 {
	n := 1 // newline
	for _, cell := range row {
		n += len(cell) + 1 // +1 for comma
	}
	return int64(n)
}

// flush flushes the buffered data to disk.
func (e *CSVExporter) flush() error {
	e.csvWriter.Flush()
	if err := e.csvWriter.Error(); err != nil {
		return fmt.Errorf("CSV writer error: %w", err)
	}

	if err := e.bufWriter.Flush(); err != nil {
		return fmt.Errorf("buffer writer error: %w", err)
	}

	e.logger.Debug("Flushed to disk", "records", e.recordCount)
	return nil
}

// Close closes the CSV exporter and flushes remaining data.
func (e *CSVExporter) Close() error {
	e.logger.Info("Closing CSV exporter")

	if e.flushTicker != nil {
		e.flushTicker.Stop()
	}

	// Final flush
	if err := e.flush(); err != nil {
		e.logger.Error("Final flush failed", "error", err)
	}

	if err := e.file.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}

	e.logger.Info("CSV exporter closed")
	return nil
}

// rotateFile switches output to <base>_<n><ext>, skipping names that already exist.
// The current file stays open until the new one has been created.
func (e *CSVExporter) rotateFile() error {
	e.logger.Info("Rotating output file", "current_size", e.currentSize)

	if err := e.flush(); err != nil {
		return fmt.Errorf("flush before rotate failed: %w", err)
	}

	ext := filepath.Ext(e.basePath)
	base := strings.TrimSuffix(e.basePath, ext)
	index := e.fileIndex
	var newPath string

	for {
		index++
		newPath = fmt.Sprintf("%s_%d%s", base, index, ext)
		if _, err := os.Stat(newPath); os.IsNotExist(err) {
			break
		}
	}

	file, err := openFile(newPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open new rotated file: %w", err)
	}

	if err := e.file.Close(); err != nil {
		e.logger.Warn("Failed to close previous output file", "error", err)
	}

	e.fileIndex = index
	e.file = file
	e.bufWriter = bufio.NewWriterSize(file, 8192)
	e.csvWriter = csv.NewWriter(e.bufWriter)
	e.currentSize = 0

	// Write header to new file immediately
	if err := e.writeHeader(); err != nil {
		return fmt.Errorf("failed to write header to rotated file: %w", err)
	}

	e.logger.Info("File rotated successfully", "new_path", newPath)
	return nil
}
