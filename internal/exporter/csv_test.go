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

package exporter

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/phuonguno98/unomon/internal/config"
	"github.com/phuonguno98/unomon/pkg/metrics"
)

var testTime = time.Date(2023, 10, 26, 12, 0, 0, 0, time.UTC)

func testConfig(outputPath string) *config.Config {
	cfg := config.Default()
	cfg.OutputPath = outputPath
	cfg.Timezone = "UTC"
	cfg.FlushInterval = 100 * time.Millisecond
	cfg.BufferSize = 10
	return cfg
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fresh() metrics.Freshness {
	return metrics.Freshness{LastUpdated: testTime}
}

func fullSnapshot() *metrics.Snapshot {
	return &metrics.Snapshot{
		Timestamp: testTime,
		Sequence:  2,
		CPU:       &metrics.CPUMetric{Percent: 45.5, Available: true, Band: metrics.BandLow, Freshness: fresh()},
		Memory: &metrics.MemoryMetric{
			UsedBytes: 6 << 30, TotalBytes: 8 << 30, Percent: 75, Band: metrics.BandHigh, Freshness: fresh(),
		},
		Disk: &metrics.DiskMetric{
			MountPoint: "/", UsedPercent: 91.25, FreeBytes: 1024, Band: metrics.BandCritical, Freshness: fresh(),
		},
		NetworkSpeed: &metrics.NetworkSpeed{RxRateBps: 1_000_000, TxRateBps: 250, Available: true, Freshness: fresh()},
		NetworkTraffic: &metrics.NetworkTraffic{
			RxTotalBytes: 123456, TxTotalBytes: 789, Freshness: fresh(),
		},
	}
}

func readRecords(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Failed to open output file: %v", err)
	}
	defer func() { _ = f.Close() }()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("Failed to read CSV: %v", err)
	}
	return records
}

func TestCSVExporter_Export(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "export_test.csv")
	metricsChan := make(chan *metrics.Snapshot, 10)

	exporter, err := NewCSVExporter(testConfig(outputPath), metricsChan, testLogger())
	if err != nil {
		t.Fatalf("NewCSVExporter() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)

	go func() {
		done <- exporter.Start(ctx)
	}()

	metricsChan <- fullSnapshot()

	// Closing the channel drains and flushes
	close(metricsChan)
	if err := <-done; err != nil {
		t.Errorf("Exporter finished with error: %v", err)
	}
	cancel()
	if err := exporter.Close(); err != nil {
		t.Errorf("Failed to close exporter: %v", err)
	}

	records := readRecords(t, outputPath)
	if len(records) != 2 {
		t.Fatalf("Expected 2 records (Header + 1 Row), got %d", len(records))
	}

	expectedHeader := []string{
		"Timestamp",
		"CPU Utilization (%)",
		"CPU Band",
		"Memory Used (bytes)",
		"Memory Total (bytes)",
		"Memory Utilization (%)",
		"Memory Band",
		"Disk [/] Used (%)",
		"Disk [/] Free (bytes)",
		"Disk [/] Band",
		"Network Receive (B/s)",
		"Network Transmit (B/s)",
		"Network Received (bytes)",
		"Network Transmitted (bytes)",
	}
	expectedRow := []string{
		"2023-10-26 12:00:00",
		"45.50",
		"low",
		"6442450944",
		"8589934592",
		"75.00",
		"high",
		"91.25",
		"1024",
		"critical",
		"1000000.00",
		"250.00",
		"123456",
		"789",
	}

	for i, want := range [][]string{expectedHeader, expectedRow} {
		got := records[i]
		if len(got) != len(want) {
			t.Fatalf("record %d length = %d, want %d", i, len(got), len(want))
		}
		for j := range want {
			if got[j] != want[j] {
				t.Errorf("record %d [%d] = %q, want %q", i, j, got[j], want[j])
			}
		}
	}
}

func TestCSVExporter_NA_Handling(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "export_na.csv")
	exporter, err := NewCSVExporter(testConfig(outputPath), nil, testLogger())
	if err != nil {
		t.Fatalf("NewCSVExporter() error = %v", err)
	}

	// First tick: rates not yet available, disk never read
	first := &metrics.Snapshot{
		Timestamp:    testTime,
		CPU:          &metrics.CPUMetric{Freshness: fresh()},
		Disk:         &metrics.DiskMetric{MountPoint: "/data", Freshness: metrics.Freshness{Stale: true, Error: "boom"}},
		NetworkSpeed: &metrics.NetworkSpeed{Freshness: fresh()},
	}
	// Later tick is missing a group the header was built from
	second := &metrics.Snapshot{
		Timestamp: testTime.Add(time.Second),
		CPU:       &metrics.CPUMetric{Percent: 12, Available: true, Band: metrics.BandLow, Freshness: fresh()},
	}

	for _, s := range []*metrics.Snapshot{first, second} {
		if err := exporter.writeSnapshot(s); err != nil {
			t.Fatalf("writeSnapshot() error = %v", err)
		}
	}
	if err := exporter.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	records := readRecords(t, outputPath)
	if len(records) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(records))
	}

	// Header: Time, CPU, CPU Band, Disk Used, Disk Free, Disk Band, Rx, Tx
	if got := len(records[0]); got != 8 {
		t.Fatalf("Header length = %d, want 8: %v", got, records[0])
	}
	for i, v := range records[1][1:] {
		if v != naString {
			t.Errorf("first row [%d] = %q, want N/A", i+1, v)
		}
	}
	if records[2][1] != "12.00" || records[2][2] != "low" {
		t.Errorf("second row CPU = %q %q", records[2][1], records[2][2])
	}
	for i, v := range records[2][3:] {
		if v != naString {
			t.Errorf("second row [%d] = %q, want N/A", i+3, v)
		}
	}
}

func TestCSVExporter_AppendSkipsHeader(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "append.csv")
	for i := 0; i < 2; i++ {
		exporter, err := NewCSVExporter(testConfig(outputPath), nil, testLogger())
		if err != nil {
			t.Fatalf("NewCSVExporter() error = %v", err)
		}
		if err := exporter.writeSnapshot(fullSnapshot()); err != nil {
			t.Fatalf("writeSnapshot() error = %v", err)
		}
		if err := exporter.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}
	}

	records := readRecords(t, outputPath)
	if len(records) != 3 {
		t.Errorf("Expected header + 2 rows, got %d records", len(records))
	}
}

func TestCSVExporter_FileRotation(t *testing.T) {
	tempDir := t.TempDir()
	outputPath := filepath.Join(tempDir, "rotation_test.csv")

	// Pre-existing rotated file must not be overwritten
	existing := filepath.Join(tempDir, "rotation_test_1.csv")
	if err := os.WriteFile(existing, []byte("existing data 1"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := testConfig(outputPath)
	cfg.MaxFileSize = 1
	exporter, err := NewCSVExporter(cfg, nil, testLogger())
	if err != nil {
		t.Fatalf("NewCSVExporter() error = %v", err)
	}

	if err := exporter.writeSnapshot(fullSnapshot()); err != nil {
		t.Fatalf("writeSnapshot() error = %v", err)
	}
	if err := exporter.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(existing)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "existing data 1" {
		t.Errorf("existing rotated file was overwritten: %q", data)
	}

	rotatedPath := filepath.Join(tempDir, "rotation_test_2.csv")
	records := readRecords(t, rotatedPath)
	if len(records) != 2 {
		t.Fatalf("Rotated file records = %d, want header + row", len(records))
	}
	if records[0][0] != "Timestamp" {
		t.Errorf("Rotated file header = %v", records[0])
	}
}

func TestCSVExporter_FirstRotationIndex(t *testing.T) {
	tempDir := t.TempDir()
	cfg := testConfig(filepath.Join(tempDir, "first.csv"))
	cfg.MaxFileSize = 1
	exporter, err := NewCSVExporter(cfg, nil, testLogger())
	if err != nil {
		t.Fatalf("NewCSVExporter() error = %v", err)
	}
	if err := exporter.writeSnapshot(fullSnapshot()); err != nil {
		t.Fatalf("writeSnapshot() error = %v", err)
	}
	if err := exporter.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if records := readRecords(t, filepath.Join(tempDir, "first_1.csv")); len(records) != 2 {
		t.Errorf("first_1.csv records = %d, want header + row", len(records))
	}
}

func TestCSVExporter_RotationFailureKeepsCurrentFile(t *testing.T) {
	tempDir := t.TempDir()
	outputPath := filepath.Join(tempDir, "keep.csv")

	cfg := testConfig(outputPath)
	cfg.MaxFileSize = 1
	exporter, err := NewCSVExporter(cfg, nil, testLogger())
	if err != nil {
		t.Fatalf("NewCSVExporter() error = %v", err)
	}

	origOpenFile := openFile
	defer func() { openFile = origOpenFile }()
	openFile = func(string, int, os.FileMode) (*os.File, error) {
		return nil, errors.New("disk full")
	}

	for i := 0; i < 2; i++ {
		if err := exporter.writeSnapshot(fullSnapshot()); err != nil {
			t.Fatalf("writeSnapshot() error = %v", err)
		}
	}
	if err := exporter.Close(); err != nil {
		t.Fatalf("Close() error = %v, want rows kept in the current file", err)
	}

	records := readRecords(t, outputPath)
	if len(records) != 3 {
		t.Errorf("Current file records = %d, want header + 2 rows", len(records))
	}
	if _, err := os.Stat(filepath.Join(tempDir, "keep_1.csv")); !os.IsNotExist(err) {
		t.Errorf("rotated file should not exist, stat error = %v", err)
	}
}

func TestCSVExporter_InvalidTimezone(t *testing.T) {
	cfg := testConfig(filepath.Join(t.TempDir(), "tz.csv"))
	cfg.Timezone = "Invalid/Zone"
	if _, err := NewCSVExporter(cfg, nil, testLogger()); err == nil {
		t.Error("NewCSVExporter() expected error for invalid timezone")
	}
}

func TestCSVExporter_TimestampInLocation(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "tz.csv")
	cfg := testConfig(outputPath)
	cfg.Timezone = "Asia/Ho_Chi_Minh"
	exporter, err := NewCSVExporter(cfg, nil, testLogger())
	if err != nil {
		t.Skipf("timezone database unavailable: %v", err)
	}

	row := exporter.buildRow(&metrics.Snapshot{Timestamp: testTime})
	if row[0] != "2023-10-26 19:00:00" {
		t.Errorf("timestamp = %q, want 2023-10-26 19:00:00", row[0])
	}
	_ = exporter.Close()
}
