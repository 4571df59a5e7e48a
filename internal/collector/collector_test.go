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

package collector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/phuonguno98/unomon/pkg/metrics"
)

// fakeReader serves canned counters and counts calls per source.
type fakeReader struct {
	cpu    metrics.CPUTimes
	cpuErr error
	mem    metrics.MemInfo
	memErr error
	fs     metrics.FilesystemUsage
	fsErr  error
	net    []metrics.InterfaceCounters
	netErr error

	cpuCalls int
	memCalls int
	fsCalls  int
	netCalls int
	mounts   []string
}

func (f *fakeReader) CPUTimes() (metrics.CPUTimes, error) {
	f.cpuCalls++
	return f.cpu, f.cpuErr
}

func (f *fakeReader) MemInfo() (metrics.MemInfo, error) {
	f.memCalls++
	return f.mem, f.memErr
}

func (f *fakeReader) FilesystemUsage(mountPoint string) (metrics.FilesystemUsage, error) {
	f.fsCalls++
	f.mounts = append(f.mounts, mountPoint)
	return f.fs, f.fsErr
}

func (f *fakeReader) NetDevCounters() ([]metrics.InterfaceCounters, error) {
	f.netCalls++
	return f.net, f.netErr
}

var errRead = fmt.Errorf("%w: read failed", metrics.ErrSourceUnavailable)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeClock returns a clock advancing only when told to.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func TestCPUCollector(t *testing.T) {
	src := &fakeReader{cpu: metrics.CPUTimes{User: 500, Idle: 500}}
	c := NewCPUCollector(src)

	// First run (baseline)
	percent, ok, err := c.Collect()
	if err != nil {
		t.Fatalf("First Collect() error = %v", err)
	}
	if ok || percent != 0 {
		t.Errorf("First Collect() = (%v, %v), want (0, false)", percent, ok)
	}

	// total 1000 -> 1500, used 500 -> 800
	src.cpu = metrics.CPUTimes{User: 800, Idle: 700}
	percent, ok, err = c.Collect()
	if err != nil {
		t.Fatalf("Second Collect() error = %v", err)
	}
	if !ok || math.Abs(percent-60.0) > 1e-9 {
		t.Errorf("Second Collect() = (%v, %v), want (60, true)", percent, ok)
	}

	if c.Name() != "CPU" {
		t.Errorf("Name() = %v, want CPU", c.Name())
	}
}

func TestCPUCollector_CounterReset(t *testing.T) {
	src := &fakeReader{cpu: metrics.CPUTimes{User: 500, Idle: 500}}
	c := NewCPUCollector(src)
	c.Collect()
	src.cpu = metrics.CPUTimes{User: 800, Idle: 700}
	c.Collect()

	// Total goes backwards
	src.cpu = metrics.CPUTimes{User: 600, Idle: 600}
	percent, ok, err := c.Collect()
	if !errors.Is(err, metrics.ErrCounterAnomaly) {
		t.Fatalf("Collect() after reset error = %v, want ErrCounterAnomaly", err)
	}
	if !ok || math.Abs(percent-60.0) > 1e-9 {
		t.Errorf("Collect() after reset = (%v, %v), want cached (60, true)", percent, ok)
	}

	// Next delta is measured from the re-baselined reading: 400/500
	src.cpu = metrics.CPUTimes{User: 1000, Idle: 700}
	percent, ok, err = c.Collect()
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if !ok || math.Abs(percent-80.0) > 1e-9 {
		t.Errorf("Collect() = (%v, %v), want (80, true)", percent, ok)
	}
}

func TestCPUCollector_NoProgress(t *testing.T) {
	src := &fakeReader{cpu: metrics.CPUTimes{User: 500, Idle: 500}}
	c := NewCPUCollector(src)
	c.Collect()

	percent, ok, err := c.Collect()
	if err != nil {
		t.Errorf("Collect() error = %v, want nil", err)
	}
	if ok || percent != 0 {
		t.Errorf("Collect() = (%v, %v), want (0, false) before any delta", percent, ok)
	}
}

func TestCPUCollector_StickyOnFailure(t *testing.T) {
	src := &fakeReader{cpu: metrics.CPUTimes{User: 500, Idle: 500}}
	c := NewCPUCollector(src)
	c.Collect()
	src.cpu = metrics.CPUTimes{User: 800, Idle: 700}
	c.Collect()

	src.cpuErr = errRead
	percent, ok, err := c.Collect()
	if !errors.Is(err, metrics.ErrSourceUnavailable) {
		t.Fatalf("Collect() error = %v, want ErrSourceUnavailable", err)
	}
	if !ok || math.Abs(percent-60.0) > 1e-9 {
		t.Errorf("Collect() on failure = (%v, %v), want sticky (60, true)", percent, ok)
	}
}

func TestMemoryCollector(t *testing.T) {
	tests := []struct {
		name      string
		info      metrics.MemInfo
		wantUsed  uint64
		wantTotal uint64
		wantErr   error
	}{
		{
			name:      "Used Is Total Minus Available",
			info:      metrics.MemInfo{TotalKB: 8_000_000, AvailableKB: 3_000_000},
			wantUsed:  5_000_000 * 1024,
			wantTotal: 8_000_000 * 1024,
		},
		{
			name:      "Available Above Total",
			info:      metrics.MemInfo{TotalKB: 1000, AvailableKB: 2000},
			wantUsed:  0,
			wantTotal: 1000 * 1024,
		},
		{
			name:    "Zero Total",
			info:    metrics.MemInfo{},
			wantErr: metrics.ErrParseFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewMemoryCollector(&fakeReader{mem: tt.info})
			used, total, err := c.Collect()
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Collect() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Collect() error = %v", err)
			}
			if used != tt.wantUsed || total != tt.wantTotal {
				t.Errorf("Collect() = (%d, %d), want (%d, %d)", used, total, tt.wantUsed, tt.wantTotal)
			}
		})
	}
}

func TestMemoryCollector_StickyOnFailure(t *testing.T) {
	src := &fakeReader{mem: metrics.MemInfo{TotalKB: 8_000_000, AvailableKB: 3_000_000}}
	c := NewMemoryCollector(src)
	if _, _, err := c.Collect(); err != nil {
		t.Fatalf("Collect() error = %v", err)
	}

	src.memErr = fmt.Errorf("%w: MemAvailable missing", metrics.ErrParseFailure)
	used, total, err := c.Collect()
	if !errors.Is(err, metrics.ErrParseFailure) {
		t.Fatalf("Collect() error = %v, want ErrParseFailure", err)
	}
	if used != 5_000_000*1024 || total != 8_000_000*1024 {
		t.Errorf("Collect() on failure = (%d, %d), want previous reading", used, total)
	}
	if c.Name() != "Memory" {
		t.Errorf("Name() = %v, want Memory", c.Name())
	}
}

func TestDiskCollector(t *testing.T) {
	src := &fakeReader{fs: metrics.FilesystemUsage{Size: 1000, Used: 250}}
	c := NewDiskCollector(src)

	pct, free, err := c.Collect("/data")
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if pct != 25 || free != 750 {
		t.Errorf("Collect() = (%v, %d), want (25, 750)", pct, free)
	}
	if len(src.mounts) != 1 || src.mounts[0] != "/data" {
		t.Errorf("queried mounts = %v, want [/data]", src.mounts)
	}

	// Zero size keeps the previous reading
	src.fs = metrics.FilesystemUsage{}
	pct, free, err = c.Collect("/data")
	if !errors.Is(err, metrics.ErrParseFailure) {
		t.Errorf("Collect() zero size error = %v, want ErrParseFailure", err)
	}
	if pct != 25 || free != 750 {
		t.Errorf("Collect() zero size = (%v, %d), want sticky (25, 750)", pct, free)
	}

	// Query failure keeps the previous reading
	src.fsErr = errRead
	pct, free, err = c.Collect("/data")
	if !errors.Is(err, metrics.ErrSourceUnavailable) {
		t.Errorf("Collect() failure error = %v, want ErrSourceUnavailable", err)
	}
	if pct != 25 || free != 750 {
		t.Errorf("Collect() failure = (%v, %d), want sticky (25, 750)", pct, free)
	}

	c.Reset()
	pct, free, _ = c.Collect("/data")
	if pct != 0 || free != 0 {
		t.Errorf("Collect() after Reset = (%v, %d), want (0, 0)", pct, free)
	}

	if c.Name() != "Disk" {
		t.Errorf("Name() = %v, want Disk", c.Name())
	}
}

func newTestNetworkCollector(src NetworkSource, clock *fakeClock, include, exclude []string) *NetworkCollector {
	c := NewNetworkCollector(src, include, exclude)
	c.now = clock.now
	return c
}

func TestNetworkCollector(t *testing.T) {
	clock := newFakeClock()
	src := &fakeReader{net: []metrics.InterfaceCounters{
		{Name: "lo", RxBytes: 1 << 40, TxBytes: 1 << 40},
		{Name: "eth0", RxBytes: 1_000_000, TxBytes: 500_000},
	}}
	c := newTestNetworkCollector(src, clock, nil, nil)

	// First run
	sample, err := c.Collect()
	if err != nil {
		t.Fatalf("First Collect() error = %v", err)
	}
	if sample.RateAvailable {
		t.Error("First Collect() RateAvailable = true, want false")
	}
	if sample.RxTotal != 1_000_000 || sample.TxTotal != 500_000 {
		t.Errorf("First Collect() totals = (%d, %d), want (1000000, 500000)", sample.RxTotal, sample.TxTotal)
	}

	// One second later, loopback moved far more than eth0
	clock.advance(time.Second)
	src.net = []metrics.InterfaceCounters{
		{Name: "lo", RxBytes: 1 << 41, TxBytes: 1 << 41},
		{Name: "eth0", RxBytes: 2_000_000, TxBytes: 750_000},
	}
	sample, err = c.Collect()
	if err != nil {
		t.Fatalf("Second Collect() error = %v", err)
	}
	if !sample.RateAvailable {
		t.Fatal("Second Collect() RateAvailable = false, want true")
	}
	if sample.RxRate != 1_000_000 || sample.TxRate != 250_000 {
		t.Errorf("Second Collect() rates = (%v, %v), want (1000000, 250000)", sample.RxRate, sample.TxRate)
	}

	if c.Name() != "Network" {
		t.Errorf("Name() = %v, want Network", c.Name())
	}
}

func TestNetworkCollector_CounterDecrease(t *testing.T) {
	clock := newFakeClock()
	src := &fakeReader{net: []metrics.InterfaceCounters{{Name: "eth0", RxBytes: 5000, TxBytes: 5000}}}
	c := newTestNetworkCollector(src, clock, nil, nil)
	c.Collect()

	clock.advance(time.Second)
	src.net = []metrics.InterfaceCounters{{Name: "eth0", RxBytes: 100, TxBytes: 6000}}
	sample, err := c.Collect()
	if !errors.Is(err, metrics.ErrCounterAnomaly) {
		t.Fatalf("Collect() error = %v, want ErrCounterAnomaly", err)
	}
	if sample.RxRate != 0 || sample.TxRate != 1000 {
		t.Errorf("Collect() rates = (%v, %v), want (0, 1000)", sample.RxRate, sample.TxRate)
	}

	// State was re-baselined at rx=100
	clock.advance(time.Second)
	src.net = []metrics.InterfaceCounters{{Name: "eth0", RxBytes: 600, TxBytes: 6000}}
	sample, err = c.Collect()
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if sample.RxRate != 500 {
		t.Errorf("Collect() rx rate = %v, want 500", sample.RxRate)
	}
}

func TestNetworkCollector_ZeroElapsedKeepsRate(t *testing.T) {
	clock := newFakeClock()
	src := &fakeReader{net: []metrics.InterfaceCounters{{Name: "eth0", RxBytes: 0, TxBytes: 0}}}
	c := newTestNetworkCollector(src, clock, nil, nil)
	c.Collect()

	clock.advance(2 * time.Second)
	src.net = []metrics.InterfaceCounters{{Name: "eth0", RxBytes: 4000, TxBytes: 2000}}
	c.Collect()

	src.net = []metrics.InterfaceCounters{{Name: "eth0", RxBytes: 9000, TxBytes: 9000}}
	sample, err := c.Collect()
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if sample.RxRate != 2000 || sample.TxRate != 1000 || !sample.RateAvailable {
		t.Errorf("Collect() = %+v, want previous rates (2000, 1000)", sample)
	}
	if sample.RxTotal != 9000 {
		t.Errorf("Collect() RxTotal = %d, want 9000", sample.RxTotal)
	}
}

func TestNetworkCollector_StickyOnFailure(t *testing.T) {
	clock := newFakeClock()
	src := &fakeReader{net: []metrics.InterfaceCounters{{Name: "eth0", RxBytes: 1000, TxBytes: 1000}}}
	c := newTestNetworkCollector(src, clock, nil, nil)
	c.Collect()
	clock.advance(time.Second)
	src.net = []metrics.InterfaceCounters{{Name: "eth0", RxBytes: 3000, TxBytes: 2000}}
	want, _ := c.Collect()

	src.netErr = errRead
	got, err := c.Collect()
	if !errors.Is(err, metrics.ErrSourceUnavailable) {
		t.Fatalf("Collect() error = %v, want ErrSourceUnavailable", err)
	}
	if got != want {
		t.Errorf("Collect() on failure = %+v, want %+v", got, want)
	}
}

func TestIsLoopback(t *testing.T) {
	for _, name := range []string{"lo", "lo0", "Loopback"} {
		if !IsLoopback(name) {
			t.Errorf("IsLoopback(%q) = false, want true", name)
		}
	}
	for _, name := range []string{"eth0", "lo1x", "wlan0"} {
		if IsLoopback(name) {
			t.Errorf("IsLoopback(%q) = true, want false", name)
		}
	}
}

func TestNetworkCollector_ShouldMonitor(t *testing.T) {
	tests := []struct {
		name    string
		include []string
		exclude []string
		iface   string
		want    bool
	}{
		{"Default", nil, nil, "eth0", true},
		{"Exclude", nil, []string{"eth0"}, "eth0", false},
		{"Exclude Different", nil, []string{"eth1"}, "eth0", true},
		{"Include Match", []string{"eth0"}, nil, "eth0", true},
		{"Include No Match", []string{"eth0"}, nil, "eth1", false},
		{"Exclude Overrides Include", []string{"eth0"}, []string{"eth0"}, "eth0", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewNetworkCollector(&fakeReader{}, tt.include, tt.exclude)
			if got := c.shouldMonitor(tt.iface); got != tt.want {
				t.Errorf("shouldMonitor(%q) = %v, want %v", tt.iface, got, tt.want)
			}
		})
	}
}

func TestNetworkCollector_SetFilters(t *testing.T) {
	clock := newFakeClock()
	src := &fakeReader{net: []metrics.InterfaceCounters{
		{Name: "eth0", RxBytes: 1000, TxBytes: 0},
		{Name: "eth1", RxBytes: 5000, TxBytes: 0},
	}}
	c := newTestNetworkCollector(src, clock, nil, nil)
	c.Collect()

	c.SetFilters([]string{"eth0"}, nil)
	clock.advance(time.Second)
	sample, err := c.Collect()
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if sample.RateAvailable {
		t.Error("Collect() after SetFilters RateAvailable = true, want fresh baseline")
	}
	if sample.RxTotal != 1000 {
		t.Errorf("Collect() RxTotal = %d, want 1000", sample.RxTotal)
	}
}

func newTestEngine(opts Options, src *fakeReader) (*Engine, *fakeClock) {
	clock := newFakeClock()
	e := NewEngine(opts, src, discardLogger())
	e.now = clock.now
	e.network.now = clock.now
	return e, clock
}

func healthyReader() *fakeReader {
	return &fakeReader{
		cpu: metrics.CPUTimes{User: 500, Idle: 500},
		mem: metrics.MemInfo{TotalKB: 8_000_000, AvailableKB: 3_000_000},
		fs:  metrics.FilesystemUsage{Size: 1000, Used: 950},
		net: []metrics.InterfaceCounters{{Name: "eth0", RxBytes: 1_000_000, TxBytes: 0}},
	}
}

func TestEngine_Sample(t *testing.T) {
	src := healthyReader()
	e, clock := newTestEngine(Options{Metrics: AllMetrics()}, src)

	first := e.Sample()
	if first.Sequence != 1 {
		t.Errorf("Sequence = %d, want 1", first.Sequence)
	}
	if first.CPU == nil || first.CPU.Available || first.CPU.Band != metrics.BandNone {
		t.Errorf("first CPU = %+v, want not available with no band", first.CPU)
	}
	if first.NetworkSpeed == nil || first.NetworkSpeed.Available {
		t.Errorf("first NetworkSpeed = %+v, want not available", first.NetworkSpeed)
	}
	if first.NetworkTraffic == nil || first.NetworkTraffic.RxTotalBytes != 1_000_000 {
		t.Errorf("first NetworkTraffic = %+v, want rx total 1000000", first.NetworkTraffic)
	}
	if first.Memory == nil || first.Memory.UsedBytes != 5_000_000*1024 || first.Memory.Band != metrics.BandMedium {
		t.Errorf("first Memory = %+v, want used 5000000 KiB in medium band", first.Memory)
	}
	if first.Disk == nil || first.Disk.MountPoint != DefaultMountPoint || first.Disk.Band != metrics.BandCritical {
		t.Errorf("first Disk = %+v, want / in critical band", first.Disk)
	}

	clock.advance(time.Second)
	src.cpu = metrics.CPUTimes{User: 800, Idle: 700}
	src.net = []metrics.InterfaceCounters{{Name: "eth0", RxBytes: 2_000_000, TxBytes: 0}}

	second := e.Sample()
	if second.Sequence != 2 {
		t.Errorf("Sequence = %d, want 2", second.Sequence)
	}
	if !second.CPU.Available || math.Abs(second.CPU.Percent-60) > 1e-9 || second.CPU.Band != metrics.BandMedium {
		t.Errorf("second CPU = %+v, want 60%% medium", second.CPU)
	}
	if !second.NetworkSpeed.Available || second.NetworkSpeed.RxRateBps != 1_000_000 {
		t.Errorf("second NetworkSpeed = %+v, want 1000000 B/s", second.NetworkSpeed)
	}
	if !second.Timestamp.Equal(clock.now()) {
		t.Errorf("Timestamp = %v, want %v", second.Timestamp, clock.now())
	}

	// Earlier snapshots are never touched
	if first.CPU.Available || first.Sequence != 1 {
		t.Error("first snapshot was mutated by a later Sample()")
	}
}

func TestEngine_DisabledMetricsNotSampled(t *testing.T) {
	tests := []struct {
		name     string
		set      MetricSet
		wantCPU  int
		wantMem  int
		wantDisk int
		wantNet  int
	}{
		{"CPU Only", MetricSet{CPU: true}, 1, 0, 0, 0},
		{"Memory Only", MetricSet{Memory: true}, 0, 1, 0, 0},
		{"Disk Only", MetricSet{Disk: true}, 0, 0, 1, 0},
		{"Speed Only", MetricSet{NetworkSpeed: true}, 0, 0, 0, 1},
		{"Traffic Only", MetricSet{NetworkTraffic: true}, 0, 0, 0, 1},
		{"Both Network", MetricSet{NetworkSpeed: true, NetworkTraffic: true}, 0, 0, 0, 1},
		{"None", MetricSet{}, 0, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := healthyReader()
			e, _ := newTestEngine(Options{Metrics: tt.set}, src)
			snap := e.Sample()

			if src.cpuCalls != tt.wantCPU || src.memCalls != tt.wantMem ||
				src.fsCalls != tt.wantDisk || src.netCalls != tt.wantNet {
				t.Errorf("calls cpu=%d mem=%d disk=%d net=%d, want %d %d %d %d",
					src.cpuCalls, src.memCalls, src.fsCalls, src.netCalls,
					tt.wantCPU, tt.wantMem, tt.wantDisk, tt.wantNet)
			}
			if (snap.CPU != nil) != tt.set.CPU {
				t.Errorf("CPU present = %v, want %v", snap.CPU != nil, tt.set.CPU)
			}
			if (snap.Memory != nil) != tt.set.Memory {
				t.Errorf("Memory present = %v, want %v", snap.Memory != nil, tt.set.Memory)
			}
			if (snap.Disk != nil) != tt.set.Disk {
				t.Errorf("Disk present = %v, want %v", snap.Disk != nil, tt.set.Disk)
			}
			if (snap.NetworkSpeed != nil) != tt.set.NetworkSpeed {
				t.Errorf("NetworkSpeed present = %v, want %v", snap.NetworkSpeed != nil, tt.set.NetworkSpeed)
			}
			if (snap.NetworkTraffic != nil) != tt.set.NetworkTraffic {
				t.Errorf("NetworkTraffic present = %v, want %v", snap.NetworkTraffic != nil, tt.set.NetworkTraffic)
			}
		})
	}
}

func TestEngine_FailureIsSoft(t *testing.T) {
	src := healthyReader()
	e, clock := newTestEngine(Options{Metrics: AllMetrics()}, src)
	good := e.Sample()

	clock.advance(time.Second)
	src.memErr = errRead
	snap := e.Sample()

	if snap.Memory.UsedBytes != good.Memory.UsedBytes {
		t.Errorf("Memory.UsedBytes = %d, want sticky %d", snap.Memory.UsedBytes, good.Memory.UsedBytes)
	}
	if !snap.Memory.Stale || snap.Memory.Error == "" {
		t.Errorf("Memory freshness = %+v, want stale with error", snap.Memory.Freshness)
	}
	if !snap.Memory.LastUpdated.Equal(good.Timestamp) {
		t.Errorf("Memory.LastUpdated = %v, want %v", snap.Memory.LastUpdated, good.Timestamp)
	}
	if snap.CPU.Stale || !snap.CPU.LastUpdated.Equal(snap.Timestamp) {
		t.Errorf("CPU freshness = %+v, want fresh", snap.CPU.Freshness)
	}

	// Recovery clears the stale flag
	clock.advance(time.Second)
	src.memErr = nil
	snap = e.Sample()
	if snap.Memory.Stale || snap.Memory.Error != "" {
		t.Errorf("Memory freshness after recovery = %+v, want fresh", snap.Memory.Freshness)
	}
}

func TestEngine_DiskNeverReadHasNoBand(t *testing.T) {
	src := healthyReader()
	src.fsErr = errRead
	e, _ := newTestEngine(Options{Metrics: MetricSet{Disk: true}}, src)

	snap := e.Sample()
	if snap.Disk.Band != metrics.BandNone {
		t.Errorf("Disk.Band = %v, want none", snap.Disk.Band)
	}
	if !snap.Disk.Stale || !snap.Disk.LastUpdated.IsZero() {
		t.Errorf("Disk freshness = %+v, want stale and never updated", snap.Disk.Freshness)
	}
}

func TestEngine_CounterAnomalyIsFresh(t *testing.T) {
	src := healthyReader()
	e, clock := newTestEngine(Options{Metrics: MetricSet{NetworkSpeed: true}}, src)
	e.Sample()

	clock.advance(time.Second)
	src.net = []metrics.InterfaceCounters{{Name: "eth0", RxBytes: 10, TxBytes: 0}}
	snap := e.Sample()
	if snap.NetworkSpeed.Stale {
		t.Errorf("NetworkSpeed = %+v, want fresh after counter reset", snap.NetworkSpeed)
	}
	if snap.NetworkSpeed.RxRateBps != 0 {
		t.Errorf("RxRateBps = %v, want 0", snap.NetworkSpeed.RxRateBps)
	}
}

func TestEngine_Reconfigure(t *testing.T) {
	src := healthyReader()
	e, _ := newTestEngine(Options{Metrics: MetricSet{Disk: true}, MountPoint: "/data"}, src)
	e.Sample()

	src.fsErr = errRead
	e.Reconfigure(Options{Metrics: MetricSet{Disk: true, CPU: true}, MountPoint: "/home"})
	snap := e.Sample()

	if got := src.mounts[len(src.mounts)-1]; got != "/home" {
		t.Errorf("queried mount = %q, want /home", got)
	}
	if snap.Disk.UsedPercent != 0 || snap.Disk.MountPoint != "/home" {
		t.Errorf("Disk = %+v, want reset value for /home", snap.Disk)
	}
	if snap.CPU == nil {
		t.Error("CPU = nil after enabling it")
	}

	opts := e.Options()
	if opts.MountPoint != "/home" || !opts.Metrics.CPU {
		t.Errorf("Options() = %+v", opts)
	}
}

func TestEngine_ReenabledMetricsStartFresh(t *testing.T) {
	src := healthyReader()
	opts := Options{Metrics: MetricSet{CPU: true, NetworkSpeed: true}}
	e, clock := newTestEngine(opts, src)

	e.Sample()
	clock.advance(time.Second)
	src.cpu = metrics.CPUTimes{User: 800, Idle: 700}
	src.net = []metrics.InterfaceCounters{{Name: "eth0", RxBytes: 2_000_000}}
	if snap := e.Sample(); !snap.CPU.Available || !snap.NetworkSpeed.Available {
		t.Fatalf("second tick CPU = %+v, NetworkSpeed = %+v, want both available", snap.CPU, snap.NetworkSpeed)
	}

	// Counters keep moving while CPU and network are off
	e.Reconfigure(Options{Metrics: MetricSet{Memory: true}})
	e.Sample()
	clock.advance(100 * time.Second)
	src.cpu = metrics.CPUTimes{User: 10800, Idle: 10700}
	src.net = []metrics.InterfaceCounters{{Name: "eth0", RxBytes: 500_000_000}}

	e.Reconfigure(opts)
	snap := e.Sample()
	if snap.CPU.Available || snap.CPU.Band != metrics.BandNone {
		t.Errorf("CPU after re-enable = %+v, want not available", snap.CPU)
	}
	if snap.NetworkSpeed.Available {
		t.Errorf("NetworkSpeed after re-enable = %+v, want not available", snap.NetworkSpeed)
	}

	clock.advance(time.Second)
	src.cpu = metrics.CPUTimes{User: 11100, Idle: 10900}
	src.net = []metrics.InterfaceCounters{{Name: "eth0", RxBytes: 501_000_000}}
	snap = e.Sample()
	if !snap.CPU.Available || math.Abs(snap.CPU.Percent-60.0) > 1e-9 {
		t.Errorf("CPU = %+v, want 60%% measured from the new baseline", snap.CPU)
	}
	if !snap.NetworkSpeed.Available || math.Abs(snap.NetworkSpeed.RxRateBps-1_000_000) > 1e-6 {
		t.Errorf("NetworkSpeed = %+v, want 1000000 B/s", snap.NetworkSpeed)
	}
}

func TestCPUCollector_Reset(t *testing.T) {
	src := &fakeReader{cpu: metrics.CPUTimes{User: 500, Idle: 500}}
	c := NewCPUCollector(src)
	c.Collect()
	src.cpu = metrics.CPUTimes{User: 800, Idle: 700}
	c.Collect()

	c.Reset()
	percent, ok, err := c.Collect()
	if err != nil || ok || percent != 0 {
		t.Errorf("Collect() after Reset = (%v, %v, %v), want (0, false, nil)", percent, ok, err)
	}
}

func TestEngine_ConcurrentSample(t *testing.T) {
	src := healthyReader()
	e, _ := newTestEngine(Options{Metrics: AllMetrics()}, src)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.Sample()
		}()
	}
	wg.Wait()

	if snap := e.Sample(); snap.Sequence != 9 {
		t.Errorf("Sequence = %d, want 9", snap.Sequence)
	}
}

func TestMetricSet(t *testing.T) {
	if !AllMetrics().Any() || (MetricSet{}).Any() {
		t.Error("Any() mismatch")
	}
	if !(MetricSet{NetworkTraffic: true}).Network() {
		t.Error("Network() = false with traffic enabled")
	}
}

func TestManager_Lifecycle(t *testing.T) {
	e, _ := newTestEngine(Options{Metrics: AllMetrics()}, healthyReader())
	ch := make(chan *metrics.Snapshot, 10)
	m := NewManager(e, 20*time.Millisecond, ch, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Run Start in background
	errChan := make(chan error, 1)
	go func() {
		errChan <- m.Start(ctx)
	}()

	// Baseline plus at least one tick
	for i := 0; i < 2; i++ {
		select {
		case snap := <-ch:
			if snap.Sequence != uint64(i+1) {
				t.Errorf("Sequence = %d, want %d", snap.Sequence, i+1)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("Timeout waiting for metrics")
		case err := <-errChan:
			t.Fatalf("Start exited early: %v", err)
		}
	}

	m.Stop()
	cancel()

	select {
	case err := <-errChan:
		if err != nil {
			t.Errorf("Start returned error: %v", err)
		}
	case <-time.After(time.Second):
		t.Error("Start did not return after cancellation")
	}
}

func TestManager_DropsWhenChannelFull(t *testing.T) {
	e, _ := newTestEngine(Options{Metrics: MetricSet{CPU: true}}, healthyReader())
	ch := make(chan *metrics.Snapshot, 1)
	m := NewManager(e, time.Second, ch, discardLogger())

	if err := m.collectOnce(); err != nil {
		t.Fatalf("collectOnce() error = %v", err)
	}
	if err := m.collectOnce(); !errors.Is(err, ErrChannelFull) {
		t.Errorf("collectOnce() error = %v, want ErrChannelFull", err)
	}
}
