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
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/phuonguno98/unomon/pkg/metrics"
)

// DefaultMountPoint is the filesystem sampled when none is configured.
const DefaultMountPoint = "/"

// MetricSet selects which metrics the engine samples.
type MetricSet struct {
	CPU            bool
	Memory         bool
	Disk           bool
	NetworkSpeed   bool
	NetworkTraffic bool
}

// AllMetrics returns a set with every metric enabled.
func AllMetrics() MetricSet {
	return MetricSet{CPU: true, Memory: true, Disk: true, NetworkSpeed: true, NetworkTraffic: true}
}

// Network reports whether either network metric is enabled.
func (s MetricSet) Network() bool {
	return s.NetworkSpeed || s.NetworkTraffic
}

// Any reports whether at least one metric is enabled.
func (s MetricSet) Any() bool {
	return s.CPU || s.Memory || s.Disk || s.Network()
}

// Options controls what the engine samples.
type Options struct {
	Metrics           MetricSet
	MountPoint        string   // Filesystem for disk usage (empty = DefaultMountPoint)
	IncludeInterfaces []string // Interfaces to monitor (empty = all)
	ExcludeInterfaces []string // Interfaces to exclude
}

func (o Options) normalized() Options {
	if o.MountPoint == "" {
		o.MountPoint = DefaultMountPoint
	}
	o.IncludeInterfaces = slices.Clone(o.IncludeInterfaces)
	o.ExcludeInterfaces = slices.Clone(o.ExcludeInterfaces)
	return o
}

// Engine owns the collectors and their previous-sample state and turns
// one call to Sample into one Snapshot. It holds no timer; see Manager.
type Engine struct {
	mu       sync.Mutex
	opts     Options
	cpu      *CPUCollector
	memory   *MemoryCollector
	disk     *DiskCollector
	network  *NetworkCollector
	sequence uint64
	now      func() time.Time
	logger   *slog.Logger

	// Per-metric freshness, carried across ticks.
	cpuFresh     metrics.Freshness
	memoryFresh  metrics.Freshness
	diskFresh    metrics.Freshness
	networkFresh metrics.Freshness
}

// NewEngine creates an engine reading from the given source.
func NewEngine(opts Options, reader Reader, logger *slog.Logger) *Engine {
	opts = opts.normalized()
	return &Engine{
		opts:    opts,
		cpu:     NewCPUCollector(reader),
		memory:  NewMemoryCollector(reader),
		disk:    NewDiskCollector(reader),
		network: NewNetworkCollector(reader, opts.IncludeInterfaces, opts.ExcludeInterfaces),
		now:     time.Now,
		logger:  logger,
	}
}

// Options returns the current engine options.
func (e *Engine) Options() Options {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.opts.normalized()
}

// Reconfigure replaces the enabled metrics, mount point and interface filters.
// A new mount point drops the previous disk reading; new interface filters
// restart the network rate window. A metric enabled again after being disabled
// starts from a fresh baseline. Other collector state is kept.
func (e *Engine) Reconfigure(opts Options) {
	opts = opts.normalized()

	e.mu.Lock()
	defer e.mu.Unlock()

	prev := e.opts.Metrics
	if opts.Metrics.CPU && !prev.CPU {
		e.cpu.Reset()
		e.cpuFresh = metrics.Freshness{}
	}
	if opts.Metrics.Network() && !prev.Network() {
		e.network.Reset()
		e.networkFresh = metrics.Freshness{}
	}

	if (opts.Metrics.Disk && !prev.Disk) || opts.MountPoint != e.opts.MountPoint {
		e.disk.Reset()
		e.diskFresh = metrics.Freshness{}
	}
	if !slices.Equal(opts.IncludeInterfaces, e.opts.IncludeInterfaces) ||
		!slices.Equal(opts.ExcludeInterfaces, e.opts.ExcludeInterfaces) {
		e.network.SetFilters(opts.IncludeInterfaces, opts.ExcludeInterfaces)
		e.networkFresh = metrics.Freshness{}
	}

	e.opts = opts
	e.logger.Debug("Engine reconfigured",
		"metrics", opts.Metrics,
		"mount_point", opts.MountPoint,
	)
}

// Sample performs one tick: every enabled collector runs, results are
// merged into a new snapshot with bands and freshness attached.
// Failures degrade single metrics and never fail the tick.
func (e *Engine) Sample() *metrics.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	e.sequence++
	snapshot := &metrics.Snapshot{
		Timestamp: now,
		Sequence:  e.sequence,
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex // Protects snapshot and logger ordering
	)

	set := e.opts.Metrics

	if set.CPU {
		wg.Add(1)
		go func() {
			defer wg.Done()
			percent, ok, err := e.cpu.Collect()
			mu.Lock()
			defer mu.Unlock()
			e.track(&e.cpuFresh, e.cpu.Name(), now, err)
			snapshot.CPU = &metrics.CPUMetric{
				Percent:   percent,
				Available: ok,
				Band:      bandIf(ok, percent),
				Freshness: e.cpuFresh,
			}
		}()
	}

	if set.Memory {
		wg.Add(1)
		go func() {
			defer wg.Done()
			used, total, err := e.memory.Collect()
			percent, ok := metrics.CalculatePercent(used, total)
			mu.Lock()
			defer mu.Unlock()
			e.track(&e.memoryFresh, e.memory.Name(), now, err)
			snapshot.Memory = &metrics.MemoryMetric{
				UsedBytes:  used,
				TotalBytes: total,
				Percent:    percent,
				Band:       bandIf(ok, percent),
				Freshness:  e.memoryFresh,
			}
		}()
	}

	if set.Disk {
		mountPoint := e.opts.MountPoint
		wg.Add(1)
		go func() {
			defer wg.Done()
			percent, free, err := e.disk.Collect(mountPoint)
			mu.Lock()
			defer mu.Unlock()
			e.track(&e.diskFresh, e.disk.Name(), now, err)
			snapshot.Disk = &metrics.DiskMetric{
				MountPoint:  mountPoint,
				UsedPercent: percent,
				FreeBytes:   free,
				Band:        bandIf(!e.diskFresh.LastUpdated.IsZero(), percent),
				Freshness:   e.diskFresh,
			}
		}()
	}

	if set.Network() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sample, err := e.network.Collect()
			mu.Lock()
			defer mu.Unlock()
			e.track(&e.networkFresh, e.network.Name(), now, err)
			if set.NetworkSpeed {
				snapshot.NetworkSpeed = &metrics.NetworkSpeed{
					RxRateBps: sample.RxRate,
					TxRateBps: sample.TxRate,
					Available: sample.RateAvailable,
					Freshness: e.networkFresh,
				}
			}
			if set.NetworkTraffic {
				snapshot.NetworkTraffic = &metrics.NetworkTraffic{
					RxTotalBytes: sample.RxTotal,
					TxTotalBytes: sample.TxTotal,
					Freshness:    e.networkFresh,
				}
			}
		}()
	}

	wg.Wait()
	return snapshot
}

// track updates the freshness of one metric after a collection attempt.
func (e *Engine) track(f *metrics.Freshness, name string, now time.Time, err error) {
	switch {
	case err == nil:
		*f = metrics.Freshness{LastUpdated: now}
	case errors.Is(err, metrics.ErrCounterAnomaly):
		e.logger.Debug("Counter reset detected, re-baselined", "collector", name, "error", err)
		*f = metrics.Freshness{LastUpdated: now}
	default:
		e.logger.Warn("Failed to collect metrics", "collector", name, "error", err)
		f.Stale = true
		f.Error = err.Error()
	}
}

func bandIf(ok bool, percent float64) metrics.Band {
	if !ok {
		return metrics.BandNone
	}
	return metrics.BandFor(percent)
}
