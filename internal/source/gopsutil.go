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

package source

import (
	"fmt"
	"math"

	"github.com/phuonguno98/unomon/pkg/metrics"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/net"
)

// Dependency injection points for testing
var (
	cpuTimes      = cpu.Times
	virtualMemory = mem.VirtualMemory
	diskUsage     = disk.Usage
	netIOCounters = net.IOCounters
)

// userHz converts gopsutil CPU seconds back into kernel clock ticks.
const userHz = 100

// Gopsutil reads counters through gopsutil, for hosts without a Linux proc filesystem.
type Gopsutil struct{}

// NewGopsutil creates a gopsutil-backed reader.
func NewGopsutil() *Gopsutil {
	return &Gopsutil{}
}

// CPUTimes returns aggregated CPU times across all CPUs.
func (g *Gopsutil) CPUTimes() (metrics.CPUTimes, error) {
	times, err := cpuTimes(false)
	if err != nil {
		return metrics.CPUTimes{}, fmt.Errorf("%w: cpu times: %w", metrics.ErrSourceUnavailable, err)
	}
	if len(times) == 0 {
		return metrics.CPUTimes{}, fmt.Errorf("%w: no CPU time stats available", metrics.ErrParseFailure)
	}

	t := times[0]
	return metrics.CPUTimes{
		User:   toTicks(t.User),
		Nice:   toTicks(t.Nice),
		System: toTicks(t.System),
		Idle:   toTicks(t.Idle),
		IOWait: toTicks(t.Iowait),
	}, nil
}

// MemInfo returns total and available memory in kilobytes.
func (g *Gopsutil) MemInfo() (metrics.MemInfo, error) {
	vm, err := virtualMemory()
	if err != nil {
		return metrics.MemInfo{}, fmt.Errorf("%w: virtual memory: %w", metrics.ErrSourceUnavailable, err)
	}

	return metrics.MemInfo{
		TotalKB:     vm.Total / 1024,
		AvailableKB: vm.Available / 1024,
	}, nil
}

// FilesystemUsage returns capacity of the filesystem mounted at mountPoint.
func (g *Gopsutil) FilesystemUsage(mountPoint string) (metrics.FilesystemUsage, error) {
	usage, err := diskUsage(mountPoint)
	if err != nil {
		return metrics.FilesystemUsage{}, fmt.Errorf("%w: disk usage %s: %w", metrics.ErrSourceUnavailable, mountPoint, err)
	}

	return metrics.FilesystemUsage{
		Size: usage.Total,
		Used: usage.Used,
	}, nil
}

// NetDevCounters returns per-interface byte counters.
func (g *Gopsutil) NetDevCounters() ([]metrics.InterfaceCounters, error) {
	stats, err := netIOCounters(true)
	if err != nil {
		return nil, fmt.Errorf("%w: network counters: %w", metrics.ErrSourceUnavailable, err)
	}

	counters := make([]metrics.InterfaceCounters, 0, len(stats))
	for i := range stats {
		counters = append(counters, metrics.InterfaceCounters{
			Name:    stats[i].Name,
			RxBytes: stats[i].BytesRecv,
			TxBytes: stats[i].BytesSent,
		})
	}

	return counters, nil
}

func toTicks(seconds float64) uint64 {
	if seconds <= 0 || math.IsNaN(seconds) {
		return 0
	}
	return uint64(math.Round(seconds * userHz))
}
