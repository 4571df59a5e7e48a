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

package metrics

import "time"

// Snapshot represents the result of a single sampling tick.
// Metric groups are nil when the metric is disabled.
type Snapshot struct {
	Timestamp      time.Time       `json:"timestamp"`
	Sequence       uint64          `json:"sequence"`
	CPU            *CPUMetric      `json:"cpu,omitempty"`
	Memory         *MemoryMetric   `json:"memory,omitempty"`
	Disk           *DiskMetric     `json:"disk,omitempty"`
	NetworkSpeed   *NetworkSpeed   `json:"network_speed,omitempty"`
	NetworkTraffic *NetworkTraffic `json:"network_traffic,omitempty"`
}

// Freshness reports when a metric was last refreshed successfully.
type Freshness struct {
	LastUpdated time.Time `json:"last_updated"`    // Zero until the first successful read
	Stale       bool      `json:"stale"`           // The latest tick failed for this metric
	Error       string    `json:"error,omitempty"` // Error of the latest failed tick
}

// CPUMetric is the aggregate CPU utilization.
type CPUMetric struct {
	Percent   float64 `json:"percent"`
	Available bool    `json:"available"` // False until two samples were taken
	Band      Band    `json:"band"`
	Freshness
}

// MemoryMetric is used versus total physical memory.
type MemoryMetric struct {
	UsedBytes  uint64  `json:"used_bytes"`
	TotalBytes uint64  `json:"total_bytes"`
	Percent    float64 `json:"percent"`
	Band       Band    `json:"band"`
	Freshness
}

// DiskMetric is the capacity usage of a single mount point.
type DiskMetric struct {
	MountPoint  string  `json:"mount_point"`
	UsedPercent float64 `json:"used_percent"`
	FreeBytes   uint64  `json:"free_bytes"`
	Band        Band    `json:"band"`
	Freshness
}

// NetworkSpeed is the aggregate throughput in bytes per second.
type NetworkSpeed struct {
	RxRateBps float64 `json:"rx_rate_bps"`
	TxRateBps float64 `json:"tx_rate_bps"`
	Available bool    `json:"available"` // False until two samples were taken
	Freshness
}

// NetworkTraffic is the aggregate cumulative byte counters.
type NetworkTraffic struct {
	RxTotalBytes uint64 `json:"rx_total_bytes"`
	TxTotalBytes uint64 `json:"tx_total_bytes"`
	Freshness
}

// CPUTimes holds cumulative time-in-state counters of the aggregate CPU line.
type CPUTimes struct {
	User   uint64
	Nice   uint64
	System uint64
	Idle   uint64
	IOWait uint64
}

// Total returns the sum of all tracked states.
func (t CPUTimes) Total() uint64 {
	return t.User + t.Nice + t.System + t.Idle + t.IOWait
}

// Used returns the time spent outside the idle state.
func (t CPUTimes) Used() uint64 {
	return t.Total() - t.Idle
}

// MemInfo holds memory totals in kilobytes as reported by the kernel.
type MemInfo struct {
	TotalKB     uint64
	AvailableKB uint64
}

// FilesystemUsage holds capacity figures for one mount point in bytes.
type FilesystemUsage struct {
	Size uint64
	Used uint64
}

// InterfaceCounters holds cumulative byte counters of a network interface.
type InterfaceCounters struct {
	Name    string
	RxBytes uint64
	TxBytes uint64
}

// NetworkSample is the aggregate network reading of one tick.
type NetworkSample struct {
	RxRate        float64 // Bytes per second
	TxRate        float64 // Bytes per second
	RxTotal       uint64
	TxTotal       uint64
	RateAvailable bool
}
