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

// Package devices lists mount points and network interfaces to help pick
// the --mount and interface filter values.
package devices

import (
	"fmt"
	"sort"
	"strings"

	"github.com/phuonguno98/unomon/internal/collector"
	"github.com/phuonguno98/unomon/pkg/metrics"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/net"
)

// Dependency injection points for testing
var (
	diskPartitions = disk.Partitions
	diskUsage      = disk.Usage
	netInterfaces  = net.Interfaces
	netIOCounters  = net.IOCounters
)

// MountInfo represents a mounted filesystem.
type MountInfo struct {
	Device      string
	Mountpoint  string
	Filesystem  string
	Total       uint64
	Free        uint64
	UsedPercent float64
	Band        metrics.Band
}

// NetworkInfo represents network interface information.
type NetworkInfo struct {
	Name       string
	MacAddress string
	Addresses  []string
	RxBytes    uint64
	TxBytes    uint64
	Loopback   bool // Never counted in network metrics
}

// ListMounts returns the mounted filesystems with their capacity.
func ListMounts() ([]MountInfo, error) {
	partitions, err := diskPartitions(false)
	if err != nil {
		return nil, fmt.Errorf("failed to get disk partitions: %w", err)
	}

	mounts := make([]MountInfo, 0, len(partitions))
	seen := make(map[string]bool)

	for _, partition := range partitions {
		// Skip duplicate mount points
		if seen[partition.Mountpoint] {
			continue
		}
		seen[partition.Mountpoint] = true

		info := MountInfo{
			Device:     partition.Device,
			Mountpoint: partition.Mountpoint,
			Filesystem: partition.Fstype,
		}

		if usage, err := diskUsage(partition.Mountpoint); err == nil && usage.Total > 0 {
			info.Total = usage.Total
			info.Free = usage.Total - min(usage.Used, usage.Total)
			info.UsedPercent, _ = metrics.CalculatePercent(usage.Used, usage.Total)
			info.Band = metrics.BandFor(info.UsedPercent)
		}

		mounts = append(mounts, info)
	}

	// Sort by mount point
	sort.Slice(mounts, func(i, j int) bool {
		return mounts[i].Mountpoint < mounts[j].Mountpoint
	})

	return mounts, nil
}

// ListNetworkInterfaces returns the network interfaces with their cumulative counters.
func ListNetworkInterfaces() ([]NetworkInfo, error) {
	interfaces, err := netInterfaces()
	if err != nil {
		return nil, fmt.Errorf("failed to get network interfaces: %w", err)
	}

	// Counters are optional; an interface without them is still listed
	counters := make(map[string]net.IOCountersStat)
	if stats, err := netIOCounters(true); err == nil {
		for _, s := range stats {
			counters[s.Name] = s
		}
	}

	networks := make([]NetworkInfo, 0, len(interfaces))

	for _, iface := range interfaces {
		addresses := make([]string, 0, len(iface.Addrs))
		for _, addr := range iface.Addrs {
			addresses = append(addresses, addr.Addr)
		}

		c := counters[iface.Name]
		networks = append(networks, NetworkInfo{
			Name:       iface.Name,
			MacAddress: iface.HardwareAddr,
			Addresses:  addresses,
			RxBytes:    c.BytesRecv,
			TxBytes:    c.BytesSent,
			Loopback:   collector.IsLoopback(iface.Name),
		})
	}

	// Sort by interface name
	sort.Slice(networks, func(i, j int) bool {
		return networks[i].Name < networks[j].Name
	})

	return networks, nil
}

// FormatMountsTable formats mount information as a table.
func FormatMountsTable(mounts []MountInfo) string {
	var sb strings.Builder

	sb.WriteString("\nAvailable Mount Points:\n")
	sb.WriteString(strings.Repeat("=", 90))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("%-25s %-25s %-10s %-10s %-10s %s\n", "MOUNTPOINT", "DEVICE", "FILESYSTEM", "SIZE", "FREE", "USED"))
	sb.WriteString(strings.Repeat("-", 90))
	sb.WriteString("\n")

	for _, m := range mounts {
		used := metrics.FormatPercent(m.UsedPercent, m.Total > 0)
		if m.Band != metrics.BandNone {
			used += " (" + m.Band.String() + ")"
		}
		sb.WriteString(fmt.Sprintf("%-25s %-25s %-10s %-10s %-10s %s\n",
			truncate(m.Mountpoint, 25),
			truncate(m.Device, 25),
			truncate(m.Filesystem, 10),
			metrics.FormatBytes(float64(m.Total)),
			metrics.FormatBytes(float64(m.Free)),
			used,
		))
	}

	sb.WriteString(strings.Repeat("=", 90))
	sb.WriteString("\n")

	return sb.String()
}

// FormatNetworksTable formats network interface information as a table.
func FormatNetworksTable(networks []NetworkInfo) string {
	var sb strings.Builder

	sb.WriteString("\nAvailable Network Interfaces:\n")
	sb.WriteString(strings.Repeat("=", 90))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("%-20s %-17s %-22s %s\n", "INTERFACE", "MAC ADDRESS", "TRAFFIC", "IP ADDRESSES"))
	sb.WriteString(strings.Repeat("-", 90))
	sb.WriteString("\n")

	for _, n := range networks {
		name := n.Name
		if n.Loopback {
			name += " (loopback)"
		}

		mac := n.MacAddress
		if mac == "" {
			mac = "N/A"
		}

		// Show first IP address on same line
		firstIP := "N/A"
		if len(n.Addresses) > 0 {
			firstIP = n.Addresses[0]
		}

		sb.WriteString(fmt.Sprintf("%-20s %-17s %-22s %s\n",
			truncate(name, 20),
			mac,
			metrics.FormatTraffic(n.RxBytes, n.TxBytes),
			firstIP,
		))

		// Show additional IPs on separate lines
		for i := 1; i < len(n.Addresses); i++ {
			sb.WriteString(fmt.Sprintf("%-20s %-17s %-22s %s\n", "", "", "", n.Addresses[i]))
		}
	}

	sb.WriteString(strings.Repeat("=", 90))
	sb.WriteString("\n")

	return sb.String()
}

// truncate truncates a string to maxLen characters.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
