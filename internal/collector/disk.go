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
	"fmt"

	"github.com/phuonguno98/unomon/pkg/metrics"
)

// DiskCollector collects capacity usage of a single mounted filesystem.
type DiskCollector struct {
	source DiskSource

	// Last good reading.
	usedPercent float64
	free        uint64
}

// NewDiskCollector creates a new disk collector instance.
func NewDiskCollector(source DiskSource) *DiskCollector {
	return &DiskCollector{source: source}
}

// Collect returns used percent and free bytes of the filesystem at mountPoint.
// On error, or when the filesystem reports zero size, the previous reading
// is returned together with the error.
func (d *DiskCollector) Collect(mountPoint string) (usedPercent float64, free uint64, err error) {
	usage, err := d.source.FilesystemUsage(mountPoint)
	if err != nil {
		return d.usedPercent, d.free, fmt.Errorf("failed to get disk usage: %w", err)
	}

	if usage.Size == 0 {
		return d.usedPercent, d.free, fmt.Errorf("%w: filesystem at %s reports zero size", metrics.ErrParseFailure, mountPoint)
	}

	used := min(usage.Used, usage.Size)
	pct, _ := metrics.CalculatePercent(used, usage.Size)

	d.usedPercent, d.free = pct, usage.Size-used
	return d.usedPercent, d.free, nil
}

// Reset forgets the previous reading, used when the monitored mount point changes.
func (d *DiskCollector) Reset() {
	d.usedPercent, d.free = 0, 0
}

// Name returns the collector name for logging purposes.
func (d *DiskCollector) Name() string {
	return "Disk"
}
