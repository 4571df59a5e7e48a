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

import "github.com/phuonguno98/unomon/pkg/metrics"

// CPUSource provides cumulative CPU time counters.
type CPUSource interface {
	CPUTimes() (metrics.CPUTimes, error)
}

// MemorySource provides memory totals in kilobytes.
type MemorySource interface {
	MemInfo() (metrics.MemInfo, error)
}

// DiskSource provides filesystem capacity for a mount point.
type DiskSource interface {
	FilesystemUsage(mountPoint string) (metrics.FilesystemUsage, error)
}

// NetworkSource provides cumulative per-interface byte counters.
type NetworkSource interface {
	NetDevCounters() ([]metrics.InterfaceCounters, error)
}

// Reader combines every source the engine samples from.
// source.Procfs and source.Gopsutil both satisfy it.
type Reader interface {
	CPUSource
	MemorySource
	DiskSource
	NetworkSource
}
