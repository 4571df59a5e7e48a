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

// Package source reads raw kernel counters for the collectors.
//
// Two backends exist: Procfs parses the Linux proc text files directly,
// Gopsutil goes through github.com/shirou/gopsutil for other platforms.
// Both are read-only and never retry; every failure is returned at once,
// wrapped as metrics.ErrSourceUnavailable or metrics.ErrParseFailure.
package source

import (
	"fmt"
	"runtime"

	"github.com/phuonguno98/unomon/pkg/metrics"
)

// Backend names.
const (
	KindProcfs   = "procfs"
	KindGopsutil = "gopsutil"
)

// Reader provides every counter the collectors need.
type Reader interface {
	CPUTimes() (metrics.CPUTimes, error)
	MemInfo() (metrics.MemInfo, error)
	FilesystemUsage(mountPoint string) (metrics.FilesystemUsage, error)
	NetDevCounters() ([]metrics.InterfaceCounters, error)
}

// DefaultKind returns procfs on Linux and gopsutil elsewhere.
func DefaultKind() string {
	if runtime.GOOS == "linux" {
		return KindProcfs
	}
	return KindGopsutil
}

// New creates a reader for the given backend. An empty kind selects DefaultKind.
func New(kind, procRoot string) (Reader, error) {
	if kind == "" {
		kind = DefaultKind()
	}

	switch kind {
	case KindProcfs:
		return NewProcfs(procRoot), nil
	case KindGopsutil:
		return NewGopsutil(), nil
	default:
		return nil, fmt.Errorf("unknown source %q (must be %s or %s)", kind, KindProcfs, KindGopsutil)
	}
}
