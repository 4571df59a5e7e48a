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

// MemoryCollector collects used and total memory in bytes.
type MemoryCollector struct {
	source MemorySource

	// Last good reading.
	used  uint64
	total uint64
}

// NewMemoryCollector creates a new memory collector instance.
func NewMemoryCollector(source MemorySource) *MemoryCollector {
	return &MemoryCollector{source: source}
}

// Collect returns used = total - available, both in bytes.
// On error the previous reading is returned together with the error.
func (m *MemoryCollector) Collect() (used, total uint64, err error) {
	info, err := m.source.MemInfo()
	if err != nil {
		return m.used, m.total, fmt.Errorf("failed to get memory stats: %w", err)
	}

	if info.TotalKB == 0 {
		return m.used, m.total, fmt.Errorf("%w: total memory is zero", metrics.ErrParseFailure)
	}

	total = info.TotalKB * 1024
	available := info.AvailableKB * 1024
	if available > total {
		available = total
	}

	m.used, m.total = total-available, total
	return m.used, m.total, nil
}

// Name returns the collector name for logging purposes.
func (m *MemoryCollector) Name() string {
	return "Memory"
}
