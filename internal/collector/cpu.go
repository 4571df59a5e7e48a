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

// CPUCollector derives aggregate CPU utilization from cumulative time counters.
type CPUCollector struct {
	source    CPUSource
	prevTotal uint64
	prevUsed  uint64
	firstRun  bool

	// Last derived value, returned again when a tick cannot derive a new one.
	percent   float64
	available bool
}

// NewCPUCollector creates a new CPU collector instance.
func NewCPUCollector(source CPUSource) *CPUCollector {
	return &CPUCollector{
		source:   source,
		firstRun: true,
	}
}

// Collect returns CPU utilization since the previous call.
// ok stays false until a second successful reading provides a delta.
// On error the last known value is returned together with the error.
// A counter reset returns the cached value and wraps metrics.ErrCounterAnomaly.
func (c *CPUCollector) Collect() (percent float64, ok bool, err error) {
	times, err := c.source.CPUTimes()
	if err != nil {
		return c.percent, c.available, fmt.Errorf("failed to get CPU stats: %w", err)
	}

	total, used := times.Total(), times.Used()

	// First run - just store baseline
	if c.firstRun {
		c.prevTotal, c.prevUsed = total, used
		c.firstRun = false
		return 0, false, nil
	}

	prevTotal, prevUsed := c.prevTotal, c.prevUsed
	c.prevTotal, c.prevUsed = total, used

	percent, ok = metrics.CalculateCPUPercent(prevTotal, prevUsed, total, used)
	if !ok {
		if total < prevTotal {
			return c.percent, c.available, fmt.Errorf("%w: cpu total went from %d to %d", metrics.ErrCounterAnomaly, prevTotal, total)
		}
		return c.percent, c.available, nil
	}

	c.percent, c.available = percent, true
	return percent, true, nil
}

// Reset drops the baseline and the cached value; the next call is a first run again.
func (c *CPUCollector) Reset() {
	c.firstRun = true
	c.prevTotal, c.prevUsed = 0, 0
	c.percent, c.available = 0, false
}

// Name returns the collector name for logging purposes.
func (c *CPUCollector) Name() string {
	return "CPU"
}
