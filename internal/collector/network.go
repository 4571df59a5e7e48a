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
	"slices"
	"time"

	"github.com/phuonguno98/unomon/pkg/metrics"
)

// Common loopback interface names
var loopbacks = []string{"lo", "lo0", "Loopback"}

// NetworkCollector aggregates byte counters over all monitored interfaces
// and derives receive and transmit rates between calls.
type NetworkCollector struct {
	source            NetworkSource
	includeInterfaces []string // Interfaces to monitor (empty = all)
	excludeInterfaces []string // Interfaces to exclude
	now               func() time.Time

	prevRx   uint64
	prevTx   uint64
	prevTime time.Time
	firstRun bool

	// Last good sample.
	last metrics.NetworkSample
}

// NewNetworkCollector creates a new network collector instance.
// includeInterfaces: list of interface names to monitor (empty = all available)
// excludeInterfaces: list of interface names to exclude
func NewNetworkCollector(source NetworkSource, includeInterfaces, excludeInterfaces []string) *NetworkCollector {
	return &NetworkCollector{
		source:            source,
		includeInterfaces: includeInterfaces,
		excludeInterfaces: excludeInterfaces,
		now:               time.Now,
		firstRun:          true,
	}
}

// Collect gathers current network totals and rates.
// RateAvailable stays false until a second successful reading.
// When a counter decreases the affected rate is 0 for this call and the
// returned error wraps metrics.ErrCounterAnomaly; the sample is still valid.
// On read error the previous sample is returned together with the error.
func (n *NetworkCollector) Collect() (metrics.NetworkSample, error) {
	counters, err := n.source.NetDevCounters()
	if err != nil {
		return n.last, fmt.Errorf("failed to get network I/O counters: %w", err)
	}

	now := n.now()
	var rx, tx uint64
	for _, counter := range counters {
		// Skip loopback interfaces
		if IsLoopback(counter.Name) {
			continue
		}

		// Apply filters
		if !n.shouldMonitor(counter.Name) {
			continue
		}

		rx += counter.RxBytes
		tx += counter.TxBytes
	}

	sample := metrics.NetworkSample{RxTotal: rx, TxTotal: tx}

	// First run - just store baseline
	if n.firstRun {
		n.firstRun = false
		n.store(rx, tx, now)
		n.last = sample
		return sample, nil
	}

	elapsed := now.Sub(n.prevTime)
	prevRx, prevTx := n.prevRx, n.prevTx
	n.store(rx, tx, now)

	// No measurable time passed: keep the previous rates.
	if elapsed <= 0 {
		sample.RxRate, sample.TxRate, sample.RateAvailable = n.last.RxRate, n.last.TxRate, n.last.RateAvailable
		n.last = sample
		return sample, nil
	}

	rxRate, rxOK := metrics.CalculateRate(prevRx, rx, elapsed)
	txRate, txOK := metrics.CalculateRate(prevTx, tx, elapsed)
	sample.RxRate, sample.TxRate, sample.RateAvailable = rxRate, txRate, true
	n.last = sample

	if !rxOK || !txOK {
		return sample, fmt.Errorf("%w: network counters went from rx=%d tx=%d to rx=%d tx=%d",
			metrics.ErrCounterAnomaly, prevRx, prevTx, rx, tx)
	}

	return sample, nil
}

// Reset drops the baseline so the next call starts a fresh rate window.
func (n *NetworkCollector) Reset() {
	n.firstRun = true
	n.last = metrics.NetworkSample{}
}

// SetFilters replaces the interface filters and resets the baseline,
// since aggregate totals over a different interface set are not comparable.
func (n *NetworkCollector) SetFilters(includeInterfaces, excludeInterfaces []string) {
	n.includeInterfaces = includeInterfaces
	n.excludeInterfaces = excludeInterfaces
	n.Reset()
}

func (n *NetworkCollector) store(rx, tx uint64, now time.Time) {
	n.prevRx, n.prevTx, n.prevTime = rx, tx, now
}

// IsLoopback checks if an interface is a loopback interface.
func IsLoopback(interfaceName string) bool {
	return slices.Contains(loopbacks, interfaceName)
}

// shouldMonitor checks if an interface should be monitored based on include/exclude filters.
func (n *NetworkCollector) shouldMonitor(interfaceName string) bool {
	// Check exclude list first
	if slices.Contains(n.excludeInterfaces, interfaceName) {
		return false
	}

	// If include list is empty, monitor all (except excluded)
	if len(n.includeInterfaces) == 0 {
		return true
	}

	return slices.Contains(n.includeInterfaces, interfaceName)
}

// Name returns the collector name for logging purposes.
func (n *NetworkCollector) Name() string {
	return "Network"
}
