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

// CalculateCPUPercent calculates CPU utilization from two cumulative readings.
// Formula: 100 × ΔUsed / ΔTotal, clamped to [0, 100].
// Returns false when ΔTotal <= 0, i.e. the counters were reset or did not move.
func CalculateCPUPercent(prevTotal, prevUsed, total, used uint64) (float64, bool) {
	if total <= prevTotal {
		return 0, false
	}

	totalDiff := float64(total - prevTotal)
	usedDiff := float64(used) - float64(prevUsed)

	return clampPercent(usedDiff / totalDiff * 100.0), true
}

// CalculateRate calculates a per-second rate between two cumulative byte counters.
// A counter decrease yields 0 and false so the caller can re-baseline.
func CalculateRate(prev, current uint64, elapsed time.Duration) (float64, bool) {
	if current < prev {
		return 0, false
	}

	seconds := elapsed.Seconds()
	if seconds <= 0 {
		return 0, false
	}

	return float64(current-prev) / seconds, true
}

// CalculatePercent returns part/whole × 100, or false when whole is zero.
func CalculatePercent(part, whole uint64) (float64, bool) {
	if whole == 0 {
		return 0, false
	}
	return clampPercent(float64(part) / float64(whole) * 100.0), true
}

func clampPercent(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
