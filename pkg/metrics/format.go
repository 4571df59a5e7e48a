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

import (
	"fmt"
	"math"
)

const (
	kib = 1024.0
	mib = kib * 1024
	gib = mib * 1024
)

// FormatBytes converts a byte count into a human-scaled string (B, KB, MB, GB).
// Values below 1024 are printed as integers, larger ones with one decimal.
func FormatBytes(bytes float64) string {
	if math.IsNaN(bytes) || bytes < 0 {
		bytes = 0
	}

	switch {
	case bytes < kib:
		return fmt.Sprintf("%dB", int64(bytes))
	case bytes < mib:
		return fmt.Sprintf("%.1fKB", bytes/kib)
	case bytes < gib:
		return fmt.Sprintf("%.1fMB", bytes/mib)
	default:
		return fmt.Sprintf("%.1fGB", bytes/gib)
	}
}

// FormatRate formats a bytes-per-second value.
func FormatRate(bytesPerSecond float64) string {
	return FormatBytes(bytesPerSecond) + "/s"
}

// FormatSpeed formats receive and transmit rates on one line.
func FormatSpeed(rx, tx float64) string {
	return fmt.Sprintf("%s ↓ %s ↑", FormatRate(rx), FormatRate(tx))
}

// FormatTraffic formats cumulative receive and transmit totals on one line.
func FormatTraffic(rx, tx uint64) string {
	return fmt.Sprintf("↓%s ↑%s", FormatBytes(float64(rx)), FormatBytes(float64(tx)))
}

// FormatPercent formats a percentage with one decimal, or "-" when it is not available.
func FormatPercent(percent float64, available bool) string {
	if !available || math.IsNaN(percent) {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", percent)
}
