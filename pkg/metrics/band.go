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

// Band classifies a utilization percentage into a severity level.
type Band int

// Severity bands. BandNone means the percentage is not defined.
const (
	BandNone Band = iota
	BandLow
	BandMedium
	BandHigh
	BandCritical
)

// Band thresholds in percent. A value equal to a threshold belongs to the higher band.
const (
	MediumThreshold   = 50.0
	HighThreshold     = 75.0
	CriticalThreshold = 90.0
)

// BandFor returns the severity band of a percentage.
func BandFor(percent float64) Band {
	switch {
	case math.IsNaN(percent):
		return BandNone
	case percent < MediumThreshold:
		return BandLow
	case percent < HighThreshold:
		return BandMedium
	case percent < CriticalThreshold:
		return BandHigh
	default:
		return BandCritical
	}
}

// String returns the lowercase band name, or an empty string for BandNone.
func (b Band) String() string {
	switch b {
	case BandLow:
		return "low"
	case BandMedium:
		return "medium"
	case BandHigh:
		return "high"
	case BandCritical:
		return "critical"
	default:
		return ""
	}
}

// MarshalText implements encoding.TextMarshaler.
func (b Band) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *Band) UnmarshalText(text []byte) error {
	switch string(text) {
	case "":
		*b = BandNone
	case "low":
		*b = BandLow
	case "medium":
		*b = BandMedium
	case "high":
		*b = BandHigh
	case "critical":
		*b = BandCritical
	default:
		return fmt.Errorf("unknown band %q", string(text))
	}
	return nil
}
