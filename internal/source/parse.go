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

package source

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/phuonguno98/unomon/pkg/metrics"
)

// netDevHeaderLines is the number of header lines at the top of /proc/net/dev.
const netDevHeaderLines = 2

// Minimum numeric fields per /proc/net/dev record: receive bytes is field 1
// and transmit bytes is field 9.
const (
	netDevRxField     = 0
	netDevTxField     = 8
	netDevMinFieldNum = netDevTxField + 1
)

// ParseCPUStat extracts the aggregate "cpu" line from /proc/stat content.
// IOWait defaults to 0 if the field is absent or not numeric.
func ParseCPUStat(r io.Reader) (metrics.CPUTimes, error) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || fields[0] != "cpu" {
			continue
		}

		if len(fields) < 5 {
			return metrics.CPUTimes{}, fmt.Errorf("%w: cpu line has %d fields", metrics.ErrParseFailure, len(fields))
		}

		var values [4]uint64
		for i := range values {
			v, err := strconv.ParseUint(fields[i+1], 10, 64)
			if err != nil {
				return metrics.CPUTimes{}, fmt.Errorf("%w: cpu field %d: %w", metrics.ErrParseFailure, i+1, err)
			}
			values[i] = v
		}

		times := metrics.CPUTimes{
			User:   values[0],
			Nice:   values[1],
			System: values[2],
			Idle:   values[3],
		}
		if len(fields) > 5 {
			if v, err := strconv.ParseUint(fields[5], 10, 64); err == nil {
				times.IOWait = v
			}
		}
		return times, nil
	}

	if err := scanner.Err(); err != nil {
		return metrics.CPUTimes{}, fmt.Errorf("%w: %w", metrics.ErrSourceUnavailable, err)
	}
	return metrics.CPUTimes{}, fmt.Errorf("%w: aggregate cpu line not found", metrics.ErrParseFailure)
}

// ParseMemInfo extracts MemTotal and MemAvailable (in kB) from /proc/meminfo content.
func ParseMemInfo(r io.Reader) (metrics.MemInfo, error) {
	var (
		info                     metrics.MemInfo
		haveTotal, haveAvailable bool
	)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		key, rest, found := strings.Cut(scanner.Text(), ":")
		if !found {
			continue
		}

		key = strings.TrimSpace(key)
		if key != "MemTotal" && key != "MemAvailable" {
			continue
		}

		fields := strings.Fields(rest)
		if len(fields) == 0 {
			return metrics.MemInfo{}, fmt.Errorf("%w: %s has no value", metrics.ErrParseFailure, key)
		}
		v, err := strconv.ParseUint(fields[0], 10, 64)
		if err != nil {
			return metrics.MemInfo{}, fmt.Errorf("%w: %s: %w", metrics.ErrParseFailure, key, err)
		}

		if key == "MemTotal" {
			info.TotalKB = v
			haveTotal = true
		} else {
			info.AvailableKB = v
			haveAvailable = true
		}
	}

	if err := scanner.Err(); err != nil {
		return metrics.MemInfo{}, fmt.Errorf("%w: %w", metrics.ErrSourceUnavailable, err)
	}

	switch {
	case !haveTotal:
		return metrics.MemInfo{}, fmt.Errorf("%w: MemTotal not found", metrics.ErrParseFailure)
	case !haveAvailable:
		return metrics.MemInfo{}, fmt.Errorf("%w: MemAvailable not found", metrics.ErrParseFailure)
	}

	return info, nil
}

// ParseNetDev extracts per-interface byte counters from /proc/net/dev content.
// The interface name ends at the first colon, so "eth0:123" without a space
// is handled. Records with too few or non-numeric fields are skipped.
func ParseNetDev(r io.Reader) ([]metrics.InterfaceCounters, error) {
	var counters []metrics.InterfaceCounters

	scanner := bufio.NewScanner(r)
	for line := 0; scanner.Scan(); line++ {
		if line < netDevHeaderLines {
			continue
		}

		name, rest, found := strings.Cut(scanner.Text(), ":")
		if !found {
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		fields := strings.Fields(rest)
		if len(fields) < netDevMinFieldNum {
			continue
		}

		rx, err := strconv.ParseUint(fields[netDevRxField], 10, 64)
		if err != nil {
			continue
		}
		tx, err := strconv.ParseUint(fields[netDevTxField], 10, 64)
		if err != nil {
			continue
		}

		counters = append(counters, metrics.InterfaceCounters{
			Name:    name,
			RxBytes: rx,
			TxBytes: tx,
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", metrics.ErrSourceUnavailable, err)
	}

	return counters, nil
}
