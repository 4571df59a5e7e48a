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

package config

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

// Flag names shared by the commands.
const (
	FlagInterval        = "interval"
	FlagMetrics         = "metrics"
	FlagMount           = "mount"
	FlagSource          = "source"
	FlagProcRoot        = "proc-root"
	FlagIncludeNetworks = "include-networks"
	FlagExcludeNetworks = "exclude-networks"
	FlagOutput          = "output"
	FlagBufferSize      = "buffer-size"
	FlagFlushInterval   = "flush-interval"
	FlagMaxFileSize     = "max-file-size"
	FlagListen          = "listen"
	FlagLogLevel        = "log-level"
	FlagLogFile         = "log-file"
	FlagTimezone        = "timezone"
)

// Metric names accepted by --metrics.
const (
	MetricCPU            = "cpu"
	MetricMemory         = "memory"
	MetricDisk           = "disk"
	MetricNetworkSpeed   = "network_speed"
	MetricNetworkTraffic = "network_traffic"
)

// AddSamplingFlags registers the flags that shape the engine.
func AddSamplingFlags(fs *pflag.FlagSet) {
	fs.Duration(FlagInterval, DefaultSamplingInterval,
		"Sampling interval (500ms to 10s)")
	fs.String(FlagMetrics, "",
		"Comma-separated list of metrics to enable: cpu,memory,disk,network_speed,network_traffic (empty = all)")
	fs.String(FlagMount, DefaultMountPoint,
		"Mount point sampled for disk usage")
	fs.String(FlagSource, "",
		"Counter source: procfs or gopsutil (default: procfs on Linux)")
	fs.String(FlagProcRoot, "",
		"Root of the proc filesystem (default: /proc or $HOST_PROC)")
	fs.String(FlagIncludeNetworks, "",
		"Comma-separated list of network interfaces to monitor (empty = all)")
	fs.String(FlagExcludeNetworks, "",
		"Comma-separated list of network interfaces to exclude")
}

// AddOutputFlags registers the CSV export flags.
func AddOutputFlags(fs *pflag.FlagSet) {
	fs.StringP(FlagOutput, "o", "",
		"Output CSV file path (default: <hostname>_<timestamp>.csv)")
	fs.Int(FlagBufferSize, DefaultBufferSize,
		"Buffer size for CSV writer")
	fs.Duration(FlagFlushInterval, DefaultFlushInterval,
		"Flush interval for CSV writer")
	fs.Int64(FlagMaxFileSize, DefaultMaxOutputFileSize,
		"Rotate the CSV file after this many bytes")
}

// AddServerFlags registers the HTTP endpoint flags.
func AddServerFlags(fs *pflag.FlagSet) {
	fs.String(FlagListen, DefaultListenAddr,
		"Address for the HTTP endpoint")
}

// AddLoggingFlags registers the logging and timezone flags.
func AddLoggingFlags(fs *pflag.FlagSet) {
	fs.String(FlagLogLevel, DefaultLogLevel,
		"Log level (debug, info, warn, error)")
	fs.String(FlagLogFile, "",
		"Log file path (empty = stdout)")
	fs.String(FlagTimezone, DefaultTimezone,
		"Timezone for timestamps (e.g., 'Asia/Ho_Chi_Minh', 'Local')")
}

// ApplyFlags overlays every flag that was set explicitly on the command line.
// Flags not registered on fs are ignored.
func (c *Config) ApplyFlags(fs *pflag.FlagSet) error {
	var err error
	changed := func(name string) bool {
		f := fs.Lookup(name)
		return err == nil && f != nil && f.Changed
	}

	if changed(FlagInterval) {
		var d time.Duration
		if d, err = fs.GetDuration(FlagInterval); err == nil {
			if d <= 0 {
				d = DefaultSamplingInterval
			}
			c.SamplingInterval = d
		}
	}
	if changed(FlagMetrics) {
		var v string
		if v, err = fs.GetString(FlagMetrics); err == nil {
			err = c.SetMetrics(ParseCommaSeparated(v))
		}
	}
	if changed(FlagMount) {
		c.MountPoint, err = fs.GetString(FlagMount)
	}
	if changed(FlagSource) {
		c.Source, err = fs.GetString(FlagSource)
	}
	if changed(FlagProcRoot) {
		c.ProcRoot, err = fs.GetString(FlagProcRoot)
	}
	if changed(FlagIncludeNetworks) {
		var v string
		v, err = fs.GetString(FlagIncludeNetworks)
		c.IncludeNetworks = ParseCommaSeparated(v)
	}
	if changed(FlagExcludeNetworks) {
		var v string
		v, err = fs.GetString(FlagExcludeNetworks)
		c.ExcludeNetworks = ParseCommaSeparated(v)
	}
	if changed(FlagOutput) {
		c.OutputPath, err = fs.GetString(FlagOutput)
	}
	if changed(FlagBufferSize) {
		c.BufferSize, err = fs.GetInt(FlagBufferSize)
	}
	if changed(FlagFlushInterval) {
		c.FlushInterval, err = fs.GetDuration(FlagFlushInterval)
	}
	if changed(FlagMaxFileSize) {
		c.MaxFileSize, err = fs.GetInt64(FlagMaxFileSize)
	}
	if changed(FlagListen) {
		c.ListenAddr, err = fs.GetString(FlagListen)
	}
	if changed(FlagLogLevel) {
		c.LogLevel, err = fs.GetString(FlagLogLevel)
	}
	if changed(FlagLogFile) {
		c.LogFile, err = fs.GetString(FlagLogFile)
	}
	if changed(FlagTimezone) {
		c.Timezone, err = fs.GetString(FlagTimezone)
	}

	return err
}

// SetMetrics enables exactly the named metrics. An empty list enables all of them.
func (c *Config) SetMetrics(names []string) error {
	if len(names) == 0 {
		c.EnableCPU, c.EnableMemory, c.EnableDisk = true, true, true
		c.EnableNetworkSpeed, c.EnableNetworkTraffic = true, true
		return nil
	}

	targets := map[string]*bool{
		MetricCPU:            &c.EnableCPU,
		MetricMemory:         &c.EnableMemory,
		MetricDisk:           &c.EnableDisk,
		MetricNetworkSpeed:   &c.EnableNetworkSpeed,
		MetricNetworkTraffic: &c.EnableNetworkTraffic,
	}

	enabled := make(map[string]bool, len(names))
	for _, name := range names {
		if _, ok := targets[name]; !ok {
			return fmt.Errorf("unknown metric: %s", name)
		}
		enabled[name] = true
	}

	for name, dst := range targets {
		*dst = enabled[name]
	}
	return nil
}
