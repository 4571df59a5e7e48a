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

// Package config holds UnoMon settings and loads them from, in increasing
// priority, built-in defaults, a YAML file, the environment and command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/phuonguno98/unomon/internal/collector"
	"github.com/phuonguno98/unomon/internal/source"
)

// Config represents application configuration.
type Config struct {
	SamplingInterval time.Duration // Interval between engine ticks

	// Enabled metrics
	EnableCPU            bool
	EnableMemory         bool
	EnableDisk           bool
	EnableNetworkSpeed   bool
	EnableNetworkTraffic bool

	MountPoint string // Filesystem sampled for disk usage
	Source     string // Counter backend: procfs or gopsutil (empty = platform default)
	ProcRoot   string // Root of the proc filesystem for the procfs backend

	// Filters
	IncludeNetworks []string // Network interfaces to monitor (empty = all)
	ExcludeNetworks []string // Network interfaces to exclude

	// CSV export
	OutputPath    string        // Path to CSV output file
	BufferSize    int           // Number of records to buffer before flush
	FlushInterval time.Duration // Maximum time before forcing a flush
	MaxFileSize   int64         // Rotate the CSV file once it grows past this size

	// HTTP endpoint
	ListenAddr string

	// Logging
	LogLevel string // Log level: debug, info, warn, error
	LogFile  string // Log file path (empty = stdout)

	// Timezone
	Timezone string // Timezone location (e.g., "Asia/Ho_Chi_Minh", "Local")
}

// Default configuration values.
const (
	DefaultSamplingInterval  = 1000 * time.Millisecond
	MinSamplingInterval      = 500 * time.Millisecond
	MaxSamplingInterval      = 10 * time.Second
	DefaultMountPoint        = collector.DefaultMountPoint
	DefaultBufferSize        = 100
	DefaultFlushInterval     = 5 * time.Second
	DefaultMaxOutputFileSize = 150 * 1024 * 1024 // 150MB
	DefaultListenAddr        = "127.0.0.1:8086"
	DefaultLogLevel          = "info"
	DefaultTimezone          = "Local"
)

// Default returns a configuration with every metric enabled and default settings.
func Default() *Config {
	return &Config{
		SamplingInterval:     DefaultSamplingInterval,
		EnableCPU:            true,
		EnableMemory:         true,
		EnableDisk:           true,
		EnableNetworkSpeed:   true,
		EnableNetworkTraffic: true,
		MountPoint:           DefaultMountPoint,
		ProcRoot:             source.DefaultProcRoot,
		BufferSize:           DefaultBufferSize,
		FlushInterval:        DefaultFlushInterval,
		MaxFileSize:          DefaultMaxOutputFileSize,
		ListenAddr:           DefaultListenAddr,
		LogLevel:             DefaultLogLevel,
		Timezone:             DefaultTimezone,
	}
}

// Load builds a configuration from defaults, the YAML file at path (optional)
// and the environment, including envFile or ./.env when present.
// Flags are applied separately with ApplyFlags.
func Load(path, envFile string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.LoadEnv(envFile); err != nil {
		return nil, err
	}

	return cfg, nil
}

// IntervalFromMillis converts a millisecond setting into a duration.
// Absent or non-positive values fall back to DefaultSamplingInterval.
func IntervalFromMillis(ms int) time.Duration {
	if ms <= 0 {
		return DefaultSamplingInterval
	}
	return time.Duration(ms) * time.Millisecond
}

// EngineOptions returns the collector options described by this configuration.
func (c *Config) EngineOptions() collector.Options {
	return collector.Options{
		Metrics: collector.MetricSet{
			CPU:            c.EnableCPU,
			Memory:         c.EnableMemory,
			Disk:           c.EnableDisk,
			NetworkSpeed:   c.EnableNetworkSpeed,
			NetworkTraffic: c.EnableNetworkTraffic,
		},
		MountPoint:        c.MountPoint,
		IncludeInterfaces: c.IncludeNetworks,
		ExcludeInterfaces: c.ExcludeNetworks,
	}
}

// Location returns the configured timezone, defaulting to time.Local.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == DefaultTimezone {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone '%s': %w", c.Timezone, err)
	}
	return loc, nil
}

// GetDefaultOutputPath generates default output path: <hostname>_<timestamp>.csv
func GetDefaultOutputPath() string {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	// Clean hostname (remove invalid filename characters)
	hostname = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`/\:*?"<>|`, r) {
			return '_'
		}
		return r
	}, hostname)

	timestamp := time.Now().Format("20060102150405")
	return fmt.Sprintf("%s_%s.csv", hostname, timestamp)
}

// ParseCommaSeparated parses a comma-separated string into a slice of trimmed strings.
func ParseCommaSeparated(s string) []string {
	if s == "" {
		return nil
	}

	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))

	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}

// Validate checks the settings shared by all commands.
func (c *Config) Validate() error {
	if c.SamplingInterval < MinSamplingInterval {
		return fmt.Errorf("sampling interval must be at least %v", MinSamplingInterval)
	}

	if c.SamplingInterval > MaxSamplingInterval {
		return fmt.Errorf("sampling interval must not exceed %v", MaxSamplingInterval)
	}

	if !c.EnableCPU && !c.EnableMemory && !c.EnableDisk && !c.EnableNetworkSpeed && !c.EnableNetworkTraffic {
		return errors.New("at least one metric must be enabled")
	}

	if c.EnableDisk && c.MountPoint == "" {
		return errors.New("mount point cannot be empty when disk metrics are enabled")
	}

	switch c.Source {
	case "", source.KindProcfs, source.KindGopsutil:
	default:
		return fmt.Errorf("invalid source: %s (must be %s or %s)", c.Source, source.KindProcfs, source.KindGopsutil)
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	// Validate Timezone
	if _, err := c.Location(); err != nil {
		return err
	}

	return nil
}

// ValidateOutput checks the CSV export settings used by the collect command.
func (c *Config) ValidateOutput() error {
	if c.OutputPath == "" {
		return errors.New("output path cannot be empty")
	}

	if c.BufferSize < 1 {
		return errors.New("buffer size must be at least 1")
	}

	if c.FlushInterval < 1*time.Second {
		return errors.New("flush interval must be at least 1 second")
	}

	if c.MaxFileSize < 1 {
		return errors.New("max file size must be positive")
	}

	// Check if output directory exists
	if err := c.ensureOutputDir(); err != nil {
		return fmt.Errorf("output directory check failed: %w", err)
	}

	return nil
}

// ensureOutputDir checks if the output directory exists.
func (c *Config) ensureOutputDir() error {
	dir := filepath.Dir(c.OutputPath)

	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("output directory does not exist: %s", dir)
		}
		return err
	}

	if !info.IsDir() {
		return fmt.Errorf("output path parent is not a directory: %s", dir)
	}

	return nil
}

// String returns a human-readable representation of the configuration.
func (c *Config) String() string {
	return fmt.Sprintf("Config{Interval=%v, Metrics=[%s], Mount=%s, Source=%s, Output=%s, BufferSize=%d, FlushInterval=%v, Timezone=%s}",
		c.SamplingInterval, strings.Join(c.enabledNames(), ","), c.MountPoint, c.SourceName(),
		c.OutputPath, c.BufferSize, c.FlushInterval, c.Timezone)
}

func (c *Config) enabledNames() []string {
	var names []string
	if c.EnableCPU {
		names = append(names, "cpu")
	}
	if c.EnableMemory {
		names = append(names, "memory")
	}
	if c.EnableDisk {
		names = append(names, "disk")
	}
	if c.EnableNetworkSpeed {
		names = append(names, "network_speed")
	}
	if c.EnableNetworkTraffic {
		names = append(names, "network_traffic")
	}
	return names
}

// SourceName returns the configured counter source, resolving the platform default.
func (c *Config) SourceName() string {
	if c.Source == "" {
		return source.DefaultKind()
	}
	return c.Source
}
