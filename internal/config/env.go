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
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment variable read by LoadEnv.
const EnvPrefix = "UNOMON_"

// Environment variable names, without EnvPrefix.
const (
	EnvInterval        = "INTERVAL_MS"
	EnvCPU             = "CPU"
	EnvMemory          = "MEMORY"
	EnvDisk            = "DISK"
	EnvNetworkSpeed    = "NETWORK_SPEED"
	EnvNetworkTraffic  = "NETWORK_TRAFFIC"
	EnvMountPoint      = "MOUNT"
	EnvSource          = "SOURCE"
	EnvProcRoot        = "PROC_ROOT"
	EnvIncludeNetworks = "INCLUDE_NETWORKS"
	EnvExcludeNetworks = "EXCLUDE_NETWORKS"
	EnvOutput          = "OUTPUT"
	EnvListen          = "LISTEN"
	EnvLogLevel        = "LOG_LEVEL"
	EnvLogFile         = "LOG_FILE"
	EnvTimezone        = "TIMEZONE"
)

// hostProcEnv is the variable gopsutil and container images use for a relocated /proc.
const hostProcEnv = "HOST_PROC"

// LoadEnv overlays settings from UNOMON_* environment variables.
// envFile, when set, must exist and is loaded first; otherwise ./.env is loaded if present.
// Variables already set in the process environment win over file entries.
func (c *Config) LoadEnv(envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("loading env file %s: %w", envFile, err)
		}
	} else if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	if v, ok := lookup(EnvInterval); ok {
		// Unparseable values fall back to the default like absent ones
		ms, _ := strconv.Atoi(v)
		c.SamplingInterval = IntervalFromMillis(ms)
	}

	for name, dst := range map[string]*bool{
		EnvCPU:            &c.EnableCPU,
		EnvMemory:         &c.EnableMemory,
		EnvDisk:           &c.EnableDisk,
		EnvNetworkSpeed:   &c.EnableNetworkSpeed,
		EnvNetworkTraffic: &c.EnableNetworkTraffic,
	} {
		v, ok := lookup(name)
		if !ok {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s%s=%q: %w", EnvPrefix, name, v, err)
		}
		*dst = b
	}

	if v, ok := os.LookupEnv(hostProcEnv); ok && v != "" {
		c.ProcRoot = v
	}

	for name, dst := range map[string]*string{
		EnvMountPoint: &c.MountPoint,
		EnvSource:     &c.Source,
		EnvProcRoot:   &c.ProcRoot,
		EnvOutput:     &c.OutputPath,
		EnvListen:     &c.ListenAddr,
		EnvLogLevel:   &c.LogLevel,
		EnvLogFile:    &c.LogFile,
		EnvTimezone:   &c.Timezone,
	} {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}

	if v, ok := lookup(EnvIncludeNetworks); ok {
		c.IncludeNetworks = ParseCommaSeparated(v)
	}
	if v, ok := lookup(EnvExcludeNetworks); ok {
		c.ExcludeNetworks = ParseCommaSeparated(v)
	}

	return nil
}

func lookup(name string) (string, bool) {
	return os.LookupEnv(EnvPrefix + name)
}
