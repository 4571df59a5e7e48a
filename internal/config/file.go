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
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig mirrors the YAML layout. Pointers distinguish unset keys from zero values.
type fileConfig struct {
	IntervalMS *int `yaml:"interval_ms"`
	Metrics    struct {
		CPU            *bool `yaml:"cpu"`
		Memory         *bool `yaml:"memory"`
		Disk           *bool `yaml:"disk"`
		NetworkSpeed   *bool `yaml:"network_speed"`
		NetworkTraffic *bool `yaml:"network_traffic"`
	} `yaml:"metrics"`
	MountPoint      string   `yaml:"mount_point"`
	Source          string   `yaml:"source"`
	ProcRoot        string   `yaml:"proc_root"`
	IncludeNetworks []string `yaml:"include_networks"`
	ExcludeNetworks []string `yaml:"exclude_networks"`
	Output          struct {
		Path          string `yaml:"path"`
		BufferSize    int    `yaml:"buffer_size"`
		FlushInterval string `yaml:"flush_interval"`
		MaxFileSizeMB int64  `yaml:"max_file_size_mb"`
	} `yaml:"output"`
	Listen string `yaml:"listen"`
	Log    struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"log"`
	Timezone string `yaml:"timezone"`
}

// LoadFile overlays settings from a YAML file. Keys absent from the file keep their current value.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}

	return c.apply(&fc)
}

func (c *Config) apply(fc *fileConfig) error {
	if fc.IntervalMS != nil {
		c.SamplingInterval = IntervalFromMillis(*fc.IntervalMS)
	}

	setBool(&c.EnableCPU, fc.Metrics.CPU)
	setBool(&c.EnableMemory, fc.Metrics.Memory)
	setBool(&c.EnableDisk, fc.Metrics.Disk)
	setBool(&c.EnableNetworkSpeed, fc.Metrics.NetworkSpeed)
	setBool(&c.EnableNetworkTraffic, fc.Metrics.NetworkTraffic)

	setString(&c.MountPoint, fc.MountPoint)
	setString(&c.Source, fc.Source)
	setString(&c.ProcRoot, fc.ProcRoot)
	if fc.IncludeNetworks != nil {
		c.IncludeNetworks = fc.IncludeNetworks
	}
	if fc.ExcludeNetworks != nil {
		c.ExcludeNetworks = fc.ExcludeNetworks
	}

	setString(&c.OutputPath, fc.Output.Path)
	if fc.Output.BufferSize != 0 {
		c.BufferSize = fc.Output.BufferSize
	}
	if fc.Output.FlushInterval != "" {
		d, err := time.ParseDuration(fc.Output.FlushInterval)
		if err != nil {
			return fmt.Errorf("invalid output.flush_interval %q: %w", fc.Output.FlushInterval, err)
		}
		c.FlushInterval = d
	}
	if fc.Output.MaxFileSizeMB != 0 {
		c.MaxFileSize = fc.Output.MaxFileSizeMB * 1024 * 1024
	}

	setString(&c.ListenAddr, fc.Listen)
	setString(&c.LogLevel, fc.Log.Level)
	setString(&c.LogFile, fc.Log.File)
	setString(&c.Timezone, fc.Timezone)

	return nil
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
