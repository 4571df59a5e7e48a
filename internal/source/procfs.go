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
	"fmt"
	"os"
	"path/filepath"

	"github.com/phuonguno98/unomon/pkg/metrics"
)

// DefaultProcRoot is the mount point of the proc filesystem.
const DefaultProcRoot = "/proc"

// Procfs reads kernel counters from text files under a proc root.
type Procfs struct {
	Root string
}

// NewProcfs creates a reader rooted at root (DefaultProcRoot if empty).
func NewProcfs(root string) *Procfs {
	if root == "" {
		root = DefaultProcRoot
	}
	return &Procfs{Root: root}
}

// CPUTimes reads the aggregate CPU line of <root>/stat.
func (p *Procfs) CPUTimes() (metrics.CPUTimes, error) {
	f, err := p.open("stat")
	if err != nil {
		return metrics.CPUTimes{}, err
	}
	defer f.Close()

	return ParseCPUStat(f)
}

// MemInfo reads memory totals from <root>/meminfo.
func (p *Procfs) MemInfo() (metrics.MemInfo, error) {
	f, err := p.open("meminfo")
	if err != nil {
		return metrics.MemInfo{}, err
	}
	defer f.Close()

	return ParseMemInfo(f)
}

// NetDevCounters reads per-interface counters from <root>/net/dev.
func (p *Procfs) NetDevCounters() ([]metrics.InterfaceCounters, error) {
	f, err := p.open(filepath.Join("net", "dev"))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ParseNetDev(f)
}

// FilesystemUsage queries capacity of the filesystem mounted at mountPoint.
func (p *Procfs) FilesystemUsage(mountPoint string) (metrics.FilesystemUsage, error) {
	return statfs(mountPoint)
}

func (p *Procfs) open(name string) (*os.File, error) {
	path := filepath.Join(p.Root, name)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", metrics.ErrSourceUnavailable, err)
	}
	return f, nil
}
