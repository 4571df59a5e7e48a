//go:build linux

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

	"github.com/phuonguno98/unomon/pkg/metrics"
	"golang.org/x/sys/unix"
)

// statfs returns size and used bytes of the filesystem containing path.
// Used is size minus free blocks, reserved blocks included.
func statfs(path string) (metrics.FilesystemUsage, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return metrics.FilesystemUsage{}, fmt.Errorf("%w: statfs %s: %w", metrics.ErrSourceUnavailable, path, err)
	}

	blockSize := uint64(stat.Bsize)
	size := stat.Blocks * blockSize
	free := stat.Bfree * blockSize
	if free > size {
		free = size
	}

	return metrics.FilesystemUsage{
		Size: size,
		Used: size - free,
	}, nil
}
