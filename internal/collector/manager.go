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

package collector

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/phuonguno98/unomon/pkg/metrics"
)

// ErrChannelFull is returned when a snapshot was dropped because the consumer lagged.
var ErrChannelFull = errors.New("metrics channel full")

// Manager drives an Engine on a fixed interval and publishes its snapshots.
type Manager struct {
	engine      *Engine
	interval    time.Duration
	metricsChan chan<- *metrics.Snapshot
	logger      *slog.Logger

	mu     sync.Mutex
	ticker *time.Ticker
}

// NewManager creates a new collector manager instance.
func NewManager(engine *Engine, interval time.Duration, metricsChan chan<- *metrics.Snapshot, logger *slog.Logger) *Manager {
	return &Manager{
		engine:      engine,
		interval:    interval,
		metricsChan: metricsChan,
		logger:      logger,
	}
}

// Start begins the collection loop.
// It takes a baseline snapshot immediately, then samples at the configured interval
// until ctx is cancelled.
func (m *Manager) Start(ctx context.Context) error {
	m.logger.Info("Starting collector manager",
		"interval", m.interval,
	)

	// Perform baseline collection
	if err := m.collectOnce(); err != nil {
		m.logger.Warn("Baseline collection had errors", "error", err)
	}

	ticker := time.NewTicker(m.interval)
	m.mu.Lock()
	m.ticker = ticker
	m.mu.Unlock()
	defer ticker.Stop()

	m.logger.Info("Collector manager started")

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("Collector manager stopping...")
			return nil

		case <-ticker.C:
			if err := m.collectOnce(); err != nil {
				m.logger.Warn("Collection failed", "error", err)
			}
		}
	}
}

// collectOnce samples the engine and sends the snapshot without blocking.
func (m *Manager) collectOnce() error {
	snapshot := m.engine.Sample()

	select {
	case m.metricsChan <- snapshot:
		m.logger.Debug("Snapshot sent", "sequence", snapshot.Sequence)
	default:
		m.logger.Warn("Metrics channel full, dropping snapshot", "sequence", snapshot.Sequence)
		return ErrChannelFull
	}

	return nil
}

// Stop halts the ticker; Start still returns only when its context is cancelled.
func (m *Manager) Stop() {
	m.mu.Lock()
	if m.ticker != nil {
		m.ticker.Stop()
	}
	m.mu.Unlock()
	m.logger.Info("Collector manager stopped")
}
