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

package server

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// broadcastBuffer bounds the snapshots queued for fan-out.
const broadcastBuffer = 16

// Hub fans snapshots out to connected stream clients.
// Clients whose send buffer is full are dropped.
type Hub struct {
	clients map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}

	count  atomic.Int32
	logger *slog.Logger
}

// NewHub creates a hub; call Run to start it.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, broadcastBuffer),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run processes registrations and broadcasts until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.remove(client)
			}
			return

		case client := <-h.register:
			h.clients[client] = true
			h.count.Store(int32(len(h.clients)))
			h.logger.Info("Stream client connected", "id", client.ID, "total_clients", len(h.clients))

		case client := <-h.unregister:
			if h.clients[client] {
				h.remove(client)
				h.logger.Info("Stream client disconnected", "id", client.ID, "total_clients", len(h.clients))
			}

		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					h.logger.Warn("Stream client too slow, dropping", "id", client.ID)
					h.remove(client)
				}
			}
		}
	}
}

func (h *Hub) remove(client *Client) {
	delete(h.clients, client)
	close(client.send)
	h.count.Store(int32(len(h.clients)))
}

// Broadcast queues message for every client without blocking.
func (h *Hub) Broadcast(message []byte) {
	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn("Stream broadcast queue full, dropping snapshot")
	}
}

// Register adds client; it reports false once the hub has stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes client if it is still registered.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	return int(h.count.Load())
}
