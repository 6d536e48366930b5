// Copyright 2026 Guestsnap
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package http

import (
	stdhttp "net/http"
	"path"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/guestsnap/guestsnap/pkg/domain"
	"github.com/guestsnap/guestsnap/pkg/logging"
)

const (
	eventWriteTimeout  = 10 * time.Second
	clientSendBacklog  = 16
	eventReadSizeLimit = 512
)

// UploadEvent is pushed to gallery displays when an upload finishes, so a
// running slideshow can pick up new media without polling.
type UploadEvent struct {
	Type      string    `json:"type"`
	Owner     string    `json:"owner"`
	Filename  string    `json:"filename"`
	URL       string    `json:"url"`
	Timestamp time.Time `json:"timestamp"`
}

// Hub fans completed-upload events out to connected websocket clients.
type Hub struct {
	mu       sync.Mutex
	clients  map[*wsClient]struct{}
	upgrader websocket.Upgrader
	logger   *logging.Logger
}

type wsClient struct {
	conn *websocket.Conn
	send chan UploadEvent
}

// NewHub creates an event hub.
func NewHub(logger *logging.Logger) *Hub {
	return &Hub{
		clients: make(map[*wsClient]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The kiosk is an open local service; the QR flow has no origin contract
			CheckOrigin: func(*stdhttp.Request) bool { return true },
		},
		logger: logger,
	}
}

// NotifyUpload is the upload service's completion hook.
func (h *Hub) NotifyUpload(file domain.StoredFile) {
	event := UploadEvent{
		Type:      "upload",
		Owner:     file.Owner,
		Filename:  file.Filename,
		URL:       path.Join("/media", file.Owner, file.Filename),
		Timestamp: file.UploadedAt,
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		select {
		case client.send <- event:
		default:
			// Slow consumer; drop it rather than stall completions
			h.drop(client)
		}
	}
}

// Serve upgrades the request and streams events until the client goes away.
func (h *Hub) Serve(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", "error", err)
		return
	}

	client := &wsClient{conn: conn, send: make(chan UploadEvent, clientSendBacklog)}
	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()

	go h.readLoop(client)
	h.writeLoop(client)
}

// Close disconnects every client, typically at shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		h.drop(client)
	}
}

// drop must be called with the lock held.
func (h *Hub) drop(client *wsClient) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.send)
}

func (h *Hub) readLoop(client *wsClient) {
	client.conn.SetReadLimit(eventReadSizeLimit)
	for {
		// The feed is one-way; reads only detect disconnects
		if _, _, err := client.conn.ReadMessage(); err != nil {
			h.mu.Lock()
			h.drop(client)
			h.mu.Unlock()
			return
		}
	}
}

func (h *Hub) writeLoop(client *wsClient) {
	defer client.conn.Close()
	for event := range client.send {
		_ = client.conn.SetWriteDeadline(time.Now().Add(eventWriteTimeout))
		if err := client.conn.WriteJSON(event); err != nil {
			h.mu.Lock()
			h.drop(client)
			h.mu.Unlock()
			return
		}
	}
}
