package http

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/nats-io/nats.go"

	natsadapter "github.com/tenaworks/proximity/internal/adapters/nats"
	"github.com/tenaworks/proximity/internal/pkg/metrics"
)

// wsMessage is sent by clients to narrow or widen the relayed providers.
type wsMessage struct {
	Action      string   `json:"action"` // "watch" | "unwatch" | "all"
	ProviderIDs []string `json:"provider_ids"`
}

// providerFilter tracks which provider IDs a client wants. Until the first
// watch every provider is relayed; after it only watched IDs are, even once
// all of them have been unwatched.
type providerFilter struct {
	mu       sync.RWMutex
	filtered bool
	ids      map[string]struct{}
}

func (f *providerFilter) allows(id string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if !f.filtered {
		return true
	}
	_, ok := f.ids[id]
	return ok
}

func (f *providerFilter) apply(m wsMessage) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch m.Action {
	case "watch":
		f.filtered = true
		if f.ids == nil {
			f.ids = make(map[string]struct{})
		}
		for _, id := range m.ProviderIDs {
			f.ids[id] = struct{}{}
		}
	case "unwatch":
		for _, id := range m.ProviderIDs {
			delete(f.ids, id)
		}
	case "all":
		f.filtered = false
		f.ids = nil
	default:
		return false
	}
	return true
}

// WebSocketHandler relays applied provider location updates from NATS to the
// client. Clients send {"action":"watch","provider_ids":["..."]} to filter.
func WebSocketHandler(nc *nats.Conn) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		remoteAddr := c.RemoteAddr().String()
		slog.Info("ws client connected", "remote", remoteAddr)

		var mu sync.Mutex
		writeJSON := func(v interface{}) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}

		filter := &providerFilter{}
		sub, err := nc.Subscribe(natsadapter.BroadcastSubject, func(msg *nats.Msg) {
			var head struct {
				ProviderID string `json:"provider_id"`
			}
			if err := json.Unmarshal(msg.Data, &head); err != nil || !filter.allows(head.ProviderID) {
				return
			}
			_ = writeJSON(json.RawMessage(msg.Data))
		})
		if err != nil {
			slog.Error("ws subscribe failed", "subject", natsadapter.BroadcastSubject, "error", err)
			return
		}
		defer func() { _ = sub.Unsubscribe() }()

		// Keep-alive ping
		done := make(chan struct{})
		defer close(done)
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		for {
			_, raw, err := c.ReadMessage()
			if err != nil {
				break
			}
			var m wsMessage
			if err := json.Unmarshal(raw, &m); err != nil {
				_ = writeJSON(map[string]string{"error": "invalid JSON"})
				continue
			}
			if !filter.apply(m) {
				_ = writeJSON(map[string]string{"error": "unknown action: " + m.Action})
				continue
			}
			_ = writeJSON(map[string]string{"status": "ok", "action": m.Action})
		}

		slog.Info("ws client disconnected", "remote", remoteAddr)
	}
}
