// Package ws pushes pipeline activity to browsers subscribed by wallet.
package ws

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/emarc99/chaincapture/internal/events"
	"github.com/gofiber/websocket/v2"
)

const sendBuffer = 16

// Hub fans events out to the clients watching the event's wallet. It
// satisfies events.Publisher so it can sit next to the broker publisher.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
	onCount func(delta int)
}

func NewHub() *Hub {
	return &Hub{clients: make(map[string]map[*Client]struct{}), onCount: func(int) {}}
}

// OnCount registers a callback fired when clients join (+1) or leave (-1).
func (h *Hub) OnCount(fn func(delta int)) { h.onCount = fn }

func (h *Hub) Add(c *Client) {
	h.mu.Lock()
	set, ok := h.clients[c.address]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[c.address] = set
	}
	set[c] = struct{}{}
	h.mu.Unlock()
	h.onCount(1)
}

func (h *Hub) Remove(c *Client) {
	h.mu.Lock()
	set, ok := h.clients[c.address]
	if ok {
		if _, present := set[c]; !present {
			ok = false
		}
		delete(set, c)
		if len(set) == 0 {
			delete(h.clients, c.address)
		}
	}
	h.mu.Unlock()
	if ok {
		c.close()
		h.onCount(-1)
	}
}

func (h *Hub) Count(address string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[strings.ToLower(address)])
}

func (h *Hub) Publish(_ context.Context, ev events.Event) error {
	if ev.Address == "" {
		return nil
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[strings.ToLower(ev.Address)] {
		c.Send(ev)
	}
	return nil
}

func (h *Hub) Close() error {
	h.mu.Lock()
	all := h.clients
	h.clients = make(map[string]map[*Client]struct{})
	h.mu.Unlock()
	for _, set := range all {
		for c := range set {
			c.close()
		}
	}
	return nil
}

type Client struct {
	address string
	conn    *websocket.Conn
	send    chan events.Event
	once    sync.Once
}

func NewClient(address string, conn *websocket.Conn) *Client {
	return &Client{
		address: strings.ToLower(address),
		conn:    conn,
		send:    make(chan events.Event, sendBuffer),
	}
}

// Send drops the event when the client is not keeping up.
func (c *Client) Send(ev events.Event) {
	defer func() { _ = recover() }()
	select {
	case c.send <- ev:
	default:
	}
}

func (c *Client) close() {
	c.once.Do(func() { close(c.send) })
}

// WritePump writes queued events and pings until the client is closed or a
// write fails.
func (c *Client) WritePump(ping, writeWait time.Duration) {
	t := time.NewTicker(ping)
	defer t.Stop()
	for {
		select {
		case ev, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(ev); err != nil {
				return
			}
		case <-t.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
