package handlers

import (
	"time"

	"github.com/emarc99/chaincapture/internal/chain"
	"github.com/emarc99/chaincapture/internal/ws"
	"github.com/gofiber/websocket/v2"
)

const (
	pingInterval = 30 * time.Second
	writeWait    = 10 * time.Second
	readLimit    = 512
)

// Activity streams registration, license and remix events for one wallet:
// /ws/activity?address=0x...
func (h *Handler) Activity(c *websocket.Conn) {
	address := c.Query("address")
	if !chain.IsAddress(address) {
		_ = c.WriteMessage(websocket.TextMessage, []byte("missing or invalid address"))
		_ = c.Close()
		return
	}

	client := ws.NewClient(address, c)
	h.hub.Add(client)

	done := make(chan struct{})
	go func() {
		client.WritePump(pingInterval, writeWait)
		close(done)
	}()

	// the feed is one way; reading only notices the close
	c.SetReadLimit(readLimit)
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			break
		}
	}
	h.hub.Remove(client)
	<-done
}
