package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"flower_shop/internal/middleware"
)

const wsPingInterval = 30 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type cartSnapshot struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Count int    `json:"count"`
	Total string `json:"total"`
}

// GET /ws/cart pushes the cart badge every time the visitor's cart changes,
// from any tab or device sharing the session.
func (h *Handler) CartWebSocket(c *gin.Context) {
	sid := middleware.SessionID(c)
	if sid == "" || h.CartEvents == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "live cart unavailable"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Msg("⚠️ websocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, unsubscribe := h.CartEvents.Subscribe(ctx, sid)
	defer unsubscribe()

	// Reader: we only care about the close frame.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := conn.WriteJSON(h.snapshot(ctx, sid, "connected")); err != nil {
		return
	}

	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(h.snapshot(ctx, sid, event)); err != nil {
				log.Debug().Err(err).Msg("websocket write failed")
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				return
			}
		}
	}
}

func (h *Handler) snapshot(ctx context.Context, sid, event string) cartSnapshot {
	s := cartSnapshot{Type: "cart_updated", Event: event, Total: "0.00"}
	lines, total, err := h.Carts.Materialize(ctx, sid)
	if err != nil {
		log.Warn().Err(err).Msg("⚠️ cart snapshot failed")
		return s
	}
	for _, l := range lines {
		s.Count += l.Quantity
	}
	s.Total = total.StringFixed(2)
	return s
}
