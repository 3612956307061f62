package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"eduscan-api/events"
	"eduscan-api/pkg/logging"
	"eduscan-api/pkg/metrics"
	"eduscan-api/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type liveMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// LiveWebSocket streams saved predictions, observations and purge reports
// to an authenticated client.
func LiveWebSocket(sub events.Subscriber, authService *services.AuthService, m *metrics.Collector, logger *logging.StructuredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := c.Query("token")
		if tokenStr == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token query parameter"})
			return
		}

		if _, err := authService.ValidateToken(tokenStr); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		ctx, cancel := context.WithCancel(c.Request.Context())
		defer cancel()

		feed, err := sub.Subscribe(ctx)
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn(ctx, "[WS] upgrade failed", logging.Fields{"error": err.Error()})
			return
		}
		defer conn.Close()

		m.ActiveWebsockets.Inc()
		defer m.ActiveWebsockets.Dec()

		// Read pump: detect client disconnect
		go func() {
			defer cancel()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case payload, ok := <-feed:
				if !ok {
					return
				}
				var msg liveMessage
				if err := json.Unmarshal(payload, &msg); err != nil {
					logger.Warn(ctx, "[WS] dropping undecodable event", logging.Fields{"error": err.Error()})
					continue
				}
				if err := conn.WriteJSON(msg); err != nil {
					logger.Warn(ctx, "[WS] write failed", logging.Fields{"error": err.Error()})
					return
				}
			}
		}
	}
}
