package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/mindharbor/wellness-platform/internal/common"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// the SPA is served from a different origin in development
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ChatSocket upgrades to websocket and hands the connection to the relay.
// Auth happens in middleware before the upgrade (token query parameter).
func (h *Handler) ChatSocket(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote an HTTP error response
		log.Printf("ws upgrade failed uid=%d: %v", uid, err)
		return
	}

	h.Relay.HandleConn(c.Request.Context(), uid, conn)
}
