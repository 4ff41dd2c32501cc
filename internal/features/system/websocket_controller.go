package system

import (
	"crm-access/pkg/utils"

	"github.com/gofiber/contrib/websocket"
)

type WebSocketController struct {
	Hub *Hub
}

func NewWebSocketController(hub *Hub) *WebSocketController {
	return &WebSocketController{
		Hub: hub,
	}
}

// HandleWebSocket subscribes the authenticated connection to its tenant's
// permission-invalidation stream.
func (h *WebSocketController) HandleWebSocket(c *websocket.Conn) {
	claims, ok := c.Locals(utils.UserClaimsKey).(*utils.UserClaims)
	if !ok {
		_ = c.Close()
		return
	}
	h.Hub.Serve(c, claims.TenantID, claims.UserID)
}
