// internal/socket/handler.go
package socket

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/toolbridge/crm-adapter/internal/dispatcher"
	"github.com/toolbridge/crm-adapter/internal/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true // origin policy is enforced by the CORS layer
	},
}

// Handler serves the websocket tool-dispatch transport: each inbound JSON
// frame is a ToolRequest, each reply an envelope tagged with the request
// id. Frames on one connection are processed sequentially.
type Handler struct {
	dispatcher *dispatcher.Dispatcher
	logger     *zap.Logger
}

func NewHandler(d *dispatcher.Dispatcher, logger *zap.Logger) *Handler {
	return &Handler{dispatcher: d, logger: logger}
}

// ServeWS upgrades the connection and runs the dispatch loop until the
// peer closes or a read fails.
func (h *Handler) ServeWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	for {
		var req models.ToolRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("websocket read failed", zap.Error(err))
			}
			return
		}

		env := h.dispatcher.Execute(c.Request.Context(), req)
		env.RequestID = req.ID

		if err := conn.WriteJSON(env); err != nil {
			h.logger.Warn("websocket write failed", zap.Error(err))
			return
		}
	}
}
