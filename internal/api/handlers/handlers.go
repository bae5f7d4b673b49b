// internal/api/handlers/handlers.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/toolbridge/crm-adapter/internal/dispatcher"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	Tool *ToolHandler
}

// NewHandlers creates all handlers
func NewHandlers(d *dispatcher.Dispatcher, logger *zap.Logger) *Handlers {
	return &Handlers{
		Tool: &ToolHandler{dispatcher: d, logger: logger},
	}
}

// Health reports liveness.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
