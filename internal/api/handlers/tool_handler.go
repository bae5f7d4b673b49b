// internal/api/handlers/tool_handler.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/toolbridge/crm-adapter/internal/dispatcher"
	"github.com/toolbridge/crm-adapter/internal/models"
)

type ToolHandler struct {
	dispatcher *dispatcher.Dispatcher
	logger     *zap.Logger
}

func NewToolHandler(d *dispatcher.Dispatcher, logger *zap.Logger) *ToolHandler {
	return &ToolHandler{dispatcher: d, logger: logger}
}

// Execute runs one tool request. Dispatch errors travel inside the
// envelope with HTTP 200; only a malformed request body is an HTTP error.
func (h *ToolHandler) Execute(c *gin.Context) {
	var req models.ToolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	env := h.dispatcher.Execute(c.Request.Context(), req)
	if env.IsError {
		h.logger.Info("tool request failed",
			zap.String("resource_type", req.ResourceType),
			zap.String("operation", string(req.Operation)),
			zap.String("code", env.Error.Code))
	}
	c.JSON(http.StatusOK, env)
}
