package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/olahol/melody"

	"tally/internal/logger"
	"tally/internal/middleware"
	"tally/internal/notify"
)

// WSHandler upgrades authenticated clients to the budget alert stream.
type WSHandler struct {
	hub *melody.Melody
}

// NewWSHandler creates a new WSHandler on hub.
func NewWSHandler(hub *melody.Melody) *WSHandler {
	return &WSHandler{hub: hub}
}

// Connect opens a WebSocket that receives the caller's budget alerts.
// Browsers cannot set headers on the upgrade, so the token is a query param.
// @Summary     Budget alert stream
// @Tags        alerts
// @Param       token query string true "Access token"
// @Success     101 "Switching protocols"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /ws [get]
func (h *WSHandler) Connect(c *gin.Context) {
	claims, err := middleware.ParseToken(c.Query("token"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.hub.HandleRequestWithKeys(c.Writer, c.Request, map[string]interface{}{
		notify.SessionUserKey: claims.UserID,
	}); err != nil {
		logger.Get().Warnw("websocket upgrade failed", "error", err, "user_id", claims.UserID)
	}
}
