package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// InboundMessageHandler is the webhook the messaging provider posts
// groomer texts to. It always returns 200 once the payload parses;
// unknown senders and unknown commands are intentionally silent.
func (hb *HandlerBundle) InboundMessageHandler(c *gin.Context) {
	var input struct {
		From string `json:"from" binding:"required"`
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	if err := hb.Inbound.HandleInbound(input.From, input.Text); err != nil {
		// The groomer-facing reply already went out (or failed and was
		// logged); the webhook caller only needs to know we took it.
		hb.Logger.Error("Inbound message handling failed", zap.String("from", input.From), zap.Error(err))
	}
	c.JSON(http.StatusOK, gin.H{"status": "received"})
}
