package handler

import (
	"net/http"

	"casetrack/internal/model"

	"github.com/gin-gonic/gin"
)

// OutboxStats reports per-status row counts of the outbox table.
type OutboxStats interface {
	GetStats() (map[string]int, error)
}

type OpsHandler struct {
	outbox OutboxStats
}

func NewOpsHandler(outbox OutboxStats) *OpsHandler {
	return &OpsHandler{outbox: outbox}
}

// Handles GET /outbox/stats - pending/published/failed counts (admin only).
func (h *OpsHandler) OutboxStats(c *gin.Context) {
	identity := identityFrom(c)
	if identity.Role != model.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	stats, err := h.outbox.GetStats()
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"outbox": stats})
}
