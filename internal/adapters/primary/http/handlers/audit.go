package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"betting-model-service/internal/adapters/primary/http/dto"
	ports "betting-model-service/internal/core/ports/output"
)

func (h *Handler) ListAudit(c *gin.Context) {
	if h.auditSvc == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "audit trail is not enabled"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	filter := ports.AuditFilter{
		ModelName: c.Param("name"),
		Action:    c.Query("action"),
		Limit:     limit,
		Offset:    offset,
	}

	entries, total, err := h.auditSvc.List(c.Request.Context(), filter)
	if err != nil {
		log.WithError(err).Error("list audit failed")
		mapDomainError(c, err)
		return
	}

	items := make([]dto.AuditEntryResponse, 0, len(entries))
	for _, e := range entries {
		items = append(items, dto.ToAuditEntryResponse(e))
	}

	c.JSON(http.StatusOK, dto.ListAuditResponse{Items: items, Total: total})
}
