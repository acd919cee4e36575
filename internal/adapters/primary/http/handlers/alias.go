package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"betting-model-service/internal/adapters/primary/http/dto"
)

func (h *Handler) SetAlias(c *gin.Context) {
	name := c.Param("name")
	alias := c.Param("alias")

	var req dto.SetAliasRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.managerSvc.SetAlias(c.Request.Context(), name, req.Version, alias); err != nil {
		log.WithError(err).Error("set alias failed")
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "alias set", "alias": alias, "version": req.Version})
}

func (h *Handler) GetByAlias(c *gin.Context) {
	name := c.Param("name")
	alias := c.Param("alias")

	v, err := h.managerSvc.GetByAlias(c.Request.Context(), name, alias)
	if err != nil {
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToModelVersionResponse(v))
}

func (h *Handler) DeleteAlias(c *gin.Context) {
	name := c.Param("name")
	alias := c.Param("alias")

	if err := h.managerSvc.DeleteAlias(c.Request.Context(), name, alias); err != nil {
		log.WithError(err).Error("delete alias failed")
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "alias deleted"})
}
