package handlers

import (
	"betting-model-service/internal/core/services"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	managerSvc *services.ModelManagerService
	auditSvc   *services.AuditService
}

func New(managerSvc *services.ModelManagerService, auditSvc *services.AuditService) *Handler {
	return &Handler{
		managerSvc: managerSvc,
		auditSvc:   auditSvc,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	// Runs
	r.POST("/:name/runs", h.LogModel)

	// Model Versions
	r.GET("/:name/versions", h.ListVersions)
	r.POST("/:name/versions", h.RegisterVersion)
	r.GET("/:name/versions/:version", h.GetVersion)
	r.PATCH("/:name/versions/:version", h.UpdateVersion)
	r.DELETE("/:name/versions/:version", h.DeleteVersion)
	r.POST("/:name/versions/:version/promote", h.PromoteVersion)

	// Aliases
	r.PUT("/:name/aliases/:alias", h.SetAlias)
	r.GET("/:name/aliases/:alias", h.GetByAlias)
	r.DELETE("/:name/aliases/:alias", h.DeleteAlias)

	// Loading
	r.POST("/:name/load", h.LoadModel)

	// Audit
	r.GET("/:name/audit", h.ListAudit)
}
