package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"betting-model-service/internal/adapters/primary/http/dto"
	"betting-model-service/internal/core/domain"
	"betting-model-service/internal/core/services"
)

func (h *Handler) LogModel(c *gin.Context) {
	name := c.Param("name")

	var req dto.LogModelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	runID, err := h.managerSvc.LogModel(c.Request.Context(), name, domain.LogModelSpec{
		Flavor:    req.Flavor,
		RunName:   req.RunName,
		ModelPath: req.ModelPath,
		Params:    req.Params,
		Metrics:   req.Metrics,
		Tags:      req.Tags,
	})
	if err != nil {
		log.WithError(err).Error("log model failed")
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.LogModelResponse{RunID: runID})
}

func (h *Handler) ListVersions(c *gin.Context) {
	name := c.Param("name")

	versions, err := h.managerSvc.ListVersions(c.Request.Context(), name)
	if err != nil {
		log.WithError(err).Error("list versions failed")
		mapDomainError(c, err)
		return
	}

	items := make([]dto.ModelVersionResponse, 0, len(versions))
	for _, v := range versions {
		items = append(items, dto.ToModelVersionResponse(v))
	}

	c.JSON(http.StatusOK, dto.ListVersionsResponse{Items: items, Total: len(items)})
}

func (h *Handler) RegisterVersion(c *gin.Context) {
	name := c.Param("name")

	var req dto.RegisterVersionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	version, err := h.managerSvc.Register(c.Request.Context(), name, req.RunID, services.RegisterOptions{
		Description: req.Description,
		Tags:        req.Tags,
		Alias:       req.Alias,
	})
	if err != nil {
		log.WithError(err).Error("register version failed")
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToModelVersionResponse(version))
}

func (h *Handler) GetVersion(c *gin.Context) {
	name := c.Param("name")
	version := c.Param("version")

	v, err := h.managerSvc.GetVersion(c.Request.Context(), name, version)
	if err != nil {
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToModelVersionResponse(v))
}

func (h *Handler) UpdateVersion(c *gin.Context) {
	name := c.Param("name")
	version := c.Param("version")

	var req dto.UpdateVersionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Description == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "description is required"})
		return
	}

	if err := h.managerSvc.UpdateDescription(c.Request.Context(), name, version, *req.Description); err != nil {
		log.WithError(err).Error("update version failed")
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

func (h *Handler) DeleteVersion(c *gin.Context) {
	name := c.Param("name")
	version := c.Param("version")

	if err := h.managerSvc.DeleteVersion(c.Request.Context(), name, version); err != nil {
		log.WithError(err).Error("delete version failed")
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (h *Handler) PromoteVersion(c *gin.Context) {
	name := c.Param("name")
	version := c.Param("version")

	var req dto.PromoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.managerSvc.Promote(c.Request.Context(), name, version, req.Target); err != nil {
		log.WithError(err).Error("promote version failed")
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "promoted", "target": req.Target})
}

func (h *Handler) LoadModel(c *gin.Context) {
	name := c.Param("name")

	var req dto.LoadModelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	loaded, err := h.managerSvc.Load(c.Request.Context(), name, domain.ModelRef{
		Version: req.Version,
		Alias:   req.Alias,
		RunID:   req.RunID,
	})
	if err != nil {
		log.WithError(err).Error("load model failed")
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, loaded)
}
