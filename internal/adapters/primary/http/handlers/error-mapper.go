package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"betting-model-service/internal/core/domain"
)

func mapDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrModelNotFound),
		errors.Is(err, domain.ErrVersionNotFound),
		errors.Is(err, domain.ErrAliasNotFound),
		errors.Is(err, domain.ErrRunNotFound),
		errors.Is(err, domain.ErrArtifactNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

	case errors.Is(err, domain.ErrModelAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})

	case errors.Is(err, domain.ErrInvalidModelName),
		errors.Is(err, domain.ErrInvalidVersion),
		errors.Is(err, domain.ErrInvalidAlias),
		errors.Is(err, domain.ErrUnsupportedFlavor),
		errors.Is(err, domain.ErrAmbiguousModelRef),
		errors.Is(err, domain.ErrInvalidPromoteTarget),
		errors.Is(err, domain.ErrExperimentRequired),
		errors.Is(err, domain.ErrUnsupportedArtifactURI):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	case errors.Is(err, domain.ErrRegistrationNotReady),
		errors.Is(err, domain.ErrRegistrationFailed):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})

	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
