package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/gocatalog/internal/logger"
	"github.com/jonesrussell/gocatalog/internal/models"
	"github.com/jonesrussell/gocatalog/internal/repository"
)

type StagedHandler struct {
	repo   *repository.StagedRepository
	logger logger.Logger
}

func NewStagedHandler(repo *repository.StagedRepository, log logger.Logger) *StagedHandler {
	return &StagedHandler{
		repo:   repo,
		logger: log,
	}
}

func (h *StagedHandler) List(c *gin.Context) {
	sources, err := h.repo.ListUnpromoted(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list staged sources",
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list staged sources"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sources": sources,
		"count":   len(sources),
	})
}

func (h *StagedHandler) GetByID(c *gin.Context) {
	id := c.Param("id")

	source, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Staged source not found"})
			return
		}
		h.logger.Error("Failed to get staged source",
			logger.String("staged_id", id),
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get staged source"})
		return
	}

	c.JSON(http.StatusOK, source)
}

type stagedMetadataRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	ContentType *string `json:"content_type"`
	Language    *string `json:"language"`
}

// UpdateMetadata lets an operator correct the fetched metadata on a staged
// source. Omitted fields keep their current value.
func (h *StagedHandler) UpdateMetadata(c *gin.Context) {
	id := c.Param("id")

	var req stagedMetadataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	source, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Staged source not found"})
			return
		}
		h.logger.Error("Failed to get staged source",
			logger.String("staged_id", id),
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get staged source"})
		return
	}

	if req.Title != nil {
		source.Title = *req.Title
	}
	if req.Description != nil {
		source.Description = *req.Description
	}
	if req.ContentType != nil {
		contentType := models.ContentType(*req.ContentType)
		if !contentType.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid content type"})
			return
		}
		source.ContentType = contentType
	}
	if req.Language != nil {
		source.Language = *req.Language
	}

	if err := h.repo.UpdateMetadata(c.Request.Context(), source); err != nil {
		h.logger.Error("Failed to update staged metadata",
			logger.String("staged_id", id),
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update staged metadata"})
		return
	}

	c.JSON(http.StatusOK, source)
}

func (h *StagedHandler) Delete(c *gin.Context) {
	id := c.Param("id")

	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Staged source not found"})
			return
		}
		h.logger.Error("Failed to delete staged source",
			logger.String("staged_id", id),
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete staged source"})
		return
	}

	h.logger.Info("Staged source deleted",
		logger.String("staged_id", id),
	)

	c.JSON(http.StatusNoContent, nil)
}
