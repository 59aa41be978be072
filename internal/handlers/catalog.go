package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/gocatalog/internal/citations"
	"github.com/jonesrussell/gocatalog/internal/logger"
	"github.com/jonesrussell/gocatalog/internal/promotion"
	"github.com/jonesrussell/gocatalog/internal/repository"
)

type CatalogHandler struct {
	repo      *repository.CatalogRepository
	manager   *promotion.Manager
	citations *citations.Service
	logger    logger.Logger
}

func NewCatalogHandler(
	repo *repository.CatalogRepository,
	manager *promotion.Manager,
	citationSvc *citations.Service,
	log logger.Logger,
) *CatalogHandler {
	return &CatalogHandler{
		repo:      repo,
		manager:   manager,
		citations: citationSvc,
		logger:    log,
	}
}

func (h *CatalogHandler) List(c *gin.Context) {
	sources, err := h.repo.List(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list catalog sources",
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list catalog sources"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sources": sources,
		"count":   len(sources),
	})
}

func (h *CatalogHandler) GetByID(c *gin.Context) {
	id := c.Param("id")

	source, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Catalog source not found"})
			return
		}
		h.logger.Error("Failed to get catalog source",
			logger.String("catalog_id", id),
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get catalog source"})
		return
	}

	c.JSON(http.StatusOK, source)
}

// Promote moves a staged source into the catalog, bypassing the automatic
// thresholds.
func (h *CatalogHandler) Promote(c *gin.Context) {
	stagedID := c.Param("id")

	source, err := h.manager.Promote(c.Request.Context(), stagedID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Staged source not found"})
			return
		}
		h.logger.Error("Failed to promote staged source",
			logger.String("staged_id", stagedID),
			logger.Error(err),
		)
		c.JSON(http.StatusConflict, gin.H{"error": "Failed to promote staged source", "details": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, source)
}

type demoteRequest struct {
	Reason string `json:"reason"`
	Force  bool   `json:"force"`
}

func (h *CatalogHandler) Demote(c *gin.Context) {
	id := c.Param("id")

	var req demoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	if req.Reason == "" {
		req.Reason = "manual demotion"
	}

	err := h.manager.Demote(c.Request.Context(), id, req.Reason, req.Force)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Catalog source not found"})
			return
		}
		if errors.Is(err, promotion.ErrSeedProtected) {
			c.JSON(http.StatusConflict, gin.H{"error": "Seed sources require force to demote"})
			return
		}
		h.logger.Error("Failed to demote catalog source",
			logger.String("catalog_id", id),
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to demote catalog source"})
		return
	}

	c.JSON(http.StatusNoContent, nil)
}

type themeRequest struct {
	Theme string `json:"theme" binding:"required"`
}

func (h *CatalogHandler) AddTheme(c *gin.Context) {
	id := c.Param("id")

	var req themeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := h.repo.AddThemeTag(c.Request.Context(), id, req.Theme); err != nil {
		h.logger.Error("Failed to add theme tag",
			logger.String("catalog_id", id),
			logger.String("theme", req.Theme),
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add theme tag"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"source_id": id, "theme": req.Theme})
}

func (h *CatalogHandler) RemoveTheme(c *gin.Context) {
	id := c.Param("id")
	theme := c.Param("theme")

	if err := h.repo.RemoveThemeTag(c.Request.Context(), id, theme); err != nil {
		h.logger.Error("Failed to remove theme tag",
			logger.String("catalog_id", id),
			logger.String("theme", theme),
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove theme tag"})
		return
	}

	c.JSON(http.StatusNoContent, nil)
}

// Backlinks returns the entry ids citing a catalog source.
func (h *CatalogHandler) Backlinks(c *gin.Context) {
	id := c.Param("id")

	entryIDs, err := h.citations.BacklinksFor(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to list backlinks",
			logger.String("catalog_id", id),
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list backlinks"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"entry_ids": entryIDs,
		"count":     len(entryIDs),
	})
}
