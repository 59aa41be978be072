package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/gocatalog/internal/citations"
	"github.com/jonesrussell/gocatalog/internal/logger"
	"github.com/jonesrussell/gocatalog/internal/models"
)

type CitationHandler struct {
	svc    *citations.Service
	logger logger.Logger
}

func NewCitationHandler(svc *citations.Service, log logger.Logger) *CitationHandler {
	return &CitationHandler{
		svc:    svc,
		logger: log,
	}
}

type citationRequest struct {
	EntryID   string  `json:"entry_id" binding:"required"`
	Kind      string  `json:"kind" binding:"required"`
	Reference string  `json:"reference" binding:"required"`
	Note      *string `json:"note,omitempty"`
}

func (h *CitationHandler) Create(c *gin.Context) {
	var req citationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Debug("Invalid request body",
			logger.String("error", err.Error()),
		)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	link, err := h.svc.LinkEntryToSource(c.Request.Context(), req.EntryID, citations.Reference{
		Kind:      models.LinkKind(req.Kind),
		Reference: req.Reference,
		Note:      req.Note,
	})
	if err != nil {
		h.logger.Error("Failed to create citation link",
			logger.String("entry_id", req.EntryID),
			logger.Error(err),
		)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to create citation link", "details": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, link)
}

// ListByEntry returns the citation links an entry owns.
func (h *CitationHandler) ListByEntry(c *gin.Context) {
	entryID := c.Param("entryID")

	links, err := h.svc.EntryLinks(c.Request.Context(), entryID)
	if err != nil {
		h.logger.Error("Failed to list citation links",
			logger.String("entry_id", entryID),
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list citation links"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"links": links,
		"count": len(links),
	})
}

// DeleteByEntry removes all citation links recorded on an entry.
func (h *CitationHandler) DeleteByEntry(c *gin.Context) {
	entryID := c.Param("entryID")

	deleted, err := h.svc.RemoveEntryLinks(c.Request.Context(), entryID)
	if err != nil {
		h.logger.Error("Failed to delete citation links",
			logger.String("entry_id", entryID),
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete citation links"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}
