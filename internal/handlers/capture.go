package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/gocatalog/internal/ingest"
	"github.com/jonesrussell/gocatalog/internal/logger"
	"github.com/jonesrussell/gocatalog/internal/models"
	"github.com/jonesrussell/gocatalog/internal/repository"
)

const defaultQuarantineLimit = 100

type CaptureHandler struct {
	ingest *ingest.Service
	inbox  *repository.InboxRepository
	logger logger.Logger
}

func NewCaptureHandler(svc *ingest.Service, inbox *repository.InboxRepository, log logger.Logger) *CaptureHandler {
	return &CaptureHandler{
		ingest: svc,
		inbox:  inbox,
		logger: log,
	}
}

type captureRequest struct {
	URL    string               `json:"url" binding:"required"`
	Origin models.OriginContext `json:"origin"`
}

type captureBatchRequest struct {
	URLs   []string             `json:"urls" binding:"required"`
	Origin models.OriginContext `json:"origin"`
}

func (h *CaptureHandler) Capture(c *gin.Context) {
	var req captureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Debug("Invalid request body",
			logger.String("error", err.Error()),
		)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	entry, err := h.ingest.Capture(c.Request.Context(), req.URL, req.Origin)
	if err != nil {
		h.logger.Error("Failed to capture citation",
			logger.String("url", req.URL),
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to capture citation"})
		return
	}

	c.JSON(http.StatusCreated, entry)
}

func (h *CaptureHandler) CaptureBatch(c *gin.Context) {
	var req captureBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Debug("Invalid request body",
			logger.String("error", err.Error()),
		)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	captured, quarantined, failed := h.ingest.CaptureBatch(c.Request.Context(), req.URLs, req.Origin)

	c.JSON(http.StatusOK, gin.H{
		"captured":    captured,
		"quarantined": quarantined,
		"failed":      failed,
	})
}

// ListQuarantined returns inbox entries that failed validation, for audit.
func (h *CaptureHandler) ListQuarantined(c *gin.Context) {
	limit := defaultQuarantineLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		limit = parsed
	}

	entries, err := h.inbox.ListQuarantined(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to list quarantined entries",
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list quarantined entries"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"entries": entries,
		"count":   len(entries),
	})
}
