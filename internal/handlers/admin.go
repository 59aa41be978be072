package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/gocatalog/internal/enrich"
	"github.com/jonesrussell/gocatalog/internal/importer"
	"github.com/jonesrussell/gocatalog/internal/linkrot"
	"github.com/jonesrussell/gocatalog/internal/logger"
	"github.com/jonesrussell/gocatalog/internal/models"
	"github.com/jonesrussell/gocatalog/internal/promotion"
	"github.com/jonesrussell/gocatalog/internal/repository"
)

// AdminHandler exposes manual triggers for the background passes, the seed
// import endpoint, and the known-domain role overrides the classifier reads.
type AdminHandler struct {
	enricher *enrich.Enricher
	manager  *promotion.Manager
	monitor  *linkrot.Monitor
	importer *importer.ExcelImporter
	domains  *repository.KnownDomainRepository
	logger   logger.Logger
}

func NewAdminHandler(
	enricher *enrich.Enricher,
	manager *promotion.Manager,
	monitor *linkrot.Monitor,
	excelImporter *importer.ExcelImporter,
	domains *repository.KnownDomainRepository,
	log logger.Logger,
) *AdminHandler {
	return &AdminHandler{
		enricher: enricher,
		manager:  manager,
		monitor:  monitor,
		importer: excelImporter,
		domains:  domains,
		logger:   log,
	}
}

func (h *AdminHandler) RunEnrich(c *gin.Context) {
	report, err := h.enricher.Enrich(c.Request.Context())
	if errors.Is(err, enrich.ErrAlreadyRunning) {
		c.JSON(http.StatusConflict, gin.H{"error": "Enrichment already running"})
		return
	}
	if err != nil {
		h.logger.Error("Enrichment run failed",
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Enrichment run failed"})
		return
	}

	c.JSON(http.StatusOK, report)
}

func (h *AdminHandler) RunRecalculate(c *gin.Context) {
	report, err := h.manager.RecalculateAll(c.Request.Context())
	if errors.Is(err, promotion.ErrAlreadyRunning) {
		c.JSON(http.StatusConflict, gin.H{"error": "Recalculation already running"})
		return
	}
	if err != nil {
		h.logger.Error("Recalculation run failed",
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Recalculation run failed"})
		return
	}

	c.JSON(http.StatusOK, report)
}

func (h *AdminHandler) RunVerify(c *gin.Context) {
	report, err := h.monitor.VerifyBatch(c.Request.Context())
	if errors.Is(err, linkrot.ErrAlreadyRunning) {
		c.JSON(http.StatusConflict, gin.H{"error": "Verification already running"})
		return
	}
	if err != nil {
		h.logger.Error("Verification run failed",
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Verification run failed"})
		return
	}

	c.JSON(http.StatusOK, report)
}

// ImportSeeds accepts a multipart upload of the seed spreadsheet.
func (h *AdminHandler) ImportSeeds(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing file upload", "details": err.Error()})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to open upload", "details": err.Error()})
		return
	}
	defer file.Close()

	result, err := h.importer.Import(c.Request.Context(), file)
	if err != nil {
		h.logger.Error("Seed import failed",
			logger.String("filename", fileHeader.Filename),
			logger.Error(err),
		)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Seed import failed", "details": err.Error()})
		return
	}

	status := http.StatusOK
	if len(result.Errors) > 0 && result.Seeded == 0 && result.Updated == 0 {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, result)
}

// ListDomains returns the known-domain role overrides.
func (h *AdminHandler) ListDomains(c *gin.Context) {
	domains, err := h.domains.List(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list known domains",
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list known domains"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"domains": domains,
		"count":   len(domains),
	})
}

type knownDomainRequest struct {
	Domain string `json:"domain" binding:"required"`
	Role   string `json:"role" binding:"required"`
	Notes  string `json:"notes"`
}

// UpsertDomain records or replaces a known-domain role override. Newly staged
// sources on the domain classify into the role from then on.
func (h *AdminHandler) UpsertDomain(c *gin.Context) {
	var req knownDomainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	role := models.Role(strings.ToLower(req.Role))
	if !role.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role"})
		return
	}

	kd := &models.KnownDomain{
		Domain: strings.ToLower(strings.TrimSpace(req.Domain)),
		Role:   role,
		Notes:  req.Notes,
	}
	if kd.Domain == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid domain"})
		return
	}

	if err := h.domains.Upsert(c.Request.Context(), kd); err != nil {
		h.logger.Error("Failed to upsert known domain",
			logger.String("domain", kd.Domain),
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upsert known domain"})
		return
	}

	h.logger.Info("Known domain recorded",
		logger.String("domain", kd.Domain),
		logger.String("role", string(kd.Role)),
	)

	c.JSON(http.StatusOK, kd)
}
