package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/gocatalog/internal/logger"
	"github.com/jonesrussell/gocatalog/internal/ranking"
)

const (
	defaultRankingLimit   = 20
	defaultDormantDays    = 90
	defaultEmergingMin    = 3
	defaultEmergingWindow = 30
	defaultDiscoveryScore = 20.0
)

type RankingHandler struct {
	svc    *ranking.Service
	logger logger.Logger
}

func NewRankingHandler(svc *ranking.Service, log logger.Logger) *RankingHandler {
	return &RankingHandler{
		svc:    svc,
		logger: log,
	}
}

func (h *RankingHandler) Top(c *gin.Context) {
	limit, ok := intQuery(c, "limit", defaultRankingLimit)
	if !ok {
		return
	}

	sources, err := h.svc.TopSources(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to rank sources",
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to rank sources"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sources": sources,
		"count":   len(sources),
	})
}

func (h *RankingHandler) ByTheme(c *gin.Context) {
	theme := c.Param("theme")
	limit, ok := intQuery(c, "limit", defaultRankingLimit)
	if !ok {
		return
	}

	sources, err := h.svc.SourcesForTheme(c.Request.Context(), theme, limit)
	if err != nil {
		h.logger.Error("Failed to rank sources by theme",
			logger.String("theme", theme),
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to rank sources by theme"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"theme":   theme,
		"sources": sources,
		"count":   len(sources),
	})
}

func (h *RankingHandler) Dormant(c *gin.Context) {
	minDays, ok := intQuery(c, "min_days", defaultDormantDays)
	if !ok {
		return
	}

	sources, err := h.svc.DormantSources(c.Request.Context(), minDays)
	if err != nil {
		h.logger.Error("Failed to list dormant sources",
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list dormant sources"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sources": sources,
		"count":   len(sources),
	})
}

func (h *RankingHandler) Emerging(c *gin.Context) {
	minRecent, ok := intQuery(c, "min_recent", defaultEmergingMin)
	if !ok {
		return
	}
	windowDays, ok := intQuery(c, "window_days", defaultEmergingWindow)
	if !ok {
		return
	}

	sources, err := h.svc.EmergingSources(c.Request.Context(), minRecent, windowDays)
	if err != nil {
		h.logger.Error("Failed to list emerging sources",
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list emerging sources"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sources": sources,
		"count":   len(sources),
	})
}

// Discovery surfaces staged sources close to the promotion threshold.
func (h *RankingHandler) Discovery(c *gin.Context) {
	limit, ok := intQuery(c, "limit", defaultRankingLimit)
	if !ok {
		return
	}

	minScore := defaultDiscoveryScore
	if raw := c.Query("min_score"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid min_score"})
			return
		}
		minScore = parsed
	}

	sources, err := h.svc.DiscoverySources(c.Request.Context(), minScore, limit)
	if err != nil {
		h.logger.Error("Failed to list discovery sources",
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list discovery sources"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sources": sources,
		"count":   len(sources),
	})
}

// intQuery parses a positive integer query parameter, writing a 400 response
// on bad input.
func intQuery(c *gin.Context, name string, fallback int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, true
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return parsed, true
}
