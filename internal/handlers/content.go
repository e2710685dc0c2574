package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/pawquest-backend/internal/content"
	"github.com/yungbote/pawquest-backend/internal/memwatch"
	"github.com/yungbote/pawquest-backend/internal/pkg/logger"
)

type ContentHandler struct {
	log     *logger.Logger
	cache   *content.Cache
	monitor *memwatch.Monitor
}

func NewContentHandler(log *logger.Logger, cache *content.Cache, monitor *memwatch.Monitor) *ContentHandler {
	return &ContentHandler{
		log:     log.With("handler", "ContentHandler"),
		cache:   cache,
		monitor: monitor,
	}
}

// GET /api/content/categories
func (h *ContentHandler) ListCategories(c *gin.Context) {
	cats, err := h.cache.Categories(c.Request.Context())
	if err != nil {
		RespondError(c, http.StatusServiceUnavailable, "content_unavailable", err)
		return
	}
	type categoryInfo struct {
		Category string `json:"category"`
		Items    int    `json:"items"`
	}
	out := make([]categoryInfo, 0, len(cats))
	for _, cat := range cats {
		items, err := h.cache.GetCategory(c.Request.Context(), cat)
		if err != nil {
			RespondError(c, http.StatusServiceUnavailable, "content_unavailable", err)
			return
		}
		out = append(out, categoryInfo{Category: string(cat), Items: len(items)})
	}
	RespondOK(c, gin.H{"categories": out})
}

// GET /api/content/cache/stats
func (h *ContentHandler) CacheStats(c *gin.Context) {
	RespondOK(c, gin.H{
		"cache":    h.cache.Stats(),
		"pressure": h.monitor.Level(),
	})
}
