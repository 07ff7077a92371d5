package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pickcoordinator/internal/reaper"
)

// AdminHandlers exposes operator-facing, admin-only endpoints that sit
// alongside the pick-request surface but aren't part of the coordinator
// contract itself.
type AdminHandlers struct {
	reaper *reaper.Reaper
}

// NewAdmin builds AdminHandlers.
func NewAdmin(r *reaper.Reaper) *AdminHandlers {
	return &AdminHandlers{reaper: r}
}

// CleanupStats handles GET /api/v1/admin/cleanup-stats
// @Summary Report the reaper's current backlog
// @Description Read-only snapshot of completed-request count, aged completions pending purge, and stale in-progress claims pending release. Admin only.
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} reaper.Stats
// @Router /api/v1/admin/cleanup-stats [get]
func (a *AdminHandlers) CleanupStats(c *gin.Context) {
	stats, err := a.reaper.GetStats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}
