package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"i2cgo/pkg/tracker"
)

// StatsHandler serves the per-provider call counters.
type StatsHandler struct {
	tracker *tracker.Tracker
}

func NewStatsHandler(t *tracker.Tracker) *StatsHandler {
	return &StatsHandler{tracker: t}
}

// StatsResponse is the body of GET /api/stats.
type StatsResponse struct {
	Providers map[string]tracker.ProviderStats `json:"providers"`
}

func (h *StatsHandler) Handle(c *gin.Context) {
	c.JSON(http.StatusOK, StatsResponse{Providers: h.tracker.Snapshot()})
}
