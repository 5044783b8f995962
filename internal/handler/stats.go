package handler

import (
	"context"
	"net/http"

	"github.com/BiswasSwagatam/Muzik/internal/model"
)

type StatsProvider interface {
	Stats(ctx context.Context) (*model.Stats, error)
}

type StatsHandler struct {
	stats StatsProvider
	rs    Responder
}

func NewStatsHandler(stats StatsProvider, rs Responder) *StatsHandler {
	return &StatsHandler{stats: stats, rs: rs}
}

// HTTP: GET /api/stats
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.Stats(r.Context())
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}
	h.rs.JSON(w, http.StatusOK, stats)
}
