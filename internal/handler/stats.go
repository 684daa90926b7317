package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/rowanfield/kindling/internal/store"
)

type StatsHandler struct {
	stats  *store.StatsStore
	logger *slog.Logger
}

func NewStatsHandler(ss *store.StatsStore, logger *slog.Logger) *StatsHandler {
	return &StatsHandler{stats: ss, logger: logger}
}

// Get recomputes the member's stats from the live tables on every request;
// nothing is cached.
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	stats, err := h.stats.MemberStats(id)
	if err != nil {
		h.logger.Error("member stats", "family_member_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to compute stats")
		return
	}
	if stats == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("family member %d not found", id))
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
