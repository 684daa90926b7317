package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/rowanfield/kindling/internal/model"
	"github.com/rowanfield/kindling/internal/store"
)

type StreakHandler struct {
	streaks *store.StreakStore
	logger  *slog.Logger
}

func NewStreakHandler(ss *store.StreakStore, logger *slog.Logger) *StreakHandler {
	return &StreakHandler{streaks: ss, logger: logger}
}

// List returns streak rows, optionally narrowed by family_member_id and
// task_id query params.
func (h *StreakHandler) List(w http.ResponseWriter, r *http.Request) {
	var f store.StreakFilter

	q := r.URL.Query()
	if v := q.Get("family_member_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid family_member_id")
			return
		}
		f.FamilyMemberID = &id
	}
	if v := q.Get("task_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid task_id")
			return
		}
		f.TaskID = &id
	}

	streaks, err := h.streaks.List(f)
	if err != nil {
		h.logger.Error("list streaks", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list streaks")
		return
	}
	if streaks == nil {
		streaks = []model.Streak{}
	}
	writeJSON(w, http.StatusOK, streaks)
}
