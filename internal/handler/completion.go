package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/rowanfield/kindling/internal/model"
	"github.com/rowanfield/kindling/internal/realtime"
	"github.com/rowanfield/kindling/internal/store"
)

type CompletionHandler struct {
	completions *store.CompletionStore
	members     *store.FamilyMemberStore
	hub         *realtime.Hub
	logger      *slog.Logger
	now         func() time.Time
}

func NewCompletionHandler(cs *store.CompletionStore, ms *store.FamilyMemberStore, hub *realtime.Hub, logger *slog.Logger, now func() time.Time) *CompletionHandler {
	return &CompletionHandler{
		completions: cs,
		members:     ms,
		hub:         hub,
		logger:      logger,
		now:         now,
	}
}

// List returns completions filtered by the optional task_id,
// family_member_id, date_from, and date_to query params, newest first.
func (h *CompletionHandler) List(w http.ResponseWriter, r *http.Request) {
	var f store.CompletionFilter

	q := r.URL.Query()
	if v := q.Get("task_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid task_id")
			return
		}
		f.TaskID = &id
	}
	if v := q.Get("family_member_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid family_member_id")
			return
		}
		f.FamilyMemberID = &id
	}
	if v := q.Get("date_from"); v != "" {
		t, err := parseTimeParam(v, false)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date_from")
			return
		}
		f.DateFrom = &t
	}
	if v := q.Get("date_to"); v != "" {
		t, err := parseTimeParam(v, true)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date_to")
			return
		}
		f.DateTo = &t
	}

	completions, err := h.completions.List(f)
	if err != nil {
		h.logger.Error("list completions", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list completions")
		return
	}
	if completions == nil {
		completions = []model.TaskCompletion{}
	}
	writeJSON(w, http.StatusOK, completions)
}

type verifyRequest struct {
	VerifiedBy int64                  `json:"verified_by"`
	Status     model.CompletionStatus `json:"status"`
}

// Verify sets a completion's status with the verifier recorded. Any status
// may be set from any status, which also serves as the undo path for a
// mistaken approval.
func (h *CompletionHandler) Verify(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.completions.GetByID(id)
	if err != nil {
		h.logger.Error("get completion", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get completion")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("completion %d not found", id))
		return
	}

	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if !req.Status.Valid() {
		writeError(w, http.StatusBadRequest, "status must be one of pending, completed, verified")
		return
	}

	verifier, err := h.members.GetByID(req.VerifiedBy)
	if err != nil {
		h.logger.Error("get family member", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to check family member")
		return
	}
	if verifier == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("family member %d not found", req.VerifiedBy))
		return
	}

	completion, err := h.completions.SetStatus(id, req.Status, req.VerifiedBy, h.now())
	if err != nil {
		h.logger.Error("set completion status", "completion_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update completion")
		return
	}

	h.hub.Broadcast(realtime.NewEvent("completion", "verified", id))
	writeJSON(w, http.StatusOK, completion)
}

// parseTimeParam accepts RFC 3339 timestamps or bare dates. A bare date used
// as the end of a range extends to the last instant of that day so the range
// stays inclusive.
func parseTimeParam(v string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Second)
	}
	return t, nil
}
