package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/rowanfield/kindling/internal/model"
	"github.com/rowanfield/kindling/internal/realtime"
	"github.com/rowanfield/kindling/internal/store"
)

type TaskHandler struct {
	tasks       *store.TaskStore
	members     *store.FamilyMemberStore
	completions *store.CompletionStore
	streaks     *store.StreakStore
	hub         *realtime.Hub
	logger      *slog.Logger
	now         func() time.Time
}

func NewTaskHandler(ts *store.TaskStore, ms *store.FamilyMemberStore, cs *store.CompletionStore, ss *store.StreakStore, hub *realtime.Hub, logger *slog.Logger, now func() time.Time) *TaskHandler {
	return &TaskHandler{
		tasks:       ts,
		members:     ms,
		completions: cs,
		streaks:     ss,
		hub:         hub,
		logger:      logger,
		now:         now,
	}
}

// memberExists maps a missing member to a 404 naming the id. Returns false
// after writing a response when the handler should bail.
func (h *TaskHandler) memberExists(w http.ResponseWriter, id int64) bool {
	member, err := h.members.GetByID(id)
	if err != nil {
		h.logger.Error("get family member", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to check family member")
		return false
	}
	if member == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("family member %d not found", id))
		return false
	}
	return true
}

type createTaskRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	TaskType    model.TaskType  `json:"task_type"`
	Frequency   model.Frequency `json:"frequency"`
	Points      int             `json:"points"`
	AssignedTo  int64           `json:"assigned_to"`
	CreatedBy   int64           `json:"created_by"`
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	switch {
	case req.Title == "":
		writeError(w, http.StatusBadRequest, "title is required")
		return
	case !req.TaskType.Valid():
		writeError(w, http.StatusBadRequest, "task_type must be one of habit, chore, daily, weekly")
		return
	case !req.Frequency.Valid():
		writeError(w, http.StatusBadRequest, "frequency must be one of daily, weekly, monthly")
		return
	case req.Points <= 0:
		writeError(w, http.StatusBadRequest, "points must be a positive integer")
		return
	}

	if !h.memberExists(w, req.AssignedTo) {
		return
	}
	if req.CreatedBy != req.AssignedTo && !h.memberExists(w, req.CreatedBy) {
		return
	}

	task, err := h.tasks.Create(req.Title, req.Description, req.TaskType, req.Frequency, req.Points, req.AssignedTo, req.CreatedBy)
	if err != nil {
		h.logger.Error("create task", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create task")
		return
	}

	h.hub.Broadcast(realtime.NewEvent("task", "created", task.ID))
	writeJSON(w, http.StatusCreated, task)
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.tasks.List()
	if err != nil {
		h.logger.Error("list tasks", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list tasks")
		return
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	task, err := h.tasks.GetByID(id)
	if err != nil {
		h.logger.Error("get task", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get task")
		return
	}
	if task == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("task %d not found", id))
		return
	}
	writeJSON(w, http.StatusOK, task)
}

type updateTaskRequest struct {
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	TaskType    *model.TaskType  `json:"task_type"`
	Frequency   *model.Frequency `json:"frequency"`
	Points      *int             `json:"points"`
	AssignedTo  *int64           `json:"assigned_to"`
	IsActive    *bool            `json:"is_active"`
}

// Update applies a partial edit. Reassignment guarantees the new assignee a
// streak row (seeded inside the store transaction).
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.tasks.GetByID(id)
	if err != nil {
		h.logger.Error("get task", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get task")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("task %d not found", id))
		return
	}

	var req updateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	title := existing.Title
	if req.Title != nil {
		title = strings.TrimSpace(*req.Title)
		if title == "" {
			writeError(w, http.StatusBadRequest, "title is required")
			return
		}
	}
	description := existing.Description
	if req.Description != nil {
		description = *req.Description
	}
	taskType := existing.TaskType
	if req.TaskType != nil {
		taskType = *req.TaskType
		if !taskType.Valid() {
			writeError(w, http.StatusBadRequest, "task_type must be one of habit, chore, daily, weekly")
			return
		}
	}
	frequency := existing.Frequency
	if req.Frequency != nil {
		frequency = *req.Frequency
		if !frequency.Valid() {
			writeError(w, http.StatusBadRequest, "frequency must be one of daily, weekly, monthly")
			return
		}
	}
	points := existing.Points
	if req.Points != nil {
		points = *req.Points
		if points <= 0 {
			writeError(w, http.StatusBadRequest, "points must be a positive integer")
			return
		}
	}
	assignedTo := existing.AssignedTo
	if req.AssignedTo != nil {
		assignedTo = *req.AssignedTo
		if !h.memberExists(w, assignedTo) {
			return
		}
	}
	isActive := existing.IsActive
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	task, err := h.tasks.Update(id, title, description, taskType, frequency, points, assignedTo, isActive)
	if err != nil {
		h.logger.Error("update task", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update task")
		return
	}

	h.hub.Broadcast(realtime.NewEvent("task", "updated", id))
	writeJSON(w, http.StatusOK, task)
}

type completeTaskRequest struct {
	FamilyMemberID int64  `json:"family_member_id"`
	ProofImageURL  string `json:"proof_image_url"`
	Notes          string `json:"notes"`
}

// Complete records a completion for the task and advances the member's
// streak off the same timestamp. Any member may log a completion for any
// task, not just the assignee.
func (h *TaskHandler) Complete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	task, err := h.tasks.GetByID(id)
	if err != nil {
		h.logger.Error("get task", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get task")
		return
	}
	if task == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("task %d not found", id))
		return
	}

	var req completeTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if !h.memberExists(w, req.FamilyMemberID) {
		return
	}

	completedAt := h.now()

	completion, err := h.completions.Create(task.ID, req.FamilyMemberID, completedAt, req.ProofImageURL, req.Notes)
	if err != nil {
		h.logger.Error("create completion", "task_id", task.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to record completion")
		return
	}

	if _, err := h.streaks.RecordCompletion(req.FamilyMemberID, task.ID, completedAt); err != nil {
		h.logger.Error("record streak", "task_id", task.ID, "family_member_id", req.FamilyMemberID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update streak")
		return
	}

	h.hub.Broadcast(realtime.NewEvent("task", "completed", task.ID))
	writeJSON(w, http.StatusCreated, completion)
}
