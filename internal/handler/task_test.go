package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/rowanfield/kindling/internal/database"
	"github.com/rowanfield/kindling/internal/model"
	"github.com/rowanfield/kindling/internal/realtime"
	"github.com/rowanfield/kindling/internal/store"
)

// testClock is a settable time source for handlers.
type testClock struct {
	t time.Time
}

func (c *testClock) Now() time.Time { return c.t }

func (c *testClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type taskTestEnv struct {
	handler     *TaskHandler
	members     *store.FamilyMemberStore
	tasks       *store.TaskStore
	completions *store.CompletionStore
	streaks     *store.StreakStore
	clock       *testClock
}

func setupTaskHandler(t *testing.T) taskTestEnv {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := &testClock{t: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}

	ms := store.NewFamilyMemberStore(db)
	ts := store.NewTaskStore(db)
	cs := store.NewCompletionStore(db)
	ss := store.NewStreakStore(db)
	hub := realtime.NewHub(logger)

	return taskTestEnv{
		handler:     NewTaskHandler(ts, ms, cs, ss, hub, logger, clock.Now),
		members:     ms,
		tasks:       ts,
		completions: cs,
		streaks:     ss,
		clock:       clock,
	}
}

func jsonRequest(method, target, body string) *http.Request {
	r := httptest.NewRequest(method, target, strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	return r
}

func TestTaskHandlerCreate(t *testing.T) {
	env := setupTaskHandler(t)
	alice, _ := env.members.Create("Alice", "alice@example.com", "")

	body := fmt.Sprintf(`{"title":"Dishes","task_type":"chore","frequency":"daily","points":5,"assigned_to":%d,"created_by":%d}`, alice.ID, alice.ID)
	w := httptest.NewRecorder()
	env.handler.Create(w, jsonRequest("POST", "/api/tasks", body))

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", w.Code, w.Body.String())
	}

	var task model.Task
	if err := json.NewDecoder(w.Body).Decode(&task); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if task.Title != "Dishes" || task.Points != 5 {
		t.Errorf("task = %+v", task)
	}

	// Streak row seeded for the assignee
	st, _ := env.streaks.GetByPair(alice.ID, task.ID)
	if st == nil {
		t.Error("expected seeded streak row after create")
	}
}

func TestTaskHandlerCreateValidation(t *testing.T) {
	env := setupTaskHandler(t)
	alice, _ := env.members.Create("Alice", "alice@example.com", "")

	cases := []struct {
		name string
		body string
		code int
	}{
		{"missing title", fmt.Sprintf(`{"task_type":"chore","frequency":"daily","points":5,"assigned_to":%d,"created_by":%d}`, alice.ID, alice.ID), http.StatusBadRequest},
		{"bad task_type", fmt.Sprintf(`{"title":"x","task_type":"bogus","frequency":"daily","points":5,"assigned_to":%d,"created_by":%d}`, alice.ID, alice.ID), http.StatusBadRequest},
		{"zero points", fmt.Sprintf(`{"title":"x","task_type":"chore","frequency":"daily","points":0,"assigned_to":%d,"created_by":%d}`, alice.ID, alice.ID), http.StatusBadRequest},
		{"unknown assignee", `{"title":"x","task_type":"chore","frequency":"daily","points":5,"assigned_to":9999,"created_by":9999}`, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			env.handler.Create(w, jsonRequest("POST", "/api/tasks", tc.body))
			if w.Code != tc.code {
				t.Errorf("status = %d, want %d: %s", w.Code, tc.code, w.Body.String())
			}
		})
	}
}

func TestTaskHandlerComplete(t *testing.T) {
	env := setupTaskHandler(t)
	alice, _ := env.members.Create("Alice", "alice@example.com", "")
	task, _ := env.tasks.Create("Read", "", model.TaskTypeHabit, model.FrequencyDaily, 2, alice.ID, alice.ID)

	complete := func() *httptest.ResponseRecorder {
		body := fmt.Sprintf(`{"family_member_id":%d,"notes":"done"}`, alice.ID)
		r := jsonRequest("POST", "/api/tasks/"+strconv.FormatInt(task.ID, 10)+"/complete", body)
		r.SetPathValue("id", strconv.FormatInt(task.ID, 10))
		w := httptest.NewRecorder()
		env.handler.Complete(w, r)
		return w
	}

	w := complete()
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", w.Code, w.Body.String())
	}

	var comp model.TaskCompletion
	if err := json.NewDecoder(w.Body).Decode(&comp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if comp.Status != model.StatusCompleted {
		t.Errorf("status = %q, want completed", comp.Status)
	}
	if !comp.CompletedAt.Equal(env.clock.Now()) {
		t.Errorf("completed_at = %v, want clock time %v", comp.CompletedAt, env.clock.Now())
	}

	st, _ := env.streaks.GetByPair(alice.ID, task.ID)
	if st.CurrentStreak != 1 {
		t.Errorf("current = %d, want 1", st.CurrentStreak)
	}

	// Next calendar day extends the streak
	env.clock.Advance(24 * time.Hour)
	if w := complete(); w.Code != http.StatusCreated {
		t.Fatalf("second completion status = %d: %s", w.Code, w.Body.String())
	}
	st, _ = env.streaks.GetByPair(alice.ID, task.ID)
	if st.CurrentStreak != 2 {
		t.Errorf("current = %d, want 2 after consecutive day", st.CurrentStreak)
	}

	// A two-day gap resets
	env.clock.Advance(48 * time.Hour)
	if w := complete(); w.Code != http.StatusCreated {
		t.Fatalf("third completion status = %d: %s", w.Code, w.Body.String())
	}
	st, _ = env.streaks.GetByPair(alice.ID, task.ID)
	if st.CurrentStreak != 1 {
		t.Errorf("current = %d, want 1 after gap", st.CurrentStreak)
	}
	if st.LongestStreak != 2 {
		t.Errorf("longest = %d, want 2", st.LongestStreak)
	}
}

func TestTaskHandlerCompleteNotFound(t *testing.T) {
	env := setupTaskHandler(t)
	alice, _ := env.members.Create("Alice", "alice@example.com", "")

	// Unknown task
	r := jsonRequest("POST", "/api/tasks/9999/complete", fmt.Sprintf(`{"family_member_id":%d}`, alice.ID))
	r.SetPathValue("id", "9999")
	w := httptest.NewRecorder()
	env.handler.Complete(w, r)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 for unknown task", w.Code)
	}

	// Unknown member
	task, _ := env.tasks.Create("Read", "", model.TaskTypeHabit, model.FrequencyDaily, 2, alice.ID, alice.ID)
	r = jsonRequest("POST", "/api/tasks/1/complete", `{"family_member_id":9999}`)
	r.SetPathValue("id", strconv.FormatInt(task.ID, 10))
	w = httptest.NewRecorder()
	env.handler.Complete(w, r)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 for unknown member", w.Code)
	}
}

func TestTaskHandlerUpdatePartial(t *testing.T) {
	env := setupTaskHandler(t)
	alice, _ := env.members.Create("Alice", "alice@example.com", "")
	bob, _ := env.members.Create("Bob", "bob@example.com", "")
	task, _ := env.tasks.Create("Dishes", "evening", model.TaskTypeChore, model.FrequencyDaily, 5, alice.ID, alice.ID)

	// Only reassign; everything else keeps its value
	r := jsonRequest("PUT", "/api/tasks/1", fmt.Sprintf(`{"assigned_to":%d}`, bob.ID))
	r.SetPathValue("id", strconv.FormatInt(task.ID, 10))
	w := httptest.NewRecorder()
	env.handler.Update(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	var updated model.Task
	json.NewDecoder(w.Body).Decode(&updated)
	if updated.AssignedTo != bob.ID {
		t.Errorf("assigned_to = %d, want %d", updated.AssignedTo, bob.ID)
	}
	if updated.Title != "Dishes" || updated.Points != 5 {
		t.Errorf("unchanged fields lost: %+v", updated)
	}

	// Reassignment seeded Bob's streak row
	if st, _ := env.streaks.GetByPair(bob.ID, task.ID); st == nil {
		t.Error("expected streak row seeded for new assignee")
	}
}
