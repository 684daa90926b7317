package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/rowanfield/kindling/internal/database"
	"github.com/rowanfield/kindling/internal/model"
	"github.com/rowanfield/kindling/internal/realtime"
	"github.com/rowanfield/kindling/internal/store"
)

type completionTestEnv struct {
	handler     *CompletionHandler
	members     *store.FamilyMemberStore
	tasks       *store.TaskStore
	completions *store.CompletionStore
	clock       *testClock
}

func setupCompletionHandler(t *testing.T) completionTestEnv {
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
	clock := &testClock{t: time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)}

	ms := store.NewFamilyMemberStore(db)
	cs := store.NewCompletionStore(db)
	hub := realtime.NewHub(logger)

	return completionTestEnv{
		handler:     NewCompletionHandler(cs, ms, hub, logger, clock.Now),
		members:     ms,
		tasks:       store.NewTaskStore(db),
		completions: cs,
		clock:       clock,
	}
}

func TestCompletionHandlerVerify(t *testing.T) {
	env := setupCompletionHandler(t)
	kid, _ := env.members.Create("Casey", "casey@example.com", "")
	parent, _ := env.members.Create("Pat", "pat@example.com", "")
	task, _ := env.tasks.Create("Homework", "", model.TaskTypeDaily, model.FrequencyDaily, 5, kid.ID, parent.ID)
	comp, _ := env.completions.Create(task.ID, kid.ID, env.clock.Now().Add(-time.Hour), "", "")

	body := fmt.Sprintf(`{"verified_by":%d,"status":"verified"}`, parent.ID)
	r := jsonRequest("POST", "/api/completions/1/verify", body)
	r.SetPathValue("id", strconv.FormatInt(comp.ID, 10))
	w := httptest.NewRecorder()
	env.handler.Verify(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var got model.TaskCompletion
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Status != model.StatusVerified {
		t.Errorf("status = %q, want verified", got.Status)
	}
	if got.VerifiedBy == nil || *got.VerifiedBy != parent.ID {
		t.Errorf("verified_by = %v, want %d", got.VerifiedBy, parent.ID)
	}
	if got.VerifiedAt == nil || !got.VerifiedAt.Equal(env.clock.Now()) {
		t.Errorf("verified_at = %v, want clock time %v", got.VerifiedAt, env.clock.Now())
	}
}

func TestCompletionHandlerVerifyErrors(t *testing.T) {
	env := setupCompletionHandler(t)
	kid, _ := env.members.Create("Casey", "casey@example.com", "")
	task, _ := env.tasks.Create("Homework", "", model.TaskTypeDaily, model.FrequencyDaily, 5, kid.ID, kid.ID)
	comp, _ := env.completions.Create(task.ID, kid.ID, env.clock.Now(), "", "")

	// Unknown completion
	r := jsonRequest("POST", "/api/completions/9999/verify", fmt.Sprintf(`{"verified_by":%d,"status":"verified"}`, kid.ID))
	r.SetPathValue("id", "9999")
	w := httptest.NewRecorder()
	env.handler.Verify(w, r)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 for unknown completion", w.Code)
	}

	// Unknown verifier
	r = jsonRequest("POST", "/api/completions/1/verify", `{"verified_by":9999,"status":"verified"}`)
	r.SetPathValue("id", strconv.FormatInt(comp.ID, 10))
	w = httptest.NewRecorder()
	env.handler.Verify(w, r)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 for unknown verifier", w.Code)
	}

	// Invalid status
	r = jsonRequest("POST", "/api/completions/1/verify", fmt.Sprintf(`{"verified_by":%d,"status":"approved"}`, kid.ID))
	r.SetPathValue("id", strconv.FormatInt(comp.ID, 10))
	w = httptest.NewRecorder()
	env.handler.Verify(w, r)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for invalid status", w.Code)
	}
}

func TestCompletionHandlerList(t *testing.T) {
	env := setupCompletionHandler(t)
	kid, _ := env.members.Create("Casey", "casey@example.com", "")
	task, _ := env.tasks.Create("Homework", "", model.TaskTypeDaily, model.FrequencyDaily, 5, kid.ID, kid.ID)

	day := func(d int) time.Time {
		return time.Date(2025, 6, d, 15, 0, 0, 0, time.UTC)
	}
	env.completions.Create(task.ID, kid.ID, day(1), "", "")
	env.completions.Create(task.ID, kid.ID, day(2), "", "")
	env.completions.Create(task.ID, kid.ID, day(5), "", "")

	list := func(target string) []model.TaskCompletion {
		t.Helper()
		w := httptest.NewRecorder()
		env.handler.List(w, httptest.NewRequest("GET", target, nil))
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", w.Code, w.Body.String())
		}
		var got []model.TaskCompletion
		if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		return got
	}

	if got := list("/api/completions"); len(got) != 3 {
		t.Errorf("unfiltered: got %d, want 3", len(got))
	}

	// Bare dates are inclusive on both ends
	if got := list("/api/completions?date_from=2025-06-01&date_to=2025-06-02"); len(got) != 2 {
		t.Errorf("date range: got %d, want 2", len(got))
	}

	if got := list(fmt.Sprintf("/api/completions?family_member_id=%d", kid.ID)); len(got) != 3 {
		t.Errorf("by member: got %d, want 3", len(got))
	}

	// Bad params are rejected
	w := httptest.NewRecorder()
	env.handler.List(w, httptest.NewRequest("GET", "/api/completions?date_from=tomorrow", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for bad date", w.Code)
	}
}

func TestParseTimeParam(t *testing.T) {
	got, err := parseTimeParam("2025-06-01T10:30:00Z", false)
	if err != nil {
		t.Fatalf("parse RFC3339: %v", err)
	}
	if !got.Equal(time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC)) {
		t.Errorf("got %v", got)
	}

	got, err = parseTimeParam("2025-06-01", true)
	if err != nil {
		t.Fatalf("parse bare date: %v", err)
	}
	want := time.Date(2025, 6, 1, 23, 59, 59, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("end of day = %v, want %v", got, want)
	}

	if _, err := parseTimeParam("junk", false); err == nil {
		t.Error("expected error for unparseable value")
	}
}
