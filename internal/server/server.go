package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/rowanfield/kindling/internal/handler"
	"github.com/rowanfield/kindling/internal/middleware"
	"github.com/rowanfield/kindling/internal/realtime"
	"github.com/rowanfield/kindling/internal/store"
)

type Server struct {
	db          *sql.DB
	hub         *realtime.Hub
	memberH     *handler.FamilyMemberHandler
	taskH       *handler.TaskHandler
	completionH *handler.CompletionHandler
	streakH     *handler.StreakHandler
	statsH      *handler.StatsHandler
	rateLimiter *middleware.RateLimiter
	logger      *slog.Logger
}

func New(db *sql.DB, logger *slog.Logger) *Server {
	hub := realtime.NewHub(logger.With("component", "realtime"))

	memberStore := store.NewFamilyMemberStore(db)
	taskStore := store.NewTaskStore(db)
	completionStore := store.NewCompletionStore(db)
	streakStore := store.NewStreakStore(db)
	statsStore := store.NewStatsStore(db)

	return &Server{
		db:          db,
		hub:         hub,
		memberH:     handler.NewFamilyMemberHandler(memberStore, hub, logger.With("component", "family_member")),
		taskH:       handler.NewTaskHandler(taskStore, memberStore, completionStore, streakStore, hub, logger.With("component", "task"), time.Now),
		completionH: handler.NewCompletionHandler(completionStore, memberStore, hub, logger.With("component", "completion"), time.Now),
		streakH:     handler.NewStreakHandler(streakStore, logger.With("component", "streak")),
		statsH:      handler.NewStatsHandler(statsStore, logger.With("component", "stats")),
		rateLimiter: middleware.NewRateLimiter(),
		logger:      logger,
	}
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)

	// Family member API routes
	mux.HandleFunc("POST /api/family-members", s.memberH.Create)
	mux.HandleFunc("GET /api/family-members", s.memberH.List)
	mux.HandleFunc("GET /api/family-members/{id}", s.memberH.Get)
	mux.HandleFunc("PUT /api/family-members/{id}", s.memberH.Update)
	mux.HandleFunc("GET /api/family-members/{id}/stats", s.statsH.Get)

	// PIN routes
	mux.HandleFunc("POST /api/family-members/{id}/pin", s.memberH.SetPIN)
	mux.HandleFunc("DELETE /api/family-members/{id}/pin", s.memberH.ClearPIN)
	mux.HandleFunc("POST /api/family-members/{id}/pin/verify", s.memberH.VerifyPIN)

	// Task API routes
	mux.HandleFunc("POST /api/tasks", s.taskH.Create)
	mux.HandleFunc("GET /api/tasks", s.taskH.List)
	mux.HandleFunc("GET /api/tasks/{id}", s.taskH.Get)
	mux.HandleFunc("PUT /api/tasks/{id}", s.taskH.Update)
	mux.Handle("POST /api/tasks/{id}/complete", s.rateLimited(s.taskH.Complete))

	// Completion API routes
	mux.HandleFunc("GET /api/completions", s.completionH.List)
	mux.Handle("POST /api/completions/{id}/verify", s.rateLimited(s.completionH.Verify))

	// Streak API routes
	mux.HandleFunc("GET /api/streaks", s.streakH.List)

	// WebSocket
	mux.HandleFunc("GET /ws", realtime.Handler(s.hub))

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// rateLimited caps bursty mutation endpoints per client IP. Generous enough
// for a whole household behind one address.
func (s *Server) rateLimited(h http.HandlerFunc) http.Handler {
	return middleware.RateLimit(s.rateLimiter, middleware.RealIP, 60, time.Minute)(h)
}
