// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/danielhkuo/classpoll/cliparse"
	"github.com/danielhkuo/classpoll/handlers"
	"github.com/danielhkuo/classpoll/live"
	"github.com/danielhkuo/classpoll/middleware"
)

func NewRouter(engine *live.Engine, cfg cliparse.Config) http.Handler {
	mux := http.NewServeMux()

	// Initialize handlers
	pollHandler := handlers.NewPollHandler(engine)
	votingHandler := handlers.NewVotingHandler(engine)
	resultsHandler := handlers.NewResultsHandler(engine)
	userHandler := handlers.NewUserHandler(engine)
	socketHandler := handlers.NewSocketHandler(engine, cfg.FrontendURL)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Poll lifecycle
	mux.HandleFunc("POST /api/polls", middleware.WithLogging(pollHandler.CreatePoll))
	mux.HandleFunc("GET /api/polls/active", middleware.WithLogging(pollHandler.GetActivePoll))
	mux.HandleFunc("GET /api/polls/state", middleware.WithLogging(pollHandler.GetPollState))
	mux.HandleFunc("POST /api/polls/{pollId}/start", middleware.WithLogging(pollHandler.StartPoll))
	mux.HandleFunc("POST /api/polls/{pollId}/complete", middleware.WithLogging(pollHandler.CompletePoll))

	// Voting
	mux.HandleFunc("POST /api/polls/vote", middleware.WithLogging(votingHandler.SubmitVote))

	// Results and history
	mux.HandleFunc("GET /api/polls/{pollId}/results", middleware.WithLogging(resultsHandler.GetResults))
	mux.HandleFunc("GET /api/history", middleware.WithLogging(resultsHandler.GetHistory))
	mux.HandleFunc("GET /api/history/export", middleware.WithLogging(resultsHandler.ExportHistory))

	// Users and roster
	mux.HandleFunc("POST /api/users", middleware.WithLogging(userHandler.Register))
	mux.HandleFunc("GET /api/users/students", middleware.WithLogging(userHandler.ListStudents))
	mux.HandleFunc("POST /api/users/students/{studentId}/kick", middleware.WithLogging(userHandler.KickStudent))

	// Realtime events
	mux.HandleFunc("GET /ws", middleware.WithLogging(socketHandler.Serve))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("classpoll API v1"))
	})

	return middleware.CORS(cfg.FrontendURL)(mux)
}
