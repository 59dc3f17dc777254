// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/classpoll/live"
	"github.com/danielhkuo/classpoll/middleware"
	"github.com/danielhkuo/classpoll/models"
)

type PollHandler struct {
	engine *live.Engine
}

func NewPollHandler(engine *live.Engine) *PollHandler {
	return &PollHandler{engine: engine}
}

// CreatePoll handles POST /api/polls
func (h *PollHandler) CreatePoll(w http.ResponseWriter, r *http.Request) {
	var req models.CreatePollRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	poll, err := h.engine.CreatePoll(r.Context(), req)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, poll)
}

// GetActivePoll handles GET /api/polls/active
func (h *PollHandler) GetActivePoll(w http.ResponseWriter, r *http.Request) {
	view, err := h.engine.ActivePoll(r.Context())
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ActivePollResponse{Poll: view})
}

// GetPollState handles GET /api/polls/state?userId=
// Lets a reconnecting client rebuild its view without any side effects.
func (h *PollHandler) GetPollState(w http.ResponseWriter, r *http.Request) {
	state, err := h.engine.PollState(r.Context(), r.URL.Query().Get("userId"))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, state)
}

// StartPoll handles POST /api/polls/{pollId}/start
func (h *PollHandler) StartPoll(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("pollId")
	if pollID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "pollId is required")
		return
	}

	view, err := h.engine.StartPoll(r.Context(), pollID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, view)
}

// CompletePoll handles POST /api/polls/{pollId}/complete
func (h *PollHandler) CompletePoll(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("pollId")
	if pollID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "pollId is required")
		return
	}

	poll, err := h.engine.CompletePoll(r.Context(), pollID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, poll)
}
