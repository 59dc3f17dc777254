// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/classpoll/live"
	"github.com/danielhkuo/classpoll/middleware"
	"github.com/danielhkuo/classpoll/models"
)

type VotingHandler struct {
	engine *live.Engine
}

func NewVotingHandler(engine *live.Engine) *VotingHandler {
	return &VotingHandler{engine: engine}
}

// SubmitVote handles POST /api/polls/vote
func (h *VotingHandler) SubmitVote(w http.ResponseWriter, r *http.Request) {
	var req models.SubmitVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.PollID == "" || req.StudentID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "pollId and studentId are required")
		return
	}
	if req.OptionIndex == nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "optionIndex is required")
		return
	}

	vote, err := h.engine.SubmitVote(r.Context(), req.PollID, req.StudentID, req.StudentName, *req.OptionIndex)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, models.SubmitVoteResponse{
		Success: true,
		Vote:    vote,
	})
}
