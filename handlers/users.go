// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/classpoll/live"
	"github.com/danielhkuo/classpoll/middleware"
	"github.com/danielhkuo/classpoll/models"
)

type UserHandler struct {
	engine *live.Engine
}

func NewUserHandler(engine *live.Engine) *UserHandler {
	return &UserHandler{engine: engine}
}

// Register handles POST /api/users
// Idempotent upsert by userId; never clears a kick.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterUserRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	user, err := h.engine.Register(r.Context(), "", req.UserID, req.Name, req.Role)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, user)
}

// ListStudents handles GET /api/users/students
func (h *UserHandler) ListStudents(w http.ResponseWriter, r *http.Request) {
	students, err := h.engine.Students(r.Context())
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.StudentsResponse{Students: students})
}

// KickStudent handles POST /api/users/students/{studentId}/kick
func (h *UserHandler) KickStudent(w http.ResponseWriter, r *http.Request) {
	studentID := r.PathValue("studentId")
	if studentID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "studentId is required")
		return
	}

	user, err := h.engine.KickStudent(r.Context(), studentID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.KickResponse{Success: true, User: user})
}
