// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"bytes"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/danielhkuo/classpoll/live"
	"github.com/danielhkuo/classpoll/middleware"
	"github.com/danielhkuo/classpoll/models"
	"github.com/danielhkuo/classpoll/report"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ResultsHandler struct {
	engine *live.Engine
}

func NewResultsHandler(engine *live.Engine) *ResultsHandler {
	return &ResultsHandler{engine: engine}
}

// GetResults handles GET /api/polls/{pollId}/results
func (h *ResultsHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("pollId")
	if pollID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "pollId is required")
		return
	}

	results, err := h.engine.Results(r.Context(), pollID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, results)
}

// GetHistory handles GET /api/history?limit=
func (h *ResultsHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}

	history, err := h.engine.History(r.Context(), limit)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.HistoryResponse{History: history})
}

// ExportHistory handles GET /api/history/export?limit=
// Responds with an xlsx workbook of completed polls and their results.
func (h *ResultsHandler) ExportHistory(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}

	history, err := h.engine.History(r.Context(), limit)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := report.WriteHistory(&buf, history, time.Now()); err != nil {
		slog.Error("failed to build history workbook", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to export history")
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="poll-history.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("failed to send history workbook", "error", err)
	}
}

// parseLimit reads ?limit=, defaulting to the history limit when absent
func parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return models.DefaultHistoryLimit, true
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "limit must be a positive integer")
		return 0, false
	}
	return limit, true
}
