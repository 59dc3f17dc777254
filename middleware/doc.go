// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

	mux.HandleFunc("GET /health", middleware.WithLogging(handler))

Logs method, path, status, client IP and duration_ms after each request.
The wrapped writer supports hijacking so the websocket endpoint can be
logged too.

# CORS Middleware

	handler := middleware.CORS(cfg.FrontendURL)(mux)

An empty origin reflects the caller's Origin header.

# JSON Helpers

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")

WriteError maps typed errors to status codes:

	models.ErrValidation, ErrConflict, ErrInvalidState -> 400
	models.ErrNotFound                                 -> 404
	anything else                                      -> 500 (message hidden, error logged)
*/
package middleware
