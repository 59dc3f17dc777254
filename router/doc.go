// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the classpoll API.

# Route Registration

NewRouter builds a ServeMux over the live engine and wraps it in CORS:

	handler := router.NewRouter(engine, cfg)

# Endpoints

Health:

	GET /health

Polls:

	POST /api/polls                     - Create pending poll
	GET  /api/polls/active              - Active poll with remainingTime, or null
	GET  /api/polls/state?userId=       - Recovery state for a user
	POST /api/polls/{pollId}/start      - Open the voting window
	POST /api/polls/{pollId}/complete   - Close the poll
	POST /api/polls/vote                - Submit a vote
	GET  /api/polls/{pollId}/results    - Per-option counts and percentages

History:

	GET /api/history?limit=        - Completed polls, newest first
	GET /api/history/export?limit= - Same, as an xlsx workbook

Users:

	POST /api/users                             - Register (upsert)
	GET  /api/users/students                    - Active roster
	POST /api/users/students/{studentId}/kick   - Remove a student

Realtime:

	GET /ws - Websocket command and event stream

Every API route is wrapped in middleware.WithLogging.
*/
package router
