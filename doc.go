// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the classpoll API server.

classpoll runs live classroom polls: a teacher creates a question, starts a
timed window, students vote once each, and everyone watches results update
over a websocket until the timer runs out or the teacher ends the poll.

# Starting the Server

The server reads CLI flags, then an optional .env file, then the environment:

	DATABASE_URL=classpoll.db go run .

Or with flags:

	go run . -p 5001 -t postgres -d "postgres://..."

# Configuration

Required settings:

  - DATABASE_URL (-d): sqlite file path or PostgreSQL connection string

Optional settings:

  - PORT (-p): Server port (default: 5001)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - FRONTEND_URL (-origin): allowed origin for CORS and websocket upgrades
  - -env: path to a .env file (default: .env, ignored if missing)

# Architecture

  - handlers: REST handlers and the websocket gateway
  - router: Route definitions using Go 1.22+ routing
  - live: Engine tying the poll lifecycle to broadcasts and timers
  - polls: Poll lifecycle and vote validation
  - presence: Connected users, roles and kicks
  - hub: In-process event fan-out
  - timer: Per-poll countdown goroutines
  - store: SQL persistence
  - report: xlsx history export
  - middleware: CORS, logging, JSON helpers
  - models: Request, response, event and domain types
  - auth: Connection ids and role checks
  - db: Driver selection and schema creation
  - cliparse: Configuration parsing

On startup a poll left active by a previous process gets its countdown back,
or is completed if its window closed while the server was down.
*/
package main
