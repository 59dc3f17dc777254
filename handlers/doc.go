// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers and the websocket gateway for
the classpoll API.

# Handler Types

Each handler is a struct over the live engine:

  - PollHandler: create, start, complete, active poll and recovery state
  - VotingHandler: vote submission
  - ResultsHandler: results, history and xlsx export
  - UserHandler: registration, roster and kicks
  - SocketHandler: websocket commands and event delivery

	pollHandler := handlers.NewPollHandler(engine)

REST and websocket calls go through the same engine, so both produce the
same broadcasts.

# Poll Lifecycle

	POST /api/polls                   -> CreatePoll (pending)
	POST /api/polls/{pollId}/start    -> StartPoll (active, countdown begins)
	POST /api/polls/vote              -> SubmitVote (one per student)
	POST /api/polls/{pollId}/complete -> CompletePoll (idempotent)

A poll also completes on its own when the countdown reaches zero.

# Websocket Protocol

Clients send {type, data} commands and receive {type, payload} events.
The first command must be register; until then every other command gets
an error event "Please register first".

	create_poll, start_poll, complete_poll, kick_student  teacher only
	submit_vote                                          student only
	get_poll_results, get_state                          any registered role

Commands from the wrong role get "Unauthorized". The server pings every
15 seconds and drops connections that stop answering.

# Errors

Domain errors keep their message; anything else becomes
"Internal server error" and is logged. See middleware.WriteError.
*/
package handlers
