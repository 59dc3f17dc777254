// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, event, and domain types for the API.

# Domain Types

  - Poll: question, options with live counts, window and status
  - PollView: a Poll plus remainingTime in whole seconds
  - Vote: one student's choice for one poll
  - User: a registered teacher or student
  - PollResults, OptionResult: counts with rounded percentages
  - PollState: what a reconnecting client needs to rebuild its view

# Status Values

	StatusPending   = "pending"
	StatusActive    = "active"
	StatusCompleted = "completed"

A poll only moves forward: pending -> active -> completed, or straight from
pending to completed.

# Events and Commands

Event is the {type, payload} envelope pushed to clients; Command is the
{type, data} envelope they send. The Event* and Command* constants name
every message on the wire.

# Errors

ValidationError, ConflictError, InvalidStateError and NotFoundError carry a
client-readable message and match their kind with errors.Is:

	if errors.Is(err, models.ErrNotFound) { ... }
*/
package models
