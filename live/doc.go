// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package live is the realtime poll engine.

Engine wraps the poll service, the presence registry, the broadcast hub and
the timer coordinator. HTTP handlers and the websocket gateway both call the
engine, so a vote cast over REST and one cast over a socket produce the same
events.

# Events

	CreatePoll    -> poll_created (all)
	StartPoll     -> poll_started (all), timer_update every second
	SubmitVote    -> poll_results_updated (all), vote_submitted (voter),
	                 all_students_answered (teachers, once everyone voted)
	CompletePoll  -> poll_completed (all)
	Register      -> registered, then poll_active + students_list (teacher)
	                 or poll_state (student); students_list (all) on roster change;
	                 kicked_out only, for a kicked user
	KickStudent   -> kicked_out (student, if connected), students_list (all)

poll_active and poll_started share the {poll, remainingTime} payload.
Register refuses a connection that has already left the hub.

# Recovery

PollState answers what a reconnecting client should show: kicked users get
only {kickedOut: true}; otherwise the active poll with its remaining time and
the user's existing vote, if any. It never writes.
*/
package live
