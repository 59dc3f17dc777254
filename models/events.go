// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "encoding/json"

// Event types pushed to clients
const (
	EventRegistered          = "registered"
	EventPollState           = "poll_state"
	EventPollActive          = "poll_active"
	EventPollCreated         = "poll_created"
	EventPollStarted         = "poll_started"
	EventPollResultsUpdated  = "poll_results_updated"
	EventPollResults         = "poll_results"
	EventTimerUpdate         = "timer_update"
	EventPollCompleted       = "poll_completed"
	EventVoteSubmitted       = "vote_submitted"
	EventStudentsList        = "students_list"
	EventKickedOut           = "kicked_out"
	EventKickSuccess         = "kick_success"
	EventAllStudentsAnswered = "all_students_answered"
	EventError               = "error"
)

// Command types sent by clients over the websocket
const (
	CommandRegister       = "register"
	CommandCreatePoll     = "create_poll"
	CommandStartPoll      = "start_poll"
	CommandCompletePoll   = "complete_poll"
	CommandSubmitVote     = "submit_vote"
	CommandKickStudent    = "kick_student"
	CommandGetPollResults = "get_poll_results"
	CommandGetState       = "get_state"
)

// Event is one message delivered to a connected client
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// Command is one message received from a connected client
type Command struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Event payloads

type RegisteredPayload struct {
	Success bool `json:"success"`
}

type PollCreatedPayload struct {
	Poll *Poll `json:"poll"`
}

type PollStartedPayload struct {
	Poll          *Poll `json:"poll"`
	RemainingTime int   `json:"remainingTime"`
}

type TimerPayload struct {
	PollID        string `json:"pollId"`
	RemainingTime int    `json:"remainingTime"`
}

type VoteSubmittedPayload struct {
	Success bool  `json:"success"`
	Vote    *Vote `json:"vote"`
}

type KickSuccessPayload struct {
	StudentID string `json:"studentId"`
	Message   string `json:"message"`
}

type KickedOutPayload struct {
	Message string `json:"message"`
}

type AllAnsweredPayload struct {
	PollID string `json:"pollId"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// Command payloads

type PollIDData struct {
	PollID string `json:"pollId"`
}

type SubmitVoteData struct {
	PollID      string `json:"pollId"`
	OptionIndex *int   `json:"optionIndex"`
}

type KickStudentData struct {
	StudentID string `json:"studentId"`
}
