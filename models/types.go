// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "time"

// PollStatus is the lifecycle state of a poll
type PollStatus string

// Poll status constants
const (
	StatusPending   PollStatus = "pending"
	StatusActive    PollStatus = "active"
	StatusCompleted PollStatus = "completed"
)

// Role distinguishes the poll owner from participants
type Role string

// Role constants
const (
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	return r == RoleTeacher || r == RoleStudent
}

// Poll limits
const (
	MaxQuestionLength   = 100
	MaxOptionLength     = 50
	MinOptions          = 2
	MaxOptions          = 10
	MinDuration         = 10
	MaxDuration         = 300
	DefaultDuration     = 60
	DefaultHistoryLimit = 50
)

// Request types

type CreatePollRequest struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Duration int      `json:"duration"`
}

type SubmitVoteRequest struct {
	PollID      string `json:"pollId"`
	StudentID   string `json:"studentId"`
	StudentName string `json:"studentName"`
	OptionIndex *int   `json:"optionIndex"`
}

type RegisterUserRequest struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Role   Role   `json:"role"`
}

// Response types

type ActivePollResponse struct {
	Poll *PollView `json:"poll"`
}

type SubmitVoteResponse struct {
	Success bool  `json:"success"`
	Vote    *Vote `json:"vote"`
}

type StudentsResponse struct {
	Students []Student `json:"students"`
}

type KickResponse struct {
	Success bool  `json:"success"`
	User    *User `json:"user"`
}

type HistoryResponse struct {
	History []HistoryEntry `json:"history"`
}

// Domain types

type Option struct {
	Text  string `json:"text"`
	Votes int    `json:"votes"`
}

type Poll struct {
	ID          string     `json:"id"`
	Question    string     `json:"question"`
	Options     []Option   `json:"options"`
	Duration    int        `json:"duration"`
	StartTime   *time.Time `json:"startTime,omitempty"`
	EndTime     *time.Time `json:"endTime,omitempty"`
	Status      PollStatus `json:"status"`
	TotalVotes  int        `json:"totalVotes"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// PollView is a poll annotated with its remaining time, as pushed to clients
type PollView struct {
	Poll
	RemainingTime int `json:"remainingTime"`
}

type Vote struct {
	ID          string    `json:"id"`
	PollID      string    `json:"pollId"`
	StudentID   string    `json:"studentId"`
	StudentName string    `json:"studentName"`
	OptionIndex int       `json:"optionIndex"`
	SubmittedAt time.Time `json:"submittedAt"`
}

type User struct {
	UserID        string    `json:"userId"`
	Name          string    `json:"name"`
	Role          Role      `json:"role"`
	ConnectionRef *string   `json:"-"` // Never expose in JSON
	Active        bool      `json:"isActive"`
	KickedOut     bool      `json:"kickedOut"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Student is the roster entry shown to the teacher
type Student struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Role   Role   `json:"role"`
}

// Presence maps one live connection to the identity that registered on it
type Presence struct {
	ConnID string
	UserID string
	Name   string
	Role   Role
}

type OptionResult struct {
	Index      int    `json:"optionIndex"`
	Text       string `json:"text"`
	Votes      int    `json:"votes"`
	Percentage int    `json:"percentage"`
}

type PollResults struct {
	PollID     string         `json:"pollId"`
	Results    []OptionResult `json:"results"`
	TotalVotes int            `json:"totalVotes"`
}

// HistoryEntry is a completed poll with its final results
type HistoryEntry struct {
	Poll
	Results []OptionResult `json:"results"`
}

// PollState is what a (re)connecting client needs to rebuild its view
type PollState struct {
	Poll        *PollView `json:"poll"`
	HasVoted    bool      `json:"hasVoted"`
	VotedOption *int      `json:"votedOption"`
	KickedOut   bool      `json:"kickedOut"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
