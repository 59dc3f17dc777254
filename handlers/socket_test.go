// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/danielhkuo/classpoll/live"
	"github.com/danielhkuo/classpoll/models"
)

const socketWait = 2 * time.Second

// wireEvent is an event as a client receives it
type wireEvent struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func setupSocketServer(t *testing.T) (*live.Engine, *httptest.Server) {
	t.Helper()
	e, _ := setupEngine(t)
	server := httptest.NewServer(http.HandlerFunc(NewSocketHandler(e, "").Serve))
	t.Cleanup(server.Close)
	return e, server
}

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, cmdType string, data interface{}) {
	t.Helper()
	msg := map[string]interface{}{"type": cmdType}
	if data != nil {
		msg["data"] = data
	}
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("Failed to send %s: %v", cmdType, err)
	}
}

// expect reads events until one of eventType arrives and decodes its payload into v
func expect(t *testing.T, conn *websocket.Conn, eventType string, v interface{}) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(socketWait))
	for {
		var ev wireEvent
		if err := conn.ReadJSON(&ev); err != nil {
			t.Fatalf("Waiting for %s: %v", eventType, err)
		}
		if ev.Type != eventType {
			continue
		}
		if v != nil {
			if err := json.Unmarshal(ev.Payload, v); err != nil {
				t.Fatalf("Failed to decode %s payload: %v", eventType, err)
			}
		}
		return
	}
}

func expectError(t *testing.T, conn *websocket.Conn, message string) {
	t.Helper()
	var payload models.ErrorPayload
	expect(t, conn, models.EventError, &payload)
	if payload.Message != message {
		t.Errorf("Expected error '%s', got '%s'", message, payload.Message)
	}
}

func register(t *testing.T, conn *websocket.Conn, userID, name string, role models.Role) {
	t.Helper()
	send(t, conn, models.CommandRegister, models.RegisterUserRequest{UserID: userID, Name: name, Role: role})
	var payload models.RegisteredPayload
	expect(t, conn, models.EventRegistered, &payload)
	if !payload.Success {
		t.Fatalf("Registration of %s was not successful", userID)
	}
}

func TestSocketRequiresRegistration(t *testing.T) {
	_, server := setupSocketServer(t)
	conn := dial(t, server)

	send(t, conn, models.CommandCreatePoll, models.CreatePollRequest{Question: "Q?", Options: []string{"A", "B"}})
	expectError(t, conn, "Please register first")

	send(t, conn, models.CommandGetState, nil)
	expectError(t, conn, "Please register first")
}

func TestSocketRejectsMalformedMessages(t *testing.T) {
	_, server := setupSocketServer(t)
	conn := dial(t, server)

	if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	expectError(t, conn, "Invalid message format")

	send(t, conn, "dance", nil)
	expectError(t, conn, "Unknown command: dance")

	// The connection survives bad input
	register(t, conn, "s1", "Ann", models.RoleStudent)
}

func TestSocketRoleChecks(t *testing.T) {
	_, server := setupSocketServer(t)
	teacher := dial(t, server)
	student := dial(t, server)
	register(t, teacher, "t1", "Ms. Lee", models.RoleTeacher)
	register(t, student, "s1", "Ann", models.RoleStudent)

	testCases := []struct {
		name    string
		conn    *websocket.Conn
		cmdType string
		data    interface{}
	}{
		{"student creates poll", student, models.CommandCreatePoll, models.CreatePollRequest{Question: "Q?", Options: []string{"A", "B"}}},
		{"student starts poll", student, models.CommandStartPoll, models.PollIDData{PollID: "p1"}},
		{"student completes poll", student, models.CommandCompletePoll, models.PollIDData{PollID: "p1"}},
		{"student kicks", student, models.CommandKickStudent, models.KickStudentData{StudentID: "s1"}},
		{"teacher votes", teacher, models.CommandSubmitVote, models.SubmitVoteData{PollID: "p1", OptionIndex: intPtr(0)}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			send(t, tc.conn, tc.cmdType, tc.data)
			expectError(t, tc.conn, "Unauthorized")
		})
	}
}

func TestSocketVotingFlow(t *testing.T) {
	_, server := setupSocketServer(t)
	teacher := dial(t, server)
	student := dial(t, server)

	register(t, teacher, "t1", "Ms. Lee", models.RoleTeacher)
	register(t, student, "s1", "Ann", models.RoleStudent)
	var roster []models.Student
	expect(t, teacher, models.EventStudentsList, &roster)
	for len(roster) == 0 {
		expect(t, teacher, models.EventStudentsList, &roster)
	}
	if roster[0].UserID != "s1" {
		t.Errorf("Expected roster [s1], got %+v", roster)
	}

	send(t, teacher, models.CommandCreatePoll, models.CreatePollRequest{
		Question: "Which planet is known as the Red Planet?",
		Options:  []string{"Mars", "Venus"},
		Duration: 30,
	})
	var created models.PollCreatedPayload
	expect(t, student, models.EventPollCreated, &created)
	if created.Poll == nil || created.Poll.Status != models.StatusPending {
		t.Fatalf("Expected pending poll, got %+v", created.Poll)
	}
	pollID := created.Poll.ID

	send(t, teacher, models.CommandStartPoll, models.PollIDData{PollID: pollID})
	var started models.PollStartedPayload
	expect(t, student, models.EventPollStarted, &started)
	if started.Poll.ID != pollID || started.RemainingTime != 30 {
		t.Errorf("Unexpected poll_started payload: %+v", started)
	}

	send(t, student, models.CommandSubmitVote, models.SubmitVoteData{PollID: pollID, OptionIndex: intPtr(0)})
	var submitted models.VoteSubmittedPayload
	expect(t, student, models.EventVoteSubmitted, &submitted)
	if !submitted.Success || submitted.Vote.StudentID != "s1" || submitted.Vote.StudentName != "Ann" {
		t.Errorf("Unexpected vote_submitted payload: %+v", submitted)
	}

	var updated models.PollResults
	expect(t, teacher, models.EventPollResultsUpdated, &updated)
	if updated.TotalVotes != 1 || updated.Results[0].Percentage != 100 {
		t.Errorf("Unexpected live results: %+v", updated)
	}

	var answered models.AllAnsweredPayload
	expect(t, teacher, models.EventAllStudentsAnswered, &answered)
	if answered.PollID != pollID {
		t.Errorf("Expected all_students_answered for %s, got %s", pollID, answered.PollID)
	}

	send(t, student, models.CommandSubmitVote, models.SubmitVoteData{PollID: pollID, OptionIndex: intPtr(1)})
	expectError(t, student, "You have already voted for this poll")

	send(t, teacher, models.CommandCompletePoll, models.PollIDData{PollID: pollID})
	var final models.PollResults
	expect(t, student, models.EventPollCompleted, &final)
	if final.PollID != pollID || final.TotalVotes != 1 {
		t.Errorf("Unexpected poll_completed payload: %+v", final)
	}

	send(t, student, models.CommandGetPollResults, models.PollIDData{PollID: pollID})
	var fetched models.PollResults
	expect(t, student, models.EventPollResults, &fetched)
	if fetched.Results[0].Votes != 1 || fetched.Results[1].Votes != 0 {
		t.Errorf("Unexpected poll_results payload: %+v", fetched)
	}
}

func TestSocketStateRecovery(t *testing.T) {
	e, server := setupSocketServer(t)
	view := startPoll(t, e, "Tea or coffee?", "Tea", "Coffee")

	first := dial(t, server)
	register(t, first, "s1", "Ann", models.RoleStudent)
	send(t, first, models.CommandSubmitVote, models.SubmitVoteData{PollID: view.ID, OptionIndex: intPtr(1)})
	expect(t, first, models.EventVoteSubmitted, nil)
	first.Close()

	second := dial(t, server)
	register(t, second, "s1", "Ann", models.RoleStudent)
	var state models.PollState
	expect(t, second, models.EventPollState, &state)
	if state.Poll == nil || state.Poll.ID != view.ID {
		t.Fatalf("Expected active poll %s, got %+v", view.ID, state.Poll)
	}
	if !state.HasVoted || state.VotedOption == nil || *state.VotedOption != 1 {
		t.Errorf("Expected recovered vote for option 1, got %+v", state)
	}

	send(t, second, models.CommandGetState, nil)
	expect(t, second, models.EventPollState, &state)
	if !state.HasVoted {
		t.Error("Expected get_state to report the existing vote")
	}
}

func TestSocketKickStudent(t *testing.T) {
	_, server := setupSocketServer(t)
	teacher := dial(t, server)
	student := dial(t, server)
	register(t, teacher, "t1", "Ms. Lee", models.RoleTeacher)
	register(t, student, "s1", "Ann", models.RoleStudent)

	send(t, teacher, models.CommandKickStudent, models.KickStudentData{StudentID: "s1"})

	var kicked models.KickedOutPayload
	expect(t, student, models.EventKickedOut, &kicked)
	if kicked.Message == "" {
		t.Error("Expected a kicked_out message")
	}

	var success models.KickSuccessPayload
	expect(t, teacher, models.EventKickSuccess, &success)
	if success.StudentID != "s1" {
		t.Errorf("Expected kick_success for s1, got %+v", success)
	}

	// Coming back does not undo the kick
	again := dial(t, server)
	send(t, again, models.CommandRegister, models.RegisterUserRequest{UserID: "s1", Name: "Ann", Role: models.RoleStudent})
	again.SetReadDeadline(time.Now().Add(socketWait))
	var first wireEvent
	if err := again.ReadJSON(&first); err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if first.Type != models.EventKickedOut {
		t.Errorf("Expected kicked_out without registered, got %s", first.Type)
	}
}

func TestSocketDisconnectUpdatesRoster(t *testing.T) {
	e, server := setupSocketServer(t)
	teacher := dial(t, server)
	student := dial(t, server)
	register(t, teacher, "t1", "Ms. Lee", models.RoleTeacher)
	register(t, student, "s1", "Ann", models.RoleStudent)

	var roster []models.Student
	for len(roster) == 0 {
		expect(t, teacher, models.EventStudentsList, &roster)
	}

	student.Close()

	for len(roster) != 0 {
		expect(t, teacher, models.EventStudentsList, &roster)
	}

	deadline := time.Now().Add(socketWait)
	for e.Presence().Count() != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("Expected only the teacher connection, got %d", e.Presence().Count())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestSocketActivePollPayload(t *testing.T) {
	e, server := setupSocketServer(t)
	view := startPoll(t, e, "Which planet is known as the Red Planet?", "Mars", "Venus")

	teacher := dial(t, server)
	register(t, teacher, "t1", "Ms. Lee", models.RoleTeacher)

	var active models.PollStartedPayload
	expect(t, teacher, models.EventPollActive, &active)
	if active.Poll == nil || active.Poll.ID != view.ID || active.RemainingTime != 30 {
		t.Errorf("Expected {poll, remainingTime} for %s, got %+v", view.ID, active)
	}
}

func TestSocketServerShutdownDropsStudent(t *testing.T) {
	e, server := setupSocketServer(t)
	student := dial(t, server)
	register(t, student, "s1", "Ann", models.RoleStudent)

	// Closing the hub ends the write loop first; the reader is torn down after it
	e.Hub().Close()

	student.SetReadDeadline(time.Now().Add(socketWait))
	for {
		if _, _, err := student.ReadMessage(); err != nil {
			break
		}
	}

	deadline := time.Now().Add(socketWait)
	for e.Presence().Count() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("Expected the closed connection to be forgotten, %d still registered", e.Presence().Count())
		}
		time.Sleep(10 * time.Millisecond)
	}

	students, err := e.Students(context.Background())
	if err != nil {
		t.Fatalf("Students failed: %v", err)
	}
	if len(students) != 0 {
		t.Errorf("Expected empty roster, got %+v", students)
	}
}

func TestSocketRejectsForeignOrigin(t *testing.T) {
	e, _ := setupEngine(t)
	server := httptest.NewServer(http.HandlerFunc(NewSocketHandler(e, "https://class.example.edu").Serve))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	header := http.Header{"Origin": []string{"https://evil.example.com"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	if err == nil {
		t.Fatal("Expected dial to fail for a foreign origin")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Errorf("Expected 403, got %+v", resp)
	}
}
