// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package live

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/danielhkuo/classpoll/hub"
	"github.com/danielhkuo/classpoll/models"
	"github.com/danielhkuo/classpoll/polls"
	"github.com/danielhkuo/classpoll/presence"
	"github.com/danielhkuo/classpoll/timer"
)

const kickedOutMessage = "You have been removed from this session by the teacher"

// Engine ties the poll lifecycle to presence, timers and the broadcast hub.
// Every state change made through it is announced to connected clients.
type Engine struct {
	polls    *polls.Service
	presence *presence.Registry
	hub      *hub.Hub
	timers   *timer.Coordinator
}

// NewEngine builds an engine with its own hub and timer coordinator.
// interval is the countdown cadence; zero means one second.
func NewEngine(svc *polls.Service, reg *presence.Registry, interval time.Duration) *Engine {
	h := hub.New(hub.DefaultBuffer)
	return &Engine{
		polls:    svc,
		presence: reg,
		hub:      h,
		timers:   timer.New(svc, h, interval),
	}
}

// Hub exposes the broadcast layer to connection handlers
func (e *Engine) Hub() *hub.Hub {
	return e.hub
}

// Presence exposes the registry to connection handlers
func (e *Engine) Presence() *presence.Registry {
	return e.presence
}

// Timers exposes the countdown coordinator
func (e *Engine) Timers() *timer.Coordinator {
	return e.timers
}

// CreatePoll stores a pending poll and announces it
func (e *Engine) CreatePoll(ctx context.Context, req models.CreatePollRequest) (*models.Poll, error) {
	duration := req.Duration
	if duration == 0 {
		duration = models.DefaultDuration
	}

	poll, err := e.polls.CreatePoll(ctx, req.Question, req.Options, duration)
	if err != nil {
		return nil, err
	}

	e.hub.Publish(models.Event{Type: models.EventPollCreated, Payload: models.PollCreatedPayload{Poll: poll}})
	return poll, nil
}

// StartPoll activates the poll, (re)installs its timer and announces it
func (e *Engine) StartPoll(ctx context.Context, pollID string) (*models.PollView, error) {
	poll, err := e.polls.StartPoll(ctx, pollID)
	if err != nil {
		return nil, err
	}

	e.timers.Start(poll.ID)

	view := e.polls.View(poll)
	e.hub.Publish(models.Event{
		Type:    models.EventPollStarted,
		Payload: models.PollStartedPayload{Poll: poll, RemainingTime: view.RemainingTime},
	})
	return view, nil
}

// SubmitVote records a vote for a student identified by id and broadcasts
// the updated results. Kicked students are refused.
func (e *Engine) SubmitVote(ctx context.Context, pollID, studentID, studentName string, optionIndex int) (*models.Vote, error) {
	kicked, err := e.presence.IsKickedOut(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if kicked {
		return nil, models.InvalidStateError("You have been removed from this session")
	}

	vote, err := e.polls.SubmitVote(ctx, pollID, studentID, strings.TrimSpace(studentName), optionIndex)
	if err != nil {
		return nil, err
	}

	results, err := e.polls.GetResults(ctx, pollID)
	if err != nil {
		slog.Error("failed to load results after vote", "poll_id", pollID, "error", err)
		return vote, nil
	}
	e.hub.Publish(models.Event{Type: models.EventPollResultsUpdated, Payload: results})

	e.checkAllAnswered(ctx, pollID)
	return vote, nil
}

// SubmitVoteAs votes on behalf of the student registered on connID and
// confirms to that connection only.
func (e *Engine) SubmitVoteAs(ctx context.Context, connID, pollID string, optionIndex int) (*models.Vote, error) {
	p, ok := e.presence.Lookup(connID)
	if !ok {
		return nil, models.ValidationError("Connection is not registered")
	}

	vote, err := e.SubmitVote(ctx, pollID, p.UserID, p.Name, optionIndex)
	if err != nil {
		return nil, err
	}

	e.hub.SendTo(connID, models.Event{
		Type:    models.EventVoteSubmitted,
		Payload: models.VoteSubmittedPayload{Success: true, Vote: vote},
	})
	return vote, nil
}

// checkAllAnswered tells teachers once every rostered student has voted
func (e *Engine) checkAllAnswered(ctx context.Context, pollID string) {
	students, err := e.presence.ListActiveStudents(ctx)
	if err != nil {
		slog.Error("failed to list students", "error", err)
		return
	}
	if len(students) == 0 {
		return
	}

	count, err := e.polls.CountVotes(ctx, pollID)
	if err != nil {
		slog.Error("failed to count votes", "poll_id", pollID, "error", err)
		return
	}
	if count < len(students) {
		return
	}

	e.hub.SendToMany(e.presence.ConnectionsByRole(models.RoleTeacher), models.Event{
		Type:    models.EventAllStudentsAnswered,
		Payload: models.AllAnsweredPayload{PollID: pollID},
	})
}

// CompletePoll ends the poll early and announces fresh final results
func (e *Engine) CompletePoll(ctx context.Context, pollID string) (*models.Poll, error) {
	e.timers.Stop(pollID)

	poll, changed, err := e.polls.CompletePoll(ctx, pollID)
	if err != nil {
		return nil, err
	}
	if changed {
		e.publishCompleted(ctx, pollID)
	}
	return poll, nil
}

func (e *Engine) publishCompleted(ctx context.Context, pollID string) {
	results, err := e.polls.GetResults(ctx, pollID)
	if err != nil {
		slog.Error("failed to load final results", "poll_id", pollID, "error", err)
		return
	}
	e.hub.Publish(models.Event{Type: models.EventPollCompleted, Payload: results})
}

// Register binds connID to a user and sends the initial state for its role.
// connID may be empty for registrations that arrive without a live connection;
// otherwise it must still be subscribed to the hub. Kicked users only get kicked_out.
func (e *Engine) Register(ctx context.Context, connID, userID, name string, role models.Role) (*models.User, error) {
	if connID != "" && !e.hub.Subscribed(connID) {
		return nil, models.InvalidStateError("Connection is closed")
	}

	user, err := e.presence.Register(ctx, connID, userID, name, role)
	if err != nil {
		return nil, err
	}

	if connID != "" {
		if user.KickedOut {
			e.hub.SendTo(connID, models.Event{Type: models.EventKickedOut, Payload: models.KickedOutPayload{Message: kickedOutMessage}})
			return user, nil
		}

		e.hub.SendTo(connID, models.Event{Type: models.EventRegistered, Payload: models.RegisteredPayload{Success: true}})

		if err := e.sendState(ctx, connID, user.UserID, user.Role); err != nil {
			slog.Error("failed to send initial state", "conn_id", connID, "error", err)
		}
	}

	if user.Role == models.RoleStudent && !user.KickedOut {
		e.broadcastRoster(ctx)
	}
	return user, nil
}

// Disconnect forgets connID and refreshes the roster when a student left
func (e *Engine) Disconnect(ctx context.Context, connID string) {
	p, ok, err := e.presence.Unregister(ctx, connID)
	if err != nil {
		slog.Error("failed to clear connection", "conn_id", connID, "error", err)
	}
	if ok && p.Role == models.RoleStudent {
		e.broadcastRoster(ctx)
	}
}

// KickStudent removes a student for good and notifies their connection if reachable
func (e *Engine) KickStudent(ctx context.Context, studentID string) (*models.User, error) {
	user, err := e.presence.KickOut(ctx, studentID)
	if err != nil {
		return nil, err
	}

	if connID, ok := e.presence.ConnectionFor(ctx, studentID); ok {
		e.hub.SendTo(connID, models.Event{Type: models.EventKickedOut, Payload: models.KickedOutPayload{Message: kickedOutMessage}})
	} else {
		slog.Info("kicked student not connected", "user_id", studentID)
	}

	e.broadcastRoster(ctx)
	return user, nil
}

// PollState answers what a (re)connecting user should see. Read-only.
func (e *Engine) PollState(ctx context.Context, userID string) (*models.PollState, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, models.ValidationError("userId is required")
	}

	kicked, err := e.presence.IsKickedOut(ctx, userID)
	if err != nil {
		return nil, err
	}
	if kicked {
		return &models.PollState{KickedOut: true}, nil
	}

	active, err := e.polls.GetActivePoll(ctx)
	if err != nil {
		return nil, err
	}
	if active == nil {
		return &models.PollState{}, nil
	}

	state := &models.PollState{Poll: e.polls.View(active)}
	vote, err := e.polls.FindVote(ctx, active.ID, userID)
	if err != nil {
		return nil, err
	}
	if vote != nil {
		option := vote.OptionIndex
		state.HasVoted = true
		state.VotedOption = &option
	}
	return state, nil
}

// SendState pushes the current state to a registered connection
func (e *Engine) SendState(ctx context.Context, connID string) error {
	p, ok := e.presence.Lookup(connID)
	if !ok {
		return models.ValidationError("Connection is not registered")
	}
	return e.sendState(ctx, connID, p.UserID, p.Role)
}

func (e *Engine) sendState(ctx context.Context, connID, userID string, role models.Role) error {
	if role == models.RoleTeacher {
		active, err := e.ActivePoll(ctx)
		if err != nil {
			return err
		}
		if active != nil {
			e.hub.SendTo(connID, models.Event{
				Type:    models.EventPollActive,
				Payload: models.PollStartedPayload{Poll: &active.Poll, RemainingTime: active.RemainingTime},
			})
		}

		students, err := e.presence.ListActiveStudents(ctx)
		if err != nil {
			return err
		}
		e.hub.SendTo(connID, models.Event{Type: models.EventStudentsList, Payload: students})
		return nil
	}

	state, err := e.PollState(ctx, userID)
	if err != nil {
		return err
	}
	if state.KickedOut {
		e.hub.SendTo(connID, models.Event{Type: models.EventKickedOut, Payload: models.KickedOutPayload{Message: kickedOutMessage}})
		return nil
	}
	e.hub.SendTo(connID, models.Event{Type: models.EventPollState, Payload: state})
	return nil
}

// SendResults pushes a poll's results to one connection
func (e *Engine) SendResults(ctx context.Context, connID, pollID string) error {
	results, err := e.polls.GetResults(ctx, pollID)
	if err != nil {
		return err
	}
	e.hub.SendTo(connID, models.Event{Type: models.EventPollResults, Payload: results})
	return nil
}

// SendError pushes an error event to one connection
func (e *Engine) SendError(connID, message string) {
	e.hub.SendTo(connID, models.Event{Type: models.EventError, Payload: models.ErrorPayload{Message: message}})
}

func (e *Engine) broadcastRoster(ctx context.Context) {
	students, err := e.presence.ListActiveStudents(ctx)
	if err != nil {
		slog.Error("failed to list students", "error", err)
		return
	}
	e.hub.Publish(models.Event{Type: models.EventStudentsList, Payload: students})
}

// ActivePoll returns the active poll with its remaining time, or nil
func (e *Engine) ActivePoll(ctx context.Context) (*models.PollView, error) {
	poll, err := e.polls.GetActivePoll(ctx)
	if err != nil {
		return nil, err
	}
	return e.polls.View(poll), nil
}

func (e *Engine) Results(ctx context.Context, pollID string) (*models.PollResults, error) {
	return e.polls.GetResults(ctx, pollID)
}

func (e *Engine) History(ctx context.Context, limit int) ([]models.HistoryEntry, error) {
	return e.polls.GetHistory(ctx, limit)
}

func (e *Engine) Students(ctx context.Context) ([]models.Student, error) {
	return e.presence.ListActiveStudents(ctx)
}

// Resume picks up a poll left active by a previous process: its timer is
// restarted, or the poll is completed if it expired while nothing was running.
func (e *Engine) Resume(ctx context.Context) error {
	poll, err := e.polls.GetActivePoll(ctx)
	if err != nil {
		return err
	}
	if poll == nil {
		return nil
	}

	if e.polls.RemainingTime(poll) > 0 {
		slog.Info("resuming active poll", "poll_id", poll.ID, "remaining", e.polls.RemainingTime(poll))
		e.timers.Start(poll.ID)
		return nil
	}

	slog.Info("completing poll that expired while offline", "poll_id", poll.ID)
	_, err = e.CompletePoll(ctx, poll.ID)
	return err
}

// Shutdown stops all timers, closes every subscription and forgets connections
func (e *Engine) Shutdown() {
	e.timers.Shutdown()
	e.hub.Close()
	e.presence.Clear()
}
