// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package polls

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/danielhkuo/classpoll/models"
	"github.com/danielhkuo/classpoll/store"
)

// Service owns poll state transitions, vote admission and result aggregation
type Service struct {
	store *store.Store
	now   func() time.Time
}

func NewService(st *store.Store) *Service {
	return &Service{store: st, now: time.Now}
}

// SetClock replaces the time source. Used by tests.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Now returns the service clock in UTC
func (s *Service) Now() time.Time {
	return s.now().UTC()
}

// CreatePoll validates input and stores a new pending poll
func (s *Service) CreatePoll(ctx context.Context, question string, options []string, duration int) (*models.Poll, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, models.ValidationError("Question is required")
	}
	if utf8.RuneCountInString(question) > models.MaxQuestionLength {
		return nil, models.ValidationError("Question must be at most %d characters", models.MaxQuestionLength)
	}
	if len(options) < models.MinOptions {
		return nil, models.ValidationError("Question and at least %d options are required", models.MinOptions)
	}
	if len(options) > models.MaxOptions {
		return nil, models.ValidationError("Maximum %d options allowed", models.MaxOptions)
	}
	if duration < models.MinDuration || duration > models.MaxDuration {
		return nil, models.ValidationError("Duration must be between %d and %d seconds", models.MinDuration, models.MaxDuration)
	}

	pollOptions := make([]models.Option, 0, len(options))
	for i, text := range options {
		text = strings.TrimSpace(text)
		if text == "" {
			return nil, models.ValidationError("Option %d is empty", i+1)
		}
		if utf8.RuneCountInString(text) > models.MaxOptionLength {
			return nil, models.ValidationError("Option %d must be at most %d characters", i+1, models.MaxOptionLength)
		}
		pollOptions = append(pollOptions, models.Option{Text: text})
	}

	active, err := s.store.GetActivePoll(ctx)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return nil, models.ConflictError("An active poll already exists. Please wait for it to complete.")
	}

	poll := &models.Poll{
		ID:        uuid.NewString(),
		Question:  question,
		Options:   pollOptions,
		Duration:  duration,
		Status:    models.StatusPending,
		CreatedAt: s.Now(),
	}
	if err := s.store.InsertPoll(ctx, poll); err != nil {
		return nil, err
	}

	slog.Info("poll created", "poll_id", poll.ID, "options", len(poll.Options), "duration", duration)
	return poll, nil
}

// StartPoll activates a pending poll. Starting the active poll again returns it unchanged.
func (s *Service) StartPoll(ctx context.Context, pollID string) (*models.Poll, error) {
	active, err := s.store.GetActivePoll(ctx)
	if err != nil {
		return nil, err
	}
	// Checked before the lookup: while another poll runs, an unknown id is a conflict, not a 404
	if active != nil && active.ID != pollID {
		return nil, models.ConflictError("An active poll already exists. Please wait for it to complete.")
	}

	poll, err := s.store.GetPoll(ctx, pollID)
	if err != nil {
		return nil, err
	}

	switch poll.Status {
	case models.StatusActive:
		return poll, nil
	case models.StatusCompleted:
		return nil, models.InvalidStateError("Cannot start a completed poll")
	}

	start := s.Now()
	end := start.Add(time.Duration(poll.Duration) * time.Second)
	activated, err := s.store.ActivatePoll(ctx, pollID, start, end)
	if err != nil {
		return nil, err
	}

	// Lost a race: report whatever state the poll ended up in
	if !activated {
		current, err := s.store.GetPoll(ctx, pollID)
		if err != nil {
			return nil, err
		}
		switch current.Status {
		case models.StatusActive:
			return current, nil
		case models.StatusCompleted:
			return nil, models.InvalidStateError("Cannot start a completed poll")
		}
		return nil, models.ConflictError("Poll could not be started")
	}

	poll.Status = models.StatusActive
	poll.StartTime = &start
	poll.EndTime = &end

	slog.Info("poll started", "poll_id", pollID, "ends_at", end)
	return poll, nil
}

// SubmitVote admits one vote per student while the poll is active and time remains
func (s *Service) SubmitVote(ctx context.Context, pollID, studentID, studentName string, optionIndex int) (*models.Vote, error) {
	if studentID == "" {
		return nil, models.ValidationError("studentId is required")
	}

	poll, err := s.store.GetPoll(ctx, pollID)
	if err != nil {
		return nil, err
	}
	if poll.Status != models.StatusActive {
		return nil, models.InvalidStateError("Poll is not active")
	}
	if s.RemainingTime(poll) <= 0 {
		return nil, models.InvalidStateError("Poll time has expired")
	}
	if optionIndex < 0 || optionIndex >= len(poll.Options) {
		return nil, models.ValidationError("Invalid option index")
	}

	vote := &models.Vote{
		ID:          uuid.NewString(),
		PollID:      pollID,
		StudentID:   studentID,
		StudentName: studentName,
		OptionIndex: optionIndex,
		SubmittedAt: s.Now(),
	}
	if err := s.store.RecordVote(ctx, vote); err != nil {
		return nil, err
	}

	slog.Info("vote submitted", "poll_id", pollID, "student_id", studentID, "option", optionIndex)
	return vote, nil
}

// RemainingTime computes whole seconds left on the poll at the service clock
func (s *Service) RemainingTime(poll *models.Poll) int {
	return RemainingTime(poll, s.Now())
}

// RemainingTime returns 0 for a nil, inactive or unscheduled poll,
// otherwise the whole seconds until its end time, never negative.
func RemainingTime(poll *models.Poll, now time.Time) int {
	if poll == nil || poll.Status != models.StatusActive || poll.EndTime == nil {
		return 0
	}
	left := poll.EndTime.Sub(now)
	if left <= 0 {
		return 0
	}
	return int(left / time.Second)
}

// GetResults aggregates the stored counters into per-option percentages
func (s *Service) GetResults(ctx context.Context, pollID string) (*models.PollResults, error) {
	poll, err := s.store.GetPoll(ctx, pollID)
	if err != nil {
		return nil, err
	}
	return ResultsFor(poll), nil
}

// ResultsFor computes results from a loaded poll. Percentages are rounded
// per option and need not sum to 100.
func ResultsFor(poll *models.Poll) *models.PollResults {
	results := make([]models.OptionResult, len(poll.Options))
	for i, opt := range poll.Options {
		percentage := 0
		if poll.TotalVotes > 0 {
			percentage = int(math.Round(float64(opt.Votes) / float64(poll.TotalVotes) * 100))
		}
		results[i] = models.OptionResult{
			Index:      i,
			Text:       opt.Text,
			Votes:      opt.Votes,
			Percentage: percentage,
		}
	}

	return &models.PollResults{
		PollID:     poll.ID,
		Results:    results,
		TotalVotes: poll.TotalVotes,
	}
}

// CompletePoll closes the poll. changed is false when it was already completed.
func (s *Service) CompletePoll(ctx context.Context, pollID string) (*models.Poll, bool, error) {
	changed, err := s.store.CompletePoll(ctx, pollID, s.Now())
	if err != nil {
		return nil, false, err
	}

	poll, err := s.store.GetPoll(ctx, pollID)
	if err != nil {
		return nil, false, err
	}

	if changed {
		slog.Info("poll completed", "poll_id", pollID, "total_votes", poll.TotalVotes)
	}
	return poll, changed, nil
}

// GetActivePoll returns the active poll or nil
func (s *Service) GetActivePoll(ctx context.Context) (*models.Poll, error) {
	return s.store.GetActivePoll(ctx)
}

func (s *Service) GetPoll(ctx context.Context, pollID string) (*models.Poll, error) {
	return s.store.GetPoll(ctx, pollID)
}

// View annotates a poll with its remaining time
func (s *Service) View(poll *models.Poll) *models.PollView {
	if poll == nil {
		return nil
	}
	return &models.PollView{Poll: *poll, RemainingTime: s.RemainingTime(poll)}
}

// GetHistory lists completed polls, newest first, each with its results
func (s *Service) GetHistory(ctx context.Context, limit int) ([]models.HistoryEntry, error) {
	if limit <= 0 {
		limit = models.DefaultHistoryLimit
	}

	polls, err := s.store.ListCompletedPolls(ctx, limit)
	if err != nil {
		return nil, err
	}

	history := make([]models.HistoryEntry, 0, len(polls))
	for _, p := range polls {
		history = append(history, models.HistoryEntry{
			Poll:    *p,
			Results: ResultsFor(p).Results,
		})
	}
	return history, nil
}

// FindVote returns the student's vote on a poll, or nil
func (s *Service) FindVote(ctx context.Context, pollID, studentID string) (*models.Vote, error) {
	return s.store.GetVote(ctx, pollID, studentID)
}

func (s *Service) CountVotes(ctx context.Context, pollID string) (int, error) {
	return s.store.CountVotes(ctx, pollID)
}
