// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/danielhkuo/classpoll/db"
	"github.com/danielhkuo/classpoll/models"
)

// RecordVote persists a vote and increments the option and poll counters
// in one transaction. UNIQUE (poll_id, student_id) rejects a second vote from
// the same student; the poll counter only moves while the poll is active.
func (s *Store) RecordVote(ctx context.Context, v *models.Vote) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO vote (id, poll_id, student_id, student_name, option_index, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, v.ID, v.PollID, v.StudentID, v.StudentName, v.OptionIndex, v.SubmittedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return models.ConflictError("You have already voted for this poll")
		}
		return fmt.Errorf("failed to insert vote: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE poll_option
		SET votes = votes + 1
		WHERE poll_id = $1 AND position = $2
	`, v.PollID, v.OptionIndex)
	if err != nil {
		return fmt.Errorf("failed to increment option votes: %w", err)
	}
	if n, _ := res.RowsAffected(); n != 1 {
		return models.ValidationError("Invalid option index")
	}

	res, err = tx.ExecContext(ctx, `
		UPDATE poll
		SET total_votes = total_votes + 1
		WHERE id = $1 AND status = $2
	`, v.PollID, string(models.StatusActive))
	if err != nil {
		return fmt.Errorf("failed to increment total votes: %w", err)
	}
	if n, _ := res.RowsAffected(); n != 1 {
		return models.InvalidStateError("Poll is not active")
	}

	if err := tx.Commit(); err != nil {
		if db.IsUniqueViolation(err) {
			return models.ConflictError("You have already voted for this poll")
		}
		return fmt.Errorf("failed to commit vote: %w", err)
	}
	return nil
}

// GetVote returns the student's vote for a poll, or nil if there is none
func (s *Store) GetVote(ctx context.Context, pollID, studentID string) (*models.Vote, error) {
	var v models.Vote
	err := s.db.QueryRowContext(ctx, `
		SELECT id, poll_id, student_id, student_name, option_index, submitted_at
		FROM vote
		WHERE poll_id = $1 AND student_id = $2
	`, pollID, studentID).Scan(&v.ID, &v.PollID, &v.StudentID, &v.StudentName, &v.OptionIndex, &v.SubmittedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query vote: %w", err)
	}
	v.SubmittedAt = v.SubmittedAt.UTC()
	return &v, nil
}

// CountVotes counts persisted votes for a poll
func (s *Store) CountVotes(ctx context.Context, pollID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM vote WHERE poll_id = $1
	`, pollID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count votes: %w", err)
	}
	return count, nil
}
