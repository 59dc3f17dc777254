// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/danielhkuo/classpoll/db"
	"github.com/danielhkuo/classpoll/models"
)

const pollColumns = `id, question, duration, status, start_time, end_time, total_votes, created_at, completed_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPoll(row rowScanner) (*models.Poll, error) {
	var p models.Poll
	var status string
	var start, end, completed sql.NullTime
	err := row.Scan(&p.ID, &p.Question, &p.Duration, &status, &start, &end,
		&p.TotalVotes, &p.CreatedAt, &completed)
	if err != nil {
		return nil, err
	}
	p.Status = models.PollStatus(status)
	p.StartTime = nullTimePtr(start)
	p.EndTime = nullTimePtr(end)
	p.CompletedAt = nullTimePtr(completed)
	p.CreatedAt = p.CreatedAt.UTC()
	return &p, nil
}

// InsertPoll stores a new poll and its options in one transaction
func (s *Store) InsertPoll(ctx context.Context, p *models.Poll) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO poll (id, question, duration, status, total_votes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, p.ID, p.Question, p.Duration, string(p.Status), p.TotalVotes, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert poll: %w", err)
	}

	for i, opt := range p.Options {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO poll_option (poll_id, position, text, votes)
			VALUES ($1, $2, $3, $4)
		`, p.ID, i, opt.Text, opt.Votes)
		if err != nil {
			return fmt.Errorf("failed to insert option %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit poll: %w", err)
	}
	return nil
}

// GetPoll loads a poll with its options
func (s *Store) GetPoll(ctx context.Context, id string) (*models.Poll, error) {
	p, err := scanPoll(s.db.QueryRowContext(ctx,
		`SELECT `+pollColumns+` FROM poll WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.NotFoundError("Poll not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query poll: %w", err)
	}

	if err := s.loadOptions(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// GetActivePoll returns the active poll, or nil when none is active
func (s *Store) GetActivePoll(ctx context.Context) (*models.Poll, error) {
	p, err := scanPoll(s.db.QueryRowContext(ctx, `
		SELECT `+pollColumns+` FROM poll
		WHERE status = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, string(models.StatusActive)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query active poll: %w", err)
	}

	if err := s.loadOptions(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// ActivatePoll moves a pending poll to active.
// Returns false when the poll was not pending. A second active poll violates
// idx_poll_single_active and is reported as a ConflictError.
func (s *Store) ActivatePoll(ctx context.Context, id string, start, end time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE poll
		SET status = $1, start_time = $2, end_time = $3
		WHERE id = $4 AND status = $5
	`, string(models.StatusActive), start, end, id, string(models.StatusPending))
	if err != nil {
		if db.IsUniqueViolation(err) {
			return false, models.ConflictError("An active poll already exists. Please wait for it to complete.")
		}
		return false, fmt.Errorf("failed to activate poll: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n == 1, nil
}

// CompletePoll marks a pending or active poll completed.
// Returns false when the poll was already completed (or does not exist).
func (s *Store) CompletePoll(ctx context.Context, id string, at time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE poll
		SET status = $1, completed_at = $2
		WHERE id = $3 AND status IN ($4, $5)
	`, string(models.StatusCompleted), at, id, string(models.StatusPending), string(models.StatusActive))
	if err != nil {
		return false, fmt.Errorf("failed to complete poll: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n == 1, nil
}

// ListCompletedPolls returns completed polls, newest first
func (s *Store) ListCompletedPolls(ctx context.Context, limit int) ([]*models.Poll, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+pollColumns+` FROM poll
		WHERE status = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, string(models.StatusCompleted), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query completed polls: %w", err)
	}

	polls := []*models.Poll{}
	for rows.Next() {
		p, err := scanPoll(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan poll: %w", err)
		}
		polls = append(polls, p)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to iterate polls: %w", err)
	}
	// Release the connection before loading options (sqlite runs on one connection)
	rows.Close()

	for _, p := range polls {
		if err := s.loadOptions(ctx, p); err != nil {
			return nil, err
		}
	}
	return polls, nil
}

func (s *Store) loadOptions(ctx context.Context, p *models.Poll) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT text, votes
		FROM poll_option
		WHERE poll_id = $1
		ORDER BY position
	`, p.ID)
	if err != nil {
		return fmt.Errorf("failed to query options: %w", err)
	}
	defer rows.Close()

	p.Options = []models.Option{}
	for rows.Next() {
		var opt models.Option
		if err := rows.Scan(&opt.Text, &opt.Votes); err != nil {
			return fmt.Errorf("failed to scan option: %w", err)
		}
		p.Options = append(p.Options, opt)
	}
	return rows.Err()
}
