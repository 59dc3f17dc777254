// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/danielhkuo/classpoll/models"
)

const userColumns = `user_id, name, role, connection_ref, active, kicked_out, created_at, updated_at`

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	var role string
	var conn sql.NullString
	err := row.Scan(&u.UserID, &u.Name, &role, &conn, &u.Active, &u.KickedOut, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.Role = models.Role(role)
	u.ConnectionRef = nullStringPtr(conn)
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return &u, nil
}

// UpsertUser creates the user or refreshes name, role and the active flag.
// kicked_out is left untouched on an existing row.
func (s *Store) UpsertUser(ctx context.Context, userID, name string, role models.Role, now time.Time) (*models.User, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO app_user (user_id, name, role, active, kicked_out, created_at, updated_at)
		VALUES ($1, $2, $3, TRUE, FALSE, $4, $5)
		ON CONFLICT (user_id) DO UPDATE
		SET name = excluded.name, role = excluded.role, active = TRUE, updated_at = excluded.updated_at
	`, userID, name, string(role), now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	return s.GetUser(ctx, userID)
}

// GetUser loads a user by id
func (s *Store) GetUser(ctx context.Context, userID string) (*models.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM app_user WHERE user_id = $1`, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.NotFoundError("User not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return u, nil
}

// SetConnection records the user's current connection and marks them active
func (s *Store) SetConnection(ctx context.Context, userID, connRef string, now time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE app_user
		SET connection_ref = $1, active = TRUE, updated_at = $2
		WHERE user_id = $3
	`, connRef, now, userID)
	if err != nil {
		return fmt.Errorf("failed to set connection: %w", err)
	}
	return nil
}

// ClearConnection detaches the user holding connRef, if any.
// A newer connection of the same user is left alone.
func (s *Store) ClearConnection(ctx context.Context, connRef string, now time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE app_user
		SET connection_ref = NULL, active = FALSE, updated_at = $1
		WHERE connection_ref = $2
	`, now, connRef)
	if err != nil {
		return fmt.Errorf("failed to clear connection: %w", err)
	}
	return nil
}

// KickUser sets the sticky kicked_out flag
func (s *Store) KickUser(ctx context.Context, userID string, now time.Time) (*models.User, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE app_user
		SET kicked_out = TRUE, active = FALSE, updated_at = $1
		WHERE user_id = $2
	`, now, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to kick user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, models.NotFoundError("Student not found")
	}

	return s.GetUser(ctx, userID)
}

// ListActiveStudents returns active, non-kicked students, most recently created first
func (s *Store) ListActiveStudents(ctx context.Context) ([]models.Student, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, name, role
		FROM app_user
		WHERE role = $1 AND active = TRUE AND kicked_out = FALSE
		ORDER BY created_at DESC
	`, string(models.RoleStudent))
	if err != nil {
		return nil, fmt.Errorf("failed to query students: %w", err)
	}
	defer rows.Close()

	students := []models.Student{}
	for rows.Next() {
		var st models.Student
		var role string
		if err := rows.Scan(&st.UserID, &st.Name, &role); err != nil {
			return nil, fmt.Errorf("failed to scan student: %w", err)
		}
		st.Role = models.Role(role)
		students = append(students, st)
	}
	return students, rows.Err()
}
