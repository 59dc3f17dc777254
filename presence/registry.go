// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package presence

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/danielhkuo/classpoll/models"
	"github.com/danielhkuo/classpoll/store"
)

// Registry maps live connections to user identities.
// The connection map is process-local; kick state and the current
// connection_ref live on the durable user record.
type Registry struct {
	store *store.Store
	now   func() time.Time

	mu    sync.RWMutex
	conns map[string]models.Presence
}

func NewRegistry(st *store.Store) *Registry {
	return &Registry{
		store: st,
		now:   time.Now,
		conns: make(map[string]models.Presence),
	}
}

// SetClock replaces the time source. Used by tests.
func (r *Registry) SetClock(now func() time.Time) {
	r.now = now
}

// Register upserts the user and binds connID to it.
// Re-registration never clears the kicked-out flag.
func (r *Registry) Register(ctx context.Context, connID, userID, name string, role models.Role) (*models.User, error) {
	userID = strings.TrimSpace(userID)
	name = strings.TrimSpace(name)
	if userID == "" || name == "" {
		return nil, models.ValidationError("userId, name, and role are required")
	}
	if !role.Valid() {
		return nil, models.ValidationError("Invalid role: %s", role)
	}

	now := r.now().UTC()
	if _, err := r.store.UpsertUser(ctx, userID, name, role, now); err != nil {
		return nil, err
	}

	if connID != "" {
		if err := r.store.SetConnection(ctx, userID, connID, now); err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.conns[connID] = models.Presence{ConnID: connID, UserID: userID, Name: name, Role: role}
		r.mu.Unlock()
	}

	user, err := r.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	slog.Info("user registered", "user_id", userID, "role", role, "conn_id", connID, "kicked_out", user.KickedOut)
	return user, nil
}

// Unregister drops the mapping for connID and detaches the user record
// if it still points at this connection.
func (r *Registry) Unregister(ctx context.Context, connID string) (models.Presence, bool, error) {
	r.mu.Lock()
	p, ok := r.conns[connID]
	delete(r.conns, connID)
	r.mu.Unlock()

	if !ok {
		return models.Presence{}, false, nil
	}

	if err := r.store.ClearConnection(ctx, connID, r.now().UTC()); err != nil {
		return p, true, err
	}

	slog.Info("user disconnected", "user_id", p.UserID, "role", p.Role, "conn_id", connID)
	return p, true, nil
}

// Lookup returns the identity registered on connID
func (r *Registry) Lookup(connID string) (models.Presence, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.conns[connID]
	return p, ok
}

// ConnectionFor resolves the user's current connection from the durable
// connection_ref, validated against the local map.
func (r *Registry) ConnectionFor(ctx context.Context, userID string) (string, bool) {
	user, err := r.store.GetUser(ctx, userID)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			slog.Error("connection lookup failed", "user_id", userID, "error", err)
		}
		return "", false
	}
	if user.ConnectionRef == nil {
		return "", false
	}

	r.mu.RLock()
	p, ok := r.conns[*user.ConnectionRef]
	r.mu.RUnlock()
	if !ok || p.UserID != userID {
		return "", false
	}
	return p.ConnID, true
}

// ConnectionsByRole returns a snapshot of connection ids registered with role
func (r *Registry) ConnectionsByRole(role models.Role) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ids []string
	for id, p := range r.conns {
		if p.Role == role {
			ids = append(ids, id)
		}
	}
	return ids
}

// ListActiveStudents returns the roster: active, non-kicked students, newest first
func (r *Registry) ListActiveStudents(ctx context.Context) ([]models.Student, error) {
	return r.store.ListActiveStudents(ctx)
}

// KickOut sets the sticky kicked-out flag on a student
func (r *Registry) KickOut(ctx context.Context, studentID string) (*models.User, error) {
	existing, err := r.store.GetUser(ctx, studentID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.NotFoundError("Student not found")
		}
		return nil, err
	}
	if existing.Role != models.RoleStudent {
		return nil, models.NotFoundError("Student not found")
	}

	user, err := r.store.KickUser(ctx, studentID, r.now().UTC())
	if err != nil {
		return nil, err
	}

	slog.Info("student kicked out", "user_id", studentID)
	return user, nil
}

// IsKickedOut reports the user's kick state. Unknown users are not kicked.
func (r *Registry) IsKickedOut(ctx context.Context, userID string) (bool, error) {
	user, err := r.store.GetUser(ctx, userID)
	if errors.Is(err, models.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return user.KickedOut, nil
}

// Count returns the number of registered connections
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// Clear drops all in-memory mappings
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns = make(map[string]models.Presence)
}
