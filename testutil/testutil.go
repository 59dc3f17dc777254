// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/danielhkuo/classpoll/db"
	"github.com/danielhkuo/classpoll/models"
	"github.com/danielhkuo/classpoll/store"
)

// TestDBURL is an in-memory sqlite database; each SetupTestDB call gets a fresh one
const TestDBURL = ":memory:"

// SetupTestDB creates a fresh test database with the full schema
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := db.Open(db.TypeSQLite, TestDBURL)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// SetupTestStore wraps a fresh test database in a Store
func SetupTestStore(t *testing.T) *store.Store {
	t.Helper()
	return store.New(SetupTestDB(t))
}

// Clock is a manually advanced clock for timing-sensitive tests
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock() *Clock {
	return &Clock{now: time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// CreateTestPoll inserts a pending poll directly through the store
func CreateTestPoll(t *testing.T, st *store.Store, id string, options ...string) *models.Poll {
	t.Helper()

	if len(options) == 0 {
		options = []string{"Option A", "Option B"}
	}
	p := &models.Poll{
		ID:        id,
		Question:  "Test question?",
		Duration:  30,
		Status:    models.StatusPending,
		CreatedAt: time.Now().UTC(),
	}
	for _, text := range options {
		p.Options = append(p.Options, models.Option{Text: text})
	}

	if err := st.InsertPoll(context.Background(), p); err != nil {
		t.Fatalf("Failed to create test poll: %v", err)
	}
	return p
}

// CreateTestUser registers a user directly through the store
func CreateTestUser(t *testing.T, st *store.Store, userID, name string, role models.Role) *models.User {
	t.Helper()

	u, err := st.UpsertUser(context.Background(), userID, name, role, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return u
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}

// ReceiveEvent waits for the next event on ch or fails the test
func ReceiveEvent(t *testing.T, ch <-chan models.Event, timeout time.Duration) models.Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		if !ok {
			t.Fatal("Event channel closed")
		}
		return ev
	case <-time.After(timeout):
		t.Fatal("Timed out waiting for event")
	}
	return models.Event{}
}

// WaitForEvent reads events from ch until one of the given type arrives
func WaitForEvent(t *testing.T, ch <-chan models.Event, eventType string, timeout time.Duration) models.Event {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				t.Fatalf("Event channel closed while waiting for %s", eventType)
			}
			if ev.Type == eventType {
				return ev
			}
		case <-deadline:
			t.Fatalf("Timed out waiting for %s event", eventType)
		}
	}
}
