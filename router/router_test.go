// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/danielhkuo/classpoll/cliparse"
	"github.com/danielhkuo/classpoll/live"
	"github.com/danielhkuo/classpoll/models"
	"github.com/danielhkuo/classpoll/polls"
	"github.com/danielhkuo/classpoll/presence"
	"github.com/danielhkuo/classpoll/testutil"
)

func setupRouter(t *testing.T) (http.Handler, *live.Engine) {
	t.Helper()
	st := testutil.SetupTestStore(t)
	e := live.NewEngine(polls.NewService(st), presence.NewRegistry(st), time.Hour)
	t.Cleanup(e.Shutdown)

	cfg := cliparse.Config{Port: 5001, DatabaseType: "sqlite", DatabaseURL: testutil.TestDBURL}
	return NewRouter(e, cfg), e
}

func TestHealthEndpoint(t *testing.T) {
	mux, _ := setupRouter(t)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	if w.Body.String() != "OK" {
		t.Errorf("Expected body 'OK', got '%s'", w.Body.String())
	}
}

func TestRootEndpoint(t *testing.T) {
	mux, _ := setupRouter(t)

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	expected := "classpoll API v1"
	if w.Body.String() != expected {
		t.Errorf("Expected body '%s', got '%s'", expected, w.Body.String())
	}
}

func TestRouteExistence(t *testing.T) {
	mux, _ := setupRouter(t)

	// 400 and 404 are valid handler responses; 405 means the route is missing
	testCases := []struct {
		method string
		path   string
	}{
		{"GET", "/health"},
		{"GET", "/"},

		{"POST", "/api/polls"},
		{"GET", "/api/polls/active"},
		{"GET", "/api/polls/state"},
		{"POST", "/api/polls/test-id/start"},
		{"POST", "/api/polls/test-id/complete"},
		{"POST", "/api/polls/vote"},
		{"GET", "/api/polls/test-id/results"},

		{"GET", "/api/history"},
		{"GET", "/api/history/export"},

		{"POST", "/api/users"},
		{"GET", "/api/users/students"},
		{"POST", "/api/users/students/test-id/kick"},
	}

	for _, tc := range testCases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			if w.Code == http.StatusMethodNotAllowed {
				t.Errorf("Route %s %s returned 405, expected route handler to exist", tc.method, tc.path)
			}
		})
	}
}

func TestSpecificMethodRouting(t *testing.T) {
	mux, _ := setupRouter(t)

	testCases := []struct {
		name           string
		method         string
		path           string
		expectedStatus int
	}{
		{"POST to health endpoint", "POST", "/health", http.StatusMethodNotAllowed},
		{"GET to start endpoint", "GET", "/api/polls/test-id/start", http.StatusMethodNotAllowed},
		{"DELETE to users endpoint", "DELETE", "/api/users", http.StatusMethodNotAllowed},
		{"preflight is answered by CORS", "OPTIONS", "/api/polls", http.StatusOK},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			if w.Code != tc.expectedStatus {
				t.Errorf("Expected %d for %s %s, got %d", tc.expectedStatus, tc.method, tc.path, w.Code)
			}
		})
	}
}

func TestPathParameterExtraction(t *testing.T) {
	mux, e := setupRouter(t)

	body := `{"question":"Which planet is known as the Red Planet?","options":["Mars","Venus"],"duration":30}`
	req := httptest.NewRequest("POST", "/api/polls", strings.NewReader(body))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d. Body: %s", w.Code, w.Body.String())
	}

	var poll models.Poll
	if err := json.NewDecoder(w.Body).Decode(&poll); err != nil {
		t.Fatalf("Failed to decode poll: %v", err)
	}

	req = httptest.NewRequest("POST", "/api/polls/"+poll.ID+"/start", nil)
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 starting poll, got %d. Body: %s", w.Code, w.Body.String())
	}

	if !e.Timers().Running(poll.ID) {
		t.Error("Expected the poll id to reach the engine")
	}

	// Literal segments are not mistaken for a poll id
	req = httptest.NewRequest("GET", "/api/polls/active", nil)
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	var active models.ActivePollResponse
	if err := json.NewDecoder(w.Body).Decode(&active); err != nil {
		t.Fatalf("Failed to decode active poll: %v", err)
	}
	if active.Poll == nil || active.Poll.ID != poll.ID {
		t.Errorf("Expected active poll %s, got %+v", poll.ID, active.Poll)
	}
}
