// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"errors"
	"strings"
	"testing"

	"github.com/danielhkuo/classpoll/models"
)

func TestGenerateID(t *testing.T) {
	tests := []struct {
		name    string
		byteLen int
		wantLen int // hex encoded length = byteLen * 2
	}{
		{"8 bytes", 8, 16},
		{"16 bytes", 16, 32},
		{"24 bytes", 24, 48},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := GenerateID(tt.byteLen)
			if err != nil {
				t.Fatalf("GenerateID() error = %v", err)
			}
			if len(id) != tt.wantLen {
				t.Errorf("GenerateID() length = %d, want %d", len(id), tt.wantLen)
			}
			for _, c := range id {
				if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
					t.Errorf("GenerateID() contains invalid hex char: %c", c)
				}
			}
		})
	}

	id1, _ := GenerateID(16)
	id2, _ := GenerateID(16)
	if id1 == id2 {
		t.Error("GenerateID() produced duplicate IDs (extremely unlikely)")
	}
}

func TestGenerateConnectionID(t *testing.T) {
	id, err := GenerateConnectionID()
	if err != nil {
		t.Fatalf("GenerateConnectionID() error = %v", err)
	}
	if !strings.HasPrefix(id, "conn_") {
		t.Errorf("Expected conn_ prefix, got %s", id)
	}
	if len(id) != len("conn_")+24 {
		t.Errorf("Expected length %d, got %d", len("conn_")+24, len(id))
	}
}

func TestAuthorize(t *testing.T) {
	teacher := models.Presence{ConnID: "c1", UserID: "t1", Role: models.RoleTeacher}
	student := models.Presence{ConnID: "c2", UserID: "s1", Role: models.RoleStudent}

	tests := []struct {
		name       string
		presence   models.Presence
		registered bool
		allowed    []models.Role
		wantErr    error
	}{
		{"teacher allowed", teacher, true, []models.Role{models.RoleTeacher}, nil},
		{"student allowed", student, true, []models.Role{models.RoleStudent}, nil},
		{"either role", student, true, []models.Role{models.RoleTeacher, models.RoleStudent}, nil},
		{"student on teacher command", student, true, []models.Role{models.RoleTeacher}, ErrUnauthorized},
		{"teacher on student command", teacher, true, []models.Role{models.RoleStudent}, ErrUnauthorized},
		{"not registered", models.Presence{}, false, []models.Role{models.RoleStudent}, ErrNotRegistered},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(tt.presence, tt.registered, tt.allowed...)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Authorize() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
