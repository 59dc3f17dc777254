// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"

	"github.com/danielhkuo/classpoll/models"
)

var (
	ErrNotRegistered = errors.New("not registered")
	ErrUnauthorized  = errors.New("unauthorized")
)

// GenerateID creates a random hex ID of the specified byte length
func GenerateID(byteLen int) (string, error) {
	b := make([]byte, byteLen)
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate random ID: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// GenerateConnectionID names a new websocket connection
func GenerateConnectionID() (string, error) {
	id, err := GenerateID(12)
	if err != nil {
		return "", err
	}
	return "conn_" + id, nil
}

// Authorize checks that a connection has registered with one of the allowed roles
func Authorize(p models.Presence, registered bool, allowed ...models.Role) error {
	if !registered {
		return ErrNotRegistered
	}
	if !slices.Contains(allowed, p.Role) {
		return ErrUnauthorized
	}
	return nil
}
