// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package presence tracks which user sits behind each live connection.
//
// The connection map is in memory and starts empty on every process start.
// The user record holds the sticky kicked-out flag and the current
// connection_ref, which is the canonical answer to "where is this user".
package presence
