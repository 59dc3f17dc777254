// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package store persists polls, votes and users with database/sql.
// Queries use $n placeholders, which both lib/pq and modernc.org/sqlite accept.
package store
