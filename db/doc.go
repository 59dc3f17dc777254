// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens the database and creates the schema.

# Drivers

Open picks the driver by type:

	conn, err := db.Open(db.TypeSQLite, "classpoll.db")   // modernc.org/sqlite
	conn, err := db.Open(db.TypePostgres, "postgres://...") // lib/pq

SQLite connections are limited to one open connection with foreign keys on.

# Schema Creation

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.
The same statements run on both drivers.

# Tables

  - poll: question, duration, window and status
  - poll_option: ordered options with vote counts
  - vote: one row per (poll_id, student_id)
  - app_user: registered users, connection ref and kick flag

# Constraints

  - idx_poll_single_active: at most one poll with status 'active'
  - vote UNIQUE (poll_id, student_id): one vote per student per poll

IsUniqueViolation recognizes a unique constraint failure from either driver.
*/
package db
