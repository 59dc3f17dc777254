// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Config Fields

  - Port: Server listen port (default: 5001)
  - DatabaseURL: sqlite file path or PostgreSQL connection string (required)
  - DatabaseType: sqlite or postgres (default: sqlite)
  - FrontendURL: Allowed browser origin; empty allows any origin

# CLI Flags

	-p       Server port
	-d       Database URL
	-t       Database type
	-origin  Frontend origin
	-env     Path to a .env file (default: .env)

# Environment Variables

Flags fall back to environment variables:

	PORT          → -p
	DATABASE_URL  → -d
	DATABASE_TYPE → -t
	FRONTEND_URL  → -origin

Before the fallback, the .env file named by -env is loaded with godotenv.
A missing file is ignored and it never overrides variables that are
already set. CLI flags take precedence over both.
*/
package cliparse
