// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides connection identifiers and role checks.

There are no accounts. A client declares its role when it registers and the
socket gateway checks that role before running privileged commands.

# Connection IDs

	connID, err := auth.GenerateConnectionID() // "conn_" + 24 hex characters

# Role Checks

	p, ok := registry.Lookup(connID)
	if err := auth.Authorize(p, ok, models.RoleTeacher); err != nil {
		// ErrNotRegistered or ErrUnauthorized
	}
*/
package auth
