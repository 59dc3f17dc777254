// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package polls implements the poll lifecycle.

A poll moves pending -> active -> completed and never goes back. At most
one poll is active at a time; the store enforces this with a partial unique
index so concurrent starts cannot both win.

Votes are admitted only while the poll is active and its remaining time is
positive. Each student votes once per poll. The vote row and both counters
are written in a single transaction, so totals always equal the number of
stored votes.

Remaining time is computed from the stored end time on every read rather
than kept as a decrementing counter:

	remaining = max(0, floor((end_time - now) / 1s))

Results report per-option counts and a percentage rounded independently per
option; percentages may not sum to exactly 100.
*/
package polls
