// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package timer drives the countdown of active polls.

Each started poll gets one goroutine on a time.Ticker. On every tick it
re-reads the poll, stops if the poll is no longer active, and broadcasts a
timer_update with the remaining time computed from the stored end time.
When the remaining time reaches zero the poll is completed and the final
results are broadcast as poll_completed.

Starting a poll that already has a timer cancels the old one first, so at
most one timer runs per poll. A failing tick logs and stops its timer; the
poll stays active until completed by another path.

The timer only announces and auto-completes. Vote admission recomputes the
remaining time itself and does not depend on the timer having fired.
*/
package timer
