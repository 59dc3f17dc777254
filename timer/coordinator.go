// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package timer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/danielhkuo/classpoll/models"
)

// DefaultInterval is the countdown cadence
const DefaultInterval = time.Second

// Lifecycle is the slice of the poll service the coordinator drives
type Lifecycle interface {
	GetPoll(ctx context.Context, pollID string) (*models.Poll, error)
	RemainingTime(poll *models.Poll) int
	CompletePoll(ctx context.Context, pollID string) (*models.Poll, bool, error)
	GetResults(ctx context.Context, pollID string) (*models.PollResults, error)
}

// Publisher broadcasts events to all clients
type Publisher interface {
	Publish(ev models.Event)
}

type entry struct {
	gen    uint64
	cancel context.CancelFunc
}

// Coordinator runs one countdown goroutine per active poll
type Coordinator struct {
	lifecycle Lifecycle
	publisher Publisher
	interval  time.Duration

	mu     sync.Mutex
	timers map[string]entry
	gen    uint64
	closed bool
	wg     sync.WaitGroup
}

func New(l Lifecycle, p Publisher, interval time.Duration) *Coordinator {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Coordinator{
		lifecycle: l,
		publisher: p,
		interval:  interval,
		timers:    make(map[string]entry),
	}
}

// Start runs the countdown for pollID, cancelling any timer already running for it
func (c *Coordinator) Start(pollID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	if existing, ok := c.timers[pollID]; ok {
		existing.cancel()
	}

	c.gen++
	ctx, cancel := context.WithCancel(context.Background())
	c.timers[pollID] = entry{gen: c.gen, cancel: cancel}

	c.wg.Add(1)
	go c.run(ctx, pollID, c.gen)

	slog.Info("poll timer started", "poll_id", pollID)
}

// Stop cancels the timer for pollID, if any
func (c *Coordinator) Stop(pollID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.timers[pollID]; ok {
		existing.cancel()
		delete(c.timers, pollID)
	}
}

// Running reports whether a timer is installed for pollID
func (c *Coordinator) Running(pollID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.timers[pollID]
	return ok
}

// Shutdown cancels every timer and waits for them to exit
func (c *Coordinator) Shutdown() {
	c.mu.Lock()
	c.closed = true
	for id, existing := range c.timers {
		existing.cancel()
		delete(c.timers, id)
	}
	c.mu.Unlock()

	c.wg.Wait()
}

func (c *Coordinator) run(ctx context.Context, pollID string, gen uint64) {
	defer c.wg.Done()
	defer c.release(pollID, gen)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !c.tick(ctx, pollID) {
				return
			}
		}
	}
}

// release removes the entry only if it still belongs to this goroutine
func (c *Coordinator) release(pollID string, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.timers[pollID]; ok && existing.gen == gen {
		existing.cancel()
		delete(c.timers, pollID)
	}
}

// tick returns false when the timer should stop
func (c *Coordinator) tick(ctx context.Context, pollID string) bool {
	poll, err := c.lifecycle.GetPoll(ctx, pollID)
	if err != nil {
		if ctx.Err() == nil {
			slog.Error("timer tick failed, stopping timer", "poll_id", pollID, "error", err)
		}
		return false
	}
	if poll.Status != models.StatusActive {
		return false
	}

	remaining := c.lifecycle.RemainingTime(poll)
	c.publisher.Publish(models.Event{
		Type:    models.EventTimerUpdate,
		Payload: models.TimerPayload{PollID: pollID, RemainingTime: remaining},
	})

	if remaining > 0 {
		return true
	}

	c.expire(ctx, pollID)
	return false
}

func (c *Coordinator) expire(ctx context.Context, pollID string) {
	_, changed, err := c.lifecycle.CompletePoll(ctx, pollID)
	if err != nil {
		slog.Error("failed to auto-complete poll", "poll_id", pollID, "error", err)
		return
	}
	if !changed {
		return
	}

	results, err := c.lifecycle.GetResults(ctx, pollID)
	if err != nil {
		slog.Error("failed to load final results", "poll_id", pollID, "error", err)
		return
	}

	c.publisher.Publish(models.Event{Type: models.EventPollCompleted, Payload: results})
	slog.Info("poll expired", "poll_id", pollID, "total_votes", results.TotalVotes)
}
