package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/coding-shalabh/nexora-api-sub000/internal/model"
	"go.uber.org/zap"
)

// Limiter enforces the per-channel-account action quotas.
type Limiter interface {
	CheckLimit(ctx context.Context, channelAccountID int64, channelType model.ChannelType, actionType ActionType) Result
	RecordAction(ctx context.Context, channelAccountID int64, channelType model.ChannelType, actionType ActionType)
}

type Result struct {
	Allowed    bool
	RetryAfter time.Duration
}

type Config struct {
	FlushInterval time.Duration `mapstructure:"flush_interval"`
	CheckpointTTL time.Duration `mapstructure:"checkpoint_ttl"`
}

type windowCounter struct {
	Count       int       `json:"count"`
	WindowStart time.Time `json:"windowStart"`
}

// entry holds all counters for one (account, channel, action) key. Its mutex
// serializes increments per key; different keys never contend.
type entry struct {
	mu       sync.Mutex
	counters map[string]*windowCounter
}

// MemoryLimiter keeps counters in process memory with lazy window reset. A
// Flusher checkpoints them to Redis so a restart does not hand every account a
// fresh quota. This is a soft limiter: losing a few seconds of counts on crash
// is acceptable.
type MemoryLimiter struct {
	mu      sync.Mutex
	entries map[string]*entry

	store  CheckpointStore
	logger *zap.Logger
	now    func() time.Time
}

var _ Limiter = (*MemoryLimiter)(nil)

func NewLimiter(store CheckpointStore, logger *zap.Logger) *MemoryLimiter {
	return &MemoryLimiter{
		entries: make(map[string]*entry),
		store:   store,
		logger:  logger,
		now:     time.Now,
	}
}

func key(channelAccountID int64, channelType model.ChannelType, actionType ActionType) string {
	return fmt.Sprintf("%d:%s:%s", channelAccountID, channelType, actionType)
}

// CheckLimit walks every configured window in increasing granularity and
// reports the first saturated one. A window whose duration has fully elapsed
// counts as empty; the reset itself happens lazily in RecordAction.
func (l *MemoryLimiter) CheckLimit(ctx context.Context, channelAccountID int64, channelType model.ChannelType, actionType ActionType) Result {
	windows := WindowsFor(channelType, actionType)
	if len(windows) == 0 {
		return Result{Allowed: true}
	}

	e := l.entry(ctx, channelAccountID, channelType, actionType)

	e.mu.Lock()
	defer e.mu.Unlock()

	now := l.now()
	for _, w := range windows {
		c, ok := e.counters[w.Name]
		if !ok {
			continue
		}

		elapsed := now.Sub(c.WindowStart)
		if elapsed > w.Duration {
			continue
		}

		if c.Count >= w.Limit {
			return Result{Allowed: false, RetryAfter: w.Duration - elapsed}
		}
	}

	return Result{Allowed: true}
}

// RecordAction increments every window for the key. All windows for one key
// move together under the entry lock, so concurrent senders on the same
// channel account never lose increments.
func (l *MemoryLimiter) RecordAction(ctx context.Context, channelAccountID int64, channelType model.ChannelType, actionType ActionType) {
	windows := WindowsFor(channelType, actionType)
	if len(windows) == 0 {
		return
	}

	e := l.entry(ctx, channelAccountID, channelType, actionType)

	e.mu.Lock()
	defer e.mu.Unlock()

	now := l.now()
	for _, w := range windows {
		c, ok := e.counters[w.Name]
		if !ok {
			c = &windowCounter{WindowStart: now}
			e.counters[w.Name] = c
		}

		if now.Sub(c.WindowStart) > w.Duration {
			c.Count = 0
			c.WindowStart = now
		}

		c.Count++
	}
}

// entry returns the live counters for a key, restoring a checkpoint from the
// store the first time the key is touched. Store failures degrade the key to
// memory-only.
func (l *MemoryLimiter) entry(ctx context.Context, channelAccountID int64, channelType model.ChannelType, actionType ActionType) *entry {
	k := key(channelAccountID, channelType, actionType)

	l.mu.Lock()
	e, ok := l.entries[k]
	if ok {
		l.mu.Unlock()
		return e
	}

	e = &entry{counters: make(map[string]*windowCounter)}
	l.entries[k] = e
	l.mu.Unlock()

	if l.store == nil {
		return e
	}

	restored, err := l.store.Load(ctx, k)
	if err != nil {
		l.logger.Warn("Rate counter restore failed, continuing in memory only",
			zap.String("key", k),
			zap.Error(err))
		return e
	}

	e.mu.Lock()
	for name, c := range restored {
		counter := c
		e.counters[name] = &counter
	}
	e.mu.Unlock()

	return e
}

// Snapshot copies the current counters for checkpointing.
func (l *MemoryLimiter) Snapshot() map[string]map[string]windowCounter {
	l.mu.Lock()
	keys := make(map[string]*entry, len(l.entries))
	for k, e := range l.entries {
		keys[k] = e
	}
	l.mu.Unlock()

	out := make(map[string]map[string]windowCounter, len(keys))
	for k, e := range keys {
		e.mu.Lock()
		counters := make(map[string]windowCounter, len(e.counters))
		for name, c := range e.counters {
			counters[name] = *c
		}
		e.mu.Unlock()
		out[k] = counters
	}

	return out
}
