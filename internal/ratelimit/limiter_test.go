package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/coding-shalabh/nexora-api-sub000/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestLimiter(now *time.Time) *MemoryLimiter {
	l := NewLimiter(nil, zap.NewNop())
	l.now = func() time.Time { return *now }
	return l
}

func TestLimiter_AllowsUntilWindowLimit(t *testing.T) {
	now := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	l := newTestLimiter(&now)
	ctx := context.Background()

	// voice calls: 10/minute
	for i := 0; i < 10; i++ {
		res := l.CheckLimit(ctx, 1, model.ChannelTypeVoice, ActionCall)
		require.True(t, res.Allowed, "call %d should be allowed", i+1)
		l.RecordAction(ctx, 1, model.ChannelTypeVoice, ActionCall)
	}

	res := l.CheckLimit(ctx, 1, model.ChannelTypeVoice, ActionCall)
	assert.False(t, res.Allowed)
	assert.Greater(t, res.RetryAfter, time.Duration(0))
	assert.LessOrEqual(t, res.RetryAfter, time.Minute)
}

func TestLimiter_RetryAfterShrinksAsWindowAges(t *testing.T) {
	now := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	l := newTestLimiter(&now)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		l.RecordAction(ctx, 1, model.ChannelTypeVoice, ActionCall)
	}

	now = now.Add(40 * time.Second)

	res := l.CheckLimit(ctx, 1, model.ChannelTypeVoice, ActionCall)
	assert.False(t, res.Allowed)
	assert.Equal(t, 20*time.Second, res.RetryAfter)
}

func TestLimiter_LazyResetAfterWindowElapses(t *testing.T) {
	now := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	l := newTestLimiter(&now)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		l.RecordAction(ctx, 1, model.ChannelTypeVoice, ActionCall)
	}

	res := l.CheckLimit(ctx, 1, model.ChannelTypeVoice, ActionCall)
	require.False(t, res.Allowed)

	// no explicit clear: once the minute has fully elapsed the count reads 0
	now = now.Add(61 * time.Second)

	res = l.CheckLimit(ctx, 1, model.ChannelTypeVoice, ActionCall)
	assert.True(t, res.Allowed)
}

func TestLimiter_FirstSaturatedWindowWins(t *testing.T) {
	now := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	l := newTestLimiter(&now)
	ctx := context.Background()

	// saturate the per-second WhatsApp window without touching minute/hour limits
	for i := 0; i < 80; i++ {
		l.RecordAction(ctx, 7, model.ChannelTypeWhatsApp, ActionMessage)
	}

	res := l.CheckLimit(ctx, 7, model.ChannelTypeWhatsApp, ActionMessage)
	assert.False(t, res.Allowed)
	assert.LessOrEqual(t, res.RetryAfter, time.Second)

	// a second later the second-window is clear, minute window still has room
	now = now.Add(1100 * time.Millisecond)

	res = l.CheckLimit(ctx, 7, model.ChannelTypeWhatsApp, ActionMessage)
	assert.True(t, res.Allowed)
}

func TestLimiter_KeysAreIndependent(t *testing.T) {
	now := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	l := newTestLimiter(&now)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		l.RecordAction(ctx, 1, model.ChannelTypeVoice, ActionCall)
	}

	require.False(t, l.CheckLimit(ctx, 1, model.ChannelTypeVoice, ActionCall).Allowed)
	assert.True(t, l.CheckLimit(ctx, 2, model.ChannelTypeVoice, ActionCall).Allowed)
}

func TestLimiter_ConcurrentIncrementsAreNotLost(t *testing.T) {
	l := NewLimiter(nil, zap.NewNop())
	ctx := context.Background()

	const workers = 8
	const perWorker = 50

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				l.RecordAction(ctx, 42, model.ChannelTypeWhatsApp, ActionMessage)
			}
		}()
	}
	wg.Wait()

	snapshot := l.Snapshot()
	counters := snapshot["42:WHATSAPP:MESSAGE"]
	require.NotNil(t, counters)
	assert.Equal(t, workers*perWorker, counters["hour"].Count)
}

func TestLimiter_UnconfiguredPairIsUnlimited(t *testing.T) {
	l := NewLimiter(nil, zap.NewNop())
	ctx := context.Background()

	res := l.CheckLimit(ctx, 1, model.ChannelTypeEmail, ActionCall)
	assert.True(t, res.Allowed)
}
