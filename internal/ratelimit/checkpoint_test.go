package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/coding-shalabh/nexora-api-sub000/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) (*RedisCheckpointStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisCheckpointStore(rdb, time.Hour), mr
}

func TestCheckpoint_SaveAndLoadRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	saved := map[string]windowCounter{
		"minute": {Count: 7, WindowStart: time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)},
		"hour":   {Count: 93, WindowStart: time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC)},
	}

	require.NoError(t, store.Save(ctx, "1:VOICE:CALL", saved))

	loaded, err := store.Load(ctx, "1:VOICE:CALL")
	require.NoError(t, err)
	assert.Equal(t, 7, loaded["minute"].Count)
	assert.Equal(t, 93, loaded["hour"].Count)
	assert.True(t, saved["minute"].WindowStart.Equal(loaded["minute"].WindowStart))
}

func TestCheckpoint_LoadMissingKeyReturnsNil(t *testing.T) {
	store, _ := newTestStore(t)

	loaded, err := store.Load(context.Background(), "99:SMS:MESSAGE")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestLimiter_RestoresCountersFromCheckpoint(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	// a previous process already burned the full voice-minute quota
	require.NoError(t, store.Save(ctx, "1:VOICE:CALL", map[string]windowCounter{
		"minute": {Count: 10, WindowStart: time.Now()},
	}))

	l := NewLimiter(store, zap.NewNop())

	res := l.CheckLimit(ctx, 1, model.ChannelTypeVoice, ActionCall)
	assert.False(t, res.Allowed)
}

func TestLimiter_FailsOpenWhenStoreUnavailable(t *testing.T) {
	store, mr := newTestStore(t)
	mr.Close()

	l := NewLimiter(store, zap.NewNop())
	ctx := context.Background()

	res := l.CheckLimit(ctx, 1, model.ChannelTypeVoice, ActionCall)
	assert.True(t, res.Allowed)

	// quota enforcement still applies on the in-memory counters
	for i := 0; i < 10; i++ {
		l.RecordAction(ctx, 1, model.ChannelTypeVoice, ActionCall)
	}
	assert.False(t, l.CheckLimit(ctx, 1, model.ChannelTypeVoice, ActionCall).Allowed)
}

func TestFlusher_WritesSnapshotToStore(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	l := NewLimiter(store, zap.NewNop())
	l.RecordAction(ctx, 5, model.ChannelTypeSMS, ActionMessage)
	l.RecordAction(ctx, 5, model.ChannelTypeSMS, ActionMessage)

	f := NewFlusher(l, store, Config{FlushInterval: time.Hour}, zap.NewNop())
	f.flush(ctx)

	loaded, err := store.Load(ctx, "5:SMS:MESSAGE")
	require.NoError(t, err)
	assert.Equal(t, 2, loaded["minute"].Count)
}
