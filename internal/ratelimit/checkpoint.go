package ratelimit

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// CheckpointStore persists rate counters across process restarts. Persistence
// is best-effort: the limiter fails open when the store is unavailable.
type CheckpointStore interface {
	Save(ctx context.Context, key string, counters map[string]windowCounter) error
	Load(ctx context.Context, key string) (map[string]windowCounter, error)
}

const checkpointPrefix = "ratelimit:"

type RedisCheckpointStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCheckpointStore(rdb *redis.Client, ttl time.Duration) *RedisCheckpointStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisCheckpointStore{rdb: rdb, ttl: ttl}
}

func (s *RedisCheckpointStore) Save(ctx context.Context, key string, counters map[string]windowCounter) error {
	b, err := json.Marshal(counters)
	if err != nil {
		return err
	}

	return s.rdb.Set(ctx, checkpointPrefix+key, b, s.ttl).Err()
}

func (s *RedisCheckpointStore) Load(ctx context.Context, key string) (map[string]windowCounter, error) {
	b, err := s.rdb.Get(ctx, checkpointPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var counters map[string]windowCounter
	if err := json.Unmarshal(b, &counters); err != nil {
		return nil, err
	}

	return counters, nil
}

// Flusher periodically checkpoints the limiter's counters to the store.
type Flusher struct {
	limiter  *MemoryLimiter
	store    CheckpointStore
	interval time.Duration
	logger   *zap.Logger

	running atomic.Bool
	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewFlusher(limiter *MemoryLimiter, store CheckpointStore, cfg Config, logger *zap.Logger) *Flusher {
	interval := cfg.FlushInterval
	if interval <= 0 {
		interval = 10 * time.Second
	}

	return &Flusher{
		limiter:  limiter,
		store:    store,
		interval: interval,
		logger:   logger,
	}
}

func (f *Flusher) Start() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.running.Load() {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	f.cancel = cancel
	f.done = make(chan struct{})
	f.running.Store(true)

	go func() {
		defer close(f.done)

		ticker := time.NewTicker(f.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				// final flush so a clean shutdown loses nothing
				f.flush(context.Background())
				return
			case <-ticker.C:
				f.flush(ctx)
			}
		}
	}()
}

func (f *Flusher) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.running.Load() {
		return
	}

	f.cancel()
	<-f.done
	f.running.Store(false)
}

func (f *Flusher) flush(ctx context.Context) {
	snapshot := f.limiter.Snapshot()

	for k, counters := range snapshot {
		if err := f.store.Save(ctx, k, counters); err != nil {
			f.logger.Warn("Rate counter checkpoint failed",
				zap.String("key", k),
				zap.Error(err))
		}
	}
}
