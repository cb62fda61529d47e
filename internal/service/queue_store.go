package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

// syncQueueKey is the fixed key the whole pending queue lives under. The
// queue is stored as one JSON-encoded list so a partial drain can be
// persisted atomically with a single SET.
const syncQueueKey = "scout_crm:sync_queue"

// QueueEntry is one pending remote insert. Attempts and NeedsAttention
// survive restarts so a poisoned head stays blocked until an operator
// acts on it.
type QueueEntry struct {
	LocalID        string    `json:"localId"`
	OwnerID        uint      `json:"ownerId"`
	EnqueuedAt     time.Time `json:"enqueuedAt"`
	Attempts       int       `json:"attempts"`
	NeedsAttention bool      `json:"needsAttention"`
	LastError      string    `json:"lastError,omitempty"`
}

// QueueStore persists the pending sync queue across restarts.
type QueueStore interface {
	Load(ctx context.Context) ([]QueueEntry, error)
	Save(ctx context.Context, entries []QueueEntry) error
}

type RedisQueueStore struct {
	rdb *redis.Client
}

func NewRedisQueueStore(rdb *redis.Client) *RedisQueueStore {
	return &RedisQueueStore{rdb: rdb}
}

func (s *RedisQueueStore) Load(ctx context.Context) ([]QueueEntry, error) {
	data, err := s.rdb.Get(ctx, syncQueueKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return []QueueEntry{}, nil
	}
	if err != nil {
		return nil, err
	}
	var entries []QueueEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *RedisQueueStore) Save(ctx context.Context, entries []QueueEntry) error {
	if entries == nil {
		entries = []QueueEntry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	// No TTL: queued work must outlive any outage.
	return s.rdb.Set(ctx, syncQueueKey, data, 0).Err()
}
