package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// DefaultRedisKey is the hash that holds the job table.
const DefaultRedisKey = "reel:jobs"

// RedisStore keeps the job table in one Redis hash (field = session ID,
// value = JSON record). SaveAll sets only the fields it is given, inside
// MULTI/EXEC, so writers in other processes never clobber each other.
type RedisStore struct {
	client redis.UniversalClient
	key    string
}

// Compile-time interface check.
var _ JobStore = (*RedisStore)(nil)

// NewRedisStore creates a RedisStore. An empty key uses DefaultRedisKey.
func NewRedisStore(client redis.UniversalClient, key string) *RedisStore {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{client: client, key: key}
}

func (s *RedisStore) Load(ctx context.Context) (map[string]JobRecord, error) {
	fields, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("HGETALL %s: %w", s.key, err)
	}

	records := make(map[string]JobRecord, len(fields))
	for id, raw := range fields {
		var rec JobRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			log.Warn().Err(err).Str("sessionId", id).Msg("Skipping corrupt job record in Redis")
			continue
		}
		if rec.SessionID == "" {
			rec.SessionID = id
		}
		records[id] = rec
	}

	log.Debug().Str("key", s.key).Int("records", len(records)).Msg("Jobs loaded from Redis")
	return records, nil
}

func (s *RedisStore) Get(ctx context.Context, sessionID string) (JobRecord, bool, error) {
	raw, err := s.client.HGet(ctx, s.key, sessionID).Result()
	if errors.Is(err, redis.Nil) {
		return JobRecord{}, false, nil
	}
	if err != nil {
		return JobRecord{}, false, fmt.Errorf("HGET %s %s: %w", s.key, sessionID, err)
	}
	var rec JobRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return JobRecord{}, false, fmt.Errorf("decode job %s: %w", sessionID, err)
	}
	if rec.SessionID == "" {
		rec.SessionID = sessionID
	}
	return rec, true, nil
}

func (s *RedisStore) SaveAll(ctx context.Context, records map[string]JobRecord) error {
	if len(records) == 0 {
		return nil
	}
	values := make(map[string]interface{}, len(records))
	for id, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal job %s: %w", id, err)
		}
		values[id] = data
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.key, values)
		return nil
	})
	if err != nil {
		return fmt.Errorf("HSET %s (%d records): %w", s.key, len(values), err)
	}

	log.Debug().Str("key", s.key).Int("records", len(values)).Msg("Jobs persisted to Redis")
	return nil
}
