package progress

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"gocatalog_api/internal/catalog/business/models"
)

// DefaultStaleTTL bounds how long a record survives a process that died mid-run.
const DefaultStaleTTL = 24 * time.Hour

// Every script returns 0 when the key is absent and never creates it.
var (
	initScript = redis.NewScript(`
if redis.call('HGET', KEYS[1], 'status') == 'syncing' then
	return 0
end
redis.call('DEL', KEYS[1])
redis.call('HSET', KEYS[1],
	'run_id', ARGV[1], 'total', ARGV[2], 'synced', 0, 'errors', 0, 'current', '',
	'status', 'syncing', 'message', '', 'should_stop', 0, 'started_at', ARGV[3])
redis.call('PEXPIRE', KEYS[1], ARGV[4])
return 1`)

	incrementScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return 0
end
redis.call('HINCRBY', KEYS[1], 'synced', ARGV[1])
redis.call('HINCRBY', KEYS[1], 'errors', ARGV[2])
return 1`)

	setScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return 0
end
for i = 1, #ARGV, 2 do
	redis.call('HSET', KEYS[1], ARGV[i], ARGV[i + 1])
end
return 1`)

	clearScript = redis.NewScript(`
if redis.call('HGET', KEYS[1], 'run_id') == ARGV[1] then
	return redis.call('DEL', KEYS[1])
end
return 0`)
)

// RedisStore shares progress between replicas so any instance can answer a poll.
type RedisStore struct {
	client   redis.UniversalClient
	prefix   string
	staleTTL time.Duration
	now      func() time.Time
}

func NewRedisStore(client redis.UniversalClient, prefix string, staleTTL time.Duration) *RedisStore {
	if staleTTL <= 0 {
		staleTTL = DefaultStaleTTL
	}
	return &RedisStore{client: client, prefix: prefix, staleTTL: staleTTL, now: time.Now}
}

func (s *RedisStore) key(connectionID string) string {
	return s.prefix + connectionID
}

func (s *RedisStore) Init(ctx context.Context, connectionID string, total int) (models.SyncProgress, error) {
	p := models.SyncProgress{
		RunID:        uuid.NewString(),
		ConnectionID: connectionID,
		Total:        total,
		Status:       models.RunSyncing,
		StartedAt:    s.now().UTC(),
	}
	ok, err := initScript.Run(ctx, s.client, []string{s.key(connectionID)},
		p.RunID, total, p.StartedAt.Format(time.RFC3339Nano), s.staleTTL.Milliseconds()).Int()
	if err != nil {
		return models.SyncProgress{}, fmt.Errorf("progress init: %w", err)
	}
	if ok == 0 {
		current, _, err := s.Get(ctx, connectionID)
		if err != nil {
			return models.SyncProgress{}, err
		}
		return current, models.ErrSyncInProgress
	}
	return p, nil
}

func (s *RedisStore) set(ctx context.Context, connectionID string, fields ...interface{}) error {
	ok, err := setScript.Run(ctx, s.client, []string{s.key(connectionID)}, fields...).Int()
	if err != nil {
		return fmt.Errorf("progress update: %w", err)
	}
	if ok == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (s *RedisStore) SetTotal(ctx context.Context, connectionID string, total int) error {
	return s.set(ctx, connectionID, "total", total)
}

func (s *RedisStore) Increment(ctx context.Context, connectionID string, delta models.ProgressDelta) error {
	ok, err := incrementScript.Run(ctx, s.client, []string{s.key(connectionID)}, delta.Synced, delta.Errors).Int()
	if err != nil {
		return fmt.Errorf("progress increment: %w", err)
	}
	if ok == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (s *RedisStore) SetCurrent(ctx context.Context, connectionID, current string) error {
	return s.set(ctx, connectionID, "current", current)
}

func (s *RedisStore) Finish(ctx context.Context, connectionID string, status models.RunStatus, message string) error {
	return s.set(ctx, connectionID, "status", string(status), "message", message, "current", "")
}

func (s *RedisStore) Get(ctx context.Context, connectionID string) (models.SyncProgress, bool, error) {
	fields, err := s.client.HGetAll(ctx, s.key(connectionID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.SyncProgress{}, false, nil
		}
		return models.SyncProgress{}, false, fmt.Errorf("progress get: %w", err)
	}
	if len(fields) == 0 {
		return models.SyncProgress{}, false, nil
	}

	p := models.SyncProgress{
		RunID:        fields["run_id"],
		ConnectionID: connectionID,
		Current:      fields["current"],
		Status:       models.RunStatus(fields["status"]),
		Message:      fields["message"],
		ShouldStop:   fields["should_stop"] == "1",
	}
	p.Total, _ = strconv.Atoi(fields["total"])
	p.Synced, _ = strconv.Atoi(fields["synced"])
	p.Errors, _ = strconv.Atoi(fields["errors"])
	p.StartedAt, _ = time.Parse(time.RFC3339Nano, fields["started_at"])
	return p, true, nil
}

func (s *RedisStore) MarkStopRequested(ctx context.Context, connectionID string) (bool, error) {
	err := s.set(ctx, connectionID, "should_stop", 1)
	if errors.Is(err, models.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *RedisStore) Clear(ctx context.Context, connectionID, runID string) error {
	if err := clearScript.Run(ctx, s.client, []string{s.key(connectionID)}, runID).Err(); err != nil {
		return fmt.Errorf("progress clear: %w", err)
	}
	return nil
}
