package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

type Client struct {
	rdb    *redis.Client
	config *Config
}

type Config struct {
	Address  string `json:"address"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	PoolSize int    `json:"pool_size"`
}

func NewClient(config *Config) (*Client, error) {
	if config == nil {
		return nil, fmt.Errorf("redis config is required")
	}

	if config.Address == "" {
		config.Address = "localhost:6379"
	}
	if config.PoolSize == 0 {
		config.PoolSize = 10
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     config.Address,
		Password: config.Password,
		DB:       config.DB,
		PoolSize: config.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{
		rdb:    rdb,
		config: config,
	}, nil
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

func (c *Client) Health() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return c.rdb.Ping(ctx).Err()
}

// recordAttemptScript atomically checks and records a rate limit attempt
// against a sorted set of timestamped events. The check and the insert run
// as a single script, so concurrent callers cannot both observe the same
// count and overshoot the limit. Rejected attempts are not recorded.
//
// The script uses the Redis server clock (TIME) so that all application
// instances sharing the store agree on window boundaries. Alongside the
// decision it returns the timestamp of the oldest event still inside the
// window: that event is the next to fall out, so oldest + window is when
// budget frees up again.
var recordAttemptScript = redis.NewScript(`
local key = KEYS[1]
local limit = tonumber(ARGV[1])
local window = tonumber(ARGV[2])

local t = redis.call('TIME')
local now = t[1] * 1000 + math.floor(t[2] / 1000)
local window_start = now - window

redis.call('ZREMRANGEBYSCORE', key, 0, window_start)

local function oldest_event()
	local first = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
	if first[2] then
		return tonumber(first[2])
	end
	return now
end

local count = redis.call('ZCARD', key)
if count >= limit then
	return {0, count, now, oldest_event()}
end

local member = now .. '-' .. redis.call('INCR', key .. ':seq')
redis.call('ZADD', key, now, member)
redis.call('PEXPIRE', key, window * 2)
redis.call('PEXPIRE', key .. ':seq', window * 2)
return {1, count + 1, now, oldest_event()}
`)

// RecordRateLimitAttempt atomically checks and records a single attempt for
// the given key. It returns whether the attempt was admitted, the number of
// attempts currently recorded in the window, and the timestamp (Redis server
// clock) of the oldest attempt still counted against the window.
func (c *Client) RecordRateLimitAttempt(ctx context.Context, key string, limit int, window time.Duration) (bool, int, time.Time, error) {
	result, err := recordAttemptScript.Run(ctx, c.rdb, []string{key}, limit, window.Milliseconds()).Result()
	if err != nil {
		return false, 0, time.Time{}, fmt.Errorf("failed to record rate limit attempt: %w", err)
	}

	values, ok := result.([]interface{})
	if !ok || len(values) != 4 {
		return false, 0, time.Time{}, fmt.Errorf("unexpected rate limit script result: %v", result)
	}

	allowed, _ := values[0].(int64)
	count, _ := values[1].(int64)
	oldestMillis, _ := values[3].(int64)

	return allowed == 1, int(count), time.UnixMilli(oldestMillis), nil
}

// CountRateLimitSince returns the number of recorded attempts for the key
// with a timestamp strictly after the given instant.
func (c *Client) CountRateLimitSince(ctx context.Context, key string, since time.Time) (int, error) {
	count, err := c.rdb.ZCount(ctx, key, fmt.Sprintf("(%d", since.UnixMilli()), "+inf").Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count rate limit attempts: %w", err)
	}
	return int(count), nil
}

// PurgeRateLimitEvents removes recorded attempts older than the given instant
// from every key matching the prefix. Entries also expire on their own via
// PEXPIRE; this exists so operators can reclaim space eagerly.
func (c *Client) PurgeRateLimitEvents(ctx context.Context, keyPrefix string, olderThan time.Time) (int, error) {
	var removed int64
	cutoff := fmt.Sprintf("%d", olderThan.UnixMilli())

	iter := c.rdb.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		n, err := c.rdb.ZRemRangeByScore(ctx, iter.Val(), "0", cutoff).Result()
		if err != nil {
			return int(removed), fmt.Errorf("failed to purge rate limit events: %w", err)
		}
		removed += n
	}
	if err := iter.Err(); err != nil {
		return int(removed), fmt.Errorf("failed to scan rate limit keys: %w", err)
	}

	return int(removed), nil
}

// Distributed locking methods
func (c *Client) AcquireLock(ctx context.Context, key string, expiration time.Duration) (bool, error) {
	result, err := c.rdb.SetNX(ctx, fmt.Sprintf("lock:%s", key), "locked", expiration).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock: %w", err)
	}
	return result, nil
}

func (c *Client) ReleaseLock(ctx context.Context, key string) error {
	_, err := c.rdb.Del(ctx, fmt.Sprintf("lock:%s", key)).Result()
	if err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}

func (c *Client) ExtendLock(ctx context.Context, key string, expiration time.Duration) error {
	lockKey := fmt.Sprintf("lock:%s", key)
	exists, err := c.rdb.Exists(ctx, lockKey).Result()
	if err != nil {
		return fmt.Errorf("failed to check lock existence: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("lock does not exist")
	}

	_, err = c.rdb.Expire(ctx, lockKey, expiration).Result()
	if err != nil {
		return fmt.Errorf("failed to extend lock: %w", err)
	}
	return nil
}

// Key-value operations for caching and state
func (c *Client) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	var data []byte
	var err error

	switch v := value.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		data, err = json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to marshal value: %w", err)
		}
	}

	return c.rdb.Set(ctx, key, data, expiration).Err()
}

func (c *Client) Get(ctx context.Context, key string) (string, error) {
	return c.rdb.Get(ctx, key).Result()
}

func (c *Client) GetJSON(ctx context.Context, key string, dest interface{}) error {
	data, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(data), dest)
}

func (c *Client) Delete(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, key).Err()
}

func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	count, err := c.rdb.Exists(ctx, key).Result()
	return count > 0, err
}
