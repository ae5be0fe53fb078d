package budget

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Increments KEYS[1] only while it is below ARGV[1]. Returns {allowed, count}.
var incrementBelowLimit = redis.NewScript(`
local current = tonumber(redis.call("GET", KEYS[1]) or "0")
if current >= tonumber(ARGV[1]) then
	return {0, current}
end
current = redis.call("INCR", KEYS[1])
if current == 1 then
	redis.call("EXPIRE", KEYS[1], ARGV[2])
end
return {1, current}
`)

type RedisCounter struct {
	client    redis.Cmdable
	keyPrefix string
	retention time.Duration
}

func NewRedisCounter(client redis.Cmdable) *RedisCounter {
	return &RedisCounter{
		client:    client,
		keyPrefix: "flightgraph:budget:",
		retention: 48 * time.Hour,
	}
}

func (c *RedisCounter) key(day string) string {
	return c.keyPrefix + day
}

func (c *RedisCounter) TryIncrement(ctx context.Context, day string, limit int64) (Decision, error) {
	res, err := incrementBelowLimit.Run(ctx, c.client,
		[]string{c.key(day)}, limit, int64(c.retention.Seconds())).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("budget increment: %w", err)
	}
	if len(res) != 2 {
		return Decision{}, fmt.Errorf("budget increment: unexpected reply %v", res)
	}
	return Decision{
		Allowed: res[0] == 1,
		Count:   res[1],
		Limit:   limit,
		Day:     day,
	}, nil
}
