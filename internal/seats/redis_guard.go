package seats

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisSeatGuard is the cross-instance half of the single-holder guarantee.
// The engine's stripe mutexes serialize writers within one process; when
// several instances share the store, each batch checkout additionally
// claims a short-lived guard key per seat in Redis, atomically via Lua.
// Guard keys expire with the hold so a crashed instance never wedges a seat.
type RedisSeatGuard struct {
	redis *redis.Client
}

// NewRedisSeatGuard creates a guard over the given client
func NewRedisSeatGuard(redisClient *redis.Client) *RedisSeatGuard {
	return &RedisSeatGuard{redis: redisClient}
}

const guardKeyPrefix = "hallbook:seats:guard:"

// Lua script for atomic batch guard acquisition. Either every seat's guard
// is claimed for this session or none are.
const luaAcquireGuards = `
-- ARGV[1] = session token
-- ARGV[2] = ttl_seconds
-- ARGV[3..N] = seat ids

local session = ARGV[1]
local ttl = tonumber(ARGV[2])

-- Reject if any seat is guarded by another session
for i = 3, #ARGV do
    local key = "hallbook:seats:guard:" .. ARGV[i]
    local holder = redis.call("GET", key)
    if holder and holder ~= session then
        return {0, ARGV[i]}
    end
end

-- Claim all guards
for i = 3, #ARGV do
    local key = "hallbook:seats:guard:" .. ARGV[i]
    redis.call("SETEX", key, ttl, session)
end

return {1, "ok"}
`

// Lua script for guard release; only the owning session's guards are
// deleted so a late cancel cannot evict a newer holder.
const luaReleaseGuards = `
-- ARGV[1] = session token
-- ARGV[2..N] = seat ids

local session = ARGV[1]
local released = 0

for i = 2, #ARGV do
    local key = "hallbook:seats:guard:" .. ARGV[i]
    local holder = redis.call("GET", key)
    if holder == session then
        redis.call("DEL", key)
        released = released + 1
    end
end

return released
`

// Acquire atomically claims guard keys for every seat in the batch.
// Returns ErrConflictLost naming the first contested seat.
func (g *RedisSeatGuard) Acquire(ctx context.Context, session string, seatIDs []string, ttl time.Duration) error {
	if g.redis == nil {
		return nil
	}

	args := []interface{}{session, strconv.Itoa(int(ttl.Seconds()))}
	for _, id := range seatIDs {
		args = append(args, id)
	}

	result, err := g.redis.EvalSha(ctx, luaAcquireGuards, nil, args...).Result()
	if err != nil {
		result, err = g.redis.Eval(ctx, luaAcquireGuards, nil, args...).Result()
		if err != nil {
			return fmt.Errorf("failed to acquire seat guards: %w", err)
		}
	}

	resultArray, ok := result.([]interface{})
	if !ok || len(resultArray) != 2 {
		return fmt.Errorf("unexpected result format from guard script")
	}
	success, ok := resultArray[0].(int64)
	if !ok {
		return fmt.Errorf("invalid success flag in guard script result")
	}
	if success == 0 {
		if contested, ok := resultArray[1].(string); ok {
			return fmt.Errorf("%w: %s", ErrConflictLost, contested)
		}
		return ErrConflictLost
	}
	return nil
}

// Release drops this session's guards on the given seats. Returns how
// many were actually released.
func (g *RedisSeatGuard) Release(ctx context.Context, session string, seatIDs []string) (int, error) {
	if g.redis == nil {
		return 0, nil
	}

	args := []interface{}{session}
	for _, id := range seatIDs {
		args = append(args, id)
	}

	result, err := g.redis.EvalSha(ctx, luaReleaseGuards, nil, args...).Result()
	if err != nil {
		result, err = g.redis.Eval(ctx, luaReleaseGuards, nil, args...).Result()
		if err != nil {
			return 0, fmt.Errorf("failed to release seat guards: %w", err)
		}
	}

	released, ok := result.(int64)
	if !ok {
		return 0, fmt.Errorf("invalid released count from guard script")
	}
	return int(released), nil
}

// ForceRelease drops the guards on the given seats regardless of holder.
// Admin decline and reset free a seat for everyone, so the claim must not
// outlive the record.
func (g *RedisSeatGuard) ForceRelease(ctx context.Context, seatIDs []string) error {
	if g.redis == nil || len(seatIDs) == 0 {
		return nil
	}

	keys := make([]string, 0, len(seatIDs))
	for _, id := range seatIDs {
		keys = append(keys, guardKeyPrefix+id)
	}
	if err := g.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to force-release seat guards: %w", err)
	}
	return nil
}

// PreloadScripts loads the guard scripts into Redis so the EvalSha fast
// path hits on the first call
func (g *RedisSeatGuard) PreloadScripts(ctx context.Context) error {
	if g.redis == nil {
		return nil
	}
	if _, err := g.redis.ScriptLoad(ctx, luaAcquireGuards).Result(); err != nil {
		return fmt.Errorf("failed to load guard acquire script: %w", err)
	}
	if _, err := g.redis.ScriptLoad(ctx, luaReleaseGuards).Result(); err != nil {
		return fmt.Errorf("failed to load guard release script: %w", err)
	}
	return nil
}
