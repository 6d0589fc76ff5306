package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "minishop:ratelimit:"

// 令牌桶脚本：按毫秒时间补充令牌，返回 {是否允许, 需等待毫秒数, 剩余令牌}。
const tokenBucketLua = `
local key = KEYS[1]
local rate = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local requested = tonumber(ARGV[4])

if rate <= 0 or burst <= 0 then
  return {1, 0, burst}
end

local data = redis.call("HMGET", key, "tokens", "ts")
local tokens = tonumber(data[1])
local ts = tonumber(data[2])
if tokens == nil then
  tokens = burst
end
if ts == nil then
  ts = now
end

local delta = math.max(0, now - ts)
local refill = (delta * rate) / 1000.0
tokens = math.min(burst, tokens + refill)

local allowed = tokens >= requested
local wait_ms = 0
if allowed then
  tokens = tokens - requested
else
  wait_ms = math.ceil((requested - tokens) * 1000.0 / rate)
end

redis.call("HMSET", key, "tokens", tokens, "ts", now)
redis.call("PEXPIRE", key, math.ceil((burst / rate) * 1000.0 * 2))

return {allowed and 1 or 0, wait_ms, tokens}
`

// Limiter 是基于 Redis 的分布式令牌桶限流器。
//
// 每个作用域（如 "login"）一个 Limiter，实际的桶按调用方传入的
// key（通常是客户端 IP）区分。
type Limiter struct {
	rdb    *redis.Client
	scope  string
	rate   float64
	burst  float64
	script *redis.Script
}

// NewRedisLimiter 创建限流器。rate 为每秒补充的令牌数，burst 为桶容量。
func NewRedisLimiter(rdb *redis.Client, scope string, rate float64, burst float64) *Limiter {
	if scope == "" {
		scope = "default"
	}
	return &Limiter{
		rdb:    rdb,
		scope:  scope,
		rate:   rate,
		burst:  burst,
		script: redis.NewScript(tokenBucketLua),
	}
}

// Scope 返回限流器的作用域名称。
func (l *Limiter) Scope() string { return l.scope }

// Allow 尝试取一个令牌，立即返回是否允许（HTTP 路径不等待）。
//
// Redis 故障时放行：限流是保护手段，不应成为单点。
func (l *Limiter) Allow(ctx context.Context, key string) (bool, error) {
	if l == nil || l.rate <= 0 || l.burst <= 0 {
		return true, nil
	}

	now := time.Now().UnixMilli()
	bucketKey := keyPrefix + l.scope + ":" + key
	res, err := l.script.Run(ctx, l.rdb, []string{bucketKey}, l.rate, l.burst, now, 1).Result()
	if err != nil {
		return true, fmt.Errorf("ratelimit eval: %w", err)
	}

	values, ok := res.([]interface{})
	if !ok || len(values) < 2 {
		return true, fmt.Errorf("ratelimit invalid result")
	}

	return toInt64(values[0]) == 1, nil
}

func toInt64(v interface{}) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case float64:
		return int64(t)
	case string:
		if t == "" {
			return 0
		}
		if parsed, err := strconv.ParseInt(t, 10, 64); err == nil {
			return parsed
		}
	}
	return 0
}
