package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const sessionActiveKeyPrefix = "minishop:session:active:"

// SessionID 提取匿名会话标识, 优先级: x-session-id 头 > query > cookie。
func SessionID(c *gin.Context) string {
	if sid := c.GetHeader("x-session-id"); sid != "" {
		return sid
	}
	if sid := c.Query("sessionId"); sid != "" {
		return sid
	}
	if sid, err := c.Cookie("sessionId"); err == nil && sid != "" {
		return sid
	}
	return ""
}

// SessionActivityMiddleware 在 redis 里给匿名会话打活跃标记。
// 标记只用于观察会话存活, 写失败不影响请求。
func SessionActivityMiddleware(rdb *redis.Client, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, authed := c.Get("userID"); authed {
			c.Next()
			return
		}
		sid := SessionID(c)
		if sid == "" {
			c.Next()
			return
		}

		if ttl <= 0 {
			ttl = 30 * time.Minute
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		_ = rdb.Set(ctx, sessionActiveKeyPrefix+sid, "1", ttl).Err()

		c.Next()
	}
}
