package middleware

import (
	"net/http"

	"minishop/internal/pkg/metrics"
	"minishop/internal/pkg/ratelimit"

	"github.com/gin-gonic/gin"
)

// RateLimit 按客户端 IP 限流, 超限返回 429。
// limiter 为 nil 或限流未启用时直接放行。
func RateLimit(limiter *ratelimit.Limiter, scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}
		allowed, err := limiter.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			// redis 故障时放行, 不拦截业务请求
			c.Next()
			return
		}
		if !allowed {
			metrics.RateLimitRejectedTotal.WithLabelValues(scope).Inc()
			c.JSON(http.StatusTooManyRequests, gin.H{"EC": 1, "EM": "Quá nhiều yêu cầu, vui lòng thử lại sau"})
			c.Abort()
			return
		}
		c.Next()
	}
}
