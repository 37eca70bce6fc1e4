package middlewares

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Kostikrut/bubbly-back/pkg/ratelimit"
)

// RateLimitMiddleware 按规则限流。已认证请求按用户计数，匿名请求按客户端 IP。
// 限流器故障时的放行 / 拒绝策略由 Limiter 自身的 fallback 配置决定。
func RateLimitMiddleware(limiter ratelimit.Limiter, group string, rule ratelimit.Rule) gin.HandlerFunc {
	return func(c *gin.Context) {
		var key string
		if userID, exists := c.Get("user_id"); exists {
			key = fmt.Sprintf("%s:user:%v", group, userID)
		} else {
			key = fmt.Sprintf("%s:ip:%s", group, c.ClientIP())
		}

		allowed, err := limiter.Allow(c.Request.Context(), key, rule.Limit, rule.Window)
		if err != nil || !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "too many requests, please try again later",
			})
			return
		}
		c.Next()
	}
}
