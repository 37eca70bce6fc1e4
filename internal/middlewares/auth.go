package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Kostikrut/bubbly-back/internal/repositories"
	"github.com/Kostikrut/bubbly-back/middleware/jwt"
)

// AuthMiddleware JWT 认证中间件。
// token 来源优先级：Authorization 头 > jwt cookie > query 参数（WebSocket 握手用）。
// 除签名校验外还检查密码修改时间：改密后签发的旧 token 一律拒绝。
func AuthMiddleware(tokens *jwt.TokenManager, userRepo *repositories.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var token string

		// 1. 尝试从请求头获取 token
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) == 2 && parts[0] == "Bearer" {
				token = parts[1]
			}
		}

		// 2. 尝试从会话 cookie 获取
		if token == "" {
			if cookie, err := c.Cookie("jwt"); err == nil {
				token = cookie
			}
		}

		// 3. 尝试从 Query 参数获取 (主要用于 WebSocket)
		if token == "" {
			token = c.Query("token")
		}

		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "you are not logged in, please log in to get access"})
			c.Abort()
			return
		}

		claims, err := tokens.ParseToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "token is invalid or has expired"})
			c.Abort()
			return
		}

		// 确认用户仍然存在（软删除后 token 立即失效）
		user, err := userRepo.GetByID(claims.UserID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "the user belonging to this token no longer exists"})
			c.Abort()
			return
		}

		// 改密后签发的 token 必须重新登录
		if user.PasswordChangedAt != nil && claims.IssuedAt != nil &&
			user.PasswordChangedAt.After(claims.IssuedAt.Time) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "user changed password recently, please log in again"})
			c.Abort()
			return
		}

		// 将 claims 存储在 context 中
		c.Set("user_id", claims.UserID)
		c.Set("nickname", claims.Nickname)
		c.Set("email", claims.Email)

		c.Next()
	}
}
