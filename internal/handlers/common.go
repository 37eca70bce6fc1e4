package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Kostikrut/bubbly-back/internal/services"
)

// statusFor 将服务层错误映射为 HTTP 状态码
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrInvalidCredential):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrBlockedByContact), errors.Is(err, services.ErrBlockedContact):
		return http.StatusForbidden
	case errors.Is(err, services.ErrUserNotFound), errors.Is(err, services.ErrNoMessages):
		return http.StatusNotFound
	case errors.Is(err, services.ErrUserExists), errors.Is(err, services.ErrResetTokenInvalid):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func fail(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{
		"error": err.Error(),
	})
}

func ok(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"code":    0,
		"message": "success",
		"data":    data,
	})
}

// currentUserID 从认证中间件写入的上下文取当前用户
func currentUserID(c *gin.Context) (uint, bool) {
	v, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return 0, false
	}
	return v.(uint), true
}

// pathID 解析路径参数中的用户/联系人 ID
func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "please provide a valid user id"})
		return 0, false
	}
	return uint(id), true
}
