package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Kostikrut/bubbly-back/internal/services"
	logger "github.com/Kostikrut/bubbly-back/middleware/log"
)

// AuthHandler 认证处理器
type AuthHandler struct {
	authService *services.AuthService
	logger      *logger.Logger
}

// NewAuthHandler 创建认证处理器实例
func NewAuthHandler(authService *services.AuthService, log *logger.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      log,
	}
}

// Signup 用户注册
func (h *AuthHandler) Signup(c *gin.Context) {
	var req services.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.authService.Signup(&req)
	if err != nil {
		h.logger.WithContext(c.Request.Context()).Warn("signup failed", zap.Error(err))
		fail(c, err)
		return
	}

	h.setSessionCookie(c, resp.Token)
	ok(c, http.StatusCreated, resp)
}

// Login 用户登录
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.authService.Login(&req)
	if err != nil {
		fail(c, err)
		return
	}

	h.setSessionCookie(c, resp.Token)
	ok(c, http.StatusOK, resp)
}

// Logout 用户登出，清除会话 cookie
func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetCookie("jwt", "", -1, "/", "", false, true)
	ok(c, http.StatusOK, gin.H{"message": "logged out successfully"})
}

// CheckAuth 会话检查
func (h *AuthHandler) CheckAuth(c *gin.Context) {
	userID, found := currentUserID(c)
	if !found {
		return
	}

	user, err := h.authService.CheckAuth(userID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"user": user})
}

// ForgotPasswordRequest 重置链接请求
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required"`
}

// ForgotPassword 发送密码重置邮件
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.authService.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"message": "reset link sent to the provided email"})
}

// ResetPasswordRequest 重置密码请求
type ResetPasswordRequest struct {
	Password        string `json:"password" binding:"required"`
	PasswordConfirm string `json:"password_confirm" binding:"required"`
}

// ResetPassword 根据邮件中的 token 重置密码
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.authService.ResetPassword(c.Param("token"), req.Password, req.PasswordConfirm)
	if err != nil {
		fail(c, err)
		return
	}

	h.setSessionCookie(c, resp.Token)
	ok(c, http.StatusOK, resp)
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, token string) {
	// MaxAge 与 token 有效期的精确对齐不做要求，token 本身携带过期时间
	c.SetCookie("jwt", token, 24*3600, "/", "", false, true)
}
