package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Kostikrut/bubbly-back/internal/services"
	logger "github.com/Kostikrut/bubbly-back/middleware/log"
)

// UserHandler 用户资料、联系人与黑名单处理器
type UserHandler struct {
	userService *services.UserService
	logger      *logger.Logger
}

// NewUserHandler 创建用户处理器实例
func NewUserHandler(userService *services.UserService, log *logger.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      log,
	}
}

// UpdateProfile 更新资料
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID, found := currentUserID(c)
	if !found {
		return
	}

	var req services.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.userService.UpdateProfile(userID, &req)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"user": user})
}

// UpdateOnlineStatusRequest 在线状态可见性请求
type UpdateOnlineStatusRequest struct {
	ShowOnlineStatus *bool `json:"show_online_status" binding:"required"`
}

// UpdateOnlineStatus 切换在线状态可见性
func (h *UserHandler) UpdateOnlineStatus(c *gin.Context) {
	userID, found := currentUserID(c)
	if !found {
		return
	}

	var req UpdateOnlineStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "please provide a status"})
		return
	}

	user, err := h.userService.UpdateOnlineStatus(userID, *req.ShowOnlineStatus)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"user": user})
}

// UpdateProfilePicRequest 头像上传请求，data URI 格式
type UpdateProfilePicRequest struct {
	ProfilePic string `json:"profile_pic" binding:"required"`
}

// UpdateProfilePic 上传并更新头像
func (h *UserHandler) UpdateProfilePic(c *gin.Context) {
	userID, found := currentUserID(c)
	if !found {
		return
	}

	var req UpdateProfilePicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "please provide a profile picture"})
		return
	}

	user, err := h.userService.UpdateProfilePic(c.Request.Context(), userID, req.ProfilePic)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"user": user})
}

// SetChatWallpaperRequest 壁纸上传请求
type SetChatWallpaperRequest struct {
	Wallpaper string `json:"wallpaper" binding:"required"`
}

// SetChatWallpaper 上传聊天壁纸
func (h *UserHandler) SetChatWallpaper(c *gin.Context) {
	var req SetChatWallpaperRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "please provide a wallpaper"})
		return
	}

	url, err := h.userService.SetChatWallpaper(c.Request.Context(), req.Wallpaper)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"wallpaper": url})
}

// GetAllUsers 获取除本人外的全部用户
func (h *UserHandler) GetAllUsers(c *gin.Context) {
	userID, found := currentUserID(c)
	if !found {
		return
	}

	users, err := h.userService.AllUsers(userID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"users": users})
}

// SearchUsers 按关键词搜索用户，支持 page/limit 分页
func (h *UserHandler) SearchUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	users, total, err := h.userService.Search(c.Query("search"), page, limit)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{
		"users":       users,
		"total_users": total,
	})
}

// GetContacts 获取联系人列表
func (h *UserHandler) GetContacts(c *gin.Context) {
	userID, found := currentUserID(c)
	if !found {
		return
	}

	users, err := h.userService.Contacts(userID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"users": users})
}

// AddToContacts 添加联系人
func (h *UserHandler) AddToContacts(c *gin.Context) {
	userID, found := currentUserID(c)
	if !found {
		return
	}
	contactID, found := pathID(c, "id")
	if !found {
		return
	}

	users, err := h.userService.AddContact(userID, contactID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"users": users})
}

// RemoveFromContacts 移除联系人
func (h *UserHandler) RemoveFromContacts(c *gin.Context) {
	userID, found := currentUserID(c)
	if !found {
		return
	}
	contactID, found := pathID(c, "id")
	if !found {
		return
	}

	users, err := h.userService.RemoveContact(userID, contactID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"users": users})
}

// GetBlockedUsers 获取黑名单
func (h *UserHandler) GetBlockedUsers(c *gin.Context) {
	userID, found := currentUserID(c)
	if !found {
		return
	}

	users, err := h.userService.Blocked(userID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"users": users})
}

// BlockUser 拉黑用户
func (h *UserHandler) BlockUser(c *gin.Context) {
	userID, found := currentUserID(c)
	if !found {
		return
	}
	blockedID, found := pathID(c, "id")
	if !found {
		return
	}

	users, err := h.userService.Block(userID, blockedID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"users": users})
}

// UnblockUser 解除拉黑
func (h *UserHandler) UnblockUser(c *gin.Context) {
	userID, found := currentUserID(c)
	if !found {
		return
	}
	blockedID, found := pathID(c, "id")
	if !found {
		return
	}

	users, err := h.userService.Unblock(userID, blockedID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"users": users})
}
