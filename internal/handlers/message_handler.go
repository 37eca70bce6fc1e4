package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Kostikrut/bubbly-back/internal/services"
	logger "github.com/Kostikrut/bubbly-back/middleware/log"
)

// MessageHandler 私聊消息处理器
type MessageHandler struct {
	messageService *services.MessageService
	logger         *logger.Logger
}

// NewMessageHandler 创建消息处理器实例
func NewMessageHandler(messageService *services.MessageService, log *logger.Logger) *MessageHandler {
	return &MessageHandler{
		messageService: messageService,
		logger:         log,
	}
}

// GetMessages 获取与指定联系人的全部消息
func (h *MessageHandler) GetMessages(c *gin.Context) {
	userID, found := currentUserID(c)
	if !found {
		return
	}
	contactID, found := pathID(c, "id")
	if !found {
		return
	}

	messages, err := h.messageService.GetMessages(userID, contactID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"messages": messages})
}

// SendMessage 发送消息
func (h *MessageHandler) SendMessage(c *gin.Context) {
	userID, found := currentUserID(c)
	if !found {
		return
	}
	receiverID, found := pathID(c, "id")
	if !found {
		return
	}

	var req services.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.messageService.SendMessage(c.Request.Context(), userID, receiverID, &req)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusCreated, gin.H{"message": msg})
}

// DeleteManyMessages 批量删除消息
func (h *MessageHandler) DeleteManyMessages(c *gin.Context) {
	userID, found := currentUserID(c)
	if !found {
		return
	}

	var req services.DeleteManyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.messageService.DeleteMany(userID, &req); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
