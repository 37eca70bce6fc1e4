package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Kostikrut/bubbly-back/internal/export"
	logger "github.com/Kostikrut/bubbly-back/middleware/log"
)

// ExportHandler 聊天记录导出处理器
type ExportHandler struct {
	exporter *export.Exporter
	logger   *logger.Logger
}

// NewExportHandler 创建导出处理器实例
func NewExportHandler(exporter *export.Exporter, log *logger.Logger) *ExportHandler {
	return &ExportHandler{
		exporter: exporter,
		logger:   log,
	}
}

// DownloadChatData 导出全部会话为 zip 并作为附件下载。
// 无论下载是否完成，临时目录与归档文件都会被清理。
func (h *ExportHandler) DownloadChatData(c *gin.Context) {
	userID, found := currentUserID(c)
	if !found {
		return
	}

	zipPath, cleanup, err := h.exporter.Export(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, export.ErrNoContacts) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.logger.WithContext(c.Request.Context()).Error("chat export failed",
			zap.Uint("user_id", userID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to export chat data"})
		return
	}
	defer cleanup()

	c.FileAttachment(zipPath, export.ArchiveName(userID))
}
