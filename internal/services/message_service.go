package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Kostikrut/bubbly-back/internal/media"
	"github.com/Kostikrut/bubbly-back/internal/models"
	"github.com/Kostikrut/bubbly-back/internal/repositories"
	logger "github.com/Kostikrut/bubbly-back/middleware/log"
)

// MessagePusher 实时推送入口：接收方在线时立即送达
type MessagePusher interface {
	PushNewMessage(msg *models.Message) bool
}

// MessagePublisher 将已持久化的消息发布到消息队列，供其他节点中继
type MessagePublisher interface {
	PublishMessage(msg *models.Message) error
}

// MessageService 私聊消息服务
type MessageService struct {
	messageRepo *repositories.MessageRepository
	userRepo    *repositories.UserRepository
	uploader    media.Uploader
	pusher      MessagePusher
	publisher   MessagePublisher // 可为 nil（降级模式：仅本节点推送）
	logger      *logger.Logger
}

// NewMessageService 创建消息服务实例
func NewMessageService(messageRepo *repositories.MessageRepository, userRepo *repositories.UserRepository, uploader media.Uploader, pusher MessagePusher, publisher MessagePublisher, log *logger.Logger) *MessageService {
	return &MessageService{
		messageRepo: messageRepo,
		userRepo:    userRepo,
		uploader:    uploader,
		pusher:      pusher,
		publisher:   publisher,
		logger:      log,
	}
}

// checkBlocked 双向拉黑检查：对方拉黑了我，或我拉黑了对方，都禁止会话访问
func (s *MessageService) checkBlocked(userID, contactID uint) error {
	if _, err := s.userRepo.GetByID(contactID); err != nil {
		return ErrUserNotFound
	}

	if blocked, err := s.userRepo.HasBlocked(contactID, userID); err != nil {
		return err
	} else if blocked {
		return ErrBlockedByContact
	}

	if blocked, err := s.userRepo.HasBlocked(userID, contactID); err != nil {
		return err
	} else if blocked {
		return ErrBlockedContact
	}

	return nil
}

// GetMessages 获取与指定联系人的全部消息，按时间升序
func (s *MessageService) GetMessages(userID, contactID uint) ([]models.Message, error) {
	if err := s.checkBlocked(userID, contactID); err != nil {
		return nil, err
	}
	return s.messageRepo.FindBetween(userID, contactID)
}

// SendMessageRequest 发送消息请求。媒体字段均为 base64 data URI。
type SendMessageRequest struct {
	Text  string `json:"text"`
	Image string `json:"image"`
	Video string `json:"video"`
	Voice string `json:"voice"`
	File  string `json:"file"`
}

// 各媒体种类要求的 data URI 前缀
var mediaPrefixes = map[string]string{
	models.MediaKindImage: "data:image/",
	models.MediaKindVideo: "data:video/",
	models.MediaKindVoice: "data:audio/",
	models.MediaKindFile:  "data:application/",
}

func (r *SendMessageRequest) mediaPayload(kind string) string {
	switch kind {
	case models.MediaKindImage:
		return r.Image
	case models.MediaKindVideo:
		return r.Video
	case models.MediaKindVoice:
		return r.Voice
	default:
		return r.File
	}
}

// SendMessage 校验、上传媒体并持久化消息。持久化成功后在同一请求周期内
// 推送给在线的接收方，并发布到消息队列供其他节点中继。
func (s *MessageService) SendMessage(ctx context.Context, senderID, receiverID uint, req *SendMessageRequest) (*models.Message, error) {
	if req.Text == "" && req.Image == "" && req.Video == "" && req.Voice == "" && req.File == "" {
		return nil, fmt.Errorf("%w: please provide a message", ErrValidation)
	}

	if err := s.checkBlocked(senderID, receiverID); err != nil {
		return nil, err
	}

	// 媒体前缀校验先于任何上传，避免部分上传后才失败
	for _, kind := range models.MediaKinds {
		payload := req.mediaPayload(kind)
		if payload != "" && !strings.HasPrefix(payload, mediaPrefixes[kind]) {
			return nil, fmt.Errorf("%w: invalid %s format", ErrValidation, kind)
		}
	}

	msg := &models.Message{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Text:       req.Text,
	}

	for _, kind := range models.MediaKinds {
		payload := req.mediaPayload(kind)
		if payload == "" {
			continue
		}
		url, err := s.uploader.Upload(ctx, payload)
		if err != nil {
			s.logger.WithContext(ctx).Error("failed to upload message media",
				zap.Uint("sender_id", senderID),
				zap.String("kind", kind),
				zap.Error(err),
			)
			return nil, ErrUploadFailed
		}
		switch kind {
		case models.MediaKindImage:
			msg.Image = url
		case models.MediaKindVideo:
			msg.Video = url
		case models.MediaKindVoice:
			msg.Voice = url
		case models.MediaKindFile:
			msg.File = url
		}
	}

	if err := s.messageRepo.Create(msg); err != nil {
		return nil, err
	}

	// 本节点在线则直接推送；跨节点送达交给消息队列
	delivered := s.pusher.PushNewMessage(msg)

	if s.publisher != nil && !delivered {
		if err := s.publisher.PublishMessage(msg); err != nil {
			s.logger.WithContext(ctx).Warn("failed to publish message to relay queue",
				zap.Uint("message_id", msg.ID),
				zap.Error(err),
			)
		}
	}

	return msg, nil
}

// DeleteManyRequest 批量删除请求。ForUserID 为 0 表示删除全部会话。
type DeleteManyRequest struct {
	ForUserID uint `json:"for_user_id"`
	OnlyForMe bool `json:"only_for_me"`
}

// DeleteMany 批量删除消息，无命中时返回 ErrNoMessages
func (s *MessageService) DeleteMany(userID uint, req *DeleteManyRequest) error {
	var (
		deleted int64
		err     error
	)
	if req.ForUserID != 0 {
		deleted, err = s.messageRepo.DeleteConversation(userID, req.ForUserID, req.OnlyForMe)
	} else {
		deleted, err = s.messageRepo.DeleteAll(userID, req.OnlyForMe)
	}
	if err != nil {
		return err
	}
	if deleted == 0 {
		return ErrNoMessages
	}
	return nil
}
