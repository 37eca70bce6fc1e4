package models

import (
	"time"
)

// 媒体种类，导出渲染时按此固定顺序处理
const (
	MediaKindImage = "image"
	MediaKindVideo = "video"
	MediaKindVoice = "voice"
	MediaKindFile  = "file"
)

// MediaKinds 固定顺序：image, video, voice, file
var MediaKinds = []string{MediaKindImage, MediaKindVideo, MediaKindVoice, MediaKindFile}

// Message 私聊消息模型。除 IsRead（false -> true 单向）外不可变。
type Message struct {
	ID         uint `gorm:"primaryKey" json:"id"`
	SenderID   uint `gorm:"not null;index:idx_messages_sender_receiver" json:"sender_id"`
	ReceiverID uint `gorm:"not null;index:idx_messages_sender_receiver" json:"receiver_id"`

	Text  string `json:"text,omitempty"`
	Image string `json:"image,omitempty"`
	Video string `json:"video,omitempty"`
	Voice string `json:"voice,omitempty"`
	File  string `json:"file,omitempty"`

	IsRead    bool      `gorm:"default:false;index" json:"is_read"`
	CreatedAt time.Time `json:"created_at"`

	Sender   *User `gorm:"foreignKey:SenderID" json:"-"`
	Receiver *User `gorm:"foreignKey:ReceiverID" json:"-"`
}

func (Message) TableName() string {
	return "messages"
}

// HasContent 检查消息是否至少携带一种内容（文本或任一媒体）
func (m *Message) HasContent() bool {
	return m.Text != "" || m.Image != "" || m.Video != "" || m.Voice != "" || m.File != ""
}

// MediaURL 返回指定媒体种类对应的 URL，未设置时为空串
func (m *Message) MediaURL(kind string) string {
	switch kind {
	case MediaKindImage:
		return m.Image
	case MediaKindVideo:
		return m.Video
	case MediaKindVoice:
		return m.Voice
	case MediaKindFile:
		return m.File
	default:
		return ""
	}
}
