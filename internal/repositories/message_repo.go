package repositories

import (
	"gorm.io/gorm"

	"github.com/Kostikrut/bubbly-back/internal/models"
)

// MessageRepository 消息仓储
type MessageRepository struct {
	db *gorm.DB
}

// NewMessageRepository 创建消息仓储实例
func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create 持久化一条消息
func (r *MessageRepository) Create(msg *models.Message) error {
	return r.db.Create(msg).Error
}

// FindBetween 获取两个用户之间的全部消息，按创建时间升序，预加载双方信息
func (r *MessageRepository) FindBetween(userA, userB uint) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			userA, userB, userB, userA).
		Order("created_at asc").
		Preload("Sender").
		Preload("Receiver").
		Find(&messages).Error
	return messages, err
}

// MarkRead 批量将 sender -> receiver 的未读消息置为已读，返回受影响行数。
// 重复调用幂等：已读消息不在过滤条件内。
func (r *MessageRepository) MarkRead(senderID, receiverID uint) (int64, error) {
	res := r.db.Model(&models.Message{}).
		Where("sender_id = ? AND receiver_id = ? AND is_read = ?", senderID, receiverID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}

// DeleteConversation 删除 userID 与 otherID 之间的消息。
// onlyForMe 为 true 时仅删除 userID 发出的一侧。
func (r *MessageRepository) DeleteConversation(userID, otherID uint, onlyForMe bool) (int64, error) {
	var res *gorm.DB
	if onlyForMe {
		res = r.db.Where("sender_id = ? AND receiver_id = ?", userID, otherID).
			Delete(&models.Message{})
	} else {
		res = r.db.Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			userID, otherID, otherID, userID).
			Delete(&models.Message{})
	}
	return res.RowsAffected, res.Error
}

// DeleteAll 删除 userID 的全部消息。onlyForMe 为 true 时仅删除其发出的消息。
func (r *MessageRepository) DeleteAll(userID uint, onlyForMe bool) (int64, error) {
	var res *gorm.DB
	if onlyForMe {
		res = r.db.Where("sender_id = ?", userID).Delete(&models.Message{})
	} else {
		res = r.db.Where("sender_id = ? OR receiver_id = ?", userID, userID).Delete(&models.Message{})
	}
	return res.RowsAffected, res.Error
}
