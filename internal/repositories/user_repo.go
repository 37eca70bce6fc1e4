package repositories

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Kostikrut/bubbly-back/internal/models"
)

// UserRepository 用户仓储。所有常规查询过滤软删除用户（is_active = false）。
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建用户仓储实例
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) active() *gorm.DB {
	return r.db.Where("is_active = ?", true)
}

// Create 创建用户
func (r *UserRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// GetByID 根据 ID 获取用户
func (r *UserRepository) GetByID(id uint) (*models.User, error) {
	var user models.User
	if err := r.active().First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail 根据邮箱获取用户
func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.active().Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByNickname 根据昵称获取用户
func (r *UserRepository) GetByNickname(nickname string) (*models.User, error) {
	var user models.User
	if err := r.active().Where("nickname = ?", nickname).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// ExistsByEmail 检查邮箱是否已被占用
func (r *UserRepository) ExistsByEmail(email string) (bool, error) {
	var count int64
	err := r.db.Model(&models.User{}).Where("email = ? AND is_active = ?", email, true).Count(&count).Error
	return count > 0, err
}

// ExistsByNickname 检查昵称是否已被占用
func (r *UserRepository) ExistsByNickname(nickname string) (bool, error) {
	var count int64
	err := r.db.Model(&models.User{}).Where("nickname = ? AND is_active = ?", nickname, true).Count(&count).Error
	return count > 0, err
}

// Update 保存用户全量字段
func (r *UserRepository) Update(user *models.User) error {
	return r.db.Save(user).Error
}

// UpdateFields 部分字段更新
func (r *UserRepository) UpdateFields(id uint, fields map[string]interface{}) error {
	return r.db.Model(&models.User{}).Where("id = ?", id).Updates(fields).Error
}

// Deactivate 软删除用户
func (r *UserRepository) Deactivate(id uint) error {
	return r.UpdateFields(id, map[string]interface{}{"is_active": false})
}

// SetResetToken 写入密码重置 token 哈希与过期时间
func (r *UserRepository) SetResetToken(id uint, tokenHash string, expires time.Time) error {
	return r.UpdateFields(id, map[string]interface{}{
		"password_reset_token":   tokenHash,
		"password_reset_expires": expires,
	})
}

// ClearResetToken 清除重置 token（发送失败或重置完成后）
func (r *UserRepository) ClearResetToken(id uint) error {
	return r.UpdateFields(id, map[string]interface{}{
		"password_reset_token":   "",
		"password_reset_expires": nil,
	})
}

// GetByResetToken 根据未过期的重置 token 哈希查找用户
func (r *UserRepository) GetByResetToken(tokenHash string) (*models.User, error) {
	var user models.User
	err := r.active().
		Where("password_reset_token = ? AND password_reset_expires > ?", tokenHash, time.Now()).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ListAllExcept 获取除指定用户外的全部用户
func (r *UserRepository) ListAllExcept(userID uint) ([]models.User, error) {
	var users []models.User
	err := r.active().Where("id <> ?", userID).Find(&users).Error
	return users, err
}

// Search 按 name/nickname/email 模糊搜索，支持分页
func (r *UserRepository) Search(term string, limit, offset int) ([]models.User, int64, error) {
	var users []models.User
	var total int64

	pattern := "%" + term + "%"
	query := r.db.Model(&models.User{}).
		Where("is_active = ?", true).
		Where("name ILIKE ? OR nickname ILIKE ? OR email ILIKE ?", pattern, pattern, pattern)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Limit(limit).Offset(offset).Find(&users).Error
	return users, total, err
}

// AddContact 将 contactID 加入 userID 的联系人集合（重复添加为 no-op）
func (r *UserRepository) AddContact(userID, contactID uint) error {
	row := models.UserContact{UserID: userID, ContactID: contactID}
	return r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error
}

// RemoveContact 将 contactID 移出联系人集合（不存在时同样为 no-op）
func (r *UserRepository) RemoveContact(userID, contactID uint) error {
	return r.db.Delete(&models.UserContact{UserID: userID, ContactID: contactID}).Error
}

// GetContacts 获取联系人列表（按中间表插入先后无保证，按 ID 排序）
func (r *UserRepository) GetContacts(userID uint) ([]models.User, error) {
	var users []models.User
	err := r.db.
		Joins("JOIN user_contacts uc ON uc.contact_id = users.id").
		Where("uc.user_id = ? AND users.is_active = ?", userID, true).
		Order("users.id").
		Find(&users).Error
	return users, err
}

// AddBlock 拉黑
func (r *UserRepository) AddBlock(userID, blockedID uint) error {
	row := models.UserBlock{UserID: userID, BlockedID: blockedID}
	return r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error
}

// RemoveBlock 解除拉黑
func (r *UserRepository) RemoveBlock(userID, blockedID uint) error {
	return r.db.Delete(&models.UserBlock{UserID: userID, BlockedID: blockedID}).Error
}

// GetBlocked 获取黑名单用户列表
func (r *UserRepository) GetBlocked(userID uint) ([]models.User, error) {
	var users []models.User
	err := r.db.
		Joins("JOIN user_blocks ub ON ub.blocked_id = users.id").
		Where("ub.user_id = ? AND users.is_active = ?", userID, true).
		Order("users.id").
		Find(&users).Error
	return users, err
}

// HasBlocked 检查 userID 是否拉黑了 otherID
func (r *UserRepository) HasBlocked(userID, otherID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.UserBlock{}).
		Where("user_id = ? AND blocked_id = ?", userID, otherID).
		Count(&count).Error
	return count > 0, err
}
