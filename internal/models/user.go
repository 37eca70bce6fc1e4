package models

import (
	"time"
)

// User 账户模型。联系人与黑名单通过中间表维护，保证集合语义（无重复引用）。
type User struct {
	ID uint `gorm:"primaryKey" json:"id"`

	Name         string `gorm:"not null" json:"name"`
	Nickname     string `gorm:"uniqueIndex;not null" json:"nickname"`
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`

	ProfilePic       string `json:"profile_pic"`
	ShowOnlineStatus bool   `gorm:"default:true" json:"show_online_status"`

	// IsActive false 表示软删除，常规查询一律过滤
	IsActive bool `gorm:"default:true" json:"-"`

	PasswordChangedAt    *time.Time `json:"-"`
	PasswordResetToken   string     `json:"-"` // sha256 hex，原始 token 只存在于重置邮件中
	PasswordResetExpires *time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"-"`

	Contacts     []User `gorm:"many2many:user_contacts;joinForeignKey:UserID;joinReferences:ContactID" json:"-"`
	BlockedUsers []User `gorm:"many2many:user_blocks;joinForeignKey:UserID;joinReferences:BlockedID" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// UserContact 联系人中间表，联合主键即集合语义
type UserContact struct {
	UserID    uint `gorm:"primaryKey"`
	ContactID uint `gorm:"primaryKey"`
}

func (UserContact) TableName() string {
	return "user_contacts"
}

// UserBlock 黑名单中间表
type UserBlock struct {
	UserID    uint `gorm:"primaryKey"`
	BlockedID uint `gorm:"primaryKey"`
}

func (UserBlock) TableName() string {
	return "user_blocks"
}
