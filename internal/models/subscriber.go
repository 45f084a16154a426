package models

import (
	"time"
)

// NewsletterSubscriber 订阅记录表
type NewsletterSubscriber struct {
	ID        uint      `gorm:"primarykey" json:"id"`               // 主键
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`  // 订阅邮箱
	SessionID string    `gorm:"index" json:"session_id"`            // 提交会话
	CreatedAt time.Time `gorm:"index" json:"created_at"`            // 创建时间
}

// TableName 指定表名
func (NewsletterSubscriber) TableName() string {
	return "newsletter_subscribers"
}
