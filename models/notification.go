package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	NotificationPending = "pending"
	NotificationSending = "sending"
	NotificationSent    = "sent"
	NotificationFailed  = "failed"
)

// Notification 待投递的通知（outbox），与业务数据在同一事务中写入
type Notification struct {
	ID        uuid.UUID  `json:"id" gorm:"type:char(36);primaryKey"`
	Template  string     `json:"template" gorm:"size:64;not null"`
	Recipient string     `json:"recipient" gorm:"size:100;not null"`
	Context   string     `json:"context" gorm:"type:text"` // JSON
	Status    string     `json:"status" gorm:"size:10;not null;default:pending;index"`
	Attempts  int        `json:"attempts" gorm:"not null;default:0"`
	LastError string     `json:"last_error" gorm:"type:text"`
	SentAt    *time.Time `json:"sent_at"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// TableName 设置表名
func (Notification) TableName() string {
	return "notifications"
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	ensureID(&n.ID)
	if n.Status == "" {
		n.Status = NotificationPending
	}
	return nil
}
