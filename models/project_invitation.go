package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProjectInvitation 项目邀请，ID 即邀请令牌
type ProjectInvitation struct {
	ID        uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	ProjectID uuid.UUID `json:"project_id" gorm:"type:char(36);index;not null"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:char(36);index;not null"`
	ExpiresAt time.Time `json:"expires_at" gorm:"not null"`
	IsUsed    bool      `json:"is_used" gorm:"default:false"`
	CreatedAt time.Time `json:"created_at"`
	Project   *Project  `json:"project,omitempty" gorm:"foreignKey:ProjectID"`
}

// TableName 设置表名
func (ProjectInvitation) TableName() string {
	return "project_invitations"
}

func (i *ProjectInvitation) BeforeCreate(tx *gorm.DB) error {
	ensureID(&i.ID)
	return nil
}

// IsExpired 检查邀请是否过期
func (i *ProjectInvitation) IsExpired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}

// IsValid 未使用且未过期
func (i *ProjectInvitation) IsValid(now time.Time) bool {
	return !i.IsUsed && !i.IsExpired(now)
}
