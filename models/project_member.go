package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProjectMember 项目成员，budget 为从项目资金池分配给该成员的额度
type ProjectMember struct {
	ID        uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	ProjectID uuid.UUID `json:"project_id" gorm:"type:char(36);not null;uniqueIndex:uniq_project_member"`
	MemberID  uuid.UUID `json:"member_id" gorm:"type:char(36);not null;uniqueIndex:uniq_project_member"`
	Budget    int64     `json:"budget" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"created_at"`
	Member    *User     `json:"member,omitempty" gorm:"foreignKey:MemberID"`
}

// TableName 设置表名
func (ProjectMember) TableName() string {
	return "project_members"
}

func (m *ProjectMember) BeforeCreate(tx *gorm.DB) error {
	ensureID(&m.ID)
	return nil
}
