package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Project 项目，total_budget 为尚未分配给成员的资金池（最小货币单位）
type Project struct {
	ID          uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	ManagerID   uuid.UUID `json:"manager_id" gorm:"type:char(36);index;not null"`
	Name        string    `json:"name" gorm:"size:255;not null"`
	Description string    `json:"description" gorm:"type:text"`
	TotalBudget int64     `json:"total_budget" gorm:"not null;default:0"`
	Status      bool      `json:"status" gorm:"default:false"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Manager     *User     `json:"manager,omitempty" gorm:"foreignKey:ManagerID"`
}

// TableName 设置表名
func (Project) TableName() string {
	return "projects"
}

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// ProjectCategory 项目内的消费类别，同一项目内名称唯一
type ProjectCategory struct {
	ID        uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	ProjectID uuid.UUID `json:"project_id" gorm:"type:char(36);not null;uniqueIndex:uniq_project_category"`
	Name      string    `json:"name" gorm:"size:255;not null;uniqueIndex:uniq_project_category"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName 设置表名
func (ProjectCategory) TableName() string {
	return "project_categories"
}

func (c *ProjectCategory) BeforeCreate(tx *gorm.DB) error {
	ensureID(&c.ID)
	return nil
}
