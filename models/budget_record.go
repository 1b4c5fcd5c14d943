package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BudgetRecordNotesMaxLen 预算记录备注最大长度（字符数）
const BudgetRecordNotesMaxLen = 50

// ProjectBudgetRecord 项目预算收支记录，收入增加 total_budget，支出减少 total_budget
type ProjectBudgetRecord struct {
	ID         uuid.UUID  `json:"id" gorm:"type:char(36);primaryKey"`
	ProjectID  uuid.UUID  `json:"project_id" gorm:"type:char(36);index;not null"`
	MemberID   *uuid.UUID `json:"member_id" gorm:"type:char(36);index"`
	Amount     int64      `json:"amount" gorm:"not null"`
	IsIncome   bool       `json:"is_income" gorm:"not null"`
	Notes      string     `json:"notes" gorm:"size:50"`
	IsEditable bool       `json:"is_editable" gorm:"not null;default:false"`
	CreatedAt  time.Time  `json:"created_at"`
}

// TableName 设置表名
func (ProjectBudgetRecord) TableName() string {
	return "project_budget_records"
}

func (r *ProjectBudgetRecord) BeforeCreate(tx *gorm.DB) error {
	ensureID(&r.ID)
	return nil
}

// Effect 记录对 total_budget 的影响（收入为正，支出为负）
func (r *ProjectBudgetRecord) Effect() int64 {
	if r.IsIncome {
		return r.Amount
	}
	return -r.Amount
}
