package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	BudgetRequestPending  = "pending"
	BudgetRequestApproved = "approved"
	BudgetRequestRejected = "rejected"
)

// BudgetRequest 成员向项目经理申请资金，只能被处理一次
type BudgetRequest struct {
	ID            uuid.UUID       `json:"id" gorm:"type:char(36);primaryKey"`
	ProjectID     uuid.UUID       `json:"project_id" gorm:"type:char(36);index;not null"`
	RequestedBy   uuid.UUID       `json:"requested_by" gorm:"type:char(36);index;not null"`
	RequestReason string          `json:"request_reason" gorm:"type:text"`
	Amount        decimal.Decimal `json:"amount" gorm:"type:decimal(12,2);not null"`
	Status        string          `json:"status" gorm:"size:10;not null;default:pending;index"`
	ResolveNote   string          `json:"resolve_note" gorm:"type:text"`
	ResolvedAt    *time.Time      `json:"resolved_at"`
	ResolvedBy    *uuid.UUID      `json:"resolved_by" gorm:"type:char(36)"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// TableName 设置表名
func (BudgetRequest) TableName() string {
	return "budget_requests"
}

func (r *BudgetRequest) BeforeCreate(tx *gorm.DB) error {
	ensureID(&r.ID)
	if r.Status == "" {
		r.Status = BudgetRequestPending
	}
	return nil
}

// IsPending 是否仍待处理
func (r *BudgetRequest) IsPending() bool {
	return r.Status == BudgetRequestPending
}
