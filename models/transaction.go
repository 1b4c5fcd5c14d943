package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Transaction 成员消费记录，从成员额度中扣除
type Transaction struct {
	ID                    uuid.UUID        `json:"id" gorm:"type:char(36);primaryKey"`
	UserID                uuid.UUID        `json:"user_id" gorm:"type:char(36);index;not null"`
	ProjectID             uuid.UUID        `json:"project_id" gorm:"type:char(36);index;not null"`
	Amount                int64            `json:"amount" gorm:"not null"`
	TransactionNote       string           `json:"transaction_note" gorm:"type:text"`
	TransactionCategoryID uuid.UUID        `json:"transaction_category_id" gorm:"type:char(36);index;not null"`
	CreatedAt             time.Time        `json:"created_at"`
	UpdatedAt             time.Time        `json:"updated_at"`
	TransactionCategory   *ProjectCategory `json:"transaction_category,omitempty" gorm:"foreignKey:TransactionCategoryID"`
}

// TableName 设置表名
func (Transaction) TableName() string {
	return "transactions"
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	ensureID(&t.ID)
	return nil
}
