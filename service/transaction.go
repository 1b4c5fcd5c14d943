package service

import (
	"context"

	"walet/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TransactionInput 成员消费
type TransactionInput struct {
	ProjectID  uuid.UUID
	ActorID    uuid.UUID
	CategoryID uuid.UUID
	Amount     int64
	Note       string
}

// UpdateTransactionInput 修改消费，nil 字段保持不变
type UpdateTransactionInput struct {
	TransactionID uuid.UUID
	ActorID       uuid.UUID
	Amount        *int64
	Note          *string
	CategoryID    *uuid.UUID
}

func checkCategory(tx *gorm.DB, projectID, categoryID uuid.UUID) error {
	var count int64
	err := tx.Model(&models.ProjectCategory{}).
		Where("id = ? AND project_id = ?", categoryID, projectID).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count == 0 {
		return validationf("Invalid transaction category")
	}
	return nil
}

// CreateTransaction 成员消费：从成员额度中扣除，不影响 total_budget
func (l *Ledger) CreateTransaction(ctx context.Context, in TransactionInput) (*models.Transaction, error) {
	if in.Amount < 0 {
		return nil, validationf(msgAmountNegative)
	}

	var (
		member *models.ProjectMember
		t      *models.Transaction
	)
	err := l.unitOfWork(ctx, func(tx *gorm.DB) error {
		if _, err := loadProject(tx, in.ProjectID); err != nil {
			return err
		}
		var err error
		if member, err = lockMember(tx, in.ProjectID, in.ActorID); err != nil {
			return err
		}
		if err := checkCategory(tx, in.ProjectID, in.CategoryID); err != nil {
			return err
		}
		if member.Budget < in.Amount {
			return insufficientFunds(msgNotEnoughAmount)
		}
		if err := adjustMemberBudget(tx, member, -in.Amount, msgNotEnoughAmount); err != nil {
			return err
		}
		t = &models.Transaction{
			UserID:                in.ActorID,
			ProjectID:             in.ProjectID,
			Amount:                in.Amount,
			TransactionNote:       in.Note,
			TransactionCategoryID: in.CategoryID,
		}
		return tx.Create(t).Error
	})
	if err != nil {
		return nil, err
	}

	l.afterCommit(ctx, BalanceEvent{
		Type:         EventTransactionCreated,
		ProjectID:    in.ProjectID,
		ActorID:      in.ActorID,
		MemberID:     &member.MemberID,
		MemberBudget: int64Ptr(member.Budget),
	})
	return t, nil
}

// lockOwnTransaction 锁定消费所属成员与消费记录，仅消费者本人可操作
func lockOwnTransaction(tx *gorm.DB, transactionID, actorID uuid.UUID, denyMsg string) (*models.Transaction, *models.ProjectMember, error) {
	var t models.Transaction
	if err := tx.First(&t, "id = ?", transactionID).Error; err != nil {
		return nil, nil, notFoundOr(err, msgTransactionNotFound)
	}
	if !isOwner(t.UserID, actorID) {
		return nil, nil, permissionDenied(denyMsg)
	}
	member, err := lockMember(tx, t.ProjectID, t.UserID)
	if err != nil {
		return nil, nil, err
	}
	if err := tx.Clauses(forUpdate).First(&t, "id = ?", transactionID).Error; err != nil {
		return nil, nil, notFoundOr(err, msgTransactionNotFound)
	}
	return &t, member, nil
}

// UpdateTransaction 修改消费：member.budget 变化量为 旧金额 - 新金额
func (l *Ledger) UpdateTransaction(ctx context.Context, in UpdateTransactionInput) (*models.Transaction, error) {
	if in.Amount != nil && *in.Amount < 0 {
		return nil, validationf(msgAmountNegative)
	}

	var (
		member *models.ProjectMember
		t      *models.Transaction
	)
	err := l.unitOfWork(ctx, func(tx *gorm.DB) error {
		var err error
		t, member, err = lockOwnTransaction(tx, in.TransactionID, in.ActorID,
			"You don't have permissions to update this transaction")
		if err != nil {
			return err
		}
		if in.CategoryID != nil {
			if err := checkCategory(tx, t.ProjectID, *in.CategoryID); err != nil {
				return err
			}
			t.TransactionCategoryID = *in.CategoryID
		}
		if in.Note != nil {
			t.TransactionNote = *in.Note
		}
		if in.Amount != nil {
			if member.Budget+t.Amount < *in.Amount {
				return insufficientFunds(msgNotEnoughAmount)
			}
			if err := adjustMemberBudget(tx, member, t.Amount-*in.Amount, msgNotEnoughAmount); err != nil {
				return err
			}
			t.Amount = *in.Amount
		}
		return tx.Save(t).Error
	})
	if err != nil {
		return nil, err
	}

	l.afterCommit(ctx, BalanceEvent{
		Type:         EventTransactionUpdated,
		ProjectID:    t.ProjectID,
		ActorID:      in.ActorID,
		MemberID:     &member.MemberID,
		MemberBudget: int64Ptr(member.Budget),
	})
	return t, nil
}

// DeleteTransaction 删除消费并退回金额到成员额度
func (l *Ledger) DeleteTransaction(ctx context.Context, transactionID, actorID uuid.UUID) error {
	var (
		member *models.ProjectMember
		t      *models.Transaction
	)
	err := l.unitOfWork(ctx, func(tx *gorm.DB) error {
		var err error
		t, member, err = lockOwnTransaction(tx, transactionID, actorID,
			"You don't have permissions to delete this transaction")
		if err != nil {
			return err
		}
		if err := adjustMemberBudget(tx, member, t.Amount, msgNotEnoughAmount); err != nil {
			return err
		}
		return tx.Delete(t).Error
	})
	if err != nil {
		return err
	}

	l.afterCommit(ctx, BalanceEvent{
		Type:         EventTransactionDeleted,
		ProjectID:    t.ProjectID,
		ActorID:      actorID,
		MemberID:     &member.MemberID,
		MemberBudget: int64Ptr(member.Budget),
	})
	return nil
}

// GetTransaction 查看单条消费（仅本人）
func (l *Ledger) GetTransaction(ctx context.Context, transactionID, actorID uuid.UUID) (*models.Transaction, error) {
	var t models.Transaction
	err := l.db.WithContext(ctx).Preload("TransactionCategory").First(&t, "id = ?", transactionID).Error
	if err != nil {
		return nil, notFoundOr(err, msgTransactionNotFound)
	}
	if !isOwner(t.UserID, actorID) {
		return nil, permissionDenied("You don't have permissions to view this transaction")
	}
	return &t, nil
}

// ListProjectTransactions 项目全部消费（项目经理）
func (l *Ledger) ListProjectTransactions(ctx context.Context, projectID, actorID uuid.UUID) ([]models.Transaction, error) {
	db := l.db.WithContext(ctx)
	project, err := loadProject(db, projectID)
	if err != nil {
		return nil, err
	}
	if err := requireManager(project, actorID, "You don't have permissions to view transactions of this project"); err != nil {
		return nil, err
	}
	var list []models.Transaction
	err = db.Preload("TransactionCategory").
		Where("project_id = ?", projectID).
		Order("created_at DESC").
		Find(&list).Error
	return list, err
}

// ListMemberTransactions 成员在项目内的消费（仅本人）
func (l *Ledger) ListMemberTransactions(ctx context.Context, projectID, userID, actorID uuid.UUID) ([]models.Transaction, error) {
	db := l.db.WithContext(ctx)
	if _, err := loadProject(db, projectID); err != nil {
		return nil, err
	}
	if !isOwner(userID, actorID) {
		return nil, permissionDenied("You don't have permissions to view these transactions")
	}
	var list []models.Transaction
	err := db.Preload("TransactionCategory").
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Order("created_at DESC").
		Find(&list).Error
	return list, err
}
