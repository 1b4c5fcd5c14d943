package service

import (
	"context"
	"unicode/utf8"

	"walet/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BudgetRecordInput 新增预算收支记录
type BudgetRecordInput struct {
	ProjectID  uuid.UUID
	ActorID    uuid.UUID
	MemberID   *uuid.UUID // 支出记录必填
	Amount     int64
	Notes      string
	IsIncome   bool
	IsEditable bool
}

func (in BudgetRecordInput) validate() error {
	if in.Amount < 0 {
		return validationf(msgAmountNegative)
	}
	if err := validateNotes(in.Notes); err != nil {
		return err
	}
	if !in.IsIncome && in.MemberID == nil {
		return validationf("Member is required for expense records")
	}
	return nil
}

func validateNotes(notes string) error {
	if utf8.RuneCountInString(notes) > models.BudgetRecordNotesMaxLen {
		return validationf("Notes must be at most %d characters", models.BudgetRecordNotesMaxLen)
	}
	return nil
}

// UpdateBudgetRecordInput 修改预算记录，nil 字段保持不变
type UpdateBudgetRecordInput struct {
	RecordID uuid.UUID
	ActorID  uuid.UUID
	Amount   *int64
	Notes    *string
	IsIncome *bool
	MemberID *uuid.UUID
}

func (in UpdateBudgetRecordInput) validate() error {
	if in.Amount != nil && *in.Amount < 0 {
		return validationf(msgAmountNegative)
	}
	if in.Notes != nil {
		return validateNotes(*in.Notes)
	}
	return nil
}

// CreateBudgetRecord 项目经理新增收支记录，收入增加 total_budget，支出减少 total_budget
func (l *Ledger) CreateBudgetRecord(ctx context.Context, in BudgetRecordInput) (*models.ProjectBudgetRecord, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var (
		project *models.Project
		record  *models.ProjectBudgetRecord
	)
	err := l.unitOfWork(ctx, func(tx *gorm.DB) error {
		var err error
		project, err = lockProject(tx, in.ProjectID)
		if err != nil {
			return err
		}
		if err := requireManager(project, in.ActorID, "You don't have permissions to add budget record to this project"); err != nil {
			return err
		}
		if in.MemberID != nil {
			if _, err := findMember(tx, project.ID, *in.MemberID); err != nil {
				return err
			}
		}
		record, err = insertBudgetRecord(tx, project, in)
		return err
	})
	if err != nil {
		return nil, err
	}

	l.afterCommit(ctx, BalanceEvent{
		Type:        EventBudgetRecordCreated,
		ProjectID:   project.ID,
		ActorID:     in.ActorID,
		TotalBudget: int64Ptr(project.TotalBudget),
	})
	return record, nil
}

// insertBudgetRecord 写入记录并调整 total_budget
// 调用方需已锁定 project 并完成权限校验；支出导致 total_budget 为负时拒绝
func insertBudgetRecord(tx *gorm.DB, project *models.Project, in BudgetRecordInput) (*models.ProjectBudgetRecord, error) {
	record := &models.ProjectBudgetRecord{
		ProjectID:  project.ID,
		MemberID:   in.MemberID,
		Amount:     in.Amount,
		IsIncome:   in.IsIncome,
		Notes:      in.Notes,
		IsEditable: in.IsEditable,
	}
	if err := adjustProjectBudget(tx, project, record.Effect(), msgProjectBudgetTooLow); err != nil {
		return nil, err
	}
	if err := tx.Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

// lockEditableRecord 锁定项目和记录，并校验经理权限与可编辑状态
func lockEditableRecord(tx *gorm.DB, recordID, actorID uuid.UUID, denyMsg string) (*models.Project, *models.ProjectBudgetRecord, error) {
	var record models.ProjectBudgetRecord
	if err := tx.First(&record, "id = ?", recordID).Error; err != nil {
		return nil, nil, notFoundOr(err, msgBudgetRecordNotFound)
	}
	project, err := lockProject(tx, record.ProjectID)
	if err != nil {
		return nil, nil, err
	}
	if err := requireManager(project, actorID, denyMsg); err != nil {
		return nil, nil, err
	}
	if err := tx.Clauses(forUpdate).First(&record, "id = ?", recordID).Error; err != nil {
		return nil, nil, notFoundOr(err, msgBudgetRecordNotFound)
	}
	if !record.IsEditable {
		return nil, nil, permissionDenied(msgBudgetRecordNotEditable)
	}
	return project, &record, nil
}

// UpdateBudgetRecord 修改可编辑记录：先撤销旧记录对 total_budget 的影响，再应用新值
func (l *Ledger) UpdateBudgetRecord(ctx context.Context, in UpdateBudgetRecordInput) (*models.ProjectBudgetRecord, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var (
		project *models.Project
		record  *models.ProjectBudgetRecord
	)
	err := l.unitOfWork(ctx, func(tx *gorm.DB) error {
		var err error
		project, record, err = lockEditableRecord(tx, in.RecordID, in.ActorID,
			"You don't have permissions to update budget record in this project")
		if err != nil {
			return err
		}

		before := record.Effect()
		if in.Amount != nil {
			record.Amount = *in.Amount
		}
		if in.Notes != nil {
			record.Notes = *in.Notes
		}
		if in.IsIncome != nil {
			record.IsIncome = *in.IsIncome
		}
		if in.MemberID != nil {
			if _, err := findMember(tx, project.ID, *in.MemberID); err != nil {
				return err
			}
			record.MemberID = in.MemberID
		}
		if !record.IsIncome && record.MemberID == nil {
			return validationf("Member is required for expense records")
		}

		if err := adjustProjectBudget(tx, project, record.Effect()-before, msgProjectBudgetTooLow); err != nil {
			return err
		}
		return tx.Save(record).Error
	})
	if err != nil {
		return nil, err
	}

	l.afterCommit(ctx, BalanceEvent{
		Type:        EventBudgetRecordUpdated,
		ProjectID:   project.ID,
		ActorID:     in.ActorID,
		TotalBudget: int64Ptr(project.TotalBudget),
	})
	return record, nil
}

// DeleteBudgetRecord 删除可编辑记录并撤销其对 total_budget 的影响
func (l *Ledger) DeleteBudgetRecord(ctx context.Context, recordID, actorID uuid.UUID) error {
	var project *models.Project
	err := l.unitOfWork(ctx, func(tx *gorm.DB) error {
		var (
			record *models.ProjectBudgetRecord
			err    error
		)
		project, record, err = lockEditableRecord(tx, recordID, actorID,
			"You don't have permissions to delete budget record in this project")
		if err != nil {
			return err
		}
		if err := adjustProjectBudget(tx, project, -record.Effect(), msgProjectBudgetTooLow); err != nil {
			return err
		}
		return tx.Delete(record).Error
	})
	if err != nil {
		return err
	}

	l.afterCommit(ctx, BalanceEvent{
		Type:        EventBudgetRecordDeleted,
		ProjectID:   project.ID,
		ActorID:     actorID,
		TotalBudget: int64Ptr(project.TotalBudget),
	})
	return nil
}

// GetBudgetRecord 查看单条记录（项目经理）
func (l *Ledger) GetBudgetRecord(ctx context.Context, recordID, actorID uuid.UUID) (*models.ProjectBudgetRecord, error) {
	db := l.db.WithContext(ctx)
	var record models.ProjectBudgetRecord
	if err := db.First(&record, "id = ?", recordID).Error; err != nil {
		return nil, notFoundOr(err, msgBudgetRecordNotFound)
	}
	project, err := loadProject(db, record.ProjectID)
	if err != nil {
		return nil, err
	}
	if err := requireManager(project, actorID, "You don't have permissions to view budget records of this project"); err != nil {
		return nil, err
	}
	return &record, nil
}

// ListBudgetRecords 项目全部收支记录（项目经理），按时间倒序
func (l *Ledger) ListBudgetRecords(ctx context.Context, projectID, actorID uuid.UUID) ([]models.ProjectBudgetRecord, error) {
	db := l.db.WithContext(ctx)
	project, err := loadProject(db, projectID)
	if err != nil {
		return nil, err
	}
	if err := requireManager(project, actorID, "You don't have permissions to view budget records of this project"); err != nil {
		return nil, err
	}
	var records []models.ProjectBudgetRecord
	if err := db.Where("project_id = ?", projectID).Order("created_at DESC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
