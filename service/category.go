package service

import (
	"context"
	"strings"

	"walet/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CategoryInput 新增项目类别
type CategoryInput struct {
	ProjectID uuid.UUID
	ActorID   uuid.UUID
	Name      string
}

// CreateCategory 新增类别（项目经理），同一项目内名称唯一
func (l *Ledger) CreateCategory(ctx context.Context, in CategoryInput) (*models.ProjectCategory, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, validationf("Category name is required")
	}

	var category *models.ProjectCategory
	err := l.unitOfWork(ctx, func(tx *gorm.DB) error {
		project, err := loadProject(tx, in.ProjectID)
		if err != nil {
			return err
		}
		if err := requireManager(project, in.ActorID, "You don't have permissions to add category to this project"); err != nil {
			return err
		}
		var count int64
		if err := tx.Model(&models.ProjectCategory{}).
			Where("project_id = ? AND name = ?", project.ID, name).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return validationf(msgCategoryExists)
		}
		category = &models.ProjectCategory{ProjectID: project.ID, Name: name}
		if err := tx.Create(category).Error; err != nil {
			if isDuplicateKey(err) {
				return validationf(msgCategoryExists)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return category, nil
}

// ListCategories 项目类别列表（经理或成员）
func (l *Ledger) ListCategories(ctx context.Context, projectID, actorID uuid.UUID) ([]models.ProjectCategory, error) {
	db := l.db.WithContext(ctx)
	project, err := loadProject(db, projectID)
	if err != nil {
		return nil, err
	}
	if err := requireMemberOrManager(db, project, actorID); err != nil {
		return nil, err
	}
	var list []models.ProjectCategory
	err = db.Where("project_id = ?", projectID).Order("name").Find(&list).Error
	return list, err
}

// GetCategory 类别详情（经理或成员）
func (l *Ledger) GetCategory(ctx context.Context, categoryID, actorID uuid.UUID) (*models.ProjectCategory, error) {
	db := l.db.WithContext(ctx)
	var category models.ProjectCategory
	if err := db.First(&category, "id = ?", categoryID).Error; err != nil {
		return nil, notFoundOr(err, msgCategoryNotFound)
	}
	project, err := loadProject(db, category.ProjectID)
	if err != nil {
		return nil, err
	}
	if err := requireMemberOrManager(db, project, actorID); err != nil {
		return nil, err
	}
	return &category, nil
}

// DeleteCategory 删除类别（项目经理），仍有消费引用时拒绝
func (l *Ledger) DeleteCategory(ctx context.Context, categoryID, actorID uuid.UUID) error {
	return l.unitOfWork(ctx, func(tx *gorm.DB) error {
		var category models.ProjectCategory
		if err := tx.First(&category, "id = ?", categoryID).Error; err != nil {
			return notFoundOr(err, msgCategoryNotFound)
		}
		project, err := loadProject(tx, category.ProjectID)
		if err != nil {
			return err
		}
		if err := requireManager(project, actorID, "You don't have permissions to delete category in this project"); err != nil {
			return err
		}
		var used int64
		if err := tx.Model(&models.Transaction{}).
			Where("transaction_category_id = ?", categoryID).
			Count(&used).Error; err != nil {
			return err
		}
		if used > 0 {
			return validationf("Category is used by transactions")
		}
		return tx.Delete(&category).Error
	})
}
