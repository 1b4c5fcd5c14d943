package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"walet/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProjectInput 创建项目
type ProjectInput struct {
	ActorID     uuid.UUID
	Name        string
	Description string
}

// UpdateProjectInput 修改项目，nil 字段保持不变；total_budget 只能通过预算记录变动
type UpdateProjectInput struct {
	ProjectID   uuid.UUID
	ActorID     uuid.UUID
	Name        *string
	Description *string
	Status      *bool
}

func validateProjectName(name string) error {
	if strings.TrimSpace(name) == "" {
		return validationf("Project name is required")
	}
	if utf8.RuneCountInString(name) > 255 {
		return validationf("Project name must be at most 255 characters")
	}
	return nil
}

// CreateProject 创建项目，创建者成为项目经理，初始资金为 0
func (l *Ledger) CreateProject(ctx context.Context, in ProjectInput) (*models.Project, error) {
	if err := validateProjectName(in.Name); err != nil {
		return nil, err
	}
	project := &models.Project{
		ManagerID:   in.ActorID,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
	}
	if err := l.db.WithContext(ctx).Create(project).Error; err != nil {
		return nil, err
	}
	return project, nil
}

// UpdateProject 修改项目基本信息（项目经理）
func (l *Ledger) UpdateProject(ctx context.Context, in UpdateProjectInput) (*models.Project, error) {
	if in.Name != nil {
		if err := validateProjectName(*in.Name); err != nil {
			return nil, err
		}
	}

	var project *models.Project
	err := l.unitOfWork(ctx, func(tx *gorm.DB) error {
		var err error
		if project, err = lockProject(tx, in.ProjectID); err != nil {
			return err
		}
		if err := requireManager(project, in.ActorID, "You don't have permissions to update this project"); err != nil {
			return err
		}
		updates := map[string]any{}
		if in.Name != nil {
			updates["name"] = strings.TrimSpace(*in.Name)
		}
		if in.Description != nil {
			updates["description"] = *in.Description
		}
		if in.Status != nil {
			updates["status"] = *in.Status
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(project).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(project, "id = ?", project.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return project, nil
}

// DeleteProject 删除项目（项目经理）
// 按依赖顺序删除：消费 -> 资金申请 -> 预算记录 -> 邀请 -> 成员 -> 类别 -> 项目
func (l *Ledger) DeleteProject(ctx context.Context, projectID, actorID uuid.UUID) error {
	err := l.unitOfWork(ctx, func(tx *gorm.DB) error {
		project, err := lockProject(tx, projectID)
		if err != nil {
			return err
		}
		if err := requireManager(project, actorID, "You don't have permissions to delete this project"); err != nil {
			return err
		}

		children := []any{
			&models.Transaction{},
			&models.BudgetRequest{},
			&models.ProjectBudgetRecord{},
			&models.ProjectInvitation{},
			&models.ProjectMember{},
			&models.ProjectCategory{},
		}
		for _, model := range children {
			if err := tx.Where("project_id = ?", projectID).Delete(model).Error; err != nil {
				return err
			}
		}
		return tx.Delete(project).Error
	})
	if err != nil {
		return err
	}
	l.cache.Invalidate(ctx, projectID)
	return nil
}

// GetProject 项目详情（经理或成员）
func (l *Ledger) GetProject(ctx context.Context, projectID, actorID uuid.UUID) (*models.Project, error) {
	db := l.db.WithContext(ctx)
	project, err := loadProject(db, projectID)
	if err != nil {
		return nil, err
	}
	if err := requireMemberOrManager(db, project, actorID); err != nil {
		return nil, err
	}
	return project, nil
}

// ListManagedProjects 当前用户管理的项目
func (l *Ledger) ListManagedProjects(ctx context.Context, actorID uuid.UUID) ([]models.Project, error) {
	var list []models.Project
	err := l.db.WithContext(ctx).Where("manager_id = ?", actorID).Order("created_at DESC").Find(&list).Error
	return list, err
}

// ListJoinedProjects 当前用户作为成员加入的项目
func (l *Ledger) ListJoinedProjects(ctx context.Context, actorID uuid.UUID) ([]models.Project, error) {
	var list []models.Project
	err := l.db.WithContext(ctx).
		Joins("JOIN project_members ON project_members.project_id = projects.id").
		Where("project_members.member_id = ?", actorID).
		Order("projects.created_at DESC").
		Find(&list).Error
	return list, err
}
