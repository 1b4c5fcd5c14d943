package service

import (
	"errors"

	"walet/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// isManager 项目经理
func isManager(project *models.Project, userID uuid.UUID) bool {
	return project.ManagerID == userID
}

// isOwner 记录的创建者（transaction.user / budget_request.requested_by）
func isOwner(ownerID, userID uuid.UUID) bool {
	return ownerID == userID
}

// isMemberOrManager 项目经理或项目成员
func isMemberOrManager(tx *gorm.DB, project *models.Project, userID uuid.UUID) (bool, error) {
	if isManager(project, userID) {
		return true, nil
	}
	return isMember(tx, project.ID, userID)
}

func requireManager(project *models.Project, userID uuid.UUID, msg string) error {
	if !isManager(project, userID) {
		return permissionDenied(msg)
	}
	return nil
}

func requireMemberOrManager(tx *gorm.DB, project *models.Project, userID uuid.UUID) error {
	ok, err := isMemberOrManager(tx, project, userID)
	if err != nil {
		return err
	}
	if !ok {
		return permissionDenied("You are not a member of this project")
	}
	return nil
}

// notFoundOr 将 gorm.ErrRecordNotFound 转换为业务 NotFound 错误
func notFoundOr(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound(msg)
	}
	return err
}
