package service

import (
	"context"
	"strings"

	"walet/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InviteInput 项目经理按邮箱邀请成员
type InviteInput struct {
	ProjectID uuid.UUID
	ActorID   uuid.UUID
	Email     string
}

// AcceptInvitationInput 被邀请人接受邀请
type AcceptInvitationInput struct {
	InvitationID uuid.UUID
	ActorID      uuid.UUID
}

// RemoveMemberInput 移除成员
type RemoveMemberInput struct {
	ProjectID uuid.UUID
	MemberID  uuid.UUID // 成员的用户 ID
	ActorID   uuid.UUID
}

// InviteTeamMember 创建邀请并发送邀请邮件，邮件发送失败时邀请不会保存
func (l *Ledger) InviteTeamMember(ctx context.Context, in InviteInput) (*models.ProjectInvitation, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" {
		return nil, validationf("Email is required")
	}

	var invitation *models.ProjectInvitation
	err := l.unitOfWork(ctx, func(tx *gorm.DB) error {
		project, err := loadProject(tx, in.ProjectID)
		if err != nil {
			return err
		}
		if err := requireManager(project, in.ActorID, "You don't have permissions to invite members to this project"); err != nil {
			return err
		}

		var user models.User
		if err := tx.Where("email = ?", email).First(&user).Error; err != nil {
			return notFoundOr(err, msgUserNotFound)
		}
		member, err := isMember(tx, project.ID, user.ID)
		if err != nil {
			return err
		}
		if member {
			return validationf("User is already a member of this project")
		}

		invitation = &models.ProjectInvitation{
			ProjectID: project.ID,
			UserID:    user.ID,
			ExpiresAt: l.now().Add(l.cfg.Invitation.TTL),
		}
		if err := tx.Create(invitation).Error; err != nil {
			return err
		}

		return l.notify(ctx, Message{
			Template: TemplateInvitation,
			To:       user.Email,
			Context: map[string]any{
				"name":            user.Username,
				"project_name":    project.Name,
				"invitation_link": strings.TrimRight(l.cfg.Frontend.URL, "/") + "/invitations/" + invitation.ID.String(),
				"expires_at":      invitation.ExpiresAt.Format("2006-01-02 15:04"),
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return invitation, nil
}

// AddTeamMember 接受邀请成为项目成员（初始额度为 0）
// 成功后该用户在此项目的所有未使用邀请都标记为已使用
func (l *Ledger) AddTeamMember(ctx context.Context, in AcceptInvitationInput) (*models.ProjectMember, error) {
	var member *models.ProjectMember
	err := l.unitOfWork(ctx, func(tx *gorm.DB) error {
		var invitation models.ProjectInvitation
		if err := tx.Clauses(forUpdate).First(&invitation, "id = ?", in.InvitationID).Error; err != nil {
			return notFoundOr(err, msgInvitationNotFound)
		}
		if invitation.UserID != in.ActorID {
			return permissionDenied("This invitation is not addressed to you")
		}
		if invitation.IsUsed {
			return validationf("Invitation has already been used")
		}
		if invitation.IsExpired(l.now()) {
			return validationf("Invitation has expired")
		}
		exists, err := isMember(tx, invitation.ProjectID, in.ActorID)
		if err != nil {
			return err
		}
		if exists {
			return validationf(msgAlreadyMember)
		}

		member = &models.ProjectMember{
			ProjectID: invitation.ProjectID,
			MemberID:  in.ActorID,
			Budget:    0,
		}
		// 同一用户并发接受该项目的两份邀请时，后提交的一方在唯一索引上失败
		if err := tx.Create(member).Error; err != nil {
			if isDuplicateKey(err) {
				return validationf(msgAlreadyMember)
			}
			return err
		}
		return tx.Model(&models.ProjectInvitation{}).
			Where("project_id = ? AND user_id = ? AND is_used = ?", invitation.ProjectID, in.ActorID, false).
			Update("is_used", true).Error
	})
	if err != nil {
		return nil, err
	}

	l.afterCommit(ctx, BalanceEvent{
		Type:         EventMemberJoined,
		ProjectID:    member.ProjectID,
		ActorID:      in.ActorID,
		MemberID:     &member.MemberID,
		MemberBudget: int64Ptr(member.Budget),
	})
	return member, nil
}

// RemoveTeamMember 移除成员，剩余额度退回项目资金池
func (l *Ledger) RemoveTeamMember(ctx context.Context, in RemoveMemberInput) error {
	var project *models.Project
	err := l.unitOfWork(ctx, func(tx *gorm.DB) error {
		var err error
		if project, err = lockProject(tx, in.ProjectID); err != nil {
			return err
		}
		if err := requireManager(project, in.ActorID, "You don't have permissions to remove members from this project"); err != nil {
			return err
		}
		member, err := lockMember(tx, project.ID, in.MemberID)
		if err != nil {
			return err
		}
		if err := adjustProjectBudget(tx, project, member.Budget, msgProjectBudgetTooLow); err != nil {
			return err
		}
		return tx.Delete(member).Error
	})
	if err != nil {
		return err
	}

	l.afterCommit(ctx, memberEvent(EventMemberRemoved, project.ID, in.ActorID, project.TotalBudget, in.MemberID, 0))
	return nil
}

// ListMembers 项目成员列表（经理或成员可见）
func (l *Ledger) ListMembers(ctx context.Context, projectID, actorID uuid.UUID) ([]models.ProjectMember, error) {
	db := l.db.WithContext(ctx)
	project, err := loadProject(db, projectID)
	if err != nil {
		return nil, err
	}
	if err := requireMemberOrManager(db, project, actorID); err != nil {
		return nil, err
	}
	var members []models.ProjectMember
	err = db.Preload("Member").Where("project_id = ?", projectID).Order("created_at").Find(&members).Error
	return members, err
}

// ListProjectInvitations 项目发出的邀请（项目经理）
func (l *Ledger) ListProjectInvitations(ctx context.Context, projectID, actorID uuid.UUID) ([]models.ProjectInvitation, error) {
	db := l.db.WithContext(ctx)
	project, err := loadProject(db, projectID)
	if err != nil {
		return nil, err
	}
	if err := requireManager(project, actorID, "You don't have permissions to view invitations of this project"); err != nil {
		return nil, err
	}
	var list []models.ProjectInvitation
	err = db.Where("project_id = ?", projectID).Order("created_at DESC").Find(&list).Error
	return list, err
}

// ListUserInvitations 当前用户收到的有效邀请
func (l *Ledger) ListUserInvitations(ctx context.Context, actorID uuid.UUID) ([]models.ProjectInvitation, error) {
	var list []models.ProjectInvitation
	err := l.db.WithContext(ctx).
		Preload("Project").
		Where("user_id = ? AND is_used = ? AND expires_at > ?", actorID, false, l.now()).
		Order("created_at DESC").
		Find(&list).Error
	return list, err
}
