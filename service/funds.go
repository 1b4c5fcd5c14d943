package service

import (
	"context"

	"walet/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FundsInput 项目资金池与成员额度之间的划拨
type FundsInput struct {
	ProjectID uuid.UUID
	MemberID  uuid.UUID // 成员的用户 ID
	ActorID   uuid.UUID
	Funds     int64
	Notes     string
}

func (in FundsInput) validate() error {
	if in.Funds <= 0 {
		return validationf(msgFundsMustBePositive)
	}
	return validateNotes(in.Notes)
}

// FundsResult 划拨结果
type FundsResult struct {
	Message                string `json:"message"`
	ProjectRemainingBudget int64  `json:"project_remaining_budget"`
	MemberNewBudget        int64  `json:"member_new_budget"`
}

// SendFunds 从项目资金池划拨给成员：member.budget += funds，total_budget -= funds
func (l *Ledger) SendFunds(ctx context.Context, in FundsInput) (*FundsResult, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var (
		project *models.Project
		member  *models.ProjectMember
	)
	err := l.unitOfWork(ctx, func(tx *gorm.DB) error {
		var err error
		if project, member, err = lockProjectAndMember(tx, in.ProjectID, in.MemberID); err != nil {
			return err
		}
		if err := requireManager(project, in.ActorID, "You don't have permissions to send funds in this project"); err != nil {
			return err
		}
		return sendFunds(tx, project, member, in.Funds, in.Notes)
	})
	if err != nil {
		return nil, err
	}

	l.afterCommit(ctx, memberEvent(EventFundsSent, project.ID, in.ActorID, project.TotalBudget, member.MemberID, member.Budget))
	return &FundsResult{
		Message:                "Funds sent successfully",
		ProjectRemainingBudget: project.TotalBudget,
		MemberNewBudget:        member.Budget,
	}, nil
}

// TakeFunds 从成员额度收回到项目资金池：member.budget -= funds，total_budget += funds
func (l *Ledger) TakeFunds(ctx context.Context, in FundsInput) (*FundsResult, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var (
		project *models.Project
		member  *models.ProjectMember
	)
	err := l.unitOfWork(ctx, func(tx *gorm.DB) error {
		var err error
		if project, member, err = lockProjectAndMember(tx, in.ProjectID, in.MemberID); err != nil {
			return err
		}
		if err := requireManager(project, in.ActorID, "You don't have permissions to take funds in this project"); err != nil {
			return err
		}
		if member.Budget < in.Funds {
			return insufficientFunds(msgMemberBudgetTooLow)
		}
		if err := adjustMemberBudget(tx, member, -in.Funds, msgMemberBudgetTooLow); err != nil {
			return err
		}
		_, err = insertBudgetRecord(tx, project, BudgetRecordInput{
			ProjectID: project.ID,
			ActorID:   in.ActorID,
			MemberID:  &member.MemberID,
			Amount:    in.Funds,
			Notes:     in.Notes,
			IsIncome:  true,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	l.afterCommit(ctx, memberEvent(EventFundsTaken, project.ID, in.ActorID, project.TotalBudget, member.MemberID, member.Budget))
	return &FundsResult{
		Message:                "Funds taken successfully",
		ProjectRemainingBudget: project.TotalBudget,
		MemberNewBudget:        member.Budget,
	}, nil
}

func lockProjectAndMember(tx *gorm.DB, projectID, userID uuid.UUID) (*models.Project, *models.ProjectMember, error) {
	project, err := lockProject(tx, projectID)
	if err != nil {
		return nil, nil, err
	}
	member, err := lockMember(tx, projectID, userID)
	if err != nil {
		return nil, nil, err
	}
	return project, member, nil
}

// sendFunds 划拨核心逻辑，SendFunds 与预算申请审批共用
// 调用方需已锁定 project、member 并完成权限校验
func sendFunds(tx *gorm.DB, project *models.Project, member *models.ProjectMember, funds int64, notes string) error {
	if funds <= 0 {
		return validationf(msgFundsMustBePositive)
	}
	if project.TotalBudget < funds {
		return insufficientFunds(msgProjectBudgetTooLow)
	}
	if err := adjustMemberBudget(tx, member, funds, msgMemberBudgetTooLow); err != nil {
		return err
	}
	_, err := insertBudgetRecord(tx, project, BudgetRecordInput{
		ProjectID: project.ID,
		MemberID:  &member.MemberID,
		Amount:    funds,
		Notes:     notes,
		IsIncome:  false,
	})
	return err
}
