package service

import (
	"context"
	"log"
	"strings"

	"walet/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 审批动作
const (
	ActionApprove = "approve"
	ActionReject  = "reject"
)

// BudgetRequestInput 成员发起资金申请
type BudgetRequestInput struct {
	ProjectID uuid.UUID
	ActorID   uuid.UUID
	Amount    decimal.Decimal
	Reason    string
}

func (in BudgetRequestInput) validate() error {
	if in.Amount.IsNegative() {
		return validationf(msgAmountNegative)
	}
	if !in.Amount.Equal(in.Amount.Truncate(2)) {
		return validationf("Amount must have at most 2 decimal places")
	}
	if strings.TrimSpace(in.Reason) == "" {
		return validationf("Request reason is required")
	}
	return nil
}

// ResolveInput 项目经理处理资金申请
type ResolveInput struct {
	RequestID   uuid.UUID
	ActorID     uuid.UUID
	Action      string
	ResolveNote string
}

// ResolveResult 处理结果；NotificationDelivered 为 false 时通知已进入重试队列
type ResolveResult struct {
	Message               string                `json:"message"`
	Request               *models.BudgetRequest `json:"request"`
	NotificationDelivered bool                  `json:"notification_delivered"`
}

// CreateBudgetRequest 成员发起资金申请并通知项目经理
// 通知失败时整体回滚，不会留下申请记录
func (l *Ledger) CreateBudgetRequest(ctx context.Context, in BudgetRequestInput) (*models.BudgetRequest, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var req *models.BudgetRequest
	err := l.unitOfWork(ctx, func(tx *gorm.DB) error {
		project, err := loadProject(tx, in.ProjectID)
		if err != nil {
			return err
		}
		if _, err := findMember(tx, project.ID, in.ActorID); err != nil {
			return err
		}
		requester, err := loadUser(tx, in.ActorID)
		if err != nil {
			return err
		}
		manager, err := loadUser(tx, project.ManagerID)
		if err != nil {
			return err
		}

		req = &models.BudgetRequest{
			ProjectID:     project.ID,
			RequestedBy:   in.ActorID,
			RequestReason: in.Reason,
			Amount:        in.Amount,
			Status:        models.BudgetRequestPending,
		}
		if err := tx.Create(req).Error; err != nil {
			return err
		}

		return l.notify(ctx, Message{
			Template: TemplateBudgetRequest,
			To:       manager.Email,
			Context: map[string]any{
				"project_name": project.Name,
				"requester":    requester.Username,
				"amount":       in.Amount.StringFixed(2),
				"reason":       in.Reason,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

// ResolveBudgetRequest 批准或拒绝资金申请，只能处理一次
// 批准时按整数部分划拨资金；划拨失败则申请保持 pending
// 结果通知写入发件箱并在提交后投递，投递失败不影响已完成的资金变动
func (l *Ledger) ResolveBudgetRequest(ctx context.Context, in ResolveInput) (*ResolveResult, error) {
	if in.Action != ActionApprove && in.Action != ActionReject {
		return nil, validationf(msgInvalidAction)
	}

	var (
		req          models.BudgetRequest
		project      *models.Project
		member       *models.ProjectMember
		notification *models.Notification
	)
	err := l.unitOfWork(ctx, func(tx *gorm.DB) error {
		if err := tx.First(&req, "id = ?", in.RequestID).Error; err != nil {
			return notFoundOr(err, msgBudgetRequestNotFound)
		}
		var err error
		if project, err = lockProject(tx, req.ProjectID); err != nil {
			return err
		}
		if err := requireManager(project, in.ActorID, "You don't have permissions to resolve this budget request"); err != nil {
			return err
		}
		if err := tx.Clauses(forUpdate).First(&req, "id = ?", in.RequestID).Error; err != nil {
			return notFoundOr(err, msgBudgetRequestNotFound)
		}
		if !req.IsPending() {
			return validationf(msgAlreadyResolved)
		}

		status := models.BudgetRequestRejected
		if in.Action == ActionApprove {
			status = models.BudgetRequestApproved
			if !req.Amount.IsPositive() {
				return validationf(msgAmountMustBePositive)
			}
			if decimal.NewFromInt(project.TotalBudget).LessThan(req.Amount) {
				return insufficientFunds(msgApproveBudgetTooLow)
			}
			if member, err = lockMember(tx, project.ID, req.RequestedBy); err != nil {
				return err
			}
			if err := sendFunds(tx, project, member, req.Amount.IntPart(), "approved budget request"); err != nil {
				return err
			}
		}

		now := l.now()
		req.Status = status
		req.ResolveNote = in.ResolveNote
		req.ResolvedAt = &now
		req.ResolvedBy = &in.ActorID
		if err := tx.Save(&req).Error; err != nil {
			return err
		}

		requester, err := loadUser(tx, req.RequestedBy)
		if err != nil {
			return err
		}
		notification, err = l.outbox.Enqueue(tx, Message{
			Template: TemplateBudgetRequestResolved,
			To:       requester.Email,
			Context: map[string]any{
				"status":       status,
				"project_name": project.Name,
				"amount":       req.Amount.StringFixed(2),
				"resolve_note": in.ResolveNote,
			},
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	result := &ResolveResult{Request: &req, Message: "Budget request rejected"}
	if req.Status == models.BudgetRequestApproved {
		result.Message = "Budget request approved"
		l.afterCommit(ctx, memberEvent(EventBudgetRequestResolved, project.ID, in.ActorID, project.TotalBudget, member.MemberID, member.Budget))
	}

	if err := l.outbox.Deliver(ctx, notification.ID); err != nil {
		log.Printf("资金申请 %s 的结果通知投递失败，已进入重试队列: %v", req.ID, err)
	} else {
		result.NotificationDelivered = true
	}
	return result, nil
}

// GetBudgetRequest 查看申请（申请人或项目经理）
func (l *Ledger) GetBudgetRequest(ctx context.Context, requestID, actorID uuid.UUID) (*models.BudgetRequest, error) {
	db := l.db.WithContext(ctx)
	var req models.BudgetRequest
	if err := db.First(&req, "id = ?", requestID).Error; err != nil {
		return nil, notFoundOr(err, msgBudgetRequestNotFound)
	}
	if isOwner(req.RequestedBy, actorID) {
		return &req, nil
	}
	project, err := loadProject(db, req.ProjectID)
	if err != nil {
		return nil, err
	}
	if err := requireManager(project, actorID, "You don't have permissions to view this budget request"); err != nil {
		return nil, err
	}
	return &req, nil
}

func validateStatusFilter(status string) error {
	switch status {
	case "", models.BudgetRequestPending, models.BudgetRequestApproved, models.BudgetRequestRejected:
		return nil
	}
	return validationf(msgInvalidStatus)
}

// ListUserBudgetRequests 当前用户发起的申请，status 为空时返回全部
func (l *Ledger) ListUserBudgetRequests(ctx context.Context, actorID uuid.UUID, status string) ([]models.BudgetRequest, error) {
	if err := validateStatusFilter(status); err != nil {
		return nil, err
	}
	q := l.db.WithContext(ctx).Where("requested_by = ?", actorID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var list []models.BudgetRequest
	err := q.Order("created_at DESC").Find(&list).Error
	return list, err
}

// ListProjectBudgetRequests 项目内的申请（项目经理）
func (l *Ledger) ListProjectBudgetRequests(ctx context.Context, projectID, actorID uuid.UUID, status string) ([]models.BudgetRequest, error) {
	if err := validateStatusFilter(status); err != nil {
		return nil, err
	}
	db := l.db.WithContext(ctx)
	project, err := loadProject(db, projectID)
	if err != nil {
		return nil, err
	}
	if err := requireManager(project, actorID, "You don't have permissions to view budget requests of this project"); err != nil {
		return nil, err
	}
	q := db.Where("project_id = ?", projectID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var list []models.BudgetRequest
	err = q.Order("created_at DESC").Find(&list).Error
	return list, err
}
