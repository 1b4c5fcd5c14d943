package service

import (
	"context"

	"github.com/google/uuid"
)

// EventType 余额变动事件类型
type EventType string

const (
	EventBudgetRecordCreated   EventType = "budget_record_created"
	EventBudgetRecordUpdated   EventType = "budget_record_updated"
	EventBudgetRecordDeleted   EventType = "budget_record_deleted"
	EventFundsSent             EventType = "funds_sent"
	EventFundsTaken            EventType = "funds_taken"
	EventTransactionCreated    EventType = "transaction_created"
	EventTransactionUpdated    EventType = "transaction_updated"
	EventTransactionDeleted    EventType = "transaction_deleted"
	EventBudgetRequestResolved EventType = "budget_request_resolved"
	EventMemberJoined          EventType = "member_joined"
	EventMemberRemoved         EventType = "member_removed"
)

// BalanceEvent 提交后推送给项目订阅者的余额变动
type BalanceEvent struct {
	Type         EventType  `json:"type"`
	ProjectID    uuid.UUID  `json:"project_id"`
	ActorID      uuid.UUID  `json:"actor_id"`
	TotalBudget  *int64     `json:"total_budget,omitempty"`
	MemberID     *uuid.UUID `json:"member_id,omitempty"`
	MemberBudget *int64     `json:"member_budget,omitempty"`
}

// Publisher 余额变动推送
type Publisher interface {
	Publish(ctx context.Context, event BalanceEvent) error
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, BalanceEvent) error { return nil }

func memberEvent(t EventType, projectID, actorID uuid.UUID, totalBudget int64, memberID uuid.UUID, memberBudget int64) BalanceEvent {
	return BalanceEvent{
		Type:         t,
		ProjectID:    projectID,
		ActorID:      actorID,
		TotalBudget:  int64Ptr(totalBudget),
		MemberID:     &memberID,
		MemberBudget: int64Ptr(memberBudget),
	}
}
