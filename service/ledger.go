package service

import (
	"context"
	"log"
	"time"

	"walet/config"
	"walet/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Ledger 资金变动引擎
// 所有修改 total_budget / member.budget / 账目金额的操作都在一个事务（unit of work）内完成
type Ledger struct {
	db        *gorm.DB
	cfg       *config.Config
	notifier  Notifier
	outbox    *Outbox
	publisher Publisher
	cache     AnalyticsCache
	now       func() time.Time
}

// NewLedger 创建资金变动引擎
func NewLedger(db *gorm.DB, cfg *config.Config, notifier Notifier) *Ledger {
	return &Ledger{
		db:        db,
		cfg:       cfg,
		notifier:  notifier,
		outbox:    NewOutbox(db, notifier, cfg.Notification.MaxAttempts),
		publisher: nopPublisher{},
		cache:     nopCache{},
		now:       time.Now,
	}
}

// SetPublisher 设置余额变动推送（websocket）
func (l *Ledger) SetPublisher(p Publisher) {
	if p == nil {
		p = nopPublisher{}
	}
	l.publisher = p
}

// SetCache 设置分析结果缓存
func (l *Ledger) SetCache(c AnalyticsCache) {
	if c == nil {
		c = nopCache{}
	}
	l.cache = c
}

// Outbox 通知发件箱，供后台重试任务使用
func (l *Ledger) Outbox() *Outbox {
	return l.outbox
}

// unitOfWork 在一个数据库事务中执行 fn，fn 返回错误或 panic 时整体回滚
func (l *Ledger) unitOfWork(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return l.db.WithContext(ctx).Transaction(fn)
}

// afterCommit 提交后推送余额变动并清理分析缓存
func (l *Ledger) afterCommit(ctx context.Context, events ...BalanceEvent) {
	invalidated := make(map[uuid.UUID]bool, len(events))
	for _, e := range events {
		if !invalidated[e.ProjectID] {
			l.cache.Invalidate(ctx, e.ProjectID)
			invalidated[e.ProjectID] = true
		}
		if err := l.publisher.Publish(ctx, e); err != nil {
			log.Printf("推送余额变动失败 project=%s type=%s: %v", e.ProjectID, e.Type, err)
		}
	}
}

// notify 同步发送通知，失败返回 ExternalService 错误
func (l *Ledger) notify(ctx context.Context, msg Message) error {
	if err := l.notifier.Send(ctx, msg); err != nil {
		log.Printf("发送通知失败 template=%s to=%s: %v", msg.Template, msg.To, err)
		return externalService(msgNotificationFailed, err)
	}
	return nil
}

var forUpdate = clause.Locking{Strength: "UPDATE"}

func loadProject(tx *gorm.DB, id uuid.UUID) (*models.Project, error) {
	var p models.Project
	if err := tx.First(&p, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, msgProjectNotFound)
	}
	return &p, nil
}

// lockProject 读取并锁定项目行（SELECT ... FOR UPDATE）
// 加锁顺序固定为 project -> member -> 账目记录，避免死锁
func lockProject(tx *gorm.DB, id uuid.UUID) (*models.Project, error) {
	var p models.Project
	if err := tx.Clauses(forUpdate).First(&p, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, msgProjectNotFound)
	}
	return &p, nil
}

func findMember(tx *gorm.DB, projectID, userID uuid.UUID) (*models.ProjectMember, error) {
	var m models.ProjectMember
	err := tx.Where("project_id = ? AND member_id = ?", projectID, userID).First(&m).Error
	if err != nil {
		return nil, notFoundOr(err, msgMemberNotFound)
	}
	return &m, nil
}

func lockMember(tx *gorm.DB, projectID, userID uuid.UUID) (*models.ProjectMember, error) {
	var m models.ProjectMember
	err := tx.Clauses(forUpdate).
		Where("project_id = ? AND member_id = ?", projectID, userID).
		First(&m).Error
	if err != nil {
		return nil, notFoundOr(err, msgMemberNotFound)
	}
	return &m, nil
}

func isMember(tx *gorm.DB, projectID, userID uuid.UUID) (bool, error) {
	var count int64
	err := tx.Model(&models.ProjectMember{}).
		Where("project_id = ? AND member_id = ?", projectID, userID).
		Count(&count).Error
	return count > 0, err
}

func loadUser(tx *gorm.DB, id uuid.UUID) (*models.User, error) {
	var u models.User
	if err := tx.First(&u, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, msgUserNotFound)
	}
	return &u, nil
}

// adjustProjectBudget total_budget += delta
// 扣减时使用条件更新 total_budget >= -delta，余额不足时返回 InsufficientFunds
func adjustProjectBudget(tx *gorm.DB, p *models.Project, delta int64, msg string) error {
	if delta == 0 {
		return nil
	}
	q := tx.Model(&models.Project{}).Where("id = ?", p.ID)
	if delta < 0 {
		q = q.Where("total_budget >= ?", -delta)
	}
	res := q.Update("total_budget", gorm.Expr("total_budget + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return insufficientFunds(msg)
	}
	p.TotalBudget += delta
	return nil
}

// adjustMemberBudget member.budget += delta，规则同 adjustProjectBudget
func adjustMemberBudget(tx *gorm.DB, m *models.ProjectMember, delta int64, msg string) error {
	if delta == 0 {
		return nil
	}
	q := tx.Model(&models.ProjectMember{}).Where("id = ?", m.ID)
	if delta < 0 {
		q = q.Where("budget >= ?", -delta)
	}
	res := q.Update("budget", gorm.Expr("budget + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return insufficientFunds(msg)
	}
	m.Budget += delta
	return nil
}

func int64Ptr(v int64) *int64 {
	return &v
}
