package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"walet/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Outbox 通知发件箱
// 资金变动的通知与业务数据在同一事务中写入，提交后投递；投递失败由 Run 定期重试
type Outbox struct {
	db          *gorm.DB
	notifier    Notifier
	maxAttempts int
}

// NewOutbox 创建发件箱
func NewOutbox(db *gorm.DB, notifier Notifier, maxAttempts int) *Outbox {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &Outbox{db: db, notifier: notifier, maxAttempts: maxAttempts}
}

// Enqueue 在事务 tx 内写入一条待发送通知
func (o *Outbox) Enqueue(tx *gorm.DB, msg Message) (*models.Notification, error) {
	data, err := json.Marshal(msg.Context)
	if err != nil {
		return nil, fmt.Errorf("序列化通知内容失败: %w", err)
	}
	n := &models.Notification{
		Template:  msg.Template,
		Recipient: msg.To,
		Context:   string(data),
		Status:    models.NotificationPending,
	}
	if err := tx.Create(n).Error; err != nil {
		return nil, err
	}
	return n, nil
}

// sendingLease 认领后超过该时长仍未完成的通知视为投递中断，可被重新认领
const sendingLease = 5 * time.Minute

// claim 将 pending（或认领已过期的 sending）通知原子地改为 sending 并累加尝试次数
// 返回 false 表示通知已被其他投递者认领或不再需要发送
func (o *Outbox) claim(db *gorm.DB, id uuid.UUID) (*models.Notification, bool, error) {
	now := time.Now()
	res := db.Model(&models.Notification{}).
		Where("id = ?", id).
		Where("status = ? OR (status = ? AND updated_at < ?)",
			models.NotificationPending, models.NotificationSending, now.Add(-sendingLease)).
		Updates(map[string]any{
			"status":     models.NotificationSending,
			"attempts":   gorm.Expr("attempts + 1"),
			"updated_at": now,
		})
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, false, nil
	}
	var n models.Notification
	if err := db.First(&n, "id = ?", id).Error; err != nil {
		return nil, false, err
	}
	return &n, true, nil
}

// Deliver 认领并投递一条待发送通知，成功后标记为 sent
// 已被认领或已完成的通知直接返回 nil
func (o *Outbox) Deliver(ctx context.Context, id uuid.UUID) error {
	_, err := o.deliver(ctx, id)
	return err
}

// deliver 返回本次调用是否实际发送成功
func (o *Outbox) deliver(ctx context.Context, id uuid.UUID) (bool, error) {
	db := o.db.WithContext(ctx)
	n, ok, err := o.claim(db, id)
	if err != nil || !ok {
		return false, err
	}

	msg := Message{Template: n.Template, To: n.Recipient}
	if n.Context != "" {
		if err := json.Unmarshal([]byte(n.Context), &msg.Context); err != nil {
			return false, o.markFailed(db, n, err)
		}
	}

	if sendErr := o.notifier.Send(ctx, msg); sendErr != nil {
		n.LastError = sendErr.Error()
		n.Status = models.NotificationPending
		if n.Attempts >= o.maxAttempts {
			n.Status = models.NotificationFailed
		}
		if err := db.Save(n).Error; err != nil {
			log.Printf("更新通知状态失败 id=%s: %v", n.ID, err)
		}
		return false, sendErr
	}

	now := time.Now()
	n.Status = models.NotificationSent
	n.SentAt = &now
	n.LastError = ""
	return true, db.Save(n).Error
}

func (o *Outbox) markFailed(db *gorm.DB, n *models.Notification, cause error) error {
	n.Status = models.NotificationFailed
	n.LastError = cause.Error()
	if err := db.Save(n).Error; err != nil {
		return err
	}
	return cause
}

// RetryPending 重试所有待发送通知，返回成功投递的数量
func (o *Outbox) RetryPending(ctx context.Context, limit int) (int, error) {
	var pending []models.Notification
	err := o.db.WithContext(ctx).
		Where("status = ? OR (status = ? AND updated_at < ?)",
			models.NotificationPending, models.NotificationSending, time.Now().Add(-sendingLease)).
		Order("created_at").
		Limit(limit).
		Find(&pending).Error
	if err != nil {
		return 0, err
	}

	delivered := 0
	for _, n := range pending {
		if ctx.Err() != nil {
			break
		}
		sent, err := o.deliver(ctx, n.ID)
		if err != nil {
			log.Printf("通知重试失败 id=%s template=%s: %v", n.ID, n.Template, err)
			continue
		}
		if sent {
			delivered++
		}
	}
	return delivered, nil
}

// Run 定期重试待发送通知，直到 ctx 取消
func (o *Outbox) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := o.RetryPending(ctx, 100); err != nil {
				log.Printf("读取待发送通知失败: %v", err)
			} else if n > 0 {
				log.Printf("已补发 %d 条通知", n)
			}
		}
	}
}
