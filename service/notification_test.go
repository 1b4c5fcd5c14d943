package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"walet/config"
	"walet/models"
)

func TestHTTPNotifier_Send(t *testing.T) {
	var (
		gotPath string
		gotBody Message
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewHTTPNotifier(srv.URL+"/", time.Second)
	err := n.Send(context.Background(), Message{
		Template: TemplateRegister,
		To:       "alice@example.com",
		Context:  map[string]any{"name": "alice"},
	})
	require.NoError(t, err)
	assert.Equal(t, "/email/register", gotPath)
	assert.Equal(t, "alice@example.com", gotBody.To)
	assert.Equal(t, "alice", gotBody.Context["name"])
}

func TestHTTPNotifier_OnlyStatusOKIsSuccess(t *testing.T) {
	for _, status := range []int{http.StatusCreated, http.StatusAccepted, http.StatusBadRequest, http.StatusInternalServerError} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))
		err := NewHTTPNotifier(srv.URL, time.Second).Send(context.Background(), Message{Template: TemplateInvitation, To: "x@example.com"})
		assert.Error(t, err, "status %d", status)
		srv.Close()
	}
}

func TestHTTPNotifier_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	start := time.Now()
	err := NewHTTPNotifier(srv.URL, 100*time.Millisecond).Send(context.Background(), Message{Template: TemplateRegister, To: "x@example.com"})
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestNewNotifier(t *testing.T) {
	cfg := &config.Config{Notification: config.NotificationConfig{Driver: "http", URL: "http://notify.local"}}
	n, err := NewNotifier(cfg)
	require.NoError(t, err)
	assert.IsType(t, &HTTPNotifier{}, n)

	cfg.Notification.Driver = "smtp"
	n, err = NewNotifier(cfg)
	require.NoError(t, err)
	assert.IsType(t, &EmailService{}, n)

	cfg.Notification.Driver = "pigeon"
	_, err = NewNotifier(cfg)
	assert.Error(t, err)
}

func TestOutbox_GivesUpAfterMaxAttempts(t *testing.T) {
	env := newTestEnv(t)
	env.notifier.setFail(true)
	outbox := NewOutbox(env.db, env.notifier, 2)

	n, err := outbox.Enqueue(env.db, Message{Template: TemplateBudgetRequestResolved, To: "alice@example.com", Context: map[string]any{"status": "approved"}})
	require.NoError(t, err)

	assert.Error(t, outbox.Deliver(env.ctx, n.ID))
	delivered, err := outbox.RetryPending(env.ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, delivered)

	var stored models.Notification
	require.NoError(t, env.db.First(&stored, "id = ?", n.ID).Error)
	assert.Equal(t, models.NotificationFailed, stored.Status)
	assert.Equal(t, 2, stored.Attempts)

	// 已失败的通知不再重试
	env.notifier.setFail(false)
	delivered, err = outbox.RetryPending(env.ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, delivered)
	assert.Empty(t, env.notifier.messages())
}

func TestOutbox_RunStopsWithContext(t *testing.T) {
	env := newTestEnv(t)
	outbox := NewOutbox(env.db, env.notifier, 3)
	n, err := outbox.Enqueue(env.db, Message{Template: TemplateRegister, To: "bob@example.com"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		outbox.Run(ctx, 10*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return len(env.notifier.messages()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	cancel()
	<-done

	var stored models.Notification
	require.NoError(t, env.db.First(&stored, "id = ?", n.ID).Error)
	assert.Equal(t, models.NotificationSent, stored.Status)
}

// blockingNotifier 在 release 关闭前阻塞每次发送
type blockingNotifier struct {
	calls   atomic.Int32
	entered chan struct{}
	release chan struct{}
}

func (n *blockingNotifier) Send(ctx context.Context, _ Message) error {
	n.calls.Add(1)
	n.entered <- struct{}{}
	select {
	case <-n.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestOutbox_InFlightNotificationIsNotResent(t *testing.T) {
	env := newTestEnv(t)
	notifier := &blockingNotifier{entered: make(chan struct{}, 2), release: make(chan struct{})}
	outbox := NewOutbox(env.db, notifier, 3)

	n, err := outbox.Enqueue(env.db, Message{Template: TemplateBudgetRequestResolved, To: "alice@example.com"})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- outbox.Deliver(env.ctx, n.ID) }()
	<-notifier.entered

	var inFlight models.Notification
	require.NoError(t, env.db.First(&inFlight, "id = ?", n.ID).Error)
	assert.Equal(t, models.NotificationSending, inFlight.Status)
	assert.Equal(t, 1, inFlight.Attempts)

	delivered, err := outbox.RetryPending(env.ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, delivered)
	require.NoError(t, outbox.Deliver(env.ctx, n.ID))

	close(notifier.release)
	require.NoError(t, <-done)
	assert.Equal(t, int32(1), notifier.calls.Load())

	var stored models.Notification
	require.NoError(t, env.db.First(&stored, "id = ?", n.ID).Error)
	assert.Equal(t, models.NotificationSent, stored.Status)
	assert.Equal(t, 1, stored.Attempts)
}

func TestOutbox_ReclaimsStaleSending(t *testing.T) {
	env := newTestEnv(t)
	outbox := NewOutbox(env.db, env.notifier, 3)
	n, err := outbox.Enqueue(env.db, Message{Template: TemplateRegister, To: "bob@example.com"})
	require.NoError(t, err)

	// 投递进程在发送途中退出
	require.NoError(t, env.db.Model(&models.Notification{}).Where("id = ?", n.ID).
		UpdateColumns(map[string]any{
			"status":     models.NotificationSending,
			"attempts":   1,
			"updated_at": time.Now().Add(-2 * sendingLease),
		}).Error)

	delivered, err := outbox.RetryPending(env.ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, delivered)
	assert.Len(t, env.notifier.messages(), 1)

	var stored models.Notification
	require.NoError(t, env.db.First(&stored, "id = ?", n.ID).Error)
	assert.Equal(t, models.NotificationSent, stored.Status)
	assert.Equal(t, 2, stored.Attempts)
}
