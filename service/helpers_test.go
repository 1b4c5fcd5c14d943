package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"walet/config"
	"walet/database"
	"walet/models"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// fakeNotifier 记录发送的通知，fail 为 true 时模拟通知服务故障
type fakeNotifier struct {
	mu   sync.Mutex
	sent []Message
	fail bool
}

func (n *fakeNotifier) Send(_ context.Context, msg Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail {
		return errors.New("notification service unavailable")
	}
	n.sent = append(n.sent, msg)
	return nil
}

func (n *fakeNotifier) setFail(fail bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.fail = fail
}

func (n *fakeNotifier) messages() []Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Message(nil), n.sent...)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []BalanceEvent
}

func (p *recordingPublisher) Publish(_ context.Context, e BalanceEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

type testEnv struct {
	db        *gorm.DB
	ledger    *Ledger
	notifier  *fakeNotifier
	publisher *recordingPublisher
	ctx       context.Context
}

func testConfig() *config.Config {
	return &config.Config{
		Server:       config.ServerConfig{Mode: "debug"},
		Notification: config.NotificationConfig{MaxAttempts: 3, Timeout: time.Second},
		Frontend:     config.FrontendConfig{URL: "https://app.example.com/"},
		Invitation:   config.InvitationConfig{TTL: 72 * time.Hour},
	}
}

// newTestEnv 内存 SQLite，单连接保证事务串行执行
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.Migrate(db))

	notifier := &fakeNotifier{}
	publisher := &recordingPublisher{}
	ledger := NewLedger(db, testConfig(), notifier)
	ledger.SetPublisher(publisher)
	return &testEnv{db: db, ledger: ledger, notifier: notifier, publisher: publisher, ctx: context.Background()}
}

func (e *testEnv) user(t *testing.T, name string) *models.User {
	t.Helper()
	u := &models.User{Username: name, Email: name + "@example.com", Password: "x", Status: models.UserStatusActive}
	require.NoError(t, e.db.Create(u).Error)
	return u
}

func (e *testEnv) project(t *testing.T, manager *models.User, totalBudget int64) *models.Project {
	t.Helper()
	p := &models.Project{ManagerID: manager.ID, Name: "Project of " + manager.Username, TotalBudget: totalBudget}
	require.NoError(t, e.db.Create(p).Error)
	return p
}

func (e *testEnv) member(t *testing.T, p *models.Project, u *models.User, budget int64) *models.ProjectMember {
	t.Helper()
	m := &models.ProjectMember{ProjectID: p.ID, MemberID: u.ID, Budget: budget}
	require.NoError(t, e.db.Create(m).Error)
	return m
}

func (e *testEnv) category(t *testing.T, p *models.Project, name string) *models.ProjectCategory {
	t.Helper()
	c := &models.ProjectCategory{ProjectID: p.ID, Name: name}
	require.NoError(t, e.db.Create(c).Error)
	return c
}

func (e *testEnv) totalBudget(t *testing.T, projectID uuid.UUID) int64 {
	t.Helper()
	var p models.Project
	require.NoError(t, e.db.First(&p, "id = ?", projectID).Error)
	return p.TotalBudget
}

func (e *testEnv) memberBudget(t *testing.T, projectID, userID uuid.UUID) int64 {
	t.Helper()
	var m models.ProjectMember
	require.NoError(t, e.db.Where("project_id = ? AND member_id = ?", projectID, userID).First(&m).Error)
	return m.Budget
}

func (e *testEnv) count(t *testing.T, model any, query string, args ...any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(model).Where(query, args...).Count(&n).Error)
	return n
}

// fixture 经理 + 一名成员 + 一个类别
type fixture struct {
	manager  *models.User
	alice    *models.User
	project  *models.Project
	category *models.ProjectCategory
}

func (e *testEnv) fixture(t *testing.T, totalBudget, aliceBudget int64) fixture {
	t.Helper()
	manager := e.user(t, "manager")
	alice := e.user(t, "alice")
	p := e.project(t, manager, totalBudget)
	e.member(t, p, alice, aliceBudget)
	c := e.category(t, p, "food")
	return fixture{manager: manager, alice: alice, project: p, category: c}
}
