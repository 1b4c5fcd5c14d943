package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"walet/config"
	"walet/database"
	"walet/models"
	"walet/service"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setUserIDMiddleware(userID uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userID", userID)
		c.Next()
	}
}

// stubNotifier 记录通知，fail 为 true 时返回错误
type stubNotifier struct {
	mu       sync.Mutex
	messages []service.Message
	fail     bool
}

func (n *stubNotifier) Send(_ context.Context, msg service.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail {
		return errors.New("notification service unavailable")
	}
	n.messages = append(n.messages, msg)
	return nil
}

func (n *stubNotifier) sent() []service.Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]service.Message(nil), n.messages...)
}

// apiEnv 内存 SQLite 上的完整账本
type apiEnv struct {
	db       *gorm.DB
	ledger   *service.Ledger
	notifier *stubNotifier
	manager  *models.User
	alice    *models.User
	project  *models.Project
	category *models.ProjectCategory
}

func newAPIEnv(t *testing.T, totalBudget, aliceBudget int64) *apiEnv {
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

	cfg := &config.Config{
		Server:       config.ServerConfig{Mode: "debug"},
		Notification: config.NotificationConfig{MaxAttempts: 3, Timeout: time.Second},
		Frontend:     config.FrontendConfig{URL: "https://app.example.com"},
		Invitation:   config.InvitationConfig{TTL: 72 * time.Hour},
	}
	notifier := &stubNotifier{}
	env := &apiEnv{db: db, ledger: service.NewLedger(db, cfg, notifier), notifier: notifier}

	env.manager = env.user(t, "manager")
	env.alice = env.user(t, "alice")
	env.project = &models.Project{ManagerID: env.manager.ID, Name: "Trip", TotalBudget: totalBudget}
	require.NoError(t, db.Create(env.project).Error)
	require.NoError(t, db.Create(&models.ProjectMember{ProjectID: env.project.ID, MemberID: env.alice.ID, Budget: aliceBudget}).Error)
	env.category = &models.ProjectCategory{ProjectID: env.project.ID, Name: "food"}
	require.NoError(t, db.Create(env.category).Error)
	return env
}

func (e *apiEnv) user(t *testing.T, name string) *models.User {
	t.Helper()
	u := &models.User{Username: name, Email: name + "@example.com", Password: "x", Status: models.UserStatusActive}
	require.NoError(t, e.db.Create(u).Error)
	return u
}

func (e *apiEnv) totalBudget(t *testing.T) int64 {
	t.Helper()
	var p models.Project
	require.NoError(t, e.db.First(&p, "id = ?", e.project.ID).Error)
	return p.TotalBudget
}

func (e *apiEnv) memberBudget(t *testing.T, userID uuid.UUID) int64 {
	t.Helper()
	var m models.ProjectMember
	require.NoError(t, e.db.Where("project_id = ? AND member_id = ?", e.project.ID, userID).First(&m).Error)
	return m.Budget
}

// do 以 actor 身份发起请求，返回状态码和解析后的响应
func do(t *testing.T, register func(r *gin.Engine), actor uuid.UUID, method, path, body string) (int, map[string]interface{}) {
	t.Helper()
	router := gin.New()
	router.Use(setUserIDMiddleware(actor))
	register(router)

	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return w.Code, resp
}

func transactionInput(e *apiEnv, amount int64) service.TransactionInput {
	return service.TransactionInput{
		ProjectID:  e.project.ID,
		ActorID:    e.alice.ID,
		CategoryID: e.category.ID,
		Amount:     amount,
	}
}

// testContext mirrors testing.T.Context (Go 1.24+): the context is cancelled
// when the test finishes.
func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
