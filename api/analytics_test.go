package api

import (
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func analyticsRoutes(e *apiEnv) func(r *gin.Engine) {
	h := NewAnalyticsHandler(e.ledger)
	h.now = func() time.Time { return time.Date(2024, time.June, 15, 12, 0, 0, 0, time.Local) }
	return func(r *gin.Engine) {
		r.GET("/projects/:id/analytics", h.Get)
	}
}

func TestAnalyticsHandler_Get(t *testing.T) {
	env := newAPIEnv(t, 0, 100)
	_, err := env.ledger.CreateTransaction(testContext(t), transactionInput(env, 30))
	require.NoError(t, err)
	path := "/projects/" + env.project.ID.String() + "/analytics"

	code, resp := do(t, analyticsRoutes(env), env.manager.ID, "GET", path, "")
	require.Equal(t, 200, code, resp)
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, float64(30), data["total_spendings"])
	top := data["top_members"].([]interface{})
	require.Len(t, top, 1)
	assert.Equal(t, "alice", top[0].(map[string]interface{})["username"])

	// 2001 年没有任何数据
	code, resp = do(t, analyticsRoutes(env), env.manager.ID, "GET", path+"?year=2001", "")
	require.Equal(t, 200, code)
	assert.Equal(t, float64(0), resp["data"].(map[string]interface{})["total_spendings"])

	code, _ = do(t, analyticsRoutes(env), env.alice.ID, "GET", path, "")
	assert.Equal(t, 403, code)
}

func TestAnalyticsHandler_InvalidFilter(t *testing.T) {
	env := newAPIEnv(t, 0, 0)
	path := "/projects/" + env.project.ID.String() + "/analytics"

	for _, query := range []string{"?month=13", "?month=abc", "?year=1999", "?year=2025", "?month=7"} {
		code, _ := do(t, analyticsRoutes(env), env.manager.ID, "GET", path+query, "")
		assert.Equal(t, 400, code, query)
	}
}
