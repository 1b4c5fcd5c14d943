package api

import (
	"fmt"
	"testing"

	"walet/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func transactionRoutes(e *apiEnv) func(r *gin.Engine) {
	h := NewTransactionHandler(e.ledger)
	return func(r *gin.Engine) {
		r.POST("/projects/:id/transactions", h.Create)
		r.GET("/projects/:id/transactions", h.ListProject)
		r.GET("/projects/:id/members/:user_id/transactions", h.ListMember)
		r.GET("/transactions/:id", h.Get)
		r.PUT("/transactions/:id", h.Update)
		r.DELETE("/transactions/:id", h.Delete)
	}
}

func TestTransactionHandler_SpendWholeBudgetThenReject(t *testing.T) {
	env := newAPIEnv(t, 0, 100)
	path := "/projects/" + env.project.ID.String() + "/transactions"

	body := fmt.Sprintf(`{"amount":100,"transaction_note":"午餐","transaction_category_id":"%s"}`, env.category.ID)
	code, resp := do(t, transactionRoutes(env), env.alice.ID, "POST", path, body)
	require.Equal(t, 200, code, resp)
	assert.Equal(t, int64(0), env.memberBudget(t, env.alice.ID))

	body = fmt.Sprintf(`{"amount":1,"transaction_category_id":"%s"}`, env.category.ID)
	code, resp = do(t, transactionRoutes(env), env.alice.ID, "POST", path, body)
	assert.Equal(t, 400, code)
	assert.Equal(t, "not enough amount", resp["message"])
	assert.Equal(t, int64(0), env.memberBudget(t, env.alice.ID))
}

func TestTransactionHandler_UpdateAndDelete(t *testing.T) {
	env := newAPIEnv(t, 0, 100)
	path := "/projects/" + env.project.ID.String() + "/transactions"

	body := fmt.Sprintf(`{"amount":40,"transaction_category_id":"%s"}`, env.category.ID)
	code, resp := do(t, transactionRoutes(env), env.alice.ID, "POST", path, body)
	require.Equal(t, 200, code)
	id := resp["data"].(map[string]interface{})["id"].(string)

	// 40 -> 70，额度再扣 30
	code, resp = do(t, transactionRoutes(env), env.alice.ID, "PUT", "/transactions/"+id, `{"amount":70}`)
	require.Equal(t, 200, code, resp)
	assert.Equal(t, float64(70), resp["data"].(map[string]interface{})["amount"])
	assert.Equal(t, int64(30), env.memberBudget(t, env.alice.ID))

	// 超出剩余额度
	code, _ = do(t, transactionRoutes(env), env.alice.ID, "PUT", "/transactions/"+id, `{"amount":101}`)
	assert.Equal(t, 400, code)

	// 只能修改自己的消费
	code, _ = do(t, transactionRoutes(env), env.manager.ID, "PUT", "/transactions/"+id, `{"amount":1}`)
	assert.Equal(t, 403, code)

	code, _ = do(t, transactionRoutes(env), env.alice.ID, "GET", "/transactions/"+id, "")
	assert.Equal(t, 200, code)

	code, _ = do(t, transactionRoutes(env), env.alice.ID, "DELETE", "/transactions/"+id, "")
	require.Equal(t, 200, code)
	assert.Equal(t, int64(100), env.memberBudget(t, env.alice.ID))

	var n int64
	env.db.Model(&models.Transaction{}).Count(&n)
	assert.Zero(t, n)

	code, _ = do(t, transactionRoutes(env), env.alice.ID, "GET", "/transactions/"+id, "")
	assert.Equal(t, 404, code)
}

func TestTransactionHandler_Lists(t *testing.T) {
	env := newAPIEnv(t, 0, 100)
	projectPath := "/projects/" + env.project.ID.String()

	body := fmt.Sprintf(`{"amount":10,"transaction_category_id":"%s"}`, env.category.ID)
	code, _ := do(t, transactionRoutes(env), env.alice.ID, "POST", projectPath+"/transactions", body)
	require.Equal(t, 200, code)

	code, resp := do(t, transactionRoutes(env), env.manager.ID, "GET", projectPath+"/transactions", "")
	require.Equal(t, 200, code)
	assert.Len(t, resp["data"], 1)

	// 成员不能查看整个项目的消费
	code, _ = do(t, transactionRoutes(env), env.alice.ID, "GET", projectPath+"/transactions", "")
	assert.Equal(t, 403, code)

	code, resp = do(t, transactionRoutes(env), env.alice.ID, "GET", projectPath+"/members/"+env.alice.ID.String()+"/transactions", "")
	require.Equal(t, 200, code)
	assert.Len(t, resp["data"], 1)
}
