package api

import (
	"fmt"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func budgetRecordRoutes(e *apiEnv) func(r *gin.Engine) {
	h := NewBudgetRecordHandler(e.ledger)
	f := NewFundsHandler(e.ledger)
	return func(r *gin.Engine) {
		r.POST("/projects/:id/budget-records", h.Create)
		r.GET("/projects/:id/budget-records", h.List)
		r.POST("/projects/:id/send-funds", f.Send)
		r.GET("/budget-records/:id", h.Get)
		r.PUT("/budget-records/:id", h.Update)
		r.DELETE("/budget-records/:id", h.Delete)
	}
}

func TestBudgetRecordHandler_IncomeLifecycle(t *testing.T) {
	env := newAPIEnv(t, 0, 0)
	path := "/projects/" + env.project.ID.String() + "/budget-records"

	code, resp := do(t, budgetRecordRoutes(env), env.manager.ID, "POST", path, `{"amount":1000,"notes":"赞助","is_income":true}`)
	require.Equal(t, 200, code, resp)
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, true, data["is_editable"])
	id := data["id"].(string)
	assert.Equal(t, int64(1000), env.totalBudget(t))

	code, _ = do(t, budgetRecordRoutes(env), env.manager.ID, "PUT", "/budget-records/"+id, `{"amount":400}`)
	require.Equal(t, 200, code)
	assert.Equal(t, int64(400), env.totalBudget(t))

	code, _ = do(t, budgetRecordRoutes(env), env.manager.ID, "GET", "/budget-records/"+id, "")
	assert.Equal(t, 200, code)
	code, _ = do(t, budgetRecordRoutes(env), env.alice.ID, "GET", "/budget-records/"+id, "")
	assert.Equal(t, 403, code)

	code, _ = do(t, budgetRecordRoutes(env), env.manager.ID, "DELETE", "/budget-records/"+id, "")
	require.Equal(t, 200, code)
	assert.Equal(t, int64(0), env.totalBudget(t))
}

func TestBudgetRecordHandler_Errors(t *testing.T) {
	env := newAPIEnv(t, 100, 0)
	path := "/projects/" + env.project.ID.String() + "/budget-records"
	expense := func(amount int64) string {
		return fmt.Sprintf(`{"amount":%d,"is_income":false,"member_id":"%s"}`, amount, env.alice.ID)
	}

	tests := []struct {
		name string
		body string
		code int
	}{
		{"negative amount", `{"amount":-50,"is_income":true}`, 400},
		{"notes too long", fmt.Sprintf(`{"amount":1,"is_income":true,"notes":"%s"}`, strings.Repeat("a", 51)), 400},
		{"expense without member", `{"amount":1,"is_income":false}`, 400},
		{"expense over budget", expense(101), 400},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _ := do(t, budgetRecordRoutes(env), env.manager.ID, "POST", path, tt.body)
			assert.Equal(t, tt.code, code)
		})
	}
	assert.Equal(t, int64(100), env.totalBudget(t))

	code, _ := do(t, budgetRecordRoutes(env), env.alice.ID, "POST", path, `{"amount":1,"is_income":true}`)
	assert.Equal(t, 403, code)

	code, _ = do(t, budgetRecordRoutes(env), env.manager.ID, "POST", path, expense(100))
	assert.Equal(t, 200, code)
	assert.Equal(t, int64(0), env.totalBudget(t))
}

func TestBudgetRecordHandler_FundsRecordsAreReadOnly(t *testing.T) {
	env := newAPIEnv(t, 100, 0)
	projectPath := "/projects/" + env.project.ID.String()

	code, _ := do(t, budgetRecordRoutes(env), env.manager.ID, "POST", projectPath+"/send-funds",
		fmt.Sprintf(`{"user_id":"%s","funds":30}`, env.alice.ID))
	require.Equal(t, 200, code)

	code, resp := do(t, budgetRecordRoutes(env), env.manager.ID, "GET", projectPath+"/budget-records", "")
	require.Equal(t, 200, code)
	records := resp["data"].([]interface{})
	require.Len(t, records, 1)
	record := records[0].(map[string]interface{})
	assert.Equal(t, false, record["is_editable"])

	id := record["id"].(string)
	code, _ = do(t, budgetRecordRoutes(env), env.manager.ID, "PUT", "/budget-records/"+id, `{"amount":1}`)
	assert.Equal(t, 403, code)
	code, _ = do(t, budgetRecordRoutes(env), env.manager.ID, "DELETE", "/budget-records/"+id, "")
	assert.Equal(t, 403, code)
	assert.Equal(t, int64(70), env.totalBudget(t))
}
