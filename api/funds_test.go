package api

import (
	"fmt"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func fundsRoutes(e *apiEnv) func(r *gin.Engine) {
	h := NewFundsHandler(e.ledger)
	return func(r *gin.Engine) {
		r.POST("/projects/:id/send-funds", h.Send)
		r.POST("/projects/:id/take-funds", h.Take)
	}
}

func TestFundsHandler_Send(t *testing.T) {
	env := newAPIEnv(t, 1000, 0)

	body := fmt.Sprintf(`{"user_id":"%s","funds":300,"notes":"差旅"}`, env.alice.ID)
	code, resp := do(t, fundsRoutes(env), env.manager.ID, "POST", "/projects/"+env.project.ID.String()+"/send-funds", body)

	assert.Equal(t, 200, code)
	assert.Equal(t, "Funds sent successfully", resp["message"])
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, float64(700), data["project_remaining_budget"])
	assert.Equal(t, float64(300), data["member_new_budget"])
	assert.Equal(t, int64(700), env.totalBudget(t))
	assert.Equal(t, int64(300), env.memberBudget(t, env.alice.ID))
}

func TestFundsHandler_Take(t *testing.T) {
	env := newAPIEnv(t, 0, 200)

	body := fmt.Sprintf(`{"user_id":"%s","funds":150}`, env.alice.ID)
	code, resp := do(t, fundsRoutes(env), env.manager.ID, "POST", "/projects/"+env.project.ID.String()+"/take-funds", body)

	assert.Equal(t, 200, code)
	assert.Equal(t, "Funds taken successfully", resp["message"])
	assert.Equal(t, int64(150), env.totalBudget(t))
	assert.Equal(t, int64(50), env.memberBudget(t, env.alice.ID))
}

func TestFundsHandler_Errors(t *testing.T) {
	env := newAPIEnv(t, 100, 10)
	projectPath := "/projects/" + env.project.ID.String()

	tests := []struct {
		name  string
		actor uuid.UUID
		path  string
		body  string
		code  int
	}{
		{"project budget too low", env.manager.ID, projectPath + "/send-funds", fmt.Sprintf(`{"user_id":"%s","funds":101}`, env.alice.ID), 400},
		{"member budget too low", env.manager.ID, projectPath + "/take-funds", fmt.Sprintf(`{"user_id":"%s","funds":11}`, env.alice.ID), 400},
		{"zero funds", env.manager.ID, projectPath + "/send-funds", fmt.Sprintf(`{"user_id":"%s","funds":0}`, env.alice.ID), 400},
		{"missing user", env.manager.ID, projectPath + "/send-funds", `{"funds":10}`, 400},
		{"not manager", env.alice.ID, projectPath + "/send-funds", fmt.Sprintf(`{"user_id":"%s","funds":10}`, env.alice.ID), 403},
		{"not a member", env.manager.ID, projectPath + "/send-funds", fmt.Sprintf(`{"user_id":"%s","funds":10}`, uuid.New()), 404},
		{"unknown project", env.manager.ID, "/projects/" + uuid.NewString() + "/send-funds", fmt.Sprintf(`{"user_id":"%s","funds":10}`, env.alice.ID), 404},
		{"malformed project id", env.manager.ID, "/projects/abc/send-funds", fmt.Sprintf(`{"user_id":"%s","funds":10}`, env.alice.ID), 400},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _ := do(t, fundsRoutes(env), tt.actor, "POST", tt.path, tt.body)
			assert.Equal(t, tt.code, code)
		})
	}

	// 失败的请求不改变余额
	assert.Equal(t, int64(100), env.totalBudget(t))
	assert.Equal(t, int64(10), env.memberBudget(t, env.alice.ID))
}
