package service

import (
	"context"
	"testing"

	"walet/config"

	"github.com/stretchr/testify/assert"
)

func newTestEmailService() *EmailService {
	return NewEmailService(&config.EmailConfig{})
}

func TestEmailService_RenderInvitation(t *testing.T) {
	s := newTestEmailService()
	subject, body := s.render(Message{
		Template: TemplateInvitation,
		To:       "bob@example.com",
		Context: map[string]any{
			"name":            "张三",
			"project_name":    "团建经费",
			"invitation_link": "https://app.example.com/invitations/abc",
		},
	})
	assert.Contains(t, subject, "项目邀请")
	assert.Contains(t, body, "张三")
	assert.Contains(t, body, "团建经费")
	assert.Contains(t, body, "https://app.example.com/invitations/abc")
}

func TestEmailService_RenderEscapesHTML(t *testing.T) {
	s := newTestEmailService()
	_, body := s.render(Message{
		Template: TemplateBudgetRequest,
		Context:  map[string]any{"reason": "<script>alert(1)</script>"},
	})
	assert.NotContains(t, body, "<script>")
	assert.Contains(t, body, "&lt;script&gt;")
}

func TestEmailService_RenderResolved(t *testing.T) {
	s := newTestEmailService()
	subject, body := s.render(Message{
		Template: TemplateBudgetRequestResolved,
		Context:  map[string]any{"status": "approved", "project_name": "P", "amount": "2000"},
	})
	assert.Contains(t, subject, "处理结果")
	assert.Contains(t, body, "approved")
	assert.Contains(t, body, "2000")
}

func TestEmailService_SendDisabled(t *testing.T) {
	s := newTestEmailService()
	err := s.Send(context.Background(), Message{Template: TemplateRegister, To: "a@b.c"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "未启用")
}
