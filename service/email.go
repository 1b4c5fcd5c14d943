package service

import (
	"context"
	"fmt"
	"html"

	"walet/config"

	"gopkg.in/gomail.v2"
)

// EmailService 通过 SMTP 直接发送通知邮件（notification.driver = smtp）
type EmailService struct {
	cfg *config.EmailConfig
}

// NewEmailService 创建邮件服务
func NewEmailService(cfg *config.EmailConfig) *EmailService {
	return &EmailService{cfg: cfg}
}

// Send 实现 Notifier
func (s *EmailService) Send(ctx context.Context, msg Message) error {
	if !s.cfg.Enabled {
		return fmt.Errorf("邮件服务未启用，请配置 WALET_EMAIL_ENABLED=true")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	subject, body := s.render(msg)
	return s.sendEmail(msg.To, subject, body)
}

// render 按模板生成邮件标题和正文
func (s *EmailService) render(msg Message) (string, string) {
	get := func(key string) string {
		v, ok := msg.Context[key]
		if !ok || v == nil {
			return ""
		}
		return html.EscapeString(fmt.Sprint(v))
	}

	switch msg.Template {
	case TemplateRegister:
		return "【Walet】欢迎注册", s.layout(fmt.Sprintf(
			`<p>尊敬的 <strong>%s</strong>，您好！</p><p>您的账号已创建成功。</p>`,
			get("name")))
	case TemplateInvitation:
		return "【Walet】项目邀请", s.layout(fmt.Sprintf(
			`<p>尊敬的 <strong>%s</strong>，您好！</p>
<p>您被邀请加入项目 <strong>%s</strong>。</p>
<p style="text-align: center;"><a href="%s" class="btn">接受邀请</a></p>
<div class="warning"><p>⚠️ 邀请有效期至 %s</p></div>`,
			get("name"), get("project_name"), get("invitation_link"), get("expires_at")))
	case TemplateBudgetRequest:
		return "【Walet】新的资金申请", s.layout(fmt.Sprintf(
			`<p>项目 <strong>%s</strong> 收到来自 <strong>%s</strong> 的资金申请。</p>
<p>金额：%s</p><p>原因：%s</p>`,
			get("project_name"), get("requester"), get("amount"), get("reason")))
	case TemplateBudgetRequestResolved:
		return "【Walet】资金申请处理结果", s.layout(fmt.Sprintf(
			`<p>您在项目 <strong>%s</strong> 的资金申请（%s）已处理。</p>
<p>结果：<strong>%s</strong></p><p>备注：%s</p>`,
			get("project_name"), get("amount"), get("status"), get("resolve_note")))
	default:
		return "【Walet】通知", s.layout(fmt.Sprintf("<pre>%s</pre>", html.EscapeString(fmt.Sprint(msg.Context))))
	}
}

func (s *EmailService) layout(content string) string {
	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: 'Microsoft YaHei', Arial, sans-serif; background: #f5f5f5; margin: 0; padding: 20px; }
        .container { max-width: 600px; margin: 0 auto; background: #fff; border-radius: 12px; overflow: hidden; }
        .header { background: linear-gradient(135deg, #2563eb, #1d4ed8); color: white; padding: 30px; text-align: center; }
        .content { padding: 40px 30px; }
        .content p { color: #333; line-height: 1.8; margin: 0 0 20px; }
        .btn { display: inline-block; background: #2563eb; color: white !important; text-decoration: none; padding: 14px 40px; border-radius: 8px; }
        .warning { background: #fff3cd; border-left: 4px solid #ffc107; padding: 15px; margin: 20px 0; border-radius: 4px; }
        .footer { background: #f8f9fa; padding: 20px 30px; text-align: center; color: #6c757d; font-size: 12px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header"><h1>💰 Walet</h1></div>
        <div class="content">%s</div>
        <div class="footer"><p>此邮件由系统自动发送，请勿回复</p></div>
    </div>
</body>
</html>
`, content)
}

// sendEmail 发送邮件
func (s *EmailService) sendEmail(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(s.cfg.Username, s.cfg.From))
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("发送邮件失败: %w", err)
	}

	return nil
}
