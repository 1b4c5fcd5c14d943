package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"walet/config"
)

// 通知模板
const (
	TemplateRegister              = "register"
	TemplateInvitation            = "invitation"
	TemplateBudgetRequest         = "budget-request"
	TemplateBudgetRequestResolved = "budget-request-resolved"
)

// Message 一封待发送的通知邮件
type Message struct {
	Template string         `json:"-"`
	To       string         `json:"to"`
	Context  map[string]any `json:"context"`
}

// Notifier 通知发送方，返回 nil 表示对方已确认接收
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// NewNotifier 根据配置选择通知驱动
func NewNotifier(cfg *config.Config) (Notifier, error) {
	switch cfg.Notification.Driver {
	case "", "http":
		return NewHTTPNotifier(cfg.Notification.URL, cfg.Notification.Timeout), nil
	case "smtp":
		return NewEmailService(&cfg.Email), nil
	default:
		return nil, fmt.Errorf("不支持的通知驱动: %s", cfg.Notification.Driver)
	}
}

// HTTPNotifier 调用通知服务 POST {baseURL}/email/{template}
type HTTPNotifier struct {
	baseURL string
	client  *http.Client
}

// NewHTTPNotifier 创建 HTTP 通知客户端，timeout 限制单次调用时长
func NewHTTPNotifier(baseURL string, timeout time.Duration) *HTTPNotifier {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPNotifier{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Send 仅 HTTP 200 视为成功
func (n *HTTPNotifier) Send(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("序列化通知失败: %w", err)
	}

	url := fmt.Sprintf("%s/email/%s", n.baseURL, msg.Template)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("请求通知服务失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("通知服务返回 %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	return nil
}
