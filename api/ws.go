package api

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"walet/middleware"
	"walet/service"

	"github.com/gin-gonic/gin"
	"github.com/olahol/melody"
)

const (
	wsProjectKey = "project_id"
	wsUserKey    = "user_id"
)

// Hub 按项目推送余额变动，实现 service.Publisher
type Hub struct {
	m *melody.Melody
}

// NewHub 创建推送中心
func NewHub() *Hub {
	m := melody.New()
	m.Config.MaxMessageSize = 1024
	m.Config.PingPeriod = 30 * time.Second
	m.Config.PongWait = 60 * time.Second

	m.HandleConnect(func(s *melody.Session) {
		projectID, _ := s.Get(wsProjectKey)
		log.Printf("websocket 已连接 project=%v", projectID)
	})
	m.HandleDisconnect(func(s *melody.Session) {
		projectID, _ := s.Get(wsProjectKey)
		log.Printf("websocket 已断开 project=%v", projectID)
	})
	m.HandleError(func(s *melody.Session, err error) {
		log.Printf("websocket 错误: %v", err)
	})

	return &Hub{m: m}
}

// Publish 只发给订阅了该项目的连接
func (h *Hub) Publish(_ context.Context, event service.BalanceEvent) error {
	msg, err := json.Marshal(event)
	if err != nil {
		return err
	}
	projectID := event.ProjectID.String()
	if event.Type == service.EventMemberRemoved && event.MemberID != nil {
		h.disconnect(projectID, event.MemberID.String())
	}
	return h.m.BroadcastFilter(msg, func(s *melody.Session) bool {
		id, ok := s.Get(wsProjectKey)
		return ok && id == projectID
	})
}

// disconnect 断开某用户在该项目上的全部连接
func (h *Hub) disconnect(projectID, userID string) {
	sessions, err := h.m.Sessions()
	if err != nil {
		return
	}
	for _, s := range sessions {
		p, _ := s.Get(wsProjectKey)
		u, _ := s.Get(wsUserKey)
		if p == projectID && u == userID {
			if err := s.Close(); err != nil {
				log.Printf("websocket 关闭失败: %v", err)
			}
		}
	}
}

// Close 断开所有连接
func (h *Hub) Close() error {
	return h.m.Close()
}

// WSHandler 项目余额实时推送
type WSHandler struct {
	ledger *service.Ledger
	hub    *Hub
}

// NewWSHandler 创建推送处理器
func NewWSHandler(ledger *service.Ledger, hub *Hub) *WSHandler {
	return &WSHandler{ledger: ledger, hub: hub}
}

// HandleWS 订阅项目余额变动，项目经理和成员可订阅
// 成员被移出项目时其连接随之断开
// @Summary 订阅项目余额变动（WebSocket）
// @Description 浏览器无法设置请求头时可通过 ?token= 传递 JWT
// @Tags 实时推送
// @Security BearerAuth
// @Param id path string true "项目ID"
// @Success 101 "切换为 WebSocket"
// @Failure 403 {object} Response "无权限"
// @Router /api/v1/projects/{id}/ws [get]
func (h *WSHandler) HandleWS(c *gin.Context) {
	projectID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	userID := middleware.GetCurrentUserID(c)
	if _, err := h.ledger.GetProject(c.Request.Context(), projectID, userID); err != nil {
		RespondError(c, err)
		return
	}

	keys := map[string]interface{}{
		wsProjectKey: projectID.String(),
		wsUserKey:    userID.String(),
	}
	if err := h.hub.m.HandleRequestWithKeys(c.Writer, c.Request, keys); err != nil {
		log.Printf("websocket 升级失败: %v", err)
	}
}
