package api

import (
	"context"

	"walet/middleware"
	"walet/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// FundsHandler 项目资金池与成员额度之间的划拨
type FundsHandler struct {
	ledger *service.Ledger
}

// NewFundsHandler 创建划拨处理器
func NewFundsHandler(ledger *service.Ledger) *FundsHandler {
	return &FundsHandler{ledger: ledger}
}

// FundsRequest 划拨请求，funds 为正整数（最小货币单位）
type FundsRequest struct {
	UserID uuid.UUID `json:"user_id" binding:"required"`
	Funds  int64     `json:"funds" example:"100"`
	Notes  string    `json:"notes" example:"差旅补助"`
}

// Send 从资金池划拨给成员
// @Summary 划拨资金给成员
// @Tags 资金划拨
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "项目ID"
// @Param request body FundsRequest true "划拨信息"
// @Success 200 {object} Response{data=service.FundsResult} "划拨成功"
// @Failure 400 {object} Response "参数错误或资金不足"
// @Failure 403 {object} Response "无权限"
// @Failure 404 {object} Response "项目或成员不存在"
// @Router /api/v1/projects/{id}/send-funds [post]
func (h *FundsHandler) Send(c *gin.Context) {
	h.move(c, h.ledger.SendFunds)
}

// Take 从成员额度收回到资金池
// @Summary 收回成员资金
// @Tags 资金划拨
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "项目ID"
// @Param request body FundsRequest true "收回信息"
// @Success 200 {object} Response{data=service.FundsResult} "收回成功"
// @Failure 400 {object} Response "参数错误或成员额度不足"
// @Failure 403 {object} Response "无权限"
// @Failure 404 {object} Response "项目或成员不存在"
// @Router /api/v1/projects/{id}/take-funds [post]
func (h *FundsHandler) Take(c *gin.Context) {
	h.move(c, h.ledger.TakeFunds)
}

func (h *FundsHandler) move(c *gin.Context, op func(ctx context.Context, in service.FundsInput) (*service.FundsResult, error)) {
	projectID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req FundsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	result, err := op(c.Request.Context(), service.FundsInput{
		ProjectID: projectID,
		MemberID:  req.UserID,
		ActorID:   middleware.GetCurrentUserID(c),
		Funds:     req.Funds,
		Notes:     req.Notes,
	})
	if err != nil {
		RespondError(c, err)
		return
	}
	SuccessWithMessage(c, result.Message, result)
}
