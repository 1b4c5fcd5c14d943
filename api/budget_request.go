package api

import (
	"walet/middleware"
	"walet/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// BudgetRequestHandler 资金申请
type BudgetRequestHandler struct {
	ledger *service.Ledger
}

// NewBudgetRequestHandler 创建资金申请处理器
func NewBudgetRequestHandler(ledger *service.Ledger) *BudgetRequestHandler {
	return &BudgetRequestHandler{ledger: ledger}
}

// CreateBudgetRequestRequest 成员提交资金申请
type CreateBudgetRequestRequest struct {
	Amount decimal.Decimal `json:"amount" swaggertype:"number" example:"250.75"`
	Reason string          `json:"request_reason" example:"设备采购"`
}

// ResolveBudgetRequestRequest 项目经理处理申请，action 为 approve 或 reject
type ResolveBudgetRequestRequest struct {
	Action      string `json:"action" binding:"required" example:"approve"`
	ResolveNote string `json:"resolve_note" example:"同意"`
}

// Create 提交资金申请
// @Summary 提交资金申请
// @Description 申请提交后通知项目经理，通知发送失败时申请不会保存
// @Tags 资金申请
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "项目ID"
// @Param request body CreateBudgetRequestRequest true "申请信息"
// @Success 200 {object} Response{data=models.BudgetRequest} "提交成功"
// @Failure 400 {object} Response "参数错误"
// @Failure 403 {object} Response "不是项目成员"
// @Failure 500 {object} Response "通知发送失败"
// @Router /api/v1/projects/{id}/budget-requests [post]
func (h *BudgetRequestHandler) Create(c *gin.Context) {
	projectID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req CreateBudgetRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	request, err := h.ledger.CreateBudgetRequest(c.Request.Context(), service.BudgetRequestInput{
		ProjectID: projectID,
		ActorID:   middleware.GetCurrentUserID(c),
		Amount:    req.Amount,
		Reason:    req.Reason,
	})
	if err != nil {
		RespondError(c, err)
		return
	}
	SuccessWithMessage(c, "提交成功", request)
}

// ListProject 项目资金申请（项目经理）
// @Summary 项目资金申请列表
// @Tags 资金申请
// @Produce json
// @Security BearerAuth
// @Param id path string true "项目ID"
// @Param status query string false "pending / approved / rejected"
// @Success 200 {object} Response{data=[]models.BudgetRequest} "获取成功"
// @Router /api/v1/projects/{id}/budget-requests [get]
func (h *BudgetRequestHandler) ListProject(c *gin.Context) {
	projectID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	list, err := h.ledger.ListProjectBudgetRequests(c.Request.Context(), projectID, middleware.GetCurrentUserID(c), c.Query("status"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, list)
}

// ListMine 我提交的资金申请
// @Summary 我的资金申请
// @Tags 资金申请
// @Produce json
// @Security BearerAuth
// @Param status query string false "pending / approved / rejected"
// @Success 200 {object} Response{data=[]models.BudgetRequest} "获取成功"
// @Router /api/v1/budget-requests [get]
func (h *BudgetRequestHandler) ListMine(c *gin.Context) {
	list, err := h.ledger.ListUserBudgetRequests(c.Request.Context(), middleware.GetCurrentUserID(c), c.Query("status"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, list)
}

// Get 资金申请详情
// @Summary 资金申请详情
// @Tags 资金申请
// @Produce json
// @Security BearerAuth
// @Param id path string true "申请ID"
// @Success 200 {object} Response{data=models.BudgetRequest} "获取成功"
// @Router /api/v1/budget-requests/{id} [get]
func (h *BudgetRequestHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	request, err := h.ledger.GetBudgetRequest(c.Request.Context(), id, middleware.GetCurrentUserID(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, request)
}

// Resolve 批准或拒绝资金申请
// @Summary 处理资金申请
// @Description 批准时从资金池划拨申请金额的整数部分给申请人；每个申请只能处理一次
// @Tags 资金申请
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "申请ID"
// @Param request body ResolveBudgetRequestRequest true "处理信息"
// @Success 200 {object} Response{data=service.ResolveResult} "处理成功"
// @Failure 400 {object} Response "已处理或资金不足"
// @Failure 403 {object} Response "无权限"
// @Router /api/v1/budget-requests/{id}/resolve [post]
func (h *BudgetRequestHandler) Resolve(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req ResolveBudgetRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	result, err := h.ledger.ResolveBudgetRequest(c.Request.Context(), service.ResolveInput{
		RequestID:   id,
		ActorID:     middleware.GetCurrentUserID(c),
		Action:      req.Action,
		ResolveNote: req.ResolveNote,
	})
	if err != nil {
		RespondError(c, err)
		return
	}
	SuccessWithMessage(c, result.Message, result)
}
