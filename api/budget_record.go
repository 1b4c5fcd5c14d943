package api

import (
	"walet/middleware"
	"walet/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// BudgetRecordHandler 项目预算收支记录
type BudgetRecordHandler struct {
	ledger *service.Ledger
}

// NewBudgetRecordHandler 创建预算记录处理器
func NewBudgetRecordHandler(ledger *service.Ledger) *BudgetRecordHandler {
	return &BudgetRecordHandler{ledger: ledger}
}

// CreateBudgetRecordRequest 创建预算记录请求，金额为最小货币单位
// 收入记录增加项目资金池，支出记录需指定成员
type CreateBudgetRecordRequest struct {
	Amount   int64      `json:"amount" example:"1000"`
	Notes    string     `json:"notes" example:"赞助款"`
	IsIncome bool       `json:"is_income" example:"true"`
	MemberID *uuid.UUID `json:"member_id"`
}

// UpdateBudgetRecordRequest 更新预算记录请求，未提供的字段保持不变
type UpdateBudgetRecordRequest struct {
	Amount   *int64     `json:"amount"`
	Notes    *string    `json:"notes"`
	IsIncome *bool      `json:"is_income"`
	MemberID *uuid.UUID `json:"member_id"`
}

// Create 新增预算记录
// @Summary 新增预算记录
// @Tags 预算记录
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "项目ID"
// @Param request body CreateBudgetRecordRequest true "记录信息"
// @Success 200 {object} Response{data=models.ProjectBudgetRecord} "创建成功"
// @Failure 400 {object} Response "参数错误或资金不足"
// @Failure 403 {object} Response "无权限"
// @Router /api/v1/projects/{id}/budget-records [post]
func (h *BudgetRecordHandler) Create(c *gin.Context) {
	projectID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req CreateBudgetRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	record, err := h.ledger.CreateBudgetRecord(c.Request.Context(), service.BudgetRecordInput{
		ProjectID:  projectID,
		ActorID:    middleware.GetCurrentUserID(c),
		MemberID:   req.MemberID,
		Amount:     req.Amount,
		Notes:      req.Notes,
		IsIncome:   req.IsIncome,
		IsEditable: true,
	})
	if err != nil {
		RespondError(c, err)
		return
	}
	SuccessWithMessage(c, "创建成功", record)
}

// List 项目预算记录
// @Summary 项目预算记录列表
// @Tags 预算记录
// @Produce json
// @Security BearerAuth
// @Param id path string true "项目ID"
// @Success 200 {object} Response{data=[]models.ProjectBudgetRecord} "获取成功"
// @Router /api/v1/projects/{id}/budget-records [get]
func (h *BudgetRecordHandler) List(c *gin.Context) {
	projectID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	records, err := h.ledger.ListBudgetRecords(c.Request.Context(), projectID, middleware.GetCurrentUserID(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, records)
}

// Get 预算记录详情
// @Summary 预算记录详情
// @Tags 预算记录
// @Produce json
// @Security BearerAuth
// @Param id path string true "记录ID"
// @Success 200 {object} Response{data=models.ProjectBudgetRecord} "获取成功"
// @Router /api/v1/budget-records/{id} [get]
func (h *BudgetRecordHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	record, err := h.ledger.GetBudgetRecord(c.Request.Context(), id, middleware.GetCurrentUserID(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, record)
}

// Update 修改预算记录，按新旧差额调整资金池
// @Summary 修改预算记录
// @Tags 预算记录
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "记录ID"
// @Param request body UpdateBudgetRecordRequest true "记录信息"
// @Success 200 {object} Response{data=models.ProjectBudgetRecord} "更新成功"
// @Failure 400 {object} Response "参数错误、记录不可编辑或资金不足"
// @Router /api/v1/budget-records/{id} [put]
func (h *BudgetRecordHandler) Update(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req UpdateBudgetRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	record, err := h.ledger.UpdateBudgetRecord(c.Request.Context(), service.UpdateBudgetRecordInput{
		RecordID: id,
		ActorID:  middleware.GetCurrentUserID(c),
		Amount:   req.Amount,
		Notes:    req.Notes,
		IsIncome: req.IsIncome,
		MemberID: req.MemberID,
	})
	if err != nil {
		RespondError(c, err)
		return
	}
	SuccessWithMessage(c, "更新成功", record)
}

// Delete 删除预算记录并撤销其对资金池的影响
// @Summary 删除预算记录
// @Tags 预算记录
// @Produce json
// @Security BearerAuth
// @Param id path string true "记录ID"
// @Success 200 {object} Response "删除成功"
// @Router /api/v1/budget-records/{id} [delete]
func (h *BudgetRecordHandler) Delete(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.ledger.DeleteBudgetRecord(c.Request.Context(), id, middleware.GetCurrentUserID(c)); err != nil {
		RespondError(c, err)
		return
	}
	SuccessWithMessage(c, "删除成功", nil)
}
