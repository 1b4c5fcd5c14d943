package api

import (
	"walet/middleware"
	"walet/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TransactionHandler 成员消费
type TransactionHandler struct {
	ledger *service.Ledger
}

// NewTransactionHandler 创建消费处理器
func NewTransactionHandler(ledger *service.Ledger) *TransactionHandler {
	return &TransactionHandler{ledger: ledger}
}

// CreateTransactionRequest 新增消费，金额从当前成员额度中扣除
type CreateTransactionRequest struct {
	Amount     int64     `json:"amount" example:"50"`
	Note       string    `json:"transaction_note" example:"午餐"`
	CategoryID uuid.UUID `json:"transaction_category_id" binding:"required"`
}

// UpdateTransactionRequest 修改消费，未提供的字段保持不变
type UpdateTransactionRequest struct {
	Amount     *int64     `json:"amount"`
	Note       *string    `json:"transaction_note"`
	CategoryID *uuid.UUID `json:"transaction_category_id"`
}

// Create 新增消费
// @Summary 新增消费
// @Tags 消费
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "项目ID"
// @Param request body CreateTransactionRequest true "消费信息"
// @Success 200 {object} Response{data=models.Transaction} "创建成功"
// @Failure 400 {object} Response "参数错误或额度不足"
// @Failure 403 {object} Response "不是项目成员"
// @Router /api/v1/projects/{id}/transactions [post]
func (h *TransactionHandler) Create(c *gin.Context) {
	projectID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	txn, err := h.ledger.CreateTransaction(c.Request.Context(), service.TransactionInput{
		ProjectID:  projectID,
		ActorID:    middleware.GetCurrentUserID(c),
		CategoryID: req.CategoryID,
		Amount:     req.Amount,
		Note:       req.Note,
	})
	if err != nil {
		RespondError(c, err)
		return
	}
	SuccessWithMessage(c, "创建成功", txn)
}

// ListProject 项目全部消费（项目经理）
// @Summary 项目消费列表
// @Tags 消费
// @Produce json
// @Security BearerAuth
// @Param id path string true "项目ID"
// @Success 200 {object} Response{data=[]models.Transaction} "获取成功"
// @Router /api/v1/projects/{id}/transactions [get]
func (h *TransactionHandler) ListProject(c *gin.Context) {
	projectID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	list, err := h.ledger.ListProjectTransactions(c.Request.Context(), projectID, middleware.GetCurrentUserID(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, list)
}

// ListMember 成员本人在项目内的消费
// @Summary 成员消费列表
// @Tags 消费
// @Produce json
// @Security BearerAuth
// @Param id path string true "项目ID"
// @Param user_id path string true "成员用户ID"
// @Success 200 {object} Response{data=[]models.Transaction} "获取成功"
// @Router /api/v1/projects/{id}/members/{user_id}/transactions [get]
func (h *TransactionHandler) ListMember(c *gin.Context) {
	projectID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	userID, ok := pathUUID(c, "user_id")
	if !ok {
		return
	}
	list, err := h.ledger.ListMemberTransactions(c.Request.Context(), projectID, userID, middleware.GetCurrentUserID(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, list)
}

// Get 消费详情
// @Summary 消费详情
// @Tags 消费
// @Produce json
// @Security BearerAuth
// @Param id path string true "消费ID"
// @Success 200 {object} Response{data=models.Transaction} "获取成功"
// @Router /api/v1/transactions/{id} [get]
func (h *TransactionHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	txn, err := h.ledger.GetTransaction(c.Request.Context(), id, middleware.GetCurrentUserID(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, txn)
}

// Update 修改消费，成员额度按新旧差额调整
// @Summary 修改消费
// @Tags 消费
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "消费ID"
// @Param request body UpdateTransactionRequest true "消费信息"
// @Success 200 {object} Response{data=models.Transaction} "更新成功"
// @Failure 400 {object} Response "参数错误或额度不足"
// @Failure 403 {object} Response "只能修改自己的消费"
// @Router /api/v1/transactions/{id} [put]
func (h *TransactionHandler) Update(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req UpdateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	txn, err := h.ledger.UpdateTransaction(c.Request.Context(), service.UpdateTransactionInput{
		TransactionID: id,
		ActorID:       middleware.GetCurrentUserID(c),
		Amount:        req.Amount,
		Note:          req.Note,
		CategoryID:    req.CategoryID,
	})
	if err != nil {
		RespondError(c, err)
		return
	}
	SuccessWithMessage(c, "更新成功", txn)
}

// Delete 删除消费并退回金额
// @Summary 删除消费
// @Tags 消费
// @Produce json
// @Security BearerAuth
// @Param id path string true "消费ID"
// @Success 200 {object} Response "删除成功"
// @Router /api/v1/transactions/{id} [delete]
func (h *TransactionHandler) Delete(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.ledger.DeleteTransaction(c.Request.Context(), id, middleware.GetCurrentUserID(c)); err != nil {
		RespondError(c, err)
		return
	}
	SuccessWithMessage(c, "删除成功", nil)
}
