package api

import (
	"walet/middleware"
	"walet/service"

	"github.com/gin-gonic/gin"
)

// CategoryHandler 项目消费类别
type CategoryHandler struct {
	ledger *service.Ledger
}

func NewCategoryHandler(ledger *service.Ledger) *CategoryHandler {
	return &CategoryHandler{ledger: ledger}
}

type CategoryCreateRequest struct {
	Name string `json:"name" binding:"required,min=1,max=255" example:"餐饮"`
}

// List 项目类别列表
// @Summary 获取项目消费类别
// @Tags 消费类别
// @Produce json
// @Security BearerAuth
// @Param id path string true "项目ID"
// @Success 200 {object} Response{data=[]models.ProjectCategory} "获取成功"
// @Router /api/v1/projects/{id}/categories [get]
func (h *CategoryHandler) List(c *gin.Context) {
	projectID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	list, err := h.ledger.ListCategories(c.Request.Context(), projectID, middleware.GetCurrentUserID(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, list)
}

// Create 创建类别
// @Summary 创建消费类别
// @Description 项目经理创建，同一项目内名称不能重复
// @Tags 消费类别
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "项目ID"
// @Param request body CategoryCreateRequest true "类别信息"
// @Success 200 {object} Response{data=models.ProjectCategory} "创建成功"
// @Failure 400 {object} Response "参数错误或类别名称已存在"
// @Router /api/v1/projects/{id}/categories [post]
func (h *CategoryHandler) Create(c *gin.Context) {
	projectID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req CategoryCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	category, err := h.ledger.CreateCategory(c.Request.Context(), service.CategoryInput{
		ProjectID: projectID,
		ActorID:   middleware.GetCurrentUserID(c),
		Name:      req.Name,
	})
	if err != nil {
		RespondError(c, err)
		return
	}
	SuccessWithMessage(c, "创建成功", category)
}

// Get 类别详情
// @Summary 类别详情
// @Tags 消费类别
// @Produce json
// @Security BearerAuth
// @Param id path string true "类别ID"
// @Success 200 {object} Response{data=models.ProjectCategory} "获取成功"
// @Router /api/v1/categories/{id} [get]
func (h *CategoryHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	category, err := h.ledger.GetCategory(c.Request.Context(), id, middleware.GetCurrentUserID(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, category)
}

// Delete 删除类别，已有消费使用的类别不能删除
// @Summary 删除消费类别
// @Tags 消费类别
// @Produce json
// @Security BearerAuth
// @Param id path string true "类别ID"
// @Success 200 {object} Response "删除成功"
// @Failure 400 {object} Response "类别仍在使用"
// @Router /api/v1/categories/{id} [delete]
func (h *CategoryHandler) Delete(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.ledger.DeleteCategory(c.Request.Context(), id, middleware.GetCurrentUserID(c)); err != nil {
		RespondError(c, err)
		return
	}
	SuccessWithMessage(c, "删除成功", nil)
}
