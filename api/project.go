package api

import (
	"walet/middleware"
	"walet/service"

	"github.com/gin-gonic/gin"
)

// ProjectHandler 项目处理器
type ProjectHandler struct {
	ledger *service.Ledger
}

// NewProjectHandler 创建项目处理器
func NewProjectHandler(ledger *service.Ledger) *ProjectHandler {
	return &ProjectHandler{ledger: ledger}
}

// CreateProjectRequest 创建项目请求
type CreateProjectRequest struct {
	Name        string `json:"name" binding:"required,max=255" example:"团建活动"`
	Description string `json:"description" example:"年度团建经费"`
}

// UpdateProjectRequest 更新项目请求，未提供的字段保持不变
type UpdateProjectRequest struct {
	Name        *string `json:"name" example:"团建活动"`
	Description *string `json:"description"`
	Status      *bool   `json:"status"`
}

// Create 创建项目
// @Summary 创建项目
// @Description 当前用户成为项目经理，初始资金池为 0
// @Tags 项目
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateProjectRequest true "项目信息"
// @Success 200 {object} Response{data=models.Project} "创建成功"
// @Failure 400 {object} Response "请求参数错误"
// @Router /api/v1/projects [post]
func (h *ProjectHandler) Create(c *gin.Context) {
	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	project, err := h.ledger.CreateProject(c.Request.Context(), service.ProjectInput{
		ActorID:     middleware.GetCurrentUserID(c),
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		RespondError(c, err)
		return
	}
	SuccessWithMessage(c, "创建成功", project)
}

// Update 更新项目
// @Summary 更新项目
// @Tags 项目
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "项目ID"
// @Param request body UpdateProjectRequest true "项目信息"
// @Success 200 {object} Response{data=models.Project} "更新成功"
// @Failure 403 {object} Response "无权限"
// @Failure 404 {object} Response "项目不存在"
// @Router /api/v1/projects/{id} [put]
func (h *ProjectHandler) Update(c *gin.Context) {
	projectID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	project, err := h.ledger.UpdateProject(c.Request.Context(), service.UpdateProjectInput{
		ProjectID:   projectID,
		ActorID:     middleware.GetCurrentUserID(c),
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
	})
	if err != nil {
		RespondError(c, err)
		return
	}
	SuccessWithMessage(c, "更新成功", project)
}

// Delete 删除项目
// @Summary 删除项目
// @Description 同时删除成员、预算记录、消费、资金申请和邀请
// @Tags 项目
// @Produce json
// @Security BearerAuth
// @Param id path string true "项目ID"
// @Success 200 {object} Response "删除成功"
// @Failure 403 {object} Response "无权限"
// @Router /api/v1/projects/{id} [delete]
func (h *ProjectHandler) Delete(c *gin.Context) {
	projectID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.ledger.DeleteProject(c.Request.Context(), projectID, middleware.GetCurrentUserID(c)); err != nil {
		RespondError(c, err)
		return
	}
	SuccessWithMessage(c, "删除成功", nil)
}

// Get 项目详情
// @Summary 项目详情
// @Description 项目经理和成员可查看
// @Tags 项目
// @Produce json
// @Security BearerAuth
// @Param id path string true "项目ID"
// @Success 200 {object} Response{data=models.Project} "获取成功"
// @Failure 403 {object} Response "无权限"
// @Failure 404 {object} Response "项目不存在"
// @Router /api/v1/projects/{id} [get]
func (h *ProjectHandler) Get(c *gin.Context) {
	projectID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	project, err := h.ledger.GetProject(c.Request.Context(), projectID, middleware.GetCurrentUserID(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, project)
}

// ListManaged 我管理的项目
// @Summary 我管理的项目
// @Tags 项目
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]models.Project} "获取成功"
// @Router /api/v1/projects/managed [get]
func (h *ProjectHandler) ListManaged(c *gin.Context) {
	projects, err := h.ledger.ListManagedProjects(c.Request.Context(), middleware.GetCurrentUserID(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, projects)
}

// ListJoined 我参与的项目
// @Summary 我参与的项目
// @Tags 项目
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]models.Project} "获取成功"
// @Router /api/v1/projects/joined [get]
func (h *ProjectHandler) ListJoined(c *gin.Context) {
	projects, err := h.ledger.ListJoinedProjects(c.Request.Context(), middleware.GetCurrentUserID(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, projects)
}
