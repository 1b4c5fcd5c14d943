package api

import (
	"walet/middleware"
	"walet/service"

	"github.com/gin-gonic/gin"
)

// TeamHandler 项目成员与邀请
type TeamHandler struct {
	ledger *service.Ledger
}

// NewTeamHandler 创建成员处理器
func NewTeamHandler(ledger *service.Ledger) *TeamHandler {
	return &TeamHandler{ledger: ledger}
}

// InviteRequest 邀请请求，被邀请人需已注册
type InviteRequest struct {
	Email string `json:"email" binding:"required,email" example:"alice@example.com"`
}

// InviteResponse 邀请结果，token 用于接受邀请
type InviteResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

// Invite 邀请成员
// @Summary 邀请成员
// @Description 发送邀请邮件，邮件发送失败时邀请不会保存
// @Tags 项目成员
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "项目ID"
// @Param request body InviteRequest true "被邀请人邮箱"
// @Success 200 {object} Response{data=InviteResponse} "邀请成功"
// @Failure 400 {object} Response "已是成员或不能邀请自己"
// @Failure 403 {object} Response "无权限"
// @Failure 404 {object} Response "用户不存在"
// @Failure 500 {object} Response "通知发送失败"
// @Router /api/v1/projects/{id}/invitations [post]
func (h *TeamHandler) Invite(c *gin.Context) {
	projectID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "请输入有效的邮箱地址")
		return
	}

	invitation, err := h.ledger.InviteTeamMember(c.Request.Context(), service.InviteInput{
		ProjectID: projectID,
		ActorID:   middleware.GetCurrentUserID(c),
		Email:     req.Email,
	})
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, InviteResponse{Message: "Invitation sent", Token: invitation.ID.String()})
}

// ListInvitations 项目邀请列表（项目经理）
// @Summary 项目邀请列表
// @Tags 项目成员
// @Produce json
// @Security BearerAuth
// @Param id path string true "项目ID"
// @Success 200 {object} Response{data=[]models.ProjectInvitation} "获取成功"
// @Router /api/v1/projects/{id}/invitations [get]
func (h *TeamHandler) ListInvitations(c *gin.Context) {
	projectID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	list, err := h.ledger.ListProjectInvitations(c.Request.Context(), projectID, middleware.GetCurrentUserID(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, list)
}

// ListMyInvitations 我收到的有效邀请
// @Summary 我的邀请
// @Tags 项目成员
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]models.ProjectInvitation} "获取成功"
// @Router /api/v1/invitations [get]
func (h *TeamHandler) ListMyInvitations(c *gin.Context) {
	list, err := h.ledger.ListUserInvitations(c.Request.Context(), middleware.GetCurrentUserID(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, list)
}

// Accept 接受邀请并加入项目
// @Summary 接受邀请
// @Tags 项目成员
// @Produce json
// @Security BearerAuth
// @Param id path string true "邀请令牌"
// @Success 200 {object} Response{data=models.ProjectMember} "加入成功"
// @Failure 400 {object} Response "邀请已使用或已过期"
// @Failure 403 {object} Response "邀请不属于当前用户"
// @Router /api/v1/invitations/{id}/accept [post]
func (h *TeamHandler) Accept(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	member, err := h.ledger.AddTeamMember(c.Request.Context(), service.AcceptInvitationInput{
		InvitationID: id,
		ActorID:      middleware.GetCurrentUserID(c),
	})
	if err != nil {
		RespondError(c, err)
		return
	}
	SuccessWithMessage(c, "加入成功", member)
}

// ListMembers 项目成员列表
// @Summary 项目成员列表
// @Tags 项目成员
// @Produce json
// @Security BearerAuth
// @Param id path string true "项目ID"
// @Success 200 {object} Response{data=[]models.ProjectMember} "获取成功"
// @Router /api/v1/projects/{id}/members [get]
func (h *TeamHandler) ListMembers(c *gin.Context) {
	projectID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	list, err := h.ledger.ListMembers(c.Request.Context(), projectID, middleware.GetCurrentUserID(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, list)
}

// RemoveMember 移除成员，剩余额度退回资金池
// @Summary 移除成员
// @Tags 项目成员
// @Produce json
// @Security BearerAuth
// @Param id path string true "项目ID"
// @Param user_id path string true "成员用户ID"
// @Success 200 {object} Response "移除成功"
// @Failure 403 {object} Response "无权限"
// @Failure 404 {object} Response "成员不存在"
// @Router /api/v1/projects/{id}/members/{user_id} [delete]
func (h *TeamHandler) RemoveMember(c *gin.Context) {
	projectID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	userID, ok := pathUUID(c, "user_id")
	if !ok {
		return
	}
	err := h.ledger.RemoveTeamMember(c.Request.Context(), service.RemoveMemberInput{
		ProjectID: projectID,
		MemberID:  userID,
		ActorID:   middleware.GetCurrentUserID(c),
	})
	if err != nil {
		RespondError(c, err)
		return
	}
	SuccessWithMessage(c, "移除成功", nil)
}
