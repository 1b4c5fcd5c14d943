package api

import (
	"time"

	"walet/middleware"
	"walet/service"

	"github.com/gin-gonic/gin"
)

// AnalyticsHandler 项目收支分析
type AnalyticsHandler struct {
	ledger *service.Ledger
	now    func() time.Time
}

// NewAnalyticsHandler 创建分析处理器
func NewAnalyticsHandler(ledger *service.Ledger) *AnalyticsHandler {
	return &AnalyticsHandler{ledger: ledger, now: time.Now}
}

// Get 项目收支分析
// @Summary 项目收支分析
// @Description 收入、支出合计以及消费最多的类别和成员，可按年、月筛选
// @Tags 分析
// @Produce json
// @Security BearerAuth
// @Param id path string true "项目ID"
// @Param year query int false "年份，2000 至今年"
// @Param month query int false "月份 1-12，未指定年份时为今年"
// @Success 200 {object} Response{data=service.ProjectAnalytics} "获取成功"
// @Failure 400 {object} Response "筛选参数错误"
// @Failure 403 {object} Response "无权限"
// @Router /api/v1/projects/{id}/analytics [get]
func (h *AnalyticsHandler) Get(c *gin.Context) {
	projectID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	filter, err := service.ParseAnalyticsFilter(c.Query("month"), c.Query("year"), h.now())
	if err != nil {
		RespondError(c, err)
		return
	}

	result, err := h.ledger.GetProjectAnalytics(c.Request.Context(), projectID, middleware.GetCurrentUserID(c), filter)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, result)
}
