package api

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"walet/middleware"
	"walet/service"

	"github.com/gin-gonic/gin"
)

// ExportHandler 导出处理器
type ExportHandler struct {
	ledger *service.Ledger
}

// NewExportHandler 创建导出处理器
func NewExportHandler(ledger *service.Ledger) *ExportHandler {
	return &ExportHandler{ledger: ledger}
}

// ExportExcel 导出项目消费记录为 Excel
// @Summary 导出消费记录（Excel）
// @Tags 导出
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param id path string true "项目ID"
// @Success 200 {file} file "Excel 文件"
// @Failure 403 {object} Response "无权限"
// @Router /api/v1/projects/{id}/export/excel [get]
func (h *ExportHandler) ExportExcel(c *gin.Context) {
	projectID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	rows, err := h.ledger.ExportTransactions(c.Request.Context(), projectID, middleware.GetCurrentUserID(c))
	if err != nil {
		RespondError(c, err)
		return
	}

	buf, err := service.WriteTransactionsExcel(rows)
	if err != nil {
		InternalError(c, "生成 Excel 失败")
		return
	}

	filename := fmt.Sprintf("transactions_%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// ExportCSV 导出项目消费记录为 CSV
// @Summary 导出消费记录（CSV）
// @Tags 导出
// @Produce text/csv
// @Security BearerAuth
// @Param id path string true "项目ID"
// @Success 200 {file} file "CSV 文件"
// @Failure 403 {object} Response "无权限"
// @Router /api/v1/projects/{id}/export/csv [get]
func (h *ExportHandler) ExportCSV(c *gin.Context) {
	projectID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	rows, err := h.ledger.ExportTransactions(c.Request.Context(), projectID, middleware.GetCurrentUserID(c))
	if err != nil {
		RespondError(c, err)
		return
	}

	buf := new(bytes.Buffer)
	// 添加 BOM 以支持 Excel 中文显示
	buf.WriteString("\xEF\xBB\xBF")
	writer := csv.NewWriter(buf)

	headers := []string{"ID", "成员", "类别", "金额", "备注", "消费时间"}
	if err := writer.Write(headers); err != nil {
		InternalError(c, "生成 CSV 失败")
		return
	}
	for _, r := range rows {
		row := []string{
			r.ID.String(),
			r.Username,
			r.Category,
			fmt.Sprintf("%d", r.Amount),
			r.TransactionNote,
			r.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		if err := writer.Write(row); err != nil {
			InternalError(c, "生成 CSV 失败")
			return
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		InternalError(c, "生成 CSV 失败")
		return
	}

	filename := fmt.Sprintf("transactions_%s.csv", time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Header("Content-Length", fmt.Sprintf("%d", buf.Len()))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}
