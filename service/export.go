package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

// TransactionRow 导出用的消费记录（带类别名和用户名）
type TransactionRow struct {
	ID              uuid.UUID
	Username        string
	Category        string
	Amount          int64
	TransactionNote string
	CreatedAt       time.Time
}

// ExportTransactions 项目消费明细（项目经理）
func (l *Ledger) ExportTransactions(ctx context.Context, projectID, actorID uuid.UUID) ([]TransactionRow, error) {
	db := l.db.WithContext(ctx)
	project, err := loadProject(db, projectID)
	if err != nil {
		return nil, err
	}
	if err := requireManager(project, actorID, "You don't have permissions to export transactions of this project"); err != nil {
		return nil, err
	}

	var rows []TransactionRow
	err = db.Table("transactions").
		Select("transactions.id, users.username, project_categories.name AS category, transactions.amount, transactions.transaction_note, transactions.created_at").
		Joins("LEFT JOIN users ON users.id = transactions.user_id").
		Joins("LEFT JOIN project_categories ON project_categories.id = transactions.transaction_category_id").
		Where("transactions.project_id = ?", projectID).
		Order("transactions.created_at DESC").
		Scan(&rows).Error
	return rows, err
}

// WriteTransactionsExcel 生成消费明细 Excel，末行为合计
func WriteTransactionsExcel(rows []TransactionRow) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "消费记录"
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, err
	}

	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
	}
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 12, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4F81BD"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    border,
	})
	dataStyle, _ := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    border,
	})
	summaryStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"FFC000"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    border,
	})

	widths := map[string]float64{"A": 38, "B": 15, "C": 15, "D": 12, "E": 30, "F": 20}
	for col, w := range widths {
		_ = f.SetColWidth(sheetName, col, col, w)
	}

	headers := []string{"ID", "用户名", "类别", "金额", "备注", "消费时间"}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		_ = f.SetCellValue(sheetName, cell, header)
		_ = f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	var total int64
	for i, r := range rows {
		row := i + 2
		_ = f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), r.ID.String())
		_ = f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), r.Username)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), r.Category)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), r.Amount)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), r.TransactionNote)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), r.CreatedAt.Format("2006-01-02 15:04:05"))
		_ = f.SetCellStyle(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("F%d", row), dataStyle)
		total += r.Amount
	}

	summaryRow := len(rows) + 2
	_ = f.SetCellValue(sheetName, fmt.Sprintf("A%d", summaryRow), "合计")
	_ = f.MergeCell(sheetName, fmt.Sprintf("A%d", summaryRow), fmt.Sprintf("C%d", summaryRow))
	_ = f.SetCellValue(sheetName, fmt.Sprintf("D%d", summaryRow), total)
	_ = f.SetCellValue(sheetName, fmt.Sprintf("E%d", summaryRow), fmt.Sprintf("共 %d 条记录", len(rows)))
	_ = f.SetCellStyle(sheetName, fmt.Sprintf("A%d", summaryRow), fmt.Sprintf("F%d", summaryRow), summaryStyle)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("生成 Excel 失败: %w", err)
	}
	return buf, nil
}
