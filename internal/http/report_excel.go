package httpapi

import (
	"bytes"
	"fmt"

	"econet-data/internal/service"

	"github.com/xuri/excelize/v2"
)

// reportHeader 报表表头
var reportHeader = []string{
	"Date",
	"Bin ID",
	"Bin Type",
	"Weight (kg)",
	"Last Event At",
}

// buildReportWorkbook 生成称重报表 Excel 文件
// 每行为一条权威读数（垃圾桶某天的最后一次称重），末尾附汇总区
func buildReportWorkbook(report *service.ReportResult) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	// Note: Don't defer Close() here, because WriteTo needs the file to be open

	sheetName := "Waste Report"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}

	// 删除默认的 Sheet1
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	// 设置表头样式
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	// 写入表头
	for col, header := range reportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}
	}

	// 设置列宽
	columnWidths := []float64{
		14, // Date
		38, // Bin ID
		18, // Bin Type
		14, // Weight
		22, // Last Event At
	}
	for i := range reportHeader {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert column number: %w", err)
		}
		if err := f.SetColWidth(sheetName, col, col, columnWidths[i]); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	// 写入数据行
	row := 2
	for _, reading := range report.Readings {
		values := []any{
			reading.Day.Format("2006-01-02"),
			reading.BinID,
			string(reading.BinType),
			reading.Weight,
			reading.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		for col, value := range values {
			if err := setReportCell(f, sheetName, col+1, row, value); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to set cell value at row %d, col %d: %w", row, col+1, err)
			}
		}
		row++
	}

	// 汇总区（与数据区隔一行）
	row++
	summary := [][2]any{
		{"Total Waste (kg)", report.Totals.TotalWaste},
		{"Diverted (kg)", report.Totals.Diverted},
		{"Recycled (kg)", report.Totals.Recycled},
		{"Diversion Rate (%)", report.Totals.DiversionRate},
		{"Recycling Rate (%)", report.Totals.RecyclingRate},
	}
	for _, pair := range summary {
		if err := setReportCell(f, sheetName, 1, row, pair[0]); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set summary label at row %d: %w", row, err)
		}
		if err := setReportCell(f, sheetName, 2, row, pair[1]); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set summary value at row %d: %w", row, err)
		}
		row++
	}

	// 冻结表头
	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		Split:       false,
		XSplit:      0,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to freeze panes: %w", err)
	}

	// Write to bytes buffer
	// Note: File must remain open during Write operation
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write to buffer: %w", err)
	}

	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close file: %w", err)
	}

	return &buf, nil
}

// setReportCell 设置单元格值
func setReportCell(f *excelize.File, sheet string, col, row int, value any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return f.SetCellValue(sheet, cell, value)
}
