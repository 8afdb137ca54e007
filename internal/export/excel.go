// Package export renders a generated series as an Excel workbook.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"agri-price-backend/internal/analysis"
	"agri-price-backend/internal/model"
	"agri-price-backend/internal/stats"

	"github.com/xuri/excelize/v2"
)

const (
	PricesSheet  = "Prices"
	SummarySheet = "Summary"

	// ContentType xlsx的MIME类型
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var priceHeaders = []string{
	"Date", "Year", "Month", "Day", "Weekday", "Quarter", "DayOfYear",
	"IndexValue", "BasketIndex", "Change", "ChangePercent",
	"MA7", "MA15", "MA30", "Volatility7", "Event",
}

// Build 生成工作簿：Prices为特征表，Summary为摘要
func Build(records []model.DayRecord, catalog []model.ProductSpec) (*excelize.File, error) {
	if len(catalog) == 0 {
		catalog = model.DefaultCatalog
	}
	wb := excelize.NewFile()
	if err := wb.SetSheetName("Sheet1", PricesSheet); err != nil {
		_ = wb.Close()
		return nil, err
	}
	if err := writePrices(wb, analysis.Features(records), catalog); err != nil {
		_ = wb.Close()
		return nil, err
	}
	if _, err := wb.NewSheet(SummarySheet); err != nil {
		_ = wb.Close()
		return nil, err
	}
	if err := writeSummary(wb, stats.Summarize(records, catalog)); err != nil {
		_ = wb.Close()
		return nil, err
	}
	if idx, err := wb.GetSheetIndex(PricesSheet); err == nil {
		wb.SetActiveSheet(idx)
	}
	return wb, nil
}

// Write 将工作簿写到w
func Write(w io.Writer, records []model.DayRecord, catalog []model.ProductSpec) error {
	wb, err := Build(records, catalog)
	if err != nil {
		return err
	}
	defer wb.Close()
	_, err = wb.WriteTo(w)
	return err
}

// WriteFile 保存xlsx文件
func WriteFile(path string, records []model.DayRecord, catalog []model.ProductSpec) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}
	wb, err := Build(records, catalog)
	if err != nil {
		return err
	}
	defer wb.Close()
	return wb.SaveAs(path)
}

func writePrices(wb *excelize.File, rows []analysis.FeatureRow, catalog []model.ProductSpec) error {
	headers := append([]string{}, priceHeaders...)
	for _, p := range catalog {
		headers = append(headers, p.Key)
	}
	if err := setRow(wb, PricesSheet, 1, toAny(headers)); err != nil {
		return err
	}
	for i, r := range rows {
		values := []any{
			r.Date, r.Year, r.Month, r.Day, r.Weekday, r.Quarter, r.DayOfYear,
			r.IndexValue, r.BasketIndex, r.Change, r.ChangePercent,
			r.MA7, r.MA15, r.MA30, r.Volatility, r.Event,
		}
		for _, p := range catalog {
			values = append(values, r.Prices[p.Key])
		}
		if err := setRow(wb, PricesSheet, i+2, values); err != nil {
			return err
		}
	}
	last, err := excelize.ColumnNumberToName(len(headers))
	if err != nil {
		return err
	}
	_ = wb.SetColWidth(PricesSheet, "A", "A", 12)
	_ = wb.SetColWidth(PricesSheet, "B", last, 11)
	return wb.SetPanes(PricesSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func writeSummary(wb *excelize.File, s stats.Summary) error {
	pairs := [][]any{
		{"Metric", "Value"},
		{"Total", s.Total},
		{"Start", s.Start},
		{"End", s.End},
		{"IndexStart", s.IndexStart},
		{"IndexEnd", s.IndexEnd},
		{"IndexHigh", s.IndexHigh},
		{"IndexLow", s.IndexLow},
		{"GrowthPercent", s.GrowthPercent},
		{"UpDays", s.UpDays},
		{"DownDays", s.DownDays},
		{"UpRate", s.UpRate},
		{"DownRate", s.DownRate},
		{"MaxChange", s.MaxChange},
		{"MinChange", s.MinChange},
		{"AvgChange", s.AvgChange},
	}
	row := 1
	for _, p := range pairs {
		if err := setRow(wb, SummarySheet, row, p); err != nil {
			return err
		}
		row++
	}

	row++
	if err := setRow(wb, SummarySheet, row, []any{"Product", "Name", "Min", "Max", "Unit"}); err != nil {
		return err
	}
	for _, p := range s.Products {
		row++
		if err := setRow(wb, SummarySheet, row, []any{p.Key, p.Name, p.Min, p.Max, p.Unit}); err != nil {
			return err
		}
	}
	_ = wb.SetColWidth(SummarySheet, "A", "E", 16)
	return nil
}

func setRow(wb *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return wb.SetSheetRow(sheet, cell, &values)
}

func toAny(s []string) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}
