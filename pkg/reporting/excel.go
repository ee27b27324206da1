package reporting

import (
	"fmt"

	"github.com/ducminhle1904/dema-futures-bot/internal/backtest"
	"github.com/xuri/excelize/v2"
)

const (
	gridSheet    = "Grid"
	summarySheet = "Summary"
	tradesSheet  = "Trades"
	ledgerSheet  = "Ledger"
)

// ExcelStyles holds workbook style IDs
type ExcelStyles struct {
	Header   int
	Number   int
	Percent  int
	Best     int
	Skipped  int
	Positive int
	Negative int
}

// ExcelReporter exports results to .xlsx workbooks
type ExcelReporter struct{}

func NewExcelReporter() *ExcelReporter {
	return &ExcelReporter{}
}

// WriteOptimizationXLSX writes one row per grid candidate plus a summary sheet
func (r *ExcelReporter) WriteOptimizationXLSX(result *backtest.OptimizationResult, path string) error {
	if err := ensureParentDir(path); err != nil {
		return err
	}

	fx := excelize.NewFile()
	defer fx.Close()

	if err := fx.SetSheetName(fx.GetSheetName(0), gridSheet); err != nil {
		return err
	}
	if _, err := fx.NewSheet(summarySheet); err != nil {
		return err
	}

	styles, err := createStyles(fx)
	if err != nil {
		return err
	}

	if err := writeGridSheet(fx, result, styles); err != nil {
		return err
	}
	if err := writeOptimizationSummary(fx, result, styles); err != nil {
		return err
	}

	return fx.SaveAs(path)
}

// WriteBacktestXLSX writes the trades and the per-step ledger of one run
func (r *ExcelReporter) WriteBacktestXLSX(results *backtest.BacktestResults, path string) error {
	if err := ensureParentDir(path); err != nil {
		return err
	}

	fx := excelize.NewFile()
	defer fx.Close()

	if err := fx.SetSheetName(fx.GetSheetName(0), tradesSheet); err != nil {
		return err
	}
	if _, err := fx.NewSheet(ledgerSheet); err != nil {
		return err
	}

	styles, err := createStyles(fx)
	if err != nil {
		return err
	}

	if err := writeTradesSheet(fx, results, styles); err != nil {
		return err
	}
	if err := writeLedgerSheet(fx, results, styles); err != nil {
		return err
	}

	return fx.SaveAs(path)
}

func createStyles(fx *excelize.File) (ExcelStyles, error) {
	var styles ExcelStyles
	var err error

	border := []excelize.Border{
		{Type: "left", Color: "E0E0E0", Style: 1},
		{Type: "right", Color: "E0E0E0", Style: 1},
		{Type: "bottom", Color: "E0E0E0", Style: 1},
	}

	styles.Header, err = fx.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "FFFFFF", Family: "Calibri"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"2F4F4F"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return styles, err
	}

	fourDecimals := "0.0000"
	styles.Number, err = fx.NewStyle(&excelize.Style{
		CustomNumFmt: &fourDecimals,
		Alignment:    &excelize.Alignment{Horizontal: "right"},
		Border:       border,
	})
	if err != nil {
		return styles, err
	}

	styles.Percent, err = fx.NewStyle(&excelize.Style{
		NumFmt:    10,
		Alignment: &excelize.Alignment{Horizontal: "right"},
		Border:    border,
	})
	if err != nil {
		return styles, err
	}

	styles.Best, err = fx.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true, Color: "1B5E20"},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"C8E6C9"}, Pattern: 1},
		Border: border,
	})
	if err != nil {
		return styles, err
	}

	styles.Skipped, err = fx.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Italic: true, Color: "808080"},
		Border: border,
	})
	if err != nil {
		return styles, err
	}

	styles.Positive, err = fx.NewStyle(&excelize.Style{
		Font:         &excelize.Font{Color: "2E7D32"},
		CustomNumFmt: &fourDecimals,
		Border:       border,
	})
	if err != nil {
		return styles, err
	}

	styles.Negative, err = fx.NewStyle(&excelize.Style{
		Font:         &excelize.Font{Color: "C62828"},
		CustomNumFmt: &fourDecimals,
		Border:       border,
	})
	return styles, err
}

func writeHeader(fx *excelize.File, sheet string, headers []string, style int) error {
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := fx.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
		if err := fx.SetCellStyle(sheet, cell, cell, style); err != nil {
			return err
		}
	}
	return fx.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}

// writeRow writes values starting at column A of row and applies style to the whole row
func writeRow(fx *excelize.File, sheet string, row int, values []interface{}, style int) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := fx.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	first, _ := excelize.CoordinatesToCellName(1, row)
	last, _ := excelize.CoordinatesToCellName(len(values), row)
	return fx.SetCellStyle(sheet, first, last, style)
}

func writeGridSheet(fx *excelize.File, result *backtest.OptimizationResult, styles ExcelStyles) error {
	fx.SetColWidth(gridSheet, "A", "B", 12)
	fx.SetColWidth(gridSheet, "C", "C", 16)
	fx.SetColWidth(gridSheet, "D", "E", 12)
	fx.SetColWidth(gridSheet, "F", "F", 40)

	headers := []string{"Window", "Threshold", "Final Value", "Trades", "Duration (ms)", "Note"}
	if err := writeHeader(fx, gridSheet, headers, styles.Header); err != nil {
		return err
	}

	for i, eval := range result.Evaluations {
		row := i + 2
		ms := float64(eval.Duration.Microseconds()) / 1000
		switch {
		case eval.Err != nil:
			if err := writeRow(fx, gridSheet, row, []interface{}{eval.Window, eval.Threshold, "", "", ms, eval.Err.Error()}, styles.Skipped); err != nil {
				return err
			}
		case isBest(result, eval):
			if err := writeRow(fx, gridSheet, row, []interface{}{eval.Window, eval.Threshold, eval.Value, eval.Trades, ms, "best"}, styles.Best); err != nil {
				return err
			}
		default:
			if err := writeRow(fx, gridSheet, row, []interface{}{eval.Window, eval.Threshold, eval.Value, eval.Trades, ms, ""}, styles.Number); err != nil {
				return err
			}
		}
	}

	if len(result.Evaluations) > 0 {
		last := len(result.Evaluations) + 1
		return fx.AutoFilter(gridSheet, fmt.Sprintf("A1:F%d", last), nil)
	}
	return nil
}

func writeOptimizationSummary(fx *excelize.File, result *backtest.OptimizationResult, styles ExcelStyles) error {
	fx.SetColWidth(summarySheet, "A", "A", 22)
	fx.SetColWidth(summarySheet, "B", "B", 16)

	if err := writeHeader(fx, summarySheet, []string{"Metric", "Value"}, styles.Header); err != nil {
		return err
	}

	rows := [][]interface{}{
		{"Candidates", len(result.Evaluations)},
		{"Skipped", len(result.Skipped)},
		{"Found", result.Found},
		{"Best Window", result.BestWindow},
		{"Best Threshold", result.BestThreshold},
		{"Max Value", result.MaxValue},
	}
	for i, values := range rows {
		if err := writeRow(fx, summarySheet, i+2, values, styles.Number); err != nil {
			return err
		}
	}
	return nil
}

func writeTradesSheet(fx *excelize.File, results *backtest.BacktestResults, styles ExcelStyles) error {
	fx.SetColWidth(tradesSheet, "A", "H", 14)

	headers := []string{"#", "Entry Index", "Entry Price", "Exit Index", "Exit Price", "Quantity", "PnL", "Status"}
	if err := writeHeader(fx, tradesSheet, headers, styles.Header); err != nil {
		return err
	}

	for i, t := range results.Trades {
		row := i + 2
		status := "closed"
		var exitIndex, exitPrice interface{} = t.ExitIndex, t.ExitPrice
		if t.Open {
			status, exitIndex, exitPrice = "open", "", ""
		}
		if err := writeRow(fx, tradesSheet, row, []interface{}{i + 1, t.EntryIndex, t.EntryPrice, exitIndex, exitPrice, t.Quantity, t.PnL, status}, styles.Number); err != nil {
			return err
		}

		pnlStyle := styles.Positive
		if t.PnL < 0 {
			pnlStyle = styles.Negative
		}
		cell, _ := excelize.CoordinatesToCellName(7, row)
		if err := fx.SetCellStyle(tradesSheet, cell, cell, pnlStyle); err != nil {
			return err
		}
	}
	return nil
}

func writeLedgerSheet(fx *excelize.File, results *backtest.BacktestResults, styles ExcelStyles) error {
	fx.SetColWidth(ledgerSheet, "A", "E", 14)

	headers := []string{"Step", "Price", "Balance", "Position", "Value"}
	if err := writeHeader(fx, ledgerSheet, headers, styles.Header); err != nil {
		return err
	}

	for i, l := range results.Steps {
		if err := writeRow(fx, ledgerSheet, i+2, []interface{}{i + results.Window, l.LastPrice, l.Balance, l.Position, l.Value()}, styles.Number); err != nil {
			return err
		}
	}
	return nil
}
