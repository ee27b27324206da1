package reporting

import (
	"fmt"
	"io"
	"os"

	"github.com/ducminhle1904/dema-futures-bot/internal/backtest"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// ConsoleReporter renders backtest and optimization results as tables
type ConsoleReporter struct {
	out io.Writer
}

// NewConsoleReporter writes to out, or stdout when out is nil
func NewConsoleReporter(out io.Writer) *ConsoleReporter {
	if out == nil {
		out = os.Stdout
	}
	return &ConsoleReporter{out: out}
}

// OutputResults prints the summary of a single backtest run
func (r *ConsoleReporter) OutputResults(results *backtest.BacktestResults, symbol, interval string) {
	tw := table.NewWriter()
	tw.SetOutputMirror(r.out)
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle(fmt.Sprintf("BACKTEST %s %s", symbol, interval))

	tw.AppendRows([]table.Row{
		{"Window", results.Window},
		{"Threshold", fmt.Sprintf("%.4f", results.Threshold)},
	})
	tw.AppendSeparator()
	tw.AppendRows([]table.Row{
		{"Initial Value", fmt.Sprintf("%.4f", results.StartBalance)},
		{"Final Value", fmt.Sprintf("%.4f", results.EndBalance)},
		{"Total Return", percent(results.TotalReturn)},
		{"Max Drawdown", percent(results.MaxDrawdown)},
		{"Sharpe Ratio", fmt.Sprintf("%.2f", results.SharpeRatio)},
		{"Profit Factor", fmt.Sprintf("%.2f", results.ProfitFactor)},
	})
	tw.AppendSeparator()
	tw.AppendRows([]table.Row{
		{"Trades", results.TotalTrades},
		{"Winning", fmt.Sprintf("%d (%.1f%%)", results.WinningTrades, results.CalculateWinRate())},
		{"Losing", results.LosingTrades},
	})
	if results.Final.Position > 0 {
		tw.AppendRow(table.Row{"Open Position", fmt.Sprintf("%.6f @ %.4f", results.Final.Position, results.Final.LastPrice)})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 15, Align: text.AlignLeft},
		{Number: 2, WidthMin: 20, Align: text.AlignRight},
	})
	tw.Render()
}

// OutputTrades prints the round trips of a backtest run
func (r *ConsoleReporter) OutputTrades(results *backtest.BacktestResults) {
	if len(results.Trades) == 0 {
		fmt.Fprintln(r.out, "No trades executed")
		return
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(r.out)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"#", "Entry", "Entry Price", "Exit", "Exit Price", "Quantity", "PnL"})
	for i, t := range results.Trades {
		exit, exitPrice := fmt.Sprint(t.ExitIndex), fmt.Sprintf("%.4f", t.ExitPrice)
		if t.Open {
			exit, exitPrice = "open", "-"
		}
		tw.AppendRow(table.Row{
			i + 1, t.EntryIndex, fmt.Sprintf("%.4f", t.EntryPrice),
			exit, exitPrice, fmt.Sprintf("%.6f", t.Quantity), fmt.Sprintf("%+.4f", t.PnL),
		})
	}
	tw.Render()
}

// OutputOptimization prints every evaluated candidate in grid order and marks the winner
func (r *ConsoleReporter) OutputOptimization(result *backtest.OptimizationResult) {
	tw := table.NewWriter()
	tw.SetOutputMirror(r.out)
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle("PARAMETER GRID")
	tw.AppendHeader(table.Row{"Window", "Threshold", "Final Value", "Trades", "Status"})

	for _, eval := range result.Evaluations {
		tw.AppendRow(evaluationRow(result, eval))
	}

	if result.Found {
		tw.AppendFooter(table.Row{"BEST", fmt.Sprintf("%.4f", result.BestThreshold), fmt.Sprintf("%.4f", result.MaxValue), "", fmt.Sprintf("window %d", result.BestWindow)})
	} else {
		tw.AppendFooter(table.Row{"BEST", "-", "-", "", "no candidate above 0"})
	}
	tw.Render()

	if n := len(result.Skipped); n > 0 {
		fmt.Fprintf(r.out, "%d of %d candidates skipped\n", n, len(result.Evaluations))
	}
}

func evaluationRow(result *backtest.OptimizationResult, eval backtest.Evaluation) table.Row {
	if eval.Err != nil {
		return table.Row{eval.Window, fmt.Sprintf("%.4f", eval.Threshold), "-", "-", "skipped: " + eval.Err.Error()}
	}
	status := ""
	if isBest(result, eval) {
		status = text.Colors{text.FgGreen, text.Bold}.Sprint("best")
	}
	return table.Row{eval.Window, fmt.Sprintf("%.4f", eval.Threshold), fmt.Sprintf("%.4f", eval.Value), eval.Trades, status}
}

func isBest(result *backtest.OptimizationResult, eval backtest.Evaluation) bool {
	return result.Found && eval.Window == result.BestWindow && eval.Threshold == result.BestThreshold
}

func percent(v float64) string {
	return fmt.Sprintf("%.2f%%", v*100)
}
