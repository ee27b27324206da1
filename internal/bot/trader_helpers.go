package bot

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// printStartupInfo prints the session parameters
func (t *Trader) printStartupInfo() {
	tw := table.NewWriter()
	tw.SetOutputMirror(t.out)
	tw.SetTitle("DEMA BOT")
	tw.SetStyle(table.StyleRounded)

	tw.AppendRows([]table.Row{
		{"Symbol", t.cfg.Symbol},
		{"Interval", t.cfg.Interval},
		{"Exchange", t.gateway.GetName()},
		{"Strategy", t.strategy.GetName()},
	})
	tw.AppendSeparator()
	tw.AppendRows([]table.Row{
		{"Quantity", fmt.Sprintf("%g", t.cfg.Quantity)},
		{"Order Type", string(t.cfg.OrderType)},
		{"Take Profit", fmt.Sprintf("%.2f%%", t.cfg.ProfitThreshold*100)},
		{"Poll Interval", t.cfg.SleepInterval.String()},
		{"Look-back", t.cfg.Lookback.String()},
		{"Pending Orders", pendingPolicy(t.cfg.PendingOrderCycles)},
	})
	if path := t.logger.GetLogPath(); path != "" {
		tw.AppendSeparator()
		tw.AppendRow(table.Row{"Log File", path})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 15, WidthMax: 15, Align: text.AlignLeft},
		{Number: 2, WidthMin: 25, WidthMax: 50, Align: text.AlignLeft},
	})

	tw.Render()
	fmt.Fprintln(t.out)
}

func pendingPolicy(cycles int) string {
	if cycles <= 0 {
		return "assume filled"
	}
	return fmt.Sprintf("cancel after %d cycles", cycles)
}
