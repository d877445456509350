package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// reportRow is one line of the `vidsub check` report.
type reportRow struct {
	Check  string
	Status string
	Detail string
}

const detailWidth = 72

func renderReport(rows []reportRow) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Check", "Status", "Detail"})
	for _, r := range rows {
		tw.AppendRow(table.Row{r.Check, r.Status, r.Detail})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Status", AlignHeader: text.AlignLeft},
		{Name: "Detail", WidthMax: detailWidth, WidthMaxEnforcer: text.WrapSoft},
	})
	return tw.Render()
}
