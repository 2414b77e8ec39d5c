package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"clipforge/internal/workflow"
)

func renderRunTable(run workflow.Run) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle("%s (%s)", run.Topic, run.Status())
	tw.AppendHeader(table.Row{"Step", "Status", "Result"})

	for _, step := range run.Steps {
		result := summarizeContent(step.Content, 72)
		if step.Status == workflow.StatusFailed {
			result = step.ErrorMessage
		}
		tw.AppendRow(table.Row{step.Label, string(step.Status), result})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft},
		{Number: 2, Align: text.AlignLeft},
		{Number: 3, Align: text.AlignLeft, WidthMax: 76},
	})
	return tw.Render()
}
