package ui

import (
	"fmt"
	"strconv"
	"strings"

	"payslipsync/internal/history"
	"payslipsync/internal/pipeline"
	"payslipsync/internal/reconcile"
)

// RenderPlan shows the payslips a run would download.
func RenderPlan(styles Styles, report *pipeline.Report, prefix string) string {
	var sb strings.Builder
	sb.WriteString(summary(styles, report))
	if len(report.Pending) == 0 {
		sb.WriteString(styles.Success.Render("Archive is up to date.") + "\n")
		return sb.String()
	}

	table := NewTable("Pending payslips", "Row", "Label", "Period", "Archive name")
	for _, p := range report.Pending {
		table.AddRow(strconv.Itoa(p.Index), strings.TrimSpace(p.Label), p.Period.String(), reconcile.FileName(prefix, p.Period))
	}
	sb.WriteString(table.View(styles))
	return sb.String()
}

// RenderReport shows the outcome of a run.
func RenderReport(styles Styles, report *pipeline.Report) string {
	var sb strings.Builder
	sb.WriteString(summary(styles, report))
	if len(report.Pending) == 0 {
		sb.WriteString(styles.Success.Render("Archive is up to date.") + "\n")
		return sb.String()
	}

	table := NewTable("Archived payslips", "Row", "Period", "Archive name", "Status")
	for _, res := range report.Results {
		status := styles.Success.Render("uploaded")
		if res.Err != nil {
			status = styles.Error.Render("failed: " + res.Err.Error())
		}
		table.AddRow(strconv.Itoa(res.Pending.Index), res.Pending.Period.String(), res.Name, status)
	}
	sb.WriteString(table.View(styles))

	line := fmt.Sprintf("%d uploaded, %d failed", report.Uploaded(), report.Failed())
	switch {
	case report.Failed() > 0:
		sb.WriteString(styles.Error.Render(line) + "\n")
	case report.Acquired < len(report.Pending):
		sb.WriteString(styles.Warning.Render(fmt.Sprintf("%d of %d payslips acquired", report.Acquired, len(report.Pending))) + "\n")
	default:
		sb.WriteString(styles.Success.Render(line) + "\n")
	}
	return sb.String()
}

// RenderHistory shows ledger entries.
func RenderHistory(styles Styles, entries []history.Entry) string {
	if len(entries) == 0 {
		return styles.Muted.Render("No payslips archived yet.") + "\n"
	}
	table := NewTable("Archived payslips", "When", "Period", "Archive name", "Run")
	for _, e := range entries {
		run := e.RunID
		if len(run) > 8 {
			run = run[:8]
		}
		table.AddRow(e.ArchivedAt.Local().Format("2006-01-02 15:04"), e.Period, e.Name, run)
	}
	return table.View(styles)
}

func summary(styles Styles, report *pipeline.Report) string {
	return styles.Info.Render(fmt.Sprintf("run %s: %d portal rows, %d archived files, %d pending",
		report.RunID, report.RemoteRows, report.ArchiveNames, len(report.Pending))) + "\n"
}
