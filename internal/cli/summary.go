package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/serena/internal/model"
)

// stageColumns names what each counter means for a stage, in the order
// Processed, Succeeded, Failed, Skipped, Reused.
var stageColumns = map[model.Stage][5]string{
	model.StageDecode:   {"inputs", "units", "failed", "duplicates", ""},
	model.StageClassify: {"units", "A2P", "failed", "P2P", "reused"},
	model.StageRender:   {"units", "rendered", "failed", "", ""},
	model.StageExtract:  {"units", "extracted", "failed", "duplicates", "reused"},
}

// RenderStage formats one stage's counters on a single line.
func RenderStage(st model.StageStats) string {
	cols, ok := stageColumns[st.Stage]
	if !ok {
		cols = [5]string{"processed", "succeeded", "failed", "skipped", "reused"}
	}
	values := [5]int{st.Processed, st.Succeeded, st.Failed, st.Skipped, st.Reused}

	parts := make([]string, 0, len(cols))
	for i, name := range cols {
		if name == "" {
			continue
		}
		text := fmt.Sprintf("%s %d", name, values[i])
		if name == "failed" && values[i] > 0 {
			text = ErrorStyle.Render(text)
		}
		parts = append(parts, text)
	}

	label := TableCellStyle.Render(BoldStyle.Render(fmt.Sprintf("%-9s", st.Stage)))
	return label + strings.Join(parts, SubtleStyle.Render(" · "))
}

// RenderSummary formats a run summary as a boxed report.
func RenderSummary(s model.Summary) string {
	lines := make([]string, 0, len(s.Stages)+4)
	lines = append(lines, SubtleStyle.Render("root "+s.Root))
	for _, st := range s.Stages {
		lines = append(lines, RenderStage(st))
	}
	lines = append(lines, "",
		fmt.Sprintf("%s Cache: %d records (%d new)", ChartIcon, s.CacheSize, s.NewRecords))
	if !s.FinishedAt.IsZero() && !s.StartedAt.IsZero() {
		lines = append(lines, fmt.Sprintf("Took %s", s.FinishedAt.Sub(s.StartedAt).Round(time.Millisecond)))
	}
	if n := s.Failures(); n > 0 {
		lines = append(lines, FormatWarning(fmt.Sprintf("%d units failed; see the log for details", n)))
	}

	title := "Run complete"
	if s.RunID != "" {
		title += " " + SubtleStyle.Render(shortID(s.RunID))
	}
	return RenderBox(title, lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// RenderRuns formats recorded runs, newest first as given.
func RenderRuns(runs []model.Summary) string {
	if len(runs) == 0 {
		return FormatInfo("No runs recorded yet")
	}

	var b strings.Builder
	b.WriteString(TableHeaderStyle.Render(fmt.Sprintf("%-10s %-20s %8s %8s  %s", "RUN", "STARTED", "RECORDS", "NEW", "ROOT")))
	b.WriteString("\n")
	for _, r := range runs {
		started := "-"
		if !r.StartedAt.IsZero() {
			started = r.StartedAt.Local().Format("2006-01-02 15:04:05")
		}
		line := fmt.Sprintf("%-10s %-20s %8d %8d  %s", shortID(r.RunID), started, r.CacheSize, r.NewRecords, r.Root)
		if r.FinishedAt.IsZero() {
			line = WarningStyle.Render(line + "  (unfinished)")
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
