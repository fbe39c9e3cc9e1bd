package tui

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/serena/internal/highlight"
	"github.com/Veraticus/serena/internal/model"
)

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	if m.mode == ModeDetail {
		return m.detailView()
	}

	var b strings.Builder
	b.WriteString(m.theme.Title.Render("Extracted records"))
	b.WriteString(" ")
	b.WriteString(m.theme.Subtitle.Render(m.countLine()))
	b.WriteString("\n\n")

	if len(m.records) == 0 {
		b.WriteString(m.theme.StatusInfo.Render("The cache is empty. Run `serena run <root>` first."))
		b.WriteString("\n")
	} else {
		b.WriteString(m.table.View())
		b.WriteString("\n")
	}

	if m.mode == ModeSearch || m.search.Value() != "" {
		b.WriteString(m.search.View())
		b.WriteString("\n")
	}
	b.WriteString(m.help.View(m.keymap))
	return b.String()
}

func (m Model) countLine() string {
	if len(m.visible) == len(m.records) {
		return fmt.Sprintf("%d records", len(m.records))
	}
	return fmt.Sprintf("%d of %d records", len(m.visible), len(m.records))
}

func (m Model) detailView() string {
	rec, ok := m.Selected()
	if !ok {
		return m.theme.StatusError.Render("No record selected")
	}

	lines := []string{
		m.theme.Title.Render(filepath.Base(rec.SourcePath)),
		m.theme.Subtitle.Render(rec.SourcePath),
		"",
	}
	for _, f := range highlight.Legend {
		label := lipgloss.NewStyle().
			Background(lipgloss.Color(f.Hex)).
			Foreground(lipgloss.Color("#000000")).
			Padding(0, 1).
			Render(f.Name)
		lines = append(lines, m.theme.Label.Render(label)+" "+m.theme.Normal.Render(fieldText(rec, f.Name)))
	}

	box := m.theme.RoundedBox.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
	return box + "\n" + m.theme.Subtitle.Render("Esc back · ↑/↓ previous/next · q quit")
}

func fieldText(rec model.NormalizedRecord, name string) string {
	if name != model.FieldItem {
		if v := *rec.Scalar(name); v != "" {
			return v
		}
		return "-"
	}

	if len(rec.Item) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(rec.Item))
	for _, it := range rec.Item {
		parts = append(parts, itemText(it))
	}
	return strings.Join(parts, "; ")
}

func itemText(it model.Item) string {
	if len(it.Extra) == 0 {
		return it.Name
	}
	keys := make([]string, 0, len(it.Extra))
	for k := range it.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	extras := make([]string, 0, len(keys))
	for _, k := range keys {
		extras = append(extras, k+"="+it.Extra[k])
	}
	return fmt.Sprintf("%s (%s)", it.Name, strings.Join(extras, ", "))
}
