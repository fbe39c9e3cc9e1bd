// Package tui is the interactive review screen for extracted records.
package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/serena/internal/model"
)

// Mode is what the review screen is showing.
type Mode int

// Review modes.
const (
	ModeTable Mode = iota
	ModeSearch
	ModeDetail
)

// chrome is the number of lines taken by everything but the table rows.
const chrome = 7

// Model holds the review screen state.
type Model struct {
	theme    Theme
	keymap   KeyMap
	help     help.Model
	search   textinput.Model
	table    table.Model
	records  []model.NormalizedRecord
	visible  []int
	mode     Mode
	width    int
	height   int
	quitting bool
}

// New builds a review model over records, kept in the order given.
func New(records []model.NormalizedRecord, theme Theme) Model {
	t := table.New(
		table.WithColumns(columns(100)),
		table.WithFocused(true),
		table.WithHeight(20),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(theme.Border).
		BorderBottom(true).
		Bold(false)
	s.Selected = theme.Selected
	t.SetStyles(s)

	search := textinput.New()
	search.Placeholder = "Filter records..."
	search.CharLimit = 80
	search.Prompt = "/ "

	m := Model{
		theme:   theme,
		keymap:  DefaultKeyMap(),
		help:    help.New(),
		search:  search,
		table:   t,
		records: records,
		width:   100,
		height:  24,
	}
	m.applyFilter()
	return m
}

// columns sizes the table to width.
func columns(width int) []table.Column {
	fixed := 19 + 14 + 14
	flex := max(width-fixed-12, 36) / 3
	return []table.Column{
		{Title: "Service", Width: flex},
		{Title: "Message Time", Width: 19},
		{Title: "Action", Width: 14},
		{Title: "Amount", Width: 14},
		{Title: "Items", Width: flex},
		{Title: "Source", Width: flex},
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.table.SetColumns(columns(msg.Width))
		m.table.SetHeight(max(msg.Height-chrome, 3))
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case ModeSearch:
			return m.updateSearch(msg)
		case ModeDetail:
			return m.updateDetail(msg)
		default:
			return m.updateTable(msg)
		}
	}
	return m, nil
}

func (m Model) updateTable(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keymap.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keymap.Search):
		m.mode = ModeSearch
		return m, m.search.Focus()
	case key.Matches(msg, m.keymap.Back):
		if m.search.Value() != "" {
			m.search.SetValue("")
			m.applyFilter()
		}
		return m, nil
	case key.Matches(msg, m.keymap.Detail):
		if _, ok := m.Selected(); ok {
			m.mode = ModeDetail
		}
		return m, nil
	case key.Matches(msg, m.keymap.Home):
		m.table.GotoTop()
		return m, nil
	case key.Matches(msg, m.keymap.End):
		m.table.GotoBottom()
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.mode = ModeTable
		m.search.Blur()
		return m, nil
	case tea.KeyEsc:
		m.mode = ModeTable
		m.search.Blur()
		m.search.SetValue("")
		m.applyFilter()
		return m, nil
	case tea.KeyCtrlC:
		m.quitting = true
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.applyFilter()
	return m, cmd
}

func (m Model) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keymap.Back), key.Matches(msg, m.keymap.Detail):
		m.mode = ModeTable
	case key.Matches(msg, m.keymap.Down):
		m.table.MoveDown(1)
	case key.Matches(msg, m.keymap.Up):
		m.table.MoveUp(1)
	}
	return m, nil
}

// applyFilter recomputes the visible rows from the search text.
func (m *Model) applyFilter() {
	query := strings.ToLower(strings.TrimSpace(m.search.Value()))

	m.visible = make([]int, 0, len(m.records))
	rows := make([]table.Row, 0, len(m.records))
	for i, rec := range m.records {
		if query != "" && !matches(rec, query) {
			continue
		}
		m.visible = append(m.visible, i)
		rows = append(rows, row(rec))
	}

	m.table.SetRows(rows)
	if m.table.Cursor() >= len(rows) {
		m.table.SetCursor(max(len(rows)-1, 0))
	}
}

func matches(rec model.NormalizedRecord, query string) bool {
	for _, name := range model.FieldNames {
		if name == model.FieldItem {
			continue
		}
		if strings.Contains(strings.ToLower(*rec.Scalar(name)), query) {
			return true
		}
	}
	for _, it := range rec.Item {
		if strings.Contains(strings.ToLower(it.Name), query) {
			return true
		}
	}
	return strings.Contains(strings.ToLower(rec.SourcePath), query)
}

func row(rec model.NormalizedRecord) table.Row {
	return table.Row{
		rec.ServiceName,
		rec.MessageDatetime,
		rec.ActionKeyword,
		rec.Amount,
		strings.Join(rec.ItemNames(), ", "),
		rec.SourcePath,
	}
}

// Selected returns the record under the cursor.
func (m Model) Selected() (model.NormalizedRecord, bool) {
	c := m.table.Cursor()
	if c < 0 || c >= len(m.visible) {
		return model.NormalizedRecord{}, false
	}
	return m.records[m.visible[c]], true
}

// Visible returns how many records pass the current filter.
func (m Model) Visible() int {
	return len(m.visible)
}

// Mode returns what the screen is showing.
func (m Model) Mode() Mode {
	return m.mode
}
