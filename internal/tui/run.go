package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/serena/internal/model"
)

// Review runs the review screen until the user quits or ctx is done.
func Review(ctx context.Context, records []model.NormalizedRecord, theme Theme) error {
	p := tea.NewProgram(New(records, theme), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("review screen failed: %w", err)
	}
	return nil
}
