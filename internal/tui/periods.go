package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/simonvc/bookkeeper/internal/client"
	"github.com/simonvc/bookkeeper/internal/ledger"
)

type periodsLoadedMsg struct {
	periods []ledger.Period
	err     error
}

type periodsModel struct {
	periods []ledger.Period
	cursor  int
	loading bool
	err     error
	width   int
}

func (m *periodsModel) init(c *client.Client) tea.Cmd {
	m.loading = true
	return func() tea.Msg {
		periods, err := c.ListPeriods(context.Background())
		return periodsLoadedMsg{periods: periods, err: err}
	}
}

func (m periodsModel) update(msg tea.Msg) (periodsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case periodsLoadedMsg:
		m.loading = false
		m.periods = msg.periods
		m.err = msg.err
		if m.cursor >= len(m.periods) {
			m.cursor = max(len(m.periods)-1, 0)
		}
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.periods)-1 {
				m.cursor++
			}
		}
	}
	return m, nil
}

func (m *periodsModel) view() string {
	if m.loading {
		return "Loading periods..."
	}
	if m.err != nil {
		return errorStyle.Render("Error: " + m.err.Error())
	}
	if len(m.periods) == 0 {
		return dimStyle.Render("No accounting periods. Create one with 'bookkeeper period create'.")
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("Accounting Periods"))
	b.WriteString("\n")

	header := fmt.Sprintf("  %-10s %-10s %-7s %-16s %s", "START", "END", "STATUS", "CLOSED", "NOTES")
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n")

	for i, p := range m.periods {
		closed := ""
		if p.ClosedAt != nil {
			closed = p.ClosedAt.Format("2006-01-02")
			if p.ClosedBy != "" {
				closed += " " + truncate(p.ClosedBy, 5)
			}
		}
		line := fmt.Sprintf("  %-10s %-10s %-7s %-16s %s",
			p.StartDate.Format("2006-01-02"), p.EndDate.Format("2006-01-02"),
			p.Status, closed, truncate(p.Notes, 30))
		switch {
		case i == m.cursor:
			b.WriteString(selectedStyle.Render("> " + line[2:]))
		case p.Status == ledger.PeriodClosed:
			b.WriteString(dimStyle.Render(line))
		default:
			b.WriteString(line)
		}
		b.WriteString("\n")
	}

	b.WriteString(fmt.Sprintf("\n  %d periods", len(m.periods)))
	return b.String()
}
