package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/simonvc/bookkeeper/internal/client"
	"github.com/simonvc/bookkeeper/internal/ledger"
)

type incomeStatementLoadedMsg struct {
	is  *ledger.IncomeStatement
	err error
}

type incomeStatementModel struct {
	is      *ledger.IncomeStatement
	loading bool
	err     error
	width   int
}

func (m *incomeStatementModel) init(c *client.Client) tea.Cmd {
	m.loading = true
	return func() tea.Msg {
		is, err := c.IncomeStatement(context.Background(), ledger.DateRange{})
		return incomeStatementLoadedMsg{is: is, err: err}
	}
}

func (m incomeStatementModel) update(msg tea.Msg) (incomeStatementModel, tea.Cmd) {
	switch msg := msg.(type) {
	case incomeStatementLoadedMsg:
		m.loading = false
		m.is = msg.is
		m.err = msg.err
	}
	return m, nil
}

func (m *incomeStatementModel) view() string {
	if m.loading {
		return "Loading income statement..."
	}
	if m.err != nil {
		return errorStyle.Render("Error: " + m.err.Error())
	}
	if m.is == nil {
		return dimStyle.Render("No data available.")
	}

	var b strings.Builder
	w := reportWidth(m.width)
	nameW := w - 20

	b.WriteString(titleStyle.Render(centerStr("INCOME STATEMENT", w)))
	b.WriteString("\n\n")

	renderSection(&b, "Income", m.is.IncomeAccounts, m.is.TotalIncome, nameW, w)
	renderSection(&b, "Expenses", m.is.ExpenseAccounts, m.is.TotalExpenses, nameW, w)

	b.WriteString(fmt.Sprintf("    %s\n", strings.Repeat("═", w-8)))
	line := fmt.Sprintf("    %-*s %14s", nameW, "Net Income", formatAmt(m.is.NetIncome))
	switch {
	case m.is.NetIncome > 0:
		b.WriteString(successStyle.Render(line))
	case m.is.NetIncome < 0:
		b.WriteString(errorStyle.Render(line))
	default:
		b.WriteString(line)
	}
	b.WriteString("\n")
	renderWarnings(&b, m.is.Warnings)

	return b.String()
}
