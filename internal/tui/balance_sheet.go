package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/simonvc/bookkeeper/internal/client"
	"github.com/simonvc/bookkeeper/internal/ledger"
)

type balanceSheetLoadedMsg struct {
	bs  *ledger.BalanceSheet
	err error
}

type balanceSheetModel struct {
	bs      *ledger.BalanceSheet
	loading bool
	err     error
	width   int
	height  int
}

func (m *balanceSheetModel) init(c *client.Client) tea.Cmd {
	m.loading = true
	return func() tea.Msg {
		bs, err := c.BalanceSheet(context.Background(), ledger.DateRange{})
		return balanceSheetLoadedMsg{bs: bs, err: err}
	}
}

func (m balanceSheetModel) update(msg tea.Msg) (balanceSheetModel, tea.Cmd) {
	switch msg := msg.(type) {
	case balanceSheetLoadedMsg:
		m.loading = false
		m.bs = msg.bs
		m.err = msg.err
	}
	return m, nil
}

func (m *balanceSheetModel) view() string {
	if m.loading {
		return "Loading balance sheet..."
	}
	if m.err != nil {
		return errorStyle.Render("Error: " + m.err.Error())
	}
	if m.bs == nil {
		return dimStyle.Render("No data available.")
	}

	var b strings.Builder
	w := reportWidth(m.width)
	nameW := w - 20
	totals := m.bs.Totals

	b.WriteString(titleStyle.Render(centerStr("BALANCE SHEET", w)))
	b.WriteString("\n\n")

	renderSection(&b, "Assets", m.bs.AssetAccounts, totals.Assets, nameW, w)
	renderSection(&b, "Liabilities", m.bs.LiabilityAccounts, totals.Liabilities, nameW, w)
	renderSection(&b, "Equity", m.bs.EquityAccounts, totals.Equity, nameW, w)

	if totals.UnclosedEarnings != 0 {
		b.WriteString(fmt.Sprintf("    %-*s %14s\n", nameW, "Current earnings (not closed)", formatAmt(totals.UnclosedEarnings)))
	}
	b.WriteString(fmt.Sprintf("    %s\n", strings.Repeat("═", w-8)))
	b.WriteString(fmt.Sprintf("    %-*s %14s\n", nameW, "Total L + E", formatAmt(totals.LiabilitiesAndEquity)))

	b.WriteString("\n")
	if m.bs.IsBalanced {
		b.WriteString(successStyle.Render("    [BALANCED]"))
	} else {
		b.WriteString(errorStyle.Render(fmt.Sprintf("    [UNBALANCED by %s]", formatAmt(m.bs.Difference))))
	}
	renderWarnings(&b, m.bs.Warnings)

	return b.String()
}

func reportWidth(w int) int {
	if w < 60 {
		w = 80
	}
	return min(w, 100)
}

// renderSection writes one statement section: every account of the tree
// indented by level, a rule, then the section total.
func renderSection(b *strings.Builder, title string, nodes []ledger.AccountNode, total int64, nameW, w int) {
	b.WriteString(fmt.Sprintf("  %s\n", headerStyle.Render(title)))
	rows := ledger.Flatten(nodes)
	if len(rows) == 0 {
		b.WriteString(dimStyle.Render("    (no accounts)") + "\n\n")
		return
	}
	for _, n := range rows {
		name := strings.Repeat("  ", max(n.Level-1, 0)) + n.Code + " " + n.Name
		line := fmt.Sprintf("    %-*s %14s", nameW, truncate(name, nameW), formatAmt(n.Balance))
		if n.IsReadOnly {
			b.WriteString(parentStyle.Render(line))
		} else {
			b.WriteString(line)
		}
		b.WriteString("\n")
	}
	b.WriteString(fmt.Sprintf("    %s\n", strings.Repeat("─", w-8)))
	b.WriteString(fmt.Sprintf("    %-*s %14s\n\n", nameW, "Total "+title, formatAmt(total)))
}

func renderWarnings(b *strings.Builder, warnings []string) {
	for _, w := range warnings {
		b.WriteString("\n" + warnStyle.Render("    ! "+w))
	}
}
