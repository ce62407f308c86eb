package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/simonvc/bookkeeper/internal/client"
	"github.com/simonvc/bookkeeper/internal/ledger"
)

type accountDetailLoadedMsg struct {
	ledger *ledger.AccountLedger
	err    error
}

type accountDetailModel struct {
	ledger  *ledger.AccountLedger
	loading bool
	err     error
	width   int
	height  int
}

func (m *accountDetailModel) init(c *client.Client, id string) tea.Cmd {
	m.loading = true
	return func() tea.Msg {
		l, err := c.AccountLedger(context.Background(), id, ledger.DateRange{})
		return accountDetailLoadedMsg{ledger: l, err: err}
	}
}

func (m accountDetailModel) update(msg tea.Msg) (accountDetailModel, tea.Cmd) {
	switch msg := msg.(type) {
	case accountDetailLoadedMsg:
		m.loading = false
		m.ledger = msg.ledger
		m.err = msg.err
	}
	return m, nil
}

func (m *accountDetailModel) view() string {
	if m.loading {
		return "Loading account..."
	}
	if m.err != nil {
		return errorStyle.Render("Error: " + m.err.Error())
	}
	if m.ledger == nil {
		return ""
	}
	acct := m.ledger.Account

	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("Account: %s", acct.Name)))
	b.WriteString("\n")

	b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("ID:"), acct.ID))
	if acct.Code != "" {
		b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Code:"), acct.Code))
	}
	if acct.Class != "" {
		b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Class:"), ledger.ClassLabel(acct.Class)))
	} else {
		b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Type:"), acct.Type))
	}
	b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Normal:"), acct.NormalBalance()))
	b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Opening:"), formatAmt(m.ledger.OpeningBalance)))
	b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Balance:"), formatAmt(m.ledger.ClosingBalance)))
	b.WriteString("\n")

	if acct.IsReadOnly {
		b.WriteString(dimStyle.Render("  Summary account: balance is the sum of its sub-accounts."))
		b.WriteString("\n")
	}

	if len(m.ledger.Entries) == 0 {
		b.WriteString(dimStyle.Render("  No entries."))
	} else {
		header := fmt.Sprintf("  %-10s %-26s %-10s %14s %14s %14s", "DATE", "PAYEE", "STATUS", "DEBIT", "CREDIT", "BALANCE")
		b.WriteString(headerStyle.Render(header))
		b.WriteString("\n")

		maxRows := m.height - 14
		if maxRows < 1 {
			maxRows = 15
		}
		entries := m.ledger.Entries
		if len(entries) > maxRows {
			entries = entries[len(entries)-maxRows:]
		}
		for _, e := range entries {
			t := e.Transaction
			line := fmt.Sprintf("  %-10s %-26s %-10s %14s %14s %14s",
				t.Date.Format("2006-01-02"), truncate(t.Payee, 26), t.Status,
				amountCell(e.Debit), amountCell(e.Credit), formatAmt(e.RunningBalance))
			switch {
			case t.Status == ledger.StatusDraft:
				b.WriteString(dimStyle.Render(line))
			case e.Debit > 0:
				b.WriteString(debitStyle.Render(line))
			default:
				b.WriteString(creditStyle.Render(line))
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("\n" + dimStyle.Render("  Press ESC to go back"))
	return b.String()
}

func amountCell(v int64) string {
	if v == 0 {
		return ""
	}
	return ledger.FormatAmount(v)
}
