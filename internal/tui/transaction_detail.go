package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/simonvc/bookkeeper/internal/client"
	"github.com/simonvc/bookkeeper/internal/ledger"
)

type txnDetailLoadedMsg struct {
	txn     *ledger.Transaction
	history []ledger.StatusChange
	err     error
}

type txnAdvancedMsg struct {
	res     *client.AdvanceResult
	history []ledger.StatusChange
	err     error
}

type txnDetailModel struct {
	txn     *ledger.Transaction
	history []ledger.StatusChange
	unmet   []string
	loading bool
	err     error
	width   int
}

func (m *txnDetailModel) init(c *client.Client, id string) tea.Cmd {
	m.loading = true
	m.unmet = nil
	return func() tea.Msg {
		txn, err := c.GetTransaction(context.Background(), id)
		if err != nil {
			return txnDetailLoadedMsg{err: err}
		}
		history, err := c.History(context.Background(), id)
		return txnDetailLoadedMsg{txn: txn, history: history, err: err}
	}
}

// advance asks the server for the next status, passing the status on screen
// so a concurrent change is refused instead of skipped over.
func (m *txnDetailModel) advance(c *client.Client) tea.Cmd {
	if m.txn == nil || m.txn.Status == ledger.StatusReconciled {
		return nil
	}
	id, expected := m.txn.ID, m.txn.Status
	return func() tea.Msg {
		res, err := c.Advance(context.Background(), id, expected, "")
		if err != nil {
			return txnAdvancedMsg{err: err}
		}
		if res.Blocked {
			return txnAdvancedMsg{res: res}
		}
		history, _ := c.History(context.Background(), id)
		return txnAdvancedMsg{res: res, history: history}
	}
}

func (m txnDetailModel) update(msg tea.Msg) (txnDetailModel, tea.Cmd) {
	switch msg := msg.(type) {
	case txnDetailLoadedMsg:
		m.loading = false
		m.txn = msg.txn
		m.history = msg.history
		m.err = msg.err
	case txnAdvancedMsg:
		m.err = msg.err
		m.unmet = nil
		if msg.err != nil {
			return m, nil
		}
		if msg.res.Blocked {
			m.unmet = msg.res.Unmet
		}
		if msg.res.Transaction != nil {
			m.txn = msg.res.Transaction
		}
		if msg.history != nil {
			m.history = msg.history
		}
	}
	return m, nil
}

func (m *txnDetailModel) view() string {
	if m.loading {
		return "Loading transaction..."
	}
	if m.err != nil && m.txn == nil {
		return errorStyle.Render("Error: " + m.err.Error())
	}
	if m.txn == nil {
		return ""
	}
	t := m.txn

	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("Transaction: %s", t.ID)))
	b.WriteString("\n")

	b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Date:"), t.Date.Format("2006-01-02")))
	b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Amount:"), ledger.FormatAmount(t.Amount)))
	b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Status:"), statusStyle(t.Status).Render(string(t.Status))))
	if t.Payee != "" {
		b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Payee:"), t.Payee))
	}
	if t.Notes != "" {
		b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Notes:"), t.Notes))
	}
	if len(t.Tags) > 0 {
		b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Tags:"), strings.Join(t.Tags, ", ")))
	}
	if t.SplitType != ledger.SplitNone {
		b.WriteString(fmt.Sprintf("%s %s of %s\n", labelStyle.Render("Split:"), t.SplitType, t.SplitGroupID))
	}
	if t.ClosingPeriodID != "" {
		b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Closes period:"), t.ClosingPeriodID))
	}
	b.WriteString("\n")

	postings := t.Postings()
	if len(postings) == 0 {
		b.WriteString(dimStyle.Render("  No postings."))
		b.WriteString("\n")
	} else {
		header := fmt.Sprintf("  %-4s %-36s %15s %15s", "TYPE", "ACCOUNT", "DEBIT", "CREDIT")
		b.WriteString(headerStyle.Render(header))
		b.WriteString("\n")
		for _, p := range postings {
			if p.Side == ledger.Debit {
				b.WriteString(debitStyle.Render(fmt.Sprintf("  %-4s %-36s %15s %15s", "DR", p.AccountID, ledger.FormatAmount(p.Amount), "")))
			} else {
				b.WriteString(creditStyle.Render(fmt.Sprintf("  %-4s %-36s %15s %15s", "CR", p.AccountID, "", ledger.FormatAmount(p.Amount))))
			}
			b.WriteString("\n")
		}
	}

	if len(m.history) > 0 {
		b.WriteString("\n")
		b.WriteString(headerStyle.Render(fmt.Sprintf("  %-20s %-24s %-16s %s", "WHEN", "CHANGE", "BY", "NOTES")))
		b.WriteString("\n")
		for _, h := range m.history {
			change := string(h.To)
			if h.From != "" {
				change = string(h.From) + " -> " + string(h.To)
			}
			b.WriteString(fmt.Sprintf("  %-20s %-24s %-16s %s\n",
				h.ChangedAt.Format("2006-01-02 15:04"), change, truncate(h.ChangedBy, 16), h.Notes))
		}
	}

	if m.err != nil {
		b.WriteString("\n" + errorStyle.Render("  Error: "+m.err.Error()))
	}
	if len(m.unmet) > 0 {
		b.WriteString("\n" + warnStyle.Render("  Cannot advance:"))
		for _, u := range m.unmet {
			b.WriteString("\n" + warnStyle.Render("    - "+u))
		}
	}

	b.WriteString("\n\n" + dimStyle.Render("  a: advance status   ESC: back"))
	return b.String()
}
