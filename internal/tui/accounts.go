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

type accountsLoadedMsg struct {
	nodes []ledger.AccountNode
	err   error
}

// accountDeleteConfirmedMsg is sent when the user confirms deletion in the TUI.
type accountDeleteConfirmedMsg struct {
	id string
}

// accountDeletedMsg is sent after the server processes the delete.
type accountDeletedMsg struct {
	id  string
	err error
}

// accountListModel shows the account forest flattened, parents rolled up.
type accountListModel struct {
	rows           []ledger.AccountNode
	cursor         int
	loading        bool
	err            error
	width          int
	height         int
	confirmDelete  bool
	deleteTargetID string
}

func (m *accountListModel) init(c *client.Client) tea.Cmd {
	m.loading = true
	return func() tea.Msg {
		nodes, err := c.AccountBalances(context.Background(), ledger.DateRange{})
		return accountsLoadedMsg{nodes: ledger.Flatten(nodes), err: err}
	}
}

func (m accountListModel) update(msg tea.Msg) (accountListModel, tea.Cmd) {
	switch msg := msg.(type) {
	case accountsLoadedMsg:
		m.loading = false
		m.rows = msg.nodes
		m.err = msg.err
		if m.cursor >= len(m.rows) {
			m.cursor = max(len(m.rows)-1, 0)
		}

	case accountDeletedMsg:
		m.confirmDelete = false
		m.deleteTargetID = ""
		if msg.err != nil {
			m.err = msg.err
		}

	case tea.KeyMsg:
		if m.confirmDelete {
			switch msg.String() {
			case "y", "Y":
				id := m.deleteTargetID
				m.confirmDelete = false
				return m, func() tea.Msg {
					return accountDeleteConfirmedMsg{id: id}
				}
			default:
				m.confirmDelete = false
				m.deleteTargetID = ""
			}
			return m, nil
		}

		switch {
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.rows)-1 {
				m.cursor++
			}
		case key.Matches(msg, keys.Delete):
			if id := m.selectedID(); id != "" {
				m.confirmDelete = true
				m.deleteTargetID = id
				m.err = nil
			}
		}
	}
	return m, nil
}

func (m *accountListModel) selectedID() string {
	if m.cursor >= 0 && m.cursor < len(m.rows) {
		return m.rows[m.cursor].ID
	}
	return ""
}

func (m *accountListModel) view() string {
	if m.loading {
		return "Loading accounts..."
	}
	if m.err != nil {
		return errorStyle.Render("Error: " + m.err.Error())
	}
	if len(m.rows) == 0 {
		return dimStyle.Render("No accounts found. Run 'bookkeeper chart seed' to create the default chart.")
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("Accounts"))
	b.WriteString("\n")

	header := fmt.Sprintf("  %-6s %-36s %-10s %-7s %16s", "CODE", "NAME", "CLASS", "NORMAL", "BALANCE")
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n")

	maxRows := m.height - 4
	if maxRows < 1 {
		maxRows = 10
	}

	start := 0
	if m.cursor >= maxRows {
		start = m.cursor - maxRows + 1
	}

	for i := start; i < len(m.rows) && i < start+maxRows; i++ {
		n := m.rows[i]
		name := strings.Repeat("  ", max(n.Level-1, 0)) + n.Name
		if !n.IsOpen {
			name += " (closed)"
		}
		class := string(n.Class)
		if class == "" {
			class = string(n.Type)
		}
		line := fmt.Sprintf("  %-6s %-36s %-10s %-7s %16s",
			n.Code, truncate(name, 36), class, n.NormalBalance(), formatAmt(n.Balance))
		switch {
		case i == m.cursor:
			b.WriteString(selectedStyle.Render("> " + line[2:]))
		case n.IsReadOnly:
			b.WriteString(dimStyle.Render(line))
		default:
			b.WriteString(line)
		}
		b.WriteString("\n")
	}

	if m.confirmDelete {
		b.WriteString("\n" + errorStyle.Render(fmt.Sprintf("  Delete account %q? (y/n)", m.deleteTargetID)))
	} else {
		b.WriteString(fmt.Sprintf("\n  %d accounts", len(m.rows)))
	}

	return b.String()
}
