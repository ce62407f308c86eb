package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/simonvc/bookkeeper/internal/ledger"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99")).
			MarginBottom(1)

	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99")).
			Background(lipgloss.Color("236")).
			Padding(0, 2)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245")).
				Padding(0, 2)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("82"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	debitStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("82"))

	creditStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	labelStyle = lipgloss.NewStyle().
			Bold(true).
			Width(16)

	// parentStyle marks summary accounts whose balance is rolled up.
	parentStyle = lipgloss.NewStyle().
			Bold(true)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("99")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("252")).
			BorderBottom(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240"))
)

// statusStyle colours a transaction status by how far along it is.
func statusStyle(s ledger.Status) lipgloss.Style {
	switch s {
	case ledger.StatusDraft:
		return dimStyle
	case ledger.StatusPending:
		return warnStyle
	case ledger.StatusReconciled:
		return successStyle
	default:
		return lipgloss.NewStyle()
	}
}

func formatAmt(amount int64) string {
	if amount < 0 {
		return "(" + ledger.FormatAmount(-amount) + ")"
	}
	return ledger.FormatAmount(amount)
}

func centerStr(s string, w int) string {
	if len(s) >= w {
		return s
	}
	pad := (w - len(s)) / 2
	return strings.Repeat(" ", pad) + s
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n-2] + ".."
	}
	return s
}
