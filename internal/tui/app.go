package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/simonvc/bookkeeper/internal/client"
)

type mode int

const (
	modeAccountList mode = iota
	modeAccountDetail
	modeTransactionList
	modeTransactionDetail
	modeBalanceSheet
	modeIncomeStatement
	modePeriods
	modeSettings
)

var tabModes = []mode{modeAccountList, modeTransactionList, modeBalanceSheet, modeIncomeStatement, modePeriods, modeSettings}

func tabLabel(m mode) string {
	switch m {
	case modeAccountList:
		return "Accounts"
	case modeTransactionList:
		return "Transactions"
	case modeBalanceSheet:
		return "Balance Sheet"
	case modeIncomeStatement:
		return "Income Statement"
	case modePeriods:
		return "Periods"
	case modeSettings:
		return "Settings"
	default:
		return ""
	}
}

type App struct {
	client        *client.Client
	mode          mode
	tabIndex      int
	width, height int
	statusMsg     string

	accountList     accountListModel
	accountDetail   accountDetailModel
	txnList         txnListModel
	txnDetail       txnDetailModel
	balanceSheet    balanceSheetModel
	incomeStatement incomeStatementModel
	periods         periodsModel
	settings        settingsModel
}

func NewApp(c *client.Client) *App {
	return &App{
		client:   c,
		mode:     modeAccountList,
		tabIndex: 0,
		settings: settingsModel{flashRow: -1},
	}
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(
		a.accountList.init(a.client),
		a.txnList.init(a.client),
		a.balanceSheet.init(a.client),
		a.incomeStatement.init(a.client),
		a.periods.init(a.client),
		a.settings.init(a.client),
	)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.accountList.width = msg.Width
		a.accountList.height = msg.Height - 6
		a.txnList.width = msg.Width
		a.txnList.height = msg.Height - 6
		a.balanceSheet.width = msg.Width
		a.incomeStatement.width = msg.Width
		a.periods.width = msg.Width
		a.settings.width = msg.Width
		a.accountDetail.width = msg.Width
		a.accountDetail.height = msg.Height - 6
		a.txnDetail.width = msg.Width
		return a, nil
	}

	// Loaded messages go to their model whatever the active mode, since
	// Init fires every load at once.
	switch typedMsg := msg.(type) {
	case accountsLoadedMsg:
		var cmd tea.Cmd
		a.accountList, cmd = a.accountList.update(msg)
		return a, cmd
	case txnsLoadedMsg:
		var cmd tea.Cmd
		a.txnList, cmd = a.txnList.update(msg)
		return a, cmd
	case balanceSheetLoadedMsg:
		var cmd tea.Cmd
		a.balanceSheet, cmd = a.balanceSheet.update(msg)
		return a, cmd
	case incomeStatementLoadedMsg:
		var cmd tea.Cmd
		a.incomeStatement, cmd = a.incomeStatement.update(msg)
		return a, cmd
	case periodsLoadedMsg:
		var cmd tea.Cmd
		a.periods, cmd = a.periods.update(msg)
		return a, cmd
	case settingsLoadedMsg, settingUpdatedMsg, settingsFlashClearMsg:
		var cmd tea.Cmd
		a.settings, cmd = a.settings.update(msg, a.client)
		return a, cmd
	case accountDetailLoadedMsg:
		var cmd tea.Cmd
		a.accountDetail, cmd = a.accountDetail.update(msg)
		return a, cmd
	case txnDetailLoadedMsg:
		var cmd tea.Cmd
		a.txnDetail, cmd = a.txnDetail.update(msg)
		return a, cmd
	case accountDeleteConfirmedMsg:
		id := typedMsg.id
		return a, func() tea.Msg {
			err := a.client.DeleteAccount(context.Background(), id)
			return accountDeletedMsg{id: id, err: err}
		}
	case accountDeletedMsg:
		if typedMsg.err != nil {
			a.accountList, _ = a.accountList.update(msg)
			return a, nil
		}
		a.statusMsg = "Account " + typedMsg.id + " deleted"
		return a, a.accountList.init(a.client)
	case txnAdvancedMsg:
		a.txnDetail, _ = a.txnDetail.update(msg)
		if typedMsg.err != nil || typedMsg.res.Blocked {
			return a, nil
		}
		a.statusMsg = "Transaction " + typedMsg.res.Transaction.ID + " is now " + string(typedMsg.res.Transaction.Status)
		return a, tea.Batch(
			a.txnList.init(a.client),
			a.balanceSheet.init(a.client),
			a.incomeStatement.init(a.client),
		)
	}

	// The account list owns every key while it asks for a delete confirmation.
	if a.mode == modeAccountList && a.accountList.confirmDelete {
		var cmd tea.Cmd
		a.accountList, cmd = a.accountList.update(msg)
		return a, cmd
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit

		case key.Matches(msg, keys.Tab):
			a.tabIndex = (a.tabIndex + 1) % len(tabModes)
			a.mode = tabModes[a.tabIndex]
			a.statusMsg = ""
			return a, a.refreshTab()

		case key.Matches(msg, keys.ShiftTab):
			a.tabIndex = (a.tabIndex - 1 + len(tabModes)) % len(tabModes)
			a.mode = tabModes[a.tabIndex]
			a.statusMsg = ""
			return a, a.refreshTab()

		case key.Matches(msg, keys.Escape):
			switch a.mode {
			case modeAccountDetail:
				a.mode = modeAccountList
			case modeTransactionDetail:
				a.mode = modeTransactionList
			}
			return a, nil

		case key.Matches(msg, keys.Refresh):
			return a, a.refreshTab()

		case key.Matches(msg, keys.Advance):
			if a.mode == modeTransactionDetail {
				return a, a.txnDetail.advance(a.client)
			}

		case key.Matches(msg, keys.Enter):
			switch a.mode {
			case modeAccountList:
				if acctID := a.accountList.selectedID(); acctID != "" {
					a.mode = modeAccountDetail
					return a, a.accountDetail.init(a.client, acctID)
				}
				return a, nil
			case modeTransactionList:
				if txnID := a.txnList.selectedID(); txnID != "" {
					a.mode = modeTransactionDetail
					return a, a.txnDetail.init(a.client, txnID)
				}
				return a, nil
			}
		}
	}

	// Delegate update to active sub-model
	var cmd tea.Cmd
	switch a.mode {
	case modeAccountList:
		a.accountList, cmd = a.accountList.update(msg)
	case modeAccountDetail:
		a.accountDetail, cmd = a.accountDetail.update(msg)
	case modeTransactionList:
		a.txnList, cmd = a.txnList.update(msg)
	case modeTransactionDetail:
		a.txnDetail, cmd = a.txnDetail.update(msg)
	case modeBalanceSheet:
		a.balanceSheet, cmd = a.balanceSheet.update(msg)
	case modeIncomeStatement:
		a.incomeStatement, cmd = a.incomeStatement.update(msg)
	case modePeriods:
		a.periods, cmd = a.periods.update(msg)
	case modeSettings:
		a.settings, cmd = a.settings.update(msg, a.client)
	}
	return a, cmd
}

func (a *App) refreshTab() tea.Cmd {
	switch a.mode {
	case modeAccountList:
		return a.accountList.init(a.client)
	case modeTransactionList:
		return a.txnList.init(a.client)
	case modeBalanceSheet:
		return a.balanceSheet.init(a.client)
	case modeIncomeStatement:
		return a.incomeStatement.init(a.client)
	case modePeriods:
		return a.periods.init(a.client)
	case modeSettings:
		return a.settings.init(a.client)
	}
	return nil
}

func (a *App) View() string {
	// Tab bar
	tabs := ""
	for i, m := range tabModes {
		label := tabLabel(m)
		if i == a.tabIndex {
			tabs += activeTabStyle.Render(label)
		} else {
			tabs += inactiveTabStyle.Render(label)
		}
		if i < len(tabModes)-1 {
			tabs += " "
		}
	}

	// Content
	var content string
	switch a.mode {
	case modeAccountList:
		content = a.accountList.view()
	case modeAccountDetail:
		content = a.accountDetail.view()
	case modeTransactionList:
		content = a.txnList.view()
	case modeTransactionDetail:
		content = a.txnDetail.view()
	case modeBalanceSheet:
		content = a.balanceSheet.view()
	case modeIncomeStatement:
		content = a.incomeStatement.view()
	case modePeriods:
		content = a.periods.view()
	case modeSettings:
		content = a.settings.view()
	}

	status := ""
	if a.statusMsg != "" {
		status = successStyle.Render(a.statusMsg)
	}

	helpText := dimStyle.Render("tab:switch  enter:select  esc:back  a:advance  d:delete  r:refresh  q:quit")

	return lipgloss.JoinVertical(lipgloss.Left,
		tabs,
		"",
		content,
		"",
		status,
		helpText,
	)
}
