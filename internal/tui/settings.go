package tui

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/simonvc/bookkeeper/internal/client"
	"github.com/simonvc/bookkeeper/internal/ledger"
)

type settingsLoadedMsg struct {
	settings *ledger.Settings
	docTypes []ledger.DocumentType
	err      error
}

type settingUpdatedMsg struct {
	settings *ledger.Settings
	err      error
}

type settingsFlashClearMsg struct{}

// Fixed rows come first; one row per document type follows.
const (
	rowDoubleEntry = iota
	rowAutoPromote
	rowMinDocuments
	fixedSettingRows
)

type settingsModel struct {
	settings *ledger.Settings
	docTypes []ledger.DocumentType
	cursor   int
	loading  bool
	err      error
	width    int
	flashRow int // row index to flash, -1 for none
}

func (m *settingsModel) init(c *client.Client) tea.Cmd {
	m.loading = true
	return func() tea.Msg {
		st, err := c.GetSettings(context.Background())
		if err != nil {
			return settingsLoadedMsg{err: err}
		}
		types, err := c.ListDocumentTypes(context.Background())
		return settingsLoadedMsg{settings: st, docTypes: types, err: err}
	}
}

func (m *settingsModel) rowCount() int {
	return fixedSettingRows + len(m.docTypes)
}

func (m settingsModel) update(msg tea.Msg, c *client.Client) (settingsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case settingsLoadedMsg:
		m.loading = false
		m.settings = msg.settings
		m.docTypes = msg.docTypes
		m.err = msg.err
		m.flashRow = -1

	case settingUpdatedMsg:
		m.err = msg.err
		if msg.settings != nil {
			m.settings = msg.settings
		}

	case settingsFlashClearMsg:
		m.flashRow = -1
		return m, nil

	case tea.KeyMsg:
		if m.settings == nil {
			return m, nil
		}
		switch {
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, keys.Down):
			if m.cursor < m.rowCount()-1 {
				m.cursor++
			}
		case msg.String() == "left" || msg.String() == "h":
			if m.cursor == rowMinDocuments && m.settings.MinRequiredDocuments > 0 {
				return m, m.patch(c, map[string]any{"min_required_documents": m.settings.MinRequiredDocuments - 1})
			}
		case msg.String() == "right" || msg.String() == "l":
			if m.cursor == rowMinDocuments {
				return m, m.patch(c, map[string]any{"min_required_documents": m.settings.MinRequiredDocuments + 1})
			}
		case msg.String() == " " || key.Matches(msg, keys.Enter):
			return m, m.toggle(c)
		}
	}
	return m, nil
}

func (m *settingsModel) toggle(c *client.Client) tea.Cmd {
	st := m.settings
	switch {
	case m.cursor == rowDoubleEntry:
		return m.patch(c, map[string]any{"double_entry_mode": !st.DoubleEntryMode})
	case m.cursor == rowAutoPromote:
		return m.patch(c, map[string]any{"auto_draft_to_pending": !st.AutoDraftToPending})
	case m.cursor >= fixedSettingRows && m.cursor < m.rowCount():
		id := m.docTypes[m.cursor-fixedSettingRows].ID
		ids := slices.Clone(st.RequiredDocumentTypeIDs)
		if i := slices.Index(ids, id); i >= 0 {
			ids = slices.Delete(ids, i, i+1)
		} else {
			ids = append(ids, id)
		}
		if ids == nil {
			ids = []string{}
		}
		return m.patch(c, map[string]any{"required_document_type_ids": ids})
	}
	return nil
}

func (m *settingsModel) patch(c *client.Client, fields map[string]any) tea.Cmd {
	m.flashRow = m.cursor
	return tea.Batch(
		func() tea.Msg {
			st, err := c.UpdateSettings(context.Background(), fields)
			return settingUpdatedMsg{settings: st, err: err}
		},
		tea.Tick(800*time.Millisecond, func(time.Time) tea.Msg {
			return settingsFlashClearMsg{}
		}),
	)
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func (m *settingsModel) view() string {
	if m.loading {
		return "Loading settings..."
	}
	if m.settings == nil {
		if m.err != nil {
			return errorStyle.Render("Error: " + m.err.Error())
		}
		return ""
	}
	st := m.settings

	var b strings.Builder

	b.WriteString(titleStyle.Render("Ledger Settings"))
	b.WriteString("\n")

	minDocs := "all required types"
	if st.MinRequiredDocuments > 0 {
		minDocs = fmt.Sprint(st.MinRequiredDocuments)
	}
	rows := []struct{ label, value string }{
		{"Double-entry mode", onOff(st.DoubleEntryMode)},
		{"Auto draft to pending", onOff(st.AutoDraftToPending)},
		{"Documents to reconcile", minDocs},
	}
	for _, dt := range m.docTypes {
		mark := "[ ]"
		if slices.Contains(st.RequiredDocumentTypeIDs, dt.ID) {
			mark = "[x]"
		}
		rows = append(rows, struct{ label, value string }{"Require " + dt.Name, mark})
	}

	for i, r := range rows {
		if i == fixedSettingRows {
			b.WriteString("\n")
			b.WriteString(headerStyle.Render("  Required document types"))
			b.WriteString("\n")
		}
		line := fmt.Sprintf("  %-32s %s", truncate(r.label, 32), r.value)
		switch {
		case i == m.flashRow:
			b.WriteString(successStyle.Render(line))
		case i == m.cursor:
			b.WriteString(selectedStyle.Render("> " + line[2:]))
		default:
			b.WriteString(line)
		}
		b.WriteString("\n")
	}

	if m.err != nil {
		b.WriteString("\n" + errorStyle.Render("  Error: "+m.err.Error()))
	}
	b.WriteString("\n" + dimStyle.Render("  space/enter: toggle   left/right: change count"))
	return b.String()
}
