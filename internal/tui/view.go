// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/sigil-dev/ragdesk/internal/rag"
	"github.com/sigil-dev/ragdesk/pkg/types"
)

const snippetLen = 120

func (m Model) View() string {
	if m.state.LastError != nil {
		return m.errorView()
	}

	var b strings.Builder
	b.WriteString(m.header() + "\n")

	listWidth := 0
	if m.width > 0 {
		listWidth = m.width/2 - 4
	}
	stores := m.paneBox(paneStores, listWidth).Render(m.storesView())
	docs := m.paneBox(paneDocuments, listWidth).Render(m.documentsView())
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, stores, docs) + "\n")

	queryWidth := 0
	if m.width > 0 {
		queryWidth = m.width - 4
	}
	b.WriteString(m.paneBox(paneQuery, queryWidth).Render(m.queryView()) + "\n")

	b.WriteString(m.footer())
	return b.String()
}

func (m Model) paneBox(p pane, width int) lipgloss.Style {
	style := paneStyle
	if m.focus == p {
		style = focusedPaneStyle
	}
	if width > 0 {
		style = style.Width(width)
	}
	return style
}

func (m Model) header() string {
	title := titleStyle.Render("  ragdesk  ")
	if m.busy() {
		title += " " + m.spinner.View()
	}
	if sel := m.state.SelectedStore; sel != nil {
		title += dimStyle.Render("  store: ") + sel.Name()
	}
	return title
}

func (m Model) storesView() string {
	var b strings.Builder
	b.WriteString(promptStyle.Render("Stores") + "\n")
	if !m.state.Initialized {
		b.WriteString(dimStyle.Render("connecting…"))
		return b.String()
	}
	if len(m.state.Stores) == 0 {
		b.WriteString(dimStyle.Render("no stores; press n to create one"))
		return b.String()
	}
	selected := m.state.SelectedStoreID()
	for i, st := range m.state.Stores {
		line := st.Name()
		if st.ActiveDocuments > 0 {
			line += dimStyle.Render(fmt.Sprintf(" (%d)", st.ActiveDocuments))
		}
		b.WriteString(m.listLine(line, m.focus == paneStores && i == m.storeCursor, st.ID == selected) + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) documentsView() string {
	var b strings.Builder
	b.WriteString(promptStyle.Render("Documents") + "\n")
	if m.state.SelectedStore == nil {
		b.WriteString(dimStyle.Render("select a store"))
		return b.String()
	}
	if target := m.state.ProcessingTarget; target != "" {
		b.WriteString(warnStyle.Render(m.spinner.View()+" processing "+target) + "\n")
	}
	if m.state.IsLoading(types.RegionDocuments) {
		b.WriteString(dimStyle.Render("loading…"))
		return b.String()
	}
	if len(m.state.Documents) == 0 {
		b.WriteString(dimStyle.Render("no documents; press u to upload"))
		return b.String()
	}
	for i, d := range m.state.Documents {
		line := d.Name()
		if d.State != "" && d.State != rag.DocumentStateActive {
			line += dimStyle.Render(" [" + string(d.State) + "]")
		}
		b.WriteString(m.listLine(line, m.focus == paneDocuments && i == m.docCursor, false) + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) listLine(text string, cursor, selected bool) string {
	prefix := "  "
	if selected {
		prefix = "* "
	}
	switch {
	case cursor:
		return cursorStyle.Render("> ") + text
	case selected:
		return selectedStyle.Render(prefix + text)
	default:
		return prefix + text
	}
}

func (m Model) queryView() string {
	var b strings.Builder
	b.WriteString(promptStyle.Render("Query") + "\n")
	if m.state.LastQuery != "" {
		b.WriteString(dimStyle.Render("Q: ") + m.state.LastQuery + "\n")
	}
	if m.state.IsLoading(types.RegionQuery) {
		b.WriteString(m.spinner.View() + " thinking…")
		return b.String()
	}
	res := m.state.QueryResult
	if res == nil {
		b.WriteString(dimStyle.Render("press / to ask a question about the selected store"))
		return b.String()
	}
	b.WriteString(m.answer + "\n")
	if len(res.Citations) > 0 {
		b.WriteString("\n" + promptStyle.Render("Sources") + "\n")
		for i, c := range res.Citations {
			b.WriteString(fmt.Sprintf("%d. %s\n", i+1, citationLine(c)))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func citationLine(c rag.Citation) string {
	title := c.Title
	if title == "" {
		title = rag.DisplayName("", c.DocumentName)
	}
	if title == "" {
		title = "untitled source"
	}
	if c.SourceText == nil {
		return title
	}
	snippet := strings.Join(strings.Fields(*c.SourceText), " ")
	if r := []rune(snippet); len(r) > snippetLen {
		snippet = string(r[:snippetLen]) + "…"
	}
	return title + dimStyle.Render(" "+snippet)
}

func (m Model) footer() string {
	var b strings.Builder
	if m.mode != modeNormal {
		b.WriteString(m.input.View() + "\n")
		b.WriteString(dimStyle.Render("enter to submit  esc to cancel"))
		return b.String()
	}
	if pending := m.state.PendingDeletion; pending != nil {
		b.WriteString(warnStyle.Render(fmt.Sprintf("Delete store %q and all of its documents? (y/n)", pending.Name())))
		return b.String()
	}
	if m.status != "" {
		b.WriteString(errorStyle.Render(m.status) + "\n")
	}
	b.WriteString(dimStyle.Render("tab focus  ↑/↓ move  enter select  n new  d delete store  u upload  x delete doc  / ask  r refresh  q quit"))
	return b.String()
}

func (m Model) errorView() string {
	e := m.state.LastError
	var b strings.Builder
	b.WriteString(errorStyle.Bold(true).Render(e.Message) + "\n\n")
	if e.Cause != "" {
		b.WriteString(e.Cause + "\n\n")
	}
	if e.Code != "" {
		b.WriteString(dimStyle.Render("code: "+e.Code) + "\n")
	}
	action := "enter to dismiss"
	if !m.state.Initialized {
		action = "enter to retry"
	}
	b.WriteString(dimStyle.Render(action + "  q to quit"))

	box := errorBoxStyle
	if m.width > 0 {
		box = box.Width(m.width - 6)
	}
	view := box.Render(b.String())
	if m.width > 0 && m.height > 0 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, view)
	}
	return view
}
