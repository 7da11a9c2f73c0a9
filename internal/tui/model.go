// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

// Package tui is the terminal front end: a store list, the documents of the
// selected store and a query pane, all driven by the session controller.
package tui

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/sigil-dev/ragdesk/internal/pubsub"
	"github.com/sigil-dev/ragdesk/internal/session"
	ragerr "github.com/sigil-dev/ragdesk/pkg/errors"
	"github.com/sigil-dev/ragdesk/pkg/types"
)

// pane is the focused area of the screen.
type pane int

const (
	paneStores pane = iota
	paneDocuments
	paneQuery
	paneCount
)

// inputMode tracks what the text input is collecting.
type inputMode int

const (
	modeNormal inputMode = iota
	modeNewStore
	modeUpload
	modeQuery
)

const defaultWrap = 80

// Model is the bubbletea model of the main screen.
type Model struct {
	ctx    context.Context
	cancel context.CancelFunc
	ctrl   *session.Controller
	events <-chan pubsub.Event[session.State]

	state       session.State
	focus       pane
	storeCursor int
	docCursor   int
	mode        inputMode
	input       textinput.Model
	spinner     spinner.Model
	status      string

	width, height int
	renderer      *glamour.TermRenderer
	answer        string
	answerFor     string
}

// New returns a model bound to ctrl. Cancelling ctx, or quitting, abandons
// any operation still in flight.
func New(ctx context.Context, ctrl *session.Controller) Model {
	ctx, cancel := context.WithCancel(ctx)

	in := textinput.New()
	in.CharLimit = 1024

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return Model{
		ctx:      ctx,
		cancel:   cancel,
		ctrl:     ctrl,
		events:   ctrl.Subscribe(ctx),
		state:    ctrl.Snapshot(),
		input:    in,
		spinner:  sp,
		renderer: newRenderer(defaultWrap),
	}
}

func newRenderer(width int) *glamour.TermRenderer {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(styles.DraculaStyle),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		slog.Debug("markdown renderer unavailable", "error", err)
		return nil
	}
	return r
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{waitForEvent(m.events), m.spinner.Tick}
	if !m.state.Initialized && m.state.LastError == nil {
		cmds = append(cmds, initSessionCmd(m.ctx, m.ctrl))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stateMsg:
		m.applyState(msg.state)
		return m, waitForEvent(m.events)

	case eventsClosedMsg:
		return m, nil

	case opResultMsg:
		m.status = statusFor(msg)
		return m, nil

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		wrap := msg.Width - 6
		if wrap < 20 {
			wrap = 20
		}
		m.renderer = newRenderer(wrap)
		m.answerFor = ""
		m.renderAnswer()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.mode != modeNormal {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) applyState(st session.State) {
	m.state = st
	m.storeCursor = clamp(m.storeCursor, len(st.Stores))
	m.docCursor = clamp(m.docCursor, len(st.Documents))
	m.renderAnswer()
}

func (m *Model) renderAnswer() {
	res := m.state.QueryResult
	if res == nil {
		m.answer, m.answerFor = "", ""
		return
	}
	if res.AnswerText == m.answerFor && m.answer != "" {
		return
	}
	m.answerFor = res.AnswerText
	m.answer = res.AnswerText
	if m.renderer == nil {
		return
	}
	out, err := m.renderer.Render(res.AnswerText)
	if err != nil {
		slog.Debug("rendering answer", "error", err)
		return
	}
	m.answer = strings.TrimSpace(out)
}

func clamp(i, n int) int {
	if n == 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// statusFor turns an operation outcome into a status line. Errors the
// controller records as the session error are shown by the error view.
func statusFor(msg opResultMsg) string {
	switch {
	case msg.err == nil:
		return ""
	case errors.Is(msg.err, context.Canceled):
		return msg.op + " cancelled"
	case ragerr.IsBusy(msg.err), ragerr.IsConfirmationRequired(msg.err),
		ragerr.IsInvalidInput(msg.err), ragerr.IsNotFound(msg.err):
		return msg.op + ": " + msg.err.Error()
	default:
		return ""
	}
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.cancel()
	return m, tea.Quit
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m.quit()
	}

	if m.state.LastError != nil {
		switch msg.String() {
		case "enter":
			return m, clearErrorCmd(m.ctx, m.ctrl)
		case "q", "esc":
			return m.quit()
		}
		return m, nil
	}

	if m.mode != modeNormal {
		return m.handleInputKey(msg)
	}

	if m.state.PendingDeletion != nil {
		switch msg.String() {
		case "y", "Y":
			return m, confirmDeletionCmd(m.ctx, m.ctrl)
		case "n", "N", "esc":
			return m, cancelDeletionCmd(m.ctrl)
		case "q":
			return m.quit()
		}
		return m, nil
	}

	m.status = ""
	if !m.keyEnabled(msg.String()) {
		return m, nil
	}
	switch msg.String() {
	case "q":
		return m.quit()
	case "tab":
		m.focus = (m.focus + 1) % paneCount
	case "shift+tab":
		m.focus = (m.focus + paneCount - 1) % paneCount
	case "up", "k":
		m.moveCursor(-1)
	case "down", "j":
		m.moveCursor(1)
	case "enter":
		switch m.focus {
		case paneStores:
			if st, ok := m.cursorStore(); ok {
				return m, selectStoreCmd(m.ctx, m.ctrl, st)
			}
		case paneQuery:
			return m.openInput(modeQuery, "Ask: ", "")
		}
	case "n":
		return m.openInput(modeNewStore, "New store name: ", "")
	case "d":
		if st, ok := m.cursorStore(); ok && m.focus == paneStores {
			return m, requestDeletionCmd(m.ctrl, st)
		}
	case "u":
		if m.state.SelectedStore == nil {
			m.status = "select a store first"
			return m, nil
		}
		return m.openInput(modeUpload, "Upload file (path [key=value ...]): ", "")
	case "x":
		if m.focus == paneDocuments && len(m.state.Documents) > 0 {
			return m, deleteDocumentCmd(m.ctx, m.ctrl, m.state.Documents[m.docCursor].ID)
		}
	case "/":
		if m.state.SelectedStore == nil {
			m.status = "select a store first"
			return m, nil
		}
		m.focus = paneQuery
		return m.openInput(modeQuery, "Ask: ", "")
	case "r":
		if m.focus == paneStores {
			return m, refreshStoresCmd(m.ctx, m.ctrl)
		}
		return m, refreshDocumentsCmd(m.ctx, m.ctrl)
	}
	return m, nil
}

// keyEnabled reports whether the control behind key may start an
// operation. Controls of a busy region are disabled.
func (m Model) keyEnabled(key string) bool {
	switch key {
	case "n", "d":
		return !m.state.IsLoading(types.RegionStores)
	case "u", "x":
		return m.state.ProcessingTarget == ""
	case "/":
		return !m.state.IsLoading(types.RegionQuery)
	case "enter":
		if m.focus == paneQuery {
			return !m.state.IsLoading(types.RegionQuery)
		}
	case "r":
		if m.focus == paneStores {
			return !m.state.IsLoading(types.RegionStores)
		}
		return !m.state.IsLoading(types.RegionDocuments)
	}
	return true
}

func (m Model) openInput(mode inputMode, prompt, value string) (tea.Model, tea.Cmd) {
	m.mode = mode
	m.input.Prompt = prompt
	m.input.SetValue(value)
	m.input.Focus()
	return m, textinput.Blink
}

func (m Model) closeInput() Model {
	m.mode = modeNormal
	m.input.Blur()
	m.input.SetValue("")
	return m
}

func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		return m.closeInput(), nil
	case tea.KeyEnter:
		value := strings.TrimSpace(m.input.Value())
		mode := m.mode
		m = m.closeInput()
		if value == "" {
			return m, nil
		}
		switch mode {
		case modeNewStore:
			return m, createStoreCmd(m.ctx, m.ctrl, value)
		case modeUpload:
			return m, uploadCmd(m.ctx, m.ctrl, value)
		case modeQuery:
			return m, queryCmd(m.ctx, m.ctrl, value)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) moveCursor(delta int) {
	switch m.focus {
	case paneStores:
		m.storeCursor = clamp(m.storeCursor+delta, len(m.state.Stores))
	case paneDocuments:
		m.docCursor = clamp(m.docCursor+delta, len(m.state.Documents))
	}
}

func (m Model) cursorStore() (string, bool) {
	if len(m.state.Stores) == 0 {
		return "", false
	}
	return m.state.Stores[m.storeCursor].ID, true
}

func (m Model) busy() bool {
	for _, r := range types.Regions {
		if m.state.IsLoading(r) {
			return true
		}
	}
	return m.state.ProcessingTarget != ""
}
