// Package tui renders documentation progress in the terminal with Bubble Tea.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/aniruddha-adhikary/CodeWiki/internal/progress"
)

// snapshotMsg delivers a new progress snapshot.
type snapshotMsg struct {
	snapshot *progress.Snapshot
}

// watchClosedMsg reports that no more snapshots will arrive.
type watchClosedMsg struct{}

// Model holds the progress view state.
type Model struct {
	title    string
	updates  <-chan *progress.Snapshot
	snapshot *progress.Snapshot

	width    int
	height   int
	offset   int
	ready    bool
	closed   bool
	quitting bool
}

// NewModel creates a model showing snapshots received from updates.
func NewModel(title string, updates <-chan *progress.Snapshot) Model {
	return Model{title: title, updates: updates}
}

// Snapshot returns the snapshot on screen, or nil before the first one.
func (m Model) Snapshot() *progress.Snapshot {
	return m.snapshot
}

// Init starts listening for snapshots.
func (m Model) Init() tea.Cmd {
	return waitForSnapshot(m.updates)
}

func waitForSnapshot(updates <-chan *progress.Snapshot) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-updates
		if !ok {
			return watchClosedMsg{}
		}
		return snapshotMsg{snapshot: snap}
	}
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeypress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.clampOffset()
		return m, nil

	case snapshotMsg:
		m.snapshot = msg.snapshot
		m.clampOffset()
		return m, waitForSnapshot(m.updates)

	case watchClosedMsg:
		m.closed = true
		return m, nil
	}
	return m, nil
}

func (m Model) handleKeypress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		m.quitting = true
		return m, tea.Quit
	case "j", "down":
		m.offset++
	case "k", "up":
		m.offset--
	case "g", "home":
		m.offset = 0
	case "G", "end":
		m.offset = m.maxOffset()
	}
	m.clampOffset()
	return m, nil
}

// listHeight is the number of module rows that fit on screen.
func (m Model) listHeight() int {
	// header (3) + summary (2) + box border (2) + help bar (2)
	h := m.height - 9
	if !m.ready || h < 1 {
		return 20
	}
	return h
}

func (m Model) maxOffset() int {
	if m.snapshot == nil {
		return 0
	}
	if n := m.snapshot.Total() - m.listHeight(); n > 0 {
		return n
	}
	return 0
}

func (m *Model) clampOffset() {
	if m.offset > m.maxOffset() {
		m.offset = m.maxOffset()
	}
	if m.offset < 0 {
		m.offset = 0
	}
}
