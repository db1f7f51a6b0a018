package tui

import (
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"flowguard/internal/dashboard"
	"flowguard/internal/features"
	"flowguard/internal/inference"
	"flowguard/internal/model"
)

func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil

	case dashboard.AnalysisCompleted:
		m.state = dashboard.Reduce(m.state, msg)
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		if m.state.Phase == dashboard.PhaseFailed {
			return m, nil
		}
		return m.handleKey(msg)
	}

	return m, nil
}

func (m DashboardModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	field := dashboard.Fields[m.focus]

	switch {
	case key.Matches(msg, m.keys.Up):
		m.stopEditing()
		m.focus = (m.focus + len(dashboard.Fields) - 1) % len(dashboard.Fields)
		return m, nil

	case key.Matches(msg, m.keys.Down):
		m.stopEditing()
		m.focus = (m.focus + 1) % len(dashboard.Fields)
		return m, nil

	case key.Matches(msg, m.keys.Inc):
		m.stopEditing()
		m.apply(field.Name, stepped(field, m.state.Inputs[field.Name], 1))
		return m, nil

	case key.Matches(msg, m.keys.Dec):
		m.stopEditing()
		m.apply(field.Name, stepped(field, m.state.Inputs[field.Name], -1))
		return m, nil

	case key.Matches(msg, m.keys.Analyze):
		m.stopEditing()
		return m, analyzeCmd(m.caps, m.state.Vector, m.state.Revision)
	}

	switch msg.Type {
	case tea.KeyBackspace:
		buf := m.editBuffer(field)
		if buf == "" {
			return m, nil
		}
		m.edit(field, buf[:len(buf)-1])

	case tea.KeyRunes:
		buf := m.editBuffer(field)
		for _, r := range msg.Runes {
			if !acceptsRune(field, buf, r) {
				return m, nil
			}
			buf += string(r)
		}
		m.edit(field, buf)
	}
	return m, nil
}

// editBuffer returns the text being edited, starting from the stored
// value on the first keystroke.
func (m DashboardModel) editBuffer(f dashboard.FieldSpec) string {
	if m.editing {
		return m.buffer
	}
	return formatNumber(m.state.Inputs[f.Name])
}

func (m *DashboardModel) stopEditing() {
	m.editing = false
	m.buffer = ""
}

// edit stores buf and, when it parses as a number, feeds the value to the
// reducer.
func (m *DashboardModel) edit(f dashboard.FieldSpec, buf string) {
	m.editing = true
	m.buffer = buf
	if v, err := strconv.ParseFloat(buf, 64); err == nil {
		m.apply(f.Name, v)
	}
}

func (m *DashboardModel) apply(name string, v float64) {
	m.state = dashboard.Reduce(m.state, dashboard.FieldChanged{Name: name, Value: v})
	m.refreshPreview()
}

// acceptsRune keeps field text numeric: digits anywhere, a leading minus
// sign, and one decimal point for non-integer fields.
func acceptsRune(f dashboard.FieldSpec, buf string, r rune) bool {
	switch {
	case r >= '0' && r <= '9':
		return true
	case r == '-':
		return buf == ""
	case r == '.':
		return !f.Integer && !strings.Contains(buf, ".")
	}
	return false
}

// stepped moves v one step in direction dir. Decimal fields step by
// hundredths and are rounded so repeated steps do not drift.
func stepped(f dashboard.FieldSpec, v float64, dir float64) float64 {
	if f.Integer {
		return v + dir
	}
	return math.Round((v+dir*0.01)*100) / 100
}

func analyzeCmd(caps model.Capabilities, v features.Vector, revision int) tea.Cmd {
	return func() tea.Msg {
		res, err := inference.Analyze(caps, v)
		return dashboard.AnalysisCompleted{Revision: revision, Result: res, Err: err}
	}
}
