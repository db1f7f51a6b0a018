// Package tui renders the flow analysis dashboard in the terminal.
package tui

import (
	"strconv"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"flowguard/internal/dashboard"
	"flowguard/internal/model"
)

// previewColumns is how many resolved feature columns the preview shows.
const previewColumns = 8

type DashboardModel struct {
	caps  model.Capabilities
	state dashboard.State

	focus int
	// While editing, buffer holds the raw text typed into the focused
	// field. It may not parse yet, e.g. "" or "-".
	editing bool
	buffer  string

	table table.Model
	bar   progress.Model
	help  help.Model
	keys  keyMap

	modelPath string
	source    string
}

// NewDashboardModel builds the dashboard around h. initial events are
// applied before the first render, e.g. values taken from a capture.
// source describes where those values came from and may be empty.
func NewDashboardModel(h *model.Handle, modelPath, source string, initial ...dashboard.Event) DashboardModel {
	m := DashboardModel{
		bar:       progress.New(progress.WithDefaultGradient(), progress.WithWidth(30), progress.WithoutPercentage()),
		help:      help.New(),
		keys:      defaultKeyMap(),
		modelPath: modelPath,
		source:    source,
	}

	caps, err := h.Capabilities()
	if err != nil {
		m.state = dashboard.Failed(err)
		return m
	}
	m.caps = caps
	m.state = dashboard.Replay(dashboard.New(caps.Point.FeatureNames()), initial...)
	if m.state.Phase == dashboard.PhaseFailed {
		return m
	}

	head := m.state.Vector.Head(previewColumns)
	columns := make([]table.Column, head.Len())
	for i, name := range head.Names {
		width := len(name)
		if width < 8 {
			width = 8
		}
		columns[i] = table.Column{Title: name, Width: width}
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(false),
		table.WithHeight(3),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Cell
	t.SetStyles(s)

	m.table = t
	m.refreshPreview()
	return m
}

func (m DashboardModel) Init() tea.Cmd {
	return nil
}

// State exposes the current dashboard state.
func (m DashboardModel) State() dashboard.State {
	return m.state
}

func (m *DashboardModel) refreshPreview() {
	head := m.state.Vector.Head(previewColumns)
	row := make(table.Row, head.Len())
	for i, v := range head.Values {
		row[i] = formatNumber(v)
	}
	m.table.SetRows([]table.Row{row})
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatField(f dashboard.FieldSpec, v float64) string {
	if f.Integer {
		return formatNumber(v)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}
