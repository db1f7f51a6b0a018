package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"flowguard/internal/analysis"
	"flowguard/internal/dashboard"
	"flowguard/internal/models"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFF7DB")).
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1).
			Margin(0, 1)

	headingStyle = lipgloss.NewStyle().Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	focusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))

	buttonStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#3C3C3C")).
			Padding(0, 2)

	secureStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#0B3D0B")).
			Background(lipgloss.Color("#A8E6A1")).
			Padding(0, 1)

	alertStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#C0392B")).
			Padding(0, 1)
)

func (m DashboardModel) View() string {
	title := titleStyle.Render("flowguard - IoT attack detection")

	if m.state.Phase == dashboard.PhaseFailed {
		banner := alertStyle.Render(fmt.Sprintf("Model could not be loaded: %v", m.state.Err))
		return lipgloss.JoinVertical(lipgloss.Left, title, "", banner) + "\nPress q to quit."
	}

	header := dimStyle.Render("Model: " + m.modelPath)
	if m.source != "" {
		header += dimStyle.Render("  |  Inputs from: " + m.source)
	}

	panel := lipgloss.JoinVertical(lipgloss.Left,
		infoStyle.Render(headingStyle.Render("Input preview")+"\n"+m.table.View()),
		" "+buttonStyle.Render("Analyze flow")+dimStyle.Render("  (enter)"),
		m.resultView(),
	)
	body := lipgloss.JoinHorizontal(lipgloss.Top, m.sidebarView(), panel)

	return lipgloss.JoinVertical(lipgloss.Left, title, header, body, m.help.View(m.keys))
}

func (m DashboardModel) sidebarView() string {
	lines := []string{headingStyle.Render("Flow parameters"), ""}
	for i, f := range dashboard.Fields {
		text := formatField(f, m.state.Inputs[f.Name])
		if i == m.focus && m.editing {
			text = m.buffer + "_"
		}

		hint := ""
		if f.Name == "id.orig_p" || f.Name == "id.resp_p" {
			if name, ok := analysis.ServiceName(int(m.state.Inputs[f.Name])); ok {
				hint = dimStyle.Render(" " + name)
			}
		}

		value := fmt.Sprintf("[ %-10s ]", text)
		if i == m.focus {
			value = focusStyle.Render(value)
		}
		lines = append(lines, f.Label, value+hint, "")
	}
	return infoStyle.Render(strings.Join(lines, "\n"))
}

func (m DashboardModel) resultView() string {
	if m.state.Fault != nil {
		return infoStyle.Render(alertStyle.Render(fmt.Sprintf("Analysis failed: %v", m.state.Fault)))
	}
	if m.state.Phase != dashboard.PhaseAnalyzed || m.state.Result == nil {
		return ""
	}

	res := m.state.Result
	var banner string
	if res.Verdict == models.VerdictSecure {
		banner = secureStyle.Render("Secure flow: " + res.Label)
	} else {
		banner = alertStyle.Render("Attack detected: " + res.Label)
	}

	sections := []string{headingStyle.Render("Analysis result"), banner}
	if len(res.Probabilities) > 0 {
		sections = append(sections, "", headingStyle.Render("Confidence scores"), m.probabilityBars(res.Probabilities))
	}
	return infoStyle.Render(strings.Join(sections, "\n"))
}

func (m DashboardModel) probabilityBars(probs []models.ClassProbability) string {
	width := 0
	for _, p := range probs {
		if len(p.Class) > width {
			width = len(p.Class)
		}
	}

	rows := make([]string, len(probs))
	for i, p := range probs {
		rows[i] = fmt.Sprintf("%-*s %s %6.2f%%", width, p.Class, m.bar.ViewAs(p.Probability), p.Probability*100)
	}
	return strings.Join(rows, "\n")
}
