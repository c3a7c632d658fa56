package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// View renders the TUI.
func (m *Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var content string
	switch m.mode {
	case ModeHelp:
		content = m.viewHelp()
	case ModeDetail:
		content = m.viewDetail()
	case ModeNormal, ModeConfirm:
		content = m.viewMain()
	}

	return m.styles.App.Render(content)
}

// viewMain renders the task list.
func (m *Model) viewMain() string {
	var b strings.Builder

	b.WriteString(m.viewHeader())
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(m.styles.ErrorMsg.Render("Error: "+m.err.Error()) + "\n\n")
	} else if m.notice != "" {
		b.WriteString(m.styles.Notice.Render(m.notice) + "\n\n")
	}

	if len(m.taskList.Items()) == 0 {
		b.WriteString(m.viewEmptyState())
	} else {
		b.WriteString(m.taskList.View())
	}

	if m.mode == ModeConfirm {
		b.WriteString("\n")
		b.WriteString(m.viewConfirmDialog())
	}

	b.WriteString("\n")
	b.WriteString(NewStatusLine(m.width-4, &m.styles).Render(m.GetStatusInfo()))

	return b.String()
}

// viewHeader renders the header with the task count.
func (m *Model) viewHeader() string {
	title := m.styles.HeaderText.Render("Tasks")

	countText := fmt.Sprintf("showing %d of %d tasks", len(m.visibleTasks()), len(m.tasks))
	if m.awaitingOnly {
		countText += " (awaiting you)"
	}
	rightText := lipgloss.NewStyle().Foreground(Colors.Muted).Render(countText)

	headerWidth := m.width - 6
	if headerWidth < 40 {
		headerWidth = 40
	}
	spacing := headerWidth - lipgloss.Width(title) - lipgloss.Width(rightText)
	if spacing < 1 {
		spacing = 1
	}

	return m.styles.Header.Render(title + strings.Repeat(" ", spacing) + rightText)
}

// viewEmptyState renders the hint shown when no task is listed.
func (m *Model) viewEmptyState() string {
	msg := "No open tasks. Start one with: quire start \"<description>\""
	if m.awaitingOnly {
		msg = "No task is waiting for you. Press a to show all tasks."
	}
	return m.styles.Footer.Render(msg) + "\n"
}

// viewConfirmDialog renders the confirmation dialog.
func (m *Model) viewConfirmDialog() string {
	task := m.SelectedTask()
	if task == nil || m.confirmAction == ConfirmNone {
		return ""
	}

	color := Colors.Primary
	prompt := "The step is recorded on the task branch."
	if m.confirmAction == ConfirmPublish {
		color = Colors.Success
		prompt = "The task is merged into the published content. This cannot be undone."
	}

	title := m.styles.DialogTitle.Foreground(color).Render(
		fmt.Sprintf("%s %s?", capitalize(m.confirmAction.String()), task.Task.Branch))

	yesBtn := m.styles.HelpKey.Render("[ y ] Confirm")
	noBtn := m.styles.Footer.Render("[ n ] Cancel")
	buttons := lipgloss.JoinHorizontal(lipgloss.Left, yesBtn, "  ", noBtn)

	content := lipgloss.JoinVertical(lipgloss.Left,
		title,
		m.styles.TaskDesc.Render(escapeNewlines(task.Task.Metadata.Description)),
		"",
		m.styles.DialogPrompt.Render(prompt),
		"",
		buttons,
	)

	return m.styles.Dialog.BorderForeground(color).Render(content)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// viewHelp renders the help view.
func (m *Model) viewHelp() string {
	title := m.styles.HeaderText.Render("KEYBOARD SHORTCUTS")

	var b strings.Builder
	for _, group := range m.keys.FullHelp() {
		for _, binding := range group {
			h := binding.Help()
			key := m.styles.HelpKey.Width(8).Render(h.Key)
			fmt.Fprintf(&b, "%s %s\n", key, m.styles.HelpDesc.Render(h.Desc))
		}
		b.WriteString("\n")
	}

	return m.styles.Dialog.
		BorderForeground(Colors.Primary).
		Render(lipgloss.JoinVertical(lipgloss.Left, title, "", strings.TrimRight(b.String(), "\n")))
}

// viewDetail renders the task detail view.
func (m *Model) viewDetail() string {
	task := m.SelectedTask()
	if task == nil {
		return "No task selected"
	}

	var b strings.Builder
	b.WriteString(m.styles.DetailTitle.Render("Task " + task.Task.Branch))
	b.WriteString("\n")
	if m.err != nil {
		b.WriteString(m.styles.ErrorMsg.Render("Error: "+m.err.Error()) + "\n")
	}
	if m.history == nil || m.history.Task.Branch != task.Task.Branch {
		b.WriteString(m.styles.Footer.Render("Loading history..."))
	} else {
		b.WriteString(m.detailViewport.View())
	}
	b.WriteString("\n")
	b.WriteString(NewStatusLine(m.width-8, &m.styles).Render(m.GetStatusInfo()))

	return m.styles.Dialog.
		Width(m.width - 4).
		BorderForeground(m.styles.StateStyle(task.Task.State).GetForeground()).
		Render(b.String())
}
