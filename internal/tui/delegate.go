package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"
	"github.com/runoshun/quire/internal/usecase"
)

type taskItem struct {
	usecase.TaskListItem
}

func (t taskItem) FilterValue() string {
	return t.Task.Branch + " " + t.Task.Metadata.Description
}

// escapeNewlines replaces newline characters with spaces for single-line display.
func escapeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	return s
}

// truncate shortens s to width display cells.
func truncate(s string, width int) string {
	if width < 10 {
		width = 10
	}
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "...")
}

// padRight fills line with spaces up to width.
func padRight(line string, width int) string {
	if w := runewidth.StringWidth(line); w < width {
		return line + strings.Repeat(" ", width-w)
	}
	return line
}

type taskDelegate struct {
	styles Styles
}

func newTaskDelegate(styles Styles) taskDelegate {
	return taskDelegate{styles: styles}
}

func (d taskDelegate) Height() int {
	return 2
}

func (d taskDelegate) Spacing() int {
	return 1
}

func (d taskDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// prefixWidth is the width of indicator, state and branch columns.
const prefixWidth = 24

func (d taskDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ti, ok := item.(taskItem)
	if !ok {
		return
	}
	task := ti.Task
	selected := index == m.Index()
	listWidth := m.Width()

	indicator, branchStyle, titleStyle, descStyle := " ", d.styles.TaskBranch, d.styles.TaskTitle, d.styles.TaskDesc
	stateStyle := d.styles.StateStyle(task.State)
	if selected {
		indicator = ">"
		branchStyle = d.styles.TaskBranchSelected
		titleStyle = d.styles.TaskTitleSelected
		descStyle = d.styles.TaskDescSelected
		stateStyle = stateStyle.Bold(true)
	}

	title := truncate(escapeNewlines(task.Metadata.Description), listWidth-prefixWidth-2)
	line := "  " + d.styles.SelectionIndicator.Render(indicator) + " " +
		stateStyle.Render(StateIcon(task.State)+" "+fmt.Sprintf("%-5s", StateText(task.State))) + "  " +
		branchStyle.Render(fmt.Sprintf("%-8s", task.Branch)) + "  " +
		titleStyle.Render(title)
	_, _ = fmt.Fprintln(w, padRight(line, listWidth))

	var details []string
	if task.Metadata.AuthorEmail != "" {
		details = append(details, task.Metadata.AuthorEmail)
	}
	if !task.Metadata.Created.IsZero() {
		details = append(details, task.Metadata.Created.Format("2006-01-02 15:04"))
	}
	descLine := strings.Repeat(" ", prefixWidth) + truncate(strings.Join(details, " · "), listWidth-prefixWidth-2)
	if ti.Status.Next != "" {
		next := "next: " + string(ti.Status.Next)
		if ti.Status.Authorized {
			next = d.styles.Authorized.Render(next + " ✓")
		}
		descLine += "  " + next
	}
	_, _ = fmt.Fprint(w, descStyle.Render(padRight(descLine, listWidth)))
}
