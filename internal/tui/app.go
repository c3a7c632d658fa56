package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/runoshun/quire/internal/app"
	"github.com/runoshun/quire/internal/domain"
	"github.com/runoshun/quire/internal/usecase"
)

// Model is the main bubbletea model for the TUI.
type Model struct {
	container *app.Container
	err       error
	history   *usecase.ShowHistoryOutput

	tasks  []usecase.TaskListItem
	actor  domain.Actor
	notice string

	keys           KeyMap
	styles         Styles
	help           help.Model
	taskList       list.Model
	detailViewport viewport.Model

	mode          Mode
	confirmAction ConfirmAction
	width         int
	height        int
	awaitingOnly  bool
}

// New creates a new TUI Model acting on behalf of actor.
func New(c *app.Container, actor domain.Actor) *Model {
	styles := DefaultStyles()
	taskList := list.New([]list.Item{}, newTaskDelegate(styles), 0, 0)
	taskList.SetShowTitle(false)
	taskList.SetShowStatusBar(false)
	taskList.SetShowHelp(false)
	taskList.SetShowPagination(false)
	taskList.SetFilteringEnabled(true)
	taskList.DisableQuitKeybindings()

	return &Model{
		container:      c,
		actor:          actor,
		mode:           ModeNormal,
		keys:           DefaultKeyMap(),
		styles:         styles,
		help:           help.New(),
		taskList:       taskList,
		detailViewport: viewport.New(0, 0),
	}
}

// Init initializes the model and returns the initial command.
func (m *Model) Init() tea.Cmd {
	return m.loadTasks()
}

// loadTasks returns a command that lists the open tasks.
func (m *Model) loadTasks() tea.Cmd {
	return func() tea.Msg {
		out, err := m.container.ListTasksUseCase().Execute(context.Background(), usecase.ListTasksInput{
			Actor: m.actor,
		})
		if err != nil {
			return MsgError{Err: err}
		}
		return MsgTasksLoaded{Tasks: out.Tasks}
	}
}

// loadHistory returns a command that loads the history of a task.
func (m *Model) loadHistory(branch string) tea.Cmd {
	return func() tea.Msg {
		out, err := m.container.ShowHistoryUseCase().Execute(context.Background(), usecase.ShowHistoryInput{
			Actor:  m.actor,
			Branch: branch,
		})
		if err != nil {
			return MsgError{Err: err, Branch: branch}
		}
		return MsgHistoryLoaded{Branch: branch, History: out}
	}
}

// changeReviewState returns a command that records a review step.
// The task head seen in the list is the expected tip, so a step never
// applies to edits the actor has not seen.
func (m *Model) changeReviewState(item usecase.TaskListItem, target domain.ReviewState) tea.Cmd {
	return func() tea.Msg {
		out, err := m.container.ChangeReviewStateUseCase().Execute(context.Background(), usecase.ChangeReviewStateInput{
			Actor:       m.actor,
			Branch:      item.Task.Branch,
			ExpectedSHA: item.Task.Head,
			Target:      target,
		})
		if err != nil {
			return MsgError{Err: err, Branch: item.Task.Branch}
		}
		return MsgReviewChanged{Branch: item.Task.Branch, Out: out}
	}
}

// SelectedTask returns the currently selected task, or nil if none.
func (m *Model) SelectedTask() *usecase.TaskListItem {
	item, ok := m.taskList.SelectedItem().(taskItem)
	if !ok {
		return nil
	}
	return &item.TaskListItem
}

// visibleTasks returns the tasks shown with the current toggles applied.
func (m *Model) visibleTasks() []usecase.TaskListItem {
	if !m.awaitingOnly {
		return m.tasks
	}
	visible := make([]usecase.TaskListItem, 0, len(m.tasks))
	for _, t := range m.tasks {
		if t.Status.Authorized {
			visible = append(visible, t)
		}
	}
	return visible
}

// updateTaskList refreshes the list items, keeping the selection by branch.
func (m *Model) updateTaskList() {
	var selected string
	if t := m.SelectedTask(); t != nil {
		selected = t.Task.Branch
	}

	tasks := m.visibleTasks()
	items := make([]list.Item, len(tasks))
	index := 0
	for i, t := range tasks {
		items[i] = taskItem{TaskListItem: t}
		if t.Task.Branch == selected {
			index = i
		}
	}
	m.taskList.SetItems(items)
	if len(items) > 0 {
		m.taskList.Select(index)
	}
}

// updateLayoutSizes resizes the list and the detail viewport.
func (m *Model) updateLayoutSizes() {
	listHeight := m.height - 8
	if listHeight < 3 {
		listHeight = 3
	}
	m.taskList.SetSize(m.width-4, listHeight)
	m.detailViewport.Width = m.width - 8
	m.detailViewport.Height = m.height - 8
	m.renderDetail()
}

// renderDetail renders the loaded history into the detail viewport.
func (m *Model) renderDetail() {
	task := m.SelectedTask()
	if task == nil || m.history == nil || m.history.Task.Branch != task.Task.Branch {
		m.detailViewport.SetContent("")
		return
	}
	source := historyMarkdown(*task, m.history)
	content, err := RenderMarkdown(source, m.detailViewport.Width)
	if err != nil {
		content = source
	}
	m.detailViewport.SetContent(content)
}

// Run starts the TUI and blocks until the user quits.
func Run(c *app.Container, actor domain.Actor) error {
	p := tea.NewProgram(New(c, actor), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
