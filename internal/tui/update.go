package tui

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/runoshun/quire/internal/domain"
)

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.updateLayoutSizes()
		return m, nil

	case MsgTasksLoaded:
		m.tasks = msg.Tasks
		m.err = nil
		m.updateTaskList()
		if m.mode == ModeDetail {
			if task := m.SelectedTask(); task != nil {
				return m, m.loadHistory(task.Task.Branch)
			}
			m.mode = ModeNormal
		}
		return m, nil

	case MsgHistoryLoaded:
		m.history = msg.History
		m.renderDetail()
		return m, nil

	case MsgReviewChanged:
		m.mode = ModeNormal
		m.confirmAction = ConfirmNone
		m.notice = fmt.Sprintf("%s: %s", msg.Branch, msg.Out.State.Display())
		return m, m.loadTasks()

	case MsgError:
		m.confirmAction = ConfirmNone
		if m.mode == ModeConfirm {
			m.mode = ModeNormal
		}
		m.err = msg.Err
		m.notice = ""
		if errors.Is(msg.Err, domain.ErrStaleWrite) {
			// Someone moved the task on; show what changed.
			return m, m.loadTasks()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.taskList, cmd = m.taskList.Update(msg)
	return m, cmd
}

// handleKeyMsg dispatches key presses by mode.
func (m *Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// The list owns every key while its filter input is active.
	if m.taskList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.taskList, cmd = m.taskList.Update(msg)
		return m, cmd
	}

	switch m.mode {
	case ModeConfirm:
		return m.handleConfirmMode(msg)
	case ModeHelp:
		return m.handleHelpMode(msg)
	case ModeDetail:
		return m.handleDetailMode(msg)
	case ModeNormal:
		return m.handleNormalMode(msg)
	}
	return m, nil
}

// handleNormalMode handles keys in the task list.
func (m *Model) handleNormalMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Escape):
		if m.taskList.FilterState() == list.FilterApplied {
			m.taskList.ResetFilter()
		}
		m.err = nil
		m.notice = ""
		return m, nil

	case key.Matches(msg, m.keys.Help):
		m.mode = ModeHelp
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		m.notice = ""
		return m, m.loadTasks()

	case key.Matches(msg, m.keys.ToggleActions):
		m.awaitingOnly = !m.awaitingOnly
		m.updateTaskList()
		return m, nil

	case key.Matches(msg, m.keys.Enter):
		task := m.SelectedTask()
		if task == nil {
			return m, nil
		}
		m.mode = ModeDetail
		m.history = nil
		m.detailViewport.GotoTop()
		m.renderDetail()
		return m, m.loadHistory(task.Task.Branch)

	case key.Matches(msg, m.keys.Feedback):
		return m.confirm(ConfirmFeedback)

	case key.Matches(msg, m.keys.Endorse):
		return m.confirm(ConfirmEndorse)

	case key.Matches(msg, m.keys.Publish):
		return m.confirm(ConfirmPublish)
	}

	var cmd tea.Cmd
	m.taskList, cmd = m.taskList.Update(msg)
	return m, cmd
}

// confirm asks before recording a review step on the selected task.
// Steps the actor may not take are refused without a round trip.
func (m *Model) confirm(action ConfirmAction) (tea.Model, tea.Cmd) {
	task := m.SelectedTask()
	if task == nil {
		return m, nil
	}
	target := action.Target()
	if !task.Task.State.CanTransitionTo(target) {
		m.err = fmt.Errorf("%w: %s is %s", domain.ErrInvalidTransition, task.Task.Branch, task.Task.State.Display())
		return m, nil
	}
	if task.Status.Next == target && !task.Status.Authorized {
		m.err = fmt.Errorf("%w to %s %s", domain.ErrNotAuthorized, action, task.Task.Branch)
		return m, nil
	}
	m.err = nil
	m.mode = ModeConfirm
	m.confirmAction = action
	return m, nil
}

// handleConfirmMode handles keys in the confirmation dialog.
func (m *Model) handleConfirmMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		task := m.SelectedTask()
		action := m.confirmAction
		if task == nil || action == ConfirmNone {
			m.mode = ModeNormal
			return m, nil
		}
		return m, m.changeReviewState(*task, action.Target())

	case key.Matches(msg, m.keys.Escape), msg.String() == "n", msg.String() == "N":
		m.mode = ModeNormal
		m.confirmAction = ConfirmNone
		return m, nil
	}
	return m, nil
}

// handleHelpMode handles keys in the help overlay.
func (m *Model) handleHelpMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape), key.Matches(msg, m.keys.Help), key.Matches(msg, m.keys.Quit):
		m.mode = ModeNormal
	}
	return m, nil
}

// handleDetailMode handles keys in the detail view.
func (m *Model) handleDetailMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Escape), key.Matches(msg, m.keys.Enter), msg.String() == "h", msg.String() == "left":
		m.mode = ModeNormal
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		if task := m.SelectedTask(); task != nil {
			return m, m.loadHistory(task.Task.Branch)
		}
		return m, nil

	case msg.String() == "g":
		m.detailViewport.GotoTop()
		return m, nil

	case msg.String() == "G":
		m.detailViewport.GotoBottom()
		return m, nil
	}

	var cmd tea.Cmd
	m.detailViewport, cmd = m.detailViewport.Update(msg)
	return m, cmd
}
