package tui

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/runoshun/quire/internal/domain"
	"github.com/runoshun/quire/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var reviewer = domain.Actor{Name: "Bob", Email: "bob@example.com"}

func listItem(branch, description string, state domain.ReviewState, authorized bool) usecase.TaskListItem {
	return usecase.TaskListItem{
		Task: domain.Task{
			Branch: branch,
			Head:   branch + "0000000",
			State:  state,
			Metadata: domain.TaskMetadata{
				Description: description,
				AuthorEmail: "alice@example.com",
				Created:     time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
			},
		},
		Status: domain.ReviewStatus{
			State:      state,
			Next:       state.Next(),
			Authorized: authorized,
		},
	}
}

func newLoadedModel(t *testing.T, tasks ...usecase.TaskListItem) *Model {
	t.Helper()
	m := New(nil, reviewer)
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m.Update(MsgTasksLoaded{Tasks: tasks})
	return m
}

func keyPress(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestUpdate_MsgTasksLoaded(t *testing.T) {
	m := newLoadedModel(t,
		listItem("abc1234", "Update the about page", domain.ReviewEdited, true),
		listItem("def5678", "Add a new article", domain.ReviewFresh, false),
	)

	assert.Len(t, m.tasks, 2)
	require.NotNil(t, m.SelectedTask())
	assert.Equal(t, "abc1234", m.SelectedTask().Task.Branch)
}

func TestUpdate_MsgTasksLoaded_KeepsSelection(t *testing.T) {
	first := listItem("abc1234", "Update the about page", domain.ReviewEdited, true)
	second := listItem("def5678", "Add a new article", domain.ReviewFresh, false)
	m := newLoadedModel(t, first, second)
	m.Update(keyPress("j"))
	require.Equal(t, "def5678", m.SelectedTask().Task.Branch)

	// A refresh that puts a new task on top keeps the cursor on the same task.
	m.Update(MsgTasksLoaded{Tasks: []usecase.TaskListItem{
		listItem("fff0000", "Newest task", domain.ReviewFresh, false), first, second,
	}})

	assert.Equal(t, "def5678", m.SelectedTask().Task.Branch)
}

func TestUpdate_ToggleAwaiting(t *testing.T) {
	m := newLoadedModel(t,
		listItem("abc1234", "Update the about page", domain.ReviewEdited, true),
		listItem("def5678", "Add a new article", domain.ReviewFeedback, false),
	)

	m.Update(keyPress("a"))
	assert.True(t, m.awaitingOnly)
	assert.Len(t, m.taskList.Items(), 1)
	assert.Equal(t, "abc1234", m.SelectedTask().Task.Branch)

	m.Update(keyPress("a"))
	assert.False(t, m.awaitingOnly)
	assert.Len(t, m.taskList.Items(), 2)
}

func TestUpdate_ReviewKeys(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		item       usecase.TaskListItem
		wantMode   Mode
		wantAction ConfirmAction
		wantErr    error
	}{
		{
			name:       "request feedback on edited task",
			key:        "f",
			item:       listItem("abc1234", "Edit", domain.ReviewEdited, true),
			wantMode:   ModeConfirm,
			wantAction: ConfirmFeedback,
		},
		{
			name:       "endorse when authorized",
			key:        "e",
			item:       listItem("abc1234", "Edit", domain.ReviewFeedback, true),
			wantMode:   ModeConfirm,
			wantAction: ConfirmEndorse,
		},
		{
			name:     "endorse when not authorized",
			key:      "e",
			item:     listItem("abc1234", "Edit", domain.ReviewFeedback, false),
			wantMode: ModeNormal,
			wantErr:  domain.ErrNotAuthorized,
		},
		{
			name:     "publish before endorsement",
			key:      "p",
			item:     listItem("abc1234", "Edit", domain.ReviewEdited, true),
			wantMode: ModeNormal,
			wantErr:  domain.ErrInvalidTransition,
		},
		{
			name:       "publish endorsed task",
			key:        "p",
			item:       listItem("abc1234", "Edit", domain.ReviewEndorsed, true),
			wantMode:   ModeConfirm,
			wantAction: ConfirmPublish,
		},
		{
			name:     "feedback on fresh task",
			key:      "f",
			item:     listItem("abc1234", "Edit", domain.ReviewFresh, false),
			wantMode: ModeNormal,
			wantErr:  domain.ErrInvalidTransition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newLoadedModel(t, tt.item)

			_, cmd := m.Update(keyPress(tt.key))

			assert.Nil(t, cmd)
			assert.Equal(t, tt.wantMode, m.mode)
			assert.Equal(t, tt.wantAction, m.confirmAction)
			if tt.wantErr != nil {
				assert.ErrorIs(t, m.err, tt.wantErr)
			} else {
				assert.NoError(t, m.err)
			}
		})
	}
}

func TestUpdate_ConfirmMode(t *testing.T) {
	t.Run("confirm issues the review step", func(t *testing.T) {
		m := newLoadedModel(t, listItem("abc1234", "Edit", domain.ReviewEdited, true))
		m.Update(keyPress("f"))
		require.Equal(t, ModeConfirm, m.mode)

		_, cmd := m.Update(keyPress("y"))

		assert.NotNil(t, cmd)
	})

	t.Run("cancel returns to the list", func(t *testing.T) {
		m := newLoadedModel(t, listItem("abc1234", "Edit", domain.ReviewEdited, true))
		m.Update(keyPress("f"))

		_, cmd := m.Update(keyPress("n"))

		assert.Nil(t, cmd)
		assert.Equal(t, ModeNormal, m.mode)
		assert.Equal(t, ConfirmNone, m.confirmAction)
	})
}

func TestUpdate_MsgReviewChanged(t *testing.T) {
	m := newLoadedModel(t, listItem("abc1234", "Edit", domain.ReviewEdited, true))
	m.mode = ModeConfirm
	m.confirmAction = ConfirmFeedback

	_, cmd := m.Update(MsgReviewChanged{
		Branch: "abc1234",
		Out:    &usecase.ChangeReviewStateOutput{State: domain.ReviewFeedback},
	})

	assert.NotNil(t, cmd, "tasks should be reloaded")
	assert.Equal(t, ModeNormal, m.mode)
	assert.Equal(t, ConfirmNone, m.confirmAction)
	assert.Equal(t, "abc1234: Feedback requested", m.notice)
}

func TestUpdate_MsgError(t *testing.T) {
	t.Run("stale write reloads tasks", func(t *testing.T) {
		m := newLoadedModel(t, listItem("abc1234", "Edit", domain.ReviewEdited, true))
		m.mode = ModeConfirm

		_, cmd := m.Update(MsgError{Err: domain.ErrStaleWrite, Branch: "abc1234"})

		assert.NotNil(t, cmd)
		assert.Equal(t, ModeNormal, m.mode)
		assert.ErrorIs(t, m.err, domain.ErrStaleWrite)
	})

	t.Run("other errors are only shown", func(t *testing.T) {
		m := newLoadedModel(t, listItem("abc1234", "Edit", domain.ReviewEdited, true))

		_, cmd := m.Update(MsgError{Err: errors.New("boom")})

		assert.Nil(t, cmd)
		assert.EqualError(t, m.err, "boom")
	})
}

func TestUpdate_DetailMode(t *testing.T) {
	m := newLoadedModel(t, listItem("abc1234", "Edit", domain.ReviewEdited, true))

	_, cmd := m.Update(keyPress("enter"))
	assert.NotNil(t, cmd, "history should be loaded")
	assert.Equal(t, ModeDetail, m.mode)
	assert.Contains(t, m.View(), "Loading history...")

	m.Update(MsgHistoryLoaded{
		Branch: "abc1234",
		History: &usecase.ShowHistoryOutput{
			Task: m.SelectedTask().Task,
			History: []domain.Activity{
				domain.ParseCommit(domain.Commit{
					Subject: domain.SubjectTaskStarted,
					Author:  domain.Actor{Name: "Alice", Email: "alice@example.com"},
					When:    time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
				}),
			},
		},
	})
	assert.NotContains(t, m.View(), "Loading history...")

	m.Update(keyPress("esc"))
	assert.Equal(t, ModeNormal, m.mode)
}

func TestUpdate_HelpMode(t *testing.T) {
	m := newLoadedModel(t)

	m.Update(keyPress("?"))
	assert.Equal(t, ModeHelp, m.mode)
	assert.Contains(t, m.View(), "KEYBOARD SHORTCUTS")

	m.Update(keyPress("?"))
	assert.Equal(t, ModeNormal, m.mode)
}

func TestUpdate_Quit(t *testing.T) {
	m := newLoadedModel(t)

	_, cmd := m.Update(keyPress("q"))

	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}
