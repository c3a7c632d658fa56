package tui

import "github.com/runoshun/quire/internal/usecase"

// Msg is the sealed interface for all TUI messages.
//
// go-sumtype:decl Msg
type Msg interface {
	sealed()
}

// MsgTasksLoaded is sent when the open tasks were listed.
type MsgTasksLoaded struct {
	Tasks []usecase.TaskListItem
}

func (MsgTasksLoaded) sealed() {}

// MsgHistoryLoaded is sent when the history of a task was loaded.
type MsgHistoryLoaded struct {
	History *usecase.ShowHistoryOutput
	Branch  string
}

func (MsgHistoryLoaded) sealed() {}

// MsgReviewChanged is sent after a review step was recorded.
type MsgReviewChanged struct {
	Branch string
	Out    *usecase.ChangeReviewStateOutput
}

func (MsgReviewChanged) sealed() {}

// MsgError is sent when an operation fails.
type MsgError struct {
	Err    error
	Branch string // Task the operation was about, if any
}

func (MsgError) sealed() {}

// Ensure all message types implement Msg.
var (
	_ Msg = MsgTasksLoaded{}
	_ Msg = MsgHistoryLoaded{}
	_ Msg = MsgReviewChanged{}
	_ Msg = MsgError{}
)
