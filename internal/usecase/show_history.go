package usecase

import (
	"context"

	"github.com/runoshun/quire/internal/domain"
	"github.com/runoshun/quire/internal/usecase/shared"
)

// ShowHistoryInput contains the parameters for showing task history.
type ShowHistoryInput struct {
	Actor  domain.Actor
	Branch string
}

// ShowHistoryOutput contains the activity history of a task.
type ShowHistoryOutput struct {
	Task    domain.Task
	History []domain.Activity // Newest first
	Summary domain.Summary
}

// ShowHistory is the use case for the audit view of a task.
type ShowHistory struct {
	opener *shared.TaskOpener
}

// NewShowHistory creates a new ShowHistory use case.
func NewShowHistory(opener *shared.TaskOpener) *ShowHistory {
	return &ShowHistory{opener: opener}
}

// Execute reconstructs the history from the task's commits back to the
// commit that started it.
func (uc *ShowHistory) Execute(ctx context.Context, in ShowHistoryInput) (*ShowHistoryOutput, error) {
	record, err := loadTask(ctx, uc.opener, in.Actor, in.Branch)
	if err != nil {
		return nil, err
	}
	history := record.History()
	return &ShowHistoryOutput{
		Task:    record.Task,
		History: history,
		Summary: domain.Summarize(history),
	}, nil
}
