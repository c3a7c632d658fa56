package usecase

import (
	"context"
	"errors"

	"github.com/runoshun/quire/internal/domain"
	"github.com/runoshun/quire/internal/usecase/shared"
)

// ShowTaskInput contains the parameters for showing a task.
type ShowTaskInput struct {
	Actor  domain.Actor // Actor the authorization is computed for
	Branch string
}

// ShowTaskOutput contains the result of showing a task.
type ShowTaskOutput struct {
	Task    domain.Task
	Status  domain.ReviewStatus
	Summary domain.Summary
}

// ShowTask is the use case for displaying a task with its review status.
type ShowTask struct {
	opener *shared.TaskOpener
}

// NewShowTask creates a new ShowTask use case.
func NewShowTask(opener *shared.TaskOpener) *ShowTask {
	return &ShowTask{opener: opener}
}

// Execute loads the task. Published tasks are read from their tag.
func (uc *ShowTask) Execute(ctx context.Context, in ShowTaskInput) (*ShowTaskOutput, error) {
	record, err := loadTask(ctx, uc.opener, in.Actor, in.Branch)
	if err != nil {
		return nil, err
	}
	return &ShowTaskOutput{
		Task:    record.Task,
		Status:  record.Status(in.Actor),
		Summary: domain.Summarize(record.History()),
	}, nil
}

// loadTask reads an open task from the actor's clone of it, or a published
// one from its tag.
func loadTask(ctx context.Context, opener *shared.TaskOpener, actor domain.Actor, branch string) (*shared.TaskRecord, error) {
	lease, err := opener.OpenTask(ctx, actor, branch)
	if errors.Is(err, domain.ErrBranchNotFound) {
		return loadPublishedTask(ctx, opener, actor, branch)
	}
	if err != nil {
		return nil, err
	}
	defer lease.Release()
	return shared.LoadOpenTask(ctx, lease.Repo, lease.Branch, opener.DefaultBranch(), "HEAD")
}

func loadPublishedTask(ctx context.Context, opener *shared.TaskOpener, actor domain.Actor, branch string) (*shared.TaskRecord, error) {
	lease, err := opener.OpenDefault(ctx, actor)
	if err != nil {
		return nil, err
	}
	defer lease.Release()
	return shared.LoadPublishedTask(ctx, lease.Repo, branch)
}
