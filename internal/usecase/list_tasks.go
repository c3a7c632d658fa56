package usecase

import (
	"context"
	"errors"
	"sort"

	"github.com/runoshun/quire/internal/domain"
	"github.com/runoshun/quire/internal/usecase/shared"
)

// ListTasksInput contains the parameters for listing tasks.
type ListTasksInput struct {
	Actor  domain.Actor        // Actor the authorization is computed for
	States []domain.ReviewState // Only tasks in these states (empty = all)
}

// TaskListItem is one open task.
type TaskListItem struct {
	Task   domain.Task
	Status domain.ReviewStatus
}

// ListTasksOutput contains the open tasks, newest first.
type ListTasksOutput struct {
	Tasks []TaskListItem
}

// ListTasks is the use case for listing open tasks at origin.
type ListTasks struct {
	opener *shared.TaskOpener
	logger domain.Logger
}

// NewListTasks creates a new ListTasks use case.
func NewListTasks(opener *shared.TaskOpener, logger domain.Logger) *ListTasks {
	return &ListTasks{opener: opener, logger: logger}
}

// Execute reads every branch at origin that carries a task metadata record.
// Branches without one are not tasks and are skipped.
func (uc *ListTasks) Execute(ctx context.Context, in ListTasksInput) (*ListTasksOutput, error) {
	lease, err := uc.opener.OpenDefault(ctx, in.Actor)
	if err != nil {
		return nil, err
	}
	defer lease.Release()

	branches, err := lease.Repo.ListRemoteBranches(ctx)
	if err != nil {
		return nil, err
	}

	wanted := make(map[domain.ReviewState]bool, len(in.States))
	for _, s := range in.States {
		wanted[s] = true
	}

	items := make([]TaskListItem, 0, len(branches))
	for _, b := range branches {
		if b.Name == uc.opener.DefaultBranch() || domain.ValidateBranchName(b.Name) != nil {
			continue
		}
		record, err := shared.LoadOpenTask(ctx, lease.Repo, b.Name, uc.opener.DefaultBranch(), domain.RemoteRef(b.Name))
		if errors.Is(err, domain.ErrBranchNotFound) {
			uc.logger.Debug(b.Name, "list", "skipping branch without task metadata")
			continue
		}
		if err != nil {
			return nil, err
		}
		if len(wanted) > 0 && !wanted[record.Task.State] {
			continue
		}
		items = append(items, TaskListItem{Task: record.Task, Status: record.Status(in.Actor)})
	}

	sort.SliceStable(items, func(i, j int) bool {
		ci, cj := items[i].Task.Metadata.Created, items[j].Task.Metadata.Created
		if !ci.Equal(cj) {
			return ci.After(cj)
		}
		return items[i].Task.Branch < items[j].Task.Branch
	})
	return &ListTasksOutput{Tasks: items}, nil
}
