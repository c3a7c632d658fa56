package usecase

import (
	"context"

	"github.com/runoshun/quire/internal/domain"
	"github.com/runoshun/quire/internal/usecase/shared"
)

// LocateTaskInput contains the parameters for locating a task.
type LocateTaskInput struct {
	Actor  domain.Actor
	Branch string // Raw, unescaped branch name
}

// LocateTaskOutput contains the result of locating a task.
type LocateTaskOutput struct {
	Branch  string
	Head    string // Local tip of the branch
	Tracked bool   // A local tracking branch was created from origin
}

// LocateTask is the use case for finding an existing task branch.
// It never creates a branch that is not already at origin.
type LocateTask struct {
	opener *shared.TaskOpener
}

// NewLocateTask creates a new LocateTask use case.
func NewLocateTask(opener *shared.TaskOpener) *LocateTask {
	return &LocateTask{opener: opener}
}

// Execute fetches origin and checks the task branch out in the actor's clone.
// Returns domain.ErrBranchNotFound if the branch is not at origin.
func (uc *LocateTask) Execute(ctx context.Context, in LocateTaskInput) (*LocateTaskOutput, error) {
	lease, err := uc.opener.OpenTask(ctx, in.Actor, in.Branch)
	if err != nil {
		return nil, err
	}
	defer lease.Release()

	return &LocateTaskOutput{
		Branch:  lease.Branch,
		Head:    lease.Head,
		Tracked: lease.Tracked,
	}, nil
}
