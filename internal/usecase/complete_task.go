package usecase

import (
	"context"
	"fmt"

	"github.com/runoshun/quire/internal/domain"
	"github.com/runoshun/quire/internal/usecase/shared"
)

// CompleteTaskInput contains the parameters for completing a task.
type CompleteTaskInput struct {
	Actor       domain.Actor
	Branch      string
	Strategy    domain.CompletionStrategy
	ExpectedSHA string // Optimistic-lock token; empty skips the check
}

// CompleteTaskOutput contains the result of completing a task.
type CompleteTaskOutput struct {
	Commit string // New tip of the default branch
	Tag    string // Tag recording the task ("" when abandoned)
}

// CompleteTask is the use case for finishing a task branch.
type CompleteTask struct {
	opener    *shared.TaskOpener
	completer *shared.Completer
}

// NewCompleteTask creates a new CompleteTask use case.
func NewCompleteTask(opener *shared.TaskOpener, completer *shared.Completer) *CompleteTask {
	return &CompleteTask{
		opener:    opener,
		completer: completer,
	}
}

// Execute completes the task with the requested strategy:
//   - merge: merge into the default branch and tag it
//   - clobber: overwrite the default branch with the task content and tag it
//   - abandon: record an empty marker on the default branch and drop the task
//
// A failed merge returns a *domain.MergeConflict and leaves the task untouched.
func (uc *CompleteTask) Execute(ctx context.Context, in CompleteTaskInput) (*CompleteTaskOutput, error) {
	if !in.Strategy.IsValid() {
		return nil, fmt.Errorf("%q: %w", in.Strategy, domain.ErrInvalidStrategy)
	}

	lease, err := uc.opener.OpenTask(ctx, in.Actor, in.Branch)
	if err != nil {
		return nil, err
	}
	defer lease.Release()

	if !shared.MatchesSHA(lease.Head, in.ExpectedSHA) {
		return nil, domain.ErrStaleWrite
	}

	out, err := uc.completer.Complete(ctx, lease, shared.CompleteInput{
		Actor:    in.Actor,
		Strategy: in.Strategy,
	})
	if err != nil {
		return nil, err
	}
	return &CompleteTaskOutput{Commit: out.Commit, Tag: out.Tag}, nil
}
