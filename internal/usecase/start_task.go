// Package usecase contains application use cases.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/runoshun/quire/internal/domain"
	"github.com/runoshun/quire/internal/usecase/shared"
)

// StartTaskInput contains the parameters for starting a task.
type StartTaskInput struct {
	Extra       map[string]string // Free-form metadata fields (optional)
	Actor       domain.Actor      // Editor starting the task
	Description string            // Task description (required)
}

// StartTaskOutput contains the result of starting a task.
type StartTaskOutput struct {
	Branch  string // Task branch name
	Head    string // Branch tip
	Created bool   // False if the branch already existed at origin
}

// StartTask is the use case for starting a task.
type StartTask struct {
	opener *shared.TaskOpener
	clock  domain.Clock
	logger domain.Logger
	opts   shared.Options
}

// NewStartTask creates a new StartTask use case.
func NewStartTask(
	opener *shared.TaskOpener,
	clock domain.Clock,
	logger domain.Logger,
	opts shared.Options,
) *StartTask {
	return &StartTask{
		opener: opener,
		clock:  clock,
		logger: logger,
		opts:   opts,
	}
}

// Execute starts a task, or returns the existing one if the same actor
// started a task with the same description within the naming window.
//
// Processing:
// 1. Compute the deterministic branch name
// 2. If the branch exists at origin, check it out and return it
// 3. Refuse a name whose task was already published
// 4. Otherwise fork it from origin's default branch
// 5. Commit the task metadata record and push
func (uc *StartTask) Execute(ctx context.Context, in StartTaskInput) (*StartTaskOutput, error) {
	if err := in.Actor.Validate(); err != nil {
		return nil, err
	}
	description := strings.TrimSpace(in.Description)
	if description == "" {
		return nil, domain.ErrEmptyDescription
	}

	now := uc.clock.Now()
	branch := domain.TaskBranchName(now, uc.opts.NameWindow, description, in.Actor.Email)

	lease, err := uc.opener.Acquire(ctx, in.Actor, branch)
	if err != nil {
		return nil, err
	}
	defer lease.Release()
	repo := lease.Repo

	if _, ok, err := repo.RemoteBranch(ctx, branch); err != nil {
		return nil, err
	} else if ok {
		return uc.existing(ctx, lease)
	}
	if _, published, err := repo.TagTarget(ctx, branch); err != nil {
		return nil, err
	} else if published {
		return nil, fmt.Errorf("%w: task %s was already published", domain.ErrBranchCreation, branch)
	}

	if _, ok, err := repo.RemoteBranch(ctx, uc.opts.DefaultBranch); err != nil {
		return nil, err
	} else if !ok {
		return nil, fmt.Errorf("%w: default branch %q missing at origin", domain.ErrBranchCreation, uc.opts.DefaultBranch)
	}
	if err := repo.CreateBranch(ctx, branch, domain.RemoteRef(uc.opts.DefaultBranch)); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrBranchCreation, err)
	}

	meta := domain.TaskMetadata{
		AuthorEmail: in.Actor.Email,
		Description: description,
		Created:     now.UTC().Truncate(time.Second),
	}
	keys := make([]string, 0, len(in.Extra))
	for k := range in.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := meta.Set(k, in.Extra[k]); err != nil {
			return nil, err
		}
	}
	record, err := meta.Marshal()
	if err != nil {
		return nil, err
	}
	if err := repo.WriteFile(domain.TaskMetadataFile, record); err != nil {
		return nil, err
	}
	head, err := repo.Commit(ctx, in.Actor, domain.CommitOptions{Message: domain.SubjectTaskStarted})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrBranchCreation, err)
	}

	var rejected error
	err = shared.Retry(ctx, uc.opts.Retries, uc.opts.RetryDelay, func(int) error {
		pushErr := repo.Push(ctx, "refs/heads/"+branch+":refs/heads/"+branch)
		if errors.Is(pushErr, domain.ErrPushRejected) {
			rejected = pushErr
			return nil
		}
		return pushErr
	})
	if err == nil && rejected != nil {
		// A concurrent identical start may have won the race.
		err = rejected
		if fetchErr := repo.Fetch(ctx); fetchErr == nil {
			if _, ok, _ := repo.RemoteBranch(ctx, branch); ok {
				return uc.existing(ctx, lease)
			}
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrBranchCreation, err)
	}

	uc.logger.Info(branch, "start", fmt.Sprintf("task started by %s: %s", in.Actor.Email, description))
	return &StartTaskOutput{Branch: branch, Head: head, Created: true}, nil
}

// existing checks out a branch that is already at origin.
func (uc *StartTask) existing(ctx context.Context, lease *shared.Lease) (*StartTaskOutput, error) {
	if err := uc.opener.CheckoutTask(ctx, lease); err != nil {
		return nil, err
	}
	uc.logger.Debug(lease.Branch, "start", "task already exists at origin")
	return &StartTaskOutput{Branch: lease.Branch, Head: lease.Head}, nil
}
