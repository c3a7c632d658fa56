package shared

import (
	"context"
	"errors"
	"fmt"

	"github.com/runoshun/quire/internal/domain"
)

// CompleteInput contains the parameters for completing a task.
type CompleteInput struct {
	Actor    domain.Actor
	Strategy domain.CompletionStrategy
}

// CompleteOutput contains the result of completing a task.
type CompleteOutput struct {
	Commit string // Commit the default branch now points to
	Tag    string // Tag recording the task ("" for abandon)
}

// Completer finishes task branches with one of the completion strategies.
type Completer struct {
	pool   domain.ClonePool
	logger domain.Logger
	opts   Options
}

// NewCompleter creates a new Completer.
func NewCompleter(pool domain.ClonePool, logger domain.Logger, opts Options) *Completer {
	return &Completer{
		pool:   pool,
		logger: logger,
		opts:   opts,
	}
}

// Complete finishes the leased task. The lease must be open on the task
// branch; on success the branch is gone from origin and every clone of the
// task is evicted from the pool.
func (c *Completer) Complete(ctx context.Context, lease *Lease, in CompleteInput) (*CompleteOutput, error) {
	if !in.Strategy.IsValid() {
		return nil, fmt.Errorf("%q: %w", in.Strategy, domain.ErrInvalidStrategy)
	}
	repo, branch := lease.Repo, lease.Branch
	head, err := repo.ResolveRef(ctx, "HEAD")
	if err != nil {
		return nil, err
	}

	meta, err := ReadMetadata(ctx, repo, domain.RemoteRef(branch))
	if err != nil {
		return nil, err
	}
	record, err := meta.Marshal()
	if err != nil {
		return nil, err
	}

	out, err := c.publishedEarlier(ctx, repo, branch, in.Strategy)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out, err = c.run(ctx, repo, in, branch, meta, string(record))
		if err != nil {
			c.returnToTask(ctx, repo, branch, head)
			return nil, err
		}
	}

	if out.Tag != "" {
		if err := c.tag(ctx, repo, in.Actor, out, string(record)); err != nil {
			return nil, err
		}
	}

	err = Retry(ctx, c.opts.Retries, c.opts.RetryDelay, func(int) error {
		return repo.DeleteRemoteBranch(ctx, branch)
	})
	if err != nil {
		return nil, fmt.Errorf("delete task branch at origin: %w", err)
	}
	if exists, err := repo.LocalBranchExists(ctx, branch); err == nil && exists {
		if err := repo.DeleteBranch(ctx, branch); err != nil {
			return nil, fmt.Errorf("delete task branch: %w", err)
		}
	}

	if err := c.pool.Evict(branch); err != nil {
		c.logger.Warn(branch, "complete", "evict clones: "+err.Error())
	}
	c.logger.Info(branch, "complete", fmt.Sprintf("%s completed at %s", in.Strategy, shortSHA(out.Commit)))
	return out, nil
}

// run applies the strategy, retrying when origin moved underneath it.
func (c *Completer) run(ctx context.Context, repo domain.Repository, in CompleteInput, branch string, meta *domain.TaskMetadata, record string) (*CompleteOutput, error) {
	var out *CompleteOutput
	err := Retry(ctx, c.opts.Retries, c.opts.RetryDelay, func(attempt int) error {
		if attempt > 0 {
			c.logger.Info(branch, "complete", fmt.Sprintf("retrying %s (attempt %d)", in.Strategy, attempt+1))
			if err := repo.Fetch(ctx); err != nil {
				return fmt.Errorf("fetch origin: %w", err)
			}
		}
		var runErr error
		switch in.Strategy {
		case domain.StrategyMerge:
			out, runErr = c.merge(ctx, repo, in.Actor, branch, meta, record)
		case domain.StrategyClobber:
			out, runErr = c.clobber(ctx, repo, in.Actor, branch, meta, record)
		case domain.StrategyAbandon:
			out, runErr = c.abandon(ctx, repo, in.Actor, meta, record)
		}
		return runErr
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// publishedEarlier returns the result of an earlier completion of branch that
// reached the default branch and the tag but stopped before the branch was
// deleted. It returns nil when the task still has to be completed.
func (c *Completer) publishedEarlier(ctx context.Context, repo domain.Repository, branch string, strategy domain.CompletionStrategy) (*CompleteOutput, error) {
	if strategy == domain.StrategyAbandon {
		return nil, nil
	}
	tagged, ok, err := repo.TagTarget(ctx, branch)
	if err != nil || !ok {
		return nil, err
	}
	def := c.opts.DefaultBranch
	onDefault, err := repo.IsAncestor(ctx, tagged, domain.RemoteRef(def))
	if err != nil {
		return nil, err
	}
	if !onDefault {
		return nil, fmt.Errorf("tag %s exists but %s is not on %s", branch, shortSHA(tagged), def)
	}
	if err := CheckoutRemote(ctx, repo, def); err != nil {
		return nil, err
	}
	c.logger.Info(branch, "complete", "already published at "+shortSHA(tagged)+", finishing cleanup")
	return &CompleteOutput{Commit: tagged, Tag: branch}, nil
}

// tag records the task on the published commit and pushes the tag. A tag left
// on the same commit by an interrupted completion is reused.
func (c *Completer) tag(ctx context.Context, repo domain.Repository, actor domain.Actor, out *CompleteOutput, record string) error {
	target, ok, err := repo.TagTarget(ctx, out.Tag)
	if err != nil {
		return err
	}
	switch {
	case !ok:
		if err := repo.Tag(ctx, actor, out.Tag, out.Commit, record); err != nil {
			return fmt.Errorf("tag %s: %w", out.Tag, err)
		}
	case target != out.Commit:
		return fmt.Errorf("tag %s already exists on %s", out.Tag, shortSHA(target))
	}

	err = Retry(ctx, c.opts.Retries, c.opts.RetryDelay, func(int) error {
		return repo.Push(ctx, tagRefspec(out.Tag))
	})
	if err != nil {
		return fmt.Errorf("push tag %s: %w", out.Tag, err)
	}
	return nil
}

// merge merges the task into the default branch with a merge commit that
// carries the metadata record as its body and drops the record from the tree.
func (c *Completer) merge(ctx context.Context, repo domain.Repository, actor domain.Actor, branch string, meta *domain.TaskMetadata, record string) (*CompleteOutput, error) {
	def := c.opts.DefaultBranch
	taskTip, ok, err := repo.RemoteBranch(ctx, branch)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", branch, domain.ErrBranchNotFound)
	}
	if err := CheckoutRemote(ctx, repo, def); err != nil {
		return nil, err
	}
	defTip, err := repo.ResolveRef(ctx, "HEAD")
	if err != nil {
		return nil, err
	}

	message := domain.JoinMessage(domain.MergedSubject(meta.Description), record)
	mergeErr := repo.Merge(ctx, actor, taskTip, domain.MergeOptions{Message: message, NoFF: true})
	if errors.Is(mergeErr, domain.ErrMergeConflict) {
		c.logger.Warn(branch, "complete", "conflict merging into "+def)
		return nil, NewConflict(ctx, repo, defTip, taskTip)
	}
	if mergeErr != nil {
		return nil, fmt.Errorf("merge task: %w", mergeErr)
	}

	commit, err := c.dropMetadata(ctx, repo, actor, message)
	if err != nil {
		return nil, err
	}
	if err := repo.Push(ctx, branchRefspec(def)); err != nil {
		return nil, fmt.Errorf("push %s: %w", def, err)
	}
	return &CompleteOutput{Commit: commit, Tag: branch}, nil
}

// clobber makes the task content win: the default branch is merged into the
// task with the "ours" strategy and then fast-forwarded onto the result.
func (c *Completer) clobber(ctx context.Context, repo domain.Repository, actor domain.Actor, branch string, meta *domain.TaskMetadata, record string) (*CompleteOutput, error) {
	def := c.opts.DefaultBranch
	if err := CheckoutRemote(ctx, repo, branch); err != nil {
		return nil, err
	}
	message := domain.JoinMessage(domain.MergedSubject(meta.Description), record)
	err := repo.Merge(ctx, actor, domain.RemoteRef(def), domain.MergeOptions{
		Message:  message,
		Strategy: "ours",
		NoFF:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("merge %s with ours strategy: %w", def, err)
	}
	clobbered, err := c.dropMetadata(ctx, repo, actor, message)
	if err != nil {
		return nil, err
	}

	if err := CheckoutRemote(ctx, repo, def); err != nil {
		return nil, err
	}
	if err := repo.Merge(ctx, actor, clobbered, domain.MergeOptions{FFOnly: true}); err != nil {
		return nil, fmt.Errorf("fast-forward %s: %w", def, err)
	}
	if err := repo.Push(ctx, branchRefspec(def)); err != nil {
		return nil, fmt.Errorf("push %s: %w", def, err)
	}
	return &CompleteOutput{Commit: clobbered, Tag: branch}, nil
}

// abandon records an empty audit commit on the default branch.
func (c *Completer) abandon(ctx context.Context, repo domain.Repository, actor domain.Actor, meta *domain.TaskMetadata, record string) (*CompleteOutput, error) {
	def := c.opts.DefaultBranch
	if err := CheckoutRemote(ctx, repo, def); err != nil {
		return nil, err
	}
	commit, err := repo.Commit(ctx, actor, domain.CommitOptions{
		Message:    domain.JoinMessage(domain.AbandonedSubject(meta.Description), record),
		AllowEmpty: true,
	})
	if err != nil {
		return nil, fmt.Errorf("commit abandon marker: %w", err)
	}
	if err := repo.Push(ctx, branchRefspec(def)); err != nil {
		return nil, fmt.Errorf("push %s: %w", def, err)
	}
	return &CompleteOutput{Commit: commit}, nil
}

// dropMetadata removes the task metadata record from the tree by amending
// the current commit. It returns the resulting tip.
func (c *Completer) dropMetadata(ctx context.Context, repo domain.Repository, actor domain.Actor, message string) (string, error) {
	err := repo.RemovePath(domain.TaskMetadataFile)
	if err != nil && !errors.Is(err, domain.ErrFileNotFound) {
		return "", err
	}
	commit, err := repo.Commit(ctx, actor, domain.CommitOptions{
		Message:    message,
		Amend:      true,
		AllowEmpty: true,
	})
	if err != nil {
		return "", fmt.Errorf("remove task metadata: %w", err)
	}
	return commit, nil
}

// returnToTask leaves the clone on the task branch at head after a failed
// completion, so no half-finished merge is ever pushed by a later write.
func (c *Completer) returnToTask(ctx context.Context, repo domain.Repository, branch, head string) {
	if err := repo.Checkout(ctx, branch); err != nil {
		c.logger.Error(branch, "complete", "return to task branch: "+err.Error())
		return
	}
	if err := repo.ResetHard(ctx, head); err != nil {
		c.logger.Error(branch, "complete", "reset task branch: "+err.Error())
	}
}
