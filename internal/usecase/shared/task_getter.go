package shared

import (
	"context"
	"errors"
	"fmt"

	"github.com/runoshun/quire/internal/domain"
)

// Lease is a clone leased for one request, checked out on a branch.
type Lease struct {
	Repo    domain.Repository
	release func()
	Branch  string
	Head    string // Local tip after opening
	Tracked bool   // A local tracking branch was created from origin
}

// Release returns the clone to the pool. It is safe to call more than once.
func (l *Lease) Release() {
	if l.release != nil {
		l.release()
		l.release = nil
	}
}

// TaskOpener leases clones and reconciles them with origin.
type TaskOpener struct {
	pool   domain.ClonePool
	logger domain.Logger
	opts   Options
}

// NewTaskOpener creates a new TaskOpener.
func NewTaskOpener(pool domain.ClonePool, logger domain.Logger, opts Options) *TaskOpener {
	return &TaskOpener{
		pool:   pool,
		logger: logger,
		opts:   opts,
	}
}

// DefaultBranch returns the long-lived content branch.
func (o *TaskOpener) DefaultBranch() string {
	return o.opts.DefaultBranch
}

// OpenTask leases actor's clone of branch and checks the branch out.
// Origin is authoritative: a branch missing at origin is ErrBranchNotFound even
// if a stale local copy exists. A local branch that is behind origin is
// fast-forwarded; one with unpushed commits is kept as is.
func (o *TaskOpener) OpenTask(ctx context.Context, actor domain.Actor, branch string) (*Lease, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	if err := domain.ValidateBranchName(branch); err != nil {
		return nil, err
	}
	if branch == o.opts.DefaultBranch {
		return nil, fmt.Errorf("%q is the default branch: %w", branch, domain.ErrInvalidBranchName)
	}

	lease, err := o.Acquire(ctx, actor, branch)
	if err != nil {
		return nil, err
	}
	if err := o.CheckoutTask(ctx, lease); err != nil {
		lease.Release()
		if errors.Is(err, domain.ErrBranchNotFound) {
			// Do not keep clones of mistyped or completed tasks.
			if evictErr := o.pool.Evict(branch); evictErr != nil {
				o.logger.Warn(branch, "locate", "evict clones: "+evictErr.Error())
			}
		}
		return nil, err
	}
	return lease, nil
}

// OpenDefault leases actor's browse clone, checked out on the default branch
// at its origin tip.
func (o *TaskOpener) OpenDefault(ctx context.Context, actor domain.Actor) (*Lease, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	lease, err := o.Acquire(ctx, actor, o.opts.DefaultBranch)
	if err != nil {
		return nil, err
	}
	lease.Branch = o.opts.DefaultBranch
	if err := CheckoutRemote(ctx, lease.Repo, o.opts.DefaultBranch); err != nil {
		lease.Release()
		return nil, err
	}
	head, err := lease.Repo.ResolveRef(ctx, "HEAD")
	if err != nil {
		lease.Release()
		return nil, err
	}
	lease.Head = head
	return lease, nil
}

// Acquire leases actor's clone for branch and fetches origin without checking
// anything out.
func (o *TaskOpener) Acquire(ctx context.Context, actor domain.Actor, branch string) (*Lease, error) {
	repo, release, err := o.pool.Acquire(ctx, actor, branch)
	if err != nil {
		return nil, fmt.Errorf("acquire clone: %w", err)
	}
	lease := &Lease{Repo: repo, release: release, Branch: branch}
	err = Retry(ctx, o.opts.Retries, o.opts.RetryDelay, func(int) error {
		return repo.Fetch(ctx)
	})
	if err != nil {
		lease.Release()
		return nil, fmt.Errorf("fetch origin: %w", err)
	}
	return lease, nil
}

// CheckoutTask checks out the leased task branch, reconciled with origin.
func (o *TaskOpener) CheckoutTask(ctx context.Context, lease *Lease) error {
	repo, branch := lease.Repo, lease.Branch

	remote, onOrigin, err := repo.RemoteBranch(ctx, branch)
	if err != nil {
		return err
	}
	local, err := repo.LocalBranchExists(ctx, branch)
	if err != nil {
		return err
	}

	if !onOrigin {
		if local {
			o.logger.Warn(branch, "locate", "local branch has no counterpart at origin")
		}
		return fmt.Errorf("%s: %w", branch, domain.ErrBranchNotFound)
	}

	if !local {
		if err := repo.CreateBranch(ctx, branch, domain.RemoteRef(branch)); err != nil {
			return fmt.Errorf("create tracking branch: %w", err)
		}
		lease.Tracked = true
		o.logger.Debug(branch, "locate", "created local tracking branch")
	} else {
		if err := repo.Checkout(ctx, branch); err != nil {
			return fmt.Errorf("checkout task branch: %w", err)
		}
		head, err := repo.ResolveRef(ctx, "HEAD")
		if err != nil {
			return err
		}
		behind, err := repo.IsAncestor(ctx, head, remote)
		if err != nil {
			return err
		}
		if behind && head != remote {
			if err := repo.ResetHard(ctx, remote); err != nil {
				return fmt.Errorf("fast-forward task branch: %w", err)
			}
		}
	}

	head, err := repo.ResolveRef(ctx, "HEAD")
	if err != nil {
		return err
	}
	lease.Head = head
	return nil
}

// CheckoutRemote resets a local branch to its origin tip and checks it out.
func CheckoutRemote(ctx context.Context, repo domain.Repository, branch string) error {
	if _, ok, err := repo.RemoteBranch(ctx, branch); err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("%s: %w", branch, domain.ErrBranchNotFound)
	}
	if err := repo.CreateBranch(ctx, branch, domain.RemoteRef(branch)); err != nil {
		return fmt.Errorf("checkout %s: %w", branch, err)
	}
	return nil
}

// ReadMetadata reads the task metadata record at rev.
func ReadMetadata(ctx context.Context, repo domain.Repository, rev string) (*domain.TaskMetadata, error) {
	data, err := repo.ReadFileAt(ctx, rev, domain.TaskMetadataFile)
	if errors.Is(err, domain.ErrFileNotFound) {
		return nil, fmt.Errorf("%s has no task metadata: %w", rev, domain.ErrBranchNotFound)
	}
	if err != nil {
		return nil, err
	}
	return domain.ParseTaskMetadata(data)
}
