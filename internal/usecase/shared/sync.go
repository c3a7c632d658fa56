package shared

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/runoshun/quire/internal/domain"
)

// DefaultRetryDelay is the first pause before retrying an unreachable origin.
const DefaultRetryDelay = 250 * time.Millisecond

// Change applies a modification to the working tree and returns how to commit it.
type Change func(repo domain.Repository) (domain.CommitOptions, error)

// SyncInput contains the parameters for one synchronized write.
type SyncInput struct {
	Change      Change
	Actor       domain.Actor
	ExpectedSHA string // Optimistic-lock token; empty skips the check
}

// SyncOutput contains the result of a synchronized write.
type SyncOutput struct {
	Commit string // The commit made for the change
	Head   string // Branch tip after reconciling and pushing
}

// Options are the repository settings shared by the task helpers.
type Options struct {
	DefaultBranch string        // Long-lived content branch
	Retries       int           // Extra attempts after a rejected push or an unreachable origin
	RetryDelay    time.Duration // First backoff for an unreachable origin
	NameWindow    time.Duration // Start requests within one window map to the same branch
}

// NewOptions derives Options from the configuration.
func NewOptions(cfg *domain.Config) Options {
	return Options{
		DefaultBranch: cfg.Repo.DefaultBranch,
		Retries:       cfg.Sync.PushRetries,
		RetryDelay:    DefaultRetryDelay,
		NameWindow:    cfg.Task.NameWindow,
	}
}

// Syncer runs the fetch/merge/push cycle around every write to a task branch.
type Syncer struct {
	logger domain.Logger
	opts   Options
}

// NewSyncer creates a new Syncer.
func NewSyncer(logger domain.Logger, opts Options) *Syncer {
	return &Syncer{
		logger: logger,
		opts:   opts,
	}
}

// Write commits a change on the leased task branch and reconciles it with origin.
//
// Processing:
//  1. Compare the branch tip with ExpectedSHA (ErrStaleWrite on mismatch)
//  2. Apply and commit the change as the actor
//  3. Merge origin's copy of the task branch, then of the default branch
//  4. Push; a rejected push repeats 3-4
//
// A failed merge is aborted, the branch is reset to the local commit and a
// *domain.MergeConflict is returned. A failed change resets the working tree.
func (s *Syncer) Write(ctx context.Context, lease *Lease, in SyncInput) (*SyncOutput, error) {
	repo, branch := lease.Repo, lease.Branch

	head, err := repo.ResolveRef(ctx, "HEAD")
	if err != nil {
		return nil, err
	}
	if !MatchesSHA(head, in.ExpectedSHA) {
		s.logger.Info(branch, "sync", fmt.Sprintf("stale write: expected %s, tip is %s", in.ExpectedSHA, head))
		return nil, domain.ErrStaleWrite
	}

	opts, err := in.Change(repo)
	if err != nil {
		s.restore(ctx, repo, branch, head)
		return nil, err
	}
	commit, err := repo.Commit(ctx, in.Actor, opts)
	if err != nil {
		s.restore(ctx, repo, branch, head)
		return nil, fmt.Errorf("commit change: %w", err)
	}
	s.logger.Debug(branch, "sync", "committed "+shortSHA(commit))

	if err := s.Reconcile(ctx, repo, in.Actor, branch); err != nil {
		return nil, err
	}

	tip, err := repo.ResolveRef(ctx, "HEAD")
	if err != nil {
		return nil, err
	}
	lease.Head = tip
	return &SyncOutput{Commit: commit, Head: tip}, nil
}

// Reconcile merges origin's copies of branch and of the default branch into
// the checked out branch and pushes it, retrying rejected pushes.
func (s *Syncer) Reconcile(ctx context.Context, repo domain.Repository, actor domain.Actor, branch string) error {
	return Retry(ctx, s.opts.Retries, s.opts.RetryDelay, func(attempt int) error {
		if attempt > 0 {
			s.logger.Info(branch, "sync", fmt.Sprintf("retrying sync (attempt %d)", attempt+1))
			if err := repo.Fetch(ctx); err != nil {
				return fmt.Errorf("fetch origin: %w", err)
			}
		}
		for _, upstream := range []string{branch, s.opts.DefaultBranch} {
			if err := s.mergeUpstream(ctx, repo, actor, branch, upstream); err != nil {
				return err
			}
		}
		if err := repo.Push(ctx, branchRefspec(branch)); err != nil {
			return fmt.Errorf("push %s: %w", branch, err)
		}
		s.logger.Info(branch, "sync", "pushed")
		return nil
	})
}

// mergeUpstream merges origin's tip of upstream into the current branch.
func (s *Syncer) mergeUpstream(ctx context.Context, repo domain.Repository, actor domain.Actor, branch, upstream string) error {
	remote, ok, err := repo.RemoteBranch(ctx, upstream)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	local, err := repo.ResolveRef(ctx, "HEAD")
	if err != nil {
		return err
	}
	contained, err := repo.IsAncestor(ctx, remote, local)
	if err != nil {
		return err
	}
	if contained {
		return nil
	}

	ref := domain.RemoteRef(upstream)
	mergeErr := repo.Merge(ctx, actor, ref, domain.MergeOptions{
		Message: domain.SyncSubject(ref),
		NoFF:    true,
	})
	if mergeErr == nil {
		s.logger.Debug(branch, "sync", "merged "+ref)
		return nil
	}
	if !errors.Is(mergeErr, domain.ErrMergeConflict) {
		return fmt.Errorf("merge %s: %w", ref, mergeErr)
	}

	if err := repo.ResetHard(ctx, local); err != nil {
		return fmt.Errorf("reset after conflict: %w", err)
	}
	s.logger.Warn(branch, "sync", fmt.Sprintf("conflict merging %s into %s", ref, shortSHA(local)))
	return NewConflict(ctx, repo, remote, local)
}

// restore resets the working tree after a failed change.
func (s *Syncer) restore(ctx context.Context, repo domain.Repository, branch, head string) {
	if err := repo.ResetHard(ctx, head); err != nil {
		s.logger.Error(branch, "sync", "reset after failed change: "+err.Error())
	}
}

// NewConflict builds a MergeConflict between two commits of repo.
func NewConflict(ctx context.Context, repo domain.Repository, remoteRev, localRev string) error {
	remote, err := repo.CommitInfo(ctx, remoteRev)
	if err != nil {
		return err
	}
	local, err := repo.CommitInfo(ctx, localRev)
	if err != nil {
		return err
	}
	return domain.NewMergeConflict(remote, local, repo)
}

// Retry runs fn until it succeeds, at most retries+1 times.
// Only ErrPushRejected and ErrRemoteUnavailable are retried; an unreachable
// origin is retried with exponential backoff starting at delay.
func Retry(ctx context.Context, retries int, delay time.Duration, fn func(attempt int) error) error {
	if retries < 0 {
		retries = 0
	}
	var err error
	for attempt := 0; attempt <= retries; attempt++ {
		err = fn(attempt)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrPushRejected) && !errors.Is(err, domain.ErrRemoteUnavailable) {
			return err
		}
		if attempt == retries {
			break
		}
		if errors.Is(err, domain.ErrRemoteUnavailable) && delay > 0 {
			select {
			case <-time.After(delay << attempt):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return err
}

// MatchesSHA reports whether sha satisfies the expected token.
// An empty token always matches; an abbreviated token of at least 7
// characters matches by prefix.
func MatchesSHA(sha, expected string) bool {
	expected = strings.ToLower(strings.TrimSpace(expected))
	switch {
	case expected == "":
		return true
	case len(expected) < domain.TaskBranchNameLength:
		return false
	}
	return strings.HasPrefix(sha, expected)
}

func branchRefspec(branch string) string {
	return "refs/heads/" + branch + ":refs/heads/" + branch
}

func tagRefspec(tag string) string {
	return "refs/tags/" + tag + ":refs/tags/" + tag
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}
