package shared

import (
	"context"
	"errors"
	"fmt"

	"github.com/runoshun/quire/internal/domain"
)

// TaskRecord is a task together with its own commits.
type TaskRecord struct {
	Task    domain.Task
	Commits []domain.Commit // Commits since the common ancestor, newest first
}

// Status returns the review status of the record as seen by actor.
func (r *TaskRecord) Status(actor domain.Actor) domain.ReviewStatus {
	if r.Task.State == domain.ReviewPublished {
		return domain.ReviewStatus{State: domain.ReviewPublished}
	}
	return domain.NewReviewStatus(r.Commits, actor)
}

// History classifies the record's commits, newest first.
func (r *TaskRecord) History() []domain.Activity {
	return domain.ActivityHistory(r.Commits)
}

// LoadOpenTask reads an open task at rev of a clone.
// The history is bounded by the common ancestor of rev and origin's default
// branch.
func LoadOpenTask(ctx context.Context, repo domain.Repository, branch, defaultBranch, rev string) (*TaskRecord, error) {
	head, err := repo.ResolveRef(ctx, rev)
	if err != nil {
		return nil, err
	}
	meta, err := ReadMetadata(ctx, repo, head)
	if err != nil {
		return nil, err
	}

	exclude, base := "", ""
	if _, ok, err := repo.RemoteBranch(ctx, defaultBranch); err != nil {
		return nil, err
	} else if ok {
		exclude = domain.RemoteRef(defaultBranch)
		if base, err = repo.MergeBase(ctx, exclude, head); err != nil {
			return nil, err
		}
	}

	commits, err := repo.Log(ctx, exclude, head)
	if err != nil {
		return nil, fmt.Errorf("read task history: %w", err)
	}
	commits = domain.CommitsSinceAncestor(commits, base)

	return &TaskRecord{
		Task: domain.Task{
			Metadata: *meta,
			Branch:   branch,
			Head:     head,
			State:    domain.DeriveReviewState(commits),
		},
		Commits: commits,
	}, nil
}

// LoadPublishedTask reads a completed task from the tag named after its branch.
// The tagged commit joins the task tip, recognized by its metadata record, with
// the default branch it was published into.
func LoadPublishedTask(ctx context.Context, repo domain.Repository, branch string) (*TaskRecord, error) {
	message, ok, err := repo.TagMessage(ctx, branch)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", branch, domain.ErrBranchNotFound)
	}
	meta, err := domain.ParseTaskMetadata([]byte(message))
	if err != nil {
		return nil, err
	}
	target, _, err := repo.TagTarget(ctx, branch)
	if err != nil {
		return nil, err
	}
	tagged, err := repo.CommitInfo(ctx, target)
	if err != nil {
		return nil, err
	}

	commits := []domain.Commit{tagged}
	taskTip, other, err := splitPublishParents(ctx, repo, tagged)
	if err != nil {
		return nil, err
	}
	if taskTip != "" {
		log, err := repo.Log(ctx, other, taskTip)
		if err != nil {
			return nil, fmt.Errorf("read task history: %w", err)
		}
		base, err := repo.MergeBase(ctx, other, taskTip)
		if err != nil {
			return nil, err
		}
		commits = append(commits, domain.CommitsSinceAncestor(log, base)...)
	}

	return &TaskRecord{
		Task: domain.Task{
			Metadata: *meta,
			Branch:   branch,
			Head:     tagged.SHA,
			State:    domain.ReviewPublished,
		},
		Commits: commits,
	}, nil
}

// splitPublishParents finds which parent of a publish commit is the task tip.
// It returns empty strings if the commit is not a two-parent join.
func splitPublishParents(ctx context.Context, repo domain.Repository, c domain.Commit) (taskTip, other string, err error) {
	if len(c.Parents) != 2 {
		return "", "", nil
	}
	for i, p := range c.Parents {
		_, err := repo.ReadFileAt(ctx, p, domain.TaskMetadataFile)
		if errors.Is(err, domain.ErrFileNotFound) {
			continue
		}
		if err != nil {
			return "", "", err
		}
		return p, c.Parents[1-i], nil
	}
	return "", "", nil
}
