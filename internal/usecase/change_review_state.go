package usecase

import (
	"context"
	"fmt"

	"github.com/runoshun/quire/internal/domain"
	"github.com/runoshun/quire/internal/usecase/shared"
)

// ChangeReviewStateInput contains the parameters for a review step.
type ChangeReviewStateInput struct {
	Actor       domain.Actor
	Branch      string
	ExpectedSHA string
	Target      domain.ReviewState // feedback, endorsed or published
}

// ChangeReviewStateOutput contains the result of a review step.
type ChangeReviewStateOutput struct {
	State  domain.ReviewState // State after the step
	Commit string             // Marker commit, or the publish commit on the default branch
	Head   string             // Task tip after syncing ("" once published)
	Tag    string             // Tag recording the task when published
}

// ChangeReviewState is the use case for moving a task through review.
type ChangeReviewState struct {
	opener    *shared.TaskOpener
	syncer    *shared.Syncer
	completer *shared.Completer
	logger    domain.Logger
}

// NewChangeReviewState creates a new ChangeReviewState use case.
func NewChangeReviewState(
	opener *shared.TaskOpener,
	syncer *shared.Syncer,
	completer *shared.Completer,
	logger domain.Logger,
) *ChangeReviewState {
	return &ChangeReviewState{
		opener:    opener,
		syncer:    syncer,
		completer: completer,
		logger:    logger,
	}
}

// Execute validates the step against the derived state and domain.Authorize,
// then records it:
//   - feedback: commit "Requested feedback."
//   - endorsed: commit "Approved changes."
//   - published: merge the task into the default branch
func (uc *ChangeReviewState) Execute(ctx context.Context, in ChangeReviewStateInput) (*ChangeReviewStateOutput, error) {
	if !in.Target.IsValid() {
		return nil, fmt.Errorf("%q: %w", in.Target, domain.ErrInvalidTransition)
	}

	lease, err := uc.opener.OpenTask(ctx, in.Actor, in.Branch)
	if err != nil {
		return nil, err
	}
	defer lease.Release()

	if !shared.MatchesSHA(lease.Head, in.ExpectedSHA) {
		return nil, domain.ErrStaleWrite
	}
	record, err := shared.LoadOpenTask(ctx, lease.Repo, lease.Branch, uc.opener.DefaultBranch(), "HEAD")
	if err != nil {
		return nil, err
	}
	state := record.Task.State
	if !state.CanTransitionTo(in.Target) {
		return nil, fmt.Errorf("%s to %s: %w", state, in.Target, domain.ErrInvalidTransition)
	}
	if !domain.Authorize(record.Commits, in.Actor, in.Target) {
		return nil, fmt.Errorf("%s may not move the task to %s: %w", in.Actor.Email, in.Target, domain.ErrNotAuthorized)
	}

	if in.Target == domain.ReviewPublished {
		out, err := uc.completer.Complete(ctx, lease, shared.CompleteInput{
			Actor:    in.Actor,
			Strategy: domain.StrategyMerge,
		})
		if err != nil {
			return nil, err
		}
		return &ChangeReviewStateOutput{State: domain.ReviewPublished, Commit: out.Commit, Tag: out.Tag}, nil
	}

	subject := domain.SubjectFeedbackRequested
	if in.Target == domain.ReviewEndorsed {
		subject = domain.SubjectApproved
	}
	out, err := uc.syncer.Write(ctx, lease, shared.SyncInput{
		Actor:       in.Actor,
		ExpectedSHA: lease.Head,
		Change:      markerChange(subject, ""),
	})
	if err != nil {
		return nil, err
	}
	uc.logger.Info(lease.Branch, "review", fmt.Sprintf("%s moved the task to %s", in.Actor.Email, in.Target))
	return &ChangeReviewStateOutput{State: in.Target, Commit: out.Commit, Head: out.Head}, nil
}
