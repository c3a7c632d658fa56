package usecase

import (
	"context"

	"github.com/runoshun/quire/internal/domain"
	"github.com/runoshun/quire/internal/usecase/shared"
)

// WriteOutput is the result of every write to a task branch.
type WriteOutput struct {
	Commit string // Commit recording the change
	Head   string // Branch tip after syncing; the token for the next write
}

// TaskWriter opens a task and runs one synchronized change on it.
// It is shared by every use case that writes to a task branch.
type TaskWriter struct {
	opener *shared.TaskOpener
	syncer *shared.Syncer
}

// NewTaskWriter creates a new TaskWriter.
func NewTaskWriter(opener *shared.TaskOpener, syncer *shared.Syncer) TaskWriter {
	return TaskWriter{opener: opener, syncer: syncer}
}

func (w TaskWriter) write(ctx context.Context, actor domain.Actor, branch, expectedSHA string, change shared.Change) (*WriteOutput, error) {
	lease, err := w.opener.OpenTask(ctx, actor, branch)
	if err != nil {
		return nil, err
	}
	defer lease.Release()

	out, err := w.syncer.Write(ctx, lease, shared.SyncInput{
		Actor:       actor,
		ExpectedSHA: expectedSHA,
		Change:      change,
	})
	if err != nil {
		return nil, err
	}
	return &WriteOutput{Commit: out.Commit, Head: out.Head}, nil
}

// markerChange commits an empty marker commit.
func markerChange(subject, body string) shared.Change {
	return func(domain.Repository) (domain.CommitOptions, error) {
		return domain.CommitOptions{
			Message:    domain.JoinMessage(subject, body),
			AllowEmpty: true,
		}, nil
	}
}
