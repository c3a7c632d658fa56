package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/runoshun/quire/internal/domain"
)

// MoveEntryInput contains the parameters for moving content.
type MoveEntryInput struct {
	Actor       domain.Actor
	Branch      string
	ExpectedSHA string
	From        string // File or entry directory
	To          string // New path; must not exist
}

// MoveEntry is the use case for moving or renaming a file or entry.
type MoveEntry struct {
	writer TaskWriter
}

// NewMoveEntry creates a new MoveEntry use case.
func NewMoveEntry(writer TaskWriter) *MoveEntry {
	return &MoveEntry{writer: writer}
}

// Execute moves the path. Every moved file is recorded as deleted at its old
// path and created at its new one.
func (uc *MoveEntry) Execute(ctx context.Context, in MoveEntryInput) (*WriteOutput, error) {
	from, err := domain.CleanContentPath(in.From)
	if err != nil {
		return nil, err
	}
	to, err := domain.CleanContentPath(in.To)
	if err != nil {
		return nil, err
	}
	if from == "" || to == "" {
		return nil, fmt.Errorf("cannot move the content root: %w", domain.ErrInvalidPath)
	}
	if from == to || strings.HasPrefix(to, from+"/") {
		return nil, fmt.Errorf("cannot move %q into itself: %w", from, domain.ErrInvalidPath)
	}

	return uc.writer.write(ctx, in.Actor, in.Branch, in.ExpectedSHA, func(repo domain.Repository) (domain.CommitOptions, error) {
		files, err := entryFiles(ctx, repo, from)
		if err != nil {
			return domain.CommitOptions{}, err
		}
		var deleted, created []domain.ChangeEntry
		for _, f := range files {
			data, err := repo.ReadFile(f)
			if err != nil {
				return domain.CommitOptions{}, err
			}
			moved := to + strings.TrimPrefix(f, from)
			deleted = append(deleted, describeFile(domain.ActionDeleted, f, data))
			created = append(created, describeFile(domain.ActionCreated, moved, data))
		}
		if err := repo.MovePath(from, to); err != nil {
			return domain.CommitOptions{}, err
		}
		return editOptions(append(sortEntriesFirst(created), sortEntriesFirst(deleted)...))
	})
}
