package usecase

import (
	"context"
	"fmt"

	"github.com/runoshun/quire/internal/domain"
)

// DeleteEntryInput contains the parameters for deleting content.
type DeleteEntryInput struct {
	Actor       domain.Actor
	Branch      string
	ExpectedSHA string
	Path        string // File or entry directory
}

// DeleteEntry is the use case for removing a file or a whole entry.
type DeleteEntry struct {
	writer TaskWriter
}

// NewDeleteEntry creates a new DeleteEntry use case.
func NewDeleteEntry(writer TaskWriter) *DeleteEntry {
	return &DeleteEntry{writer: writer}
}

// Execute removes the path and records every removed file in the edit commit.
func (uc *DeleteEntry) Execute(ctx context.Context, in DeleteEntryInput) (*WriteOutput, error) {
	target, err := domain.CleanContentPath(in.Path)
	if err != nil {
		return nil, err
	}
	if target == "" {
		return nil, fmt.Errorf("cannot delete the content root: %w", domain.ErrInvalidPath)
	}

	return uc.writer.write(ctx, in.Actor, in.Branch, in.ExpectedSHA, func(repo domain.Repository) (domain.CommitOptions, error) {
		files, err := entryFiles(ctx, repo, target)
		if err != nil {
			return domain.CommitOptions{}, err
		}
		changes := make([]domain.ChangeEntry, 0, len(files))
		for _, f := range files {
			data, err := repo.ReadFile(f)
			if err != nil {
				return domain.CommitOptions{}, err
			}
			changes = append(changes, describeFile(domain.ActionDeleted, f, data))
		}
		if err := repo.RemovePath(target); err != nil {
			return domain.CommitOptions{}, err
		}
		return editOptions(sortEntriesFirst(changes))
	})
}

// sortEntriesFirst moves document changes ahead of plain files, keeping
// their relative order, so the commit subject names the entry.
func sortEntriesFirst(changes []domain.ChangeEntry) []domain.ChangeEntry {
	sorted := make([]domain.ChangeEntry, 0, len(changes))
	for _, c := range changes {
		if c.DisplayType != "file" {
			sorted = append(sorted, c)
		}
	}
	for _, c := range changes {
		if c.DisplayType == "file" {
			sorted = append(sorted, c)
		}
	}
	return sorted
}
