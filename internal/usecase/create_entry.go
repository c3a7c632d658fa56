package usecase

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/runoshun/quire/internal/domain"
)

// CreateEntryInput contains the parameters for creating an article or category.
type CreateEntryInput struct {
	Actor       domain.Actor
	Kind        domain.EntryKind
	Branch      string
	ExpectedSHA string
	Parent      string // Category directory the entry goes into ("" = root)
	Title       string
}

// CreateEntryOutput contains the result of creating an entry.
type CreateEntryOutput struct {
	WriteOutput
	Path string // Index file of the new entry
}

// CreateEntry is the use case for adding an article or category.
type CreateEntry struct {
	writer TaskWriter
}

// NewCreateEntry creates a new CreateEntry use case.
func NewCreateEntry(writer TaskWriter) *CreateEntry {
	return &CreateEntry{writer: writer}
}

// Execute creates <parent>/<slug of title>/index.md and syncs the edit commit.
func (uc *CreateEntry) Execute(ctx context.Context, in CreateEntryInput) (*CreateEntryOutput, error) {
	if !in.Kind.IsValid() {
		return nil, fmt.Errorf("%q: %w", in.Kind, domain.ErrInvalidKind)
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, domain.ErrEmptyTitle
	}
	slug := domain.Slugify(title)
	if slug == "" {
		return nil, fmt.Errorf("title %q has no usable characters: %w", title, domain.ErrInvalidPath)
	}
	parent, err := domain.CleanContentPath(in.Parent)
	if err != nil {
		return nil, err
	}
	indexPath := domain.EntryIndexPath(path.Join(parent, slug))

	out, err := uc.writer.write(ctx, in.Actor, in.Branch, in.ExpectedSHA, func(repo domain.Repository) (domain.CommitOptions, error) {
		if _, err := repo.ReadFile(indexPath); err == nil {
			return domain.CommitOptions{}, fmt.Errorf("%s: %w", indexPath, domain.ErrEntryExists)
		} else if !errors.Is(err, domain.ErrFileNotFound) {
			return domain.CommitOptions{}, err
		}
		data, err := domain.NewEntryDocument(in.Kind, title).Bytes()
		if err != nil {
			return domain.CommitOptions{}, err
		}
		if err := repo.WriteFile(indexPath, data); err != nil {
			return domain.CommitOptions{}, err
		}
		return editOptions([]domain.ChangeEntry{describeFile(domain.ActionCreated, indexPath, data)})
	})
	if err != nil {
		return nil, err
	}
	return &CreateEntryOutput{WriteOutput: *out, Path: indexPath}, nil
}
