package usecase

import (
	"context"
	"sort"
	"strings"

	"github.com/runoshun/quire/internal/domain"
)

// SaveDocumentInput contains the parameters for editing a content document.
// Only non-nil/non-empty fields are changed.
type SaveDocumentInput struct {
	Title       *string           // New title (nil = no change)
	Body        *string           // New body (nil = no change)
	Fields      map[string]string // Front matter keys to set
	Actor       domain.Actor
	Branch      string
	ExpectedSHA string // Tip the editor loaded the document at
	Path        string // Document file or entry directory
}

// SaveDocument is the use case for editing a document on a task branch.
type SaveDocument struct {
	writer TaskWriter
}

// NewSaveDocument creates a new SaveDocument use case.
func NewSaveDocument(writer TaskWriter) *SaveDocument {
	return &SaveDocument{writer: writer}
}

// Execute rewrites the document and syncs the edit commit.
// Front matter keys are written sorted, one per line, so edits of different
// keys on different branches merge cleanly.
func (uc *SaveDocument) Execute(ctx context.Context, in SaveDocumentInput) (*WriteOutput, error) {
	if in.Title == nil && in.Body == nil && len(in.Fields) == 0 {
		return nil, domain.ErrNoFieldsToUpdate
	}
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return nil, domain.ErrEmptyTitle
	}

	return uc.writer.write(ctx, in.Actor, in.Branch, in.ExpectedSHA, func(repo domain.Repository) (domain.CommitOptions, error) {
		filePath, data, err := resolveDocument(repo, in.Path)
		if err != nil {
			return domain.CommitOptions{}, err
		}
		doc, err := domain.ParseDocument(data)
		if err != nil {
			return domain.CommitOptions{}, err
		}

		keys := make([]string, 0, len(in.Fields))
		for k := range in.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			doc.FrontMatter[k] = in.Fields[k]
		}
		if in.Title != nil {
			doc.FrontMatter[domain.TitleKey] = strings.TrimSpace(*in.Title)
		}
		if in.Body != nil {
			doc.Body = *in.Body
		}

		updated, err := doc.Bytes()
		if err != nil {
			return domain.CommitOptions{}, err
		}
		if err := repo.WriteFile(filePath, updated); err != nil {
			return domain.CommitOptions{}, err
		}
		return editOptions([]domain.ChangeEntry{describeFile(domain.ActionEdited, filePath, updated)})
	})
}
