package usecase

import (
	"context"
	"sort"

	"github.com/runoshun/quire/internal/domain"
)

// UpdateTaskMetadataInput contains the parameters for updating task metadata.
type UpdateTaskMetadataInput struct {
	Fields      map[string]string // Keys to set; unknown keys are kept as free-form fields
	Actor       domain.Actor
	Branch      string
	ExpectedSHA string
}

// UpdateTaskMetadata is the use case for changing the task metadata record.
type UpdateTaskMetadata struct {
	writer TaskWriter
}

// NewUpdateTaskMetadata creates a new UpdateTaskMetadata use case.
func NewUpdateTaskMetadata(writer TaskWriter) *UpdateTaskMetadata {
	return &UpdateTaskMetadata{writer: writer}
}

// Execute rewrites the record. Keys not named in Fields are preserved.
func (uc *UpdateTaskMetadata) Execute(ctx context.Context, in UpdateTaskMetadataInput) (*WriteOutput, error) {
	if len(in.Fields) == 0 {
		return nil, domain.ErrNoFieldsToUpdate
	}
	return uc.writer.write(ctx, in.Actor, in.Branch, in.ExpectedSHA, func(repo domain.Repository) (domain.CommitOptions, error) {
		data, err := repo.ReadFile(domain.TaskMetadataFile)
		if err != nil {
			return domain.CommitOptions{}, err
		}
		meta, err := domain.ParseTaskMetadata(data)
		if err != nil {
			return domain.CommitOptions{}, err
		}
		keys := make([]string, 0, len(in.Fields))
		for k := range in.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if err := meta.Set(k, in.Fields[k]); err != nil {
				return domain.CommitOptions{}, err
			}
		}
		updated, err := meta.Marshal()
		if err != nil {
			return domain.CommitOptions{}, err
		}
		if err := repo.WriteFile(domain.TaskMetadataFile, updated); err != nil {
			return domain.CommitOptions{}, err
		}
		return domain.CommitOptions{Message: domain.SubjectMetadataUpdated}, nil
	})
}
