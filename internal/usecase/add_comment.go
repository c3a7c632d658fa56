package usecase

import (
	"context"
	"strings"

	"github.com/runoshun/quire/internal/domain"
)

// AddCommentInput contains the parameters for commenting on a task.
type AddCommentInput struct {
	Actor       domain.Actor
	Branch      string
	ExpectedSHA string
	Message     string // Comment text (required)
}

// AddComment is the use case for leaving feedback on a task.
// Comments do not change the review state.
type AddComment struct {
	writer TaskWriter
}

// NewAddComment creates a new AddComment use case.
func NewAddComment(writer TaskWriter) *AddComment {
	return &AddComment{writer: writer}
}

// Execute records the comment as an empty commit.
func (uc *AddComment) Execute(ctx context.Context, in AddCommentInput) (*WriteOutput, error) {
	message := strings.TrimSpace(in.Message)
	if message == "" {
		return nil, domain.ErrEmptyMessage
	}
	return uc.writer.write(ctx, in.Actor, in.Branch, in.ExpectedSHA,
		markerChange(domain.SubjectFeedbackProvided, message))
}
