package usecase

import (
	"context"

	"github.com/runoshun/quire/internal/domain"
	"github.com/runoshun/quire/internal/usecase/shared"
)

// ReadDocumentInput contains the parameters for reading a document.
type ReadDocumentInput struct {
	Actor  domain.Actor
	Branch string // Task branch ("" = default branch)
	Path   string // Document file or entry directory
}

// ReadDocumentOutput contains a document and the token to edit it with.
type ReadDocumentOutput struct {
	Document *domain.Document
	Path     string // Resolved document file
	Head     string // Branch tip the document was read at
}

// ReadDocument is the use case for loading a document for display or editing.
type ReadDocument struct {
	opener *shared.TaskOpener
}

// NewReadDocument creates a new ReadDocument use case.
func NewReadDocument(opener *shared.TaskOpener) *ReadDocument {
	return &ReadDocument{opener: opener}
}

// Execute reads the document from the actor's clone.
func (uc *ReadDocument) Execute(ctx context.Context, in ReadDocumentInput) (*ReadDocumentOutput, error) {
	var (
		lease *shared.Lease
		err   error
	)
	if in.Branch == "" {
		lease, err = uc.opener.OpenDefault(ctx, in.Actor)
	} else {
		lease, err = uc.opener.OpenTask(ctx, in.Actor, in.Branch)
	}
	if err != nil {
		return nil, err
	}
	defer lease.Release()

	filePath, data, err := resolveDocument(lease.Repo, in.Path)
	if err != nil {
		return nil, err
	}
	doc, err := domain.ParseDocument(data)
	if err != nil {
		return nil, err
	}
	return &ReadDocumentOutput{Document: doc, Path: filePath, Head: lease.Head}, nil
}
