package usecase

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/runoshun/quire/internal/domain"
)

// resolveDocument finds a document by its file path or its entry directory.
// The empty path is the root category.
func resolveDocument(repo domain.Repository, p string) (string, []byte, error) {
	clean, err := domain.CleanContentPath(p)
	if err != nil {
		return "", nil, err
	}
	candidates := []string{domain.EntryIndexPath(clean), clean}
	if clean == "" {
		candidates = []string{domain.IndexFile}
	} else if strings.HasSuffix(clean, ".md") {
		candidates = []string{clean}
	}
	for _, c := range candidates {
		data, err := repo.ReadFile(c)
		if err == nil {
			return c, data, nil
		}
		if !errors.Is(err, domain.ErrFileNotFound) {
			return "", nil, err
		}
	}
	return "", nil, fmt.Errorf("%q: %w", p, domain.ErrFileNotFound)
}

// describeFile builds the change entry of one content file.
// Documents are described by their front matter, other files by their name.
func describeFile(action domain.EditAction, filePath string, data []byte) domain.ChangeEntry {
	entry := domain.ChangeEntry{
		Action:      action,
		Path:        filePath,
		DisplayType: "file",
		Title:       path.Base(filePath),
	}
	if !strings.HasSuffix(filePath, ".md") {
		return entry
	}
	doc, err := domain.ParseDocument(data)
	if err != nil {
		return entry
	}
	entry.DisplayType = doc.DisplayType()
	if title := doc.Title(); title != "" {
		entry.Title = title
	}
	return entry
}

// entryFiles lists the committed files of a file or directory path.
func entryFiles(ctx context.Context, repo domain.Repository, p string) ([]string, error) {
	if _, err := repo.ReadFile(p); err == nil {
		return []string{p}, nil
	} else if !errors.Is(err, domain.ErrFileNotFound) {
		return nil, err
	}
	files, err := repo.ListFiles(ctx, "HEAD", p)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%q: %w", p, domain.ErrFileNotFound)
	}
	return files, nil
}

// editOptions wraps change entries into commit options.
func editOptions(changes []domain.ChangeEntry) (domain.CommitOptions, error) {
	message, err := domain.EditMessage(changes)
	if err != nil {
		return domain.CommitOptions{}, err
	}
	return domain.CommitOptions{Message: message}, nil
}
