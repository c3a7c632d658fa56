// Package shared provides shared utilities for use cases.
package shared

import (
	"context"
	"fmt"
	"strings"

	"github.com/runoshun/quire/internal/domain"
)

// ConflictReport renders a merge conflict for a person deciding how to resolve it.
func ConflictReport(ctx context.Context, conflict *domain.MergeConflict, branch string) (string, error) {
	files, err := conflict.Files(ctx)
	if err != nil {
		return "", err
	}
	return buildConflictMessage(conflict, files, branch), nil
}

// buildConflictMessage creates a user-friendly conflict message.
func buildConflictMessage(conflict *domain.MergeConflict, files domain.ConflictFiles, branch string) string {
	var sb strings.Builder
	sb.WriteString("Someone else changed the same content while you were working.\n\n")
	sb.WriteString(fmt.Sprintf("Your version:  %s by %s\n", conflict.Local.ShortSHA(), conflict.Local.Author.DisplayName()))
	sb.WriteString(fmt.Sprintf("Their version: %s by %s\n", conflict.Remote.ShortSHA(), conflict.Remote.Author.DisplayName()))

	writeFiles := func(title string, paths []string) {
		if len(paths) == 0 {
			return
		}
		sb.WriteString("\n")
		sb.WriteString(title)
		sb.WriteString(":\n")
		for _, p := range paths {
			sb.WriteString("- ")
			sb.WriteString(p)
			sb.WriteString("\n")
		}
	}
	writeFiles("Changed on both sides", files.Changed)
	writeFiles("Added in your version", files.Added)
	writeFiles("Removed in their version", files.Removed)

	sb.WriteString("\nHow to continue:\n")
	sb.WriteString("1. Reload the task and make your change again\n")
	sb.WriteString(fmt.Sprintf("2. Or replace the published content with yours: quire clobber %s\n", branch))
	sb.WriteString(fmt.Sprintf("3. Or discard your task: quire abandon %s", branch))
	return sb.String()
}
